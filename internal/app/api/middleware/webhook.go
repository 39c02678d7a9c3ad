package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/giveledger/pkg/response"
)

const WebhookTokenHeader = "X-Webhook-Token"

// WebhookTokenMiddleware accepts only requests carrying the shared secret.
// An empty secret rejects everything.
func WebhookTokenMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(WebhookTokenHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusOK, response.ErrorMsg(response.APIResponseCodeUnauthorized, "invalid webhook token"))
			return
		}
		c.Next()
	}
}
