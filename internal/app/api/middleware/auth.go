package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/pkg/config"
	"github.com/fatflowers/giveledger/pkg/logctx"
	"github.com/fatflowers/giveledger/pkg/response"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

// UserResolver maps an identity-provider subject to a local user.
type UserResolver interface {
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
}

// ParseSubject verifies an HS256 token and returns its subject.
func ParseSubject(tokenString string, cfg config.AuthConfig) (string, error) {
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("%w: no secret configured", ErrInvalidToken)
	}
	claims := &jwt.StandardClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if cfg.Issuer != "" && !claims.VerifyIssuer(cfg.Issuer, true) {
		return "", fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

func bearerToken(c *gin.Context) (string, error) {
	h := c.GetHeader("Authorization")
	if h == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// AuthMiddleware resolves the bearer token to a local user and stores its
// id under "user_id". Unresolvable callers get an unauthorized envelope.
func AuthMiddleware(cfg *config.Config, users UserResolver, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		lg := logctx.FromGin(c, base)
		token, err := bearerToken(c)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		subject, err := ParseSubject(token, cfg.Auth)
		if err != nil {
			lg.Infow("rejected bearer token", "err", err)
			abortUnauthorized(c, ErrInvalidToken)
			return
		}
		user, err := users.GetUserByExternalID(c.Request.Context(), subject)
		if err != nil {
			lg.Infow("token subject has no local user", "subject", subject, "err", err)
			abortUnauthorized(c, errors.New("unknown user"))
			return
		}

		c.Set(logctx.KeyUserID, user.ID)
		//nolint:staticcheck // string key shared with gin.Context
		ctx := context.WithValue(c.Request.Context(), logctx.KeyUserID, user.ID)
		c.Request = c.Request.WithContext(ctx)
		setLogger(c, lg.With("user_id", user.ID))
		c.Next()
	}
}

// CurrentUserID returns the user resolved by AuthMiddleware.
func CurrentUserID(c *gin.Context) (string, bool) {
	id := c.GetString(logctx.KeyUserID)
	return id, id != ""
}

func abortUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusOK, response.ErrorMsg(response.APIResponseCodeUnauthorized, err.Error()))
}
