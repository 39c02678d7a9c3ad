package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/fatflowers/giveledger/internal/app/api/middleware"
	"github.com/fatflowers/giveledger/internal/app/service/paymentsession"
	"github.com/fatflowers/giveledger/pkg/response"
	"github.com/fatflowers/giveledger/pkg/types"
)

// OpenSessionRequest is the body of POST /api/v1/payment/session. The user
// comes from the bearer token.
type OpenSessionRequest struct {
	TargetKind        types.TargetKind    `json:"target_kind" binding:"required"`
	TargetID          string              `json:"target_id" binding:"required"`
	ExternalSessionID string              `json:"external_session_id" binding:"required"`
	Amount            decimal.Decimal     `json:"amount" swaggertype:"string"`
	Currency          string              `json:"currency" binding:"required"`
	PaymentType       types.PaymentType   `json:"payment_type" binding:"required"`
	ItemKind          *types.DonationKind `json:"item_kind"`
}

type OpenSessionResponse struct {
	SessionID string `json:"session_id"`
}

// @Summary      Open payment session
// @Description  Records a pending payment session for the current user. Re-opening an existing external session returns its id.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body OpenSessionRequest true "Payment session"
// @Success      200  {object}  handlers.RespOpenSession
// @Router       /api/v1/payment/session [post]
func ApiOpenPaymentSession(svc *paymentsession.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthorized, nil))
			return
		}
		var req OpenSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		id, err := svc.Open(c.Request.Context(), paymentsession.OpenRequest{
			UserID:            userID,
			TargetKind:        req.TargetKind,
			TargetID:          req.TargetID,
			ExternalSessionID: req.ExternalSessionID,
			Amount:            req.Amount,
			Currency:          req.Currency,
			PaymentType:       req.PaymentType,
			ItemKind:          req.ItemKind,
		})
		if err != nil {
			code := response.APIResponseCodeError
			switch {
			case errors.Is(err, paymentsession.ErrInvalidRequest):
				code = response.APIResponseCodeBadRequest
			case errors.Is(err, paymentsession.ErrUnknownUser):
				code = response.APIResponseCodeUnauthorized
			}
			c.JSON(http.StatusOK, response.ErrorMsg(code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&OpenSessionResponse{SessionID: id}))
	}
}

func RegisterPaymentRoutes(r gin.IRouter, svc *paymentsession.Service) {
	r.POST("/session", ApiOpenPaymentSession(svc))
}
