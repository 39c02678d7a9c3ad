package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/giveledger/internal/app/service/ledger"
	nh "github.com/fatflowers/giveledger/internal/app/service/notification_handler"
	"github.com/fatflowers/giveledger/internal/app/service/paymentsession"
	"github.com/fatflowers/giveledger/pkg/logctx"
	"github.com/fatflowers/giveledger/pkg/response"
)

// webhookErrorCode maps notification failures to envelope codes. Only
// malformed or unknown-session events are the relay's fault.
func webhookErrorCode(err error) response.APIResponseCode {
	switch {
	case errors.Is(err, nh.ErrInvalidNotification):
		return response.APIResponseCodeBadRequest
	case errors.Is(err, ledger.ErrSessionNotFound), errors.Is(err, paymentsession.ErrSessionUnknown):
		return response.APIResponseCodeNotFound
	case errors.Is(err, ledger.ErrDonorProfileMissing), errors.Is(err, ledger.ErrUnresolvableOwner):
		return response.APIResponseCodeUnprocessable
	default:
		return response.APIResponseCodeError
	}
}

// @Summary      Payment confirmed webhook
// @Description  Completes the payment session named by a payment.succeeded event and records the donation. Safe to redeliver.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        X-Webhook-Token header string true "Shared webhook secret"
// @Param        payload body notification_handler.RelayNotification true "Relay notification"
// @Success      200  {object}  handlers.RespComplete
// @Router       /api/v1/payment/webhook/confirm [post]
func ApiWebhookConfirm(h *nh.NotificationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		lg := logctx.FromGin(c, h.Logger)
		res, err := h.HandleConfirm(c)
		if err != nil {
			lg.Errorw("webhook_confirm_handle_error", "error", err.Error())
			c.JSON(http.StatusOK, response.ErrorMsg(webhookErrorCode(err), err.Error()))
			return
		}
		lg.Infow("webhook_confirm_handled", "donation_id", res.DonationID, "already_completed", res.AlreadyCompleted)
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Payment failed webhook
// @Description  Marks a pending payment session failed. Completed sessions are left untouched.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        X-Webhook-Token header string true "Shared webhook secret"
// @Param        payload body notification_handler.RelayNotification true "Relay notification"
// @Success      200  {object}  handlers.RespPaymentSession
// @Router       /api/v1/payment/webhook/failed [post]
func ApiWebhookFailed(h *nh.NotificationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		lg := logctx.FromGin(c, h.Logger)
		session, err := h.HandleFailed(c)
		if err != nil {
			lg.Errorw("webhook_failed_handle_error", "error", err.Error())
			c.JSON(http.StatusOK, response.ErrorMsg(webhookErrorCode(err), err.Error()))
			return
		}
		lg.Infow("webhook_failed_handled", "session_id", session.ID, "status", session.Status)
		c.JSON(http.StatusOK, response.OKT(session))
	}
}

func RegisterPaymentWebhookRoutes(r gin.IRouter, h *nh.NotificationHandler) {
	r.POST("/confirm", ApiWebhookConfirm(h))
	r.POST("/failed", ApiWebhookFailed(h))
}
