package notification_handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/giveledger/internal/app/service/ledger"
	notificationlog "github.com/fatflowers/giveledger/internal/app/service/notification_log"
	"github.com/fatflowers/giveledger/internal/app/service/paymentsession"
	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/pkg/logctx"
)

type NotificationHandler struct {
	notifSvc *notificationlog.Service
	ledger   *ledger.Service
	sessions *paymentsession.Service
	Logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewNotificationHandler(notif *notificationlog.Service, l *ledger.Service, sessions *paymentsession.Service, log *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{notifSvc: notif, ledger: l, sessions: sessions, Logger: log, now: time.Now}
}

// HandleConfirm completes the session named by a payment.succeeded event.
func (h *NotificationHandler) HandleConfirm(c *gin.Context) (*ledger.CompleteResult, error) {
	var res *ledger.CompleteResult
	err := h.handle(c, EventPaymentSucceeded, func(ctx context.Context, n *RelayNotification) (any, *string, error) {
		var err error
		res, err = h.ledger.Complete(ctx, ledger.CompleteRequest{
			ExternalSessionID:   n.ExternalSessionID,
			ExternalPaymentRef:  n.PaymentRef,
			ExternalCustomerRef: n.CustomerRef,
		})
		if err != nil {
			return nil, nil, err
		}
		return res, &res.DonationID, nil
	})
	return res, err
}

// HandleFailed fails the session named by a payment.failed event.
func (h *NotificationHandler) HandleFailed(c *gin.Context) (*models.PaymentSession, error) {
	var session *models.PaymentSession
	err := h.handle(c, EventPaymentFailed, func(ctx context.Context, n *RelayNotification) (any, *string, error) {
		var err error
		session, err = h.sessions.Fail(ctx, n.ExternalSessionID, n.Reason)
		if err != nil {
			return nil, nil, err
		}
		return session, nil, nil
	})
	return session, err
}

type processFunc func(ctx context.Context, n *RelayNotification) (result any, donationID *string, err error)

// handle records the event as received, runs process and records the outcome.
func (h *NotificationHandler) handle(c *gin.Context, event string, process processFunc) (resErr error) {
	parser, err := ParseRelayNotification(c, event, h.now())
	if err != nil {
		return err
	}
	ctx := c.Request.Context()
	lg := logctx.FromGin(c, h.Logger)

	entry := logEntry(ctx, parser, c.GetString(logctx.KeyTraceID))
	outcome := *entry
	h.notifSvc.Save(ctx, entry)

	var result any
	var donationID *string
	defer func() {
		resMap := map[string]any{"result": result}
		outcome.Status = models.PaymentNotificationLogStatusHandled
		if resErr != nil {
			resMap["error"] = resErr.Error()
			outcome.Status = models.PaymentNotificationLogStatusHandleFailed
		}
		resBytes, _ := json.Marshal(resMap)
		j := datatypes.JSON(resBytes)
		outcome.DonationID = donationID
		outcome.NotificationTime = h.now()
		outcome.Result = &j
		h.notifSvc.Save(ctx, &outcome)
	}()

	result, donationID, resErr = process(ctx, parser.Notification)
	if resErr != nil {
		lg.Errorw("failed to handle payment notification", "event", event,
			"external_session_id", parser.GetExternalSessionID(ctx), "error", resErr.Error())
		return resErr
	}
	lg.Infow("payment notification handled", "event", event, "external_session_id", parser.GetExternalSessionID(ctx))
	return nil
}

// logEntry builds the received row for any processor's parsed event.
func logEntry(ctx context.Context, p NotificationParser, traceID string) *models.PaymentNotificationLog {
	data, _ := json.Marshal(p.GetData(ctx))
	return &models.PaymentNotificationLog{
		Event:             p.GetEvent(ctx),
		TraceID:           traceID,
		ExternalSessionID: p.GetExternalSessionID(ctx),
		NotificationTime:  p.GetNotificationTime(ctx),
		Data:              datatypes.JSON(data),
		Status:            models.PaymentNotificationLogStatusReceived,
	}
}
