package notification_handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/internal/app/service/ledger"
	notificationlog "github.com/fatflowers/giveledger/internal/app/service/notification_log"
	"github.com/fatflowers/giveledger/internal/app/service/paymentsession"
	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store/memstore"
	"github.com/fatflowers/giveledger/internal/testutil"
	"github.com/fatflowers/giveledger/pkg/types"
)

func newHandler(t *testing.T) (*NotificationHandler, *memstore.Store, *notificationlog.Service) {
	t.Helper()
	log := zap.NewNop().Sugar()
	st := memstore.New()
	notif := notificationlog.New(st, log)
	return NewNotificationHandler(notif, ledger.NewService(st, log), paymentsession.NewService(st, log), log), st, notif
}

func ginContext(t *testing.T, body any) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("traceID", "trace-1")
	return c
}

func openSession(t *testing.T, st *memstore.Store, ext string) {
	t.Helper()
	user, _ := testutil.Donor(t, st, "asha")
	org := testutil.Organization(t, st, types.OrganizationKindNGO, "Seva")
	_, err := paymentsession.NewService(st, zap.NewNop().Sugar()).Open(context.Background(), paymentsession.OpenRequest{
		UserID: user.ID, TargetKind: types.TargetKindOrganization, TargetID: org.ID,
		ExternalSessionID: ext, Amount: decimal.NewFromInt(500), Currency: "INR", PaymentType: types.PaymentTypeOneTime,
	})
	require.NoError(t, err)
}

func statuses(logs []models.PaymentNotificationLog) []models.PaymentNotificationLogStatus {
	out := make([]models.PaymentNotificationLogStatus, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Status)
	}
	return out
}

func TestHandleConfirm_RecordsDonationAndLogs(t *testing.T) {
	h, st, notif := newHandler(t)
	openSession(t, st, "cs_1")

	res, err := h.HandleConfirm(ginContext(t, map[string]any{
		"event": EventPaymentSucceeded, "external_session_id": "cs_1", "payment_ref": "pi_1", "event_time": 1767225600000,
	}))
	require.NoError(t, err)
	require.NotEmpty(t, res.DonationID)
	require.False(t, res.AlreadyCompleted)
	notif.Wait()

	logs := st.NotificationLogs()
	require.ElementsMatch(t, []models.PaymentNotificationLogStatus{
		models.PaymentNotificationLogStatusReceived, models.PaymentNotificationLogStatusHandled,
	}, statuses(logs))
	for _, l := range logs {
		require.Equal(t, "trace-1", l.TraceID)
		if l.Status == models.PaymentNotificationLogStatusHandled {
			require.Equal(t, res.DonationID, *l.DonationID)
		}
	}
}

func TestHandleConfirm_UnknownSessionLogsFailure(t *testing.T) {
	h, st, notif := newHandler(t)

	_, err := h.HandleConfirm(ginContext(t, map[string]any{"event": EventPaymentSucceeded, "external_session_id": "nope"}))
	require.ErrorIs(t, err, ledger.ErrSessionNotFound)
	notif.Wait()
	require.Contains(t, statuses(st.NotificationLogs()), models.PaymentNotificationLogStatusHandleFailed)
}

func TestHandle_RejectsMalformedOrMismatchedEvents(t *testing.T) {
	h, st, notif := newHandler(t)

	_, err := h.HandleConfirm(ginContext(t, map[string]any{"event": EventPaymentSucceeded}))
	require.ErrorIs(t, err, ErrInvalidNotification)
	_, err = h.HandleFailed(ginContext(t, map[string]any{"event": EventPaymentSucceeded, "external_session_id": "cs_1"}))
	require.ErrorIs(t, err, ErrInvalidNotification)
	notif.Wait()
	require.Empty(t, st.NotificationLogs())
}

func TestHandleFailed_MarksSessionFailed(t *testing.T) {
	h, st, notif := newHandler(t)
	openSession(t, st, "cs_2")

	session, err := h.HandleFailed(ginContext(t, map[string]any{"event": EventPaymentFailed, "external_session_id": "cs_2", "reason": "card_declined"}))
	require.NoError(t, err)
	require.Equal(t, types.PaymentSessionStatusFailed, session.Status)
	require.Equal(t, "card_declined", *session.FailureReason)
	notif.Wait()
	require.Len(t, st.NotificationLogs(), 2)
}

type fixedParser struct{ at time.Time }

func (p fixedParser) GetEvent(context.Context) string { return "charge.refunded" }
func (p fixedParser) GetNotificationTime(context.Context) time.Time { return p.at }
func (p fixedParser) GetExternalSessionID(context.Context) string { return "cs_9" }
func (p fixedParser) GetData(context.Context) any { return map[string]string{"id": "evt_9"} }

func TestLogEntry_FromAnyParser(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := logEntry(context.Background(), fixedParser{at: at}, "trace-9")
	require.Equal(t, "charge.refunded", entry.Event)
	require.Equal(t, "cs_9", entry.ExternalSessionID)
	require.Equal(t, "trace-9", entry.TraceID)
	require.Equal(t, at, entry.NotificationTime)
	require.JSONEq(t, `{"id":"evt_9"}`, string(entry.Data))
	require.Equal(t, models.PaymentNotificationLogStatusReceived, entry.Status)
}

func TestRelayParser_NotificationTimeFallsBackToReceipt(t *testing.T) {
	received := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	var p NotificationParser = &RelayNotificationParser{receivedAt: received, Notification: &RelayNotification{Event: EventPaymentFailed}}
	require.Equal(t, received, p.GetNotificationTime(context.Background()))

	p = &RelayNotificationParser{receivedAt: received, Notification: &RelayNotification{EventTime: 1767225600000}}
	require.Equal(t, time.UnixMilli(1767225600000), p.GetNotificationTime(context.Background()))
}
