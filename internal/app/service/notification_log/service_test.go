package notification_log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store/memstore"
)

func TestSave_PersistsAsynchronously(t *testing.T) {
	st := memstore.New()
	svc := New(st, zap.NewNop().Sugar())

	svc.Save(context.Background(), nil)
	svc.Save(context.Background(), &models.PaymentNotificationLog{Event: "payment.succeeded", ExternalSessionID: "cs_1", Status: models.PaymentNotificationLogStatusReceived})
	svc.Save(context.Background(), &models.PaymentNotificationLog{Event: "payment.succeeded", ExternalSessionID: "cs_1", Status: models.PaymentNotificationLogStatusHandled})
	svc.Wait()

	logs := st.NotificationLogs()
	require.Len(t, logs, 2)
	for _, l := range logs {
		require.NotEmpty(t, l.ID)
		require.Equal(t, "cs_1", l.ExternalSessionID)
	}
}
