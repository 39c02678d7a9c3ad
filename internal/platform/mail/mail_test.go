package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fatflowers/giveledger/pkg/config"
)

func TestLogMailer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := &config.Config{Receipt: config.ReceiptConfig{FromAddress: "receipts@example.org"}}
	m := NewLogMailer(zap.New(core).Sugar(), cfg)

	require.ErrorIs(t, m.Send(context.Background(), Message{Subject: "hi"}), ErrNoRecipient)

	require.NoError(t, m.Send(context.Background(), Message{To: "asha@example.org", Subject: "Receipt", HTMLBody: "<p>x</p>"}))
	entries := logs.FilterMessage("mail dispatched").All()
	require.Len(t, entries, 1)
	require.Equal(t, "receipts@example.org", entries[0].ContextMap()["from"])
}
