// Package mail defines outbound email. Delivery itself is external: the
// default Mailer only logs what would be sent.
package mail

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/pkg/config"
	"github.com/fatflowers/giveledger/pkg/logctx"
)

var ErrNoRecipient = errors.New("message has no recipient")

type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	log  *zap.SugaredLogger
	from string
}

func NewLogMailer(log *zap.SugaredLogger, cfg *config.Config) *LogMailer {
	return &LogMailer{log: log, from: cfg.Receipt.FromAddress}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if msg.From == "" {
		msg.From = m.from
	}
	logctx.FromCtx(ctx, m.log).Infow("mail dispatched",
		"from", msg.From, "to", msg.To, "subject", msg.Subject, "body_bytes", len(msg.HTMLBody))
	return nil
}

var Module = fx.Options(
	fx.Provide(fx.Annotate(NewLogMailer, fx.As(new(Mailer)))),
)
