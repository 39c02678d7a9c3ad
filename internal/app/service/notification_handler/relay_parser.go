package notification_handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

var ErrInvalidNotification = errors.New("invalid payment notification")

// RelayNotification is the body the upstream payment relay posts once it
// has verified the processor's signature.
type RelayNotification struct {
	EventID           string  `json:"event_id"`
	Event             string  `json:"event" binding:"required"`
	ExternalSessionID string  `json:"external_session_id" binding:"required"`
	PaymentRef        *string `json:"payment_ref"`
	CustomerRef       *string `json:"customer_ref"`
	Reason            string  `json:"reason"`
	// EventTime is the processor event time in unix milliseconds.
	EventTime int64 `json:"event_time"`
}

var _ NotificationParser = (*RelayNotificationParser)(nil)

type RelayNotificationParser struct {
	receivedAt   time.Time
	Notification *RelayNotification
}

// ParseRelayNotification binds the request body and checks it carries the
// expected event.
func ParseRelayNotification(c *gin.Context, event string, now time.Time) (*RelayNotificationParser, error) {
	var n RelayNotification
	if err := c.ShouldBindJSON(&n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNotification, err)
	}
	if n.Event != event {
		return nil, fmt.Errorf("%w: expected event %s, got %s", ErrInvalidNotification, event, n.Event)
	}
	return &RelayNotificationParser{receivedAt: now, Notification: &n}, nil
}

func (p *RelayNotificationParser) GetEvent(ctx context.Context) string {
	return p.Notification.Event
}

func (p *RelayNotificationParser) GetNotificationTime(ctx context.Context) time.Time {
	if p.Notification.EventTime > 0 {
		return time.UnixMilli(p.Notification.EventTime)
	}
	return p.receivedAt
}

func (p *RelayNotificationParser) GetExternalSessionID(ctx context.Context) string {
	return p.Notification.ExternalSessionID
}

func (p *RelayNotificationParser) GetData(ctx context.Context) any {
	return p.Notification
}
