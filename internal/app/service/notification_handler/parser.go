package notification_handler

import (
	"context"
	"time"
)

// NotificationParser exposes the fields of an inbound processor event that
// the notification log records.
type NotificationParser interface {
	GetEvent(ctx context.Context) string
	GetNotificationTime(ctx context.Context) time.Time
	GetExternalSessionID(ctx context.Context) string
	GetData(ctx context.Context) any
}
