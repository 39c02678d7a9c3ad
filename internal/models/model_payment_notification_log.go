package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentNotificationLogStatus string

const (
	PaymentNotificationLogStatusReceived     PaymentNotificationLogStatus = "received"
	PaymentNotificationLogStatusHandled      PaymentNotificationLogStatus = "handled"
	PaymentNotificationLogStatusHandleFailed PaymentNotificationLogStatus = "handle_failed"
)

// PaymentNotificationLog records every inbound processor event as received,
// then its outcome. Used for troubleshooting divergence with the processor.
type PaymentNotificationLog struct {
	ID                string                       `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Event             string                       `gorm:"column:event;type:varchar(64);not null" json:"event"`
	TraceID           string                       `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	ExternalSessionID string                       `gorm:"column:external_session_id;type:varchar(255);index" json:"external_session_id"`
	DonationID        *string                      `gorm:"column:donation_id;type:uuid" json:"donation_id"`
	NotificationTime  time.Time                    `gorm:"column:notification_time" json:"notification_time"`
	Data              datatypes.JSON               `gorm:"column:data;type:jsonb" json:"data"`
	Result            *datatypes.JSON              `gorm:"column:result;type:jsonb" json:"result"`
	Status            PaymentNotificationLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt         time.Time                    `json:"created_at"`
	UpdatedAt         time.Time                    `json:"updated_at"`
}

func (PaymentNotificationLog) TableName() string { return "payment_notification_log" }
