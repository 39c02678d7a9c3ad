package models

import (
	"time"

	"github.com/fatflowers/giveledger/pkg/types"
	"github.com/shopspring/decimal"
)

// PaymentSession is an intended donation before settlement. There is exactly
// one per external processor session id.
type PaymentSession struct {
	ID                string                     `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID            string                     `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	TargetKind        types.TargetKind           `gorm:"column:target_kind;type:varchar(32);not null" json:"target_kind"`
	TargetID          string                     `gorm:"column:target_id;type:uuid;not null" json:"target_id"`
	ExternalSessionID string                     `gorm:"column:external_session_id;type:varchar(255);not null;uniqueIndex" json:"external_session_id"`
	Amount            decimal.Decimal            `gorm:"column:amount;type:numeric(20,2);not null" json:"amount"`
	Currency          string                     `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	PaymentType       types.PaymentType          `gorm:"column:payment_type;type:varchar(32);not null" json:"payment_type"`
	ItemKind          *types.DonationKind        `gorm:"column:item_kind;type:varchar(32)" json:"item_kind"`
	Status            types.PaymentSessionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	// ExternalPaymentRef is the processor's charge / payment intent id, set on completion.
	ExternalPaymentRef  *string `gorm:"column:external_payment_ref;type:varchar(255)" json:"external_payment_ref"`
	ExternalCustomerRef *string `gorm:"column:external_customer_ref;type:varchar(255)" json:"external_customer_ref"`
	FailureReason       *string `gorm:"column:failure_reason;type:varchar(512)" json:"failure_reason"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at"`
}

func (PaymentSession) TableName() string { return "payment_session" }

// DonationKind is the item kind, defaulting to money when unset.
func (s *PaymentSession) DonationKind() types.DonationKind {
	if s.ItemKind == nil || *s.ItemKind == "" {
		return types.DonationKindMoney
	}
	return *s.ItemKind
}
