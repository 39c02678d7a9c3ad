package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is the tax receipt of one donation. Amount, currency and target
// name are frozen at generation time.
type Receipt struct {
	ID            string          `gorm:"column:id;type:uuid;primary_key" json:"id"`
	DonationID    string          `gorm:"column:donation_id;type:uuid;not null;uniqueIndex" json:"donation_id"`
	ReceiptNumber string          `gorm:"column:receipt_number;type:varchar(64);not null;index" json:"receipt_number"`
	DonorID       string          `gorm:"column:donor_id;type:uuid;not null" json:"donor_id"`
	UserID        string          `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(20,2);not null;default:0" json:"amount"`
	Currency      string          `gorm:"column:currency;type:varchar(8)" json:"currency"`
	TargetName    string          `gorm:"column:target_name;type:varchar(255)" json:"target_name"`
	EmailSent     bool            `gorm:"column:email_sent;not null;default:false" json:"email_sent"`
	EmailSentAt   *time.Time      `gorm:"column:email_sent_at" json:"email_sent_at"`
	// ArchiveKey is the object key of the archived rendering, when archiving is enabled.
	ArchiveKey *string   `gorm:"column:archive_key;type:varchar(512)" json:"archive_key"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Receipt) TableName() string { return "receipt" }
