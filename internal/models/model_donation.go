package models

import (
	"time"

	"github.com/fatflowers/giveledger/pkg/types"
	"github.com/shopspring/decimal"
)

// Donation is the permanent ledger entry. OrganizationID is resolved once at
// creation (the campaign owner for campaign donations) and never re-derived.
//
// PaymentSessionID is unique: at most one donation per session. Postgres
// allows any number of NULLs, so donations recorded without a session (e.g.
// physical drop-offs) are unaffected.
type Donation struct {
	ID               string               `gorm:"column:id;type:uuid;primary_key;index:idx_donor_id_id,priority:2,sort:desc" json:"id"`
	DonorID          string               `gorm:"column:donor_id;type:uuid;not null;index:idx_donor_id_id,priority:1" json:"donor_id"`
	OrganizationID   string               `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	CampaignID       *string              `gorm:"column:campaign_id;type:uuid;index" json:"campaign_id"`
	Kind             types.DonationKind   `gorm:"column:kind;type:varchar(32);not null" json:"kind"`
	Amount           *decimal.Decimal     `gorm:"column:amount;type:numeric(20,2)" json:"amount"`
	Currency         string               `gorm:"column:currency;type:varchar(8)" json:"currency"`
	Quantity         *int64               `gorm:"column:quantity" json:"quantity"`
	Unit             *string              `gorm:"column:unit;type:varchar(32)" json:"unit"`
	Status           types.DonationStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	PaymentSessionID *string              `gorm:"column:payment_session_id;type:uuid;uniqueIndex" json:"payment_session_id"`
	ReceiptID        *string              `gorm:"column:receipt_id;type:uuid" json:"receipt_id"`
	ReceiptGenerated bool                 `gorm:"column:receipt_generated;not null;default:false" json:"receipt_generated"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DonatedAt *time.Time `gorm:"column:donated_at" json:"donated_at"`
}

func (Donation) TableName() string { return "donation" }

// MonetaryAmount is the amount this donation contributes to raised totals:
// zero for physical donations and for money donations without an amount.
func (d *Donation) MonetaryAmount() decimal.Decimal {
	if !d.Kind.IsMonetary() || d.Amount == nil {
		return decimal.Zero
	}
	return *d.Amount
}

// CascadeApplication records that a donation's delta has been applied to one
// aggregate. It is inserted in the same transaction as the delta.
type CascadeApplication struct {
	DonationID string              `gorm:"column:donation_id;type:uuid;primaryKey" json:"donation_id"`
	Target     types.CascadeTarget `gorm:"column:target;type:varchar(32);primaryKey" json:"target"`
	AppliedAt  time.Time           `gorm:"column:applied_at;not null" json:"applied_at"`
}

func (CascadeApplication) TableName() string { return "cascade_application" }
