package models

import (
	"time"

	"github.com/fatflowers/giveledger/pkg/types"
	"github.com/shopspring/decimal"
)

type Campaign struct {
	ID             string               `gorm:"column:id;type:uuid;primary_key" json:"id"`
	OrganizationID string               `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	Title          string               `gorm:"column:title;type:varchar(255);not null" json:"title"`
	TargetAmount   decimal.Decimal      `gorm:"column:target_amount;type:numeric(20,2);not null;default:0" json:"target_amount"`
	Currency       string               `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Status         types.CampaignStatus `gorm:"column:status;type:varchar(32);not null;default:'active'" json:"status"`

	RaisedAmount    decimal.Decimal `gorm:"column:raised_amount;type:numeric(20,2);not null;default:0" json:"raised_amount"`
	DonorCount      int64           `gorm:"column:donor_count;not null;default:0" json:"donor_count"`
	AverageRating   float64         `gorm:"column:average_rating;not null;default:0" json:"average_rating"`
	RatingCount     int64           `gorm:"column:rating_count;not null;default:0" json:"rating_count"`
	PopularityScore float64         `gorm:"column:popularity_score;not null;default:0;index" json:"popularity_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Campaign) TableName() string { return "campaign" }

// GoalReached reports whether a positive target has been met.
func (c *Campaign) GoalReached() bool {
	return c.TargetAmount.IsPositive() && c.RaisedAmount.GreaterThanOrEqual(c.TargetAmount)
}
