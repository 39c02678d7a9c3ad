package models

import (
	"time"

	"github.com/fatflowers/giveledger/pkg/types"
	"github.com/shopspring/decimal"
)

// Organization is a hospital or an NGO. The Total*, rating and popularity
// columns are derived counters maintained by the aggregate, rating and
// popularity services; they are always recomputable from the ledger.
type Organization struct {
	ID          string                 `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Kind        types.OrganizationKind `gorm:"column:kind;type:varchar(32);not null;index" json:"kind"`
	Name        string                 `gorm:"column:name;type:varchar(255);not null" json:"name"`
	OwnerUserID *string                `gorm:"column:owner_user_id;type:uuid" json:"owner_user_id"`

	TotalDonationsReceived int64           `gorm:"column:total_donations_received;not null;default:0" json:"total_donations_received"`
	TotalAmountRaised      decimal.Decimal `gorm:"column:total_amount_raised;type:numeric(20,2);not null;default:0" json:"total_amount_raised"`
	TotalDonorCount        int64           `gorm:"column:total_donor_count;not null;default:0" json:"total_donor_count"`
	TotalVolunteers        int64           `gorm:"column:total_volunteers;not null;default:0" json:"total_volunteers"`
	TotalBloodDonations    int64           `gorm:"column:total_blood_donations;not null;default:0" json:"total_blood_donations"`
	TotalOrganTransplants  int64           `gorm:"column:total_organ_transplants;not null;default:0" json:"total_organ_transplants"`
	AverageRating          float64         `gorm:"column:average_rating;not null;default:0" json:"average_rating"`
	RatingCount            int64           `gorm:"column:rating_count;not null;default:0" json:"rating_count"`
	PopularityScore        float64         `gorm:"column:popularity_score;not null;default:0;index" json:"popularity_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Organization) TableName() string { return "organization" }

// EntityKind is the kind this organization is rated and scored as.
func (o *Organization) EntityKind() types.EntityKind {
	return types.EntityKindOf(o.Kind)
}
