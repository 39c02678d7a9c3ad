package models

import (
	"time"

	"github.com/fatflowers/giveledger/pkg/types"
)

// Rating is one user's rating of one entity; resubmission updates it in place.
type Rating struct {
	ID         string           `gorm:"column:id;type:uuid;primary_key" json:"id"`
	EntityKind types.EntityKind `gorm:"column:entity_kind;type:varchar(32);not null;uniqueIndex:unique_entity_user,priority:1" json:"entity_kind"`
	EntityID   string           `gorm:"column:entity_id;type:uuid;not null;uniqueIndex:unique_entity_user,priority:2" json:"entity_id"`
	UserID     string           `gorm:"column:user_id;type:uuid;not null;uniqueIndex:unique_entity_user,priority:3" json:"user_id"`
	Rating     int              `gorm:"column:rating;not null" json:"rating"`
	Review     *string          `gorm:"column:review;type:text" json:"review"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (Rating) TableName() string { return "rating" }
