package models

import "time"

// User is the local account an identity-provider subject resolves to.
type User struct {
	ID         string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ExternalID string    `gorm:"column:external_id;type:varchar(128);not null;uniqueIndex" json:"external_id"`
	Email      string    `gorm:"column:email;type:varchar(255)" json:"email"`
	Name       string    `gorm:"column:name;type:varchar(255)" json:"name"`
	Role       string    `gorm:"column:role;type:varchar(32);not null;default:'donor'" json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (User) TableName() string { return "app_user" }

// Donor is the donor profile of a user. Completing a payment requires one.
type Donor struct {
	ID        string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"column:user_id;type:uuid;not null;uniqueIndex" json:"user_id"`
	FullName  string    `gorm:"column:full_name;type:varchar(255)" json:"full_name"`
	Phone     string    `gorm:"column:phone;type:varchar(32)" json:"phone"`
	TaxID     *string   `gorm:"column:tax_id;type:varchar(64)" json:"tax_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Donor) TableName() string { return "donor" }
