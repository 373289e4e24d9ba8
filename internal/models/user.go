package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account holder. Contractors and company administrators are both
// users; the engagement between a user and a company lives on Contractor.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	LegalName    string `gorm:"size:255" json:"legal_name"`

	// Billing address, copied onto invoices at reconciliation time.
	StreetAddress string `gorm:"size:255" json:"street_address"`
	City          string `gorm:"size:120" json:"city"`
	ZipCode       string `gorm:"size:20" json:"zip_code"`
	CountryCode   string `gorm:"size:2" json:"country_code"`
}
