package models

import (
	"time"

	"gorm.io/gorm"
)

// Company is the paying entity contractors invoice against.
type Company struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name string `gorm:"size:255;not null" json:"name"`

	// SharePriceCents prices one stock option for equity settlements. Zero
	// means the company has not enabled equity compensation.
	SharePriceCents int64 `gorm:"not null;default:0" json:"share_price_cents"`
}

// EquityEnabled reports whether equity settlements can be priced.
func (c *Company) EquityEnabled() bool {
	return c.SharePriceCents > 0
}

// Contractor is the engagement of a user with a company. Invoices belong to
// a contractor, not directly to a user.
type Contractor struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID    uint     `gorm:"index;not null" json:"user_id"`
	User      *User    `gorm:"foreignKey:UserID" json:"-"`
	CompanyID uint     `gorm:"index;not null" json:"company_id"`
	Company   *Company `gorm:"foreignKey:CompanyID" json:"-"`

	Role         string `gorm:"size:255" json:"role"`
	Hourly       bool   `gorm:"not null;default:false" json:"hourly"`
	PayRateCents int64  `gorm:"not null;default:0" json:"pay_rate_cents"`
}

// EquityAllocation is a contractor's elected equity percentage for one
// calendar year. The settlement-split calculator reads it; a missing row for
// a year is treated as a 0% election.
type EquityAllocation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ContractorID     uint `gorm:"uniqueIndex:idx_equity_allocations_contractor_year;not null" json:"contractor_id"`
	Year             int  `gorm:"uniqueIndex:idx_equity_allocations_contractor_year;not null" json:"year"`
	EquityPercentage int  `gorm:"not null" json:"equity_percentage"`
}
