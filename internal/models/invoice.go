package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// InvoiceStatus represents the lifecycle state of an invoice.
type InvoiceStatus string

const (
	// InvoiceStatusReceived is the canonical state after every successful
	// create or update reconciliation.
	InvoiceStatusReceived   InvoiceStatus = "received"
	InvoiceStatusApproved   InvoiceStatus = "approved"
	InvoiceStatusProcessing InvoiceStatus = "processing"
	InvoiceStatusPaid       InvoiceStatus = "paid"
	InvoiceStatusRejected   InvoiceStatus = "rejected"
	InvoiceStatusFailed     InvoiceStatus = "failed"
)

// Invoice is the aggregate root: the invoice row plus its owned line items
// and expenses form one consistency boundary. All money fields are integer
// minor currency units.
type Invoice struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID       uint        `gorm:"index;not null" json:"user_id"`
	User         *User       `gorm:"foreignKey:UserID" json:"-"`
	CompanyID    uint        `gorm:"index;not null" json:"company_id"`
	Company      *Company    `gorm:"foreignKey:CompanyID" json:"-"`
	ContractorID uint        `gorm:"index;not null" json:"contractor_id"`
	Contractor   *Contractor `gorm:"foreignKey:ContractorID" json:"-"`

	Status      InvoiceStatus `gorm:"size:20;not null;default:'received'" json:"status"`
	InvoiceDate time.Time     `gorm:"not null" json:"invoice_date"`
	Number      string        `gorm:"size:50;not null" json:"invoice_number"`
	Notes       string        `gorm:"type:text" json:"notes,omitempty"`

	// Billing address copied from the acting user at reconciliation time.
	StreetAddress string `gorm:"size:255" json:"street_address"`
	City          string `gorm:"size:120" json:"city"`
	ZipCode       string `gorm:"size:20" json:"zip_code"`
	CountryCode   string `gorm:"size:2" json:"country_code"`

	// Settlement amounts. TotalAmountCents == CashAmountCents +
	// EquityAmountCents after every successful reconciliation.
	TotalAmountCents  int64 `gorm:"not null;default:0" json:"total_amount_cents"`
	CashAmountCents   int64 `gorm:"not null;default:0" json:"cash_amount_cents"`
	EquityAmountCents int64 `gorm:"not null;default:0" json:"equity_amount_cents"`
	EquityOptionCount int64 `gorm:"not null;default:0" json:"equity_option_count"`
	EquityPercentage  int   `gorm:"not null;default:0" json:"equity_percentage"`
	FlatFeeCents      int64 `gorm:"not null;default:0" json:"flat_fee_cents"`

	LineItems []InvoiceLineItem `gorm:"foreignKey:InvoiceID" json:"line_items,omitempty"`
	Expenses  []InvoiceExpense  `gorm:"foreignKey:InvoiceID" json:"expenses,omitempty"`
}

// Year returns the calendar year of the invoice date, the key used for
// equity allocation lookups.
func (i *Invoice) Year() int {
	return i.InvoiceDate.Year()
}

// IsPaid reports whether the invoice has been settled.
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// Editable reports whether the invoice can still be reconciled. Paid and
// in-flight invoices are frozen.
func (i *Invoice) Editable() bool {
	switch i.Status {
	case InvoiceStatusProcessing, InvoiceStatusPaid:
		return false
	}
	return true
}

// ServiceAmountCents is the total minus expenses, the base the settlement
// split is computed on.
func (i *Invoice) ServiceAmountCents() int64 {
	var expenses int64
	for _, e := range i.Expenses {
		expenses += e.TotalCents
	}
	return i.TotalAmountCents - expenses
}

// InvoiceLineItem is a billed unit of work, owned exclusively by its invoice.
type InvoiceLineItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InvoiceID uint `gorm:"index;not null" json:"invoice_id"`

	Description string `gorm:"size:500;not null" json:"description"`
	// Quantity is minutes worked when Hourly, otherwise a unit count.
	Quantity     float64 `gorm:"type:decimal(10,3);not null;default:1" json:"quantity"`
	PayRateCents int64   `gorm:"not null" json:"pay_rate_cents"`
	Hourly       bool    `gorm:"not null;default:false" json:"hourly"`
}

// TotalCents computes the line total. Hourly rates are per hour with the
// quantity in minutes.
func (li *InvoiceLineItem) TotalCents() int64 {
	if li.Hourly {
		return int64(math.Round(float64(li.PayRateCents) * li.Quantity / 60))
	}
	return int64(math.Round(float64(li.PayRateCents) * li.Quantity))
}

// ExpenseCategory classifies invoice expenses.
type ExpenseCategory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

// InvoiceExpense is a reimbursable cost attached to an invoice. It may carry
// its own attachment, orthogonal to the invoice-level one.
type InvoiceExpense struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InvoiceID uint `gorm:"index;not null" json:"invoice_id"`

	Description       string           `gorm:"size:500;not null" json:"description"`
	ExpenseCategoryID uint             `gorm:"index;not null" json:"expense_category_id"`
	Category          *ExpenseCategory `gorm:"foreignKey:ExpenseCategoryID" json:"category,omitempty"`
	TotalCents        int64            `gorm:"not null" json:"total_cents"`
}
