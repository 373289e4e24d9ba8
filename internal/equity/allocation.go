package equity

import (
	"errors"
	"math"

	"github.com/fairbill/contractor-invoices/internal/models"
	"gorm.io/gorm"
)

// AllocationCalculator derives splits from the contractor's elected equity
// percentage for the year and the company's share price.
type AllocationCalculator struct {
	db *gorm.DB
}

func NewAllocationCalculator(db *gorm.DB) *AllocationCalculator {
	return &AllocationCalculator{db: db}
}

// Split implements Calculator. A missing allocation row is a 0% election,
// not a failure. A positive election against a company with no usable share
// price cannot be settled and returns the (nil, nil) failure sentinel.
func (c *AllocationCalculator) Split(contractorID, companyID uint, serviceAmountCents int64, year int) (*Split, error) {
	var alloc models.EquityAllocation
	err := c.db.Where("contractor_id = ? AND year = ?", contractorID, year).First(&alloc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Split{}, nil
	}
	if err != nil {
		return nil, err
	}
	if alloc.EquityPercentage <= 0 {
		return &Split{}, nil
	}
	if alloc.EquityPercentage > 100 {
		return nil, nil
	}

	var company models.Company
	if err := c.db.First(&company, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !company.EquityEnabled() {
		return nil, nil
	}

	equityCents := int64(math.Round(float64(serviceAmountCents) * float64(alloc.EquityPercentage) / 100))
	if equityCents > serviceAmountCents {
		equityCents = serviceAmountCents
	}
	return &Split{
		EquityCents:       equityCents,
		EquityOptionCount: equityCents / company.SharePriceCents,
		EquityPercentage:  alloc.EquityPercentage,
	}, nil
}
