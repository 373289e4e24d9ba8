package db

import (
	"errors"
	"fmt"

	"github.com/fairbill/contractor-invoices/internal/models"
	"gorm.io/gorm"
)

// Seed inserts default expense categories. Safe to run repeatedly.
func Seed(db *gorm.DB) error {
	categories := []models.ExpenseCategory{
		{Name: "Travel"},
		{Name: "Equipment"},
		{Name: "Software"},
		{Name: "Meals"},
		{Name: "Other"},
	}
	for _, c := range categories {
		var existing models.ExpenseCategory
		err := db.Where("name = ?", c.Name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Create(&c).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}
	return nil
}
