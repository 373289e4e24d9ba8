// Package db handles database connection, schema migration, and seeding.
package db

import (
	"errors"
	"fmt"
	"log"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for
	// golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/fairbill/contractor-invoices/internal/config"
	"github.com/fairbill/contractor-invoices/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectRetries = 10

// Connect opens the PostgreSQL database, retrying while it starts up.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	var db *gorm.DB
	var err error
	for i := 0; i < connectRetries; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
		if err == nil {
			break
		}
		log.Printf("db: connection attempt %d/%d failed, retrying: %v", i+1, connectRetries, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// Migrate brings the schema up to date with GORM AutoMigrate.
func Migrate(db *gorm.DB) error {
	for _, m := range Models() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"users", "companies", "invoices"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// Models lists every persisted model in dependency order, shared by startup
// migration and test setup.
func Models() []any {
	return []any{
		&models.User{},
		&models.Company{},
		&models.Contractor{},
		&models.EquityAllocation{},
		&models.ExpenseCategory{},
		&models.Invoice{},
		&models.InvoiceLineItem{},
		&models.InvoiceExpense{},
		&models.Attachment{},
	}
}

// MigrateSQL runs versioned SQL migrations from ./migrations via
// golang-migrate, used instead of AutoMigrate when MIGRATIONS=1.
func MigrateSQL(databaseURL string) error {
	m, err := migrate.New("file://migrations", databaseURL)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
