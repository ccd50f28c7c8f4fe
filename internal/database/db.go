package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect establishes a connection to the PostgreSQL database. The returned
// handle is owned by the composition root and passed to everything that
// needs it; there is no package-level instance.
func Connect(dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established")
	return db, nil
}

// AutoMigrate runs database migrations for all engine-owned tables
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&ChannelSettings{},
		// Source tables (owned by the CRUD side; migrated here so the
		// engine can run standalone in development and tests)
		&Visit{},
		&RepMessage{},
		&Vehicle{},
		&StockItem{},
		&Delivery{},
		// Unified alert store
		&AlertRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// InitializeDefaults creates default records if they don't exist
func InitializeDefaults(db *gorm.DB) error {
	log.Println("Initializing default database records...")

	if _, err := GetOrCreateChannelSettings(db); err != nil {
		return fmt.Errorf("failed to create default channel settings: %w", err)
	}

	return nil
}

// Close closes the underlying database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
