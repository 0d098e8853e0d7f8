package storage

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New initializes the database connection. SQL statements are logged when debug is set.
func New(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
}

// Migrate creates or updates the tables for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Player{}, &Game{}, &Outcome{})
}
