package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/eslsoft/hanguru/internal/infrastructure/config"
)

// NewConnection opens the sqlite archive database.
func NewConnection(cfg *config.Config) (*gorm.DB, func(), error) {
	if cfg.Archive.Path == "" {
		return nil, nil, fmt.Errorf("archive path is required")
	}

	db, err := gorm.Open(sqlite.Open(cfg.Archive.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open archive database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("access underlying connection: %w", err)
	}
	// sqlite writes serialize anyway; one connection avoids lock errors.
	sqlDB.SetMaxOpenConns(1)

	cleanup := func() { _ = sqlDB.Close() }
	return db, cleanup, nil
}
