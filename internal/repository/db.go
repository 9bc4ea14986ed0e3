package repository

import (
	"fmt"

	"github.com/dimitrisavellas/trivia-game/internal/config"
	"github.com/dimitrisavellas/trivia-game/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Database wraps the gorm handle so repositories share one connection pool.
type Database struct {
	*gorm.DB
}

func NewDatabase(cfg *config.Database) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := db.AutoMigrate(&models.Question{}, &models.Answer{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Database{DB: db}, nil
}
