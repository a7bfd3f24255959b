package database

import (
	"fmt"

	"gorm.io/gorm"
)

// OptimizeIndexes creates the index used by FIFO lookups of one ticker.
func OptimizeIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_portfolio_ticker_fifo
		ON portfolio (ticker, id)
	`).Error; err != nil {
		return fmt.Errorf("failed to create fifo index: %w", err)
	}

	return nil
}
