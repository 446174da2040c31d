package database

import (
	"gorm.io/gorm"

	"trading-journal/models"
)

// Composite unique keys live on the embedded owner column, so they are
// declared here instead of in struct tags.
var uniqueIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_report_cards_owner_date ON daily_report_cards (owner_id, date)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_market_biases_owner_instrument ON market_biases (owner_id, instrument)`,
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Playbook{},
		&models.TradeSample{},
		&models.Trade{},
		&models.DailyReportCard{},
		&models.Instrument{},
		&models.TradeLog{},
		&models.Reminder{},
		&models.MarketDriver{},
		&models.MarketBias{},
	); err != nil {
		return err
	}
	for _, stmt := range uniqueIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
