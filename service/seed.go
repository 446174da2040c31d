package service

import (
	"gorm.io/gorm"

	"trading-journal/database"
	"trading-journal/models"
)

// SeedMarketBiases gives owner a NEUTRAL bias for every default instrument
// they do not track yet. Running it twice adds nothing.
func SeedMarketBiases(tx *gorm.DB, owner uint) (int64, error) {
	var existing []string
	if err := tx.Model(&models.MarketBias{}).Where("owner_id = ?", owner).Pluck("instrument", &existing).Error; err != nil {
		return 0, err
	}
	have := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		have[name] = struct{}{}
	}

	var missing []models.MarketBias
	for _, name := range models.DefaultBiasInstruments {
		if _, ok := have[name]; ok {
			continue
		}
		b := models.MarketBias{Instrument: name, Bias: models.BiasNeutral}
		b.AssignID(models.NewID())
		b.AssignOwner(owner)
		missing = append(missing, b)
	}
	if len(missing) == 0 {
		return 0, nil
	}
	return database.InsertIgnoringConflicts(tx, missing, len(missing))
}
