package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trading-journal/apperr"
	"trading-journal/database"
	"trading-journal/models"
)

const instrumentBatchSize = 100

// Instruments is the shared catalog, listed in insertion order. Only
// operators add to it.
type Instruments struct {
	DB *gorm.DB
}

func NewInstruments(db *gorm.DB) *Instruments {
	return &Instruments{DB: db}
}

func (s *Instruments) List(ctx context.Context) ([]models.Instrument, error) {
	out := make([]models.Instrument, 0)
	if err := s.DB.WithContext(ctx).Order("id asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Instruments) Get(ctx context.Context, id uuid.UUID) (*models.Instrument, error) {
	var in models.Instrument
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&in).Error; err != nil {
		return nil, notFound(err)
	}
	return &in, nil
}

// Add inserts the named instruments, skipping names already in the catalog.
// It reports how many rows were new.
func (s *Instruments) Add(ctx context.Context, names ...string) (int64, error) {
	v := &apperr.ValidationError{}
	seen := map[string]struct{}{}
	rows := make([]models.Instrument, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		switch {
		case name == "":
			v.Add("name", "this field may not be blank")
			continue
		case len(name) > 50:
			v.Add("name", "ensure this field has no more than 50 characters")
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		rows = append(rows, models.Instrument{ID: models.NewID(), Name: name})
	}
	if err := v.Err(); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return database.InsertIgnoringConflicts(s.DB.WithContext(ctx), rows, instrumentBatchSize)
}
