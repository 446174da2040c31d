package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trading-journal/apperr"
	"trading-journal/database"
	"trading-journal/models"
)

// TradeService manages trades nested under a sample and keeps the sample's
// pnl equal to the sum of its trades' realized pnl. Every write and the
// matching recompute share one transaction, and writes under one sample are
// serialized.
type TradeService struct {
	DB     *gorm.DB
	Logger *zap.Logger

	locks sampleLocks
}

func NewTradeService(db *gorm.DB, logger *zap.Logger) *TradeService {
	return &TradeService{DB: db, Logger: logger}
}

// List returns the trades of one of the owner's samples, newest first.
func (s *TradeService) List(ctx context.Context, owner uint, sampleID uuid.UUID) ([]models.Trade, error) {
	db := s.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&models.TradeSample{}).Where("owner_id = ? AND id = ?", owner, sampleID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.ErrNotFound
	}
	trades := make([]models.Trade, 0)
	if err := db.Where("sample_id = ?", sampleID).Order("date desc, id desc").Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

// ListAll returns the owner's trades across every sample, newest first.
func (s *TradeService) ListAll(ctx context.Context, owner uint) ([]models.Trade, error) {
	trades := make([]models.Trade, 0)
	if err := ownedTrades(s.DB.WithContext(ctx), owner).Order("date desc, id desc").Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

// Get looks a trade up among the owner's trades. A nil sampleID matches any
// of the owner's samples.
func (s *TradeService) Get(ctx context.Context, owner uint, sampleID, id uuid.UUID) (*models.Trade, error) {
	q := ownedTrades(s.DB.WithContext(ctx), owner).Where("id = ?", id)
	if sampleID != uuid.Nil {
		q = q.Where("sample_id = ?", sampleID)
	}
	var t models.Trade
	if err := q.First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// Create adds t to the owner's sample. The sample comes from the caller,
// never from the payload.
func (s *TradeService) Create(ctx context.Context, owner uint, sampleID uuid.UUID, t *models.Trade) error {
	unlock := s.locks.lock(sampleID)
	defer unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSample(tx, owner, sampleID); err != nil {
			return err
		}
		t.ID = models.NewID()
		t.SampleID = sampleID
		if err := checkStrategy(tx, owner, t.StrategyID); err != nil {
			return err
		}
		if err := tx.Create(t).Error; err != nil {
			return fmt.Errorf("create trade: %w", err)
		}
		return s.recompute(tx, sampleID)
	})
}

// Update applies a change to one of the owner's trades. A nil sampleID
// resolves the sample from the trade itself.
func (s *TradeService) Update(ctx context.Context, owner uint, sampleID, id uuid.UUID, apply func(*models.Trade) error) (*models.Trade, error) {
	sampleID, err := s.resolveSample(ctx, owner, sampleID, id)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.lock(sampleID)
	defer unlock()

	var out models.Trade
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSample(tx, owner, sampleID); err != nil {
			return err
		}
		if err := tx.Where("sample_id = ? AND id = ?", sampleID, id).First(&out).Error; err != nil {
			return notFound(err)
		}
		if err := apply(&out); err != nil {
			return err
		}
		out.ID = id
		out.SampleID = sampleID
		if err := checkStrategy(tx, owner, out.StrategyID); err != nil {
			return err
		}
		if err := tx.Save(&out).Error; err != nil {
			return fmt.Errorf("update trade: %w", err)
		}
		return s.recompute(tx, sampleID)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TradeService) Delete(ctx context.Context, owner uint, sampleID, id uuid.UUID) error {
	sampleID, err := s.resolveSample(ctx, owner, sampleID, id)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(sampleID)
	defer unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSample(tx, owner, sampleID); err != nil {
			return err
		}
		res := tx.Where("sample_id = ? AND id = ?", sampleID, id).Delete(&models.Trade{})
		if res.Error != nil {
			return fmt.Errorf("delete trade: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return s.recompute(tx, sampleID)
	})
}

func (s *TradeService) resolveSample(ctx context.Context, owner uint, sampleID, id uuid.UUID) (uuid.UUID, error) {
	if sampleID != uuid.Nil {
		return sampleID, nil
	}
	t, err := s.Get(ctx, owner, uuid.Nil, id)
	if err != nil {
		return uuid.Nil, err
	}
	return t.SampleID, nil
}

// recompute must run inside the transaction of the triggering write so the
// trade set it reads includes that write.
func (s *TradeService) recompute(tx *gorm.DB, sampleID uuid.UUID) error {
	var pnls []decimal.Decimal
	if err := tx.Model(&models.Trade{}).Where("sample_id = ?", sampleID).Pluck("realized_pnl", &pnls).Error; err != nil {
		return fmt.Errorf("load trade pnl: %w", err)
	}
	total := decimal.Zero
	for _, p := range pnls {
		total = total.Add(p)
	}
	total = total.Round(2)

	if err := tx.Model(&models.TradeSample{}).Where("id = ?", sampleID).Update("pnl", total).Error; err != nil {
		return fmt.Errorf("save sample pnl: %w", err)
	}
	s.Logger.Debug("sample pnl recomputed",
		zap.String("sample_id", sampleID.String()),
		zap.Int("trades", len(pnls)),
		zap.String("pnl", total.String()),
	)
	return nil
}

func lockSample(tx *gorm.DB, owner uint, sampleID uuid.UUID) error {
	var sample models.TradeSample
	err := database.ForUpdate(tx.Where("owner_id = ?", owner)).
		Select("id").
		Where("id = ?", sampleID).
		First(&sample).Error
	return notFound(err)
}

func ownedTrades(tx *gorm.DB, owner uint) *gorm.DB {
	return tx.Where("sample_id IN (?)", tx.Session(&gorm.Session{NewDB: true}).
		Model(&models.TradeSample{}).
		Select("id").
		Where("owner_id = ?", owner))
}

// checkStrategy accepts an empty reference or one of the owner's playbooks.
func checkStrategy(tx *gorm.DB, owner uint, strategy uuid.NullUUID) error {
	if !strategy.Valid {
		return nil
	}
	var n int64
	if err := tx.Model(&models.Playbook{}).Where("owner_id = ? AND id = ?", owner, strategy.UUID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.Invalid("strategy", "unknown playbook")
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return err
}
