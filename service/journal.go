// Package service wires the journal's collections to their storage rules:
// ordering, cascades, uniqueness and cross-record checks.
package service

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trading-journal/apperr"
	"trading-journal/models"
	"trading-journal/repository"
)

// Journal bundles every owner-scoped collection.
type Journal struct {
	Playbooks     *repository.Scoped[models.Playbook, *models.Playbook]
	Samples       *repository.Scoped[models.TradeSample, *models.TradeSample]
	ReportCards   *repository.Scoped[models.DailyReportCard, *models.DailyReportCard]
	TradeLogs     *repository.Scoped[models.TradeLog, *models.TradeLog]
	Reminders     *repository.Scoped[models.Reminder, *models.Reminder]
	MarketDrivers *repository.Scoped[models.MarketDriver, *models.MarketDriver]
	MarketBiases  *repository.Scoped[models.MarketBias, *models.MarketBias]

	Trades *TradeService
}

func NewJournal(db *gorm.DB, logger *zap.Logger) *Journal {
	return &Journal{
		Playbooks: &repository.Scoped[models.Playbook, *models.Playbook]{
			DB:           db,
			Order:        "id asc",
			BeforeDelete: detachPlaybook,
		},
		Samples: &repository.Scoped[models.TradeSample, *models.TradeSample]{
			DB:    db,
			Order: "id asc",
			With: func(q *gorm.DB) *gorm.DB {
				return q.Preload("Trades", func(q *gorm.DB) *gorm.DB {
					return q.Order("date desc, id desc")
				})
			},
			BeforeSave:   keepSamplePnL,
			BeforeDelete: deleteSampleTrades,
		},
		ReportCards: &repository.Scoped[models.DailyReportCard, *models.DailyReportCard]{
			DB:    db,
			Order: "date desc, id desc",
			BeforeSave: func(tx *gorm.DB, item, _ *models.DailyReportCard) error {
				return repository.EnsureUnique(tx, &models.DailyReportCard{}, item.OwnerID, item.ID, "date", item.Date, "date")
			},
			Unique: "date",
		},
		TradeLogs: &repository.Scoped[models.TradeLog, *models.TradeLog]{
			DB:         db,
			Order:      "date desc, id desc",
			BeforeSave: checkTradeLog,
		},
		Reminders: &repository.Scoped[models.Reminder, *models.Reminder]{
			DB:    db,
			Order: "id asc",
		},
		MarketDrivers: &repository.Scoped[models.MarketDriver, *models.MarketDriver]{
			DB:    db,
			Order: "id asc",
		},
		MarketBiases: &repository.Scoped[models.MarketBias, *models.MarketBias]{
			DB:    db,
			Order: "id asc",
			BeforeSave: func(tx *gorm.DB, item, _ *models.MarketBias) error {
				return repository.EnsureUnique(tx, &models.MarketBias{}, item.OwnerID, item.ID, "instrument", item.Instrument, "instrument")
			},
			Unique: "instrument",
		},
		Trades: NewTradeService(db, logger),
	}
}

// detachPlaybook clears trade references to the playbook and drops its
// trade logs.
func detachPlaybook(tx *gorm.DB, p *models.Playbook) error {
	if err := tx.Model(&models.Trade{}).Where("strategy_id = ?", p.ID).Update("strategy_id", nil).Error; err != nil {
		return err
	}
	return tx.Where("owner_id = ? AND strategy_id = ?", p.OwnerID, p.ID).Delete(&models.TradeLog{}).Error
}

// keepSamplePnL pins the derived pnl: zero for a new sample, the stored
// value otherwise.
func keepSamplePnL(_ *gorm.DB, s, prior *models.TradeSample) error {
	if prior == nil {
		s.PnL = decimal.Zero
	} else {
		s.PnL = prior.PnL
	}
	s.Trades = nil
	return nil
}

func deleteSampleTrades(tx *gorm.DB, s *models.TradeSample) error {
	return tx.Where("sample_id = ?", s.ID).Delete(&models.Trade{}).Error
}

// checkTradeLog stamps the creation date and verifies both references.
func checkTradeLog(tx *gorm.DB, l, prior *models.TradeLog) error {
	if prior == nil {
		l.Date = time.Now().UTC()
	} else {
		l.Date = prior.Date
	}

	v := &apperr.ValidationError{}
	var n int64
	if err := tx.Model(&models.Playbook{}).Where("owner_id = ? AND id = ?", l.OwnerID, l.StrategyID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		v.Add("strategy", "unknown playbook")
	}
	if err := tx.Model(&models.Instrument{}).Where("id = ?", l.InstrumentID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		v.Add("instrument", "unknown instrument")
	}
	return v.Err()
}
