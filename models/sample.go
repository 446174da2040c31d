package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"trading-journal/apperr"
)

const (
	OutcomeWin       = "WIN"
	OutcomeLoss      = "LOSS"
	OutcomeBreakeven = "BE"
)

// TradeSample groups trades that are reviewed together. PnL is derived from
// the trades and is never taken from a client payload.
type TradeSample struct {
	Ownership

	Name      string          `json:"name" gorm:"type:varchar(200);not null" binding:"required,max=200"`
	Size      uint            `json:"size" gorm:"not null" binding:"min=1"`
	StartDate Date            `json:"start_date" gorm:"not null"`
	EndDate   *Date           `json:"end_date"`
	Grade     string          `json:"grade" gorm:"type:varchar(2)" binding:"max=2"`
	PnL       decimal.Decimal `json:"pnl" gorm:"column:pnl;type:numeric(10,2);not null;default:0"`

	Trades []Trade `json:"trades" gorm:"foreignKey:SampleID"`
}

func (TradeSample) TableName() string {
	return "trade_samples"
}

func (s *TradeSample) SetDefaults() {
	s.Name = "Sample"
	s.Size = 20
}

func (s *TradeSample) Check() error {
	v := &apperr.ValidationError{}
	if s.StartDate.IsZero() {
		v.Add("start_date", "this field is required")
	}
	return v.Err()
}

// Trade belongs to exactly one sample. Its owner is the sample's owner.
type Trade struct {
	ID         uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	SampleID   uuid.UUID     `json:"sample" gorm:"type:uuid;not null;index"`
	StrategyID uuid.NullUUID `json:"strategy" gorm:"type:uuid;index"`

	Date       time.Time `json:"date" gorm:"not null;index"`
	Instrument string    `json:"instrument" gorm:"type:varchar(50);not null" binding:"required,max=50"`

	InitialRiskPips   decimal.Decimal     `json:"initial_risk_pips" gorm:"type:numeric(10,2);not null;default:0"`
	InitialTargetPips decimal.Decimal     `json:"initial_target_pips" gorm:"type:numeric(10,2);not null;default:0"`
	RealizedPnL       decimal.NullDecimal `json:"realized_pnl" gorm:"column:realized_pnl;type:numeric(10,2);not null"`
	RealizedRMultiple decimal.NullDecimal `json:"realized_r_multiple" gorm:"type:numeric(5,2);not null"`

	Outcome       string `json:"outcome" gorm:"type:varchar(4);not null" binding:"required,oneof=WIN LOSS BE"`
	RulesFollowed bool   `json:"rules_followed" gorm:"not null"`
	Context       string `json:"context" gorm:"type:text"`
	Comment       string `json:"comment" gorm:"type:text"`
}

func (Trade) TableName() string {
	return "trades"
}

func (t *Trade) SetDefaults() {
	t.RulesFollowed = true
}

func (t *Trade) Check() error {
	v := &apperr.ValidationError{}
	if t.Date.IsZero() {
		v.Add("date", "this field is required")
	}
	checkDecimal(v, "initial_risk_pips", t.InitialRiskPips, 10, 2)
	checkDecimal(v, "initial_target_pips", t.InitialTargetPips, 10, 2)
	checkRequiredDecimal(v, "realized_pnl", t.RealizedPnL, 10, 2)
	checkRequiredDecimal(v, "realized_r_multiple", t.RealizedRMultiple, 5, 2)
	return v.Err()
}
