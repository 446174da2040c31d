package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"trading-journal/apperr"
)

// Instrument is the global catalog entry referenced by trade logs. Clients
// can only read it.
type Instrument struct {
	ID   uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name string    `json:"name" gorm:"type:varchar(50);not null;uniqueIndex"`
}

func (Instrument) TableName() string {
	return "instruments"
}

// TradeLog records a single outcome measured in R against one of the
// owner's playbooks.
type TradeLog struct {
	Ownership

	StrategyID   uuid.UUID           `json:"strategy" gorm:"type:uuid;not null;index"`
	InstrumentID uuid.UUID           `json:"instrument" gorm:"type:uuid;not null;index"`
	Date         time.Time           `json:"date" gorm:"not null;index"`
	Outcome      string              `json:"outcome" gorm:"type:varchar(4);not null" binding:"required,oneof=WIN LOSS"`
	RealizedR    decimal.NullDecimal `json:"realized_r" gorm:"column:realized_r;type:numeric(5,2);not null"`
}

func (TradeLog) TableName() string {
	return "trade_logs"
}

func (l *TradeLog) Check() error {
	v := &apperr.ValidationError{}
	if l.StrategyID == uuid.Nil {
		v.Add("strategy", "this field is required")
	}
	if l.InstrumentID == uuid.Nil {
		v.Add("instrument", "this field is required")
	}
	checkRequiredDecimal(v, "realized_r", l.RealizedR, 5, 2)
	return v.Err()
}
