package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"trading-journal/apperr"
)

const (
	TradeTypeDayTrading   = "day_trading"
	TradeTypeScalping     = "scalping"
	TradeTypeSwingTrading = "swing_trading"
)

// Playbook is a user-authored strategy definition. The rule lists are stored
// and returned exactly as the client sent them.
type Playbook struct {
	Ownership

	Title     string `json:"title" gorm:"type:varchar(100);not null" binding:"required,max=100"`
	Overview  string `json:"overview" gorm:"type:text"`
	TradeType string `json:"trade_type" gorm:"type:varchar(20);not null" binding:"oneof=day_trading scalping swing_trading"`

	EntryCriteria   datatypes.JSON `json:"entry_criteria"`
	ExitStrategy    datatypes.JSON `json:"exit_strategy"`
	StopLossRules   datatypes.JSON `json:"stop_loss_rules"`
	Enhancers       datatypes.JSON `json:"enhancers"`
	TradeManagement datatypes.JSON `json:"trade_management"`
	Checklist       datatypes.JSON `json:"checklist"`
	TradeDatabase   datatypes.JSON `json:"trade_database"`

	CalculatedEV decimal.Decimal `json:"calculated_ev" gorm:"type:numeric(10,2);not null;default:0"`
}

func (Playbook) TableName() string {
	return "playbooks"
}

func (p *Playbook) SetDefaults() {
	p.TradeType = TradeTypeDayTrading
	p.EntryCriteria = EmptyList()
	p.ExitStrategy = EmptyList()
	p.StopLossRules = EmptyList()
	p.Enhancers = EmptyList()
	p.TradeManagement = EmptyList()
	p.Checklist = EmptyList()
	p.TradeDatabase = EmptyList()
}

func (p *Playbook) Check() error {
	v := &apperr.ValidationError{}
	checkList(v, "entry_criteria", p.EntryCriteria)
	checkList(v, "exit_strategy", p.ExitStrategy)
	checkList(v, "stop_loss_rules", p.StopLossRules)
	checkList(v, "enhancers", p.Enhancers)
	checkList(v, "trade_management", p.TradeManagement)
	checkList(v, "checklist", p.Checklist)
	checkList(v, "trade_database", p.TradeDatabase)
	checkDecimal(v, "calculated_ev", p.CalculatedEV, 10, 2)
	return v.Err()
}
