package models

const (
	BiasBullish      = "BULLISH"
	BiasBearish      = "BEARISH"
	BiasNeutral      = "NEUTRAL"
	BiasRange        = "RANGE"
	BiasResurrection = "RESURRECTION"
)

// DefaultBiasInstruments get a NEUTRAL market bias for every new account.
var DefaultBiasInstruments = []string{"XAUUSD", "NASDAQ", "DAX", "GBPJPY", "BTC", "USD"}

type Reminder struct {
	Ownership

	Text string `json:"text" gorm:"type:varchar(255);not null" binding:"required,max=255"`
}

func (Reminder) TableName() string {
	return "reminders"
}

type MarketDriver struct {
	Ownership

	Name       string `json:"name" gorm:"type:varchar(100);not null" binding:"required,max=100"`
	Percentage *uint  `json:"percentage" gorm:"not null" binding:"required,max=100"`
	Color      string `json:"color" gorm:"type:varchar(20);not null" binding:"required,max=20"`
}

func (MarketDriver) TableName() string {
	return "market_drivers"
}

func (d *MarketDriver) SetDefaults() {
	d.Color = "blue"
}

// MarketBias is unique per owner and instrument.
type MarketBias struct {
	Ownership

	Instrument string `json:"instrument" gorm:"type:varchar(50);not null" binding:"required,max=50"`
	Bias       string `json:"bias" gorm:"type:varchar(12);not null" binding:"oneof=BULLISH BEARISH NEUTRAL RANGE RESURRECTION"`
}

func (MarketBias) TableName() string {
	return "market_biases"
}

func (b *MarketBias) SetDefaults() {
	b.Bias = BiasNeutral
}
