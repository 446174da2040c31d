package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"trading-journal/apperr"
)

// Grades accepted on a daily report card, best first.
var Grades = []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "D-", "F", "N/A"}

// DailyReportCard is a per-day self assessment. There is at most one per
// owner and date.
type DailyReportCard struct {
	Ownership

	Date  Date            `json:"date" gorm:"not null;index"`
	Grade string          `json:"grade" gorm:"type:varchar(3);not null"`
	Goal  string          `json:"goal" gorm:"type:text"`
	PnL   decimal.Decimal `json:"pnl" gorm:"column:pnl;type:numeric(10,2);not null;default:0"`

	Reminders             datatypes.JSON `json:"reminders"`
	Improvements          datatypes.JSON `json:"improvements"`
	MistakesWithSolutions datatypes.JSON `json:"mistakes_with_solutions"`
	PerformanceTable      datatypes.JSON `json:"performance_table"`
}

func (DailyReportCard) TableName() string {
	return "daily_report_cards"
}

func (d *DailyReportCard) SetDefaults() {
	d.Grade = "C"
	d.Reminders = EmptyList()
	d.Improvements = EmptyList()
	d.MistakesWithSolutions = EmptyList()
	d.PerformanceTable = EmptyList()
}

func (d *DailyReportCard) Check() error {
	v := &apperr.ValidationError{}
	if d.Date.IsZero() {
		v.Add("date", "this field is required")
	}
	if !validGrade(d.Grade) {
		v.Add("grade", "must be one of "+strings.Join(Grades, ", "))
	}
	checkDecimal(v, "pnl", d.PnL, 10, 2)
	checkList(v, "reminders", d.Reminders)
	checkList(v, "improvements", d.Improvements)
	checkList(v, "mistakes_with_solutions", d.MistakesWithSolutions)
	checkList(v, "performance_table", d.PerformanceTable)
	return v.Err()
}

func validGrade(g string) bool {
	for _, allowed := range Grades {
		if g == allowed {
			return true
		}
	}
	return false
}
