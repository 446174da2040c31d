package models

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"trading-journal/apperr"
)

// EmptyList is the stored default for JSON list columns.
func EmptyList() datatypes.JSON {
	return datatypes.JSON("[]")
}

func checkList(v *apperr.ValidationError, field string, raw datatypes.JSON) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		v.Add(field, "must be a list")
	}
}

// checkDecimal mirrors a numeric(maxDigits, places) column.
func checkDecimal(v *apperr.ValidationError, field string, d decimal.Decimal, maxDigits, places int32) {
	if !d.Equal(d.Round(places)) {
		v.Add(field, fmt.Sprintf("ensure there are no more than %d decimal places", places))
		return
	}
	limit := decimal.New(1, maxDigits-places)
	if d.Abs().GreaterThanOrEqual(limit) {
		v.Add(field, fmt.Sprintf("ensure there are no more than %d digits in total", maxDigits))
	}
}

func checkRequiredDecimal(v *apperr.ValidationError, field string, d decimal.NullDecimal, maxDigits, places int32) {
	if !d.Valid {
		v.Add(field, "this field is required")
		return
	}
	checkDecimal(v, field, d.Decimal, maxDigits, places)
}
