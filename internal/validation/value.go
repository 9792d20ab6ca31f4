package validation

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order when coercing a date field.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// ValidateValue checks a single raw value against rule and returns the
// coerced value. A nil value means the field was absent; an optional absent
// field yields (nil, nil). The input is never modified.
func ValidateValue(value any, rule Rule, field string) (any, error) {
	if isEmpty(value) {
		if rule.IsRequired() {
			return nil, missingField(field)
		}
		return nil, nil
	}

	switch rule.Type() {
	case String:
		s, ok := value.(string)
		if !ok {
			return nil, invalidType(field, String)
		}
		return s, nil
	case Number:
		d, ok := toDecimal(value)
		if !ok {
			return nil, invalidType(field, Number)
		}
		return d, nil
	case PositiveNumber:
		d, ok := toDecimal(value)
		if !ok || !d.IsPositive() {
			return nil, invalidType(field, PositiveNumber)
		}
		return d, nil
	case Date:
		t, ok := toTime(value)
		if !ok {
			return nil, invalidType(field, Date)
		}
		return t, nil
	default:
		return nil, invalidType(field, rule.Type())
	}
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return true
	}
	return false
}

func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	default:
		return decimal.Decimal{}, false
	}
}

func toTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, !v.IsZero()
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
