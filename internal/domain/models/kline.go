package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is a quote currency the price history can be published in.
// The set is closed: ParseCurrency rejects anything else.
type Currency string

const (
	EUR   Currency = "EUR"
	USDT  Currency = "USDT"
	USDC  Currency = "USDC"
	FDUSD Currency = "FDUSD"
)

// Currencies lists every supported quote currency.
var Currencies = []Currency{EUR, USDT, USDC, FDUSD}

// ParseCurrency maps a code (case insensitive) to a known Currency.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Currencies {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unsupported currency %q", s)
}

// PriceData holds the open/high/low/close of one period in one currency.
type PriceData struct {
	Open  decimal.Decimal `json:"prixOuverture" swaggertype:"number" example:"42000.10"`
	High  decimal.Decimal `json:"high" swaggertype:"number" example:"43010.00"`
	Low   decimal.Decimal `json:"low" swaggertype:"number" example:"41500.55"`
	Close decimal.Decimal `json:"prixFermeture" swaggertype:"number" example:"42890.00"`
}

// KlineData is one daily kline of a symbol, priced in one or more currencies.
//
// On the wire the prices are flattened next to the dates, keyed by currency
// code:
//
//	{"dateOuverture": "...", "dateFermeture": "...", "EUR": {...}, "USDT": {...}}
type KlineData struct {
	OpenTime  time.Time
	CloseTime time.Time
	Prices    map[Currency]PriceData
}

// NewKlineData returns a KlineData with an empty price map.
func NewKlineData(openTime, closeTime time.Time) KlineData {
	return KlineData{
		OpenTime:  openTime,
		CloseTime: closeTime,
		Prices:    make(map[Currency]PriceData),
	}
}

// Price returns the price block for the given currency, if present.
func (k KlineData) Price(c Currency) (PriceData, bool) {
	p, ok := k.Prices[c]
	return p, ok
}

func (k KlineData) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(k.Prices)+2)
	out["dateOuverture"] = k.OpenTime
	out["dateFermeture"] = k.CloseTime
	for c, p := range k.Prices {
		out[string(c)] = p
	}
	return json.Marshal(out)
}

func (k *KlineData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	k.Prices = make(map[Currency]PriceData)
	for key, v := range raw {
		switch key {
		case "dateOuverture":
			if err := json.Unmarshal(v, &k.OpenTime); err != nil {
				return fmt.Errorf("dateOuverture: %w", err)
			}
		case "dateFermeture":
			if err := json.Unmarshal(v, &k.CloseTime); err != nil {
				return fmt.Errorf("dateFermeture: %w", err)
			}
		default:
			c, err := ParseCurrency(key)
			if err != nil {
				return err
			}
			var p PriceData
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			k.Prices[c] = p
		}
	}
	return nil
}
