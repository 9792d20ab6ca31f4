// Package pricing builds daily price history for a crypto symbol out of the
// exchange klines, preferring EUR and falling back to other quote currencies.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/guttosm/cryptofolio/internal/binance"
	"github.com/guttosm/cryptofolio/internal/domain/models"
	"github.com/guttosm/cryptofolio/internal/logger"
)

const source = "getKlines"

// Fetcher returns the daily klines of symbol quoted in quote. (nil, nil)
// means the exchange has no data for that pair.
type Fetcher interface {
	FetchKlines(ctx context.Context, symbol string, quote models.Currency, start, end time.Time) ([]binance.Kline, error)
}

// Converter converts an amount between two currencies at a point in time.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to models.Currency, at time.Time) (decimal.Decimal, error)
}

// DefaultFiats is the fallback order used when none is configured.
var DefaultFiats = []models.Currency{models.EUR, models.USDT, models.USDC}

// Aggregator resolves one kline per symbol with the EUR-first fallback.
type Aggregator struct {
	fetcher   Fetcher
	converter Converter
	fiats     []models.Currency
}

// NewAggregator returns an Aggregator trying fiats in order after EUR.
// EUR is always tried first whether or not it appears in fiats.
func NewAggregator(fetcher Fetcher, converter Converter, fiats []models.Currency) *Aggregator {
	if len(fiats) == 0 {
		fiats = DefaultFiats
	}
	return &Aggregator{fetcher: fetcher, converter: converter, fiats: fiats}
}

// Fallbacks returns the configured fiats other than EUR, in order.
func (a *Aggregator) Fallbacks() []models.Currency {
	return lo.Filter(a.fiats, func(c models.Currency, _ int) bool { return c != models.EUR })
}

// Klines returns the first kline of symbol in [start, end].
//
// EUR is tried first and wins outright. Otherwise the fallback fiats are
// tried strictly one after the other and the first with data wins; a USDT
// hit also gets an EUR block converted field by field. Other fallback fiats
// are reported in their own currency only.
//
// ok is false when no fiat has data; that is not an error. Fetch and
// conversion failures of a single fiat are logged and the next fiat is
// tried. Only context cancellation is returned as an error.
func (a *Aggregator) Klines(ctx context.Context, symbol string, start, end time.Time) (kline models.KlineData, ok bool, err error) {
	kline, ok, err = a.fetchEUR(ctx, symbol, start, end)
	if err != nil || ok {
		return kline, ok, err
	}
	return a.fetchAlternativeFiat(ctx, symbol, start, end)
}

func (a *Aggregator) fetchEUR(ctx context.Context, symbol string, start, end time.Time) (models.KlineData, bool, error) {
	klines, err := a.fetcher.FetchKlines(ctx, symbol, models.EUR, start, end)
	if err != nil {
		if ctx.Err() != nil {
			return models.KlineData{}, false, ctx.Err()
		}
		logger.Source(source, "fetchEUR").Error().Str("symbol", symbol).Err(err).Msg("EUR fetch failed")
		return models.KlineData{}, false, nil
	}
	if len(klines) == 0 {
		return models.KlineData{}, false, nil
	}

	first := klines[0]
	kline := models.NewKlineData(first.OpenTime, first.CloseTime)
	kline.Prices[models.EUR] = first.Prices()
	return kline, true, nil
}

func (a *Aggregator) fetchAlternativeFiat(ctx context.Context, symbol string, start, end time.Time) (models.KlineData, bool, error) {
	var lastErr error

	for _, fiat := range a.Fallbacks() {
		klines, err := a.fetcher.FetchKlines(ctx, symbol, fiat, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return models.KlineData{}, false, ctx.Err()
			}
			lastErr = err
			continue
		}
		if len(klines) == 0 {
			continue
		}

		first := klines[0]
		prices := first.Prices()
		kline := models.NewKlineData(first.OpenTime, first.CloseTime)
		kline.Prices[fiat] = prices

		if fiat == models.USDT {
			eur, err := a.convertPrices(ctx, prices, models.USDT, models.EUR, first.OpenTime)
			if err != nil {
				if ctx.Err() != nil {
					return models.KlineData{}, false, ctx.Err()
				}
				lastErr = err
				continue
			}
			kline.Prices[models.EUR] = eur
		}
		return kline, true, nil
	}

	if lastErr != nil {
		logger.Source(source, "fetchAlternativeFiatData").Error().
			Str("symbol", symbol).
			Err(lastErr).
			Msg("no currency available")
	}
	return models.KlineData{}, false, nil
}

func (a *Aggregator) convertPrices(ctx context.Context, p models.PriceData, from, to models.Currency, at time.Time) (models.PriceData, error) {
	var out models.PriceData
	fields := []struct {
		name string
		in   decimal.Decimal
		out  *decimal.Decimal
	}{
		{"open", p.Open, &out.Open},
		{"high", p.High, &out.High},
		{"low", p.Low, &out.Low},
		{"close", p.Close, &out.Close},
	}
	for _, f := range fields {
		v, err := a.converter.Convert(ctx, f.in, from, to, at)
		if err != nil {
			return models.PriceData{}, fmt.Errorf("converting %s price %s to %s: %w", f.name, from, to, err)
		}
		*f.out = v
	}
	return out, nil
}
