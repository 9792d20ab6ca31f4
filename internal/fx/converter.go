// Package fx converts amounts between quote currencies using the exchange's
// own daily klines of the currency pair.
package fx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/cryptofolio/internal/binance"
	"github.com/guttosm/cryptofolio/internal/domain/models"
)

// ErrRateUnavailable is returned when neither from+to nor to+from is traded
// on the requested day.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// KlineFetcher is the subset of binance.Client the converter needs.
type KlineFetcher interface {
	FetchKlines(ctx context.Context, symbol string, quote models.Currency, start, end time.Time) ([]binance.Kline, error)
}

// Converter converts amounts at the daily close of the pair on a given day.
type Converter struct {
	fetcher KlineFetcher
	cache   *rateCache
}

// NewConverter returns a Converter backed by fetcher. Resolved rates are kept
// for ttl; ttl <= 0 disables caching.
func NewConverter(fetcher KlineFetcher, ttl time.Duration) *Converter {
	return &Converter{fetcher: fetcher, cache: newRateCache(ttl)}
}

// Convert returns amount expressed in `to`, using the rate of the UTC day
// containing at.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to models.Currency, at time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	q, err := c.resolve(ctx, from, to, at)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if q.inverse {
		return amount.Div(q.close), nil
	}
	return amount.Mul(q.close), nil
}

func (c *Converter) resolve(ctx context.Context, from, to models.Currency, at time.Time) (quote, error) {
	start := startOfDay(at)
	key := cacheKey(from, to, start)
	if q, ok := c.cache.get(key); ok {
		return q, nil
	}
	end := start.Add(24*time.Hour - time.Millisecond)

	candidates := []struct {
		base    models.Currency
		quoted  models.Currency
		inverse bool
	}{
		{base: from, quoted: to},
		{base: to, quoted: from, inverse: true},
	}
	for _, cand := range candidates {
		klines, err := c.fetcher.FetchKlines(ctx, string(cand.base), cand.quoted, start, end)
		if err != nil {
			return quote{}, fmt.Errorf("fetching %s%s rate: %w", cand.base, cand.quoted, err)
		}
		if len(klines) == 0 || klines[0].Close.IsZero() {
			continue
		}
		q := quote{close: klines[0].Close, inverse: cand.inverse}
		c.cache.set(key, q)
		return q, nil
	}
	return quote{}, fmt.Errorf("%w: %s to %s on %s", ErrRateUnavailable, from, to, start.Format("2006-01-02"))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
