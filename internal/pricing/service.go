package pricing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/cryptofolio/internal/domain/models"
	"github.com/guttosm/cryptofolio/internal/logger"
	"github.com/guttosm/cryptofolio/internal/validation"
)

// MaxSymbols bounds the distinct symbols of one GetKlines call; each one
// costs up to three upstream requests.
const MaxSymbols = 20

var (
	ErrInvalidDate    = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidSymbol  = errors.New("invalid crypto symbol")
	ErrTooManySymbols = fmt.Errorf("too many crypto symbols, at most %d per request", MaxSymbols)
)

// KlineSchema is the request contract of GetKlines.
var KlineSchema = validation.Schema{
	Methods: []string{http.MethodGet},
	Query: []validation.Field{
		{Name: "crypto", Rule: validation.Required(validation.String)},
		{Name: "date", Rule: validation.Required(validation.String)},
	},
}

// KlineService answers "what was the price of these cryptos on that day".
type KlineService interface {
	GetKlines(ctx context.Context, crypto, date string) (map[string]models.KlineData, error)
}

type klineService struct {
	agg      *Aggregator
	parallel int
}

// NewKlineService wraps agg. parallel bounds how many symbols are resolved
// at once when several are requested (values < 1 mean one at a time).
func NewKlineService(agg *Aggregator, parallel int) KlineService {
	if parallel < 1 {
		parallel = 1
	}
	return &klineService{agg: agg, parallel: parallel}
}

// GetKlines validates crypto and date, then resolves the daily kline of each
// symbol in crypto (comma separated, case insensitive). Symbols without data
// are left out of the map, so an empty map is a valid answer.
func (s *klineService) GetKlines(ctx context.Context, crypto, date string) (map[string]models.KlineData, error) {
	req := validation.Request{
		Method: http.MethodGet,
		Query:  url.Values{"crypto": {crypto}, "date": {date}},
	}
	data, err := validation.Validate(req, KlineSchema, source)
	if err != nil {
		return nil, err
	}

	start, end, err := dayRange(data.Query.String("date"))
	if err != nil {
		return nil, err
	}
	symbols := parseSymbols(data.Query.String("crypto"))
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSymbol, crypto)
	}
	if len(symbols) > MaxSymbols {
		return nil, fmt.Errorf("%w (got %d)", ErrTooManySymbols, len(symbols))
	}

	out := make(map[string]models.KlineData, len(symbols))
	var mu sync.Mutex

	// Symbols are independent; the fiat fallback of one symbol stays sequential.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for _, symbol := range symbols {
		g.Go(func() error {
			kline, ok, err := s.agg.Klines(gctx, symbol, start, end)
			if err != nil {
				return fmt.Errorf("%s: %w", symbol, err)
			}
			if !ok {
				logger.Source(source, "getKlines").Info().Str("symbol", symbol).Msg("no data available")
				return nil
			}
			mu.Lock()
			out[symbol] = kline
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Source(source, "getKlines").Error().Err(err).Msg("kline lookup failed")
		return nil, err
	}
	return out, nil
}

// dayRange returns the first and last millisecond (UTC) of the day in s.
func dayRange(s string) (time.Time, time.Time, error) {
	s = strings.TrimSpace(s)
	day, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err2 := time.Parse(time.RFC3339, s)
		if err2 != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		day = t.UTC()
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24*time.Hour - time.Millisecond), nil
}

func parseSymbols(s string) []string {
	parts := lo.Map(strings.Split(s, ","), func(p string, _ int) string {
		return strings.ToUpper(strings.TrimSpace(p))
	})
	return lo.Uniq(lo.Compact(parts))
}
