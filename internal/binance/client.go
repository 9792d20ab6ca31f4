// Package binance is a minimal client for the public Binance spot REST API:
// daily klines, used as the price history source.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/cryptofolio/internal/domain/models"
)

// DefaultBaseURL is the public spot API root.
const DefaultBaseURL = "https://api.binance.com/api/v3"

const dailyInterval = "1d"

// Kline is one decoded kline tuple. Only the fields the service uses are kept:
// [0]=openTime, [1]=open, [2]=high, [3]=low, [4]=close, [6]=closeTime.
type Kline struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
}

// Prices returns the OHLC block of k.
func (k Kline) Prices() models.PriceData {
	return models.PriceData{Open: k.Open, High: k.High, Low: k.Low, Close: k.Close}
}

// Client fetches klines over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. A zero timeout leaves outbound
// calls bounded only by the caller's context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchKlines returns the daily klines of the pair symbol+quote between start
// and end (inclusive, millisecond precision).
//
// A non-2xx answer (typically an unknown pair) is reported as no data:
// (nil, nil). Transport and decoding failures are returned as errors.
func (c *Client) FetchKlines(ctx context.Context, symbol string, quote models.Currency, start, end time.Time) ([]Kline, error) {
	pair := symbol + string(quote)
	q := url.Values{}
	q.Set("symbol", pair)
	q.Set("interval", dailyInterval)
	q.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/klines?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating klines request for %s: %w", pair, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("klines request for %s failed: %w", pair, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	var raw [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding klines for %s: %w", pair, err)
	}

	out := make([]Kline, 0, len(raw))
	for i, row := range raw {
		k, err := decodeKline(row)
		if err != nil {
			return nil, fmt.Errorf("klines for %s, row %d: %w", pair, i, err)
		}
		out = append(out, k)
	}
	return out, nil
}

func decodeKline(row []json.RawMessage) (Kline, error) {
	if len(row) < 7 {
		return Kline{}, fmt.Errorf("expected at least 7 columns, got %d", len(row))
	}

	var k Kline
	var err error
	if k.OpenTime, err = decodeMillis(row[0]); err != nil {
		return Kline{}, fmt.Errorf("open time: %w", err)
	}
	if k.CloseTime, err = decodeMillis(row[6]); err != nil {
		return Kline{}, fmt.Errorf("close time: %w", err)
	}

	prices := []*decimal.Decimal{&k.Open, &k.High, &k.Low, &k.Close}
	for i, dst := range prices {
		if *dst, err = decodePrice(row[i+1]); err != nil {
			return Kline{}, fmt.Errorf("column %d: %w", i+1, err)
		}
	}
	return k, nil
}

func decodeMillis(raw json.RawMessage) (time.Time, error) {
	var ms int64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

// decodePrice accepts the exchange's string formatted prices ("42000.10000000")
// as well as bare numbers.
func decodePrice(raw json.RawMessage) (decimal.Decimal, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return decimal.NewFromString(s)
	}
	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err != nil {
		return decimal.Decimal{}, err
	}
	return d, nil
}
