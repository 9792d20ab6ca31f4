package fx

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/cryptofolio/internal/domain/models"
)

// quote is how a pair was resolved on the exchange: the daily close of the
// traded pair and whether it has to be inverted to go from -> to.
type quote struct {
	close   decimal.Decimal
	inverse bool
}

type cacheEntry struct {
	q         quote
	expiresAt time.Time
}

type rateCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

func newRateCache(ttl time.Duration) *rateCache {
	return &rateCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// cacheKey formats: "{from}=>{to}:{day}" e.g. "USDT=>EUR:2024-01-15"
func cacheKey(from, to models.Currency, day time.Time) string {
	return fmt.Sprintf("%s=>%s:%s", from, to, day.Format("2006-01-02"))
}

func (c *rateCache) get(key string) (quote, bool) {
	if c.ttl <= 0 {
		return quote{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return quote{}, false
	}
	return entry.q, true
}

func (c *rateCache) set(key string, q quote) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		q:         q,
		expiresAt: time.Now().Add(c.ttl),
	}
}
