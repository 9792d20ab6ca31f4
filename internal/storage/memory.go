package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/guttosm/cryptofolio/internal/domain/models"
)

type holdingKey struct {
	accountID string
	cryptoID  string
}

// memoryRepository keeps everything in process memory. One mutex guards the
// ledger and the holdings so that each write is atomic.
type memoryRepository struct {
	mu         sync.Mutex
	ledger     []models.Transaction
	portfolios map[holdingKey]models.Portfolio
	imports    map[string]int
	now        func() time.Time
}

// NewMemoryRepository returns an empty in-memory Repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		portfolios: make(map[holdingKey]models.Portfolio),
		imports:    make(map[string]int),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (m *memoryRepository) CreateBuy(_ context.Context, t models.Transaction) (models.Transaction, error) {
	if !t.QuantiteCrypto.IsPositive() {
		return models.Transaction{}, ErrInvalidQuantity
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t.Type = models.TransactionBuy
	return m.apply(t), nil
}

func (m *memoryRepository) CreateSell(_ context.Context, t models.Transaction) (models.Transaction, error) {
	if !t.QuantiteCrypto.IsPositive() {
		return models.Transaction{}, ErrInvalidQuantity
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.portfolios[holdingKey{t.AccountID, t.CryptoID}]
	if !ok || p.Quantity.LessThan(t.QuantiteCrypto) {
		return models.Transaction{}, ErrInsufficientHoldings
	}
	t.Type = models.TransactionSell
	return m.apply(t), nil
}

// apply appends t to the ledger and moves the holding. Callers hold mu.
func (m *memoryRepository) apply(t models.Transaction) models.Transaction {
	now := m.now()
	t.ID = newID()
	t.CreatedAt = now
	m.ledger = append(m.ledger, t)

	key := holdingKey{t.AccountID, t.CryptoID}
	p, ok := m.portfolios[key]
	if !ok {
		p = models.Portfolio{AccountID: t.AccountID, CryptoID: t.CryptoID, Quantity: decimal.Zero}
	}
	p.Quantity = p.Quantity.Add(t.SignedQuantity())
	p.UpdatedAt = now
	m.portfolios[key] = p
	return t
}

func (m *memoryRepository) ListTransactions(_ context.Context, accountID, cryptoID string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := lo.Filter(m.ledger, func(t models.Transaction, _ int) bool {
		return t.AccountID == accountID && (cryptoID == "" || t.CryptoID == cryptoID)
	})
	// newest first; ledger order breaks ties on the same date
	lo.Reverse(out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memoryRepository) ListPortfolios(_ context.Context, accountID string) ([]models.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := lo.Filter(lo.Values(m.portfolios), func(p models.Portfolio, _ int) bool {
		return p.AccountID == accountID
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CryptoID < out[j].CryptoID })
	return out, nil
}

func (m *memoryRepository) ImportBatch(_ context.Context, filename string, txs []models.Transaction) error {
	for _, t := range txs {
		if !t.QuantiteCrypto.IsPositive() {
			return ErrInvalidQuantity
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range txs {
		m.apply(t)
	}
	m.imports[filename] = len(txs)
	return nil
}

func (m *memoryRepository) HasImport(_ context.Context, filename string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.imports[filename]
	return ok, nil
}

func (m *memoryRepository) Ping(context.Context) error { return nil }
