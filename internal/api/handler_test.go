package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/guttosm/cryptofolio/internal/domain/dto"
	"github.com/guttosm/cryptofolio/internal/domain/models"
	"github.com/guttosm/cryptofolio/internal/pricing"
	"github.com/guttosm/cryptofolio/internal/service"
	"github.com/guttosm/cryptofolio/internal/storage"
	"github.com/guttosm/cryptofolio/internal/validation"
)

// mockRepo counts persistence calls so handler tests can assert that invalid
// requests never reach the storage.
type mockRepo struct {
	buys  int
	sells int
	err   error
}

func (m *mockRepo) CreateBuy(_ context.Context, t models.Transaction) (models.Transaction, error) {
	m.buys++
	if m.err != nil {
		return models.Transaction{}, m.err
	}
	t.ID = "tx-1"
	t.CreatedAt = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	return t, nil
}

func (m *mockRepo) CreateSell(_ context.Context, t models.Transaction) (models.Transaction, error) {
	m.sells++
	if m.err != nil {
		return models.Transaction{}, m.err
	}
	t.ID = "tx-2"
	return t, nil
}

func (m *mockRepo) ListTransactions(context.Context, string, string) ([]models.Transaction, error) {
	return []models.Transaction{}, m.err
}

func (m *mockRepo) ListPortfolios(_ context.Context, accountID string) ([]models.Portfolio, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []models.Portfolio{{AccountID: accountID, CryptoID: "bitcoin", Quantity: decimal.RequireFromString("0.5")}}, nil
}

func (m *mockRepo) ImportBatch(context.Context, string, []models.Transaction) error { return nil }
func (m *mockRepo) HasImport(context.Context, string) (bool, error)                { return false, nil }
func (m *mockRepo) Ping(context.Context) error                                     { return nil }

type mockKlines struct {
	out map[string]models.KlineData
	err error
}

func (m *mockKlines) GetKlines(context.Context, string, string) (map[string]models.KlineData, error) {
	return m.out, m.err
}

var _ pricing.KlineService = (*mockKlines)(nil)

func setupRouterWithMocks(repo storage.Repository, klines pricing.KlineService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(service.NewTransactionService(repo), klines)
	r := gin.New()
	r.Any("/transactions/buy", h.Buy)
	r.Any("/transactions/sell", h.Sell)
	r.GET("/transactions", h.ListTransactions)
	r.GET("/portfolios", h.ListPortfolios)
	r.GET("/klines", h.GetKlines)
	return r
}

const validBuy = `{"accountId":"acc-1","cryptoId":"bitcoin","montantEUR":250.5,"prixUnitaire":41750,"quantiteCrypto":0.006,"date":"2024-01-15"}`

func TestBuy_TableDriven(t *testing.T) {
	cases := []struct {
		name      string
		method    string
		body      string
		repoErr   error
		status    int
		wantCalls int
		wantError string
	}{
		{name: "valid", method: http.MethodPost, body: validBuy, status: http.StatusCreated, wantCalls: 1},
		{name: "missing cryptoId", method: http.MethodPost, body: `{"accountId":"acc-1","montantEUR":1,"prixUnitaire":1,"quantiteCrypto":1,"date":"2024-01-15"}`, status: http.StatusBadRequest, wantError: "missing required field: cryptoId"},
		{name: "wrong method", method: http.MethodGet, body: "", status: http.StatusMethodNotAllowed, wantError: "method GET not allowed"},
		{name: "not json", method: http.MethodPost, body: "{", status: http.StatusBadRequest},
		{name: "numeric string amount", method: http.MethodPost, body: strings.Replace(validBuy, `250.5`, `"250.5"`, 1), status: http.StatusCreated, wantCalls: 1},
		{name: "negative quantity", method: http.MethodPost, body: strings.Replace(validBuy, `0.006`, `-500`, 1), status: http.StatusBadRequest, wantError: "invalid type for field quantiteCrypto: expected positive number"},
		{name: "zero quantity", method: http.MethodPost, body: strings.Replace(validBuy, `0.006`, `0`, 1), status: http.StatusBadRequest},
		{name: "storage rejects quantity", method: http.MethodPost, body: validBuy, repoErr: storage.ErrInvalidQuantity, status: http.StatusBadRequest, wantCalls: 1, wantError: "quantity must be positive"},
		{name: "persistence failure", method: http.MethodPost, body: validBuy, repoErr: errors.New("db down"), status: http.StatusInternalServerError, wantCalls: 1, wantError: "Erreur lors de la création de la transaction"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockRepo{err: tc.repoErr}
			r := setupRouterWithMocks(repo, &mockKlines{})

			req := httptest.NewRequest(tc.method, "/transactions/buy", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, w.Code, w.Body.String())
			}
			if repo.buys != tc.wantCalls {
				t.Fatalf("expected %d persistence calls, got %d", tc.wantCalls, repo.buys)
			}
			if tc.wantError != "" {
				var resp dto.ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("invalid json: %v", err)
				}
				if resp.Message != tc.wantError {
					t.Fatalf("error=%q, want %q", resp.Message, tc.wantError)
				}
				if tc.status == http.StatusInternalServerError && resp.ErrorDetails != "" {
					t.Fatalf("persistence details leaked: %q", resp.ErrorDetails)
				}
			}
		})
	}
}

func TestBuy_ResponseBody(t *testing.T) {
	r := setupRouterWithMocks(&mockRepo{}, &mockKlines{})
	req := httptest.NewRequest(http.MethodPost, "/transactions/buy", strings.NewReader(validBuy))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out["id"] != "tx-1" || out["type"] != "ACHAT" || out["cryptoId"] != "bitcoin" {
		t.Fatalf("unexpected body: %v", out)
	}
	// amounts are JSON numbers
	if v, ok := out["montantEUR"].(float64); !ok || v != 250.5 {
		t.Fatalf("montantEUR=%v (%T)", out["montantEUR"], out["montantEUR"])
	}
}

func TestSell_InsufficientHoldingsIsConflict(t *testing.T) {
	repo := &mockRepo{err: storage.ErrInsufficientHoldings}
	r := setupRouterWithMocks(repo, &mockKlines{})

	req := httptest.NewRequest(http.MethodPost, "/transactions/sell", strings.NewReader(validBuy))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if repo.sells != 1 {
		t.Fatalf("expected one sell attempt, got %d", repo.sells)
	}
}

func TestListEndpoints(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{name: "transactions ok", path: "/transactions?accountId=acc-1", status: http.StatusOK},
		{name: "transactions missing account", path: "/transactions", status: http.StatusBadRequest},
		{name: "portfolios ok", path: "/portfolios?accountId=acc-1", status: http.StatusOK},
		{name: "portfolios missing account", path: "/portfolios?accountId=", status: http.StatusBadRequest},
		{name: "portfolios storage down", path: "/portfolios?accountId=acc-1", err: errors.New("down"), status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouterWithMocks(&mockRepo{err: tc.err}, &mockKlines{})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetKlines_TableDriven(t *testing.T) {
	open := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	kline := models.NewKlineData(open, open.Add(24*time.Hour-time.Millisecond))
	kline.Prices[models.EUR] = models.PriceData{
		Open:  decimal.NewFromInt(40000),
		High:  decimal.NewFromInt(41000),
		Low:   decimal.NewFromInt(39000),
		Close: decimal.NewFromInt(40500),
	}

	cases := []struct {
		name   string
		svc    *mockKlines
		status int
		assert func(t *testing.T, body []byte)
	}{
		{
			name:   "success",
			svc:    &mockKlines{out: map[string]models.KlineData{"BTC": kline}},
			status: http.StatusOK,
			assert: func(t *testing.T, body []byte) {
				var out map[string]map[string]any
				if err := json.Unmarshal(body, &out); err != nil {
					t.Fatalf("invalid json: %v", err)
				}
				eur, ok := out["BTC"]["EUR"].(map[string]any)
				if !ok || eur["prixFermeture"] != float64(40500) {
					t.Fatalf("unexpected body: %s", body)
				}
			},
		},
		{
			name:   "no data is an empty object",
			svc:    &mockKlines{out: map[string]models.KlineData{}},
			status: http.StatusOK,
			assert: func(t *testing.T, body []byte) {
				if string(body) != "{}" {
					t.Fatalf("want {}, got %s", body)
				}
			},
		},
		{name: "validation", svc: &mockKlines{err: &validation.Error{Kind: validation.ErrMissingField, Message: "missing required field: crypto", Status: 400}}, status: http.StatusBadRequest},
		{name: "bad date", svc: &mockKlines{err: pricing.ErrInvalidDate}, status: http.StatusBadRequest},
		{name: "too many symbols", svc: &mockKlines{err: pricing.ErrTooManySymbols}, status: http.StatusBadRequest},
		{name: "upstream", svc: &mockKlines{err: errors.New("tls handshake timeout")}, status: http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouterWithMocks(&mockRepo{}, tc.svc)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/klines?crypto=BTC&date=2024-01-15", nil))
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			if tc.assert != nil {
				tc.assert(t, w.Body.Bytes())
			}
		})
	}
}
