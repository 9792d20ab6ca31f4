// Package service holds the transaction use cases: validate the request
// against its schema, then hand a normalized ledger entry to the repository.
package service

import (
	"context"
	"net/http"

	"github.com/guttosm/cryptofolio/internal/domain/models"
	"github.com/guttosm/cryptofolio/internal/logger"
	"github.com/guttosm/cryptofolio/internal/storage"
	"github.com/guttosm/cryptofolio/internal/validation"
)

// TransactionBody is the body contract shared by buys, sells and imported rows.
var TransactionBody = []validation.Field{
	{Name: "accountId", Rule: validation.Required(validation.String)},
	{Name: "cryptoId", Rule: validation.Required(validation.String)},
	{Name: "montantEUR", Rule: validation.Required(validation.Number)},
	{Name: "prixUnitaire", Rule: validation.Required(validation.Number)},
	{Name: "quantiteCrypto", Rule: validation.Required(validation.PositiveNumber)},
	{Name: "date", Rule: validation.Required(validation.Date)},
}

var (
	BuySchema = validation.Schema{
		Methods: []string{http.MethodPost},
		Body:    TransactionBody,
	}
	SellSchema = validation.Schema{
		Methods: []string{http.MethodPost},
		Body:    TransactionBody,
	}
	ListTransactionsSchema = validation.Schema{
		Methods: []string{http.MethodGet},
		Query: []validation.Field{
			{Name: "accountId", Rule: validation.Required(validation.String)},
			{Name: "cryptoId", Rule: validation.Optional(validation.String)},
		},
	}
	ListPortfoliosSchema = validation.Schema{
		Methods: []string{http.MethodGet},
		Query: []validation.Field{
			{Name: "accountId", Rule: validation.Required(validation.String)},
		},
	}
)

// Source names tag the log lines of each endpoint.
const (
	sourceBuy              = "buyTransaction"
	sourceSell             = "sellTransaction"
	sourceListTransactions = "listTransactions"
	sourceListPortfolios   = "listPortfolios"
)

// TransactionService defines the business operations behind /transactions
// and /portfolios. Validation failures are returned as *validation.Error,
// a sell above the holding as storage.ErrInsufficientHoldings.
type TransactionService interface {
	Buy(ctx context.Context, req validation.Request) (models.Transaction, error)
	Sell(ctx context.Context, req validation.Request) (models.Transaction, error)
	ListTransactions(ctx context.Context, req validation.Request) ([]models.Transaction, error)
	ListPortfolios(ctx context.Context, req validation.Request) ([]models.Portfolio, error)
}

type transactionService struct {
	repo storage.Repository
}

func NewTransactionService(repo storage.Repository) TransactionService {
	return &transactionService{repo: repo}
}

// NewTransaction maps validated body values onto a ledger entry of type typ.
func NewTransaction(body validation.Values, typ models.TransactionType) models.Transaction {
	return models.Transaction{
		AccountID:      body.String("accountId"),
		CryptoID:       body.String("cryptoId"),
		MontantEUR:     body.Decimal("montantEUR"),
		PrixUnitaire:   body.Decimal("prixUnitaire"),
		QuantiteCrypto: body.Decimal("quantiteCrypto"),
		Date:           body.Time("date"),
		Type:           typ,
	}
}

func (s *transactionService) Buy(ctx context.Context, req validation.Request) (models.Transaction, error) {
	data, err := validation.Validate(req, BuySchema, sourceBuy)
	if err != nil {
		return models.Transaction{}, err
	}
	out, err := s.repo.CreateBuy(ctx, NewTransaction(data.Body, models.TransactionBuy))
	if err != nil {
		logger.Source(sourceBuy, "createTransaction").Error().Err(err).Msg("persisting buy failed")
		return models.Transaction{}, err
	}
	return out, nil
}

func (s *transactionService) Sell(ctx context.Context, req validation.Request) (models.Transaction, error) {
	data, err := validation.Validate(req, SellSchema, sourceSell)
	if err != nil {
		return models.Transaction{}, err
	}
	out, err := s.repo.CreateSell(ctx, NewTransaction(data.Body, models.TransactionSell))
	if err != nil {
		logger.Source(sourceSell, "createTransaction").Error().Err(err).Msg("persisting sell failed")
		return models.Transaction{}, err
	}
	return out, nil
}

func (s *transactionService) ListTransactions(ctx context.Context, req validation.Request) ([]models.Transaction, error) {
	data, err := validation.Validate(req, ListTransactionsSchema, sourceListTransactions)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, data.Query.String("accountId"), data.Query.String("cryptoId"))
}

func (s *transactionService) ListPortfolios(ctx context.Context, req validation.Request) ([]models.Portfolio, error) {
	data, err := validation.Validate(req, ListPortfoliosSchema, sourceListPortfolios)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPortfolios(ctx, data.Query.String("accountId"))
}
