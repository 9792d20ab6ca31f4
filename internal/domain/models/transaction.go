package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are rendered as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// TransactionType tags a ledger entry as a buy or a sell.
type TransactionType string

const (
	TransactionBuy  TransactionType = "ACHAT"
	TransactionSell TransactionType = "VENTE"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionBuy || t == TransactionSell
}

// Transaction is an append-only ledger entry for one account and one crypto.
//
// Fields:
//   - ID: server generated identifier (UUID v4).
//   - AccountID / CryptoID: owner account and asset (e.g. "bitcoin").
//   - MontantEUR: total amount paid or received, in EUR.
//   - PrixUnitaire: unit price of the asset at the time of the operation.
//   - QuantiteCrypto: quantity bought or sold (always positive).
//   - Date: business date of the operation.
//   - Type: ACHAT (buy) or VENTE (sell).
//
// swagger:model Transaction
type Transaction struct {
	ID             string          `json:"id" example:"3f1c2a9e-7c1b-4d55-9a43-0b1f5f0f5a11"`
	AccountID      string          `json:"accountId" example:"acc-42"`
	CryptoID       string          `json:"cryptoId" example:"bitcoin"`
	MontantEUR     decimal.Decimal `json:"montantEUR" swaggertype:"number" example:"250.50"`
	PrixUnitaire   decimal.Decimal `json:"prixUnitaire" swaggertype:"number" example:"41750.00"`
	QuantiteCrypto decimal.Decimal `json:"quantiteCrypto" swaggertype:"number" example:"0.006"`
	Date           time.Time       `json:"date" example:"2024-01-15T00:00:00Z"`
	Type           TransactionType `json:"type" example:"ACHAT"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// SignedQuantity returns the quantity with the sign it contributes to the
// holding: positive for a buy, negative for a sell.
func (t Transaction) SignedQuantity() decimal.Decimal {
	if t.Type == TransactionSell {
		return t.QuantiteCrypto.Neg()
	}
	return t.QuantiteCrypto
}

// Portfolio is the aggregated holding of one crypto for one account.
// Quantity always equals the sum of the signed quantities of the matching
// transactions.
//
// swagger:model Portfolio
type Portfolio struct {
	AccountID string          `json:"accountId" example:"acc-42"`
	CryptoID  string          `json:"cryptoId" example:"bitcoin"`
	Quantity  decimal.Decimal `json:"quantity" swaggertype:"number" example:"0.012"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
