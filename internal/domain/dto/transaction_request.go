package dto

// TransactionRequest documents the JSON body accepted by
// POST /transactions/buy and POST /transactions/sell.
//
// Decoding and validation are schema driven (see internal/validation); this
// struct only feeds the swagger documentation.
type TransactionRequest struct {
	AccountID      string  `json:"accountId" example:"acc-42"`
	CryptoID       string  `json:"cryptoId" example:"bitcoin"`
	MontantEUR     float64 `json:"montantEUR" example:"250.50"`
	PrixUnitaire   float64 `json:"prixUnitaire" example:"41750.00"`
	QuantiteCrypto float64 `json:"quantiteCrypto" example:"0.006"`
	Date           string  `json:"date" example:"2024-01-15"`
}
