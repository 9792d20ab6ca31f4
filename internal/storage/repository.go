package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	pq "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/guttosm/cryptofolio/internal/domain/models"
)

// ErrInsufficientHoldings is returned by CreateSell when the account does not
// hold enough of the crypto being sold.
var ErrInsufficientHoldings = errors.New("insufficient holdings")

// ErrInvalidQuantity is returned for a ledger entry whose quantity is not
// strictly positive. Nothing is written.
var ErrInvalidQuantity = errors.New("quantity must be positive")

// Repository defines the contract for ledger and holdings persistence.
//
// Every write keeps portfolios.quantity equal to the sum of the signed
// quantities of the matching transactions: the ledger row and the holding
// change are committed together or not at all.
type Repository interface {
	CreateBuy(ctx context.Context, t models.Transaction) (models.Transaction, error)
	CreateSell(ctx context.Context, t models.Transaction) (models.Transaction, error)
	ListTransactions(ctx context.Context, accountID, cryptoID string) ([]models.Transaction, error)
	ListPortfolios(ctx context.Context, accountID string) ([]models.Portfolio, error)
	ImportBatch(ctx context.Context, filename string, txs []models.Transaction) error
	HasImport(ctx context.Context, filename string) (bool, error)
	Ping(ctx context.Context) error
}

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a Repository backed by db.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

// newID is swapped in tests to get deterministic ids.
var newID = func() string { return uuid.NewString() }

const insertTransaction = `
	INSERT INTO transactions (id, account_id, crypto_id, montant_eur, prix_unitaire, quantite_crypto, date, type)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at`

const upsertPortfolio = `
	INSERT INTO portfolios (account_id, crypto_id, quantity, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (account_id, crypto_id)
	DO UPDATE SET quantity = portfolios.quantity + EXCLUDED.quantity,
				  updated_at = NOW()`

// CreateBuy records an ACHAT and increments (or creates) the holding in a
// single database transaction.
func (r *postgresRepository) CreateBuy(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if !t.QuantiteCrypto.IsPositive() {
		return models.Transaction{}, ErrInvalidQuantity
	}
	t.Type = models.TransactionBuy
	t.ID = newID()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Transaction{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertLedgerRow(ctx, tx, &t); err != nil {
		return models.Transaction{}, err
	}
	if _, err := tx.ExecContext(ctx, upsertPortfolio, t.AccountID, t.CryptoID, t.QuantiteCrypto); err != nil {
		return models.Transaction{}, fmt.Errorf("upsert portfolio: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Transaction{}, err
	}
	return t, nil
}

// CreateSell records a VENTE and decrements the holding. The holding row is
// locked first; a missing or too small holding yields ErrInsufficientHoldings
// and nothing is written.
func (r *postgresRepository) CreateSell(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if !t.QuantiteCrypto.IsPositive() {
		return models.Transaction{}, ErrInvalidQuantity
	}
	t.Type = models.TransactionSell
	t.ID = newID()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Transaction{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var held decimal.Decimal
	err = tx.QueryRowContext(ctx,
		`SELECT quantity FROM portfolios WHERE account_id = $1 AND crypto_id = $2 FOR UPDATE`,
		t.AccountID, t.CryptoID,
	).Scan(&held)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.Transaction{}, ErrInsufficientHoldings
	case err != nil:
		return models.Transaction{}, fmt.Errorf("lock portfolio: %w", err)
	}
	if held.LessThan(t.QuantiteCrypto) {
		return models.Transaction{}, ErrInsufficientHoldings
	}

	if err := insertLedgerRow(ctx, tx, &t); err != nil {
		return models.Transaction{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE portfolios SET quantity = quantity - $3, updated_at = NOW() WHERE account_id = $1 AND crypto_id = $2`,
		t.AccountID, t.CryptoID, t.QuantiteCrypto,
	); err != nil {
		return models.Transaction{}, fmt.Errorf("decrement portfolio: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Transaction{}, err
	}
	return t, nil
}

func insertLedgerRow(ctx context.Context, tx *sql.Tx, t *models.Transaction) error {
	err := tx.QueryRowContext(ctx, insertTransaction,
		t.ID,
		t.AccountID,
		t.CryptoID,
		t.MontantEUR,
		t.PrixUnitaire,
		t.QuantiteCrypto,
		t.Date,
		string(t.Type),
	).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListTransactions returns the ledger of accountID, newest first. An empty
// cryptoID means every crypto.
func (r *postgresRepository) ListTransactions(ctx context.Context, accountID, cryptoID string) ([]models.Transaction, error) {
	query := `
		SELECT id, account_id, crypto_id, montant_eur, prix_unitaire, quantite_crypto, date, type, created_at
		FROM transactions
		WHERE account_id = $1`
	args := []interface{}{accountID}
	if cryptoID != "" {
		query += ` AND crypto_id = $2`
		args = append(args, cryptoID)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Transaction{}
	for rows.Next() {
		var (
			t   models.Transaction
			typ string
		)
		if err := rows.Scan(
			&t.ID,
			&t.AccountID,
			&t.CryptoID,
			&t.MontantEUR,
			&t.PrixUnitaire,
			&t.QuantiteCrypto,
			&t.Date,
			&typ,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		t.Type = models.TransactionType(typ)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListPortfolios returns the holdings of accountID ordered by crypto.
func (r *postgresRepository) ListPortfolios(ctx context.Context, accountID string) ([]models.Portfolio, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT account_id, crypto_id, quantity, updated_at
		FROM portfolios
		WHERE account_id = $1
		ORDER BY crypto_id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Portfolio{}
	for rows.Next() {
		var p models.Portfolio
		if err := rows.Scan(&p.AccountID, &p.CryptoID, &p.Quantity, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ImportBatch bulk loads txs from one file in a single database transaction:
// ledger rows through COPY, one portfolio upsert per (account, crypto) with
// the signed total of the batch, and the import_log entry for filename.
func (r *postgresRepository) ImportBatch(ctx context.Context, filename string, txs []models.Transaction) error {
	for _, t := range txs {
		if !t.QuantiteCrypto.IsPositive() {
			return ErrInvalidQuantity
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Small optimization for bulk load
	if _, err := tx.ExecContext(ctx, `SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return err
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"transactions",
		"id",
		"account_id",
		"crypto_id",
		"montant_eur",
		"prix_unitaire",
		"quantite_crypto",
		"date",
		"type",
	))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, t := range txs {
		if _, err := stmt.ExecContext(ctx,
			newID(),
			t.AccountID,
			t.CryptoID,
			t.MontantEUR.String(),
			t.PrixUnitaire.String(),
			t.QuantiteCrypto.String(),
			t.Date,
			string(t.Type),
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, h := range signedTotals(txs) {
		if _, err := tx.ExecContext(ctx, upsertPortfolio, h.AccountID, h.CryptoID, h.Quantity); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert portfolio %s/%s: %w", h.AccountID, h.CryptoID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO import_log (filename, row_count)
		VALUES ($1, $2)
		ON CONFLICT (filename)
		DO UPDATE SET row_count = EXCLUDED.row_count,
					  imported_at = NOW()
	`, filename, len(txs)); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// HasImport reports whether filename was already imported.
func (r *postgresRepository) HasImport(ctx context.Context, filename string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM import_log WHERE filename = $1)`, filename).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// signedTotals folds txs into one holding delta per (account, crypto), in
// order of first appearance.
func signedTotals(txs []models.Transaction) []models.Portfolio {
	index := make(map[[2]string]int)
	var out []models.Portfolio
	for _, t := range txs {
		key := [2]string{t.AccountID, t.CryptoID}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, models.Portfolio{AccountID: t.AccountID, CryptoID: t.CryptoID, Quantity: decimal.Zero})
		}
		out[i].Quantity = out[i].Quantity.Add(t.SignedQuantity())
	}
	return out
}

