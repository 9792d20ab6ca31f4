package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/guttosm/cryptofolio/internal/domain/models"
	"github.com/guttosm/cryptofolio/internal/service"
	"github.com/guttosm/cryptofolio/internal/validation"
)

const sourceImport = "importTransactions"

// expectedHeaders enforces strict column ordering for ledger exports.
// A header that differs in order or count fails the whole file.
var expectedHeaders = []string{
	"accountId",
	"cryptoId",
	"montantEUR",
	"prixUnitaire",
	"quantiteCrypto",
	"date",
	"type",
}

// parseFile opens, validates and parses one ledger file.
//
// Every row goes through the same body rules as POST /transactions/buy and
// must carry a type of ACHAT or VENTE. The first bad row fails the file,
// so a file is imported completely or not at all.
//
// Parameters:
//   - ctx:  context for cancellation.
//   - path: file path.
//
// Returns:
//   - []models.Transaction: rows in file order.
//   - error: header, structure or row validation failure.
func parseFile(ctx context.Context, path string) ([]models.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	return parse(ctx, f)
}

func parse(ctx context.Context, in io.Reader) ([]models.Transaction, error) {
	r := csv.NewReader(in)
	r.Comma = ';'
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1 // checked explicitly for a better message

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(expectedHeaders) {
		return nil, fmt.Errorf("invalid header length: expected %d, got %d", len(expectedHeaders), len(header))
	}
	for i, h := range header {
		// Spreadsheet exports often start with a UTF-8 BOM.
		if strings.TrimPrefix(strings.TrimSpace(h), "\ufeff") != expectedHeaders[i] {
			return nil, fmt.Errorf("invalid header at col %d: expected %q, got %q", i+1, expectedHeaders[i], h)
		}
	}

	var out []models.Transaction
	lineNumber := 1

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line after %d: %w", lineNumber, err)
		}
		lineNumber++

		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) != len(expectedHeaders) {
			return nil, fmt.Errorf("invalid column count on line %d: expected %d got %d", lineNumber, len(expectedHeaders), len(rec))
		}

		tx, err := recordToTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		out = append(out, tx)
	}

	return out, nil
}

// recordToTransaction maps one record (length already checked) onto a
// ledger entry. Amounts accept a decimal comma as written by French
// spreadsheets.
func recordToTransaction(rec []string) (models.Transaction, error) {
	body := make(map[string]any, len(expectedHeaders)-1)
	for i, name := range expectedHeaders[:len(expectedHeaders)-1] {
		v := strings.TrimSpace(rec[i])
		switch name {
		case "montantEUR", "prixUnitaire", "quantiteCrypto":
			v = strings.ReplaceAll(v, ",", ".")
		}
		if v != "" {
			body[name] = v
		}
	}

	values, err := validation.ValidateBody(body, service.TransactionBody, sourceImport)
	if err != nil {
		return models.Transaction{}, err
	}

	typ := models.TransactionType(strings.ToUpper(strings.TrimSpace(rec[len(rec)-1])))
	if !typ.Valid() {
		return models.Transaction{}, fmt.Errorf("invalid type %q: expected %s or %s", rec[len(rec)-1], models.TransactionBuy, models.TransactionSell)
	}

	return service.NewTransaction(values, typ), nil
}
