//go:build integration
// +build integration

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guttosm/cryptofolio/db"
	"github.com/guttosm/cryptofolio/internal/domain/models"
)

// startPostgres spins up a Postgres container and returns a DSN and terminate func.
func startPostgres(t *testing.T) (dsn string, terminate func()) {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "cryptofolio",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(host string, port nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=cryptofolio sslmode=disable", host, port.Port())
		}).WithStartupTimeout(60 * time.Second),
	}

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container start: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", "postgres", "postgres", host, port.Port(), "cryptofolio")
	terminate = func() { _ = container.Terminate(context.Background()) }
	return dsn, terminate
}

func openDB(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	return conn
}

func TestRepository_Integration(t *testing.T) {
	dsn, terminate := startPostgres(t)
	defer terminate()
	conn := openDB(t, dsn)
	defer conn.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := NewPostgresRepository(conn)

	buy := func(qty string) models.Transaction {
		return models.Transaction{
			AccountID:      "acc-1",
			CryptoID:       "bitcoin",
			MontantEUR:     decimal.RequireFromString("100"),
			PrixUnitaire:   decimal.RequireFromString("40000"),
			QuantiteCrypto: decimal.RequireFromString(qty),
			Date:           time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		}
	}

	t.Run("concurrent buys sum up", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := repo.CreateBuy(ctx, buy("0.1")); err != nil {
					t.Errorf("buy: %v", err)
				}
			}()
		}
		wg.Wait()

		holdings, err := repo.ListPortfolios(ctx, "acc-1")
		if err != nil || len(holdings) != 1 {
			t.Fatalf("holdings=%+v err=%v", holdings, err)
		}
		if !holdings[0].Quantity.Equal(decimal.NewFromInt(2)) {
			t.Fatalf("want quantity 2, got %s", holdings[0].Quantity)
		}
	})

	t.Run("sell beyond holdings is rejected", func(t *testing.T) {
		_, err := repo.CreateSell(ctx, buy("5"))
		if !errors.Is(err, ErrInsufficientHoldings) {
			t.Fatalf("want ErrInsufficientHoldings, got %v", err)
		}
		if _, err := repo.CreateSell(ctx, buy("0.5")); err != nil {
			t.Fatalf("sell: %v", err)
		}
	})

	t.Run("import batch and ledger invariant", func(t *testing.T) {
		sell := buy("0.25")
		sell.Type = models.TransactionSell
		in := buy("1")
		in.Type = models.TransactionBuy
		if err := repo.ImportBatch(ctx, "ledger.csv", []models.Transaction{in, sell}); err != nil {
			t.Fatalf("import: %v", err)
		}
		ok, err := repo.HasImport(ctx, "ledger.csv")
		if err != nil || !ok {
			t.Fatalf("HasImport ok=%v err=%v", ok, err)
		}

		ledger, err := repo.ListTransactions(ctx, "acc-1", "bitcoin")
		if err != nil {
			t.Fatalf("ledger: %v", err)
		}
		sum := decimal.Zero
		for _, tx := range ledger {
			sum = sum.Add(tx.SignedQuantity())
		}
		holdings, err := repo.ListPortfolios(ctx, "acc-1")
		if err != nil || len(holdings) != 1 {
			t.Fatalf("holdings=%+v err=%v", holdings, err)
		}
		if !holdings[0].Quantity.Equal(sum) {
			t.Fatalf("holding %s != ledger sum %s", holdings[0].Quantity, sum)
		}
		// 2 - 0.5 + 1 - 0.25
		if !sum.Equal(decimal.RequireFromString("2.25")) {
			t.Fatalf("want 2.25, got %s", sum)
		}
	})
}
