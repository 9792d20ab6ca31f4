package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/cryptofolio/config"
	"github.com/guttosm/cryptofolio/internal/api"
	"github.com/guttosm/cryptofolio/internal/binance"
	"github.com/guttosm/cryptofolio/internal/fx"
	"github.com/guttosm/cryptofolio/internal/logger"
	"github.com/guttosm/cryptofolio/internal/middleware"
	"github.com/guttosm/cryptofolio/internal/pricing"
	"github.com/guttosm/cryptofolio/internal/service"
	"github.com/guttosm/cryptofolio/internal/storage"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Opens the repository selected by STORAGE_DRIVER (OpenRepository).
//   - Builds the Binance client, the USDT/EUR converter and the kline aggregator.
//   - Creates the service and HTTP handler layers.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness checks.
//   - Provides a cleanup function to close resources (e.g., DB connection).
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	repo, cleanup, err := OpenRepository(cfg)
	if err != nil {
		return nil, nil, err
	}

	// Price history: one exchange client serves the klines and the fx rates
	client := binance.NewClient(cfg.Binance.BaseURL, cfg.Binance.Timeout)
	converter := fx.NewConverter(client, cfg.Klines.FXCacheTTL)
	aggregator := pricing.NewAggregator(client, converter, cfg.Klines.Fiats)
	klines := pricing.NewKlineService(aggregator, cfg.Klines.Parallel)

	txs := service.NewTransactionService(repo)

	middleware.SetRateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	handler := api.NewHandler(txs, klines)
	router := api.NewRouter(handler, cfg.Server.RequestTimeout)

	api.NewHealthHandler(repo.Ping, cfg.Storage.Driver).Register(router)

	logger.Source("app", "initialize").Info().
		Str("storage", cfg.Storage.Driver).
		Strs("fiats", currencyCodes(aggregator)).
		Msg("application wired")

	return router, cleanup, nil
}

// OpenRepository returns the repository selected by cfg.Storage.Driver and
// the function releasing it.
func OpenRepository(cfg config.Config) (storage.Repository, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return storage.NewMemoryRepository(), func() {}, nil
	case config.DriverPostgres, "":
		// indirection for unit testing
		db, err := postgresOpener(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		return storage.NewPostgresRepository(db), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Migrate applies the embedded migrations to the configured Postgres database.
func Migrate(ctx context.Context, cfg config.Config) error {
	db, err := postgresOpener(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize postgres: %w", err)
	}
	defer func() { _ = db.Close() }()
	return migrator(ctx, db)
}

func currencyCodes(a *pricing.Aggregator) []string {
	out := []string{"EUR"}
	for _, c := range a.Fallbacks() {
		out = append(out, string(c))
	}
	return out
}
