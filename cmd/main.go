package main

//
//  @title           cryptofolio API
//  @version         1.0
//  @description     Crypto portfolio tracker: ledger of buys and sells, holdings, daily prices.
//  @termsOfService  https://github.com/guttosm/cryptofolio
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/cryptofolio
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        transactions
//  @tag.description Buy and sell crypto, browse the ledger
//
//  @tag.name        portfolios
//  @tag.description Holdings per account
//
//  @tag.name        klines
//  @tag.description Daily price history in EUR or a fallback quote currency
//
//  @tag.name        health
//  @tag.description Liveness and readiness checks

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/cryptofolio/config"
	_ "github.com/guttosm/cryptofolio/docs" // swagger docs
	"github.com/guttosm/cryptofolio/internal/app"
	"github.com/guttosm/cryptofolio/internal/importer"
	"github.com/guttosm/cryptofolio/internal/logger"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// runImport opens the configured storage, imports the ledger files of dir
// and releases the storage before returning.
func runImport(ctx context.Context, cfg config.Config, dir string, parallel int, force bool) error {
	repo, cleanup, err := app.OpenRepository(cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer cleanup()

	return importer.ProcessDirectory(ctx, dir, repo, parallel, force)
}

// main is the entry point of the cryptofolio application.
//
// Modes (selected via --mode flag):
//   - api:     Starts the REST API (transactions, portfolios, klines).
//   - import:  Loads the *.csv ledger files of --dir into storage.
//   - migrate: Applies the embedded database migrations and exits.
//
// Flags:
//   - --mode:     Execution mode ("api", "import" or "migrate"). Default: "api".
//   - --dir:      Directory containing .csv ledger files. Default: "./data/import".
//   - --parallel: Files imported concurrently (0 = auto).
//   - --force:    Import again files already present in the import log.
//   - --port:     Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	// Parse CLI flags (override config defaults if provided)
	mode := flag.String("mode", "api", "Mode: api, import or migrate")
	dir := flag.String("dir", "./data/import", "Directory with .csv ledger files")
	parallel := flag.Int("parallel", 0, "How many files to import concurrently (0=auto up to CPU, max 8)")
	force := flag.Bool("force", false, "Import files again even if already recorded in the import log")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "import":
		logger.L().Info().Msg("running import")

		if err := runImport(ctx, config.AppConfig, *dir, *parallel, *force); err != nil {
			logger.L().Fatal().Err(err).Msg("import failed")
		}
		logger.L().Info().Msg("import completed successfully")

	case "migrate":
		logger.L().Info().Msg("running migrations")
		if err := app.Migrate(ctx, config.AppConfig); err != nil {
			logger.L().Fatal().Err(err).Msg("migration failed")
		}
		logger.L().Info().Msg("migrations applied")

	case "api":
		// API mode: start the HTTP server
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
