package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/guttosm/cryptofolio/internal/domain/models"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	STORAGE_DRIVER=postgres
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=admin
//	POSTGRES_PASSWORD=secret
//	POSTGRES_DB=cryptofolio
//	POSTGRES_SSLMODE=disable
//	BINANCE_BASE_URL=https://api.binance.com/api/v3
//	BINANCE_TIMEOUT=10s
//	KLINE_FIATS=EUR,USDT,USDC
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Postgres  PostgresConfig
	Binance   BinanceConfig
	Klines    KlinesConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        // TCP port the HTTP server listens on (e.g., "8080")
	RequestTimeout time.Duration // upper bound of a single request
}

// StorageConfig selects the repository implementation.
type StorageConfig struct {
	Driver string // "postgres" or "memory"
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// BinanceConfig points the kline client at the exchange.
type BinanceConfig struct {
	BaseURL string
	Timeout time.Duration
}

// KlinesConfig drives the price history lookup.
//
// Fiats is the ordered fallback list; EUR is always tried first. Parallel
// bounds how many symbols of one request are resolved at once. FXCacheTTL
// is how long a USDT/EUR daily rate is reused (0 disables the cache).
type KlinesConfig struct {
	Fiats      []models.Currency
	Parallel   int
	FXCacheTTL time.Duration
}

// RateLimitConfig is the per client IP allowance of the API.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing or malformed, validateConfig() terminates
//     the app with a descriptive log message.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REQUEST_TIMEOUT", "10s")
	viper.SetDefault("STORAGE_DRIVER", DriverPostgres)

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "cryptofolio")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("BINANCE_BASE_URL", "https://api.binance.com/api/v3")
	viper.SetDefault("BINANCE_TIMEOUT", "10s")
	viper.SetDefault("KLINE_FIATS", "EUR,USDT,USDC")
	viper.SetDefault("KLINE_PARALLEL", 4)
	viper.SetDefault("FX_CACHE_TTL", "1h")

	viper.SetDefault("RATE_LIMIT_REQUESTS", 60)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	var problems []string
	fiats, err := ParseFiats(viper.GetString("KLINE_FIATS"))
	if err != nil {
		problems = append(problems, fmt.Sprintf("KLINE_FIATS: %v", err))
	}

	AppConfig = Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			RequestTimeout: viper.GetDuration("REQUEST_TIMEOUT"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(viper.GetString("STORAGE_DRIVER")),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Binance: BinanceConfig{
			BaseURL: strings.TrimRight(viper.GetString("BINANCE_BASE_URL"), "/"),
			Timeout: viper.GetDuration("BINANCE_TIMEOUT"),
		},
		Klines: KlinesConfig{
			Fiats:      fiats,
			Parallel:   viper.GetInt("KLINE_PARALLEL"),
			FXCacheTTL: viper.GetDuration("FX_CACHE_TTL"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   viper.GetDuration("RATE_LIMIT_WINDOW"),
		},
	}

	// Construct Postgres DSN (used by database/sql)
	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	validateConfig(problems...)
}

// ParseFiats parses an ordered, comma separated list of quote currencies.
// Blanks and duplicates are dropped; an unknown code is an error.
func ParseFiats(s string) ([]models.Currency, error) {
	codes := lo.Uniq(lo.Compact(lo.Map(strings.Split(s, ","), func(p string, _ int) string {
		return strings.ToUpper(strings.TrimSpace(p))
	})))
	if len(codes) == 0 {
		return nil, fmt.Errorf("empty currency list")
	}
	out := make([]models.Currency, 0, len(codes))
	for _, code := range codes {
		c, err := models.ParseCurrency(code)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing. Postgres settings are only required
// for the postgres driver.
func validateConfig(problems ...string) {
	missing := append([]string(nil), problems...)

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Binance.BaseURL == "" {
		missing = append(missing, "BINANCE_BASE_URL")
	}

	switch AppConfig.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if AppConfig.Postgres.Host == "" {
			missing = append(missing, "POSTGRES_HOST")
		}
		if AppConfig.Postgres.Port == 0 {
			missing = append(missing, "POSTGRES_PORT")
		}
		if AppConfig.Postgres.User == "" {
			missing = append(missing, "POSTGRES_USER")
		}
		if AppConfig.Postgres.Password == "" {
			missing = append(missing, "POSTGRES_PASSWORD")
		}
		if AppConfig.Postgres.DBName == "" {
			missing = append(missing, "POSTGRES_DB")
		}
	default:
		missing = append(missing, fmt.Sprintf("STORAGE_DRIVER (unknown %q)", AppConfig.Storage.Driver))
	}

	if len(missing) > 0 {
		log.Fatalf("❌ Missing or invalid environment variables: %v\n", missing)
	}
}
