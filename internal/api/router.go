package api

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/cryptofolio/internal/middleware"
)

// DefaultRequestTimeout bounds each request when the router is built with a
// zero timeout.
const DefaultRequestTimeout = 10 * time.Second

// NewRouter creates a Gin engine with routes configured.
// It receives a Handler instance with all business logic already injected.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, ErrorHandler, RateLimiter).
//   - Bounds every request context with timeout.
//   - Mounts Swagger docs (/swagger/*any).
//   - Configures the transaction, portfolio and kline routes.
//
// The buy and sell routes accept any method so that the request validator
// answers 405 itself, with the usual JSON error body.
//
// Note:
//   - Health and readiness endpoints (/healthz, /readyz) are registered in app.InitializeApp().
func NewRouter(handler *Handler, timeout time.Duration) *gin.Engine {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	router := gin.New()

	// ─── Middlewares ───────────────────────────────
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(),
		middleware.Timeout(timeout),
	)

	// ─── Swagger ──────────────────────────────────
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ─── Transactions ─────────────────────────────
	tx := router.Group("/transactions")
	{
		tx.Any("/buy", handler.Buy)
		tx.Any("/sell", handler.Sell)
		tx.GET("", handler.ListTransactions)
	}

	router.GET("/portfolios", handler.ListPortfolios)
	router.GET("/klines", handler.GetKlines)

	return router
}
