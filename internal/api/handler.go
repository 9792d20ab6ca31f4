package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/cryptofolio/internal/domain/dto"
	"github.com/guttosm/cryptofolio/internal/middleware"
	"github.com/guttosm/cryptofolio/internal/pricing"
	"github.com/guttosm/cryptofolio/internal/service"
	"github.com/guttosm/cryptofolio/internal/storage"
	"github.com/guttosm/cryptofolio/internal/validation"
)

// Message returned when a buy or sell cannot be persisted.
const createTransactionFailed = "Erreur lors de la création de la transaction"

// Handler provides the HTTP handlers for transactions, holdings and klines.
//
// Responsibilities:
//   - Hand the raw request to the service, which validates it against the
//     endpoint schema
//   - Translate service errors into HTTP statuses
//   - Return structured JSON responses
type Handler struct {
	tx     service.TransactionService
	klines pricing.KlineService
}

// NewHandler constructs a new Handler instance.
//
// Parameters:
//   - tx (service.TransactionService): buys, sells and listings.
//   - klines (pricing.KlineService): daily price history.
//
// Returns:
//   - *Handler: A handler ready to be registered with the router.
func NewHandler(tx service.TransactionService, klines pricing.KlineService) *Handler {
	return &Handler{tx: tx, klines: klines}
}

// Buy handles /transactions/buy. Only POST is accepted; other methods are
// answered 405 by the request validator.
//
// Buy godoc
// @Summary      Record a buy
// @Description  Records an ACHAT transaction and increments the account holding in one database transaction
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        body  body      dto.TransactionRequest  true  "Transaction"
// @Success      201   {object}  models.Transaction      "Created"
// @Failure      400   {object}  dto.ErrorResponse       "Bad Request"
// @Failure      405   {object}  dto.ErrorResponse       "Method Not Allowed"
// @Failure      500   {object}  dto.ErrorResponse       "Internal Error"
// @Router       /transactions/buy [post]
func (h *Handler) Buy(c *gin.Context) {
	out, err := h.tx.Buy(c.Request.Context(), validation.FromHTTP(c.Request))
	if err != nil {
		writeTransactionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// Sell handles /transactions/sell.
//
// Sell godoc
// @Summary      Record a sell
// @Description  Records a VENTE transaction and decrements the account holding; rejected when the holding is too small
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        body  body      dto.TransactionRequest  true  "Transaction"
// @Success      201   {object}  models.Transaction      "Created"
// @Failure      400   {object}  dto.ErrorResponse       "Bad Request"
// @Failure      405   {object}  dto.ErrorResponse       "Method Not Allowed"
// @Failure      409   {object}  dto.ErrorResponse       "Insufficient holdings"
// @Failure      500   {object}  dto.ErrorResponse       "Internal Error"
// @Router       /transactions/sell [post]
func (h *Handler) Sell(c *gin.Context) {
	out, err := h.tx.Sell(c.Request.Context(), validation.FromHTTP(c.Request))
	if err != nil {
		writeTransactionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func writeTransactionError(c *gin.Context, err error) {
	var ve *validation.Error
	switch {
	case errors.As(err, &ve):
		c.JSON(validation.StatusOf(err), dto.NewErrorResponse(ve.Message, nil))
	case errors.Is(err, storage.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err.Error(), nil))
	case errors.Is(err, storage.ErrInsufficientHoldings):
		middleware.AbortWithError(c, http.StatusConflict, "insufficient holdings", err)
	default:
		middleware.AbortWithError(c, http.StatusInternalServerError, createTransactionFailed, err)
	}
}

// ListTransactions handles GET /transactions.
//
// ListTransactions godoc
// @Summary      List transactions
// @Description  Returns the ledger of an account, newest first, optionally restricted to one crypto
// @Tags         transactions
// @Produce      json
// @Param        accountId  query     string  true   "Account id" example(acc-42)
// @Param        cryptoId   query     string  false  "Crypto id" example(bitcoin)
// @Success      200        {array}   models.Transaction
// @Failure      400        {object}  dto.ErrorResponse  "Bad Request"
// @Failure      500        {object}  dto.ErrorResponse  "Internal Error"
// @Router       /transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	out, err := h.tx.ListTransactions(c.Request.Context(), validation.FromHTTP(c.Request))
	if err != nil {
		writeQueryError(c, err, "failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, out)
}

// ListPortfolios handles GET /portfolios.
//
// ListPortfolios godoc
// @Summary      List holdings
// @Description  Returns the holdings of an account ordered by crypto
// @Tags         portfolios
// @Produce      json
// @Param        accountId  query     string  true  "Account id" example(acc-42)
// @Success      200        {array}   models.Portfolio
// @Failure      400        {object}  dto.ErrorResponse  "Bad Request"
// @Failure      500        {object}  dto.ErrorResponse  "Internal Error"
// @Router       /portfolios [get]
func (h *Handler) ListPortfolios(c *gin.Context) {
	out, err := h.tx.ListPortfolios(c.Request.Context(), validation.FromHTTP(c.Request))
	if err != nil {
		writeQueryError(c, err, "failed to list portfolios")
		return
	}
	c.JSON(http.StatusOK, out)
}

func writeQueryError(c *gin.Context, err error, message string) {
	var ve *validation.Error
	if errors.As(err, &ve) {
		c.JSON(validation.StatusOf(err), dto.NewErrorResponse(ve.Message, nil))
		return
	}
	middleware.AbortWithError(c, http.StatusInternalServerError, message, err)
}

// GetKlines handles GET /klines.
//
// Symbols without data on any quote currency are left out of the response,
// so an empty object is a valid 200.
//
// GetKlines godoc
// @Summary      Daily price of cryptos
// @Description  Returns the daily kline of each symbol, in EUR when listed, else from the first fallback quote currency (USDT also gets a converted EUR block)
// @Tags         klines
// @Produce      json
// @Param        crypto  query     string  true  "Symbol or comma separated symbols (at most 20)" example(BTC,ETH)
// @Param        date    query     string  true  "Day in YYYY-MM-DD" example(2024-01-15)
// @Success      200     {object}  map[string]models.KlineData
// @Failure      400     {object}  dto.ErrorResponse  "Bad Request"
// @Failure      502     {object}  dto.ErrorResponse  "Upstream failure"
// @Router       /klines [get]
func (h *Handler) GetKlines(c *gin.Context) {
	out, err := h.klines.GetKlines(c.Request.Context(), c.Query("crypto"), c.Query("date"))
	if err != nil {
		var ve *validation.Error
		switch {
		case errors.As(err, &ve):
			c.JSON(validation.StatusOf(err), dto.NewErrorResponse(ve.Message, nil))
		case errors.Is(err, pricing.ErrInvalidDate), errors.Is(err, pricing.ErrInvalidSymbol), errors.Is(err, pricing.ErrTooManySymbols):
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err.Error(), nil))
		default:
			middleware.AbortWithError(c, http.StatusBadGateway, "failed to fetch klines", err)
		}
		return
	}
	c.JSON(http.StatusOK, out)
}
