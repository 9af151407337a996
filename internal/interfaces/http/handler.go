package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmanzanog/trade-journal/internal/domain"
)

// TradeService defines the trade operations exposed over HTTP.
type TradeService interface {
	ListTrades(ctx context.Context) ([]domain.Trade, error)
	GetTrade(ctx context.Context, id string) (*domain.Trade, error)
	CreateTrade(ctx context.Context, raw map[string]any) (*domain.Trade, error)
	UpdateTrade(ctx context.Context, id string, raw map[string]any) (*domain.Trade, error)
	DeleteTrade(ctx context.Context, id string) (*domain.Trade, error)
}

const tradeNotFoundMessage = "Trade not found"

type Handler struct {
	tradeService TradeService
	production   bool
}

func NewHandler(tradeService TradeService, production bool) *Handler {
	return &Handler{
		tradeService: tradeService,
		production:   production,
	}
}

func (h *Handler) ListTrades(c *gin.Context) {
	trades, err := h.tradeService.ListTrades(c.Request.Context())
	if err != nil {
		h.handleError(c, "Failed to list trades", "", err)
		return
	}

	c.JSON(http.StatusOK, trades)
}

func (h *Handler) GetTrade(c *gin.Context) {
	tradeID := c.Param("id")

	trade, err := h.tradeService.GetTrade(c.Request.Context(), tradeID)
	if err != nil {
		h.handleError(c, "Failed to get trade", tradeID, err)
		return
	}

	c.JSON(http.StatusOK, trade)
}

func (h *Handler) CreateTrade(c *gin.Context) {
	raw, ok := decodeBody(c)
	if !ok {
		return
	}

	trade, err := h.tradeService.CreateTrade(c.Request.Context(), raw)
	if err != nil {
		h.handleError(c, "Failed to create trade", "", err)
		return
	}

	success(c, http.StatusCreated, trade)
}

func (h *Handler) UpdateTrade(c *gin.Context) {
	tradeID := c.Param("id")

	raw, ok := decodeBody(c)
	if !ok {
		return
	}

	trade, err := h.tradeService.UpdateTrade(c.Request.Context(), tradeID, raw)
	if err != nil {
		h.handleError(c, "Failed to update trade", tradeID, err)
		return
	}

	success(c, http.StatusOK, trade)
}

func (h *Handler) DeleteTrade(c *gin.Context) {
	tradeID := c.Param("id")

	trade, err := h.tradeService.DeleteTrade(c.Request.Context(), tradeID)
	if err != nil {
		h.handleError(c, "Failed to delete trade", tradeID, err)
		return
	}

	success(c, http.StatusOK, trade)
}

func (h *Handler) handleError(c *gin.Context, msg, tradeID string, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		validationFailed(c, verr.Errors)
	case errors.Is(err, domain.ErrTradeNotFound):
		fail(c, http.StatusNotFound, tradeNotFoundMessage)
	default:
		slog.ErrorContext(c.Request.Context(), msg, "trade_id", tradeID, "error", err)
		internalError(c, h.production, err, "")
	}
}

// decodeBody reads the request body as a JSON object, keeping numbers as
// json.Number so decimal input is not rounded through float64.
func decodeBody(c *gin.Context) (map[string]any, bool) {
	var body any
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	err := dec.Decode(&body)
	if err == nil {
		if extra := dec.Decode(&struct{}{}); extra != io.EOF {
			err = errors.New("unexpected data after JSON value")
		}
	}
	if err != nil {
		slog.DebugContext(c.Request.Context(), "Invalid request body", "error", err)
		validationFailed(c, []domain.FieldError{{Field: "body", Message: `"body" must be valid JSON`}})
		return nil, false
	}

	raw, ok := body.(map[string]any)
	if !ok {
		validationFailed(c, []domain.FieldError{{Field: "body", Message: `"body" must be of type object`}})
		return nil, false
	}
	return raw, true
}
