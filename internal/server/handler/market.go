package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// MarketService defines what the market handler needs from the service
// layer. Declared locally so the handler package does not depend on the
// concrete service implementation.
type MarketService interface {
	SyncMarkets(ctx context.Context, markets []domain.Market) error
	GetMarket(ctx context.Context, id string) (domain.Market, error)
	List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error)
	ListByCategory(ctx context.Context, category string, opts domain.ListOpts) ([]domain.Market, error)
	Count(ctx context.Context) (int64, error)
}

// MarketHandler serves market-related HTTP endpoints.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service and logger.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		logger:  logger,
	}
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// ListMarkets returns stored markets, optionally filtered to one category.
// GET /api/markets?category=crypto&limit=50&offset=0
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	var (
		markets []domain.Market
		err     error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		markets, err = h.markets.ListByCategory(r.Context(), category, opts)
	} else {
		markets, err = h.markets.List(r.Context(), opts)
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list markets")
		return
	}

	total, err := h.markets.Count(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: count markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count markets")
		return
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: markets,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// GetMarket returns a single market by its ID.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	market, err := h.markets.GetMarket(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get market failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get market")
		return
	}

	writeJSON(w, http.StatusOK, market)
}

// ingestRequest is the body for a market ingest call.
type ingestRequest struct {
	Markets []domain.Market `json:"markets"`
}

// IngestMarkets upserts a batch of market snapshots supplied by the caller.
// POST /api/markets
func (h *MarketHandler) IngestMarkets(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Markets) == 0 {
		writeError(w, http.StatusBadRequest, "no markets in request")
		return
	}
	for i, m := range req.Markets {
		if m.ID == "" || m.Question == "" {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("market at index %d missing id or question", i))
			return
		}
	}

	if err := h.markets.SyncMarkets(r.Context(), req.Markets); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: ingest markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to ingest markets")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"ingested": len(req.Markets),
	})
}
