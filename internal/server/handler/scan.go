package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/service"
)

// ScanRunner defines what the scan handler needs from the service layer.
type ScanRunner interface {
	Scan(ctx context.Context, req service.ScanRequest) (domain.ScanResult, error)
	RecentScans(ctx context.Context, limit int) ([]domain.ScanResult, error)
}

// ScanHandler serves the inefficiency-scan endpoints.
type ScanHandler struct {
	scans  ScanRunner
	logger *slog.Logger
}

// NewScanHandler creates a ScanHandler with the given service and logger.
func NewScanHandler(scans ScanRunner, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{
		scans:  scans,
		logger: logger,
	}
}

// Scan runs the inefficiency rules over a stored or ad-hoc cluster.
// POST /api/scan
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req service.ScanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.scans.Scan(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCluster):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "market or cluster not found")
		default:
			h.logger.ErrorContext(r.Context(), "handler: scan failed",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "scan failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RecentScans replays recent scan results from the durable stream.
// GET /api/scans/recent?limit=20
func (h *ScanHandler) RecentScans(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 200 {
		limit = 200
	}

	results, err := h.scans.RecentScans(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: recent scans failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load recent scans")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scans": results,
		"count": len(results),
	})
}
