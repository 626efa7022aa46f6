package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// StrategyAnalyzer defines what the analyze handler needs from the service
// layer.
type StrategyAnalyzer interface {
	Analyze(ctx context.Context, strategy domain.Strategy) (domain.StrategyAnalysis, error)
	Curve(ctx context.Context, strategy domain.Strategy, steps int) ([]domain.PayoffPoint, error)
	Surface(ctx context.Context, strategy domain.Strategy, probSteps, timeSteps int, maxDays float64) (domain.PayoffSurface, error)
}

// AnalyzeHandler serves the strategy analysis endpoints.
type AnalyzeHandler struct {
	analysis StrategyAnalyzer
	logger   *slog.Logger
}

// NewAnalyzeHandler creates an AnalyzeHandler with the given service and logger.
func NewAnalyzeHandler(analysis StrategyAnalyzer, logger *slog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analysis: analysis,
		logger:   logger,
	}
}

// analyzeRequest is the body for all analysis endpoints. The grid fields are
// only consulted by the curve and surface variants.
type analyzeRequest struct {
	Strategy  domain.Strategy `json:"strategy"`
	Steps     int             `json:"steps,omitempty"`
	ProbSteps int             `json:"probSteps,omitempty"`
	TimeSteps int             `json:"timeSteps,omitempty"`
	MaxDays   float64         `json:"maxDays,omitempty"`
}

// Analyze computes the full strategy report: scenarios, curve, surface, and
// summary statistics.
// POST /api/analyze
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.analysis.Analyze(r.Context(), req.Strategy)
	if err != nil {
		h.respondAnalysisError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Curve computes only the payoff curve.
// POST /api/analyze/curve
func (h *AnalyzeHandler) Curve(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	curve, err := h.analysis.Curve(r.Context(), req.Strategy, req.Steps)
	if err != nil {
		h.respondAnalysisError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"curve": curve})
}

// Surface computes only the discounted payoff surface.
// POST /api/analyze/surface
func (h *AnalyzeHandler) Surface(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	surface, err := h.analysis.Surface(r.Context(), req.Strategy, req.ProbSteps, req.TimeSteps, req.MaxDays)
	if err != nil {
		h.respondAnalysisError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, surface)
}

func (h *AnalyzeHandler) respondAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPosition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrTooManyMarkets):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "handler: analysis failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "analysis failed")
	}
}
