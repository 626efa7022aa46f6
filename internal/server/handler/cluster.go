package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// ClusterService defines what the cluster handler needs from the service
// layer.
type ClusterService interface {
	Create(ctx context.Context, def domain.ClusterDefinition) (domain.ClusterDefinition, error)
	Get(ctx context.Context, id string) (domain.ClusterDefinition, error)
	List(ctx context.Context, opts domain.ListOpts) ([]domain.ClusterDefinition, error)
	Delete(ctx context.Context, id string) error
}

// ClusterHandler serves stored cluster definition endpoints.
type ClusterHandler struct {
	clusters ClusterService
	logger   *slog.Logger
}

// NewClusterHandler creates a ClusterHandler with the given service and logger.
func NewClusterHandler(clusters ClusterService, logger *slog.Logger) *ClusterHandler {
	return &ClusterHandler{
		clusters: clusters,
		logger:   logger,
	}
}

// CreateCluster stores a cluster definition for later scans.
// POST /api/clusters
func (h *ClusterHandler) CreateCluster(w http.ResponseWriter, r *http.Request) {
	var def domain.ClusterDefinition
	if err := decodeJSON(r, &def); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	created, err := h.clusters.Create(r.Context(), def)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCluster):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusBadRequest, "cluster references unknown markets")
		case errors.Is(err, domain.ErrAlreadyExists):
			writeError(w, http.StatusConflict, "cluster already exists")
		default:
			h.logger.ErrorContext(r.Context(), "handler: create cluster failed",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to create cluster")
		}
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetCluster returns a stored cluster definition.
// GET /api/clusters/{id}
func (h *ClusterHandler) GetCluster(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing cluster id")
		return
	}

	def, err := h.clusters.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "cluster not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get cluster failed",
			slog.String("cluster_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get cluster")
		return
	}

	writeJSON(w, http.StatusOK, def)
}

// ListClusters returns stored cluster definitions.
// GET /api/clusters?limit=50&offset=0
func (h *ClusterHandler) ListClusters(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	defs, err := h.clusters.List(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list clusters failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list clusters")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"clusters": defs,
		"limit":    opts.Limit,
		"offset":   opts.Offset,
	})
}

// DeleteCluster removes a stored cluster definition.
// DELETE /api/clusters/{id}
func (h *ClusterHandler) DeleteCluster(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing cluster id")
		return
	}

	if err := h.clusters.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "cluster not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: delete cluster failed",
			slog.String("cluster_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete cluster")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
