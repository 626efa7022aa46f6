package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/scanner"
)

// ClusterService manages stored cluster definitions so scans can reference
// a cluster by ID instead of re-sending the market list every time.
type ClusterService struct {
	clusters domain.ClusterStore
	provider domain.MarketProvider
	logger   *slog.Logger
}

func NewClusterService(clusters domain.ClusterStore, provider domain.MarketProvider, logger *slog.Logger) *ClusterService {
	return &ClusterService{
		clusters: clusters,
		provider: provider,
		logger:   logger,
	}
}

// Create validates and persists a cluster definition. An empty type is
// detected from the member markets' question text.
func (s *ClusterService) Create(ctx context.Context, def domain.ClusterDefinition) (domain.ClusterDefinition, error) {
	if def.Name == "" {
		return domain.ClusterDefinition{}, fmt.Errorf("cluster_service: %w: name required", domain.ErrInvalidCluster)
	}
	if len(def.MarketIDs) == 0 {
		return domain.ClusterDefinition{}, fmt.Errorf("cluster_service: %w: at least one market required", domain.ErrInvalidCluster)
	}

	markets, err := s.provider.SnapshotAll(ctx, def.MarketIDs)
	if err != nil {
		return domain.ClusterDefinition{}, fmt.Errorf("cluster_service: resolve markets: %w", err)
	}

	if def.Type == "" {
		def.Type = scanner.DetectClusterType(markets)
	}
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	def.CreatedAt = now
	def.UpdatedAt = now

	if err := s.clusters.Create(ctx, def); err != nil {
		return domain.ClusterDefinition{}, fmt.Errorf("cluster_service: create %q: %w", def.Name, err)
	}

	s.logger.InfoContext(ctx, "cluster_service: cluster created",
		slog.String("cluster_id", def.ID),
		slog.String("type", string(def.Type)),
		slog.Int("markets", len(def.MarketIDs)),
	)
	return def, nil
}

// Get returns a stored cluster definition by ID.
func (s *ClusterService) Get(ctx context.Context, id string) (domain.ClusterDefinition, error) {
	def, err := s.clusters.GetByID(ctx, id)
	if err != nil {
		return domain.ClusterDefinition{}, fmt.Errorf("cluster_service: get %q: %w", id, err)
	}
	return def, nil
}

// List returns stored cluster definitions.
func (s *ClusterService) List(ctx context.Context, opts domain.ListOpts) ([]domain.ClusterDefinition, error) {
	defs, err := s.clusters.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cluster_service: list: %w", err)
	}
	return defs, nil
}

// Delete removes a stored cluster definition.
func (s *ClusterService) Delete(ctx context.Context, id string) error {
	if err := s.clusters.Delete(ctx, id); err != nil {
		return fmt.Errorf("cluster_service: delete %q: %w", id, err)
	}
	return nil
}
