package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// ClusterStore implements domain.ClusterStore using PostgreSQL. Threshold
// configs are stored as JSONB since their shape is owned by the domain
// package, not the schema.
type ClusterStore struct {
	pool *pgxpool.Pool
}

// NewClusterStore creates a new ClusterStore backed by the given pool.
func NewClusterStore(pool *pgxpool.Pool) *ClusterStore {
	return &ClusterStore{pool: pool}
}

// Create persists a cluster definition. Returns domain.ErrAlreadyExists when
// the ID is taken.
func (s *ClusterStore) Create(ctx context.Context, def domain.ClusterDefinition) error {
	thresholds, err := marshalThresholds(def.Thresholds)
	if err != nil {
		return fmt.Errorf("postgres: marshal thresholds for cluster %s: %w", def.ID, err)
	}

	const query = `
		INSERT INTO clusters (id, name, cluster_type, market_ids, threshold_config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	tag, err := s.pool.Exec(ctx, query,
		def.ID, def.Name, string(def.Type), def.MarketIDs, thresholds,
		def.CreatedAt, def.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create cluster %s: %w", def.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: create cluster %s: %w", def.ID, domain.ErrAlreadyExists)
	}
	return nil
}

const selectClusterColumns = `
	SELECT id, name, cluster_type, market_ids, threshold_config, created_at, updated_at
	FROM clusters`

// GetByID retrieves a cluster definition. Returns domain.ErrNotFound when it
// does not exist.
func (s *ClusterStore) GetByID(ctx context.Context, id string) (domain.ClusterDefinition, error) {
	row := s.pool.QueryRow(ctx, selectClusterColumns+" WHERE id = $1", id)
	def, err := scanCluster(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ClusterDefinition{}, domain.ErrNotFound
		}
		return domain.ClusterDefinition{}, fmt.Errorf("postgres: get cluster %s: %w", id, err)
	}
	return def, nil
}

// List returns cluster definitions, newest first.
func (s *ClusterStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.ClusterDefinition, error) {
	rows, err := s.pool.Query(ctx,
		selectClusterColumns+" ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list clusters: %w", err)
	}
	defer rows.Close()

	var defs []domain.ClusterDefinition
	for rows.Next() {
		def, err := scanCluster(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan cluster: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate clusters: %w", err)
	}
	return defs, nil
}

// Delete removes a cluster definition. Returns domain.ErrNotFound when it
// does not exist.
func (s *ClusterStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM clusters WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: delete cluster %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: delete cluster %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func marshalThresholds(cfg *domain.ThresholdConfig) ([]byte, error) {
	if cfg == nil {
		return nil, nil
	}
	return json.Marshal(cfg)
}

func scanCluster(row pgx.Row) (domain.ClusterDefinition, error) {
	var (
		def         domain.ClusterDefinition
		clusterType string
		thresholds  []byte
	)
	err := row.Scan(
		&def.ID, &def.Name, &clusterType, &def.MarketIDs, &thresholds,
		&def.CreatedAt, &def.UpdatedAt,
	)
	if err != nil {
		return domain.ClusterDefinition{}, err
	}
	def.Type = domain.ClusterType(clusterType)

	if len(thresholds) > 0 {
		var cfg domain.ThresholdConfig
		if err := json.Unmarshal(thresholds, &cfg); err != nil {
			return domain.ClusterDefinition{}, fmt.Errorf("unmarshal threshold_config: %w", err)
		}
		def.Thresholds = &cfg
	}
	return def, nil
}

// Compile-time interface check.
var _ domain.ClusterStore = (*ClusterStore)(nil)
