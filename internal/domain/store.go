package domain

import "context"

// ListOpts carries standard pagination parameters.
type ListOpts struct {
	Limit  int
	Offset int
}

// MarketStore persists market snapshots pushed in by an external collector.
type MarketStore interface {
	Upsert(ctx context.Context, m Market) error
	UpsertBatch(ctx context.Context, markets []Market) error
	GetByID(ctx context.Context, id string) (Market, error)
	List(ctx context.Context, opts ListOpts) ([]Market, error)
	ListByCategory(ctx context.Context, category string, opts ListOpts) ([]Market, error)
	Count(ctx context.Context) (int64, error)
}

// ClusterStore persists user-curated cluster definitions.
type ClusterStore interface {
	Create(ctx context.Context, def ClusterDefinition) error
	GetByID(ctx context.Context, id string) (ClusterDefinition, error)
	List(ctx context.Context, opts ListOpts) ([]ClusterDefinition, error)
	Delete(ctx context.Context, id string) error
}
