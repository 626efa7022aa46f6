package domain

import "context"

// MarketProvider supplies current market snapshots to the scanning and
// analysis services. It is the injection point that keeps the computational
// core free of process-wide state: implementations may read from a cache, a
// store, or a fixed in-memory set, and must be safe for concurrent use.
type MarketProvider interface {
	Snapshot(ctx context.Context, id string) (Market, error)
	SnapshotAll(ctx context.Context, ids []string) ([]Market, error)
}
