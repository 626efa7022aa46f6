// Package provider resolves market snapshots for the scanner and analyzer.
// The core packages never fetch data themselves; they receive markets
// through a MarketProvider chosen by the caller.
package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// ReadThrough resolves markets from the persistent store, consulting the
// cache first and back-filling it on a miss. The cache is optional; with a
// nil cache every read goes straight to the store.
type ReadThrough struct {
	markets domain.MarketStore
	cache   domain.MarketCache
	logger  *slog.Logger
}

var _ domain.MarketProvider = (*ReadThrough)(nil)

func NewReadThrough(markets domain.MarketStore, cache domain.MarketCache, logger *slog.Logger) *ReadThrough {
	return &ReadThrough{
		markets: markets,
		cache:   cache,
		logger:  logger.With(slog.String("component", "provider")),
	}
}

// Snapshot returns the current state of a single market.
func (p *ReadThrough) Snapshot(ctx context.Context, id string) (domain.Market, error) {
	if p.cache != nil {
		if m, err := p.cache.Get(ctx, id); err == nil {
			return m, nil
		}
	}

	m, err := p.markets.GetByID(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("provider: get market %q: %w", id, err)
	}

	if p.cache != nil {
		if cacheErr := p.cache.Set(ctx, m); cacheErr != nil {
			p.logger.WarnContext(ctx, "provider: cache set failed",
				slog.String("market_id", id),
				slog.String("error", cacheErr.Error()),
			)
		}
	}
	return m, nil
}

// SnapshotAll resolves every requested market, preserving input order. Any
// missing market fails the whole call.
func (p *ReadThrough) SnapshotAll(ctx context.Context, ids []string) ([]domain.Market, error) {
	markets := make([]domain.Market, 0, len(ids))
	for _, id := range ids {
		m, err := p.Snapshot(ctx, id)
		if err != nil {
			return nil, err
		}
		markets = append(markets, m)
	}
	return markets, nil
}

// Static serves markets from a fixed in-memory set. Used by the one-shot
// scan mode and by tests.
type Static struct {
	byID  map[string]domain.Market
	order []string
}

var _ domain.MarketProvider = (*Static)(nil)

func NewStatic(markets []domain.Market) *Static {
	s := &Static{byID: make(map[string]domain.Market, len(markets))}
	for _, m := range markets {
		if _, ok := s.byID[m.ID]; !ok {
			s.order = append(s.order, m.ID)
		}
		s.byID[m.ID] = m
	}
	return s
}

func (s *Static) Snapshot(_ context.Context, id string) (domain.Market, error) {
	m, ok := s.byID[id]
	if !ok {
		return domain.Market{}, fmt.Errorf("provider: market %q: %w", id, domain.ErrNotFound)
	}
	return m, nil
}

func (s *Static) SnapshotAll(ctx context.Context, ids []string) ([]domain.Market, error) {
	markets := make([]domain.Market, 0, len(ids))
	for _, id := range ids {
		m, err := s.Snapshot(ctx, id)
		if err != nil {
			return nil, err
		}
		markets = append(markets, m)
	}
	return markets, nil
}

// All returns every market in insertion order, for scans over the full set.
func (s *Static) All() []domain.Market {
	markets := make([]domain.Market, 0, len(s.order))
	for _, id := range s.order {
		markets = append(markets, s.byID[id])
	}
	return markets
}
