package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// MarketService handles market ingestion and lookup.
type MarketService struct {
	markets domain.MarketStore
	cache   domain.MarketCache
	logger  *slog.Logger
}

func NewMarketService(markets domain.MarketStore, cache domain.MarketCache, logger *slog.Logger) *MarketService {
	return &MarketService{
		markets: markets,
		cache:   cache,
		logger:  logger,
	}
}

// SyncMarkets upserts a batch of markets into the persistent store and
// invalidates cached entries so subsequent reads pick up fresh prices.
func (s *MarketService) SyncMarkets(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	if err := s.markets.UpsertBatch(ctx, markets); err != nil {
		return fmt.Errorf("market_service: upsert batch: %w", err)
	}

	if s.cache != nil {
		for _, m := range markets {
			if err := s.cache.Invalidate(ctx, m.ID); err != nil {
				s.logger.WarnContext(ctx, "market_service: cache invalidate failed",
					slog.String("market_id", m.ID),
					slog.String("error", err.Error()),
				)
				// Non-fatal: the cache entry expires on its own.
			}
		}
	}

	s.logger.InfoContext(ctx, "market_service: synced markets",
		slog.Int("count", len(markets)),
	)
	return nil
}

// GetMarket retrieves a market by ID straight from the store; price-fresh
// reads go through the provider instead.
func (s *MarketService) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	m, err := s.markets.GetByID(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get by id %q: %w", id, err)
	}
	return m, nil
}

// List returns markets from the persistent store.
func (s *MarketService) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	markets, err := s.markets.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("market_service: list: %w", err)
	}
	return markets, nil
}

// ListByCategory returns markets in one category.
func (s *MarketService) ListByCategory(ctx context.Context, category string, opts domain.ListOpts) ([]domain.Market, error) {
	markets, err := s.markets.ListByCategory(ctx, category, opts)
	if err != nil {
		return nil, fmt.Errorf("market_service: list category %q: %w", category, err)
	}
	return markets, nil
}

// Count returns the total number of markets in the persistent store.
func (s *MarketService) Count(ctx context.Context) (int64, error) {
	count, err := s.markets.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("market_service: count: %w", err)
	}
	return count, nil
}
