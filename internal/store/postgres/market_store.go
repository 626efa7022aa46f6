package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const upsertMarketQuery = `
	INSERT INTO markets (
		id, question, category, end_date,
		volume, liquidity, yes_price, no_price,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8,
		NOW(), NOW()
	)
	ON CONFLICT (id) DO UPDATE SET
		question   = EXCLUDED.question,
		category   = EXCLUDED.category,
		end_date   = EXCLUDED.end_date,
		volume     = EXCLUDED.volume,
		liquidity  = EXCLUDED.liquidity,
		yes_price  = EXCLUDED.yes_price,
		no_price   = EXCLUDED.no_price,
		updated_at = NOW()`

// Upsert inserts or updates a single market.
func (s *MarketStore) Upsert(ctx context.Context, m domain.Market) error {
	_, err := s.pool.Exec(ctx, upsertMarketQuery,
		m.ID, m.Question, m.Category, m.EndDate,
		m.Volume, m.Liquidity, m.YesPrice(), m.NoPrice(),
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert market %s: %w", m.ID, err)
	}
	return nil
}

// UpsertBatch inserts or updates multiple markets in a single batch.
func (s *MarketStore) UpsertBatch(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range markets {
		batch.Queue(upsertMarketQuery,
			m.ID, m.Question, m.Category, m.EndDate,
			m.Volume, m.Liquidity, m.YesPrice(), m.NoPrice(),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range markets {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert batch: %w", err)
		}
	}
	return nil
}

const selectMarketColumns = `
	SELECT id, question, category, end_date, volume, liquidity, yes_price, no_price
	FROM markets`

// GetByID retrieves a market by its ID. Returns domain.ErrNotFound when it
// does not exist.
func (s *MarketStore) GetByID(ctx context.Context, id string) (domain.Market, error) {
	row := s.pool.QueryRow(ctx, selectMarketColumns+" WHERE id = $1", id)
	m, err := scanMarket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %s: %w", id, err)
	}
	return m, nil
}

// List returns markets ordered by volume, highest first.
func (s *MarketStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	rows, err := s.pool.Query(ctx,
		selectMarketColumns+" ORDER BY volume DESC LIMIT $1 OFFSET $2",
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	return collectMarkets(rows)
}

// ListByCategory returns markets in one category ordered by volume.
func (s *MarketStore) ListByCategory(ctx context.Context, category string, opts domain.ListOpts) ([]domain.Market, error) {
	rows, err := s.pool.Query(ctx,
		selectMarketColumns+" WHERE category = $1 ORDER BY volume DESC LIMIT $2 OFFSET $3",
		category, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets by category %q: %w", category, err)
	}
	defer rows.Close()

	return collectMarkets(rows)
}

// Count returns the total number of stored markets.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM markets").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}

func scanMarket(row pgx.Row) (domain.Market, error) {
	var (
		m                 domain.Market
		yesPrice, noPrice float64
	)
	err := row.Scan(
		&m.ID, &m.Question, &m.Category, &m.EndDate,
		&m.Volume, &m.Liquidity, &yesPrice, &noPrice,
	)
	if err != nil {
		return domain.Market{}, err
	}
	m.Outcomes[0] = domain.Outcome{Name: "YES", Price: yesPrice}
	m.Outcomes[1] = domain.Outcome{Name: "NO", Price: noPrice}
	return m, nil
}

func collectMarkets(rows pgx.Rows) ([]domain.Market, error) {
	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate markets: %w", err)
	}
	return markets, nil
}

// Compile-time interface check.
var _ domain.MarketStore = (*MarketStore)(nil)
