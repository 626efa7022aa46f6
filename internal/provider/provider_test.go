package provider

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

type stubStore struct {
	byID map[string]domain.Market
	gets int
}

func (s *stubStore) GetByID(_ context.Context, id string) (domain.Market, error) {
	s.gets++
	m, ok := s.byID[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *stubStore) Upsert(context.Context, domain.Market) error        { return nil }
func (s *stubStore) UpsertBatch(context.Context, []domain.Market) error { return nil }
func (s *stubStore) List(context.Context, domain.ListOpts) ([]domain.Market, error) {
	return nil, nil
}
func (s *stubStore) ListByCategory(context.Context, string, domain.ListOpts) ([]domain.Market, error) {
	return nil, nil
}
func (s *stubStore) Count(context.Context) (int64, error) { return 0, nil }

type stubCache struct {
	entries map[string]domain.Market
	sets    int
}

func (c *stubCache) Get(_ context.Context, id string) (domain.Market, error) {
	m, ok := c.entries[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (c *stubCache) Set(_ context.Context, m domain.Market) error {
	c.sets++
	c.entries[m.ID] = m
	return nil
}

func (c *stubCache) Invalidate(_ context.Context, id string) error {
	delete(c.entries, id)
	return nil
}

func market(id string) domain.Market {
	return domain.Market{ID: id, Question: "Will it resolve YES?"}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReadThroughCacheHitSkipsStore(t *testing.T) {
	store := &stubStore{byID: map[string]domain.Market{"m1": market("m1")}}
	cache := &stubCache{entries: map[string]domain.Market{"m1": market("m1")}}
	p := NewReadThrough(store, cache, discard())

	m, err := p.Snapshot(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)
	assert.Zero(t, store.gets)
}

func TestReadThroughMissBackfillsCache(t *testing.T) {
	store := &stubStore{byID: map[string]domain.Market{"m1": market("m1")}}
	cache := &stubCache{entries: map[string]domain.Market{}}
	p := NewReadThrough(store, cache, discard())

	_, err := p.Snapshot(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.gets)
	assert.Equal(t, 1, cache.sets)

	_, err = p.Snapshot(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.gets, "second read served from cache")
}

func TestReadThroughNilCache(t *testing.T) {
	store := &stubStore{byID: map[string]domain.Market{"m1": market("m1")}}
	p := NewReadThrough(store, nil, discard())

	_, err := p.Snapshot(context.Background(), "m1")
	require.NoError(t, err)

	_, err = p.Snapshot(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReadThroughSnapshotAllPreservesOrderAndFailsWhole(t *testing.T) {
	store := &stubStore{byID: map[string]domain.Market{
		"a": market("a"),
		"b": market("b"),
	}}
	p := NewReadThrough(store, nil, discard())

	markets, err := p.SnapshotAll(context.Background(), []string{"b", "a"})
	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, "b", markets[0].ID)
	assert.Equal(t, "a", markets[1].ID)

	_, err = p.SnapshotAll(context.Background(), []string{"a", "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStaticProvider(t *testing.T) {
	p := NewStatic([]domain.Market{market("x"), market("y"), market("x")})

	m, err := p.Snapshot(context.Background(), "y")
	require.NoError(t, err)
	assert.Equal(t, "y", m.ID)

	_, err = p.Snapshot(context.Background(), "z")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all := p.All()
	require.Len(t, all, 2, "duplicate IDs keep one entry")
	assert.Equal(t, "x", all[0].ID)
	assert.Equal(t, "y", all[1].ID)
}
