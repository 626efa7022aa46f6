package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/provider"
	"github.com/alanyoungcy/polyscan/internal/scanner"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ladderMarkets() []domain.Market {
	return []domain.Market{
		{
			ID:       "btc-100k",
			Question: "Will BTC close above 100k?",
			Category: "crypto",
			Outcomes: [2]domain.Outcome{{Name: "YES", Price: 0.60}, {Name: "NO", Price: 0.40}},
		},
		{
			ID:       "btc-150k",
			Question: "Will BTC close above 150k?",
			Category: "crypto",
			Outcomes: [2]domain.Outcome{{Name: "YES", Price: 0.70}, {Name: "NO", Price: 0.30}},
		},
	}
}

func newScanService(markets []domain.Market) *ScanService {
	logger := testLogger()
	return NewScanService(
		provider.NewStatic(markets),
		nil, nil, nil,
		scanner.New(logger),
		logger,
	)
}

func TestScanAdHocCluster(t *testing.T) {
	svc := newScanService(ladderMarkets())

	result, err := svc.Scan(context.Background(), ScanRequest{
		Name:      "btc ladder",
		MarketIDs: []string{"btc-100k", "btc-150k"},
	})
	require.NoError(t, err)

	// numeric questions with a shared prefix are detected as a ladder,
	// thresholds come out of the question text
	assert.Equal(t, domain.ClusterThreshold, result.Cluster.Type)
	require.NotNil(t, result.Cluster.Thresholds)
	require.Len(t, result.Cluster.Thresholds.Markets, 2)

	// the 150k market priced above the 100k one is an inversion
	require.NotEmpty(t, result.Flags)
	assert.Equal(t, domain.RuleThresholdConsistency, result.Flags[0].RuleType)
}

func TestScanRespectsExplicitType(t *testing.T) {
	svc := newScanService(ladderMarkets())

	result, err := svc.Scan(context.Background(), ScanRequest{
		Name:      "btc ladder",
		MarketIDs: []string{"btc-100k", "btc-150k"},
		Type:      domain.ClusterCustom,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ClusterCustom, result.Cluster.Type)
	assert.NotContains(t, result.ChecksPerformed, domain.RuleThresholdConsistency)
}

func TestScanRejectsEmptyRequest(t *testing.T) {
	svc := newScanService(nil)

	_, err := svc.Scan(context.Background(), ScanRequest{Name: "empty"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidCluster)
}

func TestScanUnknownMarket(t *testing.T) {
	svc := newScanService(ladderMarkets())

	_, err := svc.Scan(context.Background(), ScanRequest{
		Name:      "bad",
		MarketIDs: []string{"btc-100k", "nope"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScanCustomConfig(t *testing.T) {
	svc := newScanService(ladderMarkets())

	cfg := domain.DefaultScannerConfig()
	cfg.EnabledRules = nil
	result, err := svc.Scan(context.Background(), ScanRequest{
		Name:      "btc ladder",
		MarketIDs: []string{"btc-100k", "btc-150k"},
		Config:    &cfg,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Flags)
	assert.Empty(t, result.ChecksPerformed)
}
