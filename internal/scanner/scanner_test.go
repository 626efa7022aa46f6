package scanner

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

func testScanner() *Scanner {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func binaryMarket(id string, yes, no float64) domain.Market {
	return domain.Market{
		ID:       id,
		Question: "Will candidate " + id + " win?",
		Category: "politics",
		Outcomes: [2]domain.Outcome{
			{Name: "YES", Price: yes},
			{Name: "NO", Price: no},
		},
	}
}

func TestCheckSumToOne(t *testing.T) {
	s := testScanner()

	t.Run("balanced book is clean", func(t *testing.T) {
		markets := []domain.Market{
			binaryMarket("a", 0.3, 0.7),
			binaryMarket("b", 0.3, 0.7),
			binaryMarket("c", 0.4, 0.6),
		}
		assert.Nil(t, s.CheckSumToOne(markets, domain.DefaultSumToOneThreshold))
	})

	t.Run("overpriced set", func(t *testing.T) {
		markets := []domain.Market{
			binaryMarket("a", 0.4, 0.6),
			binaryMarket("b", 0.4, 0.6),
			binaryMarket("c", 0.4, 0.6),
		}
		flag := s.CheckSumToOne(markets, domain.DefaultSumToOneThreshold)
		require.NotNil(t, flag)
		assert.Equal(t, domain.RuleSumToOne, flag.RuleType)
		// deviation 0.2, 0.2*500 = 100
		assert.Equal(t, 100, flag.SeverityScore)
		assert.Equal(t, domain.SeverityHigh, flag.Severity)
		assert.Contains(t, flag.Title, "Overpriced")
		require.NotNil(t, flag.PotentialProfit)
		assert.InDelta(t, 0.2, *flag.PotentialProfit, 1e-9)
		// every price is 20% above the uniform average 1/3, so all sells
		require.Len(t, flag.SuggestedTrades, 3)
		for _, tr := range flag.SuggestedTrades {
			assert.Equal(t, domain.SideNo, tr.Side)
			assert.InDelta(t, 0.4-1.0/3.0, tr.Weight, 1e-9)
		}
	})

	t.Run("underpriced set", func(t *testing.T) {
		markets := []domain.Market{
			binaryMarket("a", 0.2, 0.8),
			binaryMarket("b", 0.2, 0.8),
			binaryMarket("c", 0.2, 0.8),
		}
		flag := s.CheckSumToOne(markets, domain.DefaultSumToOneThreshold)
		require.NotNil(t, flag)
		assert.Contains(t, flag.Title, "Underpriced")
		for _, tr := range flag.SuggestedTrades {
			assert.Equal(t, domain.SideYes, tr.Side)
		}
	})

	t.Run("singleton never flags", func(t *testing.T) {
		assert.Nil(t, s.CheckSumToOne([]domain.Market{binaryMarket("a", 0.9, 0.9)}, 0.05))
	})

	t.Run("missing prices count as neutral", func(t *testing.T) {
		markets := []domain.Market{
			{ID: "a", Question: "Will it?"},
			{ID: "b", Question: "Will it not?"},
		}
		// two neutral 0.5 prices sum to exactly 1
		assert.Nil(t, s.CheckSumToOne(markets, domain.DefaultSumToOneThreshold))
	})
}

func TestCheckThresholdConsistency(t *testing.T) {
	s := testScanner()

	markets := []domain.Market{
		binaryMarket("t100", 0.60, 0.40),
		binaryMarket("t200", 0.70, 0.30),
		binaryMarket("t300", 0.20, 0.80),
	}
	thresholds := []domain.MarketThreshold{
		{MarketID: "t300", Operator: ">", Value: 300},
		{MarketID: "t100", Operator: ">", Value: 100},
		{MarketID: "t200", Operator: ">", Value: 200},
	}

	t.Run("inverted ladder aggregates into one flag", func(t *testing.T) {
		flag := s.CheckThresholdConsistency(markets, thresholds, domain.DefaultThresholdMargin)
		require.NotNil(t, flag)
		assert.Equal(t, domain.RuleThresholdConsistency, flag.RuleType)
		// only the (100, 200) pair violates: 0.70 > 0.60 by 0.10
		assert.Equal(t, 30, flag.SeverityScore)
		require.Len(t, flag.SuggestedTrades, 2)
		assert.Equal(t, "t200", flag.SuggestedTrades[0].MarketID)
		assert.Equal(t, domain.SideNo, flag.SuggestedTrades[0].Side)
		assert.Equal(t, "t100", flag.SuggestedTrades[1].MarketID)
		assert.Equal(t, domain.SideYes, flag.SuggestedTrades[1].Side)
	})

	t.Run("monotone ladder is clean", func(t *testing.T) {
		monotone := []domain.Market{
			binaryMarket("t100", 0.70, 0.30),
			binaryMarket("t200", 0.50, 0.50),
			binaryMarket("t300", 0.20, 0.80),
		}
		assert.Nil(t, s.CheckThresholdConsistency(monotone, thresholds, domain.DefaultThresholdMargin))
	})

	t.Run("small inversions stay within margin", func(t *testing.T) {
		near := []domain.Market{
			binaryMarket("t100", 0.50, 0.50),
			binaryMarket("t200", 0.51, 0.49),
			binaryMarket("t300", 0.20, 0.80),
		}
		assert.Nil(t, s.CheckThresholdConsistency(near, thresholds, domain.DefaultThresholdMargin))
	})

	t.Run("needs at least two thresholds", func(t *testing.T) {
		assert.Nil(t, s.CheckThresholdConsistency(markets, thresholds[:1], domain.DefaultThresholdMargin))
	})
}

func TestCheckArbitrageBundles(t *testing.T) {
	s := testScanner()

	t.Run("risk free bundle", func(t *testing.T) {
		markets := []domain.Market{binaryMarket("a", 0.45, 0.45)}
		flag := s.CheckArbitrageBundles(markets, domain.DefaultMinArbitrageProfit)
		require.NotNil(t, flag)
		assert.Contains(t, flag.Title, "Risk-free")
		require.NotNil(t, flag.PotentialProfit)
		assert.InDelta(t, 0.1/0.9, *flag.PotentialProfit, 1e-9)
		require.Len(t, flag.SuggestedTrades, 2)
	})

	t.Run("overpriced bundle", func(t *testing.T) {
		markets := []domain.Market{binaryMarket("a", 0.60, 0.55)}
		flag := s.CheckArbitrageBundles(markets, domain.DefaultMinArbitrageProfit)
		require.NotNil(t, flag)
		assert.Contains(t, flag.Title, "Overpriced")
		require.NotNil(t, flag.PotentialProfit)
		assert.InDelta(t, 0.15, *flag.PotentialProfit, 1e-9)
	})

	t.Run("stops at the first qualifying market", func(t *testing.T) {
		markets := []domain.Market{
			binaryMarket("clean", 0.50, 0.50),
			binaryMarket("first", 0.40, 0.40),
			binaryMarket("second", 0.30, 0.30),
		}
		flag := s.CheckArbitrageBundles(markets, domain.DefaultMinArbitrageProfit)
		require.NotNil(t, flag)
		assert.Equal(t, []string{"first"}, flag.MarketIDs)
	})

	t.Run("fair book yields nothing", func(t *testing.T) {
		markets := []domain.Market{binaryMarket("a", 0.50, 0.50)}
		assert.Nil(t, s.CheckArbitrageBundles(markets, domain.DefaultMinArbitrageProfit))
	})
}

func TestScanCluster(t *testing.T) {
	s := testScanner()

	t.Run("flags sorted by severity", func(t *testing.T) {
		cluster := domain.MarketCluster{
			Name: "election",
			Type: domain.ClusterMutualExclusive,
			Markets: []domain.Market{
				// sum-to-one deviation 0.08 -> score 40;
				// first market is also a cheap arbitrage bundle -> higher score
				binaryMarket("a", 0.36, 0.44),
				binaryMarket("b", 0.36, 0.64),
				binaryMarket("c", 0.36, 0.64),
			},
		}
		result := s.ScanCluster(cluster, domain.DefaultScannerConfig())
		require.Len(t, result.Flags, 2)
		assert.Equal(t, domain.RuleArbitrageBundle, result.Flags[0].RuleType)
		assert.Equal(t, domain.RuleSumToOne, result.Flags[1].RuleType)
		assert.GreaterOrEqual(t, result.Flags[0].SeverityScore, result.Flags[1].SeverityScore)
		assert.NotEmpty(t, result.ScanID)
		assert.Equal(t, []domain.RuleType{domain.RuleSumToOne, domain.RuleArbitrageBundle}, result.ChecksPerformed)
	})

	t.Run("disabled rules are skipped", func(t *testing.T) {
		cluster := domain.MarketCluster{
			Name: "election",
			Type: domain.ClusterMutualExclusive,
			Markets: []domain.Market{
				binaryMarket("a", 0.40, 0.40),
				binaryMarket("b", 0.40, 0.60),
			},
		}
		cfg := domain.DefaultScannerConfig()
		cfg.EnabledRules = []domain.RuleType{domain.RuleSumToOne}
		result := s.ScanCluster(cluster, cfg)
		assert.Equal(t, []domain.RuleType{domain.RuleSumToOne}, result.ChecksPerformed)
		for _, f := range result.Flags {
			assert.Equal(t, domain.RuleSumToOne, f.RuleType)
		}
	})

	t.Run("sum to one only applies to exclusive and custom clusters", func(t *testing.T) {
		cluster := domain.MarketCluster{
			Name: "related",
			Type: domain.ClusterCorrelated,
			Markets: []domain.Market{
				binaryMarket("a", 0.80, 0.20),
				binaryMarket("b", 0.80, 0.20),
			},
		}
		result := s.ScanCluster(cluster, domain.DefaultScannerConfig())
		assert.NotContains(t, result.ChecksPerformed, domain.RuleSumToOne)
	})

	t.Run("threshold rule needs a threshold config", func(t *testing.T) {
		cluster := domain.MarketCluster{
			Name: "btc ladder",
			Type: domain.ClusterThreshold,
			Markets: []domain.Market{
				binaryMarket("t1", 0.60, 0.40),
				binaryMarket("t2", 0.70, 0.30),
			},
		}
		result := s.ScanCluster(cluster, domain.DefaultScannerConfig())
		assert.NotContains(t, result.ChecksPerformed, domain.RuleThresholdConsistency)

		cluster.Thresholds = &domain.ThresholdConfig{
			Variable: "price",
			Markets: []domain.MarketThreshold{
				{MarketID: "t1", Operator: ">", Value: 100},
				{MarketID: "t2", Operator: ">", Value: 200},
			},
		}
		result = s.ScanCluster(cluster, domain.DefaultScannerConfig())
		assert.Contains(t, result.ChecksPerformed, domain.RuleThresholdConsistency)
	})
}
