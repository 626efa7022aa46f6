package analysis

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

func testAnalyzer() *Analyzer {
	return NewAnalyzer(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPayoffCurve(t *testing.T) {
	a := testAnalyzer()
	positions := []domain.Position{
		{MarketID: "m", Side: domain.SideYes, Stake: 100, EntryPrice: 0.4},
	}

	curve := a.PayoffCurve(positions, 20)
	require.Len(t, curve, 21)

	assert.Equal(t, 0.0, curve[0].Probability)
	assert.Equal(t, 1.0, curve[20].Probability)
	assert.InDelta(t, -100.0, curve[0].Payoff, 1e-9)
	assert.InDelta(t, 150.0, curve[20].Payoff, 1e-9)
	assert.InDelta(t, -100.0, curve[0].ReturnPct, 1e-9)
	assert.InDelta(t, 150.0, curve[20].ReturnPct, 1e-9)
}

func TestPayoffSurface(t *testing.T) {
	a := testAnalyzer()
	positions := []domain.Position{
		{MarketID: "m", Side: domain.SideYes, Stake: 100, EntryPrice: 0.4},
	}

	t.Run("grid dimensions", func(t *testing.T) {
		surface := a.PayoffSurface(positions, 0.10, 5, 5, 90)
		assert.Len(t, surface.Points, 36)
	})

	t.Run("zero day row is undiscounted", func(t *testing.T) {
		surface := a.PayoffSurface(positions, 0.10, 10, 10, 90)
		for _, pt := range surface.Points[:11] {
			assert.Equal(t, 0.0, pt.Days)
			assert.InDelta(t, PositionPayoff(positions[0], pt.Probability), pt.Payoff, 1e-9)
		}
	})

	t.Run("expected value ignores discounting, time weighted does not", func(t *testing.T) {
		flat := a.PayoffSurface(positions, 0, 10, 10, 90)
		discounted := a.PayoffSurface(positions, 0.25, 10, 10, 90)

		assert.InDelta(t, flat.ExpectedValue, discounted.ExpectedValue, 1e-9)
		assert.NotEqual(t, flat.TimeWeightedEV, discounted.TimeWeightedEV)
		// positive-EV strategy loses value under a higher discount rate
		assert.Greater(t, flat.TimeWeightedEV, discounted.TimeWeightedEV)
	})

	t.Run("min and max bound the grid", func(t *testing.T) {
		surface := a.PayoffSurface(positions, 0.10, 10, 10, 90)
		for _, pt := range surface.Points {
			assert.GreaterOrEqual(t, pt.Payoff, surface.MinPayoff)
			assert.LessOrEqual(t, pt.Payoff, surface.MaxPayoff)
		}
	})
}

func TestAnalyzeStrategy(t *testing.T) {
	a := testAnalyzer()

	t.Run("single fair position", func(t *testing.T) {
		strategy := domain.Strategy{
			Positions: []domain.Position{
				{MarketID: "m", Side: domain.SideYes, Stake: 100, EntryPrice: 0.5},
			},
		}
		result, err := a.AnalyzeStrategy(strategy, map[string]float64{"m": 0.5})
		require.NoError(t, err)

		assert.Equal(t, 100.0, result.TotalStake)
		// fair odds at fair price: zero expected payoff
		assert.InDelta(t, 0.0, result.ExpectedPayoff, 1e-9)
		assert.InDelta(t, 0.0, result.ExpectedReturnPct, 1e-9)
		assert.InDelta(t, 100.0, result.MaxProfit, 1e-9)
		assert.InDelta(t, -100.0, result.MaxLoss, 1e-9)
		assert.InDelta(t, 0.5, result.BreakEvenProbability, 1e-9)
		assert.Len(t, result.Scenarios, 2)
		assert.Len(t, result.Curve, DefaultCurveSteps+1)
		assert.Len(t, result.Surface.Points, (DefaultProbSteps+1)*(DefaultTimeSteps+1))
	})

	t.Run("edge priced position has positive expectation", func(t *testing.T) {
		strategy := domain.Strategy{
			Positions: []domain.Position{
				{MarketID: "m", Side: domain.SideYes, Stake: 100, EntryPrice: 0.4},
			},
		}
		result, err := a.AnalyzeStrategy(strategy, map[string]float64{"m": 0.5})
		require.NoError(t, err)

		// 0.5*150 + 0.5*(-100) = 25
		assert.InDelta(t, 25.0, result.ExpectedPayoff, 1e-9)
		assert.InDelta(t, 25.0, result.ExpectedReturnPct, 1e-9)
		assert.InDelta(t, 0.4, result.BreakEvenProbability, 1e-9)
	})

	t.Run("empty strategy", func(t *testing.T) {
		result, err := a.AnalyzeStrategy(domain.Strategy{}, nil)
		require.NoError(t, err)

		assert.Zero(t, result.TotalStake)
		assert.Zero(t, result.ExpectedPayoff)
		assert.Zero(t, result.ExpectedReturnPct)
		assert.Equal(t, 0.5, result.BreakEvenProbability)
		assert.Len(t, result.Scenarios, 1)
	})

	t.Run("deterministic apart from the timestamp", func(t *testing.T) {
		strategy := domain.Strategy{
			Positions: []domain.Position{
				{MarketID: "a", Side: domain.SideYes, Stake: 60, EntryPrice: 0.3},
				{MarketID: "b", Side: domain.SideNo, Stake: 40, EntryPrice: 0.7},
			},
			DiscountRate: 0.08,
		}
		prices := map[string]float64{"a": 0.35, "b": 0.65}

		first, err := a.AnalyzeStrategy(strategy, prices)
		require.NoError(t, err)
		second, err := a.AnalyzeStrategy(strategy, prices)
		require.NoError(t, err)

		first.GeneratedAt = second.GeneratedAt
		assert.Equal(t, first, second)
	})
}
