package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

func TestOutcomeScenarios(t *testing.T) {
	t.Run("two markets enumerate four scenarios", func(t *testing.T) {
		positions := []domain.Position{
			{MarketID: "a", Side: domain.SideYes, Stake: 100, EntryPrice: 0.5},
			{MarketID: "b", Side: domain.SideNo, Stake: 50, EntryPrice: 0.2},
		}
		prices := map[string]float64{"a": 0.6, "b": 0.3}

		scenarios, err := OutcomeScenarios(positions, prices)
		require.NoError(t, err)
		require.Len(t, scenarios, 4)

		for i, sc := range scenarios {
			assert.Equal(t, fmt.Sprintf("scenario-%d", i), sc.ID)
		}

		// scenario-0: both NO, probability (1-0.6)*(1-0.3)
		assert.InDelta(t, 0.28, scenarios[0].Probability, 1e-9)
		assert.Equal(t, domain.SideNo, scenarios[0].Outcomes["a"])
		assert.Equal(t, domain.SideNo, scenarios[0].Outcomes["b"])

		// scenario-3: both YES, probability 0.6*0.3
		assert.InDelta(t, 0.18, scenarios[3].Probability, 1e-9)

		// bit 0 is the first-referenced market
		assert.Equal(t, domain.SideYes, scenarios[1].Outcomes["a"])
		assert.Equal(t, domain.SideNo, scenarios[1].Outcomes["b"])

		total := 0.0
		for _, sc := range scenarios {
			total += sc.Probability
		}
		assert.InDelta(t, 1.0, total, 1e-9)
	})

	t.Run("positions on the same market share its assignment", func(t *testing.T) {
		positions := []domain.Position{
			{MarketID: "a", Side: domain.SideYes, Stake: 100, EntryPrice: 0.5},
			{MarketID: "a", Side: domain.SideNo, Stake: 100, EntryPrice: 0.5},
		}
		scenarios, err := OutcomeScenarios(positions, map[string]float64{"a": 0.5})
		require.NoError(t, err)
		require.Len(t, scenarios, 2)

		// YES leg: +100 from the YES position, -100 from the NO position
		assert.InDelta(t, 0.0, scenarios[1].Payoff, 1e-9)
		assert.InDelta(t, 0.0, scenarios[0].Payoff, 1e-9)
	})

	t.Run("missing price falls back to entry-implied probability", func(t *testing.T) {
		positions := []domain.Position{
			{MarketID: "a", Side: domain.SideNo, Stake: 100, EntryPrice: 0.3},
		}
		scenarios, err := OutcomeScenarios(positions, nil)
		require.NoError(t, err)
		require.Len(t, scenarios, 2)
		// NO at entry 0.3 implies a YES probability of 0.7
		assert.InDelta(t, 0.3, scenarios[0].Probability, 1e-9)
		assert.InDelta(t, 0.7, scenarios[1].Probability, 1e-9)
	})

	t.Run("empty strategy yields one empty scenario", func(t *testing.T) {
		scenarios, err := OutcomeScenarios(nil, nil)
		require.NoError(t, err)
		require.Len(t, scenarios, 1)
		assert.Equal(t, "scenario-0", scenarios[0].ID)
		assert.Equal(t, 1.0, scenarios[0].Probability)
		assert.Zero(t, scenarios[0].Payoff)
	})

	t.Run("too many distinct markets is refused", func(t *testing.T) {
		var positions []domain.Position
		for i := 0; i <= MaxScenarioMarkets; i++ {
			positions = append(positions, domain.Position{
				MarketID:   fmt.Sprintf("m%d", i),
				Side:       domain.SideYes,
				Stake:      1,
				EntryPrice: 0.5,
			})
		}
		_, err := OutcomeScenarios(positions, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTooManyMarkets)
	})
}
