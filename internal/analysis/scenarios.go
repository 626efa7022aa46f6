package analysis

import (
	"fmt"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// MaxScenarioMarkets caps how many distinct markets a strategy may reference
// before enumeration is refused. 2^20 scenarios is already a million rows;
// beyond that the result is useless and the allocation hostile.
const MaxScenarioMarkets = 20

// distinctMarketIDs lists the distinct market IDs referenced by the
// positions, in first-reference order. That order fixes the bitmask layout
// and therefore the scenario identifiers.
func distinctMarketIDs(positions []domain.Position) []string {
	seen := make(map[string]struct{}, len(positions))
	ids := make([]string, 0, len(positions))
	for _, p := range positions {
		if _, ok := seen[p.MarketID]; ok {
			continue
		}
		seen[p.MarketID] = struct{}{}
		ids = append(ids, p.MarketID)
	}
	return ids
}

// OutcomeScenarios enumerates every joint resolution of the distinct markets
// the positions reference. Bit i of the scenario index assigns market ids[i]
// to YES when set, NO when clear; scenario IDs follow the index. Joint
// probability treats markets as independent, multiplying each market's
// current YES price (or its complement) as supplied in prices. A market
// missing from prices falls back to the probability implied by the first
// position's entry price. Positions on the same market share its assignment.
func OutcomeScenarios(positions []domain.Position, prices map[string]float64) ([]domain.OutcomeScenario, error) {
	ids := distinctMarketIDs(positions)
	if len(ids) > MaxScenarioMarkets {
		return nil, fmt.Errorf("analysis: %d distinct markets exceeds limit of %d: %w",
			len(ids), MaxScenarioMarkets, domain.ErrTooManyMarkets)
	}

	yesProb := make(map[string]float64, len(ids))
	for _, p := range positions {
		if _, ok := yesProb[p.MarketID]; ok {
			continue
		}
		if price, ok := prices[p.MarketID]; ok {
			yesProb[p.MarketID] = price
			continue
		}
		if p.Side == domain.SideYes {
			yesProb[p.MarketID] = p.EntryPrice
		} else {
			yesProb[p.MarketID] = 1 - p.EntryPrice
		}
	}

	total := 1 << len(ids)
	scenarios := make([]domain.OutcomeScenario, 0, total)
	for mask := 0; mask < total; mask++ {
		outcomes := make(map[string]domain.Side, len(ids))
		probability := 1.0
		for i, id := range ids {
			if mask&(1<<i) != 0 {
				outcomes[id] = domain.SideYes
				probability *= yesProb[id]
			} else {
				outcomes[id] = domain.SideNo
				probability *= 1 - yesProb[id]
			}
		}

		payoff := 0.0
		for _, p := range positions {
			payoff += ResolutionPayoff(p, outcomes[p.MarketID])
		}

		scenarios = append(scenarios, domain.OutcomeScenario{
			ID:          fmt.Sprintf("scenario-%d", mask),
			Outcomes:    outcomes,
			Probability: probability,
			Payoff:      payoff,
		})
	}
	return scenarios, nil
}
