package analysis

import "github.com/alanyoungcy/polyscan/internal/domain"

// resolutionLegs returns the payoff of a position under each literal
// resolution. A YES stake s at entry p pays s*(1/p-1) when the market
// resolves YES and loses the stake otherwise; a NO position mirrors that
// with the complementary price 1-p. Entry prices of exactly 0 or 1 produce
// Inf/NaN rather than an error: sanitizing entries is the caller's job.
func resolutionLegs(p domain.Position) (yes, no float64) {
	if p.Side == domain.SideYes {
		return p.Stake * (1/p.EntryPrice - 1), -p.Stake
	}
	noPrice := 1 - p.EntryPrice
	return -p.Stake, p.Stake * (1/noPrice - 1)
}

// PositionPayoff values a position at a hypothetical YES probability in
// [0,1]. It linearly interpolates between the two resolution legs, which is
// the expected payoff if the market were settled at that probability.
func PositionPayoff(p domain.Position, probability float64) float64 {
	yes, no := resolutionLegs(p)
	return probability*yes + (1-probability)*no
}

// ResolutionPayoff values a position under an actual resolution outcome,
// returning only the matching leg.
func ResolutionPayoff(p domain.Position, outcome domain.Side) float64 {
	yes, no := resolutionLegs(p)
	if outcome == domain.SideYes {
		return yes
	}
	return no
}
