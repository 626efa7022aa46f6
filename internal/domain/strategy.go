package domain

import "time"

// Side is a binary market resolution side.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// DefaultDiscountRate is the annual rate applied to time-value calculations
// when a strategy does not specify one.
const DefaultDiscountRate = 0.10

// Position is a stake taken on one side of a market. EntryPrice is the price
// paid for that side and must lie strictly inside (0,1): the payoff formulas
// divide by it, and an entry of exactly 0 or 1 propagates Inf/NaN by design.
// Callers sanitize prices before constructing positions; the analysis engine
// does not clamp.
type Position struct {
	MarketID   string  `json:"market_id"`
	Side       Side    `json:"side"`
	Stake      float64 `json:"stake"` // USD, >= 0
	EntryPrice float64 `json:"entry_price"`
}

// Strategy is an ordered list of positions analyzed as a unit.
type Strategy struct {
	Positions    []Position `json:"positions"`
	DiscountRate float64    `json:"discount_rate"` // annual; 0 means DefaultDiscountRate
}

// Rate returns the strategy's discount rate, falling back to the default.
func (s Strategy) Rate() float64 {
	if s.DiscountRate == 0 {
		return DefaultDiscountRate
	}
	return s.DiscountRate
}

// PayoffPoint is one sample of the payoff curve: the aggregate payoff if the
// strategy's markets moved to the given hypothetical probability.
type PayoffPoint struct {
	Probability float64 `json:"probability"`
	Payoff      float64 `json:"payoff"`
	ReturnPct   float64 `json:"return_pct"`
}

// PayoffSurfacePoint is one cell of the payoff surface: probability crossed
// with days-to-resolution, payoff discounted to present value.
type PayoffSurfacePoint struct {
	Probability float64 `json:"probability"`
	Days        float64 `json:"days"`
	Payoff      float64 `json:"payoff"`
	ReturnPct   float64 `json:"return_pct"`
}

// PayoffSurface is the full probability x time grid with its summary
// statistics. ExpectedValue averages only the zero-day row (the undiscounted
// baseline) while TimeWeightedEV averages every cell; the two answer
// different questions and are intentionally separate.
type PayoffSurface struct {
	Points         []PayoffSurfacePoint `json:"points"`
	MinPayoff      float64              `json:"min_payoff"`
	MaxPayoff      float64              `json:"max_payoff"`
	ExpectedValue  float64              `json:"expected_value"`
	TimeWeightedEV float64              `json:"time_weighted_ev"`
}

// OutcomeScenario is one concrete YES/NO assignment across every distinct
// market a strategy references, with its joint probability (markets treated
// as independent; positions on the same market share its assignment) and the
// strategy's aggregate payoff under that assignment.
type OutcomeScenario struct {
	ID          string          `json:"id"`
	Outcomes    map[string]Side `json:"outcomes"`
	Probability float64         `json:"probability"`
	Payoff      float64         `json:"payoff"`
}

// StrategyAnalysis is the complete risk/reward picture for a strategy. It is
// recomputed fresh from the Strategy value on every call; identical inputs
// yield numerically identical results except for GeneratedAt.
type StrategyAnalysis struct {
	TotalStake           float64           `json:"total_stake"`
	ExpectedPayoff       float64           `json:"expected_payoff"`
	ExpectedReturnPct    float64           `json:"expected_return_pct"`
	MaxProfit            float64           `json:"max_profit"`
	MaxLoss              float64           `json:"max_loss"`
	BreakEvenProbability float64           `json:"break_even_probability"`
	Scenarios            []OutcomeScenario `json:"scenarios"`
	Curve                []PayoffPoint     `json:"curve"`
	Surface              PayoffSurface     `json:"surface"`
	GeneratedAt          time.Time         `json:"generated_at"`
}
