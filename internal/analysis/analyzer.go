package analysis

import (
	"log/slog"
	"time"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// Grid defaults used when a caller does not override resolution.
const (
	DefaultCurveSteps = 20
	DefaultProbSteps  = 10
	DefaultTimeSteps  = 10
	DefaultMaxDays    = 90.0
)

// Analyzer evaluates strategies over hypothetical probabilities, time
// horizons, and joint resolutions. All methods are pure; the logger only
// records what was computed.
type Analyzer struct {
	logger *slog.Logger
}

func NewAnalyzer(logger *slog.Logger) *Analyzer {
	return &Analyzer{
		logger: logger.With(slog.String("component", "analyzer")),
	}
}

// PayoffCurve evaluates the aggregate payoff of the positions at steps+1
// evenly spaced probabilities spanning [0,1] inclusive.
func (a *Analyzer) PayoffCurve(positions []domain.Position, steps int) []domain.PayoffPoint {
	totalStake := stakeSum(positions)
	points := make([]domain.PayoffPoint, 0, steps+1)
	for i := 0; i <= steps; i++ {
		prob := float64(i) / float64(steps)
		payoff := aggregatePayoff(positions, prob)
		points = append(points, domain.PayoffPoint{
			Probability: prob,
			Payoff:      payoff,
			ReturnPct:   returnPct(payoff, totalStake),
		})
	}
	return points
}

// PayoffSurface evaluates the aggregate payoff over a probability/time grid,
// discounting each cell to present value. ExpectedValue averages only the
// zero-day row, the undiscounted baseline; TimeWeightedEV averages the whole
// grid and so bakes in the discount. The two are distinct statistics and are
// kept separate on purpose.
func (a *Analyzer) PayoffSurface(positions []domain.Position, rate float64, probSteps, timeSteps int, maxDays float64) domain.PayoffSurface {
	totalStake := stakeSum(positions)

	surface := domain.PayoffSurface{
		Points: make([]domain.PayoffSurfacePoint, 0, (probSteps+1)*(timeSteps+1)),
	}
	var (
		zeroDaySum float64
		gridSum    float64
		first      = true
	)
	for ti := 0; ti <= timeSteps; ti++ {
		days := maxDays * float64(ti) / float64(timeSteps)
		for pi := 0; pi <= probSteps; pi++ {
			prob := float64(pi) / float64(probSteps)
			payoff := ApplyTimeDiscount(aggregatePayoff(positions, prob), days, rate)

			surface.Points = append(surface.Points, domain.PayoffSurfacePoint{
				Probability: prob,
				Days:        days,
				Payoff:      payoff,
				ReturnPct:   returnPct(payoff, totalStake),
			})
			if first || payoff < surface.MinPayoff {
				surface.MinPayoff = payoff
			}
			if first || payoff > surface.MaxPayoff {
				surface.MaxPayoff = payoff
			}
			first = false

			gridSum += payoff
			if ti == 0 {
				zeroDaySum += payoff
			}
		}
	}

	surface.ExpectedValue = zeroDaySum / float64(probSteps+1)
	surface.TimeWeightedEV = gridSum / float64((probSteps+1)*(timeSteps+1))
	return surface
}

// AnalyzeStrategy computes the full report for a strategy: scenario
// enumeration with joint probabilities, the payoff curve and surface, and
// the summary statistics derived from them. prices supplies the current YES
// price per market for scenario weighting.
func (a *Analyzer) AnalyzeStrategy(strategy domain.Strategy, prices map[string]float64) (domain.StrategyAnalysis, error) {
	scenarios, err := OutcomeScenarios(strategy.Positions, prices)
	if err != nil {
		return domain.StrategyAnalysis{}, err
	}

	totalStake := stakeSum(strategy.Positions)
	expectedPayoff := 0.0
	maxProfit, maxLoss := 0.0, 0.0
	for i, sc := range scenarios {
		expectedPayoff += sc.Payoff * sc.Probability
		if i == 0 || sc.Payoff > maxProfit {
			maxProfit = sc.Payoff
		}
		if i == 0 || sc.Payoff < maxLoss {
			maxLoss = sc.Payoff
		}
	}

	curve := a.PayoffCurve(strategy.Positions, DefaultCurveSteps)
	surface := a.PayoffSurface(strategy.Positions, strategy.Rate(), DefaultProbSteps, DefaultTimeSteps, DefaultMaxDays)

	analysis := domain.StrategyAnalysis{
		TotalStake:           totalStake,
		ExpectedPayoff:       expectedPayoff,
		ExpectedReturnPct:    returnPct(expectedPayoff, totalStake),
		MaxProfit:            maxProfit,
		MaxLoss:              maxLoss,
		BreakEvenProbability: breakEvenProbability(strategy.Positions, curve),
		Scenarios:            scenarios,
		Curve:                curve,
		Surface:              surface,
		GeneratedAt:          time.Now().UTC(),
	}

	a.logger.Info("strategy analyzed",
		slog.Int("positions", len(strategy.Positions)),
		slog.Int("scenarios", len(scenarios)),
		slog.Float64("expected_payoff", expectedPayoff),
	)
	return analysis, nil
}

// breakEvenProbability scans the curve for the first adjacent pair whose
// payoff changes sign and linearly interpolates the crossing. Empty
// strategies and curves with no crossing report the neutral 0.5.
func breakEvenProbability(positions []domain.Position, curve []domain.PayoffPoint) float64 {
	if len(positions) == 0 {
		return 0.5
	}
	for i := 0; i < len(curve)-1; i++ {
		a, b := curve[i], curve[i+1]
		if a.Payoff == 0 {
			return a.Probability
		}
		if (a.Payoff < 0) == (b.Payoff < 0) {
			continue
		}
		t := -a.Payoff / (b.Payoff - a.Payoff)
		return a.Probability + t*(b.Probability-a.Probability)
	}
	return 0.5
}

func aggregatePayoff(positions []domain.Position, probability float64) float64 {
	sum := 0.0
	for _, p := range positions {
		sum += PositionPayoff(p, probability)
	}
	return sum
}

func stakeSum(positions []domain.Position) float64 {
	total := 0.0
	for _, p := range positions {
		total += p.Stake
	}
	return total
}

func returnPct(payoff, totalStake float64) float64 {
	if totalStake == 0 {
		return 0
	}
	return payoff / totalStake * 100
}
