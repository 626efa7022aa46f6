package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/polyscan/internal/analysis"
	"github.com/alanyoungcy/polyscan/internal/domain"
)

// AnalysisService is the validating boundary in front of the payoff engine.
// The engine itself assumes entry prices strictly inside (0,1) and
// non-negative stakes; this service rejects anything else before the math
// runs, so degenerate Inf/NaN payoffs never leave the process.
type AnalysisService struct {
	provider domain.MarketProvider
	analyzer *analysis.Analyzer
	defaults AnalysisDefaults
	logger   *slog.Logger
}

// AnalysisDefaults are the grid parameters used when a request leaves them
// unset. Zero fields keep the package-level analysis defaults.
type AnalysisDefaults struct {
	CurveSteps   int
	ProbSteps    int
	TimeSteps    int
	MaxDays      float64
	DiscountRate float64
}

func NewAnalysisService(provider domain.MarketProvider, analyzer *analysis.Analyzer, logger *slog.Logger) *AnalysisService {
	return &AnalysisService{
		provider: provider,
		analyzer: analyzer,
		logger:   logger,
	}
}

// WithDefaults overrides the fallback grid parameters, typically from the
// operator's configuration file.
func (s *AnalysisService) WithDefaults(d AnalysisDefaults) *AnalysisService {
	s.defaults = d
	return s
}

// Analyze validates the strategy, resolves current prices for its markets,
// and runs the full analysis.
func (s *AnalysisService) Analyze(ctx context.Context, strategy domain.Strategy) (domain.StrategyAnalysis, error) {
	if err := validatePositions(strategy.Positions); err != nil {
		return domain.StrategyAnalysis{}, err
	}
	if strategy.DiscountRate == 0 && s.defaults.DiscountRate > 0 {
		strategy.DiscountRate = s.defaults.DiscountRate
	}

	prices := s.currentPrices(ctx, strategy.Positions)
	result, err := s.analyzer.AnalyzeStrategy(strategy, prices)
	if err != nil {
		return domain.StrategyAnalysis{}, fmt.Errorf("analysis_service: analyze: %w", err)
	}
	return result, nil
}

// Curve returns the payoff curve for a validated strategy.
func (s *AnalysisService) Curve(_ context.Context, strategy domain.Strategy, steps int) ([]domain.PayoffPoint, error) {
	if err := validatePositions(strategy.Positions); err != nil {
		return nil, err
	}
	if steps <= 0 {
		steps = s.defaults.CurveSteps
	}
	if steps <= 0 {
		steps = analysis.DefaultCurveSteps
	}
	return s.analyzer.PayoffCurve(strategy.Positions, steps), nil
}

// Surface returns the discounted payoff surface for a validated strategy.
func (s *AnalysisService) Surface(_ context.Context, strategy domain.Strategy, probSteps, timeSteps int, maxDays float64) (domain.PayoffSurface, error) {
	if err := validatePositions(strategy.Positions); err != nil {
		return domain.PayoffSurface{}, err
	}
	if probSteps <= 0 {
		probSteps = s.defaults.ProbSteps
	}
	if probSteps <= 0 {
		probSteps = analysis.DefaultProbSteps
	}
	if timeSteps <= 0 {
		timeSteps = s.defaults.TimeSteps
	}
	if timeSteps <= 0 {
		timeSteps = analysis.DefaultTimeSteps
	}
	if maxDays <= 0 {
		maxDays = s.defaults.MaxDays
	}
	if maxDays <= 0 {
		maxDays = analysis.DefaultMaxDays
	}
	return s.analyzer.PayoffSurface(strategy.Positions, strategy.Rate(), probSteps, timeSteps, maxDays), nil
}

// currentPrices collects the current YES price of every market the strategy
// references. A market that cannot be resolved is simply left out; the
// enumeration then falls back to the entry-implied probability.
func (s *AnalysisService) currentPrices(ctx context.Context, positions []domain.Position) map[string]float64 {
	prices := make(map[string]float64, len(positions))
	for _, p := range positions {
		if _, ok := prices[p.MarketID]; ok {
			continue
		}
		m, err := s.provider.Snapshot(ctx, p.MarketID)
		if err != nil {
			s.logger.WarnContext(ctx, "analysis_service: no snapshot, using entry-implied probability",
				slog.String("market_id", p.MarketID),
				slog.String("error", err.Error()),
			)
			continue
		}
		prices[p.MarketID] = m.YesPrice()
	}
	return prices
}

func validatePositions(positions []domain.Position) error {
	for i, p := range positions {
		if p.MarketID == "" {
			return fmt.Errorf("analysis_service: position %d: missing market id: %w", i, domain.ErrInvalidPosition)
		}
		if p.Side != domain.SideYes && p.Side != domain.SideNo {
			return fmt.Errorf("analysis_service: position %d: side %q: %w", i, p.Side, domain.ErrInvalidPosition)
		}
		if p.Stake < 0 {
			return fmt.Errorf("analysis_service: position %d: negative stake: %w", i, domain.ErrInvalidPosition)
		}
		if p.EntryPrice <= 0 || p.EntryPrice >= 1 {
			return fmt.Errorf("analysis_service: position %d: entry price %v outside (0,1): %w", i, p.EntryPrice, domain.ErrInvalidPosition)
		}
	}
	return nil
}
