package scanner

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// Rule confidence levels. Arbitrage is pure price arithmetic so it carries
// the highest confidence; sum-to-one depends on the cluster really being
// exhaustive, which the scanner cannot verify.
const (
	confidenceSumToOne  = 75
	confidenceThreshold = 85
	confidenceArbitrage = 95

	sellAboveAvgTolerance = 1.10
)

// Scanner runs the inefficiency rules over a market cluster. It is stateless
// and safe for concurrent use; all configuration travels with each call.
type Scanner struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Scanner {
	return &Scanner{
		logger: logger.With(slog.String("component", "scanner")),
	}
}

// ScanCluster runs every enabled rule against the cluster and returns the
// flags sorted by severity, highest first. Rule order is fixed: sum-to-one,
// threshold-consistency, arbitrage-bundle. The sort is stable so equal
// severities keep that order.
func (s *Scanner) ScanCluster(cluster domain.MarketCluster, cfg domain.ScannerConfig) domain.ScanResult {
	start := time.Now()

	var flags []domain.ScannerFlag
	var checks []domain.RuleType

	if cfg.RuleEnabled(domain.RuleSumToOne) &&
		(cluster.Type == domain.ClusterMutualExclusive || cluster.Type == domain.ClusterCustom) {
		checks = append(checks, domain.RuleSumToOne)
		if f := s.CheckSumToOne(cluster.Markets, cfg.SumToOneThreshold); f != nil {
			flags = append(flags, *f)
		}
	}

	if cfg.RuleEnabled(domain.RuleThresholdConsistency) &&
		cluster.Type == domain.ClusterThreshold && cluster.Thresholds != nil {
		checks = append(checks, domain.RuleThresholdConsistency)
		if f := s.CheckThresholdConsistency(cluster.Markets, cluster.Thresholds.Markets, cfg.ThresholdMargin); f != nil {
			flags = append(flags, *f)
		}
	}

	if cfg.RuleEnabled(domain.RuleArbitrageBundle) {
		checks = append(checks, domain.RuleArbitrageBundle)
		if f := s.CheckArbitrageBundles(cluster.Markets, cfg.MinArbitrageProfit); f != nil {
			flags = append(flags, *f)
		}
	}

	sort.SliceStable(flags, func(i, j int) bool {
		return flags[i].SeverityScore > flags[j].SeverityScore
	})

	result := domain.ScanResult{
		ScanID:          uuid.NewString(),
		Cluster:         cluster,
		Flags:           flags,
		ScannedAt:       start.UTC(),
		ScanDuration:    time.Since(start),
		ChecksPerformed: checks,
	}

	s.logger.Info("cluster scanned",
		slog.String("cluster", cluster.Name),
		slog.String("type", string(cluster.Type)),
		slog.Int("markets", len(cluster.Markets)),
		slog.Int("flags", len(flags)),
	)
	return result
}

// CheckSumToOne verifies that the YES prices of a mutually exclusive set of
// markets sum to roughly 1. Returns nil when fewer than two markets are
// present or the deviation stays within threshold.
func (s *Scanner) CheckSumToOne(markets []domain.Market, threshold float64) *domain.ScannerFlag {
	if len(markets) < 2 {
		return nil
	}

	sum := 0.0
	for _, m := range markets {
		sum += m.YesPrice()
	}
	deviation := math.Abs(sum - 1)
	if deviation <= threshold {
		return nil
	}

	direction := "Overpriced"
	if sum < 1 {
		direction = "Underpriced"
	}

	avg := 1.0 / float64(len(markets))
	ids := make([]string, 0, len(markets))
	trades := make([]domain.SuggestedTrade, 0, len(markets))
	for _, m := range markets {
		ids = append(ids, m.ID)
		price := m.YesPrice()
		trade := domain.SuggestedTrade{
			MarketID: m.ID,
			Weight:   math.Abs(price - avg),
		}
		if price > avg*sellAboveAvgTolerance {
			trade.Side = domain.SideNo
			trade.Reason = fmt.Sprintf("priced %.3f against a uniform average of %.3f", price, avg)
		} else {
			trade.Side = domain.SideYes
			trade.Reason = fmt.Sprintf("priced %.3f at or below the uniform average of %.3f", price, avg)
		}
		trades = append(trades, trade)
	}

	profit := deviation
	score := severityScore(deviation * 500)
	return &domain.ScannerFlag{
		ID:            uuid.NewString(),
		RuleType:      domain.RuleSumToOne,
		Severity:      domain.SeverityFromScore(score),
		SeverityScore: score,
		Title:         fmt.Sprintf("%s outcome set: prices sum to %.3f", direction, sum),
		Explanation: fmt.Sprintf(
			"YES prices across %d mutually exclusive markets sum to %.3f instead of 1.000 (deviation %.3f).",
			len(markets), sum, deviation),
		MarketIDs:       ids,
		SuggestedTrades: trades,
		PotentialProfit: &profit,
		Confidence:      confidenceSumToOne,
		DetectedAt:      time.Now().UTC(),
	}
}

// CheckThresholdConsistency verifies monotonicity of a threshold ladder: the
// probability of exceeding a higher threshold can never exceed the
// probability of exceeding a lower one. All violating adjacent pairs are
// aggregated into one flag.
func (s *Scanner) CheckThresholdConsistency(markets []domain.Market, thresholds []domain.MarketThreshold, margin float64) *domain.ScannerFlag {
	if len(thresholds) < 2 {
		return nil
	}

	byID := make(map[string]domain.Market, len(markets))
	for _, m := range markets {
		byID[m.ID] = m
	}

	sorted := make([]domain.MarketThreshold, len(thresholds))
	copy(sorted, thresholds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value < sorted[j].Value
	})

	var (
		maxDeviation float64
		violations   []string
		ids          []string
		trades       []domain.SuggestedTrade
	)
	for i := 0; i < len(sorted)-1; i++ {
		lower, higher := sorted[i], sorted[i+1]
		lowerPrice := byID[lower.MarketID].YesPrice()
		higherPrice := byID[higher.MarketID].YesPrice()

		deviation := higherPrice - lowerPrice
		if deviation <= margin {
			continue
		}
		if deviation > maxDeviation {
			maxDeviation = deviation
		}
		violations = append(violations, fmt.Sprintf(
			"threshold %.0f priced %.3f vs threshold %.0f priced %.3f",
			higher.Value, higherPrice, lower.Value, lowerPrice))
		ids = append(ids, lower.MarketID, higher.MarketID)
		trades = append(trades,
			domain.SuggestedTrade{
				MarketID: higher.MarketID,
				Side:     domain.SideNo,
				Weight:   deviation,
				Reason:   fmt.Sprintf("higher threshold %.0f priced above lower threshold %.0f", higher.Value, lower.Value),
			},
			domain.SuggestedTrade{
				MarketID: lower.MarketID,
				Side:     domain.SideYes,
				Weight:   deviation,
				Reason:   fmt.Sprintf("lower threshold %.0f underpriced relative to %.0f", lower.Value, higher.Value),
			},
		)
	}
	if len(violations) == 0 {
		return nil
	}

	score := severityScore(maxDeviation * 300)
	return &domain.ScannerFlag{
		ID:            uuid.NewString(),
		RuleType:      domain.RuleThresholdConsistency,
		Severity:      domain.SeverityFromScore(score),
		SeverityScore: score,
		Title:         fmt.Sprintf("Threshold ladder inverted in %d place(s)", len(violations)),
		Explanation: "Exceeding a higher threshold can never be more likely than exceeding a lower one: " +
			strings.Join(violations, "; ") + ".",
		MarketIDs:       dedupe(ids),
		SuggestedTrades: trades,
		Confidence:      confidenceThreshold,
		DetectedAt:      time.Now().UTC(),
	}
}

// CheckArbitrageBundles looks for a market whose two outcome prices do not
// add up to the guaranteed $1 payout. It reports the first qualifying market
// in input order and stops there; it deliberately does not aggregate across
// the whole cluster.
func (s *Scanner) CheckArbitrageBundles(markets []domain.Market, minProfit float64) *domain.ScannerFlag {
	for _, m := range markets {
		totalCost := m.YesPrice() + m.NoPrice()

		switch {
		case totalCost < 1-minProfit:
			profitMargin := (1 - totalCost) / totalCost
			score := severityScore(profitMargin * 500)
			return &domain.ScannerFlag{
				ID:            uuid.NewString(),
				RuleType:      domain.RuleArbitrageBundle,
				Severity:      domain.SeverityFromScore(score),
				SeverityScore: score,
				Title:         fmt.Sprintf("Risk-free arbitrage: both sides cost %.3f", totalCost),
				Explanation: fmt.Sprintf(
					"Buying YES and NO on %q costs %.3f for a guaranteed $1 payout, a %.1f%% margin.",
					m.Question, totalCost, profitMargin*100),
				MarketIDs: []string{m.ID},
				SuggestedTrades: []domain.SuggestedTrade{
					{MarketID: m.ID, Side: domain.SideYes, Weight: profitMargin, Reason: "buy both sides below combined $1 payout"},
					{MarketID: m.ID, Side: domain.SideNo, Weight: profitMargin, Reason: "buy both sides below combined $1 payout"},
				},
				PotentialProfit: &profitMargin,
				Confidence:      confidenceArbitrage,
				DetectedAt:      time.Now().UTC(),
			}
		case totalCost > 1+minProfit:
			profitMargin := totalCost - 1
			score := severityScore(profitMargin * 500)
			return &domain.ScannerFlag{
				ID:            uuid.NewString(),
				RuleType:      domain.RuleArbitrageBundle,
				Severity:      domain.SeverityFromScore(score),
				SeverityScore: score,
				Title:         fmt.Sprintf("Overpriced outcomes: both sides cost %.3f", totalCost),
				Explanation: fmt.Sprintf(
					"YES and NO on %q together cost %.3f against a $1 payout; selling the bundle captures the excess.",
					m.Question, totalCost),
				MarketIDs: []string{m.ID},
				SuggestedTrades: []domain.SuggestedTrade{
					{MarketID: m.ID, Side: domain.SideNo, Weight: profitMargin, Reason: "sell the overpriced bundle"},
				},
				PotentialProfit: &profitMargin,
				Confidence:      confidenceArbitrage,
				DetectedAt:      time.Now().UTC(),
			}
		}
	}
	return nil
}

// severityScore rounds and clamps a raw rule score to the 0..100 scale.
func severityScore(raw float64) int {
	return int(math.Min(100, math.Round(raw)))
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
