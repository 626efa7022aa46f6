package domain

import "time"

// RuleType identifies one of the scanner's inefficiency checks.
type RuleType string

const (
	RuleSumToOne             RuleType = "sum_to_one"
	RuleThresholdConsistency RuleType = "threshold_consistency"
	RuleArbitrageBundle      RuleType = "arbitrage_bundle"
)

// Severity buckets a 0-100 severity score for display.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityFromScore maps a 0-100 severity score to its display bucket.
func SeverityFromScore(score int) Severity {
	switch {
	case score >= 70:
		return SeverityHigh
	case score >= 40:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// SuggestedTrade is one leg of the scanner's suggested response to a flag.
// Weight is a relative stake weight derived from the price deviation, not a
// dollar amount.
type SuggestedTrade struct {
	MarketID string  `json:"market_id"`
	Side     Side    `json:"side"`
	Weight   float64 `json:"weight"`
	Reason   string  `json:"reason"`
}

// ScannerFlag is a single detected inefficiency. Flags are ephemeral: they
// are produced per scan call and never mutated afterwards.
type ScannerFlag struct {
	ID              string           `json:"id"`
	RuleType        RuleType         `json:"rule_type"`
	Severity        Severity         `json:"severity"`
	SeverityScore   int              `json:"severity_score"` // 0-100
	Title           string           `json:"title"`
	Explanation     string           `json:"explanation"`
	MarketIDs       []string         `json:"market_ids"`
	SuggestedTrades []SuggestedTrade `json:"suggested_trades"`
	PotentialProfit *float64         `json:"potential_profit,omitempty"` // per $1 of exposure
	Confidence      int              `json:"confidence"`                 // 0-100
	DetectedAt      time.Time        `json:"detected_at"`
}

// ScannerConfig tunes the scanner's rule thresholds and selects which rules
// run. The zero value is not usable; start from DefaultScannerConfig.
type ScannerConfig struct {
	SumToOneThreshold  float64    `json:"sum_to_one_threshold"`
	ThresholdMargin    float64    `json:"threshold_margin"`
	MinArbitrageProfit float64    `json:"min_arbitrage_profit"`
	EnabledRules       []RuleType `json:"enabled_rules"`
}

// Default rule thresholds.
const (
	DefaultSumToOneThreshold  = 0.05
	DefaultThresholdMargin    = 0.02
	DefaultMinArbitrageProfit = 0.01
)

// DefaultScannerConfig returns a config with all three rules enabled and the
// documented default thresholds.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		SumToOneThreshold:  DefaultSumToOneThreshold,
		ThresholdMargin:    DefaultThresholdMargin,
		MinArbitrageProfit: DefaultMinArbitrageProfit,
		EnabledRules: []RuleType{
			RuleSumToOne,
			RuleThresholdConsistency,
			RuleArbitrageBundle,
		},
	}
}

// RuleEnabled reports whether the given rule is in the enabled set.
func (c ScannerConfig) RuleEnabled(rule RuleType) bool {
	for _, r := range c.EnabledRules {
		if r == rule {
			return true
		}
	}
	return false
}

// ScanResult is the outcome of one scanner pass over a cluster. Flags are
// sorted descending by severity score; ties keep rule execution order.
type ScanResult struct {
	ScanID          string        `json:"scan_id"`
	Cluster         MarketCluster `json:"cluster"`
	Flags           []ScannerFlag `json:"flags"`
	ScannedAt       time.Time     `json:"scanned_at"`
	ScanDuration    time.Duration `json:"scan_duration"`
	ChecksPerformed []RuleType    `json:"checks_performed"`
}
