package domain

import "time"

// ClusterType classifies how the markets in a cluster relate to each other.
type ClusterType string

const (
	// ClusterMutualExclusive groups markets whose YES outcomes cannot all be
	// true at once (e.g. the outcomes of one election).
	ClusterMutualExclusive ClusterType = "mutual_exclusive"
	// ClusterThreshold groups markets parameterized by a numeric cutoff over
	// the same variable (e.g. "BTC above $50k" / "BTC above $60k").
	ClusterThreshold ClusterType = "threshold"
	// ClusterCorrelated groups markets that move together without a strict
	// logical constraint.
	ClusterCorrelated ClusterType = "correlated"
	// ClusterCustom is the catch-all for user-assembled groups.
	ClusterCustom ClusterType = "custom"
)

// MarketCluster is a group of related markets scanned jointly for pricing
// inconsistencies. It is assembled per scan request from current snapshots
// and is never persisted in this form.
type MarketCluster struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Type       ClusterType      `json:"type"`
	Markets    []Market         `json:"markets"`
	Thresholds *ThresholdConfig `json:"thresholds,omitempty"`
}

// ThresholdConfig describes the numeric cutoffs of a threshold cluster.
type ThresholdConfig struct {
	Variable string            `json:"variable"`
	Markets  []MarketThreshold `json:"markets"`
}

// MarketThreshold is one market's comparison clause: the normalized operator
// (">" or "<") and the cutoff value.
type MarketThreshold struct {
	MarketID string  `json:"market_id"`
	Operator string  `json:"operator"`
	Value    float64 `json:"value"`
}

// ClusterDefinition is the persisted form of a cluster: market references
// rather than full snapshots. Snapshots are resolved through a
// MarketProvider at scan time.
type ClusterDefinition struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Type       ClusterType      `json:"type"`
	MarketIDs  []string         `json:"market_ids"`
	Thresholds *ThresholdConfig `json:"thresholds,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
