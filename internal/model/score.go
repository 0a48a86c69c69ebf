package model

import "time"

// StrategyScore is the uniform output of one strategy for one candidate.
// Score is on the raw 0-100 domain; the orchestrator normalizes to [0,1].
type StrategyScore struct {
	Strategy   StrategyType     `json:"strategy"`
	Score      float64          `json:"score"`
	Confidence float64          `json:"confidence"`
	Reasoning  string           `json:"reasoning"`
	Metadata   StrategyMetadata `json:"metadata"`
}

// StrategyMetadata is a tagged union keyed by strategy type. Exactly one
// variant is set for a genuine score; all are nil on a fallback.
type StrategyMetadata struct {
	Anchor     *AnchorMetadata     `json:"anchor,omitempty"`
	Cluster    *ClusterMetadata    `json:"cluster,omitempty"`
	Economic   *EconomicMetadata   `json:"economic,omitempty"`
	WhiteSpace *WhiteSpaceMetadata `json:"white_space,omitempty"`
}

// Empty reports whether no variant is set, which distinguishes an
// orchestrator fallback from a genuine strategy result.
func (m StrategyMetadata) Empty() bool {
	return m.Anchor == nil && m.Cluster == nil && m.Economic == nil && m.WhiteSpace == nil
}

// AnchorMetadata carries the anchor strategy's per-candidate detail.
type AnchorMetadata struct {
	Anchors         []AnchorLocation `json:"anchors"`
	CompositeScore  float64          `json:"composite_score"`
	IsSuperLocation bool             `json:"is_super_location"`
}

// ClusterMetadata carries the cluster strategy's per-candidate detail.
type ClusterMetadata struct {
	NearestClusterID string  `json:"nearest_cluster_id,omitempty"`
	DistanceKM       float64 `json:"distance_km"`
	PatternMatch     float64 `json:"pattern_match"`
	Boost            float64 `json:"boost"`
	ClusterStrength  float64 `json:"cluster_strength"`
}

// EconomicIndicators is the demographic provider's response for a point.
type EconomicIndicators struct {
	Population           int     `json:"population"`
	PopulationGrowthRate float64 `json:"population_growth_rate"`
	MedianIncome         float64 `json:"median_income"`
	IncomeIndex          float64 `json:"income_index"`
	GrowthTrajectory     string  `json:"growth_trajectory"`
	DataCompleteness     float64 `json:"data_completeness"`
	DataSource           string  `json:"data_source"`
}

// EconomicMetadata carries the economic strategy's per-candidate detail.
type EconomicMetadata struct {
	Indicators EconomicIndicators `json:"indicators"`
	RawScore   float64            `json:"raw_score"`
	Multiplier float64            `json:"multiplier"`
}

// WhiteSpaceMetadata carries the white-space strategy's per-candidate detail.
type WhiteSpaceMetadata struct {
	NearestStoreKM float64   `json:"nearest_store_km"`
	AreaClass      AreaClass `json:"area_class"`
	CoverageGap    float64   `json:"coverage_gap"`
}

// ConfidenceBand summarizes the weighted total into an operator-facing band.
type ConfidenceBand string

const (
	ConfidenceHigh         ConfidenceBand = "HIGH"
	ConfidenceMedium       ConfidenceBand = "MEDIUM"
	ConfidenceLow          ConfidenceBand = "LOW"
	ConfidenceInsufficient ConfidenceBand = "INSUFFICIENT_DATA"
)

// ClassificationMulti labels a candidate where two or more strategies
// exceed the strong-score threshold.
const ClassificationMulti = "multi_strategy"

// StrategyBreakdown holds per-strategy normalized scores and the weighted
// aggregate for one candidate.
type StrategyBreakdown struct {
	WhiteSpaceScore float64 `json:"white_space_score"`
	EconomicScore   float64 `json:"economic_score"`
	AnchorScore     float64 `json:"anchor_score"`
	ClusterScore    float64 `json:"cluster_score"`

	WeightedTotal    float64      `json:"weighted_total"`
	DominantStrategy StrategyType `json:"dominant_strategy"`
	Classification   string       `json:"classification"`
}

// Score returns the normalized score for the given strategy type.
func (b StrategyBreakdown) Score(t StrategyType) float64 {
	switch t {
	case StrategyWhiteSpace:
		return b.WhiteSpaceScore
	case StrategyEconomic:
		return b.EconomicScore
	case StrategyAnchor:
		return b.AnchorScore
	case StrategyCluster:
		return b.ClusterScore
	}
	return 0
}

// StrategicSuggestion is the orchestrator's output for one candidate.
// Constructed once per candidate per orchestration call, immutable
// thereafter; this is the unit that gets cached downstream.
type StrategicSuggestion struct {
	CellID     string  `json:"cell_id"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`

	Confidence ConfidenceBand    `json:"confidence"`
	Breakdown  StrategyBreakdown `json:"breakdown"`

	// Per-strategy detail surfaced from strategy metadata.
	Scores []StrategyScore `json:"scores"`

	Summary          string   `json:"summary"`
	Highlights       []string `json:"highlights,omitempty"`
	RiskFactors      []string `json:"risk_factors,omitempty"`
	DataCompleteness float64  `json:"data_completeness"`

	GeneratedAt time.Time `json:"generated_at"`
}
