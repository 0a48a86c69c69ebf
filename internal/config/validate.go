package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// WeightTolerance is the allowed deviation of the strategy weight sum from 1.0.
const WeightTolerance = 0.01

// knownStrategies are the strategy names that may appear in enabled_strategies.
var knownStrategies = map[string]bool{
	"white_space": true,
	"economic":    true,
	"anchor":      true,
	"cluster":     true,
}

// Validate checks that a StrategyConfig is internally consistent.
// An invalid config is a fatal construction error for the orchestrator,
// never a tolerated state.
func (c StrategyConfig) Validate() error {
	var errs []string

	weights := map[string]float64{
		"white_space_weight": c.WhiteSpaceWeight,
		"economic_weight":    c.EconomicWeight,
		"anchor_weight":      c.AnchorWeight,
		"cluster_weight":     c.ClusterWeight,
	}
	for name, w := range weights {
		if w < 0 || w > 1 {
			errs = append(errs, fmt.Sprintf("%s must be in [0,1], got %.3f", name, w))
		}
	}

	if sum := c.WeightSum(); math.Abs(sum-1.0) > WeightTolerance {
		errs = append(errs, fmt.Sprintf("strategy weights must sum to 1.0 (±%.2f), got %.3f", WeightTolerance, sum))
	}

	if len(c.EnabledStrategies) == 0 {
		errs = append(errs, "at least one strategy must be enabled")
	}
	for _, s := range c.EnabledStrategies {
		if !knownStrategies[s] {
			errs = append(errs, fmt.Sprintf("unknown strategy %q in enabled_strategies", s))
		}
	}

	positive := map[string]float64{
		"coverage.urban_km":          c.Coverage.UrbanKM,
		"coverage.suburban_km":       c.Coverage.SuburbanKM,
		"coverage.rural_km":          c.Coverage.RuralKM,
		"density.sample_radius_km":   c.Density.SampleRadiusKM,
		"economic_reference_score":   c.EconomicReferenceScore,
		"cluster_max_radius_km":      c.ClusterMaxRadiusKM,
		"cluster_reference_turnover": c.ClusterReferenceTurnover,
		"cluster_max_influence_km":   c.ClusterMaxInfluenceKM,
	}
	for name, v := range positive {
		if v <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be > 0, got %.2f", name, v))
		}
	}

	positiveInts := map[string]int{
		"anchors.transport_m":           c.Anchors.TransportM,
		"anchors.education_m":           c.Anchors.EducationM,
		"anchors.retail_m":              c.Anchors.RetailM,
		"anchors.service_m":             c.Anchors.ServiceM,
		"cluster_min_stores":            c.ClusterMinStores,
		"cluster_reference_store_count": c.ClusterReferenceStoreCount,
		"max_parallelism":               c.MaxParallelism,
		"score_timeout_secs":            c.ScoreTimeoutSecs,
	}
	for name, v := range positiveInts {
		if v <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be > 0, got %d", name, v))
		}
	}

	if c.HighPerformerPercentile <= 0 || c.HighPerformerPercentile >= 100 {
		errs = append(errs, fmt.Sprintf("high_performer_percentile must be in (0,100), got %.1f", c.HighPerformerPercentile))
	}

	if len(errs) > 0 {
		return eris.New("strategy config invalid: " + strings.Join(errs, "; "))
	}
	return nil
}
