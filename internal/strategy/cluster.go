package strategy

import (
	"context"
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/expansion-cli/internal/cluster"
	"github.com/sells-group/expansion-cli/internal/config"
	"github.com/sells-group/expansion-cli/internal/geo"
	"github.com/sells-group/expansion-cli/internal/model"
)

// patternBonusThreshold is the pattern-match score above which the proximity
// boost receives a 15% bonus.
const patternBonusThreshold = 0.7

// ClusterStrategy scores candidates by proximity to performance clusters of
// high-turnover stores, with linear distance decay.
type ClusterStrategy struct {
	analyzer *cluster.Analyzer
}

// NewClusterStrategy creates the cluster strategy.
func NewClusterStrategy(analyzer *cluster.Analyzer) *ClusterStrategy {
	return &ClusterStrategy{analyzer: analyzer}
}

func (s *ClusterStrategy) Name() model.StrategyType { return model.StrategyCluster }

func (s *ClusterStrategy) ValidateConfig(cfg config.StrategyConfig) error {
	if cfg.ClusterWeight < 0 || cfg.ClusterWeight > 1 {
		return eris.Errorf("cluster weight must be in [0,1], got %.3f", cfg.ClusterWeight)
	}
	if cfg.ClusterMinStores <= 0 {
		return eris.Errorf("cluster_min_stores must be positive, got %d", cfg.ClusterMinStores)
	}
	if cfg.ClusterMaxRadiusKM <= 0 || cfg.ClusterMaxInfluenceKM <= 0 {
		return eris.New("cluster radii must be positive")
	}
	return nil
}

func (s *ClusterStrategy) ScoreCandidate(ctx context.Context, cell model.ScoredCell, ec *model.ExpansionContext) (model.StrategyScore, error) {
	clusters, err := s.analyzer.ForRegion(ctx, ec)
	if err != nil {
		return model.StrategyScore{}, eris.Wrap(err, "cluster: load clusters")
	}

	if len(clusters) == 0 {
		sc := lowConfidenceScore(model.StrategyCluster, "no performance clusters identified in region")
		sc.Metadata.Cluster = &model.ClusterMetadata{}
		return sc, nil
	}

	nearest, distKM := cluster.Nearest(clusters, cell.Lat, cell.Lng)

	boost := cluster.ProximityBoost(nearest, distKM, ec.Config.ClusterMaxInfluenceKM)

	country, region := nearestStoreLocale(ec, cell.Lat, cell.Lng)
	pattern := cluster.PatternMatch(nearest, distKM, country, region)
	if pattern > patternBonusThreshold && boost > 0 {
		boost *= 1.15
	}

	raw := clamp(boost*ec.Config.ClusterWeight, 0, 100)

	var reasoning string
	if boost > 0 {
		reasoning = fmt.Sprintf("%.1f km from cluster of %d high performers (strength %.2f, pattern match %.2f)",
			distKM, nearest.StoreCount, nearest.Strength, pattern)
	} else {
		reasoning = fmt.Sprintf("nearest cluster %.1f km away, beyond %.0f km influence range",
			distKM, ec.Config.ClusterMaxInfluenceKM)
	}

	confidence := 0.85
	if boost == 0 {
		confidence = 0.5
	}

	return model.StrategyScore{
		Strategy:   model.StrategyCluster,
		Score:      raw,
		Confidence: confidence,
		Reasoning:  reasoning,
		Metadata: model.StrategyMetadata{
			Cluster: &model.ClusterMetadata{
				NearestClusterID: nearest.ID,
				DistanceKM:       distKM,
				PatternMatch:     pattern,
				Boost:            boost,
				ClusterStrength:  nearest.Strength,
			},
		},
	}, nil
}

// nearestStoreLocale infers the candidate's country/region from the closest
// placed store in the context. Candidates carry no locale of their own.
func nearestStoreLocale(ec *model.ExpansionContext, lat, lng float64) (country, region string) {
	best := math.MaxFloat64
	for _, st := range ec.Stores {
		if !st.Placed() {
			continue
		}
		if d := geo.DistanceKM(lat, lng, *st.Lat, *st.Lng); d < best {
			best = d
			country = st.Country
			region = st.Region
		}
	}
	return country, region
}
