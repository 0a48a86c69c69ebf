package strategy

import (
	"context"
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/expansion-cli/internal/config"
	"github.com/sells-group/expansion-cli/internal/geo"
	"github.com/sells-group/expansion-cli/internal/model"
)

// gapPriorWeight blends an upstream coverage-gap prior into the live gap
// score when the candidate carries one.
const gapPriorWeight = 0.3

// WhiteSpaceStrategy scores candidates by how far they sit from the
// existing network relative to the coverage radius of their area class.
type WhiteSpaceStrategy struct{}

// NewWhiteSpaceStrategy creates the white-space strategy.
func NewWhiteSpaceStrategy() *WhiteSpaceStrategy {
	return &WhiteSpaceStrategy{}
}

func (s *WhiteSpaceStrategy) Name() model.StrategyType { return model.StrategyWhiteSpace }

func (s *WhiteSpaceStrategy) ValidateConfig(cfg config.StrategyConfig) error {
	if cfg.WhiteSpaceWeight < 0 || cfg.WhiteSpaceWeight > 1 {
		return eris.Errorf("white-space weight must be in [0,1], got %.3f", cfg.WhiteSpaceWeight)
	}
	if cfg.Coverage.UrbanKM <= 0 || cfg.Coverage.SuburbanKM <= 0 || cfg.Coverage.RuralKM <= 0 {
		return eris.New("coverage radii must be positive")
	}
	if cfg.Density.SampleRadiusKM <= 0 {
		return eris.Errorf("density sample radius must be positive, got %.1f", cfg.Density.SampleRadiusKM)
	}
	if cfg.Density.UrbanMin <= cfg.Density.SuburbanMin {
		return eris.Errorf("urban density floor %d must exceed suburban floor %d",
			cfg.Density.UrbanMin, cfg.Density.SuburbanMin)
	}
	return nil
}

func (s *WhiteSpaceStrategy) ScoreCandidate(ctx context.Context, cell model.ScoredCell, ec *model.ExpansionContext) (model.StrategyScore, error) {
	stores := ec.RegionStores()

	nearest, count := surveyNetwork(stores, cell, ec.Config.Density.SampleRadiusKM)
	if math.IsInf(nearest, 1) {
		sc := lowConfidenceScore(model.StrategyWhiteSpace, "no placed stores in region to measure coverage against")
		sc.Metadata.WhiteSpace = &model.WhiteSpaceMetadata{AreaClass: model.AreaRural}
		return sc, nil
	}

	class := classifyArea(count, ec.Config.Density)
	coverage := coverageRadiusKM(class, ec.Config.Coverage)

	// Gap in [0,1]: 0 when on top of a store, 1 at or beyond the
	// coverage radius for the area class.
	gap := clamp(nearest/coverage, 0, 1)
	if cell.GapScore != nil {
		gap = (1-gapPriorWeight)*gap + gapPriorWeight*clamp(*cell.GapScore, 0, 1)
	}

	raw := clamp(gap*100*ec.Config.WhiteSpaceWeight, 0, 100)

	return model.StrategyScore{
		Strategy:   model.StrategyWhiteSpace,
		Score:      raw,
		Confidence: 0.9,
		Reasoning: fmt.Sprintf("nearest store %.1f km away in %s area (coverage radius %.1f km, gap %.2f)",
			nearest, class, coverage, gap),
		Metadata: model.StrategyMetadata{
			WhiteSpace: &model.WhiteSpaceMetadata{
				NearestStoreKM: nearest,
				AreaClass:      class,
				CoverageGap:    gap,
			},
		},
	}, nil
}

// surveyNetwork returns the distance to the nearest placed store and the
// number of placed stores inside the density sampling radius.
func surveyNetwork(stores []model.Store, cell model.ScoredCell, sampleRadiusKM float64) (nearestKM float64, inRadius int) {
	nearestKM = math.Inf(1)
	for _, st := range stores {
		if !st.Placed() {
			continue
		}
		d := geo.DistanceKM(cell.Lat, cell.Lng, *st.Lat, *st.Lng)
		if d < nearestKM {
			nearestKM = d
		}
		if d <= sampleRadiusKM {
			inRadius++
		}
	}
	return nearestKM, inRadius
}

func classifyArea(storesInRadius int, t config.DensityThresholds) model.AreaClass {
	switch {
	case storesInRadius >= t.UrbanMin:
		return model.AreaUrban
	case storesInRadius >= t.SuburbanMin:
		return model.AreaSuburban
	default:
		return model.AreaRural
	}
}

func coverageRadiusKM(class model.AreaClass, c config.CoverageRadii) float64 {
	switch class {
	case model.AreaUrban:
		return c.UrbanKM
	case model.AreaSuburban:
		return c.SuburbanKM
	default:
		return c.RuralKM
	}
}
