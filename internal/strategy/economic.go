package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/expansion-cli/internal/config"
	"github.com/sells-group/expansion-cli/internal/model"
	"github.com/sells-group/expansion-cli/internal/store"
	"github.com/sells-group/expansion-cli/pkg/demographics"
)

// trajectoryMultiplier maps a growth trajectory to a score multiplier.
var trajectoryMultiplier = map[string]float64{
	"high_growth":     1.25,
	"moderate_growth": 1.0,
	"stable":          0.95,
	"declining":       0.8,
}

// EconomicStrategy scores candidates on the purchasing power of the
// surrounding population: size, growth trajectory, and income level.
type EconomicStrategy struct {
	demo  demographics.Client
	cache store.Store
}

// NewEconomicStrategy creates the economic strategy. cache may be nil.
func NewEconomicStrategy(demo demographics.Client, cache store.Store) *EconomicStrategy {
	return &EconomicStrategy{demo: demo, cache: cache}
}

func (s *EconomicStrategy) Name() model.StrategyType { return model.StrategyEconomic }

func (s *EconomicStrategy) ValidateConfig(cfg config.StrategyConfig) error {
	if cfg.EconomicWeight < 0 || cfg.EconomicWeight > 1 {
		return eris.Errorf("economic weight must be in [0,1], got %.3f", cfg.EconomicWeight)
	}
	if cfg.EconomicReferenceScore <= 0 {
		return eris.Errorf("economic_reference_score must be positive, got %.0f", cfg.EconomicReferenceScore)
	}
	return nil
}

func (s *EconomicStrategy) ScoreCandidate(ctx context.Context, cell model.ScoredCell, ec *model.ExpansionContext) (model.StrategyScore, error) {
	ind, err := s.indicators(ctx, cell, ec.Config)
	if err != nil {
		return model.StrategyScore{}, eris.Wrap(err, "economic: fetch indicators")
	}

	if ind.Population <= 0 {
		sc := lowConfidenceScore(model.StrategyEconomic, "no population data for candidate area")
		sc.Metadata.Economic = &model.EconomicMetadata{Indicators: *ind}
		return sc, nil
	}

	rawValue := float64(ind.Population) * (1 + ind.PopulationGrowthRate/100) * ind.IncomeIndex
	base := rawValue / ec.Config.EconomicReferenceScore
	if base > 1 {
		base = 1
	}

	mult, ok := trajectoryMultiplier[ind.GrowthTrajectory]
	if !ok {
		mult = 1.0
	}

	raw := clamp(base*100*mult*ec.Config.EconomicWeight, 0, 100)

	confidence := ind.DataCompleteness
	if confidence <= 0 {
		confidence = 0.3
	}

	return model.StrategyScore{
		Strategy:   model.StrategyEconomic,
		Score:      raw,
		Confidence: confidence,
		Reasoning: fmt.Sprintf("population %d (%+.1f%%/yr, %s), income index %.2f",
			ind.Population, ind.PopulationGrowthRate, ind.GrowthTrajectory, ind.IncomeIndex),
		Metadata: model.StrategyMetadata{
			Economic: &model.EconomicMetadata{
				Indicators: *ind,
				RawScore:   rawValue,
				Multiplier: mult,
			},
		},
	}, nil
}

// indicators reads indicators through the cache, falling back to the
// demographic provider on a miss. cache may be nil.
func (s *EconomicStrategy) indicators(ctx context.Context, cell model.ScoredCell, cfg config.StrategyConfig) (*model.EconomicIndicators, error) {
	key := store.Key(cell.Lat, cell.Lng, 0, "indicators")

	if s.cache != nil {
		cached, ok, err := s.cache.GetIndicators(ctx, key)
		if err != nil {
			zap.L().Warn("economic: indicator cache read failed",
				zap.String("cell", cell.ID), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	ind, err := s.demo.GetEconomicIndicators(ctx, cell.Lat, cell.Lng)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		ttl := time.Duration(cfg.TTL.DemographicHours) * time.Hour
		if err := s.cache.SetIndicators(ctx, key, ind, ttl); err != nil {
			zap.L().Warn("economic: indicator cache write failed",
				zap.String("cell", cell.ID), zap.Error(err))
		}
	}

	return ind, nil
}
