// Package strategy implements the four expansion scoring strategies behind
// a single contract consumed by the orchestrator.
package strategy

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/expansion-cli/internal/config"
	"github.com/sells-group/expansion-cli/internal/model"
)

// ExpansionStrategy scores one candidate cell against the store network.
//
// Ordinary data-quality problems (missing fields, empty anchor sets, no
// clusters) must not produce an error: implementations return a
// low-confidence near-zero score with explanatory reasoning instead.
// Errors are reserved for upstream collaborator failures, which the
// orchestrator converts into a neutral fallback score.
type ExpansionStrategy interface {
	ScoreCandidate(ctx context.Context, cell model.ScoredCell, ec *model.ExpansionContext) (model.StrategyScore, error)
	Name() model.StrategyType
	ValidateConfig(cfg config.StrategyConfig) error
}

// Registry maps strategy types to implementations. Registration validates
// the strategy's view of the config; a validation failure is fatal.
type Registry struct {
	strategies map[model.StrategyType]ExpansionStrategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[model.StrategyType]ExpansionStrategy)}
}

// Register adds a strategy after validating its config subset.
func (r *Registry) Register(cfg config.StrategyConfig, s ExpansionStrategy) error {
	if err := s.ValidateConfig(cfg); err != nil {
		return eris.Wrapf(err, "strategy: register %s", s.Name())
	}
	r.strategies[s.Name()] = s
	zap.L().Debug("strategy registered", zap.String("strategy", string(s.Name())))
	return nil
}

// Get returns the registered implementation for a strategy type.
func (r *Registry) Get(t model.StrategyType) (ExpansionStrategy, bool) {
	s, ok := r.strategies[t]
	return s, ok
}

// clamp bounds v into [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// lowConfidenceScore builds the uniform degraded result for data-quality
// problems.
func lowConfidenceScore(t model.StrategyType, reasoning string) model.StrategyScore {
	return model.StrategyScore{
		Strategy:   t,
		Score:      0,
		Confidence: 0.3,
		Reasoning:  reasoning,
	}
}
