// Package orchestrator composes the enabled strategies, aggregates their
// scores into a weighted breakdown, and emits structured suggestions.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/expansion-cli/internal/config"
	"github.com/sells-group/expansion-cli/internal/model"
	"github.com/sells-group/expansion-cli/internal/store"
	"github.com/sells-group/expansion-cli/internal/strategy"
)

const (
	// strongScoreThreshold is the normalized score above which a strategy
	// counts toward the multi_strategy classification.
	strongScoreThreshold = 0.6

	// highlightThreshold and riskThreshold bound the narrative extracts.
	highlightThreshold = 0.5
	riskThreshold      = 0.3

	maxHighlights = 3
	maxRisks      = 2

	// fallbackScore is the neutral raw score substituted when a strategy
	// fails; it normalizes to 0.5.
	fallbackScore      = 50.0
	fallbackConfidence = 0.3
)

// Orchestrator runs the enabled strategies against a candidate and folds
// their scores into one StrategicSuggestion. Construction fails on invalid
// configuration; a constructed orchestrator is safe for concurrent use.
type Orchestrator struct {
	cfg      config.StrategyConfig
	registry *strategy.Registry
	cache    store.Store
}

// New creates an orchestrator. cache may be nil to disable suggestion
// caching.
func New(cfg config.StrategyConfig, registry *strategy.Registry, cache store.Store) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "orchestrator: construct")
	}
	return &Orchestrator{cfg: cfg, registry: registry, cache: cache}, nil
}

// ScoreCandidate scores one candidate across all enabled strategies.
// Individual strategy failures degrade to a neutral fallback; only a
// candidate with zero usable strategies is an error.
func (o *Orchestrator) ScoreCandidate(ctx context.Context, cell model.ScoredCell, ec *model.ExpansionContext) (*model.StrategicSuggestion, error) {
	key := o.suggestionKey(cell, ec)
	if o.cache != nil {
		cached, ok, err := o.cache.GetSuggestion(ctx, key)
		if err != nil {
			zap.L().Warn("suggestion cache read failed", zap.String("cell", cell.ID), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	scores := o.runStrategies(ctx, cell, ec)
	if len(scores) == 0 {
		return nil, eris.Errorf("orchestrator: no registered strategies among enabled set %v", o.cfg.EnabledStrategies)
	}

	suggestion := o.assemble(cell, scores)

	if o.cache != nil {
		ttl := time.Duration(o.cfg.TTL.ScoreHours) * time.Hour
		if err := o.cache.SetSuggestion(ctx, key, suggestion, ttl); err != nil {
			zap.L().Warn("suggestion cache write failed", zap.String("cell", cell.ID), zap.Error(err))
		}
	}
	return suggestion, nil
}

func (o *Orchestrator) suggestionKey(cell model.ScoredCell, ec *model.ExpansionContext) string {
	return store.Key(cell.Lat, cell.Lng, 0, "suggestion", "region="+ec.Region)
}

// runStrategies fans out concurrently over the enabled set. Unregistered
// strategies are skipped with a warning; a failing strategy contributes the
// neutral fallback rather than aborting the candidate.
func (o *Orchestrator) runStrategies(ctx context.Context, cell model.ScoredCell, ec *model.ExpansionContext) map[model.StrategyType]model.StrategyScore {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		scores = make(map[model.StrategyType]model.StrategyScore)
	)

	for _, name := range o.cfg.EnabledStrategies {
		t := model.StrategyType(name)
		impl, ok := o.registry.Get(t)
		if !ok {
			zap.L().Warn("enabled strategy not registered, skipping",
				zap.String("strategy", name))
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			sc, err := impl.ScoreCandidate(ctx, cell, ec)
			if err != nil {
				zap.L().Warn("strategy failed, substituting fallback",
					zap.String("strategy", string(t)),
					zap.String("cell", cell.ID),
					zap.Error(err),
				)
				sc = model.StrategyScore{
					Strategy:   t,
					Score:      fallbackScore,
					Confidence: fallbackConfidence,
					Reasoning:  fmt.Sprintf("%s strategy unavailable — using fallback", t),
				}
			}

			mu.Lock()
			scores[t] = sc
			mu.Unlock()
		}()
	}

	wg.Wait()
	return scores
}

// assemble folds raw strategy scores into the breakdown and suggestion.
func (o *Orchestrator) assemble(cell model.ScoredCell, scores map[model.StrategyType]model.StrategyScore) *model.StrategicSuggestion {
	breakdown := o.breakdown(scores)

	ordered := make([]model.StrategyScore, 0, len(scores))
	for _, t := range model.StrategyPriority {
		if sc, ok := scores[t]; ok {
			ordered = append(ordered, sc)
		}
	}

	var completeness float64
	for _, sc := range ordered {
		completeness += sc.Confidence
	}
	completeness /= float64(len(ordered))

	return &model.StrategicSuggestion{
		CellID:           cell.ID,
		Lat:              cell.Lat,
		Lng:              cell.Lng,
		Confidence:       confidenceBand(breakdown.WeightedTotal),
		Breakdown:        breakdown,
		Scores:           ordered,
		Summary:          summarize(breakdown),
		Highlights:       highlights(breakdown, scores),
		RiskFactors:      riskFactors(breakdown, scores),
		DataCompleteness: completeness,
		GeneratedAt:      time.Now().UTC(),
	}
}

// breakdown normalizes raw scores into [0,1], applies the configured
// weights, and resolves dominance and classification.
func (o *Orchestrator) breakdown(scores map[model.StrategyType]model.StrategyScore) model.StrategyBreakdown {
	norm := func(t model.StrategyType) float64 {
		sc, ok := scores[t]
		if !ok {
			return 0
		}
		n := sc.Score / 100
		if n < 0 {
			n = 0
		}
		if n > 1 {
			n = 1
		}
		return n
	}

	b := model.StrategyBreakdown{
		WhiteSpaceScore: norm(model.StrategyWhiteSpace),
		EconomicScore:   norm(model.StrategyEconomic),
		AnchorScore:     norm(model.StrategyAnchor),
		ClusterScore:    norm(model.StrategyCluster),
	}

	weights := o.weights()
	for t, w := range weights {
		b.WeightedTotal += b.Score(t) * w
	}

	// Dominance by weighted share; ties resolved by the fixed priority
	// order, scanned first to last with strict improvement.
	best := -1.0
	for _, t := range model.StrategyPriority {
		if share := b.Score(t) * weights[t]; share > best {
			best = share
			b.DominantStrategy = t
		}
	}

	b.Classification = classify(b)
	return b
}

func (o *Orchestrator) weights() map[model.StrategyType]float64 {
	return map[model.StrategyType]float64{
		model.StrategyWhiteSpace: o.cfg.WhiteSpaceWeight,
		model.StrategyEconomic:   o.cfg.EconomicWeight,
		model.StrategyAnchor:     o.cfg.AnchorWeight,
		model.StrategyCluster:    o.cfg.ClusterWeight,
	}
}

// classify labels the candidate: more than one strong strategy reads as
// multi_strategy, exactly one reads as that strategy, otherwise the label
// of the highest normalized score.
func classify(b model.StrategyBreakdown) string {
	var strong []model.StrategyType
	for _, t := range model.StrategyPriority {
		if b.Score(t) > strongScoreThreshold {
			strong = append(strong, t)
		}
	}

	switch {
	case len(strong) > 1:
		return model.ClassificationMulti
	case len(strong) == 1:
		return string(strong[0])
	}

	best := model.StrategyPriority[0]
	for _, t := range model.StrategyPriority[1:] {
		if b.Score(t) > b.Score(best) {
			best = t
		}
	}
	return string(best)
}

func confidenceBand(weightedTotal float64) model.ConfidenceBand {
	switch {
	case weightedTotal >= 0.7:
		return model.ConfidenceHigh
	case weightedTotal >= 0.5:
		return model.ConfidenceMedium
	case weightedTotal >= 0.3:
		return model.ConfidenceLow
	default:
		return model.ConfidenceInsufficient
	}
}

// summaryTemplates keys an executive sentence off the dominant strategy.
var summaryTemplates = map[model.StrategyType]string{
	model.StrategyWhiteSpace: "Underserved area: coverage gap relative to the existing network drives this candidate",
	model.StrategyEconomic:   "Favorable economics: population and income indicators drive this candidate",
	model.StrategyAnchor:     "High-traffic position: nearby footfall anchors drive this candidate",
	model.StrategyCluster:    "Proven territory: proximity to a high-performing store cluster drives this candidate",
}

func summarize(b model.StrategyBreakdown) string {
	return fmt.Sprintf("%s (weighted total %.2f, %s)",
		summaryTemplates[b.DominantStrategy], b.WeightedTotal, b.Classification)
}

func highlights(b model.StrategyBreakdown, scores map[model.StrategyType]model.StrategyScore) []string {
	var out []string
	for _, t := range model.StrategyPriority {
		if len(out) == maxHighlights {
			break
		}
		if b.Score(t) > highlightThreshold {
			out = append(out, fmt.Sprintf("%s: %s", t, scores[t].Reasoning))
		}
	}
	return out
}

func riskFactors(b model.StrategyBreakdown, scores map[model.StrategyType]model.StrategyScore) []string {
	var out []string
	for _, t := range model.StrategyPriority {
		if len(out) == maxRisks {
			break
		}
		sc, ok := scores[t]
		if !ok {
			continue
		}
		if b.Score(t) < riskThreshold {
			out = append(out, fmt.Sprintf("%s: %s", t, sc.Reasoning))
		}
	}
	return out
}
