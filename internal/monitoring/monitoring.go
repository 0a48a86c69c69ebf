// Package monitoring passively records score distributions and strategy
// effectiveness for operational reporting. It sits outside the scoring
// critical path.
package monitoring

import (
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sells-group/expansion-cli/internal/model"
)

// StrategyReport summarizes one strategy's observed behavior.
type StrategyReport struct {
	Samples       int     `json:"samples"`
	MeanScore     float64 `json:"mean_score"`
	MinScore      float64 `json:"min_score"`
	MaxScore      float64 `json:"max_score"`
	Fallbacks     int     `json:"fallbacks"`
	DominantCount int     `json:"dominant_count"`
}

// Report is a point-in-time snapshot of everything recorded so far.
type Report struct {
	Suggestions int                                   `json:"suggestions"`
	Strategies  map[model.StrategyType]StrategyReport `json:"strategies"`
}

type strategyStats struct {
	samples   int
	sum       float64
	min       float64
	max       float64
	fallbacks int
	dominant  int
}

// Monitor accumulates per-strategy statistics and exports them as
// Prometheus metrics. Safe for concurrent use.
type Monitor struct {
	mu          sync.Mutex
	suggestions int
	stats       map[model.StrategyType]*strategyStats

	scoreObserved *prometheus.HistogramVec
	fallbackTotal *prometheus.CounterVec
	dominantTotal *prometheus.CounterVec
}

// New creates a monitor and registers its collectors. reg may be nil to
// skip Prometheus registration (tests, one-shot CLI runs).
func New(reg prometheus.Registerer) *Monitor {
	m := &Monitor{
		stats: make(map[model.StrategyType]*strategyStats),
		scoreObserved: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "expansion",
			Name:      "strategy_score",
			Help:      "Normalized strategy scores per candidate.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"strategy"}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "expansion",
			Name:      "strategy_fallbacks_total",
			Help:      "Strategy invocations that degraded to the neutral fallback.",
		}, []string{"strategy"}),
		dominantTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "expansion",
			Name:      "strategy_dominant_total",
			Help:      "Suggestions in which a strategy contributed the largest weighted share.",
		}, []string{"strategy"}),
	}
	if reg != nil {
		reg.MustRegister(m.scoreObserved, m.fallbackTotal, m.dominantTotal)
	}
	return m
}

// Record observes one finished suggestion.
func (m *Monitor) Record(s *model.StrategicSuggestion) {
	if s == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.suggestions++

	for _, sc := range s.Scores {
		st := m.stats[sc.Strategy]
		if st == nil {
			st = &strategyStats{min: math.Inf(1), max: math.Inf(-1)}
			m.stats[sc.Strategy] = st
		}

		norm := s.Breakdown.Score(sc.Strategy)
		st.samples++
		st.sum += norm
		if norm < st.min {
			st.min = norm
		}
		if norm > st.max {
			st.max = norm
		}
		m.scoreObserved.WithLabelValues(string(sc.Strategy)).Observe(norm)

		if sc.Metadata.Empty() {
			st.fallbacks++
			m.fallbackTotal.WithLabelValues(string(sc.Strategy)).Inc()
		}
	}

	if st := m.stats[s.Breakdown.DominantStrategy]; st != nil {
		st.dominant++
	}
	m.dominantTotal.WithLabelValues(string(s.Breakdown.DominantStrategy)).Inc()
}

// Snapshot returns the accumulated statistics.
func (m *Monitor) Snapshot() Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := Report{
		Suggestions: m.suggestions,
		Strategies:  make(map[model.StrategyType]StrategyReport, len(m.stats)),
	}
	for t, st := range m.stats {
		rep := StrategyReport{
			Samples:       st.samples,
			Fallbacks:     st.fallbacks,
			DominantCount: st.dominant,
		}
		if st.samples > 0 {
			rep.MeanScore = st.sum / float64(st.samples)
			rep.MinScore = st.min
			rep.MaxScore = st.max
		}
		r.Strategies[t] = rep
	}
	return r
}
