package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/expansion-cli/internal/model"
)

func suggestion(ws, econ float64, dominant model.StrategyType) *model.StrategicSuggestion {
	return &model.StrategicSuggestion{
		CellID: "c",
		Breakdown: model.StrategyBreakdown{
			WhiteSpaceScore:  ws,
			EconomicScore:    econ,
			DominantStrategy: dominant,
		},
		Scores: []model.StrategyScore{
			{
				Strategy:   model.StrategyWhiteSpace,
				Confidence: 0.9,
				Metadata:   model.StrategyMetadata{WhiteSpace: &model.WhiteSpaceMetadata{}},
			},
			{
				Strategy:   model.StrategyEconomic,
				Confidence: 0.8,
				Metadata:   model.StrategyMetadata{Economic: &model.EconomicMetadata{}},
			},
		},
	}
}

func TestMonitorRecordAndSnapshot(t *testing.T) {
	m := New(nil)

	m.Record(suggestion(0.8, 0.4, model.StrategyWhiteSpace))
	m.Record(suggestion(0.6, 0.2, model.StrategyWhiteSpace))
	m.Record(suggestion(0.1, 0.9, model.StrategyEconomic))

	r := m.Snapshot()
	assert.Equal(t, 3, r.Suggestions)

	ws := r.Strategies[model.StrategyWhiteSpace]
	assert.Equal(t, 3, ws.Samples)
	assert.InDelta(t, 0.5, ws.MeanScore, 1e-9)
	assert.InDelta(t, 0.1, ws.MinScore, 1e-9)
	assert.InDelta(t, 0.8, ws.MaxScore, 1e-9)
	assert.Equal(t, 2, ws.DominantCount)

	econ := r.Strategies[model.StrategyEconomic]
	assert.Equal(t, 1, econ.DominantCount)
	assert.Zero(t, econ.Fallbacks)
}

func TestMonitorCountsFallbacks(t *testing.T) {
	m := New(nil)

	s := suggestion(0.5, 0.5, model.StrategyWhiteSpace)
	// A fallback score carries no metadata variant.
	s.Scores[1].Metadata = model.StrategyMetadata{}
	m.Record(s)

	r := m.Snapshot()
	assert.Zero(t, r.Strategies[model.StrategyWhiteSpace].Fallbacks)
	assert.Equal(t, 1, r.Strategies[model.StrategyEconomic].Fallbacks)
}

func TestMonitorIgnoresNil(t *testing.T) {
	m := New(nil)
	m.Record(nil)
	assert.Zero(t, m.Snapshot().Suggestions)
}

func TestMonitorRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Record(suggestion(0.8, 0.4, model.StrategyWhiteSpace))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["expansion_strategy_score"])
	assert.True(t, names["expansion_strategy_dominant_total"])
}
