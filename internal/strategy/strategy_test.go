package strategy

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/expansion-cli/internal/config"
	"github.com/sells-group/expansion-cli/internal/model"
	"github.com/sells-group/expansion-cli/pkg/overpass"
)

func testStrategyConfig() config.StrategyConfig {
	return config.StrategyConfig{
		WhiteSpaceWeight:  0.3,
		EconomicWeight:    0.25,
		AnchorWeight:      0.25,
		ClusterWeight:     0.2,
		EnabledStrategies: []string{"white_space", "economic", "anchor", "cluster"},
		Coverage:          config.CoverageRadii{UrbanKM: 2, SuburbanKM: 5, RuralKM: 12},
		Density:           config.DensityThresholds{SampleRadiusKM: 10, UrbanMin: 8, SuburbanMin: 3},
		Anchors:           config.AnchorRadii{TransportM: 1000, EducationM: 800, RetailM: 600, ServiceM: 1200},

		EconomicReferenceScore: 500_000,

		ClusterMinStores:           3,
		ClusterMaxRadiusKM:         15,
		HighPerformerPercentile:    75,
		ClusterReferenceTurnover:   1_500_000,
		ClusterReferenceStoreCount: 10,
		ClusterMaxInfluenceKM:      10,

		TTL: config.CacheTTLs{
			DemographicHours: 168,
			POIHours:         72,
			ClusterHours:     96,
			ScoreHours:       24,
		},

		MaxParallelism:   4,
		ScoreTimeoutSecs: 30,
	}
}

func testContext(cfg config.StrategyConfig, stores ...model.Store) *model.ExpansionContext {
	return &model.ExpansionContext{Stores: stores, Config: cfg}
}

func testCell(id string, lat, lng float64) model.ScoredCell {
	return model.ScoredCell{ID: id, Lat: lat, Lng: lng}
}

func placedStore(id string, lat, lng, turnover float64) model.Store {
	return model.Store{
		ID:             id,
		Name:           "store " + id,
		Lat:            &lat,
		Lng:            &lng,
		AnnualTurnover: &turnover,
		Status:         "open",
		Country:        "NL",
		Region:         "utrecht",
	}
}

// fakePOIClient serves canned POIs or errors per category.
type fakePOIClient struct {
	pois map[model.AnchorCategory][]overpass.POI
	errs map[model.AnchorCategory]error
}

func (f *fakePOIClient) QueryCategory(_ context.Context, _, _ float64, _ int, cat model.AnchorCategory) ([]overpass.POI, error) {
	if err, ok := f.errs[cat]; ok {
		return nil, err
	}
	return f.pois[cat], nil
}

// fakeDemoClient serves one canned indicator set or an error.
type fakeDemoClient struct {
	ind *model.EconomicIndicators
	err error
}

func (f *fakeDemoClient) GetEconomicIndicators(context.Context, float64, float64) (*model.EconomicIndicators, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ind, nil
}

func TestRegistryRejectsInvalidConfig(t *testing.T) {
	cfg := testStrategyConfig()
	cfg.WhiteSpaceWeight = 1.5

	r := NewRegistry()
	err := r.Register(cfg, NewWhiteSpaceStrategy())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "white-space weight")

	_, ok := r.Get(model.StrategyWhiteSpace)
	assert.False(t, ok)
}

func TestRegistryRoundTrip(t *testing.T) {
	cfg := testStrategyConfig()

	r := NewRegistry()
	require.NoError(t, r.Register(cfg, NewWhiteSpaceStrategy()))

	s, ok := r.Get(model.StrategyWhiteSpace)
	require.True(t, ok)
	assert.Equal(t, model.StrategyWhiteSpace, s.Name())

	_, ok = r.Get(model.StrategyAnchor)
	assert.False(t, ok)
}

func TestClampBounds(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-3, 0, 100))
	assert.Equal(t, 100.0, clamp(250, 0, 100))
	assert.Equal(t, 42.0, clamp(42, 0, 100))
}

func TestLowConfidenceScoreShape(t *testing.T) {
	sc := lowConfidenceScore(model.StrategyEconomic, "no data")
	assert.Equal(t, model.StrategyEconomic, sc.Strategy)
	assert.Zero(t, sc.Score)
	assert.Equal(t, 0.3, sc.Confidence)
	assert.Equal(t, "no data", sc.Reasoning)
}

var errUpstream = eris.New("upstream unavailable")
