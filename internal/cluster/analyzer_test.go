package cluster

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/expansion-cli/internal/config"
	"github.com/sells-group/expansion-cli/internal/model"
)

func testClusterConfig() config.StrategyConfig {
	return config.StrategyConfig{
		ClusterMinStores:           3,
		ClusterMaxRadiusKM:         15,
		HighPerformerPercentile:    75,
		ClusterReferenceTurnover:   1_500_000,
		ClusterReferenceStoreCount: 10,
		ClusterMaxInfluenceKM:      10,
		TTL:                        config.CacheTTLs{ClusterHours: 96},
	}
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

func TestHighPerformersPercentileBoundary(t *testing.T) {
	a := NewAnalyzer(testClusterConfig(), nil)

	// Ascending turnovers [100,200,300,400]: threshold index floor(0.75*4)=3,
	// threshold 400, so only the top store qualifies.
	stores := []model.Store{
		placedStore("a", 52.00, 5.00, 100),
		placedStore("b", 52.01, 5.00, 200),
		placedStore("c", 52.02, 5.00, 300),
		placedStore("d", 52.03, 5.00, 400),
	}

	high := a.HighPerformers(stores)
	require.Len(t, high, 1)
	assert.Equal(t, "d", high[0].ID)
}

func TestHighPerformersIncludesBoundaryTies(t *testing.T) {
	a := NewAnalyzer(testClusterConfig(), nil)

	stores := []model.Store{
		placedStore("a", 52.00, 5.00, 100),
		placedStore("b", 52.01, 5.00, 400),
		placedStore("c", 52.02, 5.00, 400),
		placedStore("d", 52.03, 5.00, 400),
	}

	high := a.HighPerformers(stores)
	assert.Len(t, high, 3)
}

func TestHighPerformersSkipsUnplacedAndMissingTurnover(t *testing.T) {
	a := NewAnalyzer(testClusterConfig(), nil)

	unplaced := model.Store{ID: "x", AnnualTurnover: f64(900_000)}
	noTurnover := placedStore("y", 52.0, 5.0, 0)
	noTurnover.AnnualTurnover = nil

	high := a.HighPerformers([]model.Store{unplaced, noTurnover})
	assert.Empty(t, high)
}

func f64(v float64) *float64 { return &v }

func TestIdentifyEnforcesMinimumSize(t *testing.T) {
	a := NewAnalyzer(testClusterConfig(), nil)

	// Two high performers close together: below cluster_min_stores, no cluster.
	two := []model.Store{
		placedStore("a", 52.00, 5.00, 1_000_000),
		placedStore("b", 52.02, 5.00, 1_000_000),
	}
	assert.Empty(t, a.Identify(two))

	// Three close together: exactly at the minimum, one cluster.
	three := append(two, placedStore("c", 52.04, 5.00, 1_000_000))
	clusters := a.Identify(three)
	require.Len(t, clusters, 1)
	assert.Equal(t, 3, clusters[0].StoreCount)
	assert.GreaterOrEqual(t, clusters[0].StoreCount, a.cfg.ClusterMinStores)
}

func TestIdentifyGreedySinglePass(t *testing.T) {
	a := NewAnalyzer(testClusterConfig(), nil)

	// Six stores in two groups ~55 km apart; each group is within radius.
	stores := []model.Store{
		placedStore("a1", 52.00, 5.00, 1_000_000),
		placedStore("a2", 52.02, 5.00, 1_000_000),
		placedStore("a3", 52.04, 5.00, 1_000_000),
		placedStore("b1", 52.50, 5.00, 1_000_000),
		placedStore("b2", 52.52, 5.00, 1_000_000),
		placedStore("b3", 52.54, 5.00, 1_000_000),
	}

	clusters := a.Identify(stores)
	require.Len(t, clusters, 2)
	assert.ElementsMatch(t, []string{"a1", "a2", "a3"}, clusters[0].StoreIDs)
	assert.ElementsMatch(t, []string{"b1", "b2", "b3"}, clusters[1].StoreIDs)
}

func TestIdentifyDeterministicOrder(t *testing.T) {
	a := NewAnalyzer(testClusterConfig(), nil)

	stores := make([]model.Store, 0, 6)
	for i := 0; i < 6; i++ {
		stores = append(stores, placedStore(fmt.Sprintf("s%d", i), 52.0+float64(i)*0.02, 5.0, 1_000_000))
	}

	first := a.Identify(stores)
	second := a.Identify(stores)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].StoreIDs, second[i].StoreIDs)
	}
}

func TestStrength(t *testing.T) {
	a := NewAnalyzer(testClusterConfig(), nil)

	tests := []struct {
		name        string
		avgTurnover float64
		count       int
		want        float64
	}{
		{"reference ceilings", 1_500_000, 10, 1.0},
		{"above ceilings clamps", 3_000_000, 20, 1.0},
		{"half turnover, min count", 750_000, 3, 0.44}, // 0.7*0.5 + 0.3*0.3
		{"low turnover", 150_000, 5, 0.22},             // 0.7*0.1 + 0.3*0.5
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, a.Strength(tt.avgTurnover, tt.count), 0.001)
		})
	}
}

func TestNearest(t *testing.T) {
	clusters := []model.PerformanceCluster{
		{ID: "far", CentroidLat: 53.0, CentroidLng: 5.0},
		{ID: "near", CentroidLat: 52.05, CentroidLng: 5.0},
	}

	got, dist := Nearest(clusters, 52.0, 5.0)
	require.NotNil(t, got)
	assert.Equal(t, "near", got.ID)
	assert.InDelta(t, 5.56, dist, 0.2)

	got, _ = Nearest(nil, 52.0, 5.0)
	assert.Nil(t, got)
}

func TestForRegionWithoutCacheRecomputes(t *testing.T) {
	a := NewAnalyzer(testClusterConfig(), nil)
	ec := &model.ExpansionContext{
		Stores: []model.Store{
			placedStore("a", 52.00, 5.00, 1_000_000),
			placedStore("b", 52.02, 5.00, 1_000_000),
			placedStore("c", 52.04, 5.00, 1_000_000),
		},
		Region: "utrecht",
	}

	clusters, err := a.ForRegion(context.Background(), ec)
	require.NoError(t, err)
	assert.Len(t, clusters, 1)
}
