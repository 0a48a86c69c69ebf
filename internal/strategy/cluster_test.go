package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/expansion-cli/internal/cluster"
	"github.com/sells-group/expansion-cli/internal/model"
)

// clusterNetwork is four equal high performers on a north-south line,
// forming a single cluster with centroid lat 52.0015, strength 0.82
// (turnover part 1.0, count part 0.4).
func clusterNetwork() []model.Store {
	return []model.Store{
		placedStore("a", 52.000, 5.0, 2_000_000),
		placedStore("b", 52.001, 5.0, 2_000_000),
		placedStore("c", 52.002, 5.0, 2_000_000),
		placedStore("d", 52.003, 5.0, 2_000_000),
	}
}

func TestClusterScoreCandidateAtCentroid(t *testing.T) {
	cfg := testStrategyConfig()
	ec := testContext(cfg, clusterNetwork()...)
	s := NewClusterStrategy(cluster.NewAnalyzer(cfg, nil))

	sc, err := s.ScoreCandidate(context.Background(), testCell("c1", 52.0015, 5.0), ec)
	require.NoError(t, err)

	md := sc.Metadata.Cluster
	require.NotNil(t, md)
	assert.InDelta(t, 0.82, md.ClusterStrength, 1e-9)
	assert.InDelta(t, 0, md.DistanceKM, 0.001)

	// Closeness 1, same country/region 1, strength 0.82: pattern 0.94,
	// above 0.7, so the 24.6 base boost gets the 15% bonus.
	assert.InDelta(t, 0.94, md.PatternMatch, 0.001)
	assert.InDelta(t, 28.29, md.Boost, 0.01)
	assert.InDelta(t, 5.658, sc.Score, 0.01)
	assert.Equal(t, 0.85, sc.Confidence)
}

func TestClusterScoreCandidateBeyondInfluence(t *testing.T) {
	cfg := testStrategyConfig()
	ec := testContext(cfg, clusterNetwork()...)
	s := NewClusterStrategy(cluster.NewAnalyzer(cfg, nil))

	// ~22 km north of the centroid, past the 10 km influence range.
	sc, err := s.ScoreCandidate(context.Background(), testCell("c2", 52.2, 5.0), ec)
	require.NoError(t, err)

	assert.Zero(t, sc.Score)
	assert.Equal(t, 0.5, sc.Confidence)
	require.NotNil(t, sc.Metadata.Cluster)
	assert.Zero(t, sc.Metadata.Cluster.Boost)
	assert.Contains(t, sc.Reasoning, "beyond")
}

func TestClusterScoreCandidateNoClusters(t *testing.T) {
	cfg := testStrategyConfig()
	// Two high performers cannot meet the three-store minimum.
	ec := testContext(cfg,
		placedStore("a", 52.000, 5.0, 2_000_000),
		placedStore("b", 52.001, 5.0, 2_000_000),
	)
	s := NewClusterStrategy(cluster.NewAnalyzer(cfg, nil))

	sc, err := s.ScoreCandidate(context.Background(), testCell("c3", 52.0, 5.0), ec)
	require.NoError(t, err)
	assert.Zero(t, sc.Score)
	assert.Equal(t, 0.3, sc.Confidence)
	require.NotNil(t, sc.Metadata.Cluster)
}

func TestClusterScoreDeterministic(t *testing.T) {
	cfg := testStrategyConfig()
	ec := testContext(cfg, clusterNetwork()...)
	s := NewClusterStrategy(cluster.NewAnalyzer(cfg, nil))

	cell := testCell("c4", 52.01, 5.01)
	first, err := s.ScoreCandidate(context.Background(), cell, ec)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := s.ScoreCandidate(context.Background(), cell, ec)
		require.NoError(t, err)
		assert.Equal(t, first.Score, again.Score)
		assert.Equal(t, first.Metadata.Cluster.Boost, again.Metadata.Cluster.Boost)
	}
}

func TestClusterValidateConfig(t *testing.T) {
	s := NewClusterStrategy(nil)

	cfg := testStrategyConfig()
	require.NoError(t, s.ValidateConfig(cfg))

	cfg.ClusterWeight = 1.2
	assert.Error(t, s.ValidateConfig(cfg))

	cfg = testStrategyConfig()
	cfg.ClusterMinStores = 0
	assert.Error(t, s.ValidateConfig(cfg))

	cfg = testStrategyConfig()
	cfg.ClusterMaxInfluenceKM = -1
	assert.Error(t, s.ValidateConfig(cfg))
}
