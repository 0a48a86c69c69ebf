package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/expansion-cli/internal/model"
)

func TestProximityBoostDistanceDecay(t *testing.T) {
	c := &model.PerformanceCluster{Strength: 1.0}

	tests := []struct {
		name string
		dist float64
		want float64
	}{
		{"at centroid", 0, 30},
		{"halfway", 5, 15},
		{"near edge floors at minimum", 9.9, 5},
		{"at max influence exactly", 10, 0},
		{"beyond max influence", 12, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ProximityBoost(c, tt.dist, 10), 0.001)
		})
	}
}

func TestProximityBoostScalesWithStrength(t *testing.T) {
	weak := &model.PerformanceCluster{Strength: 0.5}
	assert.InDelta(t, 15, ProximityBoost(weak, 0, 10), 0.001)

	// Low strength far out still floors at 5 while in range.
	assert.InDelta(t, 5, ProximityBoost(weak, 9, 10), 0.001)
}

func TestProximityBoostNilCluster(t *testing.T) {
	assert.Zero(t, ProximityBoost(nil, 1, 10))
}

func TestPatternMatch(t *testing.T) {
	c := &model.PerformanceCluster{
		RadiusKM: 4,
		Strength: 0.9,
		Country:  "NL",
		Region:   "utrecht",
	}

	// Inside radius, same country+region: (1-2/4 + 1 + 0.9)/3.
	got := PatternMatch(c, 2, "NL", "utrecht")
	assert.InDelta(t, (0.5+1+0.9)/3, got, 0.001)

	// Outside radius, same country only: (0 + 0.5 + 0.9)/3.
	got = PatternMatch(c, 6, "NL", "groningen")
	assert.InDelta(t, (0+0.5+0.9)/3, got, 0.001)

	// Different country: strength only.
	got = PatternMatch(c, 6, "BE", "liege")
	assert.InDelta(t, 0.9/3, got, 0.001)

	assert.Zero(t, PatternMatch(nil, 0, "NL", "utrecht"))
}
