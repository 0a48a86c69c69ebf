package cluster

import "github.com/sells-group/expansion-cli/internal/model"

const (
	maxBoost = 30.0
	minBoost = 5.0
)

// ProximityBoost computes the distance-decay boost a cluster contributes to
// a candidate. Influence shrinks linearly to zero as distance approaches
// maxInfluenceKM; at or beyond that distance the boost is 0. Within range
// the boost is floored at 5 and capped at 30.
func ProximityBoost(c *model.PerformanceCluster, distanceKM, maxInfluenceKM float64) float64 {
	if c == nil || distanceKM >= maxInfluenceKM {
		return 0
	}
	boost := maxBoost * c.Strength * (1 - distanceKM/maxInfluenceKM)
	if boost < minBoost {
		boost = minBoost
	}
	if boost > maxBoost {
		boost = maxBoost
	}
	return boost
}

// PatternMatch scores (0-1) how well a candidate matches a cluster's
// success template: geographic closeness relative to the cluster radius,
// regional consistency, and the cluster's own strength, averaged equally.
func PatternMatch(c *model.PerformanceCluster, distanceKM float64, country, region string) float64 {
	if c == nil {
		return 0
	}

	var closeness float64
	if distanceKM <= c.RadiusKM && c.RadiusKM > 0 {
		closeness = 1 - distanceKM/c.RadiusKM
	}

	var regional float64
	switch {
	case country == c.Country && region == c.Region:
		regional = 1.0
	case country == c.Country:
		regional = 0.5
	}

	return (closeness + regional + c.Strength) / 3
}
