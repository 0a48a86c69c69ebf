// Package cluster identifies geographically co-located groups of
// high-turnover stores and scores candidate proximity to them.
package cluster

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/expansion-cli/internal/config"
	"github.com/sells-group/expansion-cli/internal/geo"
	"github.com/sells-group/expansion-cli/internal/model"
	"github.com/sells-group/expansion-cli/internal/store"
)

// Analyzer computes performance clusters for a store network. A nil cache
// disables the read-through layer and recomputes on every call.
type Analyzer struct {
	cfg   config.StrategyConfig
	cache store.Store
}

// NewAnalyzer creates an Analyzer. cache may be nil.
func NewAnalyzer(cfg config.StrategyConfig, cache store.Store) *Analyzer {
	return &Analyzer{cfg: cfg, cache: cache}
}

// HighPerformers filters stores to those at or above the configured turnover
// percentile. Only placed stores with valid turnover data participate.
// The threshold uses floor(percentile/100 × n) on the ascending-sorted
// turnover array; boundary ties are included via >= comparison.
func (a *Analyzer) HighPerformers(stores []model.Store) []model.Store {
	var valid []model.Store
	for _, s := range stores {
		if s.Placed() && s.AnnualTurnover != nil && *s.AnnualTurnover > 0 {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	turnovers := make([]float64, len(valid))
	for i, s := range valid {
		turnovers[i] = *s.AnnualTurnover
	}
	sort.Float64s(turnovers)

	idx := int(math.Floor(a.cfg.HighPerformerPercentile / 100 * float64(len(turnovers))))
	if idx >= len(turnovers) {
		idx = len(turnovers) - 1
	}
	threshold := turnovers[idx]

	var out []model.Store
	for _, s := range valid {
		if *s.AnnualTurnover >= threshold {
			out = append(out, s)
		}
	}
	return out
}

// Identify groups high performers into clusters using a single-pass greedy
// seed-and-grow: each unprocessed store in original order collects all other
// unprocessed high performers within the maximum radius; groups below the
// minimum size are skipped. Order-dependent and not globally optimal, which
// is a deliberate simplicity trade-off.
func (a *Analyzer) Identify(stores []model.Store) []model.PerformanceCluster {
	high := a.HighPerformers(stores)
	processed := make(map[string]bool, len(high))

	var clusters []model.PerformanceCluster
	for _, seed := range high {
		if processed[seed.ID] {
			continue
		}

		group := []model.Store{seed}
		for _, other := range high {
			if other.ID == seed.ID || processed[other.ID] {
				continue
			}
			d := geo.DistanceKM(*seed.Lat, *seed.Lng, *other.Lat, *other.Lng)
			if d <= a.cfg.ClusterMaxRadiusKM {
				group = append(group, other)
			}
		}

		if len(group) < a.cfg.ClusterMinStores {
			continue
		}

		for _, m := range group {
			processed[m.ID] = true
		}
		clusters = append(clusters, a.buildCluster(group))
	}

	zap.L().Debug("cluster identification complete",
		zap.Int("high_performers", len(high)),
		zap.Int("clusters", len(clusters)),
	)
	return clusters
}

func (a *Analyzer) buildCluster(group []model.Store) model.PerformanceCluster {
	lats := make([]float64, len(group))
	lngs := make([]float64, len(group))
	ids := make([]string, len(group))
	var totalTurnover float64
	for i, s := range group {
		lats[i] = *s.Lat
		lngs[i] = *s.Lng
		ids[i] = s.ID
		totalTurnover += *s.AnnualTurnover
	}

	centLat, centLng := geo.Centroid(lats, lngs)

	var radius float64
	for i := range group {
		if d := geo.DistanceKM(centLat, centLng, lats[i], lngs[i]); d > radius {
			radius = d
		}
	}

	avg := totalTurnover / float64(len(group))

	return model.PerformanceCluster{
		ID:          uuid.New().String(),
		CentroidLat: centLat,
		CentroidLng: centLng,
		RadiusKM:    radius,
		StoreIDs:    ids,
		AvgTurnover: avg,
		StoreCount:  len(group),
		Strength:    a.Strength(avg, len(group)),
		Country:     group[0].Country,
		Region:      group[0].Region,
	}
}

// Strength blends turnover and member count against reference ceilings:
// 70% from average turnover, 30% from store count, rounded to 2 decimals.
func (a *Analyzer) Strength(avgTurnover float64, storeCount int) float64 {
	turnoverPart := math.Min(avgTurnover/a.cfg.ClusterReferenceTurnover, 1.0)
	countPart := math.Min(float64(storeCount)/float64(a.cfg.ClusterReferenceStoreCount), 1.0)
	return math.Round((0.7*turnoverPart+0.3*countPart)*100) / 100
}

// ForRegion returns clusters for the context's region, read-through cached.
// The cached set is always replaced wholesale on recompute.
func (a *Analyzer) ForRegion(ctx context.Context, ec *model.ExpansionContext) ([]model.PerformanceCluster, error) {
	key := store.RegionKey(ec.Region)

	if a.cache != nil {
		cached, ok, err := a.cache.GetClusters(ctx, key)
		if err != nil {
			zap.L().Warn("cluster cache read failed, recomputing", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	clusters := a.Identify(ec.RegionStores())

	if a.cache != nil {
		ttl := time.Duration(a.cfg.TTL.ClusterHours) * time.Hour
		if err := a.cache.SetClusters(ctx, key, clusters, ttl); err != nil {
			zap.L().Warn("cluster cache write failed", zap.Error(err))
		}
	}
	return clusters, nil
}

// Nearest returns the cluster whose centroid is closest to the point, with
// the distance in kilometers. Returns nil if there are no clusters.
func Nearest(clusters []model.PerformanceCluster, lat, lng float64) (*model.PerformanceCluster, float64) {
	var best *model.PerformanceCluster
	bestDist := math.MaxFloat64
	for i := range clusters {
		d := geo.DistanceKM(lat, lng, clusters[i].CentroidLat, clusters[i].CentroidLng)
		if d < bestDist {
			best = &clusters[i]
			bestDist = d
		}
	}
	if best == nil {
		return nil, 0
	}
	return best, bestDist
}
