// Package store implements the layered result cache for demographic, POI,
// cluster, and aggregated-score data, each with its own TTL.
package store

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sells-group/expansion-cli/internal/model"
)

// Kind distinguishes the cached payload families.
type Kind string

const (
	KindDemographic Kind = "demographic"
	KindPOI         Kind = "poi"
	KindCluster     Kind = "cluster"
	KindSuggestion  Kind = "suggestion"
)

// Store defines the cache persistence contract. Entries are immutable once
// written and keyed by a deterministic hash, so no in-process locking is
// needed on top of the database.
type Store interface {
	// Demographic cache
	GetIndicators(ctx context.Context, key string) (*model.EconomicIndicators, bool, error)
	SetIndicators(ctx context.Context, key string, v *model.EconomicIndicators, ttl time.Duration) error

	// POI cache, keyed by location+radius+category.
	GetAnchors(ctx context.Context, key string) ([]model.AnchorLocation, bool, error)
	SetAnchors(ctx context.Context, key string, anchors []model.AnchorLocation, ttl time.Duration) error

	// Cluster cache, keyed by region; always replaced wholesale.
	GetClusters(ctx context.Context, regionKey string) ([]model.PerformanceCluster, bool, error)
	SetClusters(ctx context.Context, regionKey string, clusters []model.PerformanceCluster, ttl time.Duration) error

	// Aggregated suggestion cache.
	GetSuggestion(ctx context.Context, key string) (*model.StrategicSuggestion, bool, error)
	SetSuggestion(ctx context.Context, key string, s *model.StrategicSuggestion, ttl time.Duration) error
	ListSuggestions(ctx context.Context, limit int) ([]model.StrategicSuggestion, error)

	// Housekeeping
	DeleteExpired(ctx context.Context) (int64, error)
	Migrate(ctx context.Context) error
	Close() error
}

// Key returns the deterministic cache key for a location-bound lookup:
// SHA-256 hex over coordinates rounded to 4 decimal places (~11 m), the
// radius, and the sorted parameter set.
func Key(lat, lng float64, radiusM int, params ...string) string {
	sorted := append([]string(nil), params...)
	sort.Strings(sorted)
	raw := fmt.Sprintf("%.4f|%.4f|%d|%s", lat, lng, radiusM, strings.Join(sorted, ","))
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h)
}

// RegionKey returns the cluster cache key for a region filter.
func RegionKey(region string) string {
	if region == "" {
		region = "all"
	}
	return "clusters:" + strings.ToLower(strings.TrimSpace(region))
}
