// Package model defines the core domain types for expansion scoring.
package model

import (
	"time"

	"github.com/sells-group/expansion-cli/internal/config"
)

// StrategyType identifies one of the four expansion strategies.
type StrategyType string

const (
	StrategyWhiteSpace StrategyType = "white_space"
	StrategyEconomic   StrategyType = "economic"
	StrategyAnchor     StrategyType = "anchor"
	StrategyCluster    StrategyType = "cluster"
)

// StrategyPriority is the fixed tie-break order used when two strategies
// contribute identical weighted shares. Lower index wins.
var StrategyPriority = []StrategyType{
	StrategyWhiteSpace,
	StrategyEconomic,
	StrategyAnchor,
	StrategyCluster,
}

// CitySize is the population-band classification of a store's city.
type CitySize string

const (
	CitySmall  CitySize = "small"
	CityMedium CitySize = "medium"
	CityLarge  CitySize = "large"
)

// AreaClass classifies the local store density around a candidate.
type AreaClass string

const (
	AreaUrban    AreaClass = "urban"
	AreaSuburban AreaClass = "suburban"
	AreaRural    AreaClass = "rural"
)

// Store is a physical or planned outlet. Reference data only; created and
// updated by external systems, read-only here.
type Store struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Lat            *float64  `json:"lat,omitempty"`
	Lng            *float64  `json:"lng,omitempty"`
	AnnualTurnover *float64  `json:"annual_turnover,omitempty"`
	CitySize       *CitySize `json:"city_size,omitempty"`
	Status         string    `json:"status"`
	Country        string    `json:"country"`
	Region         string    `json:"region"`
}

// Placed reports whether the store has coordinates.
func (s Store) Placed() bool {
	return s.Lat != nil && s.Lng != nil
}

// ScoredCell is a candidate expansion location, constructed per analysis run.
type ScoredCell struct {
	ID  string  `json:"id"`
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`

	// Bounding geometry in lng/lat order: min_lng, min_lat, max_lng, max_lat.
	Bounds [4]float64 `json:"bounds"`

	// GapScore is an optional prior from an upstream coverage-gap analysis.
	GapScore *float64 `json:"gap_score,omitempty"`
}

// ExpansionContext is the immutable run-scoped bundle passed to every
// strategy. Created once per orchestration call, never mutated mid-run.
type ExpansionContext struct {
	Stores    []Store
	Region    string
	Config    config.StrategyConfig
	Timestamp time.Time
}

// RegionStores returns the stores matching the context's region filter.
// An empty region matches everything.
func (c *ExpansionContext) RegionStores() []Store {
	if c.Region == "" {
		return c.Stores
	}
	var out []Store
	for _, s := range c.Stores {
		if s.Region == c.Region {
			out = append(out, s)
		}
	}
	return out
}
