package strategy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/expansion-cli/internal/config"
	"github.com/sells-group/expansion-cli/internal/geo"
	"github.com/sells-group/expansion-cli/internal/model"
	"github.com/sells-group/expansion-cli/internal/store"
	"github.com/sells-group/expansion-cli/pkg/overpass"
)

const (
	// compositeCap bounds the total anchor contribution regardless of count.
	compositeCap = 50.0

	// superLocationRadiusM and superLocationMinAnchors define the derived
	// super-location flag: 3+ anchors within 500 m.
	superLocationRadiusM    = 500.0
	superLocationMinAnchors = 3
)

// categoryBoost is the base boost per anchor category.
var categoryBoost = map[model.AnchorCategory]float64{
	model.AnchorTransport: 15,
	model.AnchorEducation: 18,
	model.AnchorRetail:    12,
	model.AnchorService:   20,
}

// sizeMultiplier scales the base boost by estimated anchor size.
var sizeMultiplier = map[model.AnchorSize]float64{
	model.AnchorMajor:  1.33,
	model.AnchorMedium: 1.0,
	model.AnchorMinor:  0.67,
}

// sizeFootfall is the estimated daily footfall per size class.
var sizeFootfall = map[model.AnchorSize]int{
	model.AnchorMajor:  25000,
	model.AnchorMedium: 8000,
	model.AnchorMinor:  1500,
}

// AnchorStrategy scores candidates by proximity to high-traffic POIs with
// diminishing returns per additional anchor.
type AnchorStrategy struct {
	poi   overpass.Client
	cache store.Store
}

// NewAnchorStrategy creates the anchor strategy. cache may be nil.
func NewAnchorStrategy(poi overpass.Client, cache store.Store) *AnchorStrategy {
	return &AnchorStrategy{poi: poi, cache: cache}
}

func (s *AnchorStrategy) Name() model.StrategyType { return model.StrategyAnchor }

func (s *AnchorStrategy) ValidateConfig(cfg config.StrategyConfig) error {
	if cfg.AnchorWeight < 0 || cfg.AnchorWeight > 1 {
		return eris.Errorf("anchor weight must be in [0,1], got %.3f", cfg.AnchorWeight)
	}
	for name, r := range map[string]int{
		"transport": cfg.Anchors.TransportM,
		"education": cfg.Anchors.EducationM,
		"retail":    cfg.Anchors.RetailM,
		"service":   cfg.Anchors.ServiceM,
	} {
		if r <= 0 {
			return eris.Errorf("anchor %s radius must be positive, got %d", name, r)
		}
	}
	return nil
}

func (s *AnchorStrategy) ScoreCandidate(ctx context.Context, cell model.ScoredCell, ec *model.ExpansionContext) (model.StrategyScore, error) {
	anchors, failures, err := s.collectAnchors(ctx, cell, ec.Config)
	if err != nil {
		return model.StrategyScore{}, err
	}

	if len(anchors) == 0 {
		reasoning := "no high-traffic anchors found within configured radii"
		if failures > 0 {
			reasoning = fmt.Sprintf("%s (%d of %d category lookups degraded)", reasoning, failures, len(model.AnchorCategories))
		}
		sc := lowConfidenceScore(model.StrategyAnchor, reasoning)
		sc.Metadata.Anchor = &model.AnchorMetadata{}
		return sc, nil
	}

	composite := CompositeAnchorScore(anchors)
	super := isSuperLocation(anchors)

	raw := clamp(composite*ec.Config.AnchorWeight, 0, 100)

	reasoning := fmt.Sprintf("%d anchors within range, composite %.1f/50", len(anchors), composite)
	if super {
		reasoning += "; super location (3+ anchors within 500m)"
	}

	return model.StrategyScore{
		Strategy:   model.StrategyAnchor,
		Score:      raw,
		Confidence: 0.9,
		Reasoning:  reasoning,
		Metadata: model.StrategyMetadata{
			Anchor: &model.AnchorMetadata{
				Anchors:         anchors,
				CompositeScore:  composite,
				IsSuperLocation: super,
			},
		},
	}, nil
}

// collectAnchors queries all four categories, read-through cached per
// category. A single category failure degrades; all categories failing is
// an upstream error surfaced to the orchestrator.
func (s *AnchorStrategy) collectAnchors(ctx context.Context, cell model.ScoredCell, cfg config.StrategyConfig) ([]model.AnchorLocation, int, error) {
	radii := map[model.AnchorCategory]int{
		model.AnchorTransport: cfg.Anchors.TransportM,
		model.AnchorEducation: cfg.Anchors.EducationM,
		model.AnchorRetail:    cfg.Anchors.RetailM,
		model.AnchorService:   cfg.Anchors.ServiceM,
	}

	var anchors []model.AnchorLocation
	var failures int
	var lastErr error

	for _, cat := range model.AnchorCategories {
		radius := radii[cat]
		key := store.Key(cell.Lat, cell.Lng, radius, string(cat))

		if s.cache != nil {
			cached, ok, err := s.cache.GetAnchors(ctx, key)
			if err == nil && ok {
				anchors = append(anchors, cached...)
				continue
			}
		}

		pois, err := s.poi.QueryCategory(ctx, cell.Lat, cell.Lng, radius, cat)
		if err != nil {
			failures++
			lastErr = err
			zap.L().Warn("anchor category lookup failed",
				zap.String("category", string(cat)),
				zap.Error(err),
			)
			continue
		}

		found := classifyAnchors(cell, cat, radius, pois)
		anchors = append(anchors, found...)

		if s.cache != nil {
			ttl := time.Duration(cfg.TTL.POIHours) * time.Hour
			if err := s.cache.SetAnchors(ctx, key, found, ttl); err != nil {
				zap.L().Warn("anchor cache write failed", zap.Error(err))
			}
		}
	}

	if failures == len(model.AnchorCategories) {
		return nil, failures, eris.Wrap(lastErr, "anchor: all category lookups failed")
	}
	return anchors, failures, nil
}

// classifyAnchors converts raw POIs into anchors, re-checking the radius
// even though the lookup was radius-bounded.
func classifyAnchors(cell model.ScoredCell, cat model.AnchorCategory, radiusM int, pois []overpass.POI) []model.AnchorLocation {
	var out []model.AnchorLocation
	for _, p := range pois {
		dist := geo.DistanceM(cell.Lat, cell.Lng, p.Lat, p.Lng)
		if dist > float64(radiusM) {
			continue
		}

		size, subtype := classifySize(cat, p.Tags)
		out = append(out, model.AnchorLocation{
			Category:          cat,
			Subtype:           subtype,
			Name:              p.Name,
			Lat:               p.Lat,
			Lng:               p.Lng,
			DistanceM:         dist,
			Size:              size,
			EstimatedFootfall: sizeFootfall[size],
			Boost:             categoryBoost[cat] * sizeMultiplier[size],
		})
	}
	return out
}

// classifySize applies category-specific tag heuristics.
func classifySize(cat model.AnchorCategory, tags map[string]string) (model.AnchorSize, string) {
	switch cat {
	case model.AnchorTransport:
		if tags["railway"] == "station" || tags["station"] == "subway" {
			return model.AnchorMajor, "station"
		}
		if tags["public_transport"] == "station" {
			return model.AnchorMedium, "public_transport"
		}
		return model.AnchorMinor, "bus_stop"

	case model.AnchorEducation:
		switch tags["amenity"] {
		case "university":
			return model.AnchorMajor, "university"
		case "college":
			return model.AnchorMedium, "college"
		default:
			return model.AnchorMinor, "school"
		}

	case model.AnchorRetail:
		switch tags["shop"] {
		case "mall", "department_store":
			return model.AnchorMajor, tags["shop"]
		case "supermarket":
			return model.AnchorMedium, "supermarket"
		default:
			return model.AnchorMinor, "shop"
		}

	case model.AnchorService:
		if tags["shop"] != "" {
			return model.AnchorMajor, "fuel_with_shop"
		}
		if tags["brand"] != "" {
			return model.AnchorMedium, "branded_fuel"
		}
		return model.AnchorMinor, "fuel"
	}
	return model.AnchorMinor, "unknown"
}

// CompositeAnchorScore applies diminishing returns: anchors sorted by boost
// descending contribute 100%, 80%, then 60% each, capped at 50. Multiple
// footfall generators are not linearly additive.
func CompositeAnchorScore(anchors []model.AnchorLocation) float64 {
	sorted := append([]model.AnchorLocation(nil), anchors...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Boost > sorted[j].Boost })

	var total float64
	for i, a := range sorted {
		factor := 0.6
		switch i {
		case 0:
			factor = 1.0
		case 1:
			factor = 0.8
		}
		total += a.Boost * factor
	}
	if total > compositeCap {
		total = compositeCap
	}
	return total
}

// isSuperLocation reports whether 3+ anchors lie within 500 m, independent
// of the composite cap.
func isSuperLocation(anchors []model.AnchorLocation) bool {
	var close int
	for _, a := range anchors {
		if a.DistanceM < superLocationRadiusM {
			close++
		}
	}
	return close >= superLocationMinAnchors
}
