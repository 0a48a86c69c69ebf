// Package overpass queries OpenStreetMap POIs around a candidate location
// via the Overpass API, one anchor category at a time.
package overpass

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	ovp "github.com/serjvanilla/go-overpass"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/expansion-cli/internal/config"
	"github.com/sells-group/expansion-cli/internal/model"
)

// POI is a raw OpenStreetMap feature returned by a category query.
type POI struct {
	ID   int64             `json:"id"`
	Lat  float64           `json:"lat"`
	Lng  float64           `json:"lng"`
	Name string            `json:"name"`
	Tags map[string]string `json:"tags"`
}

// Client queries POIs for one anchor category within a radius of a point.
type Client interface {
	QueryCategory(ctx context.Context, lat, lng float64, radiusM int, category model.AnchorCategory) ([]POI, error)
}

type client struct {
	op      ovp.Client
	limiter *rate.Limiter
}

// New creates an Overpass-backed POI client with a shared rate limit.
func New(cfg config.OverpassConfig) Client {
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}
	return &client{
		op:      ovp.NewWithSettings(cfg.Endpoint, 2, httpClient),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// categorySelectors maps each anchor category to its Overpass tag filters.
var categorySelectors = map[model.AnchorCategory][]string{
	model.AnchorTransport: {
		`["railway"="station"]`,
		`["public_transport"="station"]`,
		`["highway"="bus_stop"]`,
	},
	model.AnchorEducation: {
		`["amenity"~"school|college|university"]`,
	},
	model.AnchorRetail: {
		`["shop"~"mall|supermarket|department_store"]`,
	},
	model.AnchorService: {
		`["amenity"="fuel"]`,
	},
}

func (c *client) QueryCategory(ctx context.Context, lat, lng float64, radiusM int, category model.AnchorCategory) ([]POI, error) {
	selectors, ok := categorySelectors[category]
	if !ok {
		return nil, eris.Errorf("overpass: unknown anchor category %q", category)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "overpass: rate limit wait")
	}

	query := buildQuery(lat, lng, radiusM, selectors)
	result, err := c.op.Query(query)
	if err != nil {
		return nil, eris.Wrapf(err, "overpass: query %s", category)
	}

	pois := convertResult(&result)
	zap.L().Debug("overpass query complete",
		zap.String("category", string(category)),
		zap.Int("radius_m", radiusM),
		zap.Int("features", len(pois)),
	)
	return pois, nil
}

func buildQuery(lat, lng float64, radiusM int, selectors []string) string {
	around := fmt.Sprintf("(around:%d,%.6f,%.6f)", radiusM, lat, lng)
	body := ""
	for _, sel := range selectors {
		body += fmt.Sprintf("\tnode%s%s;\n\tway%s%s;\n", sel, around, sel, around)
	}
	return fmt.Sprintf("[out:json];\n(\n%s);\nout body;\n>;\nout skel qt;\n", body)
}

func convertResult(result *ovp.Result) []POI {
	var pois []POI

	for _, node := range result.Nodes {
		if len(node.Tags) == 0 {
			continue // skeleton nodes referenced by ways
		}
		pois = append(pois, POI{
			ID:   node.ID,
			Lat:  node.Lat,
			Lng:  node.Lon,
			Name: node.Tags["name"],
			Tags: node.Tags,
		})
	}

	for _, way := range result.Ways {
		if len(way.Tags) == 0 {
			continue
		}
		// Ways are reduced to their vertex centroid.
		var lat, lng float64
		if n := len(way.Nodes); n > 0 {
			for _, node := range way.Nodes {
				lat += node.Lat
				lng += node.Lon
			}
			lat /= float64(n)
			lng /= float64(n)
		}
		pois = append(pois, POI{
			ID:   way.ID,
			Lat:  lat,
			Lng:  lng,
			Name: way.Tags["name"],
			Tags: way.Tags,
		})
	}

	return pois
}
