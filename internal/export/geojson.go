package export

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/expansion-cli/internal/geo"
	"github.com/sells-group/expansion-cli/internal/model"
)

// WriteGeoJSON writes candidate cells and their suggestions as a GeoJSON
// FeatureCollection for map tooling. Cells with bounds become polygons,
// bare points otherwise; scoring results are attached as properties,
// matched by cell ID.
func WriteGeoJSON(path string, cells []model.ScoredCell, suggestions []*model.StrategicSuggestion) error {
	byID := make(map[string]*model.StrategicSuggestion, len(suggestions))
	for _, s := range suggestions {
		byID[s.CellID] = s
	}

	fc := &geojson.FeatureCollection{}
	for _, cell := range cells {
		var g geom.T
		if cell.Bounds != ([4]float64{}) {
			g = geo.CellPolygon(cell.Bounds)
		} else {
			g = geom.NewPointFlat(geom.XY, []float64{cell.Lng, cell.Lat})
		}

		props := map[string]interface{}{
			"cell_id": cell.ID,
		}
		if s, ok := byID[cell.ID]; ok {
			props["confidence"] = string(s.Confidence)
			props["weighted_total"] = round3(s.Breakdown.WeightedTotal)
			props["dominant_strategy"] = string(s.Breakdown.DominantStrategy)
			props["classification"] = s.Breakdown.Classification
			props["summary"] = s.Summary
		} else {
			props["skipped"] = true
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         cell.ID,
			Geometry:   g,
			Properties: props,
		})
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "export: marshal feature collection")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "export: write geojson")
	}

	zap.L().Info("geojson exported",
		zap.String("path", path), zap.Int("features", len(fc.Features)))
	return nil
}
