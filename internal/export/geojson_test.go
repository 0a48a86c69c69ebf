package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/expansion-cli/internal/model"
)

func TestWriteGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cells.geojson")

	cells := []model.ScoredCell{
		{ID: "c1", Lat: 52.09, Lng: 5.11, Bounds: [4]float64{5.10, 52.08, 5.12, 52.10}},
		{ID: "c2", Lat: 51.92, Lng: 4.48},
	}
	s1 := testSuggestion("c1")

	require.NoError(t, WriteGeoJSON(path, cells, []*model.StrategicSuggestion{&s1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)

	// Bounded cell renders as a polygon with its scoring attached.
	assert.Equal(t, "Polygon", fc.Features[0].Geometry.Type)
	assert.Equal(t, "white_space", fc.Features[0].Properties["dominant_strategy"])

	// Unscored cell falls back to a point and is marked skipped.
	assert.Equal(t, "Point", fc.Features[1].Geometry.Type)
	assert.Equal(t, true, fc.Features[1].Properties["skipped"])
}
