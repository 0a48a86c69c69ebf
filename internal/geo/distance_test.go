package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKM(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		wantKM                 float64
		delta                  float64
	}{
		{"same point", 52.37, 4.89, 52.37, 4.89, 0, 0.001},
		{"amsterdam to rotterdam", 52.3676, 4.9041, 51.9244, 4.4777, 57.2, 2.0},
		{"london to paris", 51.5074, -0.1278, 48.8566, 2.3522, 343.5, 3.0},
		{"one degree latitude", 50.0, 5.0, 51.0, 5.0, 111.2, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKM(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			assert.InDelta(t, tt.wantKM, got, tt.delta)
		})
	}
}

func TestDegreesPerKM(t *testing.T) {
	// Offsetting latitude by n*DegreesPerKM should land roughly n km away.
	got := DistanceKM(52.0, 5.0, 52.0+5*DegreesPerKM, 5.0)
	assert.InDelta(t, 5.0, got, 0.05)
}

func TestDistanceM(t *testing.T) {
	km := DistanceKM(52.0, 5.0, 52.01, 5.0)
	m := DistanceM(52.0, 5.0, 52.01, 5.0)
	assert.InDelta(t, km*1000, m, 0.001)
}

func TestCentroid(t *testing.T) {
	lat, lng := Centroid([]float64{52.0, 54.0}, []float64{4.0, 6.0})
	assert.InDelta(t, 53.0, lat, 0.001)
	assert.InDelta(t, 5.0, lng, 0.001)

	lat, lng = Centroid(nil, nil)
	assert.Zero(t, lat)
	assert.Zero(t, lng)
}

func TestCellPolygon(t *testing.T) {
	p := CellPolygon([4]float64{4.0, 52.0, 4.1, 52.1})
	assert.Equal(t, 1, p.NumLinearRings())
	coords := p.Coords()[0]
	assert.Len(t, coords, 5)
	assert.Equal(t, coords[0], coords[4])
}
