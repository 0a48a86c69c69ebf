package demographics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEconomicIndicators(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indicators", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"population":84000,"population_growth_rate":2.4,"median_income":46200,"data_completeness":0.92}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", "http://unreachable.invalid",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
	)
	got, err := c.GetEconomicIndicators(context.Background(), 52.37, 4.89)
	require.NoError(t, err)

	assert.Equal(t, 84000, got.Population)
	assert.InDelta(t, 2.4, got.PopulationGrowthRate, 0.001)
	assert.Equal(t, "high_growth", got.GrowthTrajectory)
	assert.InDelta(t, 46200.0/referenceMedianIncome, got.IncomeIndex, 0.001)
	assert.Equal(t, "census", got.DataSource)
}

func TestGetEconomicIndicatorsRetriesOn503(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"population":100,"population_growth_rate":0,"median_income":30000,"data_completeness":0.5}`))
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	got, err := c.GetEconomicIndicators(context.Background(), 52.0, 5.0)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Population)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGetEconomicIndicatorsBadRequestNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	_, err := c.GetEconomicIndicators(context.Background(), 52.0, 5.0)
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestTrajectory(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want string
	}{
		{"high growth", 3.1, "high_growth"},
		{"boundary high", 2.0, "high_growth"},
		{"moderate", 1.0, "moderate_growth"},
		{"stable", 0.0, "stable"},
		{"slightly negative stable", -0.4, "stable"},
		{"declining", -1.2, "declining"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Trajectory(tt.rate))
		})
	}
}

func TestIncomeIndex(t *testing.T) {
	assert.Zero(t, IncomeIndex(0))
	assert.InDelta(t, 1.0, IncomeIndex(referenceMedianIncome), 0.0001)
	assert.InDelta(t, 1.2, IncomeIndex(referenceMedianIncome*1.2), 0.0001)
}
