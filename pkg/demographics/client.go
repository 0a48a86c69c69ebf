// Package demographics looks up economic indicators for a geographic point
// against a demographic data API.
package demographics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/expansion-cli/internal/model"
	"github.com/sells-group/expansion-cli/internal/resilience"
)

// referenceMedianIncome normalizes median income into an index where 1.0 is
// the national reference.
const referenceMedianIncome = 38_500.0

// Client looks up economic indicators for a point.
type Client interface {
	GetEconomicIndicators(ctx context.Context, lat, lng float64) (*model.EconomicIndicators, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithSource sets the data-source label reported in results.
func WithSource(source string) Option {
	return func(c *httpClient) { c.source = source }
}

type httpClient struct {
	apiKey  string
	baseURL string
	source  string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a demographics API client.
func NewClient(apiKey, baseURL string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		source:  "census",
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		retry: resilience.DefaultRetryConfig(),
	}
	c.retry.OnRetry = resilience.RetryLogger("demographics", "indicators")
	for _, o := range opts {
		o(c)
	}
	return c
}

// apiResponse is the raw indicator payload for a point lookup.
type apiResponse struct {
	Population           int     `json:"population"`
	PopulationGrowthRate float64 `json:"population_growth_rate"`
	MedianIncome         float64 `json:"median_income"`
	DataCompleteness     float64 `json:"data_completeness"`
}

func (c *httpClient) GetEconomicIndicators(ctx context.Context, lat, lng float64) (*model.EconomicIndicators, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*model.EconomicIndicators, error) {
		return c.fetch(ctx, lat, lng)
	})
}

func (c *httpClient) fetch(ctx context.Context, lat, lng float64) (*model.EconomicIndicators, error) {
	url := fmt.Sprintf("%s/indicators?lat=%.6f&lng=%.6f", c.baseURL, lat, lng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "demographics: create request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "demographics: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "demographics: read response")
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("demographics: status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("demographics: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var raw apiResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "demographics: unmarshal response")
	}

	return &model.EconomicIndicators{
		Population:           raw.Population,
		PopulationGrowthRate: raw.PopulationGrowthRate,
		MedianIncome:         raw.MedianIncome,
		IncomeIndex:          IncomeIndex(raw.MedianIncome),
		GrowthTrajectory:     Trajectory(raw.PopulationGrowthRate),
		DataCompleteness:     raw.DataCompleteness,
		DataSource:           c.source,
	}, nil
}

// IncomeIndex normalizes a median income against the national reference.
func IncomeIndex(medianIncome float64) float64 {
	if medianIncome <= 0 {
		return 0
	}
	return medianIncome / referenceMedianIncome
}

// Trajectory buckets a population growth rate into a named trajectory.
func Trajectory(growthRate float64) string {
	switch {
	case growthRate >= 2.0:
		return "high_growth"
	case growthRate >= 0.5:
		return "moderate_growth"
	case growthRate >= -0.5:
		return "stable"
	default:
		return "declining"
	}
}
