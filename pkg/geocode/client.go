// Package geocode resolves place names to coordinates via a Mapbox-style
// forward geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/expansion-cli/internal/resilience"
)

// Result is a single forward-geocoding match.
type Result struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	PlaceName string  `json:"place_name"`
	Relevance float64 `json:"relevance"`
	Matched   bool    `json:"matched"`
}

// Client performs forward geocoding.
type Client interface {
	Forward(ctx context.Context, place string) (*Result, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	baseURL string
	token   string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a forward-geocoding client against the given base URL
// (Mapbox places endpoint or compatible).
func NewClient(baseURL, token string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		retry:   resilience.DefaultRetryConfig(),
	}
	c.retry.OnRetry = resilience.RetryLogger("geocode", "forward")
	for _, o := range opts {
		o(c)
	}
	return c
}

type geocodeResponse struct {
	Features []struct {
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"` // lng, lat
		Relevance float64   `json:"relevance"`
	} `json:"features"`
}

func (c *httpClient) Forward(ctx context.Context, place string) (*Result, error) {
	if place == "" {
		return &Result{Matched: false}, nil
	}
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*Result, error) {
		return c.forward(ctx, place)
	})
}

func (c *httpClient) forward(ctx context.Context, place string) (*Result, error) {
	endpoint := fmt.Sprintf("%s/%s.json?access_token=%s&limit=1",
		c.baseURL, url.PathEscape(place), url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read response")
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("geocode: status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed geocodeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "geocode: unmarshal response")
	}

	if len(parsed.Features) == 0 || len(parsed.Features[0].Center) < 2 {
		zap.L().Debug("geocode: no match", zap.String("place", place))
		return &Result{Matched: false}, nil
	}

	f := parsed.Features[0]
	return &Result{
		Lat:       f.Center[1],
		Lng:       f.Center[0],
		PlaceName: f.PlaceName,
		Relevance: f.Relevance,
		Matched:   true,
	}, nil
}
