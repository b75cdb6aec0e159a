// Package opentopo adapts the OpenTopoData GEBCO 2020 bathymetry dataset
// onto the engine's sampler contract. Unlike the weather providers it
// supports batched lookups, up to 100 locations per request.
package opentopo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/harborwatch/sector-scoring/internal/domain"
	"github.com/harborwatch/sector-scoring/internal/observability"
)

const (
	defaultBaseURL = "https://api.opentopodata.org/v1/gebco2020"

	// GEBCO 2020 is a 15 arc-second grid, about a quarter nautical mile.
	nativeSpacingNm = 0.25

	maxBatchSize = 100
)

// Client implements domain.Sampler for bathymetric depth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

func NewClient(timeout time.Duration, limiter *rate.Limiter, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		limiter:    limiter,
		metrics:    metrics,
		logger:     logger,
	}
}

func (c *Client) Source() domain.SourceKind { return domain.SourceBathymetry }

// Fetch resolves elevation for every point in batches. A failed batch
// degrades to all-missing readings for its points; only when every batch
// fails does Fetch report the source unavailable.
func (c *Client) Fetch(ctx context.Context, points []domain.GeoPoint, window domain.TimeWindow) (domain.SourceSamples, error) {
	_ = window // bathymetry is static

	out := domain.SourceSamples{
		Source:          domain.SourceBathymetry,
		NativeSpacingNm: nativeSpacingNm,
		Samples:         make([]domain.Sample, 0, len(points)),
	}

	batches := 0
	failed := 0
	for start := 0; start < len(points); start += maxBatchSize {
		end := min(start+maxBatchSize, len(points))
		batch := points[start:end]
		batches++

		samples, err := c.fetchBatch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return domain.SourceSamples{}, fmt.Errorf("bathymetry fetch: %w", ctx.Err())
			}
			c.logger.Warn("bathymetry batch failed",
				"points", len(batch), "error", err)
			c.metrics.ProviderRequests.WithLabelValues(string(domain.SourceBathymetry), "error").Inc()
			failed++
			for _, p := range batch {
				out.Samples = append(out.Samples, domain.Sample{
					Point:   p,
					Reading: domain.EmptyReading(domain.SourceBathymetry),
				})
			}
			continue
		}
		c.metrics.ProviderRequests.WithLabelValues(string(domain.SourceBathymetry), "success").Inc()
		out.Samples = append(out.Samples, samples...)
	}

	if batches > 0 && failed == batches {
		return domain.SourceSamples{}, fmt.Errorf("bathymetry: all %d batches failed: %w", failed, domain.ErrSourceUnavailable)
	}
	return out, nil
}

func (c *Client) fetchBatch(ctx context.Context, batch []domain.GeoPoint) ([]domain.Sample, error) {
	locs := make([]string, 0, len(batch))
	for _, p := range batch {
		locs = append(locs, fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon))
	}
	params := url.Values{"locations": {strings.Join(locs, "|")}}

	started := time.Now()
	var resp elevationResponse
	err := c.fetchJSON(ctx, c.baseURL+"?"+params.Encode(), &resp)
	c.metrics.ProviderLatency.WithLabelValues(string(domain.SourceBathymetry)).Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("opentopodata status %q: %s", resp.Status, resp.Error)
	}
	if len(resp.Results) != len(batch) {
		return nil, fmt.Errorf("opentopodata returned %d results for %d locations", len(resp.Results), len(batch))
	}

	samples := make([]domain.Sample, 0, len(batch))
	for _, res := range resp.Results {
		samples = append(samples, domain.Sample{
			Point:   domain.GeoPoint{Lat: res.Location.Lat, Lon: res.Location.Lng},
			Reading: res.reading(),
		})
	}
	return samples, nil
}

func (c *Client) fetchJSON(ctx context.Context, fullURL string, out *elevationResponse) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("opentopodata API error: status %d", httpResp.StatusCode)
	}
	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type elevationResult struct {
	// Elevation is nil where the dataset has no value for the cell.
	Elevation *float64 `json:"elevation"`
	Location  struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

type elevationResponse struct {
	Status  string            `json:"status"`
	Error   string            `json:"error"`
	Results []elevationResult `json:"results"`
}

// reading maps GEBCO elevation onto the normalized fields: negative
// elevation becomes positive depth; zero or positive marks land with no
// depth at all.
func (r elevationResult) reading() domain.Reading {
	out := domain.EmptyReading(domain.SourceBathymetry)
	if r.Elevation == nil {
		return out
	}
	if *r.Elevation < 0 {
		out.Set(domain.FieldDepthM, -*r.Elevation)
	} else {
		out.Set(domain.FieldLand, 1)
	}
	return out
}
