package openmeteo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/harborwatch/sector-scoring/internal/domain"
	"github.com/harborwatch/sector-scoring/internal/observability"
)

const marineFields = "wave_height,wave_direction,wave_period," +
	"swell_wave_height,ocean_current_velocity,ocean_current_direction"

// MarineClient implements domain.Sampler for the Open-Meteo marine API.
type MarineClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewMarineClient creates a marine sea-state client.
func NewMarineClient(timeout time.Duration, limiter *rate.Limiter, metrics *observability.Metrics, logger *slog.Logger) *MarineClient {
	return &MarineClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    marineBaseURL,
		limiter:    limiter,
		metrics:    metrics,
		logger:     logger,
	}
}

func (c *MarineClient) Source() domain.SourceKind { return domain.SourceMarine }

// Fetch samples sea state at every point, degrading per point and reporting
// the source unavailable only on total failure.
func (c *MarineClient) Fetch(ctx context.Context, points []domain.GeoPoint, window domain.TimeWindow) (domain.SourceSamples, error) {
	out := domain.SourceSamples{
		Source:          domain.SourceMarine,
		NativeSpacingNm: marineNativeSpacingNm,
		Samples:         make([]domain.Sample, 0, len(points)),
	}

	failures := 0
	for _, p := range points {
		sample, err := c.fetchPoint(ctx, p, window)
		if err != nil {
			if ctx.Err() != nil {
				return domain.SourceSamples{}, fmt.Errorf("marine fetch: %w", ctx.Err())
			}
			c.logger.Warn("marine fetch failed for point",
				"lat", p.Lat, "lon", p.Lon, "error", err)
			c.metrics.ProviderRequests.WithLabelValues(string(domain.SourceMarine), "error").Inc()
			failures++
			sample = domain.Sample{Point: p, Reading: domain.EmptyReading(domain.SourceMarine)}
		} else {
			c.metrics.ProviderRequests.WithLabelValues(string(domain.SourceMarine), "success").Inc()
		}
		out.Samples = append(out.Samples, sample)
	}

	if len(points) > 0 && failures == len(points) {
		return domain.SourceSamples{}, fmt.Errorf("marine: all %d point fetches failed: %w", failures, domain.ErrSourceUnavailable)
	}
	return out, nil
}

func (c *MarineClient) fetchPoint(ctx context.Context, p domain.GeoPoint, window domain.TimeWindow) (domain.Sample, error) {
	params := url.Values{
		"latitude":   {fmt.Sprintf("%.4f", p.Lat)},
		"longitude":  {fmt.Sprintf("%.4f", p.Lon)},
		"timeformat": {"unixtime"},
	}
	if window.IsZero() {
		params.Set("current", marineFields)
	} else {
		params.Set("hourly", marineFields)
		start, end := windowDates(window)
		params.Set("start_date", start)
		params.Set("end_date", end)
	}

	started := time.Now()
	var resp marineResponse
	err := fetchJSON(ctx, c.httpClient, c.limiter, c.baseURL+"?"+params.Encode(), &resp)
	c.metrics.ProviderLatency.WithLabelValues(string(domain.SourceMarine)).Observe(time.Since(started).Seconds())
	if err != nil {
		return domain.Sample{}, err
	}

	reading, ok := resp.reading(window)
	if !ok {
		return domain.Sample{}, fmt.Errorf("response carries no observations")
	}

	return domain.Sample{
		Point:   domain.GeoPoint{Lat: resp.Latitude, Lon: resp.Longitude},
		Reading: reading,
	}, nil
}

// Open-Meteo marine response types. Current velocity arrives in km/h and is
// normalized to knots.

type marineValues struct {
	Time             int64    `json:"time"`
	WaveHeight       *float64 `json:"wave_height"`
	WaveDirection    *float64 `json:"wave_direction"`
	WavePeriod       *float64 `json:"wave_period"`
	SwellWaveHeight  *float64 `json:"swell_wave_height"`
	CurrentVelocity  *float64 `json:"ocean_current_velocity"`
	CurrentDirection *float64 `json:"ocean_current_direction"`
}

type marineHourly struct {
	Time             []int64    `json:"time"`
	WaveHeight       []*float64 `json:"wave_height"`
	WaveDirection    []*float64 `json:"wave_direction"`
	WavePeriod       []*float64 `json:"wave_period"`
	SwellWaveHeight  []*float64 `json:"swell_wave_height"`
	CurrentVelocity  []*float64 `json:"ocean_current_velocity"`
	CurrentDirection []*float64 `json:"ocean_current_direction"`
}

type marineResponse struct {
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Current   *marineValues `json:"current"`
	Hourly    *marineHourly `json:"hourly"`
}

func (r marineResponse) reading(window domain.TimeWindow) (domain.Reading, bool) {
	out := domain.EmptyReading(domain.SourceMarine)

	switch {
	case r.Current != nil:
		v := r.Current
		out.ObservedAt = time.Unix(v.Time, 0).UTC()
		setIf(&out, domain.FieldWaveHeightM, v.WaveHeight)
		setIf(&out, domain.FieldWaveDirDeg, v.WaveDirection)
		setIf(&out, domain.FieldWavePeriodS, v.WavePeriod)
		setIf(&out, domain.FieldSwellHeightM, v.SwellWaveHeight)
		setIf(&out, domain.FieldCurrentKt, scale(v.CurrentVelocity, kmhToKt))
		setIf(&out, domain.FieldCurrentDirDeg, v.CurrentDirection)
		return out, true

	case r.Hourly != nil:
		i := closestIndex(r.Hourly.Time, window.Start)
		if i < 0 {
			return out, false
		}
		out.ObservedAt = time.Unix(r.Hourly.Time[i], 0).UTC()
		setIf(&out, domain.FieldWaveHeightM, at(r.Hourly.WaveHeight, i))
		setIf(&out, domain.FieldWaveDirDeg, at(r.Hourly.WaveDirection, i))
		setIf(&out, domain.FieldWavePeriodS, at(r.Hourly.WavePeriod, i))
		setIf(&out, domain.FieldSwellHeightM, at(r.Hourly.SwellWaveHeight, i))
		setIf(&out, domain.FieldCurrentKt, scale(at(r.Hourly.CurrentVelocity, i), kmhToKt))
		setIf(&out, domain.FieldCurrentDirDeg, at(r.Hourly.CurrentDirection, i))
		return out, true
	}

	return out, false
}

func scale(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v * factor
	return &scaled
}
