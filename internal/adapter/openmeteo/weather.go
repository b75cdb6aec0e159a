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

const weatherFields = "temperature_2m,relative_humidity_2m,precipitation," +
	"cloud_cover,visibility,wind_speed_10m,wind_direction_10m,wind_gusts_10m"

// WeatherClient implements domain.Sampler for the Open-Meteo forecast API.
type WeatherClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewWeatherClient creates a forecast client with the given per-request
// timeout and shared rate limiter.
func NewWeatherClient(timeout time.Duration, limiter *rate.Limiter, metrics *observability.Metrics, logger *slog.Logger) *WeatherClient {
	return &WeatherClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    forecastBaseURL,
		limiter:    limiter,
		metrics:    metrics,
		logger:     logger,
	}
}

func (c *WeatherClient) Source() domain.SourceKind { return domain.SourceWeather }

// Fetch samples the forecast at every point. A point whose request fails
// yields an all-missing reading; only when every point fails does Fetch
// report the source unavailable.
func (c *WeatherClient) Fetch(ctx context.Context, points []domain.GeoPoint, window domain.TimeWindow) (domain.SourceSamples, error) {
	out := domain.SourceSamples{
		Source:          domain.SourceWeather,
		NativeSpacingNm: weatherNativeSpacingNm,
		Samples:         make([]domain.Sample, 0, len(points)),
	}

	failures := 0
	for _, p := range points {
		sample, err := c.fetchPoint(ctx, p, window)
		if err != nil {
			if ctx.Err() != nil {
				return domain.SourceSamples{}, fmt.Errorf("weather fetch: %w", ctx.Err())
			}
			c.logger.Warn("weather fetch failed for point",
				"lat", p.Lat, "lon", p.Lon, "error", err)
			c.metrics.ProviderRequests.WithLabelValues(string(domain.SourceWeather), "error").Inc()
			failures++
			sample = domain.Sample{Point: p, Reading: domain.EmptyReading(domain.SourceWeather)}
		} else {
			c.metrics.ProviderRequests.WithLabelValues(string(domain.SourceWeather), "success").Inc()
		}
		out.Samples = append(out.Samples, sample)
	}

	if len(points) > 0 && failures == len(points) {
		return domain.SourceSamples{}, fmt.Errorf("weather: all %d point fetches failed: %w", failures, domain.ErrSourceUnavailable)
	}
	return out, nil
}

func (c *WeatherClient) fetchPoint(ctx context.Context, p domain.GeoPoint, window domain.TimeWindow) (domain.Sample, error) {
	params := url.Values{
		"latitude":        {fmt.Sprintf("%.4f", p.Lat)},
		"longitude":       {fmt.Sprintf("%.4f", p.Lon)},
		"wind_speed_unit": {"kn"},
		"timeformat":      {"unixtime"},
	}
	if window.IsZero() {
		params.Set("current", weatherFields)
	} else {
		params.Set("hourly", weatherFields)
		start, end := windowDates(window)
		params.Set("start_date", start)
		params.Set("end_date", end)
	}

	started := time.Now()
	var resp forecastResponse
	err := fetchJSON(ctx, c.httpClient, c.limiter, c.baseURL+"?"+params.Encode(), &resp)
	c.metrics.ProviderLatency.WithLabelValues(string(domain.SourceWeather)).Observe(time.Since(started).Seconds())
	if err != nil {
		return domain.Sample{}, err
	}

	reading, ok := resp.reading(window)
	if !ok {
		return domain.Sample{}, fmt.Errorf("response carries no observations")
	}

	// The provider snaps coordinates to its model grid; keep the snapped
	// location so fusion can judge representativeness.
	return domain.Sample{
		Point:   domain.GeoPoint{Lat: resp.Latitude, Lon: resp.Longitude},
		Reading: reading,
	}, nil
}

// Open-Meteo forecast response types.

type weatherValues struct {
	Time          int64    `json:"time"`
	Temperature   *float64 `json:"temperature_2m"`
	Humidity      *float64 `json:"relative_humidity_2m"`
	Precipitation *float64 `json:"precipitation"`
	CloudCover    *float64 `json:"cloud_cover"`
	Visibility    *float64 `json:"visibility"`
	WindSpeed     *float64 `json:"wind_speed_10m"`
	WindDirection *float64 `json:"wind_direction_10m"`
	WindGusts     *float64 `json:"wind_gusts_10m"`
}

type weatherHourly struct {
	Time          []int64    `json:"time"`
	Temperature   []*float64 `json:"temperature_2m"`
	Humidity      []*float64 `json:"relative_humidity_2m"`
	Precipitation []*float64 `json:"precipitation"`
	CloudCover    []*float64 `json:"cloud_cover"`
	Visibility    []*float64 `json:"visibility"`
	WindSpeed     []*float64 `json:"wind_speed_10m"`
	WindDirection []*float64 `json:"wind_direction_10m"`
	WindGusts     []*float64 `json:"wind_gusts_10m"`
}

type forecastResponse struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Current   *weatherValues `json:"current"`
	Hourly    *weatherHourly `json:"hourly"`
}

// reading maps the response onto the normalized Reading, choosing the hour
// closest to the window start when an hourly series was requested.
func (r forecastResponse) reading(window domain.TimeWindow) (domain.Reading, bool) {
	out := domain.EmptyReading(domain.SourceWeather)

	switch {
	case r.Current != nil:
		v := r.Current
		out.ObservedAt = time.Unix(v.Time, 0).UTC()
		setIf(&out, domain.FieldTemperatureC, v.Temperature)
		setIf(&out, domain.FieldHumidityPct, v.Humidity)
		setIf(&out, domain.FieldPrecipMm, v.Precipitation)
		setIf(&out, domain.FieldCloudCoverPct, v.CloudCover)
		setIf(&out, domain.FieldVisibilityM, v.Visibility)
		setIf(&out, domain.FieldWindSpeedKt, v.WindSpeed)
		setIf(&out, domain.FieldWindDirDeg, v.WindDirection)
		setIf(&out, domain.FieldWindGustKt, v.WindGusts)
		return out, true

	case r.Hourly != nil:
		i := closestIndex(r.Hourly.Time, window.Start)
		if i < 0 {
			return out, false
		}
		out.ObservedAt = time.Unix(r.Hourly.Time[i], 0).UTC()
		setIf(&out, domain.FieldTemperatureC, at(r.Hourly.Temperature, i))
		setIf(&out, domain.FieldHumidityPct, at(r.Hourly.Humidity, i))
		setIf(&out, domain.FieldPrecipMm, at(r.Hourly.Precipitation, i))
		setIf(&out, domain.FieldCloudCoverPct, at(r.Hourly.CloudCover, i))
		setIf(&out, domain.FieldVisibilityM, at(r.Hourly.Visibility, i))
		setIf(&out, domain.FieldWindSpeedKt, at(r.Hourly.WindSpeed, i))
		setIf(&out, domain.FieldWindDirDeg, at(r.Hourly.WindDirection, i))
		setIf(&out, domain.FieldWindGustKt, at(r.Hourly.WindGusts, i))
		return out, true
	}

	return out, false
}
