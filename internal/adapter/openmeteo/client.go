// Package openmeteo adapts the Open-Meteo public forecast, marine, and
// geocoding APIs onto the engine's sampler contracts. Requests are paced by
// a shared token-bucket limiter; Open-Meteo requires no authentication but
// rate-limits aggressive callers.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/harborwatch/sector-scoring/internal/domain"
)

const (
	forecastBaseURL  = "https://api.open-meteo.com/v1/forecast"
	marineBaseURL    = "https://marine-api.open-meteo.com/v1/marine"
	geocodingBaseURL = "https://geocoding-api.open-meteo.com/v1/search"

	// Native model resolutions, nautical miles. The forecast model grid is
	// roughly 11 km, the marine model 5 km. Fusion caps joins at twice
	// these values.
	weatherNativeSpacingNm = 6.0
	marineNativeSpacingNm  = 2.7

	kmhToKt = 0.539957
)

// fetchJSON performs one rate-limited GET and decodes the JSON body.
func fetchJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, fullURL string, out any) error {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// setIf copies an optional provider field onto a reading; nil stays missing.
func setIf(r *domain.Reading, name string, v *float64) {
	if v != nil {
		r.Set(name, *v)
	}
}

// at returns element i of an optional hourly series, nil when the series is
// short or absent.
func at(series []*float64, i int) *float64 {
	if i < 0 || i >= len(series) {
		return nil
	}
	return series[i]
}

// closestIndex picks the hourly slot nearest the target time.
func closestIndex(times []int64, target time.Time) int {
	if len(times) == 0 {
		return -1
	}
	best, bestDiff := 0, math.MaxFloat64
	for i, ts := range times {
		diff := math.Abs(time.Unix(ts, 0).Sub(target).Seconds())
		if diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

// windowDates returns the start/end date strings for an hourly query.
func windowDates(w domain.TimeWindow) (string, string) {
	start := w.Start.UTC()
	end := w.End.UTC()
	if end.Before(start) {
		end = start
	}
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}
