package openmeteo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/harborwatch/sector-scoring/internal/domain"
)

type sunDaily struct {
	Sunrise []int64 `json:"sunrise"`
	Sunset  []int64 `json:"sunset"`
}

type sunResponse struct {
	Daily *sunDaily `json:"daily"`
}

// SunTimes fetches sunrise and sunset for the given date at a point. This is
// scenario enrichment only; failures never affect scoring.
func (c *WeatherClient) SunTimes(ctx context.Context, p domain.GeoPoint, date time.Time) (domain.SunTimes, error) {
	day := date.UTC().Format("2006-01-02")
	params := url.Values{
		"latitude":   {fmt.Sprintf("%.4f", p.Lat)},
		"longitude":  {fmt.Sprintf("%.4f", p.Lon)},
		"daily":      {"sunrise,sunset"},
		"timeformat": {"unixtime"},
		"timezone":   {"UTC"},
		"start_date": {day},
		"end_date":   {day},
	}

	var resp sunResponse
	if err := fetchJSON(ctx, c.httpClient, c.limiter, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return domain.SunTimes{}, fmt.Errorf("sun times: %w", err)
	}
	if resp.Daily == nil || len(resp.Daily.Sunrise) == 0 || len(resp.Daily.Sunset) == 0 {
		return domain.SunTimes{}, fmt.Errorf("sun times: response carries no daily series")
	}

	return domain.SunTimes{
		Sunrise: time.Unix(resp.Daily.Sunrise[0], 0).UTC(),
		Sunset:  time.Unix(resp.Daily.Sunset[0], 0).UTC(),
	}, nil
}
