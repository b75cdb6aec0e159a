package openmeteo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/harborwatch/sector-scoring/internal/domain"
)

// GeocodeClient resolves named places to coordinates via the Open-Meteo
// geocoding API, so plans can name an origin instead of spelling lat/lon.
type GeocodeClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

func NewGeocodeClient(timeout time.Duration, limiter *rate.Limiter) *GeocodeClient {
	return &GeocodeClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    geocodingBaseURL,
		limiter:    limiter,
	}
}

type geocodeResult struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
}

type geocodeResponse struct {
	Results []geocodeResult `json:"results"`
}

// Geocode returns the best match for a place name along with the resolved
// display name.
func (c *GeocodeClient) Geocode(ctx context.Context, name string) (domain.GeoPoint, string, error) {
	params := url.Values{
		"name":  {name},
		"count": {"1"},
	}

	var resp geocodeResponse
	if err := fetchJSON(ctx, c.httpClient, c.limiter, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return domain.GeoPoint{}, "", fmt.Errorf("geocode %q: %w", name, err)
	}
	if len(resp.Results) == 0 {
		return domain.GeoPoint{}, "", fmt.Errorf("geocode %q: location not found", name)
	}

	best := resp.Results[0]
	resolved := best.Name
	if best.Country != "" {
		resolved = best.Name + ", " + best.Country
	}
	return domain.GeoPoint{Lat: best.Latitude, Lon: best.Longitude}, resolved, nil
}
