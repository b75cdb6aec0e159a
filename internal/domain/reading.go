package domain

import (
	"context"
	"errors"
	"time"
)

// SourceKind identifies one of the three geophysical data categories.
type SourceKind string

const (
	SourceWeather    SourceKind = "weather"
	SourceMarine     SourceKind = "marine"
	SourceBathymetry SourceKind = "bathymetry"
)

// Sources lists all source kinds in canonical order.
func Sources() []SourceKind {
	return []SourceKind{SourceWeather, SourceMarine, SourceBathymetry}
}

// Reading field names. Adapters normalize provider payloads onto these:
// knots for speeds, meters for heights/depths/visibility, degrees for
// directions, millimeters for precipitation, percent for cloud cover.
const (
	FieldWindSpeedKt     = "wind_speed_kt"
	FieldWindGustKt      = "wind_gust_kt"
	FieldWindDirDeg      = "wind_direction_deg"
	FieldVisibilityM     = "visibility_m"
	FieldCloudCoverPct   = "cloud_cover_pct"
	FieldPrecipMm        = "precipitation_mm"
	FieldTemperatureC    = "temperature_c"
	FieldHumidityPct     = "humidity_pct"
	FieldWaveHeightM     = "wave_height_m"
	FieldWavePeriodS     = "wave_period_s"
	FieldWaveDirDeg      = "wave_direction_deg"
	FieldSwellHeightM    = "swell_height_m"
	FieldCurrentKt       = "current_velocity_kt"
	FieldCurrentDirDeg   = "current_direction_deg"
	FieldDepthM          = "depth_m"
	FieldLand            = "land" // 1 when the point is above sea level
)

// Reading is one normalized observation for a point. A field a provider
// could not supply is absent from Fields; missing is never encoded as zero.
type Reading struct {
	Source     SourceKind         `json:"source"`
	ObservedAt time.Time          `json:"observedAt,omitzero"`
	Estimated  bool               `json:"estimated,omitempty"`
	Fields     map[string]float64 `json:"fields,omitempty"`
}

// EmptyReading is an all-fields-missing reading, used when a single point's
// fetch fails or no source sample lies within the join radius.
func EmptyReading(source SourceKind) Reading {
	return Reading{Source: source}
}

// Field returns a named field and whether it is present.
func (r Reading) Field(name string) (float64, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Has reports whether the named field is present.
func (r Reading) Has(name string) bool {
	_, ok := r.Fields[name]
	return ok
}

// set stores a field value, allocating the map on first use.
func (r *Reading) set(name string, v float64) {
	if r.Fields == nil {
		r.Fields = make(map[string]float64)
	}
	r.Fields[name] = v
}

// Set stores a field value.
func (r *Reading) Set(name string, v float64) { r.set(name, v) }

// Sample is one source observation at the provider's own coordinate, which
// may be snapped away from the requested grid point.
type Sample struct {
	Point   GeoPoint `json:"point"`
	Reading Reading  `json:"reading"`
}

// SourceSamples is one source's full response for a run: its samples plus
// the native point spacing of the underlying dataset, which drives the
// maximum fusion join radius.
type SourceSamples struct {
	Source          SourceKind `json:"source"`
	NativeSpacingNm float64    `json:"nativeSpacingNm"`
	Samples         []Sample   `json:"samples"`
}

// TimeWindow bounds weather/marine queries. The zero value means current
// conditions.
type TimeWindow struct {
	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
}

// IsZero reports whether the window is unset.
func (w TimeWindow) IsZero() bool { return w.Start.IsZero() && w.End.IsZero() }

// ErrSourceUnavailable signals a total outage of one data category for a
// run. It is recovered by weight redistribution in scoring, never fatal.
var ErrSourceUnavailable = errors.New("source unavailable")

// Sampler fetches readings for a set of points from one source. Per-point
// failures yield empty readings; only a total outage returns an error
// wrapping ErrSourceUnavailable.
type Sampler interface {
	Source() SourceKind
	Fetch(ctx context.Context, points []GeoPoint, window TimeWindow) (SourceSamples, error)
}
