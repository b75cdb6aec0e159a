package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singlePointGrid(p GeoPoint) []GridPoint {
	return []GridPoint{{Index: GridIndex{}, GeoPoint: p}}
}

func fusedWith(readings ...Reading) map[GridIndex]FusedReadings {
	fr := FusedReadings{}
	for _, r := range readings {
		fr[r.Source] = r
	}
	return map[GridIndex]FusedReadings{{}: fr}
}

func bathyReading(depthM float64) Reading {
	r := EmptyReading(SourceBathymetry)
	r.Set(FieldDepthM, depthM)
	return r
}

func TestApplyConstraints_ExclusionZoneIsStrict(t *testing.T) {
	p := GeoPoint{Lat: 10, Lon: 120}
	zones := []HazardZone{{
		Name: "minefield", Center: p, RadiusNm: 5, Severity: 100, Exclusionary: true,
	}}

	out := ApplyConstraints(singlePointGrid(p), fusedWith(), zones, nil, VesselProfile{})

	c := out[GridIndex{}]
	assert.False(t, c.Eligible)
	assert.Contains(t, c.Reasons[0], "minefield")
}

func TestApplyConstraints_PenaltyDecaysLinearly(t *testing.T) {
	origin := GeoPoint{Lat: 0, Lon: 0}
	zone := HazardZone{Name: "patrol area", Center: origin, RadiusNm: 10, Severity: 40}

	halfway := Destination(origin, 90, 5)
	out := ApplyConstraints(singlePointGrid(halfway), fusedWith(), []HazardZone{zone}, nil, VesselProfile{})
	c := out[GridIndex{}]
	assert.True(t, c.Eligible)
	assert.InDelta(t, 20.0, c.Penalty, 0.1)

	outside := Destination(origin, 90, 12)
	out = ApplyConstraints(singlePointGrid(outside), fusedWith(), []HazardZone{zone}, nil, VesselProfile{})
	assert.Zero(t, out[GridIndex{}].Penalty)
}

func TestApplyConstraints_PolygonZone(t *testing.T) {
	poly := []GeoPoint{
		{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 1, Lon: 0},
	}
	zone := HazardZone{Name: "restricted", Polygon: poly, Severity: 100, Exclusionary: true}

	inside := GeoPoint{Lat: 0.5, Lon: 0.5}
	out := ApplyConstraints(singlePointGrid(inside), fusedWith(), []HazardZone{zone}, nil, VesselProfile{})
	assert.False(t, out[GridIndex{}].Eligible)

	outside := GeoPoint{Lat: 2, Lon: 2}
	out = ApplyConstraints(singlePointGrid(outside), fusedWith(), []HazardZone{zone}, nil, VesselProfile{})
	assert.True(t, out[GridIndex{}].Eligible)
}

func TestApplyConstraints_MandatoryCorridor(t *testing.T) {
	rule := ConnectorRule{
		Name:  "approach lane",
		Start: GeoPoint{Lat: 0, Lon: 0}, End: GeoPoint{Lat: 0, Lon: 1},
		WidthNm: 5, Mandatory: true,
	}

	inLane := GeoPoint{Lat: 0.05, Lon: 0.5} // 3 nm off the centerline
	out := ApplyConstraints(singlePointGrid(inLane), fusedWith(), nil, []ConnectorRule{rule}, VesselProfile{})
	assert.True(t, out[GridIndex{}].Eligible)

	offLane := GeoPoint{Lat: 0.5, Lon: 0.5} // 30 nm off
	out = ApplyConstraints(singlePointGrid(offLane), fusedWith(), nil, []ConnectorRule{rule}, VesselProfile{})
	c := out[GridIndex{}]
	assert.False(t, c.Eligible)
	assert.Contains(t, c.Reasons[0], "mandatory corridor")
}

func TestApplyConstraints_ObstacleCorridor(t *testing.T) {
	rule := ConnectorRule{
		Name:  "cable run",
		Start: GeoPoint{Lat: 0, Lon: 0}, End: GeoPoint{Lat: 0, Lon: 1},
		WidthNm: 2,
	}

	onCable := GeoPoint{Lat: 0, Lon: 0.5}
	out := ApplyConstraints(singlePointGrid(onCable), fusedWith(), nil, []ConnectorRule{rule}, VesselProfile{})
	assert.False(t, out[GridIndex{}].Eligible)

	clear := GeoPoint{Lat: 0.5, Lon: 0.5}
	out = ApplyConstraints(singlePointGrid(clear), fusedWith(), nil, []ConnectorRule{rule}, VesselProfile{})
	assert.True(t, out[GridIndex{}].Eligible)
}

func TestApplyConstraints_DepthBelowDraftGates(t *testing.T) {
	// A vessel drawing 8 m over a 5 m bottom is ineligible no matter the
	// mission weights.
	vessel := VesselProfile{DraftM: 8}
	out := ApplyConstraints(
		singlePointGrid(GeoPoint{}), fusedWith(bathyReading(5)), nil, nil, vessel,
	)

	c := out[GridIndex{}]
	require.False(t, c.Eligible)
	assert.Contains(t, c.Reasons[0], "below vessel minimum")
}

func TestApplyConstraints_MissingDepthDoesNotGate(t *testing.T) {
	vessel := VesselProfile{DraftM: 8}
	out := ApplyConstraints(
		singlePointGrid(GeoPoint{}), fusedWith(EmptyReading(SourceBathymetry)), nil, nil, vessel,
	)
	assert.True(t, out[GridIndex{}].Eligible, "a missing reading must never hard-gate")
}

func TestApplyConstraints_LandGates(t *testing.T) {
	land := EmptyReading(SourceBathymetry)
	land.Set(FieldLand, 1)

	out := ApplyConstraints(singlePointGrid(GeoPoint{}), fusedWith(land), nil, nil, VesselProfile{})
	assert.False(t, out[GridIndex{}].Eligible)
}

func TestApplyConstraints_VesselWeatherLimits(t *testing.T) {
	wind := EmptyReading(SourceWeather)
	wind.Set(FieldWindSpeedKt, 40)
	wave := EmptyReading(SourceMarine)
	wave.Set(FieldWaveHeightM, 3.5)

	vessel := VesselProfile{MaxWindKt: 30, MaxWaveHeightM: 2.5}
	out := ApplyConstraints(singlePointGrid(GeoPoint{}), fusedWith(wind, wave), nil, nil, vessel)

	c := out[GridIndex{}]
	assert.False(t, c.Eligible)
	assert.Len(t, c.Reasons, 2)
}
