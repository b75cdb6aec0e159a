package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// perSourceWeights weights exactly one criterion per source so the
// renormalization examples are easy to read.
func perSourceWeights(t *testing.T) MissionWeights {
	t.Helper()
	w, err := NewMissionWeights("balanced", map[string]float64{
		CriterionWeather:     0.5,
		CriterionSeaState:    0.3,
		CriterionDepth:       0.2,
		CriterionFlightOps:   0,
		CriterionFireSupport: 0,
		CriterionDistance:    0,
	})
	require.NoError(t, err)
	return w
}

func weatherReading(windKt float64) Reading {
	r := EmptyReading(SourceWeather)
	r.Set(FieldWindSpeedKt, windKt)
	return r
}

func allEligible(grid []GridPoint) map[GridIndex]Constraint {
	out := make(map[GridIndex]Constraint, len(grid))
	for _, gp := range grid {
		out[gp.Index] = Constraint{Eligible: true}
	}
	return out
}

func TestEngine_Score_RedistributesMissingCriterionWeight(t *testing.T) {
	grid := singlePointGrid(Destination(GeoPoint{}, 90, 13))
	fused := fusedWith(
		EmptyReading(SourceWeather), // wind missing: weather excluded
		marineReading(1.0),
		bathyReading(50),
	)

	engine := NewEngine(perSourceWeights(t), VesselProfile{}, GeoPoint{})
	scored := engine.Score(grid, fused, allEligible(grid))
	require.Len(t, scored, 1)

	b := scored[0].Breakdown
	assert.False(t, b[CriterionWeather].Available)
	assert.True(t, b[CriterionSeaState].Available)
	assert.True(t, b[CriterionDepth].Available)

	// The missing criterion's weight redistributes proportionally:
	// 0.3/0.5 and 0.2/0.5, summing to 1.
	assert.InDelta(t, 0.6, b[CriterionSeaState].Share, 0.001)
	assert.InDelta(t, 0.4, b[CriterionDepth].Share, 0.001)
	assert.InDelta(t, 1.0, b[CriterionSeaState].Share+b[CriterionDepth].Share, 0.001)
}

func TestEngine_Score_SourceUnavailableRenormalizesWholeRun(t *testing.T) {
	grid := singlePointGrid(Destination(GeoPoint{}, 90, 13))
	fused := fusedWith(marineReading(1.0), bathyReading(50))

	engine := NewEngine(perSourceWeights(t), VesselProfile{}, GeoPoint{},
		WithUnavailableSources(SourceWeather))
	scored := engine.Score(grid, fused, allEligible(grid))

	b := scored[0].Breakdown
	assert.False(t, b[CriterionWeather].Available)
	assert.InDelta(t, 0.6, b[CriterionSeaState].Share, 0.001)
	assert.InDelta(t, 0.4, b[CriterionDepth].Share, 0.001)
}

func TestEngine_Score_MissingIsNotWorstCase(t *testing.T) {
	grid := singlePointGrid(Destination(GeoPoint{}, 90, 13))

	// Identical marine/bathy conditions; one point also reports a gale,
	// the other has no weather data at all. Missing must score at least
	// as well as the bad observation, never as an implicit zero.
	badWeather := fusedWith(weatherReading(34), marineReading(0.5), bathyReading(50))
	noWeather := fusedWith(EmptyReading(SourceWeather), marineReading(0.5), bathyReading(50))

	engine := NewEngine(perSourceWeights(t), VesselProfile{}, GeoPoint{})
	withBad := engine.Score(grid, badWeather, allEligible(grid))[0]
	withMissing := engine.Score(grid, noWeather, allEligible(grid))[0]

	assert.Greater(t, withMissing.Score, withBad.Score)
	assert.Positive(t, withMissing.Score)
}

func TestEngine_Score_IneligibleKeepsBreakdownAtZeroScore(t *testing.T) {
	grid := singlePointGrid(Destination(GeoPoint{}, 90, 13))
	fused := fusedWith(weatherReading(5), marineReading(0.2), bathyReading(50))

	constraints := map[GridIndex]Constraint{
		{}: {Eligible: false, Reasons: []string{"inside exclusion zone \"minefield\""}},
	}

	engine := NewEngine(perSourceWeights(t), VesselProfile{}, GeoPoint{})
	sp := engine.Score(grid, fused, constraints)[0]

	assert.False(t, sp.Eligible)
	assert.Zero(t, sp.Score)
	assert.NotEmpty(t, sp.Breakdown, "diagnostic breakdown still computed")
	assert.True(t, sp.Breakdown[CriterionSeaState].Available)
}

func TestEngine_Score_HazardPenaltyFloorsAtZero(t *testing.T) {
	grid := singlePointGrid(Destination(GeoPoint{}, 90, 13))
	fused := fusedWith(weatherReading(5), marineReading(0.2), bathyReading(50))

	engine := NewEngine(perSourceWeights(t), VesselProfile{}, GeoPoint{})

	mild := engine.Score(grid, fused, map[GridIndex]Constraint{{}: {Eligible: true, Penalty: 10}})[0]
	crushing := engine.Score(grid, fused, map[GridIndex]Constraint{{}: {Eligible: true, Penalty: 500}})[0]
	clean := engine.Score(grid, fused, allEligible(grid))[0]

	assert.InDelta(t, clean.Score-10, mild.Score, 0.11)
	assert.Zero(t, crushing.Score)
	assert.True(t, crushing.Eligible)
}

func TestEngine_Score_OrderedByScoreThenIndex(t *testing.T) {
	grid := []GridPoint{
		{Index: GridIndex{Ring: 1, Angular: 0}, GeoPoint: Destination(GeoPoint{}, 90, 13)},
		{Index: GridIndex{Ring: 1, Angular: 1}, GeoPoint: Destination(GeoPoint{}, 45, 13)},
	}
	calm := FusedReadings{
		SourceMarine:     marineReading(0.2),
		SourceBathymetry: bathyReading(50),
	}
	rough := FusedReadings{
		SourceMarine:     marineReading(1.9),
		SourceBathymetry: bathyReading(50),
	}
	fused := map[GridIndex]FusedReadings{
		{Ring: 1, Angular: 0}: rough,
		{Ring: 1, Angular: 1}: calm,
	}

	engine := NewEngine(perSourceWeights(t), VesselProfile{}, GeoPoint{})
	scored := engine.Score(grid, fused, allEligible(grid))

	require.Len(t, scored, 2)
	assert.Equal(t, GridIndex{Ring: 1, Angular: 1}, scored[0].Index, "calmer point first")
	assert.GreaterOrEqual(t, scored[0].Score, scored[1].Score)
}

func TestEngine_Score_FlightOpsRequiresFlightDeck(t *testing.T) {
	grid := singlePointGrid(Destination(GeoPoint{}, 90, 13))
	fused := fusedWith(weatherReading(15), marineReading(0.5), bathyReading(50))

	weights, err := NewMissionWeights("flight_operations", nil)
	require.NoError(t, err)

	noDeck := NewEngine(weights, VesselProfile{}, GeoPoint{})
	sp := noDeck.Score(grid, fused, allEligible(grid))[0]
	assert.False(t, sp.Breakdown[CriterionFlightOps].Available)

	withDeck := NewEngine(weights, VesselProfile{HasFlightDeck: true}, GeoPoint{})
	sp = withDeck.Score(grid, fused, allEligible(grid))[0]
	assert.True(t, sp.Breakdown[CriterionFlightOps].Available)
	assert.Equal(t, 1.0, sp.Breakdown[CriterionFlightOps].Value)
}

func TestEngine_Score_FireSupportNeedsGunAndTarget(t *testing.T) {
	origin := GeoPoint{}
	point := Destination(origin, 90, 10)
	grid := singlePointGrid(point)
	fused := fusedWith(bathyReading(50))

	weights, err := NewMissionWeights("naval_gunfire_support", nil)
	require.NoError(t, err)
	vessel := VesselProfile{HasNavalGun: true}

	noTarget := NewEngine(weights, vessel, origin)
	sp := noTarget.Score(grid, fused, allEligible(grid))[0]
	assert.False(t, sp.Breakdown[CriterionFireSupport].Available)

	// Target 5 nm from the point: well inside the 13 nm default gun range.
	target := Destination(origin, 90, 15)
	withTarget := NewEngine(weights, vessel, origin, WithTarget(target))
	sp = withTarget.Score(grid, fused, allEligible(grid))[0]
	require.True(t, sp.Breakdown[CriterionFireSupport].Available)
	assert.Equal(t, 1.0, sp.Breakdown[CriterionFireSupport].Value)

	// Target far beyond gun range scores zero but stays available.
	farTarget := Destination(origin, 90, 60)
	outOfRange := NewEngine(weights, vessel, origin, WithTarget(farTarget))
	sp = outOfRange.Score(grid, fused, allEligible(grid))[0]
	require.True(t, sp.Breakdown[CriterionFireSupport].Available)
	assert.Zero(t, sp.Breakdown[CriterionFireSupport].Value)
}

func TestEngine_Score_DeterministicBytes(t *testing.T) {
	sector := Sector{Origin: GeoPoint{Lat: 10, Lon: 120}, CenterBearing: 90, HalfAngle: 45, RadiusNm: 26}
	grid, err := sector.GridPoints()
	require.NoError(t, err)

	fused := make(map[GridIndex]FusedReadings, len(grid))
	for i, gp := range grid {
		fused[gp.Index] = FusedReadings{
			SourceWeather:    weatherReading(float64(5 + i)),
			SourceMarine:     marineReading(0.3 * float64(i%4)),
			SourceBathymetry: bathyReading(float64(20 + 10*i)),
		}
	}

	run := func() []byte {
		engine := NewEngine(perSourceWeights(t), VesselProfile{DraftM: 8}, sector.Origin)
		scored := engine.Score(grid, fused, ApplyConstraints(grid, fused, nil, nil, VesselProfile{DraftM: 8}))
		data, err := json.Marshal(scored)
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, run(), run(), "identical inputs must serialize byte-identically")
}
