package domain

import (
	"math"
	"sort"
)

// Planning defaults for criterion curves.
const (
	minVisibilityM    = 5000.0
	flightMinVisM     = 3000.0
	comfortDepthM     = 300.0
	shallowGunDepthM  = 10.0
	defaultMinStandNm = 5.0
	defaultMaxStandNm = 50.0
)

// CriterionScore is one criterion's contribution to a point's score.
// Share is the criterion's effective weight after redistribution,
// normalized so available shares sum to 1.
type CriterionScore struct {
	Value     float64 `json:"value"`
	Share     float64 `json:"share"`
	Available bool    `json:"available"`
}

// ScoredPoint is the final output record for one grid point. Never mutated
// after creation; consumed by the visualization layer.
type ScoredPoint struct {
	Index                GridIndex                 `json:"index"`
	Lat                  float64                   `json:"lat"`
	Lon                  float64                   `json:"lon"`
	Score                float64                   `json:"score"`
	Eligible             bool                      `json:"eligibility"`
	Penalty              float64                   `json:"penalty,omitempty"`
	Breakdown            map[string]CriterionScore `json:"breakdown"`
	Readings             FusedReadings             `json:"readings,omitempty"`
	DistanceFromOriginNm float64                   `json:"distanceFromOriginNm"`
	DistanceToTargetNm   float64                   `json:"distanceToTargetNm,omitempty"`
	Reasons              []string                  `json:"reasons,omitempty"`
}

// Engine combines fused readings, vessel characteristics, and mission
// weights into a normalized score per point. Output is bit-for-bit
// reproducible for identical inputs.
type Engine struct {
	weights       MissionWeights
	vessel        VesselProfile
	origin        GeoPoint
	target        *GeoPoint
	unavailable   map[SourceKind]bool
	minStandoffNm float64
	maxStandoffNm float64
}

// EngineOption tweaks Engine construction.
type EngineOption func(*Engine)

// WithTarget enables target-relative criteria (fire support).
func WithTarget(t GeoPoint) EngineOption {
	return func(e *Engine) { e.target = &t }
}

// WithUnavailableSources excludes every criterion drawing on the given
// sources, redistributing their weight for the whole run.
func WithUnavailableSources(sources ...SourceKind) EngineOption {
	return func(e *Engine) {
		for _, s := range sources {
			e.unavailable[s] = true
		}
	}
}

// WithStandoffBand sets the preferred distance band from the origin in
// nautical miles, used by the distance criterion.
func WithStandoffBand(minNm, maxNm float64) EngineOption {
	return func(e *Engine) {
		e.minStandoffNm = minNm
		e.maxStandoffNm = maxNm
	}
}

// NewEngine builds a scoring engine for one run.
func NewEngine(weights MissionWeights, vessel VesselProfile, origin GeoPoint, opts ...EngineOption) *Engine {
	e := &Engine{
		weights:       weights,
		vessel:        vessel,
		origin:        origin,
		unavailable:   make(map[SourceKind]bool),
		minStandoffNm: defaultMinStandNm,
		maxStandoffNm: defaultMaxStandNm,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score evaluates every grid point and returns scored points ordered by
// descending score, grid order on ties. Ineligible points keep score 0 and
// eligibility=false but their breakdown is still computed for diagnostics.
func (e *Engine) Score(grid []GridPoint, fused map[GridIndex]FusedReadings, constraints map[GridIndex]Constraint) []ScoredPoint {
	out := make([]ScoredPoint, 0, len(grid))
	for _, gp := range grid {
		out = append(out, e.scorePoint(gp, fused[gp.Index], constraints[gp.Index]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Index.Less(out[j].Index)
	})
	return out
}

func (e *Engine) scorePoint(gp GridPoint, readings FusedReadings, constraint Constraint) ScoredPoint {
	distOrigin := DistanceNm(e.origin, gp.GeoPoint)
	distTarget := math.NaN()
	if e.target != nil {
		distTarget = DistanceNm(*e.target, gp.GeoPoint)
	}

	breakdown := make(map[string]CriterionScore, len(CriterionNames()))
	sumW, sumWV := 0.0, 0.0
	for _, name := range CriterionNames() {
		w := e.weights.Weight(name)
		if w == 0 {
			continue
		}
		cs := CriterionScore{}
		value, available := e.evaluate(name, readings, distOrigin, distTarget)
		if available {
			cs.Value = round3(value)
			cs.Available = true
			sumW += w
			sumWV += w * value
		}
		breakdown[name] = cs
	}

	// Redistribute weight proportionally over available criteria by
	// normalizing with the available-weight total only.
	score := 0.0
	if sumW > 0 {
		norm := sumWV / sumW
		for name, cs := range breakdown {
			if cs.Available {
				cs.Share = round3(e.weights.Weight(name) / sumW)
				breakdown[name] = cs
			}
		}
		score = 100 * norm
	}

	score -= constraint.Penalty
	if score < 0 {
		score = 0
	}
	if !constraint.Eligible {
		score = 0
	}

	sp := ScoredPoint{
		Index:                gp.Index,
		Lat:                  gp.Lat,
		Lon:                  gp.Lon,
		Score:                round1(score),
		Eligible:             constraint.Eligible,
		Penalty:              round1(constraint.Penalty),
		Breakdown:            breakdown,
		Readings:             readings,
		DistanceFromOriginNm: round1(distOrigin),
		Reasons:              constraint.Reasons,
	}
	if !math.IsNaN(distTarget) {
		sp.DistanceToTargetNm = round1(distTarget)
	}
	return sp
}

// evaluate returns a criterion's normalized value in [0,1] and whether it is
// available for this point. A criterion is unavailable when its source is
// out for the run, a required field is missing, or the vessel lacks the
// relevant capability. It is never scored as worst-case.
func (e *Engine) evaluate(name string, readings FusedReadings, distOriginNm, distTargetNm float64) (float64, bool) {
	switch name {
	case CriterionWeather:
		return e.evalWeather(readings)
	case CriterionSeaState:
		return e.evalSeaState(readings)
	case CriterionDepth:
		return e.evalDepth(readings)
	case CriterionFlightOps:
		return e.evalFlightOps(readings)
	case CriterionFireSupport:
		return e.evalFireSupport(readings, distTargetNm)
	case CriterionDistance:
		return e.evalDistance(distOriginNm), true
	default:
		return 0, false
	}
}

// evalWeather requires wind speed; visibility, cloud cover, and
// precipitation refine the value when present.
func (e *Engine) evalWeather(readings FusedReadings) (float64, bool) {
	if e.unavailable[SourceWeather] {
		return 0, false
	}
	wx := readings[SourceWeather]
	wind, ok := wx.Field(FieldWindSpeedKt)
	if !ok {
		return 0, false
	}

	v := 1.0
	v -= 0.35 * clamp01(wind/e.vessel.maxWind())
	if cloud, ok := wx.Field(FieldCloudCoverPct); ok {
		v -= 0.25 * clamp01(cloud/100)
	}
	if precip, ok := wx.Field(FieldPrecipMm); ok {
		switch {
		case precip > 5:
			v -= 0.30
		case precip > 0:
			v -= 0.10
		}
	}
	if vis, ok := wx.Field(FieldVisibilityM); ok && vis < minVisibilityM {
		v -= 0.20 * clamp01((minVisibilityM-vis)/minVisibilityM)
	}
	return clamp01(v), true
}

// evalSeaState requires wave height; swell and current refine it.
func (e *Engine) evalSeaState(readings FusedReadings) (float64, bool) {
	if e.unavailable[SourceMarine] {
		return 0, false
	}
	marine := readings[SourceMarine]
	wave, ok := marine.Field(FieldWaveHeightM)
	if !ok {
		return 0, false
	}

	v := 1.0
	v -= 0.50 * clamp01(wave/e.vessel.maxWave())
	if swell, ok := marine.Field(FieldSwellHeightM); ok {
		switch {
		case swell > 1.8:
			v -= 0.20
		case swell > 0.9:
			v -= 0.10
		}
	}
	if current, ok := marine.Field(FieldCurrentKt); ok && current > 2 {
		v -= 0.15
	}
	return clamp01(v), true
}

// evalDepth favors adequate clearance over the vessel minimum with
// diminishing returns past the comfort threshold: 0 below the minimum,
// ramping to 1 at twice the minimum, full value through the comfort band,
// slightly reduced in very deep water.
func (e *Engine) evalDepth(readings FusedReadings) (float64, bool) {
	if e.unavailable[SourceBathymetry] {
		return 0, false
	}
	depth, ok := readings[SourceBathymetry].Field(FieldDepthM)
	if !ok {
		return 0, false
	}

	minD := e.vessel.minDepth()
	switch {
	case depth < minD:
		return 0, true
	case depth < 2*minD:
		return 0.5 + 0.5*(depth-minD)/minD, true
	case depth <= comfortDepthM:
		return 1, true
	default:
		return 0.85, true
	}
}

// evalFlightOps applies only to formations with a flight deck and needs both
// wind and wave observations.
func (e *Engine) evalFlightOps(readings FusedReadings) (float64, bool) {
	if !e.vessel.HasFlightDeck || e.unavailable[SourceWeather] || e.unavailable[SourceMarine] {
		return 0, false
	}
	wind, okWind := readings[SourceWeather].Field(FieldWindSpeedKt)
	wave, okWave := readings[SourceMarine].Field(FieldWaveHeightM)
	if !okWind || !okWave {
		return 0, false
	}

	var v float64
	switch {
	case wind > 35:
		return 0, true
	case wind > 25:
		v = 0.6
	case wind >= 10:
		v = 1.0
	default:
		v = 0.8 // too little wind over deck
	}

	if vis, ok := readings[SourceWeather].Field(FieldVisibilityM); ok {
		switch {
		case vis < flightMinVisM:
			return 0, true
		case vis < minVisibilityM:
			v -= 0.30
		}
	}
	if cloud, ok := readings[SourceWeather].Field(FieldCloudCoverPct); ok {
		switch {
		case cloud > 80:
			v -= 0.30
		case cloud > 50:
			v -= 0.15
		}
	}
	switch {
	case wave > 1.8:
		v -= 0.40
	case wave > 1.2:
		v -= 0.20
	}
	if precip, ok := readings[SourceWeather].Field(FieldPrecipMm); ok {
		switch {
		case precip > 2:
			v -= 0.40
		case precip > 0:
			v -= 0.20
		}
	}
	return clamp01(v), true
}

// evalFireSupport applies only with a gun and a declared target: full value
// well inside gun range, reduced near the edge, zero beyond. Shallow water
// degrades a firing position.
func (e *Engine) evalFireSupport(readings FusedReadings, distTargetNm float64) (float64, bool) {
	gunRange := e.vessel.gunRange()
	if gunRange <= 0 || math.IsNaN(distTargetNm) {
		return 0, false
	}

	var v float64
	switch {
	case distTargetNm <= 0.7*gunRange:
		v = 1.0
	case distTargetNm <= gunRange:
		v = 0.8
	default:
		return 0, true
	}
	if depth, ok := readings[SourceBathymetry].Field(FieldDepthM); ok && depth < shallowGunDepthM {
		v -= 0.40
	}
	return clamp01(v), true
}

// evalDistance prefers points inside the standoff band. Pure geometry, so
// always available.
func (e *Engine) evalDistance(distOriginNm float64) float64 {
	if distOriginNm < e.minStandoffNm || distOriginNm > e.maxStandoffNm {
		return 0.2
	}
	return 1.0
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// round1 and round3 fix output precision so scores serialize identically
// across runs and platforms.
func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
