package domain

import (
	"errors"
	"fmt"
	"sort"
)

// Criterion names. Each maps a scoring concern to the sources it draws on.
const (
	CriterionWeather     = "weather"
	CriterionSeaState    = "sea_state"
	CriterionDepth       = "depth"
	CriterionFlightOps   = "flight_ops"
	CriterionFireSupport = "fire_support"
	CriterionDistance    = "distance"
)

// CriterionNames lists all criteria in canonical scoring order.
func CriterionNames() []string {
	return []string{
		CriterionWeather,
		CriterionSeaState,
		CriterionDepth,
		CriterionFlightOps,
		CriterionFireSupport,
		CriterionDistance,
	}
}

// ErrInvalidWeights marks a weight profile rejected at load time.
var ErrInvalidWeights = errors.New("invalid mission weights")

// MissionWeights maps criterion name to a non-negative weight. Weights need
// not sum to 1; they are normalized at use time. Immutable once built.
type MissionWeights struct {
	Profile string             `json:"profile,omitempty"`
	Weights map[string]float64 `json:"weights"`
}

// missionPresets are the built-in weight profiles, per mission doctrine.
var missionPresets = map[string]map[string]float64{
	"amphibious_landing": {
		CriterionWeather: 0.15, CriterionSeaState: 0.25, CriterionDepth: 0.15,
		CriterionFlightOps: 0.20, CriterionFireSupport: 0.15, CriterionDistance: 0.10,
	},
	"naval_gunfire_support": {
		CriterionWeather: 0.15, CriterionSeaState: 0.15, CriterionDepth: 0.15,
		CriterionFlightOps: 0.05, CriterionFireSupport: 0.40, CriterionDistance: 0.10,
	},
	"flight_operations": {
		CriterionWeather: 0.20, CriterionSeaState: 0.25, CriterionDepth: 0.15,
		CriterionFlightOps: 0.30, CriterionFireSupport: 0.05, CriterionDistance: 0.05,
	},
	"balanced": {
		CriterionWeather: 0.20, CriterionSeaState: 0.20, CriterionDepth: 0.15,
		CriterionFlightOps: 0.15, CriterionFireSupport: 0.20, CriterionDistance: 0.10,
	},
}

// MissionProfiles lists the built-in profile names, sorted.
func MissionProfiles() []string {
	names := make([]string, 0, len(missionPresets))
	for name := range missionPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewMissionWeights resolves a profile name and applies explicit overrides
// on top of it. An empty profile starts from "balanced"; overrides may also
// define the full weight set themselves. Unknown criterion names and
// negative weights are rejected eagerly, and at least one weight must be
// positive.
func NewMissionWeights(profile string, overrides map[string]float64) (MissionWeights, error) {
	base := map[string]float64{}
	name := profile
	if name == "" {
		name = "balanced"
	}
	preset, ok := missionPresets[name]
	if !ok {
		if len(overrides) == 0 {
			return MissionWeights{}, fmt.Errorf("%w: unknown profile %q", ErrInvalidWeights, profile)
		}
	} else {
		for k, v := range preset {
			base[k] = v
		}
	}

	known := map[string]bool{}
	for _, c := range CriterionNames() {
		known[c] = true
	}
	for k, v := range overrides {
		if !known[k] {
			return MissionWeights{}, fmt.Errorf("%w: unknown criterion %q", ErrInvalidWeights, k)
		}
		if v < 0 {
			return MissionWeights{}, fmt.Errorf("%w: negative weight %g for %q", ErrInvalidWeights, v, k)
		}
		base[k] = v
	}

	total := 0.0
	for _, v := range base {
		total += v
	}
	if total <= 0 {
		return MissionWeights{}, fmt.Errorf("%w: all weights are zero", ErrInvalidWeights)
	}

	return MissionWeights{Profile: name, Weights: base}, nil
}

// Weight returns the weight for a criterion, zero when unset.
func (m MissionWeights) Weight(criterion string) float64 {
	return m.Weights[criterion]
}
