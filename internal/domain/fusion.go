package domain

// FusedReadings is the per-source reading set attached to one grid point. A
// source that was unavailable for the whole run has no entry at all; a
// source whose nearest sample was out of join range has an entry with all
// fields missing.
type FusedReadings map[SourceKind]Reading

// FusionDiagnostics counts join failures per source: points that had no
// sample within the maximum join radius.
type FusionDiagnostics struct {
	JoinFailures map[SourceKind]int `json:"joinFailures,omitempty"`
}

// Fuse aligns each source's samples onto the grid by nearest-neighbor join.
//
// A grid point receives a source's nearest sample by great-circle distance,
// capped at twice the source's native spacing; beyond that the source is
// marked missing for the point rather than joined to an unrepresentative
// sample. Equal distances resolve to the lower sample index; samples are
// emitted in grid order, so this is the lexicographically smaller
// (ring, angular) index. Fuse is pure: identical inputs yield identical
// output, with no caching state.
func Fuse(grid []GridPoint, sources []SourceSamples) (map[GridIndex]FusedReadings, FusionDiagnostics) {
	fused := make(map[GridIndex]FusedReadings, len(grid))
	for _, gp := range grid {
		fused[gp.Index] = make(FusedReadings, len(sources))
	}
	diag := FusionDiagnostics{JoinFailures: make(map[SourceKind]int)}

	for _, src := range sources {
		maxJoin := 2 * src.NativeSpacingNm
		for _, gp := range grid {
			reading, ok := nearestSample(gp.GeoPoint, src.Samples, maxJoin)
			if !ok {
				diag.JoinFailures[src.Source]++
				reading = EmptyReading(src.Source)
			}
			fused[gp.Index][src.Source] = reading
		}
	}

	return fused, diag
}

// nearestSample scans for the closest sample within maxJoinNm. The strict
// less-than keeps the first (lowest-index) sample on distance ties.
func nearestSample(p GeoPoint, samples []Sample, maxJoinNm float64) (Reading, bool) {
	best := -1
	bestDist := 0.0
	for i, s := range samples {
		d := DistanceNm(p, s.Point)
		if d > maxJoinNm {
			continue
		}
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best == -1 {
		return Reading{}, false
	}
	return samples[best].Reading, true
}
