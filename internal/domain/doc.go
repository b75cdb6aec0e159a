// Package domain implements the mission area scoring engine: sector grid
// geometry, multi-source reading fusion, hazard constraints, and
// mission-weighted scoring.
//
// # Sector Geometry
//
// A search sector is an angular wedge of ocean defined by an origin point, a
// center bearing, a half-angle (≤90°, so the total span is ≤180°), and a
// radius in nautical miles. Sample points are arranged on concentric rings
// spaced 13 nm apart by default:
//
//   - Ring 0 is the origin itself (a single point).
//   - Each ring's angular step is chosen so the arc length between adjacent
//     points is approximately one ring spacing. Inner rings therefore carry
//     fewer points than outer rings.
//   - When the radius is not an exact multiple of the ring spacing, a final
//     ring is generated at exactly the radius (round-up, include-boundary
//     policy). This is a visible behavioral choice: it affects grid point
//     counts, and downstream consumers depend on full radius coverage.
//
// Every grid point carries a stable (ring, angular) index used for
// deterministic iteration and for nearest-neighbor joins.
//
// # Readings and Missing Data
//
// Environmental data arrives from three sources (weather, marine, and
// bathymetry), each with its own native resolution. A Reading holds named
// numeric fields; a field the provider could not supply is absent from the
// field set rather than zero. Scoring never treats an absent field as a zero
// observation.
//
// # Fusion
//
// Fusion attaches to each grid point the nearest available sample from each
// source by great-circle distance, up to twice the source's native spacing.
// Beyond that radius the source's fields are marked missing for the point
// instead of joining a distant, unrepresentative sample. Ties on distance
// resolve to the lower sample index, so fusion is pure and deterministic.
//
// # Scoring
//
// Each eligible point gets a per-criterion value in [0,1] from a
// criterion-specific normalization curve. Criteria whose inputs are missing,
// or whose source is unavailable for the whole run, are excluded and their
// weight redistributed proportionally among the remaining criteria. The
// final score is 100 × Σwv/Σw reduced by the hazard penalty, floored at
// zero. Ineligible points keep score 0 but their breakdown is still
// computed for diagnostic display.
//
// # Units
//
// Distances are nautical miles, depths and wave heights meters, wind speeds
// knots, visibility meters, bearings degrees clockwise from true north.
package domain
