package domain

import "math"

// earthRadiusNm is the mean Earth radius in nautical miles.
const earthRadiusNm = 3440.065

// GeoPoint is a WGS-84 latitude/longitude coordinate pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }

// normalizeBearing wraps a bearing into [0, 360).
func normalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// DistanceNm returns the great-circle distance between two points in
// nautical miles (haversine).
func DistanceNm(a, b GeoPoint) float64 {
	lat1 := degToRad(a.Lat)
	lat2 := degToRad(b.Lat)
	dLat := degToRad(b.Lat - a.Lat)
	dLon := degToRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusNm * 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}

// InitialBearing returns the initial great-circle bearing from one point to
// another, in degrees [0, 360).
func InitialBearing(from, to GeoPoint) float64 {
	lat1 := degToRad(from.Lat)
	lat2 := degToRad(to.Lat)
	dLon := degToRad(to.Lon - from.Lon)

	x := math.Sin(dLon) * math.Cos(lat2)
	y := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return normalizeBearing(radToDeg(math.Atan2(x, y)))
}

// Destination returns the point reached by travelling distanceNm along the
// great circle at the given initial bearing.
func Destination(origin GeoPoint, bearingDeg, distanceNm float64) GeoPoint {
	lat1 := degToRad(origin.Lat)
	lon1 := degToRad(origin.Lon)
	brng := degToRad(bearingDeg)
	angular := distanceNm / earthRadiusNm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) +
		math.Cos(lat1)*math.Sin(angular)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(
		math.Sin(brng)*math.Sin(angular)*math.Cos(lat1),
		math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2),
	)

	lon2 = math.Mod(lon2+3*math.Pi, 2*math.Pi) - math.Pi // wrap to [-180, 180)
	return GeoPoint{Lat: radToDeg(lat2), Lon: radToDeg(lon2)}
}

// bearingWithin reports whether bearing lies inside the arc
// [center-halfAngle, center+halfAngle], handling wrap across north.
func bearingWithin(bearing, center, halfAngle float64) bool {
	diff := math.Abs(normalizeBearing(bearing) - normalizeBearing(center))
	if diff > 180 {
		diff = 360 - diff
	}
	return diff <= halfAngle
}

// crossTrackNm returns the perpendicular distance from point p to the great
// circle through a and b, and p's along-track distance from a. Both in
// nautical miles; the cross-track value is unsigned.
func crossTrackNm(a, b, p GeoPoint) (cross, along float64) {
	d13 := DistanceNm(a, p) / earthRadiusNm
	theta13 := degToRad(InitialBearing(a, p))
	theta12 := degToRad(InitialBearing(a, b))

	dxt := math.Asin(math.Sin(d13) * math.Sin(theta13-theta12))
	dat := math.Acos(math.Min(1, math.Max(-1, math.Cos(d13)/math.Max(math.Cos(dxt), 1e-12))))
	if math.Cos(theta13-theta12) < 0 {
		dat = -dat
	}
	return math.Abs(dxt) * earthRadiusNm, dat * earthRadiusNm
}
