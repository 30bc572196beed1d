// Package geo implements the proximity gate for clue discovery: great-circle
// distance on a spherical Earth, checked against a clue's discovery radius.
// It has no dependencies beyond the standard library.
package geo

import (
	"fmt"
	"math"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether the point lies inside the WGS84 coordinate ranges.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Distance returns the great-circle distance between a and b via the
// haversine formula, rounded to the nearest meter.
func Distance(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return math.Round(earthRadiusMeters * c)
}

// Proximity is the result of a geofence check, attached to every
// proximity-gated response regardless of outcome.
type Proximity struct {
	DistanceM float64 `json:"distanceMeters"`
	RadiusM   float64 `json:"radiusMeters"`
	InRange   bool    `json:"withinRange"`
}

// RangeError reports a rejected geofence check.
type RangeError struct {
	DistanceM float64
	RadiusM   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("outside discovery radius: %.0fm away, need to be within %.0fm (%.0fm short)",
		e.DistanceM, e.RadiusM, e.DistanceM-e.RadiusM)
}

// CheckFence validates that player is within radiusM of target. The returned
// Proximity is populated whenever a distance could be computed, even on
// rejection. radiusM must be positive and both coordinates must be in range.
func CheckFence(target Point, radiusM float64, player Point) (Proximity, error) {
	if radiusM <= 0 {
		return Proximity{}, fmt.Errorf("clue has no valid discovery radius")
	}
	if !target.Valid() {
		return Proximity{}, fmt.Errorf("clue has no valid coordinate")
	}
	if !player.Valid() {
		return Proximity{}, fmt.Errorf("latitude must be in [-90,90] and longitude in [-180,180]")
	}

	d := Distance(target, player)
	prox := Proximity{DistanceM: d, RadiusM: radiusM, InRange: d <= radiusM}
	if !prox.InRange {
		return prox, &RangeError{DistanceM: d, RadiusM: radiusM}
	}
	return prox, nil
}
