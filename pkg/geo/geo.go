// Package geo holds the pure geographic math used by discovery and the map.
// No I/O, no side effects; everything here is deterministic.
package geo

import (
	"math"
	"strings"
)

// EarthRadiusKm is the spherical Earth radius used by the haversine formula.
// Ranking and tests depend on this exact constant.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Valid reports whether the point lies inside the coordinate domain.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// DistanceKm computes the great-circle distance between two points in
// kilometers, unrounded. Presentation layers round to whole kilometers;
// ranking uses the raw value.
func DistanceKm(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// RoundKm rounds a distance to the nearest whole kilometer for presentation.
func RoundKm(km float64) int {
	return int(math.Round(km))
}

const geohashBase32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// EncodeGeohash produces a standard geohash of the given precision
// (characters). Precision 7 (~150m) is what profiles store.
func EncodeGeohash(p Point, precision int) string {
	if precision <= 0 {
		precision = 7
	}
	var (
		sb       strings.Builder
		latRange = [2]float64{-90, 90}
		lonRange = [2]float64{-180, 180}
		even     = true
		bit      = 0
		ch       = 0
	)
	for sb.Len() < precision {
		if even {
			mid := (lonRange[0] + lonRange[1]) / 2
			if p.Lon >= mid {
				ch |= 1 << (4 - bit)
				lonRange[0] = mid
			} else {
				lonRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if p.Lat >= mid {
				ch |= 1 << (4 - bit)
				latRange[0] = mid
			} else {
				latRange[1] = mid
			}
		}
		even = !even
		if bit < 4 {
			bit++
		} else {
			sb.WriteByte(geohashBase32[ch])
			bit = 0
			ch = 0
		}
	}
	return sb.String()
}
