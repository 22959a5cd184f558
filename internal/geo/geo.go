// Package geo implements the integer geometry used for geofence and corridor checks.
//
// Coordinates are micro-degrees (degrees * 1_000_000). Distances are meters computed
// with a planar approximation that does not scale longitude by latitude. All math is
// integer so results are identical on every host.
package geo

import (
	"math"
	"math/bits"
)

const (
	// MicroDegrees is the number of micro-degrees in one degree.
	MicroDegrees = 1_000_000

	// MetersPerDegree is the approximate length of one degree at the equator.
	MetersPerDegree = 111_320

	// ProjectionScale is the fixed-point scale of the segment projection parameter.
	ProjectionScale = 1000

	maxLatitude  = 90 * MicroDegrees
	maxLongitude = 180 * MicroDegrees
)

// Point is a coordinate in micro-degrees.
type Point struct {
	Lat int64 `json:"lat"`
	Lng int64 `json:"lng"`
}

// Valid reports whether the point lies within the latitude/longitude ranges.
func (p Point) Valid() bool {
	return p.Lat >= -maxLatitude && p.Lat <= maxLatitude &&
		p.Lng >= -maxLongitude && p.Lng <= maxLongitude
}

// Distance returns the distance between a and b in meters.
func Distance(a, b Point) uint32 {
	latMeters := absDiff(a.Lat, b.Lat) * MetersPerDegree / MicroDegrees
	lngMeters := absDiff(a.Lng, b.Lng) * MetersPerDegree / MicroDegrees

	return uint32(isqrt(latMeters*latMeters + lngMeters*lngMeters))
}

// PointToSegmentDistance returns the distance in meters from p to the closest point
// of the segment [start, end].
//
// The projection parameter is scaled by ProjectionScale and clamped to the segment.
func PointToSegmentDistance(p, start, end Point) uint32 {
	dx := end.Lng - start.Lng
	dy := end.Lat - start.Lat

	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Distance(p, start)
	}

	px := p.Lng - start.Lng
	py := p.Lat - start.Lat
	t := projection(px*dx+py*dy, lenSq)

	closest := Point{
		Lat: start.Lat + dy*t/ProjectionScale,
		Lng: start.Lng + dx*t/ProjectionScale,
	}

	return Distance(p, closest)
}

// PathDistance returns the minimum distance from p to the polyline through path.
// A single-point path degenerates to Distance; an empty path returns math.MaxUint32.
func PathDistance(p Point, path []Point) uint32 {
	switch len(path) {
	case 0:
		return math.MaxUint32
	case 1:
		return Distance(p, path[0])
	}

	best := uint32(math.MaxUint32)
	for i := 1; i < len(path); i++ {
		best = min(best, PointToSegmentDistance(p, path[i-1], path[i]))
	}
	return best
}

// PointInPolygon reports whether p lies inside the ring using the even-odd rule.
// The ring is implicitly closed. Rings with fewer than 3 vertices contain nothing.
func PointInPolygon(p Point, ring []Point) bool {
	n := len(ring)
	if n < 3 {
		return false
	}

	inside := false
	x, y := p.Lng, p.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lng, ring[i].Lat
		xj, yj := ring[j].Lng, ring[j].Lat

		if (yi > y) == (yj > y) {
			continue
		}

		// x < xi + (xj-xi)*(y-yi)/(yj-yi), without division.
		lhs := (x - xi) * (yj - yi)
		rhs := (xj - xi) * (y - yi)
		if (yj > yi && lhs < rhs) || (yj < yi && lhs > rhs) {
			inside = !inside
		}
	}
	return inside
}

// projection returns dot*ProjectionScale/lenSq clamped to [0, ProjectionScale].
func projection(dot, lenSq int64) int64 {
	if dot <= 0 {
		return 0
	}
	if dot >= lenSq {
		return ProjectionScale
	}

	// dot*ProjectionScale can exceed int64 for continent-scale segments.
	hi, lo := bits.Mul64(uint64(dot), ProjectionScale)
	q, _ := bits.Div64(hi, lo, uint64(lenSq))
	return int64(q)
}

// isqrt returns floor(sqrt(n)) using Newton's method. The estimate starts at
// (n+1)/2 and decreases monotonically until it stops changing.
func isqrt(n uint64) uint64 {
	if n == 0 {
		return 0
	}

	x := n
	y := n/2 + n%2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}

func absDiff(a, b int64) uint64 {
	if a > b {
		return uint64(a - b)
	}
	return uint64(b - a)
}
