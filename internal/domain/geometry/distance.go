package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusKm is the mean Earth radius used for haversine distances.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two (lon, lat) points.
func HaversineKm(a, b orb.Point) float64 {
	phi1 := a[1] * math.Pi / 180
	phi2 := b[1] * math.Pi / 180
	dPhi := (b[1] - a[1]) * math.Pi / 180
	dLambda := (b[0] - a[0]) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// NearestPointOnSegment projects p onto segment ab in planar degree space.
func NearestPointOnSegment(p, a, b orb.Point) orb.Point {
	dx, dy := b[0]-a[0], b[1]-a[1]
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lenSq
	switch {
	case t <= 0:
		return a
	case t >= 1:
		return b
	}
	return orb.Point{a[0] + t*dx, a[1] + t*dy}
}

// NearestPointOnLine returns the point of line closest to p in planar degree
// space. ok is false for lines with fewer than two points.
func NearestPointOnLine(p orb.Point, line orb.LineString) (nearest orb.Point, ok bool) {
	if len(line) < 2 {
		return orb.Point{}, false
	}
	best := math.Inf(1)
	for i := 0; i+1 < len(line); i++ {
		c := NearestPointOnSegment(p, line[i], line[i+1])
		dx, dy := c[0]-p[0], c[1]-p[1]
		if d := dx*dx + dy*dy; d < best {
			best = d
			nearest = c
		}
	}
	return nearest, true
}

//Personal.AI order the ending
