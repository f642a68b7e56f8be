// Package geometry holds the planar polygon utilities used by partitioning and
// enrichment. Coordinates are (longitude, latitude) pairs in degrees; areas are
// in squared degrees unless a function says otherwise.
package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// MinRingPoints is the smallest valid ring: three distinct points plus closure.
const MinRingPoints = 4

// Polygon is a closed ring of (longitude, latitude) points with no altitude.
type Polygon orb.Ring

// NewPolygon builds a polygon from points, appending the first point when the
// ring is not already closed.
func NewPolygon(points ...orb.Point) Polygon {
	ring := make(orb.Ring, len(points), len(points)+1)
	copy(ring, points)
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return Polygon(ring)
}

// FromBound returns the rectangle covering b as a closed polygon.
func FromBound(b orb.Bound) Polygon {
	return Polygon(b.ToRing())
}

// Ring returns the polygon as an orb ring.
func (p Polygon) Ring() orb.Ring { return orb.Ring(p) }

// Orb returns the polygon as a single-ring orb polygon.
func (p Polygon) Orb() orb.Polygon { return orb.Polygon{orb.Ring(p)} }

// Len returns the number of points including the closing point.
func (p Polygon) Len() int { return len(p) }

// Validate checks the ring invariants: at least MinRingPoints points, closed,
// three distinct vertices, finite coordinates within WGS84 ranges.
func (p Polygon) Validate() error {
	if len(p) < MinRingPoints {
		return errors.New(errors.ErrCodeBoundaryInvalid, "polygon needs at least 4 points").
			WithDetail(fmt.Sprintf("points=%d", len(p)))
	}
	if !orb.Ring(p).Closed() {
		return errors.New(errors.ErrCodeBoundaryInvalid, "polygon ring is not closed")
	}
	if n := distinctVertices(p); n < MinRingPoints-1 {
		return errors.New(errors.ErrCodeBoundaryInvalid, "polygon needs at least 3 distinct points").
			WithDetail(fmt.Sprintf("distinct=%d", n))
	}
	for i, pt := range p {
		lon, lat := pt[0], pt[1]
		if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
			return errors.New(errors.ErrCodeBoundaryInvalid, "polygon has non-finite coordinate").
				WithDetail(fmt.Sprintf("index=%d", i))
		}
		if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			return errors.New(errors.ErrCodeBoundaryInvalid, "coordinate out of range").
				WithDetail(fmt.Sprintf("index=%d lon=%g lat=%g", i, lon, lat))
		}
	}
	return nil
}

// Area returns the unsigned shoelace area of the ring in squared degrees.
func (p Polygon) Area() float64 { return PolygonArea(p) }

// Bound returns the axis-aligned bounding box.
func (p Polygon) Bound() orb.Bound { return orb.Ring(p).Bound() }

// Centroid returns the area centroid. Degenerate rings fall back to the mean
// of their distinct vertices.
func (p Polygon) Centroid() orb.Point {
	pts := distinct(p)
	if len(pts) == 0 {
		return orb.Point{}
	}
	if PolygonArea(p) > 0 {
		c, _ := planar.CentroidArea(p.Orb())
		return c
	}
	var sx, sy float64
	for _, pt := range pts {
		sx += pt[0]
		sy += pt[1]
	}
	n := float64(len(pts))
	return orb.Point{sx / n, sy / n}
}

// AreaHectares returns the geodesic area of the ring in hectares.
func (p Polygon) AreaHectares() float64 {
	return math.Abs(geo.Area(p.Orb())) / 10000
}

// Equal reports whether both rings hold the same points in the same order.
func (p Polygon) Equal(other Polygon) bool {
	return orb.Ring(p).Equal(orb.Ring(other))
}

// PolygonArea computes the shoelace area over the ring, ignoring the
// duplicated closing point.
func PolygonArea(p Polygon) float64 {
	pts := distinct(p)
	n := len(pts)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i][0]*pts[j][1] - pts[j][0]*pts[i][1]
	}
	return math.Abs(sum) / 2
}

// BoundingBoxesIntersect reports whether the bounding boxes of a and b overlap.
// Touching edges count as overlap.
func BoundingBoxesIntersect(a, b Polygon) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return a.Bound().Intersects(b.Bound())
}

// distinct drops the closing point of a closed ring.
func distinct(p Polygon) []orb.Point {
	if len(p) > 1 && p[0] == p[len(p)-1] {
		return p[:len(p)-1]
	}
	return p
}

// distinctVertices counts the unique vertices of the ring, closure excluded.
func distinctVertices(p Polygon) int {
	seen := make(map[orb.Point]struct{}, len(p))
	for _, pt := range distinct(p) {
		seen[pt] = struct{}{}
	}
	return len(seen)
}

//Personal.AI order the ending
