package geometry

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

func square(minX, minY, size float64) Polygon {
	return NewPolygon(
		orb.Point{minX, minY},
		orb.Point{minX + size, minY},
		orb.Point{minX + size, minY + size},
		orb.Point{minX, minY + size},
	)
}

func TestNewPolygon_ClosesRing(t *testing.T) {
	p := NewPolygon(orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{1, 1})
	require.Len(t, p, 4)
	assert.Equal(t, p[0], p[3])

	closed := NewPolygon(orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{1, 1}, orb.Point{0, 0})
	assert.Len(t, closed, 4)
}

func TestPolygonArea(t *testing.T) {
	cases := []struct {
		name string
		poly Polygon
		want float64
	}{
		{"unit square", square(0, 0, 1), 1},
		{"offset square", square(77.1, 28.5, 0.02), 0.0004},
		{"triangle", NewPolygon(orb.Point{0, 0}, orb.Point{4, 0}, orb.Point{0, 3}), 6},
		{"clockwise", NewPolygon(orb.Point{0, 0}, orb.Point{0, 2}, orb.Point{2, 2}, orb.Point{2, 0}), 4},
		{"collinear", NewPolygon(orb.Point{0, 0}, orb.Point{1, 1}, orb.Point{2, 2}), 0},
		{"too short", Polygon{{0, 0}, {1, 1}}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, PolygonArea(tc.poly), 1e-12)
			assert.InDelta(t, tc.want, tc.poly.Area(), 1e-12)
		})
	}
}

func TestPolygonArea_ClosingPointIgnored(t *testing.T) {
	open := Polygon{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	closed := square(0, 0, 2)
	assert.Equal(t, PolygonArea(open), PolygonArea(closed))
}

func TestBoundingBoxesIntersect(t *testing.T) {
	base := square(0, 0, 1)
	cases := []struct {
		name  string
		other Polygon
		want  bool
	}{
		{"overlap", square(0.5, 0.5, 1), true},
		{"contained", square(0.25, 0.25, 0.5), true},
		{"touching edge", square(1, 0, 1), true},
		{"disjoint x", square(1.5, 0, 1), false},
		{"disjoint y", square(0, -2, 1), false},
		{"empty", Polygon{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BoundingBoxesIntersect(base, tc.other))
			assert.Equal(t, tc.want, BoundingBoxesIntersect(tc.other, base))
		})
	}
}

func TestBoundingBoxesIntersect_ConcaveFalsePositive(t *testing.T) {
	// L-shape: the empty upper-right quadrant still overlaps the bounding box.
	l := NewPolygon(
		orb.Point{0, 0}, orb.Point{2, 0}, orb.Point{2, 1},
		orb.Point{1, 1}, orb.Point{1, 2}, orb.Point{0, 2},
	)
	assert.True(t, BoundingBoxesIntersect(l, square(1.5, 1.5, 0.25)))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		poly    Polygon
		wantErr bool
	}{
		{"valid", square(10, 10, 1), false},
		{"too few points", Polygon{{0, 0}, {1, 0}, {0, 0}}, true},
		{"open ring", Polygon{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, true},
		{"two distinct points", NewPolygon(orb.Point{0, 0}, orb.Point{1, 1}, orb.Point{1, 1}), true},
		{"repeated vertex still has three", NewPolygon(orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{1, 0}, orb.Point{1, 1}), false},
		{"collinear is degenerate but valid", NewPolygon(orb.Point{0, 0}, orb.Point{1, 1}, orb.Point{2, 2}), false},
		{"latitude out of range", NewPolygon(orb.Point{0, 89}, orb.Point{1, 91}, orb.Point{1, 89}), true},
		{"nan", NewPolygon(orb.Point{0, 0}, orb.Point{math.NaN(), 0}, orb.Point{1, 1}), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.poly.Validate()
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrCodeBoundaryInvalid))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCentroid(t *testing.T) {
	c := square(0, 0, 2).Centroid()
	assert.InDelta(t, 1.0, c[0], 1e-9)
	assert.InDelta(t, 1.0, c[1], 1e-9)

	degenerate := NewPolygon(orb.Point{0, 0}, orb.Point{2, 2}, orb.Point{4, 4})
	d := degenerate.Centroid()
	assert.InDelta(t, 2.0, d[0], 1e-9)
	assert.InDelta(t, 2.0, d[1], 1e-9)

	assert.Equal(t, orb.Point{}, Polygon{}.Centroid())
}

func TestFromBound(t *testing.T) {
	b := orb.Bound{Min: orb.Point{1, 2}, Max: orb.Point{3, 5}}
	p := FromBound(b)
	require.NoError(t, p.Validate())
	assert.Equal(t, b, p.Bound())
	assert.InDelta(t, 6.0, p.Area(), 1e-12)
}

func TestAreaHectares(t *testing.T) {
	// 0.01 x 0.01 degrees at the equator is roughly 1.11 km x 1.11 km.
	ha := square(0, 0, 0.01).AreaHectares()
	assert.InDelta(t, 123.6, ha, 2.0)
}

func TestEqual(t *testing.T) {
	assert.True(t, square(0, 0, 1).Equal(square(0, 0, 1)))
	assert.False(t, square(0, 0, 1).Equal(square(0, 0, 2)))
}

//Personal.AI order the ending
