// Package partition splits oversized site boundaries into a grid of display
// sub-areas. The suitability score is always computed for the whole boundary;
// sub-areas only share that score.
package partition

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/geometry"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

const (
	// DefaultMaxArea is the area threshold, in squared degrees, above which a
	// boundary is split. 0.0001 sq-deg is roughly 120 ha near the equator.
	DefaultMaxArea = 0.0001

	// MinMaxArea is the smallest threshold a caller may request, roughly
	// 120 m² near the equator.
	MinMaxArea = 1e-8

	// DefaultMaxCells caps the sub-areas of one boundary. A grid side never
	// exceeds floor(sqrt(maxCells)).
	DefaultMaxCells = 10000
)

// ValidateMaxArea checks a caller-supplied threshold. Zero means "use the
// default" and is accepted.
func ValidateMaxArea(maxArea float64) error {
	switch {
	case math.IsNaN(maxArea) || math.IsInf(maxArea, 0):
		return errors.InvalidParam("maxArea must be a finite number")
	case maxArea < 0:
		return errors.InvalidParam("maxArea must not be negative")
	case maxArea > 0 && maxArea < MinMaxArea:
		return errors.InvalidParam(fmt.Sprintf("maxArea must be at least %g sq deg", MinMaxArea))
	}
	return nil
}

// Partitioner splits polygons whose shoelace area exceeds MaxArea.
type Partitioner struct {
	maxArea  float64
	maxCells int
}

// NewPartitioner returns a Partitioner; non-positive maxArea selects DefaultMaxArea.
func NewPartitioner(maxArea float64) *Partitioner {
	if maxArea <= 0 || math.IsNaN(maxArea) || math.IsInf(maxArea, 0) {
		maxArea = DefaultMaxArea
	}
	return &Partitioner{maxArea: maxArea, maxCells: DefaultMaxCells}
}

// WithMaxCells returns a copy with a different cell cap; values below 1 keep
// the current cap.
func (p *Partitioner) WithMaxCells(n int) *Partitioner {
	cp := *p
	if n > 0 {
		cp.maxCells = n
	}
	return &cp
}

// WithMaxArea returns a copy with a different threshold and the same cell cap.
func (p *Partitioner) WithMaxArea(maxArea float64) *Partitioner {
	return NewPartitioner(maxArea).WithMaxCells(p.maxCells)
}

// MaxArea returns the configured threshold.
func (p *Partitioner) MaxArea() float64 { return p.maxArea }

// MaxCells returns the configured cell cap.
func (p *Partitioner) MaxCells() int { return p.maxCells }

// Partition applies PartitionCapped with the configured threshold and cap.
func (p *Partitioner) Partition(poly geometry.Polygon) []geometry.Polygon {
	return PartitionCapped(poly, p.maxArea, p.maxCells)
}

// GridSize returns the number of cells per side for a polygon of the given
// area: ceil(sqrt(area / maxArea)), capped so the grid holds at most
// DefaultMaxCells cells. It returns 1 when no split is needed.
func GridSize(area, maxArea float64) int {
	return CappedGridSize(area, maxArea, DefaultMaxCells)
}

// CappedGridSize is GridSize with an explicit cell cap.
func CappedGridSize(area, maxArea float64, maxCells int) int {
	if !(area > maxArea) || !(maxArea > 0) {
		return 1
	}
	if maxCells < 1 {
		maxCells = DefaultMaxCells
	}
	limit := math.Floor(math.Sqrt(float64(maxCells)))
	n := math.Ceil(math.Sqrt(area / maxArea))
	if !(n <= limit) {
		n = limit
	}
	if n < 1 {
		n = 1
	}
	return int(n)
}

// Partition returns [poly] when its area is at most maxArea. Otherwise the
// bounding box is divided into gridSize x gridSize equal cells and every cell
// whose bounding box overlaps the polygon's bounding box is kept, in row-major
// order from the south-west corner. An empty result falls back to [poly].
// The grid is capped at DefaultMaxCells cells.
func Partition(poly geometry.Polygon, maxArea float64) []geometry.Polygon {
	return PartitionCapped(poly, maxArea, DefaultMaxCells)
}

// PartitionCapped is Partition with an explicit cell cap. Oversized grids are
// coarsened, never truncated, so the cells still cover the bounding box.
func PartitionCapped(poly geometry.Polygon, maxArea float64, maxCells int) []geometry.Polygon {
	area := geometry.PolygonArea(poly)
	if !(area > maxArea) || !(maxArea > 0) {
		return []geometry.Polygon{poly}
	}

	n := CappedGridSize(area, maxArea, maxCells)
	if n == 1 {
		return []geometry.Polygon{poly}
	}
	bound := poly.Bound()
	cellW := (bound.Max[0] - bound.Min[0]) / float64(n)
	cellH := (bound.Max[1] - bound.Min[1]) / float64(n)

	cells := make([]geometry.Polygon, 0, n*n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			minX := bound.Min[0] + float64(col)*cellW
			minY := bound.Min[1] + float64(row)*cellH
			cell := geometry.FromBound(orb.Bound{
				Min: orb.Point{minX, minY},
				Max: orb.Point{minX + cellW, minY + cellH},
			})
			if geometry.BoundingBoxesIntersect(poly, cell) {
				cells = append(cells, cell)
			}
		}
	}
	if len(cells) == 0 {
		return []geometry.Polygon{poly}
	}
	return cells
}

//Personal.AI order the ending
