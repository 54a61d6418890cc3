// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package cvtcoverage

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/floats/scalar"
)

type gridKey struct {
	x, y int64
}

// deduplicator maps vertices within tol of each other to one canonical index.
// Adjacent cells are clipped independently, so their shared endpoints on the region
// boundary differ in the last bits.
type deduplicator struct {
	tol      float64
	vertices []r2.Point
	grid     map[gridKey][]int
}

func newDeduplicator(tol float64) *deduplicator {
	return &deduplicator{
		tol:  tol,
		grid: make(map[gridKey][]int),
	}
}

// maxCell bounds grid coordinates so that neighbouring cells stay representable.
const maxCell = 1 << 62

func (d *deduplicator) key(p r2.Point) gridKey {
	return gridKey{x: d.cell(p.X), y: d.cell(p.Y)}
}

// cell clamps the grid coordinate of v. Out-of-range values share the outermost cells
// and are still told apart by the exact tolerance check in index.
func (d *deduplicator) cell(v float64) int64 {
	c := math.Floor(v / d.tol)
	switch {
	case math.IsNaN(c):
		return 0
	case c >= maxCell:
		return maxCell
	case c <= -maxCell:
		return -maxCell
	}
	return int64(c)
}

// index returns the canonical index of p, registering p when no vertex is close enough.
func (d *deduplicator) index(p r2.Point) int {
	k := d.key(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, idx := range d.grid[gridKey{k.x + dx, k.y + dy}] {
				v := d.vertices[idx]
				if scalar.EqualWithinAbs(v.X, p.X, d.tol) && scalar.EqualWithinAbs(v.Y, p.Y, d.tol) {
					return idx
				}
			}
		}
	}
	idx := len(d.vertices)
	d.vertices = append(d.vertices, p)
	d.grid[k] = append(d.grid[k], idx)
	return idx
}
