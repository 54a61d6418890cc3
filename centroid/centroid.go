// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package centroid computes the mass and area centroid of polygonal cells under unit
// density with the shoelace formula.
package centroid

import (
	"github.com/golang/geo/r2"

	"github.com/2dChan/cvtcoverage/cverrors"
)

// Mass returns the signed area of poly. Counter-clockwise polygons have positive mass.
func Mass(poly []r2.Point) float64 {
	n := len(poly)
	if n < 3 {
		return 0
	}
	var s float64
	for i := range n {
		s += poly[i].Sub(poly[0]).Cross(poly[(i+1)%n].Sub(poly[0]))
	}
	return s / 2
}

// Centroid returns the area centroid of poly.
func Centroid(poly []r2.Point) (r2.Point, error) {
	_, c, err := MassCentroid(poly)
	return c, err
}

// MassCentroid returns the signed area and the area centroid of poly in one pass.
// Zero-area polygons fail with DegenerateCellError.
func MassCentroid(poly []r2.Point) (float64, r2.Point, error) {
	n := len(poly)
	if n < 3 {
		return 0, r2.Point{}, &cverrors.DegenerateCellError{NumVertices: n}
	}

	// Shift to the first vertex to limit cancellation on cells far from the origin.
	origin := poly[0]
	var area, cx, cy float64
	for i := range n {
		p := poly[i].Sub(origin)
		q := poly[(i+1)%n].Sub(origin)
		w := p.Cross(q)
		area += w
		cx += (p.X + q.X) * w
		cy += (p.Y + q.Y) * w
	}
	if area == 0 {
		return 0, r2.Point{}, &cverrors.DegenerateCellError{NumVertices: n}
	}
	area /= 2
	c := r2.Point{X: cx / (6 * area), Y: cy / (6 * area)}
	return area, c.Add(origin), nil
}
