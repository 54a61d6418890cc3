// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package region implements the convex planar coverage domain, both as a polygon and as
// a set of half-plane constraints.
package region

import (
	"fmt"
	"math"
	"slices"

	"github.com/golang/geo/r2"

	"github.com/2dChan/cvtcoverage/cverrors"
)

const (
	collinearEps = 1e-12
)

// HalfPlane is the constraint A·x <= C. Margin is positive on the admissible side.
type HalfPlane struct {
	A r2.Point
	C float64
}

// Margin returns h(p) = C - A·p.
func (h HalfPlane) Margin(p r2.Point) float64 {
	return h.C - h.A.Dot(p)
}

// Distance returns the signed Euclidean distance from p to the constraint line,
// positive inside.
func (h HalfPlane) Distance(p r2.Point) float64 {
	return h.Margin(p) / h.A.Norm()
}

// Region is an immutable convex polygon. Vertices are stored in counter-clockwise order.
type Region struct {
	vertices    []r2.Point
	constraints []HalfPlane
	bound       r2.Rect
}

// New builds a region from an ordered polygon. The constraints are derived from the
// polygon edges in unit outward-normal form. Repeated and collinear vertices are dropped.
func New(vertices []r2.Point) (*Region, error) {
	verts, err := normalizePolygon(vertices)
	if err != nil {
		return nil, err
	}

	n := len(verts)
	constraints := make([]HalfPlane, n)
	for i := range n {
		p, q := verts[i], verts[(i+1)%n]
		d := q.Sub(p)
		a := r2.Point{X: d.Y, Y: -d.X}.Normalize()
		constraints[i] = HalfPlane{A: a, C: a.Dot(p)}
	}

	return &Region{
		vertices:    verts,
		constraints: constraints,
		bound:       r2.RectFromPoints(verts...),
	}, nil
}

// FromConstraints builds a region from raw half-plane rows. The coefficients are kept
// exactly as given, so margins match the caller's tables. The intersection must be a
// bounded polygon.
func FromConstraints(constraints []HalfPlane) (*Region, error) {
	if len(constraints) < 3 {
		return nil, &cverrors.InvalidRegionError{
			Reason: fmt.Sprintf("%d constraints, need at least 3", len(constraints)),
		}
	}
	for i, h := range constraints {
		if h.A.Norm() == 0 {
			return nil, &cverrors.InvalidRegionError{Reason: fmt.Sprintf("constraint %d has zero normal", i)}
		}
	}

	scale := 1.0
	for _, h := range constraints {
		scale = math.Max(scale, math.Abs(h.C)/h.A.Norm())
	}
	tol := 1e-9 * scale

	var candidates []r2.Point
	for i := range constraints {
		for j := i + 1; j < len(constraints); j++ {
			p, ok := lineIntersection(constraints[i], constraints[j])
			if !ok {
				continue
			}
			if feasible(constraints, p, tol) {
				candidates = append(candidates, p)
			}
		}
	}
	hull := convexHull(candidates)
	if len(hull) < 3 {
		return nil, &cverrors.InvalidRegionError{Reason: "constraints do not enclose a bounded polygon"}
	}

	verts, err := normalizePolygon(hull)
	if err != nil {
		return nil, err
	}
	// Every boundary edge must lie on one of the constraint lines, otherwise the
	// feasible set extends past the enumerated vertices.
	for i := range verts {
		mid := verts[i].Add(verts[(i+1)%len(verts)]).Mul(0.5)
		onLine := false
		for _, h := range constraints {
			if math.Abs(h.Distance(mid)) <= tol {
				onLine = true
				break
			}
		}
		if !onLine {
			return nil, &cverrors.InvalidRegionError{Reason: "constraints describe an unbounded set"}
		}
	}

	return &Region{
		vertices:    verts,
		constraints: slices.Clone(constraints),
		bound:       r2.RectFromPoints(verts...),
	}, nil
}

// NumConstraints returns the number of half-plane constraints.
func (r *Region) NumConstraints() int {
	return len(r.constraints)
}

// Constraints returns a copy of the half-plane constraints.
func (r *Region) Constraints() []HalfPlane {
	return slices.Clone(r.constraints)
}

// Vertices returns a copy of the boundary polygon in counter-clockwise order.
func (r *Region) Vertices() []r2.Point {
	return slices.Clone(r.vertices)
}

// Bound returns the axis-aligned bounding box of the region.
func (r *Region) Bound() r2.Rect {
	return r.bound
}

// MaxExtentX returns the width of the bounding box.
func (r *Region) MaxExtentX() float64 {
	return r.bound.X.Length()
}

// MaxExtentY returns the height of the bounding box.
func (r *Region) MaxExtentY() float64 {
	return r.bound.Y.Length()
}

// Diameter returns the diagonal of the bounding box.
func (r *Region) Diameter() float64 {
	return r.bound.Size().Norm()
}

// Contains reports whether p lies inside or on the boundary of the region.
func (r *Region) Contains(p r2.Point) bool {
	for _, h := range r.constraints {
		if h.Margin(p) < 0 {
			return false
		}
	}
	return true
}

// SignedDistanceToConstraint returns the Euclidean distance from p to constraint i,
// positive inside.
func (r *Region) SignedDistanceToConstraint(p r2.Point, i int) (float64, error) {
	if i < 0 || i >= len(r.constraints) {
		return 0, fmt.Errorf("SignedDistanceToConstraint: index %d out of range [0 %d)", i, len(r.constraints))
	}
	return r.constraints[i].Distance(p), nil
}

// Area returns the area of the region.
func (r *Region) Area() float64 {
	var s float64
	n := len(r.vertices)
	for i := range n {
		s += r.vertices[i].Cross(r.vertices[(i+1)%n])
	}
	return s / 2
}

// Clip intersects a convex polygon with the region. It returns nil when nothing of the
// polygon lies inside.
func (r *Region) Clip(poly []r2.Point) []r2.Point {
	out := slices.Clone(poly)
	for _, h := range r.constraints {
		out = clipHalfPlane(out, h)
		if len(out) == 0 {
			return nil
		}
	}
	return out
}

func clipHalfPlane(poly []r2.Point, h HalfPlane) []r2.Point {
	n := len(poly)
	out := make([]r2.Point, 0, n+1)
	for i := range n {
		p, q := poly[i], poly[(i+1)%n]
		mp, mq := h.Margin(p), h.Margin(q)
		if mp >= 0 {
			out = append(out, p)
		}
		if (mp >= 0) != (mq >= 0) {
			t := mp / (mp - mq)
			out = append(out, p.Add(q.Sub(p).Mul(t)))
		}
	}
	return out
}

func normalizePolygon(vertices []r2.Point) ([]r2.Point, error) {
	if len(vertices) < 3 {
		return nil, &cverrors.InvalidRegionError{
			Reason: fmt.Sprintf("%d vertices, need at least 3", len(vertices)),
		}
	}

	verts := make([]r2.Point, 0, len(vertices))
	for _, v := range vertices {
		if len(verts) > 0 && verts[len(verts)-1] == v {
			continue
		}
		verts = append(verts, v)
	}
	for len(verts) > 1 && verts[0] == verts[len(verts)-1] {
		verts = verts[:len(verts)-1]
	}
	if len(verts) < 3 {
		return nil, &cverrors.InvalidRegionError{Reason: "fewer than 3 distinct vertices"}
	}

	if selfIntersecting(verts) {
		return nil, &cverrors.InvalidRegionError{Reason: "polygon is self-intersecting"}
	}

	if signedArea(verts) < 0 {
		slices.Reverse(verts)
	}
	verts = dropCollinear(verts)
	if len(verts) < 3 || signedArea(verts) <= 0 {
		return nil, &cverrors.InvalidRegionError{Reason: "polygon has zero area"}
	}

	n := len(verts)
	for i := range n {
		d1 := verts[(i+1)%n].Sub(verts[i])
		d2 := verts[(i+2)%n].Sub(verts[(i+1)%n])
		if d1.Cross(d2) < 0 {
			return nil, &cverrors.InvalidRegionError{Reason: "polygon is not convex"}
		}
	}
	return verts, nil
}

func dropCollinear(verts []r2.Point) []r2.Point {
	for {
		n := len(verts)
		if n < 3 {
			return verts
		}
		removed := false
		for i := range n {
			prev, cur, next := verts[(i+n-1)%n], verts[i], verts[(i+1)%n]
			d1, d2 := cur.Sub(prev), next.Sub(cur)
			if math.Abs(d1.Cross(d2)) <= collinearEps*d1.Norm()*d2.Norm() && d1.Dot(d2) > 0 {
				verts = slices.Delete(verts, i, i+1)
				removed = true
				break
			}
		}
		if !removed {
			return verts
		}
	}
}

func signedArea(verts []r2.Point) float64 {
	var s float64
	n := len(verts)
	for i := range n {
		s += verts[i].Cross(verts[(i+1)%n])
	}
	return s / 2
}

func selfIntersecting(verts []r2.Point) bool {
	n := len(verts)
	for i := range n {
		a1, a2 := verts[i], verts[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Adjacent edges share an endpoint by construction.
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			b1, b2 := verts[j], verts[(j+1)%n]
			if segmentsIntersect(a1, a2, b1, b2) {
				return true
			}
		}
	}
	// Folded-back adjacent edges overlap without crossing.
	for i := range n {
		d1 := verts[(i+1)%n].Sub(verts[i])
		d2 := verts[(i+2)%n].Sub(verts[(i+1)%n])
		if d1.Cross(d2) == 0 && d1.Dot(d2) < 0 {
			return true
		}
	}
	return false
}

func orientation(a, b, c r2.Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

func onSegment(a, b, p r2.Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

func segmentsIntersect(a1, a2, b1, b2 r2.Point) bool {
	d1 := orientation(b1, b2, a1)
	d2 := orientation(b1, b2, a2)
	d3 := orientation(a1, a2, b1)
	d4 := orientation(a1, a2, b2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(b1, b2, a1):
		return true
	case d2 == 0 && onSegment(b1, b2, a2):
		return true
	case d3 == 0 && onSegment(a1, a2, b1):
		return true
	case d4 == 0 && onSegment(a1, a2, b2):
		return true
	}
	return false
}

func lineIntersection(h1, h2 HalfPlane) (r2.Point, bool) {
	det := h1.A.Cross(h2.A)
	scale := h1.A.Norm() * h2.A.Norm()
	if math.Abs(det) <= collinearEps*scale {
		return r2.Point{}, false
	}
	x := (h1.C*h2.A.Y - h2.C*h1.A.Y) / det
	y := (h1.A.X*h2.C - h2.A.X*h1.C) / det
	return r2.Point{X: x, Y: y}, true
}

func feasible(constraints []HalfPlane, p r2.Point, tol float64) bool {
	for _, h := range constraints {
		if h.Distance(p) < -tol {
			return false
		}
	}
	return true
}

// convexHull returns the hull of pts in counter-clockwise order (monotone chain).
func convexHull(pts []r2.Point) []r2.Point {
	pts = slices.Clone(pts)
	slices.SortFunc(pts, func(a, b r2.Point) int {
		if a.X != b.X {
			if a.X < b.X {
				return -1
			}
			return 1
		}
		switch {
		case a.Y < b.Y:
			return -1
		case a.Y > b.Y:
			return 1
		}
		return 0
	})
	pts = slices.Compact(pts)
	if len(pts) < 3 {
		return pts
	}

	hull := make([]r2.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && orientation(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && orientation(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}
