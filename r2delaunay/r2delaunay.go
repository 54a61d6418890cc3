// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package r2delaunay computes planar Delaunay triangulations as the lower convex hull of
// the points lifted onto the paraboloid z = x² + y².
package r2delaunay

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/markus-wa/quickhull-go/v2"
)

const (
	defaultEps = 1e-12
)

// Triangulation is a planar Delaunay triangulation.
type Triangulation struct {
	Vertices []r2.Point
	// NOTE: Counter-clockwise per triangle.
	Triangles [][3]int
	// NOTE: Sorted counter-clockwise around each vertex.
	IncidentTriangleIndices []int
	IncidentTriangleOffsets []int
}

// IncidentTriangles returns the indices of the triangles incident to vertex vIdx.
func (dt *Triangulation) IncidentTriangles(vIdx int) ([]int, error) {
	if vIdx < 0 || vIdx+1 >= len(dt.IncidentTriangleOffsets) {
		return nil, fmt.Errorf("IncidentTriangles: index %d out of range [0 %d)", vIdx, len(dt.Vertices))
	}
	start := dt.IncidentTriangleOffsets[vIdx]
	end := dt.IncidentTriangleOffsets[vIdx+1]
	return dt.IncidentTriangleIndices[start:end], nil
}

// TriangleVertices returns the three corners of triangle tIdx.
func (dt *Triangulation) TriangleVertices(tIdx int) ([3]r2.Point, error) {
	if tIdx < 0 || tIdx >= len(dt.Triangles) {
		return [3]r2.Point{}, fmt.Errorf("TriangleVertices: index %d out of range [0 %d)", tIdx, len(dt.Triangles))
	}
	t := dt.Triangles[tIdx]
	return [3]r2.Point{dt.Vertices[t[0]], dt.Vertices[t[1]], dt.Vertices[t[2]]}, nil
}

// Circumcenter returns the centre of the circle through the corners of triangle tIdx.
func (dt *Triangulation) Circumcenter(tIdx int) (r2.Point, error) {
	p, err := dt.TriangleVertices(tIdx)
	if err != nil {
		return r2.Point{}, err
	}
	return triangleCircumcenter(p[0], p[1], p[2]), nil
}

type TriangulationOptions struct {
	Eps float64
}

type TriangulationOption func(*TriangulationOptions) error

// WithEps sets the relative tolerance passed to the hull computation.
func WithEps(eps float64) TriangulationOption {
	return func(o *TriangulationOptions) error {
		if eps <= 0 {
			return errors.New("WithEps: eps must be positive")
		}
		o.Eps = eps
		return nil
	}
}

// NewTriangulation triangulates vertices. At least three non-collinear vertices are
// required and no two may coincide.
func NewTriangulation(vertices []r2.Point, setters ...TriangulationOption) (*Triangulation, error) {
	opts := TriangulationOptions{
		Eps: defaultEps,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	numVertices := len(vertices)
	if numVertices < 3 {
		return nil,
			errors.New("r2delaunay: insufficient vertices for triangulation (minimum 3 required)")
	}

	// Shift to the centroid so the lifted coordinates stay well scaled.
	var center r2.Point
	for _, p := range vertices {
		center = center.Add(p)
	}
	center = center.Mul(1 / float64(numVertices))

	// An apex above the paraboloid keeps the hull solid when all lifted points are
	// coplanar (three points, cocircular sets). Faces through it are discarded.
	apex := numVertices
	lifted := make([]r3.Vector, numVertices+1)
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for i, p := range vertices {
		d := p.Sub(center)
		lifted[i] = r3.Vector{X: d.X, Y: d.Y, Z: d.X*d.X + d.Y*d.Y}
		minZ = math.Min(minZ, lifted[i].Z)
		maxZ = math.Max(maxZ, lifted[i].Z)
	}
	lifted[apex] = r3.Vector{Z: maxZ + (maxZ - minZ) + 1}

	var hullCenter r3.Vector
	for _, v := range lifted {
		hullCenter = hullCenter.Add(v)
	}
	hullCenter = hullCenter.Mul(1 / float64(len(lifted)))

	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(lifted, true, true, opts.Eps)
	if len(ch.Indices) == 0 || len(ch.Indices)%3 != 0 {
		return nil, errors.New("r2delaunay: degenerate input, convex hull has no faces")
	}

	dt := &Triangulation{
		Vertices:                vertices,
		IncidentTriangleOffsets: make([]int, numVertices+1),
	}
	seen := make(map[[3]int]bool)
	for base := 0; base < len(ch.Indices); base += 3 {
		t := [3]int{ch.Indices[base], ch.Indices[base+1], ch.Indices[base+2]}
		if slices.Contains(t[:], apex) {
			continue
		}
		key := t
		slices.Sort(key[:])
		if seen[key] {
			continue
		}
		a, b, c := lifted[t[0]], lifted[t[1]], lifted[t[2]]
		norm := b.Sub(a).Cross(c.Sub(a))
		if norm.Dot(a.Sub(hullCenter)) < 0 {
			norm = norm.Mul(-1)
		}
		// Lower faces only. Vertical faces project onto a segment.
		if norm.Z >= -opts.Eps*norm.Norm() {
			continue
		}
		seen[key] = true
		sortTriangleVerticesCCW(&t, vertices)
		dt.Triangles = append(dt.Triangles, t)
	}
	if len(dt.Triangles) == 0 {
		return nil, errors.New("r2delaunay: degenerate input, all vertices are collinear")
	}

	for _, t := range dt.Triangles {
		for _, v := range t {
			dt.IncidentTriangleOffsets[v+1]++
		}
	}
	for i := range numVertices {
		dt.IncidentTriangleOffsets[i+1] += dt.IncidentTriangleOffsets[i]
	}
	dt.IncidentTriangleIndices = make([]int, dt.IncidentTriangleOffsets[numVertices])

	nxt := make([]int, numVertices)
	copy(nxt, dt.IncidentTriangleOffsets[:numVertices])
	for i, t := range dt.Triangles {
		for _, v := range t {
			dt.IncidentTriangleIndices[nxt[v]] = i
			nxt[v]++
		}
	}

	for i := range numVertices {
		start, end := dt.IncidentTriangleOffsets[i], dt.IncidentTriangleOffsets[i+1]
		sortIncidentTrianglesCCW(i, dt.IncidentTriangleIndices[start:end], dt)
	}

	return dt, nil
}

func sortTriangleVerticesCCW(t *[3]int, v []r2.Point) {
	p0, p1, p2 := v[t[0]], v[t[1]], v[t[2]]
	if p1.Sub(p0).Cross(p2.Sub(p0)) < 0 {
		t[1], t[2] = t[2], t[1]
	}
}

// sortIncidentTrianglesCCW orders triangles by the angle of their centroid around the
// vertex. Unlike on the sphere, the fan around a hull vertex is open, so the walk over
// shared edges is replaced by an angular sort.
func sortIncidentTrianglesCCW(vIdx int, incidentTris []int, dt *Triangulation) {
	origin := dt.Vertices[vIdx]
	angle := func(tIdx int) float64 {
		t := dt.Triangles[tIdx]
		c := dt.Vertices[t[0]].Add(dt.Vertices[t[1]]).Add(dt.Vertices[t[2]]).Mul(1.0 / 3)
		d := c.Sub(origin)
		return math.Atan2(d.Y, d.X)
	}
	slices.SortStableFunc(incidentTris, func(a, b int) int {
		aa, ab := angle(a), angle(b)
		switch {
		case aa < ab:
			return -1
		case aa > ab:
			return 1
		}
		return 0
	})
}

// PrevVertex returns the vertex preceding vIdx in triangle t.
func PrevVertex(t [3]int, vIdx int) (int, error) {
	switch vIdx {
	case t[0]:
		return t[2], nil
	case t[1]:
		return t[0], nil
	case t[2]:
		return t[1], nil
	}
	return 0, fmt.Errorf("PrevVertex: vertex %d not in triangle %v", vIdx, t)
}

// NextVertex returns the vertex following vIdx in triangle t.
func NextVertex(t [3]int, vIdx int) (int, error) {
	switch vIdx {
	case t[0]:
		return t[1], nil
	case t[1]:
		return t[2], nil
	case t[2]:
		return t[0], nil
	}
	return 0, fmt.Errorf("NextVertex: vertex %d not in triangle %v", vIdx, t)
}

func triangleCircumcenter(a, b, c r2.Point) r2.Point {
	ab := b.Sub(a)
	ac := c.Sub(a)
	d := 2 * ab.Cross(ac)
	ab2 := ab.Dot(ab)
	ac2 := ac.Dot(ac)
	return r2.Point{
		X: a.X + (ac.Y*ab2-ab.Y*ac2)/d,
		Y: a.Y + (ab.X*ac2-ac.X*ab2)/d,
	}
}
