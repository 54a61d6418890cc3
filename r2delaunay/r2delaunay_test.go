// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package r2delaunay

import (
	"fmt"
	"math"
	"testing"

	"github.com/golang/geo/r2"

	"github.com/2dChan/cvtcoverage/utils"
)

// TriangulationOptions

func TestWithEps(t *testing.T) {
	tests := []struct {
		name    string
		eps     float64
		wantErr bool
	}{
		{"eps positive", 0.5, false},
		{"eps zero", 0, true},
		{"eps negative", -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &TriangulationOptions{Eps: defaultEps}
			err := WithEps(tt.eps)(opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithEps(%v) error = %v, wantErr %v", tt.eps, err, tt.wantErr)
			}
			if err == nil && opts.Eps != tt.eps {
				t.Errorf("WithEps(%v) opts.Eps = %v, want %v", tt.eps, opts.Eps, tt.eps)
			}
		})
	}
}

// Triangulation

func TestNewTriangulation_DegenerateInput(t *testing.T) {
	tests := []struct {
		name     string
		vertices []r2.Point
	}{
		{"two points", []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}},
		{"collinear", []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTriangulation(tt.vertices); err == nil {
				t.Errorf("NewTriangulation(%v) error = nil, want non-nil", tt.vertices)
			}
		})
	}
}

func TestNewTriangulation_Triangle(t *testing.T) {
	vertices := []r2.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}}
	dt, err := NewTriangulation(vertices)
	if err != nil {
		t.Fatalf("NewTriangulation(...) error = %v, want nil", err)
	}
	if got := len(dt.Triangles); got != 1 {
		t.Fatalf("len(dt.Triangles) = %v, want 1", got)
	}
	c, err := dt.Circumcenter(0)
	if err != nil {
		t.Fatalf("dt.Circumcenter(0) error = %v, want nil", err)
	}
	if want := (r2.Point{X: 0.5, Y: 0.5}); c.Sub(want).Norm() > 1e-12 {
		t.Errorf("dt.Circumcenter(0) = %v, want %v", c, want)
	}
	if _, err := dt.Circumcenter(1); err == nil {
		t.Errorf("dt.Circumcenter(1) error = nil, want non-nil")
	}
}

func TestNewTriangulation_CoplanarLift(t *testing.T) {
	tests := []struct {
		name     string
		vertices []r2.Point
		want     int
		area     float64
	}{
		{"right triangle", []r2.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}}, 1, 0.5},
		{"right triangle reversed", []r2.Point{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 0}}, 1, 0.5},
		{"scalene triangle", []r2.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 0, Y: 3}}, 1, 6},
		{"far triangle", []r2.Point{{X: 100, Y: 100}, {X: 103, Y: 100}, {X: 100, Y: 104}}, 1, 6},
		{"square", []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}, 2, 1},
		{"hexagon", hexagon(), 4, 3 * math.Sqrt(3) / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt, err := NewTriangulation(tt.vertices)
			if err != nil {
				t.Fatalf("NewTriangulation(%v) error = %v, want nil", tt.vertices, err)
			}
			if got := len(dt.Triangles); got != tt.want {
				t.Fatalf("len(dt.Triangles) = %v, want %v", got, tt.want)
			}
			area := 0.0
			for i := range dt.Triangles {
				p, _ := dt.TriangleVertices(i)
				area += p[1].Sub(p[0]).Cross(p[2].Sub(p[0])) / 2
			}
			if math.Abs(area-tt.area) > 1e-9 {
				t.Errorf("total triangle area = %v, want %v", area, tt.area)
			}
		})
	}
}

func TestNewTriangulation_EulerCount(t *testing.T) {
	// Convex position plus one interior point: T = 2n - 2 - h.
	vertices := []r2.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 5, Y: 3}, {X: 2, Y: 5}, {X: -1, Y: 3}, {X: 2, Y: 2}}
	dt, err := NewTriangulation(vertices)
	if err != nil {
		t.Fatalf("NewTriangulation(...) error = %v, want nil", err)
	}
	if got, want := len(dt.Triangles), 2*len(vertices)-2-5; got != want {
		t.Errorf("len(dt.Triangles) = %v, want %v", got, want)
	}
}

func TestNewTriangulation_VerifyTrianglesCCW(t *testing.T) {
	dt := mustNewTriangulation(t, 100)

	for i, tri := range dt.Triangles {
		a, b, c := dt.Vertices[tri[0]], dt.Vertices[tri[1]], dt.Vertices[tri[2]]
		if b.Sub(a).Cross(c.Sub(a)) <= 0 {
			t.Errorf("dt.Triangles[%d] vertices are not sorted in CCW", i)
		}
	}
}

func TestNewTriangulation_EmptyCircumcircle(t *testing.T) {
	dt := mustNewTriangulation(t, 100)

	for i := range dt.Triangles {
		c, err := dt.Circumcenter(i)
		if err != nil {
			t.Fatalf("dt.Circumcenter(%d) error = %v, want nil", i, err)
		}
		p, _ := dt.TriangleVertices(i)
		radius := c.Sub(p[0]).Norm()
		for j, v := range dt.Vertices {
			if d := c.Sub(v).Norm(); d < radius*(1-1e-9) {
				t.Errorf("vertex %d lies inside circumcircle of triangle %d (%v < %v)", j, i, d, radius)
			}
		}
	}
}

func TestNewTriangulation_VerifyIncidentTriangles(t *testing.T) {
	dt := mustNewTriangulation(t, 100)

	for vIdx := range len(dt.Vertices) {
		incident, err := dt.IncidentTriangles(vIdx)
		if err != nil {
			t.Fatalf("dt.IncidentTriangles(%d) error = %v, want nil", vIdx, err)
		}
		if len(incident) == 0 {
			t.Errorf("dt.IncidentTriangles(%d) is empty", vIdx)
		}
		prev := math.Inf(-1)
		for _, tIdx := range incident {
			if _, err := NextVertex(dt.Triangles[tIdx], vIdx); err != nil {
				t.Fatalf("NextVertex(%v, %d) error = %v, want nil", dt.Triangles[tIdx], vIdx, err)
			}
			if _, err := PrevVertex(dt.Triangles[tIdx], vIdx); err != nil {
				t.Fatalf("PrevVertex(%v, %d) error = %v, want nil", dt.Triangles[tIdx], vIdx, err)
			}
			p, _ := dt.TriangleVertices(tIdx)
			c := p[0].Add(p[1]).Add(p[2]).Mul(1.0 / 3).Sub(dt.Vertices[vIdx])
			a := math.Atan2(c.Y, c.X)
			if a < prev {
				t.Errorf("dt.IncidentTriangles(%d) not sorted in CCW", vIdx)
			}
			prev = a
		}
	}
	if _, err := dt.IncidentTriangles(len(dt.Vertices)); err == nil {
		t.Errorf("dt.IncidentTriangles(%d) error = nil, want non-nil", len(dt.Vertices))
	}
}

func TestNextPrevVertex_NotInTriangle(t *testing.T) {
	tri := [3]int{0, 1, 2}
	if _, err := NextVertex(tri, 5); err == nil {
		t.Errorf("NextVertex(%v, 5) error = nil, want non-nil", tri)
	}
	if _, err := PrevVertex(tri, 5); err == nil {
		t.Errorf("PrevVertex(%v, 5) error = nil, want non-nil", tri)
	}
}

// Benchmarks

func BenchmarkNewTriangulation(b *testing.B) {
	sizes := []int{1e+2, 1e+3, 1e+4}
	for _, pointsCnt := range sizes {
		b.Run(fmt.Sprintf("N%d", pointsCnt), func(b *testing.B) {
			points := utils.GenerateRandomPoints(pointsCnt, 0, unitSquare)

			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				if _, err := NewTriangulation(points); err != nil {
					b.Fatalf("NewTriangulation(...) error = %v, want nil", err)
				}
			}
		})
	}
}

// Helpers

func hexagon() []r2.Point {
	points := make([]r2.Point, 6)
	for i := range points {
		a := float64(i) * math.Pi / 3
		points[i] = r2.Point{X: math.Cos(a), Y: math.Sin(a)}
	}
	return points
}

var unitSquare = r2.RectFromPoints(r2.Point{X: 0, Y: 0}, r2.Point{X: 1, Y: 1})

func mustNewTriangulation(t *testing.T, n int) *Triangulation {
	t.Helper()
	points := utils.GenerateRandomPoints(n, 0, unitSquare)
	dt, err := NewTriangulation(points)
	if err != nil {
		t.Fatalf("NewTriangulation(...) error = %v, want nil", err)
	}
	return dt
}
