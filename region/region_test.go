// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package region

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/2dChan/cvtcoverage/cverrors"
)

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		vertices []r2.Point
	}{
		{"empty", nil},
		{"two vertices", []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}}},
		{"repeated vertices", []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 0}}},
		{"collinear", []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}},
		{"bowtie", []r2.Point{{X: 0, Y: 0}, {X: 2, Y: 2}, {X: 2, Y: 0}, {X: 0, Y: 2}}},
		{"non convex", []r2.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 2, Y: 1}, {X: 0, Y: 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.vertices)
			var target *cverrors.InvalidRegionError
			if !errors.As(err, &target) {
				t.Errorf("New(%v) error = %v, want InvalidRegionError", tt.vertices, err)
			}
		})
	}
}

func TestNew_OrientationAndConstraints(t *testing.T) {
	// Clockwise input is reversed to counter-clockwise.
	r := mustNew(t, []r2.Point{{X: 0, Y: 0}, {X: 0, Y: 6}, {X: 6, Y: 6}, {X: 6, Y: 0}})

	if got := r.Area(); math.Abs(got-36) > 1e-12 {
		t.Errorf("r.Area() = %v, want 36", got)
	}
	if got := r.NumConstraints(); got != 4 {
		t.Fatalf("r.NumConstraints() = %v, want 4", got)
	}
	for i, h := range r.Constraints() {
		if n := h.A.Norm(); math.Abs(n-1) > 1e-12 {
			t.Errorf("constraint %d normal norm = %v, want 1", i, n)
		}
		// The centre is 3 units from every side.
		d, err := r.SignedDistanceToConstraint(r2.Point{X: 3, Y: 3}, i)
		if err != nil {
			t.Fatalf("r.SignedDistanceToConstraint(..., %d) error = %v, want nil", i, err)
		}
		if math.Abs(d-3) > 1e-12 {
			t.Errorf("r.SignedDistanceToConstraint(centre, %d) = %v, want 3", i, d)
		}
	}
	if _, err := r.SignedDistanceToConstraint(r2.Point{}, 4); err == nil {
		t.Errorf("r.SignedDistanceToConstraint(..., 4) error = nil, want non-nil")
	}
}

func TestNew_DropsCollinearVertices(t *testing.T) {
	r := mustNew(t, []r2.Point{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 6, Y: 0}, {X: 6, Y: 6}, {X: 0, Y: 6}})
	if got := len(r.Vertices()); got != 4 {
		t.Errorf("len(r.Vertices()) = %v, want 4", got)
	}
}

func TestRegion_Contains(t *testing.T) {
	r := mustSquare(t, 6)
	tests := []struct {
		p    r2.Point
		want bool
	}{
		{r2.Point{X: 3, Y: 3}, true},
		{r2.Point{X: 0, Y: 0}, true},
		{r2.Point{X: 6, Y: 2}, true},
		{r2.Point{X: -0.1, Y: 2}, false},
		{r2.Point{X: 2, Y: 6.01}, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.p); got != tt.want {
			t.Errorf("r.Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestRegion_Extent(t *testing.T) {
	r := mustNew(t, []r2.Point{{X: 1, Y: 2}, {X: 5, Y: 2}, {X: 5, Y: 9}, {X: 1, Y: 9}})
	if got := r.MaxExtentX(); got != 4 {
		t.Errorf("r.MaxExtentX() = %v, want 4", got)
	}
	if got := r.MaxExtentY(); got != 7 {
		t.Errorf("r.MaxExtentY() = %v, want 7", got)
	}
}

func TestFromConstraints_Pentagon(t *testing.T) {
	const scale = 50
	r, err := FromConstraints([]HalfPlane{
		{A: r2.Point{X: -1, Y: 0}, C: 0},
		{A: r2.Point{X: 0, Y: -1}, C: 0},
		{A: r2.Point{X: -1, Y: 1}, C: 6 * scale},
		{A: r2.Point{X: 0.6, Y: 1}, C: 15.6 * scale},
		{A: r2.Point{X: 0.6, Y: -1}, C: 3.6 * scale},
	})
	if err != nil {
		t.Fatalf("FromConstraints(...) error = %v, want nil", err)
	}

	want := []r2.Point{{X: 0, Y: 0}, {X: 300, Y: 0}, {X: 800, Y: 300}, {X: 300, Y: 600}, {X: 0, Y: 300}}
	got := r.Vertices()
	opt := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff(want, rotateToOrigin(got), opt); diff != "" {
		t.Errorf("r.Vertices() mismatch (-want +got):\n%s", diff)
	}
	if got := r.Area(); math.Abs(got-285000) > 1e-6 {
		t.Errorf("r.Area() = %v, want 285000", got)
	}
	// Raw coefficients are preserved.
	if got := r.Constraints()[3].A; got != (r2.Point{X: 0.6, Y: 1}) {
		t.Errorf("r.Constraints()[3].A = %v, want (0.6, 1)", got)
	}
}

func TestFromConstraints_RedundantRows(t *testing.T) {
	// x+y <= 2 touches the corner (1,1) and x <= 5 never binds.
	r, err := FromConstraints([]HalfPlane{
		{A: r2.Point{X: -1, Y: 0}, C: 0},
		{A: r2.Point{X: 0, Y: -1}, C: 0},
		{A: r2.Point{X: 1, Y: 0}, C: 1},
		{A: r2.Point{X: 0, Y: 1}, C: 1},
		{A: r2.Point{X: 1, Y: 1}, C: 2},
		{A: r2.Point{X: 1, Y: 0}, C: 5},
	})
	if err != nil {
		t.Fatalf("FromConstraints(...) error = %v, want nil", err)
	}
	want := []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	if diff := cmp.Diff(want, rotateToOrigin(r.Vertices()), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("r.Vertices() mismatch (-want +got):\n%s", diff)
	}
	if got := len(r.Constraints()); got != 6 {
		t.Errorf("len(r.Constraints()) = %v, want 6", got)
	}
}

func TestFromConstraints_Invalid(t *testing.T) {
	tests := []struct {
		name string
		hp   []HalfPlane
	}{
		{"too few", []HalfPlane{{A: r2.Point{X: 1}, C: 1}, {A: r2.Point{Y: 1}, C: 1}}},
		{"zero normal", []HalfPlane{{A: r2.Point{X: 1}, C: 1}, {A: r2.Point{Y: 1}, C: 1}, {C: 1}}},
		{"unbounded", []HalfPlane{
			{A: r2.Point{X: -1}, C: 0},
			{A: r2.Point{Y: -1}, C: 0},
			{A: r2.Point{X: -1, Y: -1}, C: -1},
			{A: r2.Point{X: -1, Y: 1}, C: 5},
		}},
		{"empty", []HalfPlane{
			{A: r2.Point{X: 1}, C: 0},
			{A: r2.Point{X: -1}, C: -1},
			{A: r2.Point{Y: 1}, C: 1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromConstraints(tt.hp)
			var target *cverrors.InvalidRegionError
			if !errors.As(err, &target) {
				t.Errorf("FromConstraints(...) error = %v, want InvalidRegionError", err)
			}
		})
	}
}

func TestRegion_Clip(t *testing.T) {
	r := mustSquare(t, 6)
	tests := []struct {
		name string
		poly []r2.Point
		area float64
	}{
		{"inside", []r2.Point{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 2}, {X: 1, Y: 2}}, 1},
		{"covering", []r2.Point{{X: -10, Y: -10}, {X: 10, Y: -10}, {X: 10, Y: 10}, {X: -10, Y: 10}}, 36},
		{"corner", []r2.Point{{X: 4, Y: 4}, {X: 8, Y: 4}, {X: 8, Y: 8}, {X: 4, Y: 8}}, 4},
		{"outside", []r2.Point{{X: 7, Y: 7}, {X: 8, Y: 7}, {X: 8, Y: 8}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Clip(tt.poly)
			if tt.area == 0 {
				if got != nil {
					t.Errorf("r.Clip(%v) = %v, want nil", tt.poly, got)
				}
				return
			}
			if a := signedArea(got); math.Abs(a-tt.area) > 1e-12 {
				t.Errorf("area of r.Clip(%v) = %v, want %v", tt.poly, a, tt.area)
			}
		})
	}
}

// Helpers

func mustNew(t *testing.T, vertices []r2.Point) *Region {
	t.Helper()
	r, err := New(vertices)
	if err != nil {
		t.Fatalf("New(%v) error = %v, want nil", vertices, err)
	}
	return r
}

func mustSquare(t *testing.T, side float64) *Region {
	t.Helper()
	return mustNew(t, []r2.Point{{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side}})
}

// rotateToOrigin rotates the vertex list so that the vertex closest to the origin comes first.
func rotateToOrigin(verts []r2.Point) []r2.Point {
	best := 0
	for i, v := range verts {
		if v.Norm() < verts[best].Norm() {
			best = i
		}
	}
	return append(verts[best:], verts[:best]...)
}
