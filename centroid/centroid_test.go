// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package centroid

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/2dChan/cvtcoverage/cverrors"
)

func TestMassCentroid(t *testing.T) {
	tests := []struct {
		name     string
		poly     []r2.Point
		wantMass float64
		want     r2.Point
	}{
		{
			"unit square",
			[]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
			1, r2.Point{X: 0.5, Y: 0.5},
		},
		{
			"clockwise square",
			[]r2.Point{{X: 0, Y: 0}, {X: 0, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 0}},
			-4, r2.Point{X: 1, Y: 1},
		},
		{
			"right triangle",
			[]r2.Point{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 0, Y: 3}},
			4.5, r2.Point{X: 1, Y: 1},
		},
		{
			"far from origin",
			[]r2.Point{{X: 1e6, Y: 1e6}, {X: 1e6 + 2, Y: 1e6}, {X: 1e6 + 2, Y: 1e6 + 2}, {X: 1e6, Y: 1e6 + 2}},
			4, r2.Point{X: 1e6 + 1, Y: 1e6 + 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, c, err := MassCentroid(tt.poly)
			if err != nil {
				t.Fatalf("MassCentroid(%v) error = %v, want nil", tt.poly, err)
			}
			if math.Abs(m-tt.wantMass) > 1e-9 {
				t.Errorf("MassCentroid(%v) mass = %v, want %v", tt.poly, m, tt.wantMass)
			}
			if c.Sub(tt.want).Norm() > 1e-9 {
				t.Errorf("MassCentroid(%v) centroid = %v, want %v", tt.poly, c, tt.want)
			}
			if got := Mass(tt.poly); math.Abs(got-tt.wantMass) > 1e-6 {
				t.Errorf("Mass(%v) = %v, want %v", tt.poly, got, tt.wantMass)
			}
		})
	}
}

func TestMassCentroid_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		poly []r2.Point
	}{
		{"empty", nil},
		{"segment", []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}},
		{"collinear", []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Centroid(tt.poly)
			var target *cverrors.DegenerateCellError
			if !errors.As(err, &target) {
				t.Errorf("Centroid(%v) error = %v, want DegenerateCellError", tt.poly, err)
			}
		})
	}
}

func TestMassCentroid_MatchesPlanar(t *testing.T) {
	poly := []r2.Point{
		{X: 800, Y: 300}, {X: 363.806815, Y: 38.284089}, {X: 194.428556, Y: 164.098432},
		{X: 151.089060, Y: 451.089060}, {X: 300, Y: 600},
	}
	m, c, err := MassCentroid(poly)
	if err != nil {
		t.Fatalf("MassCentroid(...) error = %v, want nil", err)
	}

	ring := make(orb.Ring, 0, len(poly)+1)
	for _, p := range poly {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	ring = append(ring, ring[0])
	wantC, wantArea := planar.CentroidArea(orb.Polygon{ring})

	if math.Abs(math.Abs(m)-math.Abs(wantArea)) > 1e-6*math.Abs(wantArea) {
		t.Errorf("MassCentroid(...) |mass| = %v, want %v", math.Abs(m), math.Abs(wantArea))
	}
	if d := math.Hypot(c.X-wantC[0], c.Y-wantC[1]); d > 1e-6 {
		t.Errorf("MassCentroid(...) centroid = %v, want %v", c, wantC)
	}
}
