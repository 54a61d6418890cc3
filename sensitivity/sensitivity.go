// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package sensitivity computes how the centroid of a bounded Voronoi cell moves when
// its own generator or the generator of an adjacent cell moves.
//
// Only edges shared with other cells contribute: region edges do not depend on any
// generator. Moving z_i makes a point q on the bisector with z_j move at rate
// (q - z_i)/|z_i - z_j| and moving z_j at rate (z_j - q)/|z_i - z_j|, so for each shared
// edge q(t) = v1 + t(v2 - v1), t in [0, 1],
//
//	dC_a/dz_k = (∫ q_a(t) r_k(t) L dt - C_a ∫ r_k(t) L dt) / m
//
// where r is the rate above and L = |v2 - v1|.
package sensitivity

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r2"
	pkgerrors "github.com/pkg/errors"
	"gonum.org/v1/gonum/integrate/quad"

	"github.com/2dChan/cvtcoverage"
	"github.com/2dChan/cvtcoverage/centroid"
	"github.com/2dChan/cvtcoverage/cverrors"
)

// Jacobian is a 2x2 derivative matrix: J[a][k] is the derivative of component a of a
// centroid with respect to component k of a generator.
type Jacobian [2][2]float64

// Add returns j + o.
func (j Jacobian) Add(o Jacobian) Jacobian {
	return Jacobian{
		{j[0][0] + o[0][0], j[0][1] + o[0][1]},
		{j[1][0] + o[1][0], j[1][1] + o[1][1]},
	}
}

// Transpose returns jᵀ.
func (j Jacobian) Transpose() Jacobian {
	return Jacobian{
		{j[0][0], j[1][0]},
		{j[0][1], j[1][1]},
	}
}

// MulVec returns j·v.
func (j Jacobian) MulVec(v r2.Point) r2.Point {
	return r2.Point{
		X: j[0][0]*v.X + j[0][1]*v.Y,
		Y: j[1][0]*v.X + j[1][1]*v.Y,
	}
}

// NeighborSensitivity is the derivative of a cell's centroid with respect to the
// generator of one adjacent cell.
type NeighborSensitivity struct {
	NeighborID int
	Generator  r2.Point
	// DCiDzj is dC_i/dz_j for the owning cell i and neighbour j.
	DCiDzj Jacobian
}

// Result holds the sensitivities of one cell.
type Result struct {
	OwnerID   int
	Generator r2.Point
	Mass      float64
	Centroid  r2.Point
	// Self is dC_i/dz_i, summed over all shared edges.
	Self      Jacobian
	Neighbors []NeighborSensitivity
}

const defaultQuadratureNodes = 4

type Options struct {
	// QuadratureNodes is the number of Gauss-Legendre nodes per edge integral.
	QuadratureNodes int
}

type Option func(*Options) error

// WithQuadratureNodes sets the number of Gauss-Legendre nodes. The integrands are
// quadratic in t, so any n >= 2 is exact up to rounding.
func WithQuadratureNodes(n int) Option {
	return func(o *Options) error {
		if n < 2 {
			return errors.New("WithQuadratureNodes: at least 2 nodes are required")
		}
		o.QuadratureNodes = n
		return nil
	}
}

// Engine evaluates edge integrals with a fixed quadrature rule. It is safe for
// concurrent use.
type Engine struct {
	nodes   []float64
	weights []float64
}

// New returns an Engine configured by setters.
func New(setters ...Option) (*Engine, error) {
	opts := Options{QuadratureNodes: defaultQuadratureNodes}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		nodes:   make([]float64, opts.QuadratureNodes),
		weights: make([]float64, opts.QuadratureNodes),
	}
	quad.Legendre{}.FixedLocations(e.nodes, e.weights, 0, 1)
	return e, nil
}

var defaultEngine, _ = New()

// EdgeJacobians returns the contributions of the edge (v1, v2) shared by cells i and j
// to dC_i/dz_i and dC_i/dz_j, using the default Engine.
func EdgeJacobians(zi, zj, ci r2.Point, mi float64, v1, v2 r2.Point) (self, cross Jacobian, err error) {
	return defaultEngine.EdgeJacobians(zi, zj, ci, mi, v1, v2)
}

// Compute returns the sensitivities of cell c using the default Engine.
func Compute(c cvtcoverage.Cell) (Result, error) {
	return defaultEngine.Compute(c)
}

// EdgeJacobians returns the contributions of the edge (v1, v2) shared by cells i and j
// to dC_i/dz_i and dC_i/dz_j. ci and mi are the centroid and mass of cell i.
func (e *Engine) EdgeJacobians(zi, zj, ci r2.Point, mi float64, v1, v2 r2.Point) (self, cross Jacobian, err error) {
	d := zi.Sub(zj).Norm()
	if d == 0 {
		return Jacobian{}, Jacobian{}, &cverrors.DegenerateGeneratorError{A: -1, B: -1, Point: zi}
	}
	if mi <= 0 {
		return Jacobian{}, Jacobian{}, &cverrors.DegenerateCellError{NumVertices: 2}
	}

	dir := v2.Sub(v1)
	l := dir.Norm()

	// Moments along the edge: ∫q, ∫q_a q_k.
	var (
		first  [2]float64
		second [2][2]float64
	)
	for n, t := range e.nodes {
		q := v1.Add(dir.Mul(t))
		w := e.weights[n] * l
		qv := [2]float64{q.X, q.Y}
		for a := range 2 {
			first[a] += w * qv[a]
			for k := range 2 {
				second[a][k] += w * qv[a] * qv[k]
			}
		}
	}

	c := [2]float64{ci.X, ci.Y}
	zik := [2]float64{zi.X, zi.Y}
	zjk := [2]float64{zj.X, zj.Y}
	for k := range 2 {
		// ∂m/∂z_k along this edge.
		dmSelf := (first[k] - zik[k]*l) / d
		dmCross := (zjk[k]*l - first[k]) / d
		for a := range 2 {
			intSelf := (second[a][k] - zik[k]*first[a]) / d
			intCross := (zjk[k]*first[a] - second[a][k]) / d
			self[a][k] = (intSelf - dmSelf*c[a]) / mi
			cross[a][k] = (intCross - dmCross*c[a]) / mi
		}
	}
	return self, cross, nil
}

// Compute returns the self Jacobian of cell c and one cross Jacobian per adjacent cell,
// in the order of c.Neighbors().
func (e *Engine) Compute(c cvtcoverage.Cell) (Result, error) {
	mass, cvt, err := centroid.MassCentroid(c.Polygon())
	if err != nil {
		return Result{}, pkgerrors.Wrapf(err, "sensitivity: cell %d", c.OwnerID())
	}

	res := Result{
		OwnerID:   c.OwnerID(),
		Generator: c.Generator(),
		Mass:      mass,
		Centroid:  cvt,
		Neighbors: make([]NeighborSensitivity, 0, c.NumNeighbors()),
	}
	for i, edge := range c.Neighbors() {
		nc, err := c.Neighbor(i)
		if err != nil {
			return Result{}, err
		}
		zj := nc.Generator()
		self, cross, err := e.EdgeJacobians(res.Generator, zj, cvt, mass, edge.Vertex1, edge.Vertex2)
		if err != nil {
			var dg *cverrors.DegenerateGeneratorError
			if errors.As(err, &dg) {
				return Result{}, &cverrors.DegenerateGeneratorError{A: res.OwnerID, B: edge.NeighborID, Point: zj}
			}
			return Result{}, fmt.Errorf("sensitivity: cell %d edge with %d: %w", res.OwnerID, edge.NeighborID, err)
		}
		res.Self = res.Self.Add(self)
		res.Neighbors = append(res.Neighbors, NeighborSensitivity{
			NeighborID: edge.NeighborID,
			Generator:  zj,
			DCiDzj:     cross,
		})
	}
	return res, nil
}
