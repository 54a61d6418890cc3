// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package lyapunov evaluates the barrier Lyapunov cost of an agent and the control law
// built on its gradient.
//
// For an agent with generator z, cell centroid C and region constraints h_j(z) = c_j - a_j·z,
//
//	V = Σ_j (z - C)ᵀ Q (z - C) / (2 h_j(z))
//
// which diverges as z approaches any constraint.
package lyapunov

import (
	"errors"
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	"github.com/2dChan/cvtcoverage/cverrors"
	"github.com/2dChan/cvtcoverage/region"
	"github.com/2dChan/cvtcoverage/sensitivity"
)

var (
	ErrAsymmetricWeight = errors.New("lyapunov: Q must be symmetric")

	ErrIndefiniteWeight = errors.New("lyapunov: Q must be positive definite")

	ErrNegativeCost = errors.New("lyapunov: cost is negative")
)

// Params are the tuning constants of the cost and the control law.
type Params struct {
	// Q weights the distance between a generator and its centroid.
	Q [2][2]float64
	// Gamma scales the angular-rate correction relative to the orbit rate.
	Gamma float64
	// Eps softens the sigmoid of the correction.
	Eps float64
}

// Validate checks that Q is symmetric positive definite and the gains are usable.
func (p Params) Validate() error {
	if p.Q[0][1] != p.Q[1][0] {
		return ErrAsymmetricWeight
	}
	var chol mat.Cholesky
	if !chol.Factorize(mat.NewSymDense(2, []float64{p.Q[0][0], p.Q[0][1], p.Q[1][0], p.Q[1][1]})) {
		return ErrIndefiniteWeight
	}
	if p.Gamma < 0 {
		return errors.New("lyapunov: gamma must be non-negative")
	}
	if p.Eps < 0 {
		return errors.New("lyapunov: eps must be non-negative")
	}
	return nil
}

// Evaluation is the cost of one agent and its own gradient.
type Evaluation struct {
	V float64
	// Grad is dV/dz through the agent's own cell only.
	Grad r2.Point
	// Margins holds h_j(z) per constraint.
	Margins []float64
}

// Evaluate returns V and dV/dz for the agent agentID with generator z, centroid c and
// self Jacobian dC/dz. It fails with OutOfRegionError when z is on or outside any
// constraint.
func Evaluate(agentID int, z, c r2.Point, self sensitivity.Jacobian, constraints []region.HalfPlane, q [2][2]float64) (Evaluation, error) {
	margins, sumInvH, err := barrier(agentID, z, constraints)
	if err != nil {
		return Evaluation{}, err
	}

	diff := z.Sub(c)
	qDiff := mulVec(q, diff)
	e := diff.Dot(qDiff)
	v := e * sumInvH / 2
	if v < 0 {
		return Evaluation{}, ErrNegativeCost
	}

	var sumA r2.Point
	for j, hp := range constraints {
		sumA = sumA.Add(hp.A.Mul(1 / (2 * margins[j] * margins[j])))
	}

	// (I - dC/dzᵀ) Q (z - C) Σ 1/h_j
	drift := qDiff.Sub(self.Transpose().MulVec(qDiff)).Mul(sumInvH)
	return Evaluation{
		V:       v,
		Grad:    drift.Add(sumA.Mul(e)),
		Margins: margins,
	}, nil
}

// NeighborContribution returns dV_m/dz_k for a neighbour m with generator zm and
// centroid cm, where dCmDzk is the derivative of m's centroid with respect to z_k:
//
//	-(dC_m/dz_k)ᵀ Q (z_m - C_m) Σ_j 1/h_j(z_m)
func NeighborContribution(neighborID int, zm, cm r2.Point, dCmDzk sensitivity.Jacobian, constraints []region.HalfPlane, q [2][2]float64) (r2.Point, error) {
	_, sumInvH, err := barrier(neighborID, zm, constraints)
	if err != nil {
		return r2.Point{}, err
	}
	qDiff := mulVec(q, zm.Sub(cm))
	return dCmDzk.Transpose().MulVec(qDiff).Mul(-sumInvH), nil
}

// Aggregate returns the total gradient used by the controller.
func Aggregate(self r2.Point, neighbors ...r2.Point) r2.Point {
	for _, n := range neighbors {
		self = self.Add(n)
	}
	return self
}

// Sigmoid returns x/(|x|+eps), which lies in (-1, 1) for eps > 0.
func Sigmoid(x, eps float64) float64 {
	if x == 0 {
		return 0
	}
	return x / (math.Abs(x) + eps)
}

// Control returns the angular rate w0 + gamma·w0·Sigmoid(grad·[cos θ, sin θ], eps).
func Control(w0, theta float64, grad r2.Point, gamma, eps float64) float64 {
	heading := r2.Point{X: math.Cos(theta), Y: math.Sin(theta)}
	return w0 + gamma*w0*Sigmoid(grad.Dot(heading), eps)
}

// Saturate clamps w to [-limit, limit]. A non-positive limit leaves w unchanged.
func Saturate(w, limit float64) float64 {
	if limit <= 0 {
		return w
	}
	return math.Max(-limit, math.Min(limit, w))
}

func barrier(agentID int, z r2.Point, constraints []region.HalfPlane) ([]float64, float64, error) {
	margins := make([]float64, len(constraints))
	var sumInvH float64
	for j, hp := range constraints {
		h := hp.Margin(z)
		if h <= 0 {
			return nil, 0, &cverrors.OutOfRegionError{AgentID: agentID, Constraint: j, Margin: h}
		}
		margins[j] = h
		sumInvH += 1 / h
	}
	return margins, sumInvH, nil
}

func mulVec(m [2][2]float64, v r2.Point) r2.Point {
	return r2.Point{
		X: m[0][0]*v.X + m[0][1]*v.Y,
		Y: m[1][0]*v.X + m[1][1]*v.Y,
	}
}
