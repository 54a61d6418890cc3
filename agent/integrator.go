// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package agent

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/2dChan/cvtcoverage/lyapunov"
)

const defaultGain = 1

// SingleIntegrator is a point that moves with the commanded velocity. Its position is
// its own generator.
type SingleIntegrator struct {
	id       int
	pos      r2.Point
	gain     float64
	maxSpeed float64
	u        r2.Point
	heading  float64
}

var _ Agent = (*SingleIntegrator)(nil)

type SingleIntegratorOption func(*SingleIntegrator) error

// WithGain sets k in u = -k·dV.
func WithGain(k float64) SingleIntegratorOption {
	return func(s *SingleIntegrator) error {
		if k <= 0 {
			return errors.New("WithGain: gain must be positive")
		}
		s.gain = k
		return nil
	}
}

// WithMaxSpeed sets the hard limit of the commanded speed.
func WithMaxSpeed(limit float64) SingleIntegratorOption {
	return func(s *SingleIntegrator) error {
		if limit <= 0 {
			return errors.New("WithMaxSpeed: limit must be positive")
		}
		s.maxSpeed = limit
		return nil
	}
}

// NewSingleIntegrator returns a single-integrator agent at pos.
func NewSingleIntegrator(id int, pos r2.Point, setters ...SingleIntegratorOption) (*SingleIntegrator, error) {
	s := &SingleIntegrator{id: id, pos: pos, gain: defaultGain}
	for _, set := range setters {
		if err := set(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *SingleIntegrator) ID() int {
	return s.id
}

// Pose returns the position and the direction of the last non-zero command.
func (s *SingleIntegrator) Pose() Pose {
	return Pose{X: s.pos.X, Y: s.pos.Y, Theta: s.heading}
}

func (s *SingleIntegrator) Generator() r2.Point {
	return s.pos
}

// Velocity returns the last command.
func (s *SingleIntegrator) Velocity() r2.Point {
	return s.u
}

// Control sets the velocity to -k·grad, saturated at the speed limit, and returns the
// speed.
func (s *SingleIntegrator) Control(grad r2.Point, _ lyapunov.Params) float64 {
	u := grad.Mul(-s.gain)
	if speed := u.Norm(); s.maxSpeed > 0 && speed > s.maxSpeed {
		u = u.Mul(s.maxSpeed / speed)
	}
	s.u = u
	if u != (r2.Point{}) {
		s.heading = math.Atan2(u.Y, u.X)
	}
	return u.Norm()
}

// Move applies one explicit Euler step.
func (s *SingleIntegrator) Move(dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("Move: dt %g must be positive", dt)
	}
	s.pos = s.pos.Add(s.u.Mul(dt))
	return nil
}
