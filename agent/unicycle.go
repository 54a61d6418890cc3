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

// Unicycle moves at constant speed v and orbits its virtual mass at the nominal rate
// w0. The controller only changes the angular rate.
type Unicycle struct {
	id      int
	pose    Pose
	v       float64
	w0      float64
	maxRate float64
	w       float64
}

var _ Agent = (*Unicycle)(nil)

type UnicycleOption func(*Unicycle) error

// WithMaxRate sets the hard limit of the angular rate.
func WithMaxRate(limit float64) UnicycleOption {
	return func(u *Unicycle) error {
		if limit <= 0 {
			return errors.New("WithMaxRate: limit must be positive")
		}
		u.maxRate = limit
		return nil
	}
}

// NewUnicycle returns a unicycle at pose with speed v and orbit rate w0.
func NewUnicycle(id int, pose Pose, v, w0 float64, setters ...UnicycleOption) (*Unicycle, error) {
	if v <= 0 {
		return nil, fmt.Errorf("NewUnicycle: speed %g must be positive", v)
	}
	if w0 == 0 {
		return nil, errors.New("NewUnicycle: orbit rate must be non-zero")
	}
	u := &Unicycle{id: id, pose: pose, v: v, w0: w0, w: w0}
	for _, set := range setters {
		if err := set(u); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (u *Unicycle) ID() int {
	return u.id
}

func (u *Unicycle) Pose() Pose {
	return u.pose
}

// Rate returns the last angular-rate command.
func (u *Unicycle) Rate() float64 {
	return u.w
}

// Radius returns the orbit radius v/w0.
func (u *Unicycle) Radius() float64 {
	return u.v / u.w0
}

// Generator returns the virtual mass: the centre of the circle the unicycle follows at
// the nominal rate, v/w0 to the left of the heading. The orbit is counter-clockwise for
// w0 > 0 and clockwise, with the centre on the right, for w0 < 0.
func (u *Unicycle) Generator() r2.Point {
	left := r2.Point{X: -math.Sin(u.pose.Theta), Y: math.Cos(u.pose.Theta)}
	return u.pose.Point().Add(left.Mul(u.Radius()))
}

// Control sets the angular rate from the gradient and returns it.
func (u *Unicycle) Control(grad r2.Point, p lyapunov.Params) float64 {
	w := lyapunov.Control(u.w0, u.pose.Theta, grad, p.Gamma, p.Eps)
	u.w = lyapunov.Saturate(w, u.maxRate)
	return u.w
}

// Move applies one explicit Euler step.
func (u *Unicycle) Move(dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("Move: dt %g must be positive", dt)
	}
	u.pose.X += dt * u.v * math.Cos(u.pose.Theta)
	u.pose.Y += dt * u.v * math.Sin(u.pose.Theta)
	u.pose.Theta = math.Remainder(u.pose.Theta+dt*u.w, 2*math.Pi)
	return nil
}
