// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package agent implements the kinematic models driven by the coverage controller.
package agent

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/2dChan/cvtcoverage/lyapunov"
)

// Pose is a planar position and heading.
type Pose struct {
	X, Y  float64
	Theta float64
}

// Point returns the position of the pose.
func (p Pose) Point() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// Heading returns the unit vector of the heading.
func (p Pose) Heading() r2.Point {
	return r2.Point{X: math.Cos(p.Theta), Y: math.Sin(p.Theta)}
}

type HasPose interface {
	ID() int
	Pose() Pose
}

type HasVoronoiGenerator interface {
	// Generator returns the point seeding the agent's Voronoi cell.
	Generator() r2.Point
}

type Controllable interface {
	// Control turns the aggregated cost gradient into the next command and returns its
	// scalar value.
	Control(grad r2.Point, p lyapunov.Params) float64
	// Move integrates the kinematics over dt with the last command.
	Move(dt float64) error
}

// Agent is the set of capabilities the orchestrator needs.
type Agent interface {
	HasPose
	HasVoronoiGenerator
	Controllable
}
