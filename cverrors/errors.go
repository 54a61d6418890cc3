// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package cverrors defines the failure taxonomy shared by the coverage control packages.
// Every error here is fatal for the iteration that produced it; callers are expected to
// match them with errors.As and stop.
package cverrors

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// InvalidRegionError reports a coverage region that cannot be turned into a convex
// polygon with half-plane constraints.
type InvalidRegionError struct {
	Reason string
}

func (e *InvalidRegionError) Error() string {
	return "region: invalid region: " + e.Reason
}

// DegenerateGeneratorError reports coincident generators. B is -1 when the error was
// found while checking a single pair whose second member has no index.
type DegenerateGeneratorError struct {
	A, B  int
	Point r2.Point
}

func (e *DegenerateGeneratorError) Error() string {
	return fmt.Sprintf("voronoi: generators %d and %d coincide at %v", e.A, e.B, e.Point)
}

// EmptyCellError reports a generator whose clipped cell has no area inside the region.
type EmptyCellError struct {
	GeneratorID int
}

func (e *EmptyCellError) Error() string {
	return fmt.Sprintf("voronoi: cell of generator %d is empty after clipping", e.GeneratorID)
}

// MalformedPartitionError reports two cells sharing more than two vertices.
type MalformedPartitionError struct {
	A, B   int
	Shared int
}

func (e *MalformedPartitionError) Error() string {
	return fmt.Sprintf("voronoi: cells %d and %d share %d vertices, want at most 2", e.A, e.B, e.Shared)
}

// DegenerateCellError reports a polygon with zero area.
type DegenerateCellError struct {
	NumVertices int
}

func (e *DegenerateCellError) Error() string {
	return fmt.Sprintf("centroid: degenerate cell with %d vertices has zero area", e.NumVertices)
}

// OutOfRegionError reports an agent whose generator violates a region constraint.
type OutOfRegionError struct {
	AgentID    int
	Constraint int
	Margin     float64
}

func (e *OutOfRegionError) Error() string {
	return fmt.Sprintf("lyapunov: agent %d violates constraint %d (margin %g)", e.AgentID, e.Constraint, e.Margin)
}

// UnavailableNeighborInfoError reports a neighbour whose sensitivity report for the
// current round is missing.
type UnavailableNeighborInfoError struct {
	Round      uint64
	ReceiverID int
	NeighborID int
}

func (e *UnavailableNeighborInfoError) Error() string {
	return fmt.Sprintf("exchange: round %d: no report from neighbor %d for agent %d",
		e.Round, e.NeighborID, e.ReceiverID)
}
