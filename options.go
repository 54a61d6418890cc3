// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package cvtcoverage

import (
	"errors"
)

const (
	defaultEps            = 1e-12
	defaultMergeEps       = 1e-10
	defaultFarPointFactor = 5
)

// PartitionOptions tunes the bounded Voronoi computation.
type PartitionOptions struct {
	// Eps is the relative tolerance of the Delaunay hull.
	Eps float64
	// MergeEps is the vertex merge tolerance, relative to the region diameter.
	MergeEps float64
	// BoundarySlack is an absolute distance under which clipped vertices are snapped
	// onto region corners. Zero means the merge tolerance is used.
	BoundarySlack float64
	// FarPointFactor places the four auxiliary sites at this multiple of the bounding
	// box diagonal from its centre.
	FarPointFactor float64
}

func defaultPartitionOptions() PartitionOptions {
	return PartitionOptions{
		Eps:            defaultEps,
		MergeEps:       defaultMergeEps,
		FarPointFactor: defaultFarPointFactor,
	}
}

type PartitionOption func(*PartitionOptions) error

// WithEps sets the relative tolerance of the underlying Delaunay triangulation.
func WithEps(eps float64) PartitionOption {
	return func(o *PartitionOptions) error {
		if eps <= 0 {
			return errors.New("WithEps: eps must be positive")
		}
		o.Eps = eps
		return nil
	}
}

// WithMergeEps sets the relative tolerance used to merge numerically distinct vertices.
func WithMergeEps(eps float64) PartitionOption {
	return func(o *PartitionOptions) error {
		if eps <= 0 {
			return errors.New("WithMergeEps: eps must be positive")
		}
		o.MergeEps = eps
		return nil
	}
}

// WithBoundarySlack sets the absolute snapping distance to region corners.
func WithBoundarySlack(slack float64) PartitionOption {
	return func(o *PartitionOptions) error {
		if slack < 0 {
			return errors.New("WithBoundarySlack: slack must be non-negative")
		}
		o.BoundarySlack = slack
		return nil
	}
}

// WithFarPointFactor sets the distance factor of the auxiliary sites. It must be at
// least 5 so that every real cell is bounded inside the region.
func WithFarPointFactor(f float64) PartitionOption {
	return func(o *PartitionOptions) error {
		if f < defaultFarPointFactor {
			return errors.New("WithFarPointFactor: factor must be at least 5")
		}
		o.FarPointFactor = f
		return nil
	}
}
