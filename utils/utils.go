// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package utils provides helpers for generating planar generator sets.

package utils

import (
	"math/rand"

	"github.com/golang/geo/r2"
)

// Container reports whether a point lies in some planar set.
type Container interface {
	Contains(p r2.Point) bool
}

// GenerateRandomPoints generates cnt points uniformly distributed in bound.
// The seed parameter ensures reproducibility.
func GenerateRandomPoints(cnt int, seed int64, bound r2.Rect) []r2.Point {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	points := make([]r2.Point, cnt)

	for i := range cnt {
		points[i] = randomInRect(random, bound)
	}

	return points
}

// GenerateRandomPointsIn generates cnt points uniformly distributed in the part of bound
// accepted by c, by rejection sampling. It gives up after maxTries draws per point and
// returns the points found so far.
func GenerateRandomPointsIn(cnt int, seed int64, bound r2.Rect, c Container) []r2.Point {
	const maxTries = 1000

	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	points := make([]r2.Point, 0, cnt)

	for range cnt {
		for try := 0; try < maxTries; try++ {
			p := randomInRect(random, bound)
			if c.Contains(p) {
				points = append(points, p)
				break
			}
		}
	}

	return points
}

func randomInRect(random *rand.Rand, bound r2.Rect) r2.Point {
	return r2.Point{
		X: bound.X.Lo + random.Float64()*bound.X.Length(),
		Y: bound.Y.Lo + random.Float64()*bound.Y.Length(),
	}
}
