// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package orchestrator

import (
	"time"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/samber/lo"

	"github.com/2dChan/cvtcoverage/agent"
)

// Snapshot is a read-only record of one completed iteration, taken before the agents
// moved.
type Snapshot struct {
	Iteration uint64
	Time      time.Time

	Poses      []agent.Pose
	Generators []r2.Point
	Centroids  []r2.Point
	V          []float64
	Gradients  []r2.Point
	Commands   []float64
	Cells      [][]r2.Point
	Neighbors  [][]int
}

// MaxV returns the largest cost of the iteration.
func (s Snapshot) MaxV() float64 {
	return lo.Max(s.V)
}

// MeanGradientNorm returns the mean length of the aggregated gradients.
func (s Snapshot) MeanGradientNorm() float64 {
	if len(s.Gradients) == 0 {
		return 0
	}
	return lo.SumBy(s.Gradients, func(g r2.Point) float64 { return g.Norm() }) / float64(len(s.Gradients))
}

// FeatureCollection returns the cells as polygons and the agents, generators and
// centroids as points. Every feature carries the agent id and a kind property.
func (s Snapshot) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, cell := range s.Cells {
		ring := make(orb.Ring, 0, len(cell)+1)
		for _, v := range cell {
			ring = append(ring, toOrb(v))
		}
		if len(cell) > 0 {
			ring = append(ring, toOrb(cell[0]))
		}
		f := geojson.NewFeature(orb.Polygon{ring})
		f.Properties["kind"] = "cell"
		f.Properties["id"] = i
		f.Properties["neighbors"] = s.Neighbors[i]
		f.Properties["V"] = s.V[i]
		f.Properties["command"] = s.Commands[i]
		fc.Append(f)
	}
	for i := range s.Generators {
		fc.Append(pointFeature("pose", i, toOrb(s.Poses[i].Point())))
		fc.Append(pointFeature("generator", i, toOrb(s.Generators[i])))
		fc.Append(pointFeature("centroid", i, toOrb(s.Centroids[i])))
	}
	return fc
}

// GeoJSON encodes FeatureCollection.
func (s Snapshot) GeoJSON() ([]byte, error) {
	return s.FeatureCollection().MarshalJSON()
}

func pointFeature(kind string, id int, p orb.Point) *geojson.Feature {
	f := geojson.NewFeature(p)
	f.Properties["kind"] = kind
	f.Properties["id"] = id
	return f
}

func toOrb(p r2.Point) orb.Point {
	return orb.Point{p.X, p.Y}
}
