// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package cvtcoverage

import (
	"fmt"
	"slices"

	"github.com/golang/geo/r2"
)

// Cell represents a clipped Voronoi cell. It is a view structure for accessing a cell in
// a Partition; the cell's index is the index of its generator.
type Cell struct {
	idx int
	p   *Partition
}

// OwnerID returns the index of the generator owning the cell.
func (c Cell) OwnerID() int {
	return c.idx
}

// Generator returns the generator point of the cell.
func (c Cell) Generator() r2.Point {
	return c.p.Generators[c.idx]
}

// NumVertices returns the number of vertices of the cell polygon.
func (c Cell) NumVertices() int {
	return c.p.CellOffsets[c.idx+1] - c.p.CellOffsets[c.idx]
}

// VertexIndices returns the indices of the cell vertices in the Partition's Vertices,
// sorted in counter-clockwise order.
func (c Cell) VertexIndices() []int {
	return c.p.CellVertices[c.p.CellOffsets[c.idx]:c.p.CellOffsets[c.idx+1]]
}

// Vertex returns the vertex at the specified index.
// It returns an error if the index is out of range.
func (c Cell) Vertex(i int) (r2.Point, error) {
	start := c.p.CellOffsets[c.idx]
	end := c.p.CellOffsets[c.idx+1]
	if i < 0 || i >= end-start {
		return r2.Point{}, fmt.Errorf("Vertex: index %d out of range [0 %d)", i, end-start)
	}
	return c.p.Vertices[c.p.CellVertices[start+i]], nil
}

// Polygon returns a copy of the cell polygon in counter-clockwise order.
func (c Cell) Polygon() []r2.Point {
	indices := c.VertexIndices()
	poly := make([]r2.Point, len(indices))
	for i, idx := range indices {
		poly[i] = c.p.Vertices[idx]
	}
	return poly
}

// NumNeighbors returns the number of adjacent cells.
func (c Cell) NumNeighbors() int {
	return len(c.p.neighbors[c.idx])
}

// Neighbors returns a copy of the edges shared with adjacent cells, ordered by
// neighbour id.
func (c Cell) Neighbors() []NeighborEdge {
	return slices.Clone(c.p.neighbors[c.idx])
}

// NeighborIndices returns the generator indices of the adjacent cells.
func (c Cell) NeighborIndices() []int {
	edges := c.p.neighbors[c.idx]
	ids := make([]int, len(edges))
	for i, e := range edges {
		ids[i] = e.NeighborID
	}
	return ids
}

// Neighbor returns the adjacent cell at the specified index.
// It returns an error if the index is out of range.
func (c Cell) Neighbor(i int) (Cell, error) {
	edges := c.p.neighbors[c.idx]
	if i < 0 || i >= len(edges) {
		return Cell{}, fmt.Errorf("Neighbor: index %d out of range [0 %d)", i, len(edges))
	}
	return c.p.Cell(edges[i].NeighborID)
}
