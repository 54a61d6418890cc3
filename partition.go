// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package cvtcoverage implements bounded planar Voronoi partitions used for distributed
// coverage control, built on a Delaunay triangulation and clipped to a convex region.
package cvtcoverage

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/golang/geo/r2"
	pkgerrors "github.com/pkg/errors"

	"github.com/2dChan/cvtcoverage/centroid"
	"github.com/2dChan/cvtcoverage/cverrors"
	"github.com/2dChan/cvtcoverage/r2delaunay"
	"github.com/2dChan/cvtcoverage/region"
)

// NeighborEdge is the boundary segment shared by two adjacent cells.
type NeighborEdge struct {
	NeighborID int
	// Indices of the shared vertices in Partition.Vertices.
	V1, V2 int
	// Vertex1 and Vertex2 follow the counter-clockwise order of the owning cell.
	Vertex1, Vertex2 r2.Point
}

// Partition is the Voronoi tessellation of a region by a set of generators.
type Partition struct {
	Generators []r2.Point
	Region     *region.Region
	// Vertices holds the deduplicated vertices of all cells.
	Vertices []r2.Point

	// NOTE: Sorted counter-clockwise per cell.
	CellVertices []int
	CellOffsets  []int

	neighbors [][]NeighborEdge
	opts      PartitionOptions
}

// NewPartition computes the bounded Voronoi partition of reg by generators. Generators
// must be distinct. The generator slice is copied.
func NewPartition(generators []r2.Point, reg *region.Region, setters ...PartitionOption) (*Partition, error) {
	opts := defaultPartitionOptions()
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	if reg == nil {
		return nil, errors.New("voronoi: nil region")
	}

	p := &Partition{
		Generators: slices.Clone(generators),
		Region:     reg,
		opts:       opts,
	}
	if err := p.compute(); err != nil {
		return nil, err
	}
	return p, nil
}

// NumCells returns the number of cells, one per generator.
func (p *Partition) NumCells() int {
	return len(p.Generators)
}

// Cell returns a view of the cell owned by generator i.
func (p *Partition) Cell(i int) (Cell, error) {
	if i < 0 || i >= len(p.Generators) {
		return Cell{}, fmt.Errorf("Cell: index %d out of range [0 %d)", i, len(p.Generators))
	}
	return Cell{idx: i, p: p}, nil
}

// Neighbors returns a copy of the edges that cell i shares with adjacent cells.
func (p *Partition) Neighbors(i int) ([]NeighborEdge, error) {
	c, err := p.Cell(i)
	if err != nil {
		return nil, err
	}
	return c.Neighbors(), nil
}

// Adjacent reports whether the cells of generators i and j share an edge.
func (p *Partition) Adjacent(i, j int) bool {
	if i < 0 || i >= len(p.neighbors) {
		return false
	}
	for _, e := range p.neighbors[i] {
		if e.NeighborID == j {
			return true
		}
	}
	return false
}

// Relax runs steps of Lloyd's algorithm: every generator is moved to the centroid of
// its cell and the partition is recomputed. The partition must not be used after an error.
func (p *Partition) Relax(steps int) error {
	if steps < 0 {
		return fmt.Errorf("Relax: steps %d must be non-negative", steps)
	}
	for range steps {
		next := make([]r2.Point, len(p.Generators))
		for i := range p.Generators {
			c, err := centroid.Centroid(Cell{idx: i, p: p}.Polygon())
			if err != nil {
				return pkgerrors.Wrapf(err, "relax cell %d", i)
			}
			next[i] = c
		}
		p.Generators = next
		if err := p.compute(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Partition) compute() error {
	n := len(p.Generators)
	if n == 0 {
		return errors.New("voronoi: at least one generator is required")
	}
	seen := make(map[r2.Point]int, n)
	for i, g := range p.Generators {
		if j, ok := seen[g]; ok {
			return &cverrors.DegenerateGeneratorError{A: j, B: i, Point: g}
		}
		seen[g] = i
	}

	sites := append(slices.Clone(p.Generators), p.farPoints()...)
	dt, err := r2delaunay.NewTriangulation(sites, r2delaunay.WithEps(p.opts.Eps))
	if err != nil {
		return pkgerrors.Wrap(err, "voronoi: triangulate generators")
	}

	circumcenters := make([]r2.Point, len(dt.Triangles))
	for i := range dt.Triangles {
		circumcenters[i], _ = dt.Circumcenter(i)
	}

	scale := math.Max(1, p.Region.Diameter())
	mergeTol := p.opts.MergeEps * scale
	snapTol := math.Max(p.opts.BoundarySlack, mergeTol)
	corners := p.Region.Vertices()

	d := newDeduplicator(mergeTol)
	p.CellOffsets = make([]int, n+1)
	p.CellVertices = p.CellVertices[:0]
	for i := range n {
		incident, _ := dt.IncidentTriangles(i)
		cell := make([]r2.Point, 0, len(incident))
		for _, tIdx := range incident {
			cell = append(cell, circumcenters[tIdx])
		}
		if centroid.Mass(cell) < 0 {
			slices.Reverse(cell)
		}

		clipped := p.Region.Clip(cell)
		if len(clipped) < 3 {
			return &cverrors.EmptyCellError{GeneratorID: i}
		}

		indices := make([]int, 0, len(clipped))
		for _, v := range clipped {
			v = snapToCorner(v, corners, snapTol)
			idx := d.index(v)
			if len(indices) > 0 && indices[len(indices)-1] == idx {
				continue
			}
			indices = append(indices, idx)
		}
		for len(indices) > 1 && indices[0] == indices[len(indices)-1] {
			indices = indices[:len(indices)-1]
		}
		if len(indices) < 3 {
			return &cverrors.EmptyCellError{GeneratorID: i}
		}

		p.CellVertices = append(p.CellVertices, indices...)
		p.CellOffsets[i+1] = len(p.CellVertices)
	}
	p.Vertices = d.vertices

	for i := range n {
		if centroid.Mass(Cell{idx: i, p: p}.Polygon()) <= 0 {
			return &cverrors.EmptyCellError{GeneratorID: i}
		}
	}

	return p.computeAdjacency()
}

// farPoints returns four sites surrounding both the generators and the region so that
// every real cell is bounded and covers its share of the region.
func (p *Partition) farPoints() []r2.Point {
	bound := r2.RectFromPoints(p.Generators...).Union(p.Region.Bound())
	diag := bound.Size().Norm()
	if diag == 0 {
		diag = 1
	}
	c := bound.Center()
	r := p.opts.FarPointFactor * diag
	return []r2.Point{
		{X: c.X - r, Y: c.Y - r},
		{X: c.X + r, Y: c.Y - r},
		{X: c.X + r, Y: c.Y + r},
		{X: c.X - r, Y: c.Y + r},
	}
}

// computeAdjacency links cells sharing exactly two vertex indices.
func (p *Partition) computeAdjacency() error {
	n := len(p.Generators)
	owners := make([][]int, len(p.Vertices))
	for i := range n {
		for _, v := range p.CellVertices[p.CellOffsets[i]:p.CellOffsets[i+1]] {
			owners[v] = append(owners[v], i)
		}
	}

	type pair struct{ a, b int }
	shared := make(map[pair][]int)
	for v, cells := range owners {
		for x := 0; x < len(cells); x++ {
			for y := x + 1; y < len(cells); y++ {
				if cells[x] == cells[y] {
					continue
				}
				k := pair{cells[x], cells[y]}
				shared[k] = append(shared[k], v)
			}
		}
	}

	p.neighbors = make([][]NeighborEdge, n)
	keys := make([]pair, 0, len(shared))
	for k := range shared {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y pair) int {
		if x.a != y.a {
			return x.a - y.a
		}
		return x.b - y.b
	})
	for _, k := range keys {
		vs := shared[k]
		switch {
		case len(vs) > 2:
			return &cverrors.MalformedPartitionError{A: k.a, B: k.b, Shared: len(vs)}
		case len(vs) < 2:
			continue
		}
		p.neighbors[k.a] = append(p.neighbors[k.a], p.edge(k.a, k.b, vs[0], vs[1]))
		p.neighbors[k.b] = append(p.neighbors[k.b], p.edge(k.b, k.a, vs[0], vs[1]))
	}
	return nil
}

// edge orients the shared vertex pair along the counter-clockwise order of cell owner.
func (p *Partition) edge(owner, neighbor, v1, v2 int) NeighborEdge {
	verts := p.CellVertices[p.CellOffsets[owner]:p.CellOffsets[owner+1]]
	n := len(verts)
	i1 := slices.Index(verts, v1)
	if verts[(i1+1)%n] != v2 {
		v1, v2 = v2, v1
	}
	return NeighborEdge{
		NeighborID: neighbor,
		V1:         v1,
		V2:         v2,
		Vertex1:    p.Vertices[v1],
		Vertex2:    p.Vertices[v2],
	}
}

func snapToCorner(v r2.Point, corners []r2.Point, tol float64) r2.Point {
	for _, c := range corners {
		if v.Sub(c).Norm() <= tol {
			return c
		}
	}
	return v
}
