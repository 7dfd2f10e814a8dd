// Package weld merges coincident vertices of independently triangulated
// surface patches into one indexed triangle mesh with shared vertices.
//
// Two modes are available. Lattice mode (the default) quantizes every
// coordinate by a fixed scale and merges points whose lattice coordinates
// are identical; points closer than the quantization step that straddle a
// cell boundary are not merged. Radius mode merges a point into the
// nearest already-emitted vertex within a Euclidean radius.
package weld

import (
	"math"

	"github.com/chazu/brepweld/pkg/kernel"
	"github.com/chazu/brepweld/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultScale is the lattice scale factor. With meter-scale geometry it
// gives a merge step of one micron.
const DefaultScale = 1e6

// Options controls vertex matching.
type Options struct {
	// Scale multiplies coordinates before rounding to lattice keys.
	// Zero means DefaultScale.
	Scale float64
	// Radius, when positive, selects radius mode: a point reuses the
	// nearest existing vertex within Radius.
	Radius float64
}

// DefaultOptions returns lattice mode with DefaultScale.
func DefaultOptions() Options {
	return Options{Scale: DefaultScale}
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return DefaultScale
	}
	return o.Scale
}

// vertexIndex assigns vertex indices to points, reusing an index when the
// point matches a vertex seen earlier.
type vertexIndex interface {
	lookup(p v3.Vec) (int, bool)
	insert(p v3.Vec, index int)
}

// latticeKey is a point's quantized coordinate triple.
type latticeKey struct {
	x, y, z int64
}

func keyOf(p v3.Vec, scale float64) latticeKey {
	return latticeKey{
		x: int64(math.Round(p.X * scale)),
		y: int64(math.Round(p.Y * scale)),
		z: int64(math.Round(p.Z * scale)),
	}
}

// latticeIndex matches points by exact lattice key equality.
type latticeIndex struct {
	scale float64
	ids   map[latticeKey]int
}

func newLatticeIndex(scale float64, sizeHint int) *latticeIndex {
	return &latticeIndex{scale: scale, ids: make(map[latticeKey]int, sizeHint)}
}

func (l *latticeIndex) lookup(p v3.Vec) (int, bool) {
	id, ok := l.ids[keyOf(p, l.scale)]
	return id, ok
}

func (l *latticeIndex) insert(p v3.Vec, index int) {
	l.ids[keyOf(p, l.scale)] = index
}

// Weld transforms every patch's triangles into global coordinates, flips
// the winding of reversed patches, and emits one triangle per input
// triangle over a deduplicated vertex sequence. Vertices appear in first-seen
// order. An empty patch set yields an empty mesh.
func Weld(patches []kernel.Patch, opts Options) *mesh.TriMesh {
	total := 0
	for _, p := range patches {
		total += p.TriangleCount()
	}

	var idx vertexIndex
	if opts.Radius > 0 {
		idx = newRadiusIndex(opts.Radius)
	} else {
		idx = newLatticeIndex(opts.scale(), total)
	}

	m := &mesh.TriMesh{
		Vertices: make([]v3.Vec, 0, total),
		Indices:  make([]int, 0, total*3),
	}

	for _, p := range patches {
		trsf := p.Transform()
		reversed := p.Orientation() == kernel.Reversed

		for t := 0; t < p.TriangleCount(); t++ {
			n1, n2, n3 := p.Triangle(t)
			if reversed {
				n2, n3 = n3, n2
			}

			pts := [3]v3.Vec{
				trsf.MulPosition(p.Node(n1)),
				trsf.MulPosition(p.Node(n2)),
				trsf.MulPosition(p.Node(n3)),
			}
			for _, pt := range pts {
				id, ok := idx.lookup(pt)
				if !ok {
					id = len(m.Vertices)
					m.Vertices = append(m.Vertices, pt)
					idx.insert(pt, id)
				}
				m.Indices = append(m.Indices, id)
			}
		}
	}

	return m
}

// WeldShape welds all patches of a shape.
func WeldShape(s *kernel.Shape, opts Options) *mesh.TriMesh {
	if s == nil {
		return &mesh.TriMesh{}
	}
	return Weld(s.Patches, opts)
}
