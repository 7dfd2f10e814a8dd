package kernel

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Orientation tells whether a patch's triangles keep their stored winding
// or must be flipped to face outward.
type Orientation int

const (
	Forward  Orientation = iota // stored winding faces outward
	Reversed                    // swap the second and third vertex of every triangle
)

func (o Orientation) String() string {
	switch o {
	case Forward:
		return "forward"
	case Reversed:
		return "reversed"
	default:
		return "unknown"
	}
}

// Patch is one triangulated piece of a shape's boundary.
type Patch interface {
	// Transform maps local node coordinates to global coordinates.
	Transform() sdf.M44
	// Orientation reports whether the winding must be flipped.
	Orientation() Orientation
	// TriangleCount returns the number of triangles in the patch.
	TriangleCount() int
	// Triangle returns the 1-based node indices of triangle t, where t
	// ranges over [0, TriangleCount()).
	Triangle(t int) (n1, n2, n3 int)
	// Node resolves a 1-based node index to a local point.
	Node(i int) v3.Vec
}

// Triangulation is the concrete Patch produced by kernels. Triangles hold
// 1-based indices into Nodes.
type Triangulation struct {
	Nodes     []v3.Vec
	Triangles [][3]int
	Location  sdf.M44
	Orient    Orientation
}

// Compile-time interface check.
var _ Patch = (*Triangulation)(nil)

// NewTriangulation returns a forward-oriented triangulation with an
// identity location.
func NewTriangulation(nodes []v3.Vec, triangles [][3]int) *Triangulation {
	return &Triangulation{
		Nodes:     nodes,
		Triangles: triangles,
		Location:  sdf.Identity3d(),
		Orient:    Forward,
	}
}

// Transform returns the local-to-global transform.
func (t *Triangulation) Transform() sdf.M44 { return t.Location }

// Orientation returns the winding flag.
func (t *Triangulation) Orientation() Orientation { return t.Orient }

// TriangleCount returns the number of triangles.
func (t *Triangulation) TriangleCount() int { return len(t.Triangles) }

// Triangle returns the 1-based node indices of triangle i.
func (t *Triangulation) Triangle(i int) (n1, n2, n3 int) {
	tri := t.Triangles[i]
	return tri[0], tri[1], tri[2]
}

// Node returns the local point for a 1-based node index.
func (t *Triangulation) Node(i int) v3.Vec { return t.Nodes[i-1] }

// IsEmpty returns true if the triangulation has no triangles.
func (t *Triangulation) IsEmpty() bool { return len(t.Triangles) == 0 }

// Placed returns a copy of t sharing its nodes and triangles, with the
// given location and orientation.
func (t *Triangulation) Placed(location sdf.M44, orient Orientation) *Triangulation {
	return &Triangulation{
		Nodes:     t.Nodes,
		Triangles: t.Triangles,
		Location:  location,
		Orient:    orient,
	}
}

// Shape is the full set of triangulated patches for one imported shape.
// It is immutable for the lifetime of the shape.
type Shape struct {
	Name    string
	Patches []Patch
}

// TriangleCount returns the total number of triangles over all patches.
func (s *Shape) TriangleCount() int {
	n := 0
	for _, p := range s.Patches {
		n += p.TriangleCount()
	}
	return n
}

// IsEmpty returns true if the shape has no triangles.
func (s *Shape) IsEmpty() bool {
	return s.TriangleCount() == 0
}
