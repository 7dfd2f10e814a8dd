// Package mesh defines the consolidated polygon meshes produced from a
// triangulated boundary surface: an indexed triangle mesh with shared
// vertices, and a mixed quad/triangle mesh derived from it.
package mesh

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// TriMesh is an indexed triangle mesh. Indices holds one triple of
// zero-based vertex indices per triangle.
type TriMesh struct {
	Vertices []v3.Vec `json:"vertices"`
	Indices  []int    `json:"indices"` // [i0,i1,i2, ...] triangles
}

// VertexCount returns the number of vertices.
func (m *TriMesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles.
func (m *TriMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no vertices or no triangles.
func (m *TriMesh) IsEmpty() bool {
	return len(m.Vertices) == 0 || len(m.Indices) == 0
}

// Triangle returns the vertex indices of triangle t.
func (m *TriMesh) Triangle(t int) (a, b, c int) {
	return m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]
}

// Validate checks that the index list describes whole triangles and that
// every index names an existing vertex.
func (m *TriMesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return &ArityError{List: "triangle", Len: len(m.Indices), Arity: 3}
	}
	return checkRange("triangle", m.Indices, len(m.Vertices))
}

// QuadMesh is a mixed quad/triangle mesh. It shares the vertex slice of
// the TriMesh it was derived from; Quads holds one quadruple per quad and
// Triangles holds the leftover triangles.
type QuadMesh struct {
	Vertices  []v3.Vec `json:"vertices"`
	Quads     []int    `json:"quads"`     // [i0,i1,i2,i3, ...] closed loops
	Triangles []int    `json:"triangles"` // [i0,i1,i2, ...] unmerged triangles
}

// VertexCount returns the number of vertices.
func (m *QuadMesh) VertexCount() int {
	return len(m.Vertices)
}

// QuadCount returns the number of quads.
func (m *QuadMesh) QuadCount() int {
	return len(m.Quads) / 4
}

// TriangleCount returns the number of leftover triangles.
func (m *QuadMesh) TriangleCount() int {
	return len(m.Triangles) / 3
}

// FaceCount returns the number of quads plus leftover triangles.
func (m *QuadMesh) FaceCount() int {
	return m.QuadCount() + m.TriangleCount()
}

// Validate checks both index lists for arity and range. The quad list is
// checked first.
func (m *QuadMesh) Validate() error {
	if len(m.Quads)%4 != 0 {
		return &ArityError{List: "quad", Len: len(m.Quads), Arity: 4}
	}
	if len(m.Triangles)%3 != 0 {
		return &ArityError{List: "triangle", Len: len(m.Triangles), Arity: 3}
	}
	if err := checkRange("quad", m.Quads, len(m.Vertices)); err != nil {
		return err
	}
	return checkRange("triangle", m.Triangles, len(m.Vertices))
}

// ArityError reports an index list whose length is not a multiple of the
// face arity.
type ArityError struct {
	List  string // "triangle" or "quad"
	Len   int
	Arity int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s index count %d is not a multiple of %d", e.List, e.Len, e.Arity)
}

// IndexError reports an index that does not name an existing vertex.
type IndexError struct {
	List     string
	Position int // offset into the index list
	Index    int
	Vertices int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d at position %d out of range [0, %d)",
		e.List, e.Index, e.Position, e.Vertices)
}

func checkRange(list string, indices []int, n int) error {
	for pos, i := range indices {
		if i < 0 || i >= n {
			return &IndexError{List: list, Position: pos, Index: i, Vertices: n}
		}
	}
	return nil
}
