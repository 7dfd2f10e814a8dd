// Package session owns the currently loaded shape and the consolidated
// meshes derived from it.
//
// Welding runs at most once per loaded shape, on the first request for
// the triangle mesh. Quad merging runs at most once per loaded shape, on
// the first request for the quad mesh. Loading a new shape discards both.
// A Session is not safe for concurrent use.
package session

import (
	"errors"
	"fmt"

	"github.com/chazu/brepweld/pkg/kernel"
	"github.com/chazu/brepweld/pkg/mesh"
	"github.com/chazu/brepweld/pkg/obj"
	"github.com/chazu/brepweld/pkg/quad"
	"github.com/chazu/brepweld/pkg/weld"
)

// ErrNoShape is returned when an operation needs a loaded shape.
var ErrNoShape = errors.New("session: no shape loaded")

// EmptyMeshError is returned when welding produced no vertices or no
// triangles.
type EmptyMeshError struct {
	Vertices int
	Indices  int
}

func (e *EmptyMeshError) Error() string {
	return fmt.Sprintf("session: empty mesh (%d vertices, %d indices)", e.Vertices, e.Indices)
}

// Session holds one shape and its memoized meshes.
type Session struct {
	shape *kernel.Shape

	weldOpts weld.Options
	quadOpts quad.Options

	tri  *mesh.TriMesh
	quad *mesh.QuadMesh
}

// New returns an empty session using default weld and quad options.
func New() *Session {
	return &Session{
		weldOpts: weld.DefaultOptions(),
		quadOpts: quad.DefaultOptions(),
	}
}

// Load replaces the current shape and discards both cached meshes.
func (s *Session) Load(shape *kernel.Shape) {
	s.shape = shape
	s.tri = nil
	s.quad = nil
}

// Unload clears the shape and both caches.
func (s *Session) Unload() {
	s.Load(nil)
}

// HasShape reports whether a shape is loaded.
func (s *Session) HasShape() bool {
	return s.shape != nil
}

// Shape returns the loaded shape, or nil.
func (s *Session) Shape() *kernel.Shape {
	return s.shape
}

// SetWeldOptions changes the weld options. Both caches are discarded since
// the quad mesh is derived from the welded mesh.
func (s *Session) SetWeldOptions(opts weld.Options) {
	s.weldOpts = opts
	s.tri = nil
	s.quad = nil
}

// SetQuadOptions changes the quad merge options and discards the quad
// cache only.
func (s *Session) SetQuadOptions(opts quad.Options) {
	s.quadOpts = opts
	s.quad = nil
}

// TriMesh returns the welded triangle mesh of the loaded shape, welding on
// first use. An empty result is memoized as well and reported as an
// *EmptyMeshError on every call.
func (s *Session) TriMesh() (*mesh.TriMesh, error) {
	if s.shape == nil {
		return nil, ErrNoShape
	}
	if s.tri == nil {
		s.tri = weld.WeldShape(s.shape, s.weldOpts)
	}
	if s.tri.IsEmpty() {
		return nil, &EmptyMeshError{Vertices: len(s.tri.Vertices), Indices: len(s.tri.Indices)}
	}
	return s.tri, nil
}

// QuadMesh returns the mixed quad/triangle mesh, merging on first use.
func (s *Session) QuadMesh() (*mesh.QuadMesh, error) {
	tri, err := s.TriMesh()
	if err != nil {
		return nil, err
	}
	if s.quad == nil {
		s.quad = quad.Merge(tri, s.quadOpts)
	}
	return s.quad, nil
}

// Export writes the loaded shape to path as OBJ. With quads set, adjacent
// coplanar triangle pairs are written as quads.
func (s *Session) Export(path string, quads bool) error {
	if quads {
		qm, err := s.QuadMesh()
		if err != nil {
			return err
		}
		return obj.WriteQuadMesh(path, qm)
	}
	tri, err := s.TriMesh()
	if err != nil {
		return err
	}
	return obj.WriteTriMesh(path, tri)
}
