package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/chazu/brepweld/pkg/engine"
	"github.com/chazu/brepweld/pkg/kernel"
	"github.com/chazu/brepweld/pkg/kernel/sdfx"
	"github.com/chazu/brepweld/pkg/obj"
	"github.com/chazu/brepweld/pkg/quad"
	"github.com/chazu/brepweld/pkg/session"
	"github.com/chazu/brepweld/pkg/tessellate"
	"github.com/chazu/brepweld/pkg/weld"
)

// App ties the pipeline together: script evaluation, tessellation, and a
// session that welds, merges and exports the loaded shape.
type App struct {
	engine  *engine.Engine
	kernel  kernel.Kernel
	session *session.Session
}

// MeshData is the flattened mesh handed to a viewer.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
}

// EvalErrorData is a script error or warning with its location.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// LoadResult reports the outcome of loading a script.
type LoadResult struct {
	Patches   int             `json:"patches"`
	Triangles int             `json:"triangles"`
	Errors    []EvalErrorData `json:"errors"`
	Warnings  []EvalErrorData `json:"warnings"`
}

// PreviewResult carries the welded mesh for display, or a message when
// there is nothing to show.
type PreviewResult struct {
	Mesh    *MeshData `json:"mesh,omitempty"`
	Message string    `json:"message,omitempty"`
}

// ExportResult reports the outcome of an export.
type ExportResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Stats summarizes the loaded shape and its consolidated meshes.
type Stats struct {
	Patches       int `json:"patches"`
	SoupTriangles int `json:"soupTriangles"`
	Vertices      int `json:"vertices"`
	Triangles     int `json:"triangles"`
	Quads         int `json:"quads"`
	RemainingTris int `json:"remainingTris"`
	QuadMeshFaces int `json:"quadMeshFaces"`
}

// NewApp creates a new App with an engine and the sdfx kernel.
func NewApp(opts ...sdfx.Option) *App {
	return NewAppWithKernel(sdfx.New(opts...))
}

// NewAppWithKernel creates an App that tessellates with k.
func NewAppWithKernel(k kernel.Kernel) *App {
	return &App{
		engine:  engine.NewEngine(),
		kernel:  k,
		session: session.New(),
	}
}

// SetWeldOptions changes the options used for the next weld.
func (a *App) SetWeldOptions(opts weld.Options) {
	a.session.SetWeldOptions(opts)
}

// SetQuadOptions changes the options used for the next quad merge.
func (a *App) SetQuadOptions(opts quad.Options) {
	a.session.SetQuadOptions(opts)
}

// Load evaluates source, tessellates the resulting graph and makes the
// shape current. On any error the previous shape is unloaded.
func (a *App) Load(source string) LoadResult {
	result := LoadResult{
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the script into a shape graph.
	g, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		log.Printf("Evaluate fatal error: %v", err)
		a.session.Unload()
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		a.session.Unload()
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	for _, w := range engine.Warnings(g) {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.Message})
	}

	// Step 2: Tessellate the graph into surface patches.
	shape, err := tessellate.Tessellate(g, a.kernel)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		a.session.Unload()
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	// Step 3: Hand the shape to the session; welding waits for the first
	// mesh request.
	a.session.Load(shape)
	result.Patches = len(shape.Patches)
	result.Triangles = shape.TriangleCount()
	return result
}

// Preview welds the loaded shape, if not already done, and returns it
// with per-vertex normals.
func (a *App) Preview() PreviewResult {
	m, err := a.session.TriMesh()
	if err != nil {
		log.Printf("Preview: %v", err)
		return PreviewResult{Message: describe(err)}
	}
	log.Printf("Preview: %d vertices, %d triangles", m.VertexCount(), m.TriangleCount())

	data := &MeshData{
		Vertices: make([]float32, 0, 3*len(m.Vertices)),
		Normals:  make([]float32, 0, 3*len(m.Vertices)),
		Indices:  make([]uint32, 0, len(m.Indices)),
		Name:     a.session.Shape().Name,
	}
	for _, v := range m.Vertices {
		data.Vertices = append(data.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
	}
	for _, n := range m.VertexNormals() {
		data.Normals = append(data.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	for _, i := range m.Indices {
		data.Indices = append(data.Indices, uint32(i))
	}
	return PreviewResult{Mesh: data}
}

// Export writes the loaded shape to path as OBJ, merging coplanar
// triangle pairs into quads when quads is set.
func (a *App) Export(path string, quads bool) ExportResult {
	if err := a.session.Export(path, quads); err != nil {
		log.Printf("Export %s: %v", path, err)
		return ExportResult{Message: describe(err)}
	}

	var msg string
	if quads {
		qm, _ := a.session.QuadMesh()
		msg = fmt.Sprintf("wrote %d vertices, %d quads and %d triangles to %s",
			qm.VertexCount(), qm.QuadCount(), qm.TriangleCount(), path)
	} else {
		tm, _ := a.session.TriMesh()
		msg = fmt.Sprintf("wrote %d vertices and %d triangles to %s",
			tm.VertexCount(), tm.TriangleCount(), path)
	}
	log.Print(msg)
	return ExportResult{OK: true, Message: msg}
}

// Stats welds and merges the loaded shape and reports the counts.
func (a *App) Stats() (Stats, error) {
	shape := a.session.Shape()
	if shape == nil {
		return Stats{}, session.ErrNoShape
	}
	st := Stats{
		Patches:       len(shape.Patches),
		SoupTriangles: shape.TriangleCount(),
	}
	tm, err := a.session.TriMesh()
	if err != nil {
		return st, err
	}
	st.Vertices = tm.VertexCount()
	st.Triangles = tm.TriangleCount()

	qm, err := a.session.QuadMesh()
	if err != nil {
		return st, err
	}
	st.Quads = qm.QuadCount()
	st.RemainingTris = qm.TriangleCount()
	st.QuadMeshFaces = qm.FaceCount()
	return st, nil
}

// describe turns a session or export error into a message for the user.
func describe(err error) string {
	var (
		empty    *session.EmptyMeshError
		format   *obj.FormatError
		writeErr *obj.WriteError
	)
	switch {
	case errors.Is(err, session.ErrNoShape):
		return "no shape loaded"
	case errors.As(err, &empty):
		return fmt.Sprintf("the shape produced an empty mesh (%d vertices, %d indices)", empty.Vertices, empty.Indices)
	case errors.As(err, &format):
		return "invalid mesh: " + format.Error()
	case errors.As(err, &writeErr):
		return fmt.Sprintf("cannot write %s: %v", writeErr.Path, writeErr.Err)
	}
	return err.Error()
}
