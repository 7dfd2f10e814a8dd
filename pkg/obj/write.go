// Package obj reads and writes the Wavefront OBJ text format.
//
// Output contains only vertex lines ("v x y z") followed by face lines
// ("f i j k" or "f i j k l") with 1-based vertex indices. No normals,
// texture coordinates, groups or materials are written.
package obj

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/chazu/brepweld/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// EncodeTriMesh writes m to w. The mesh is validated before the first byte
// is written.
func EncodeTriMesh(w io.Writer, m *mesh.TriMesh) error {
	if err := validationError(m.Validate()); err != nil {
		return err
	}
	e := newEncoder(w)
	e.vertices(m.Vertices)
	e.faces(m.Indices, 3)
	return e.flush()
}

// EncodeQuadMesh writes m to w: all vertices, then every quad, then every
// leftover triangle. The mesh is validated before the first byte is
// written.
func EncodeQuadMesh(w io.Writer, m *mesh.QuadMesh) error {
	if err := validationError(m.Validate()); err != nil {
		return err
	}
	e := newEncoder(w)
	e.vertices(m.Vertices)
	e.faces(m.Quads, 4)
	e.faces(m.Triangles, 3)
	return e.flush()
}

// WriteTriMesh writes m to the file at path, replacing it. A format error
// leaves any existing file untouched.
func WriteTriMesh(path string, m *mesh.TriMesh) error {
	if err := validationError(m.Validate()); err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error {
		return EncodeTriMesh(w, m)
	})
}

// WriteQuadMesh writes m to the file at path, replacing it. A format error
// leaves any existing file untouched.
func WriteQuadMesh(path string, m *mesh.QuadMesh) error {
	if err := validationError(m.Validate()); err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error {
		return EncodeQuadMesh(w, m)
	})
}

// writeFile writes to a temporary file next to the destination and renames
// it into place once encode succeeds. A symlink at path is followed, so the
// file it points to is replaced. The new file keeps the mode of the file it
// replaces, or gets the default creation mode when path did not exist.
func writeFile(path string, encode func(io.Writer) error) error {
	dst, err := openDestination(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	dir, base := filepath.Split(dst.path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		dst.abort()
		return &WriteError{Path: path, Err: err}
	}
	tmp := f.Name()
	fail := func(err error) error {
		f.Close()
		os.Remove(tmp)
		dst.abort()
		return &WriteError{Path: path, Err: err}
	}

	if err := f.Chmod(dst.mode); err != nil {
		return fail(err)
	}
	if err := encode(f); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmp, dst.path); err != nil {
		os.Remove(tmp)
		dst.abort()
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// destination is the file a write replaces.
type destination struct {
	path    string
	mode    fs.FileMode
	created bool // placeholder created by openDestination
}

// abort removes a placeholder left by openDestination.
func (d destination) abort() {
	if d.created {
		os.Remove(d.path)
	}
}

// openDestination checks that path can be opened for writing and decides
// the mode of the replacement. An existing file must be a regular file
// with write permission. A missing file is created empty with the default
// mode, so the process umask applies the same way it would for a direct
// write.
func openDestination(path string) (destination, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
		if err != nil {
			return destination{}, err
		}
		info, err := f.Stat()
		f.Close()
		if err != nil {
			os.Remove(path)
			return destination{}, err
		}
		return destination{path: path, mode: info.Mode().Perm(), created: true}, nil
	case err != nil:
		return destination{}, err
	case !info.Mode().IsRegular():
		return destination{}, fmt.Errorf("not a regular file (%s)", info.Mode().Type())
	case info.Mode().Perm()&0o222 == 0:
		return destination{}, fs.ErrPermission
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return destination{}, err
	}
	f.Close()

	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return destination{}, err
	}
	return destination{path: target, mode: info.Mode().Perm()}, nil
}

// encoder buffers output and remembers the first write error.
type encoder struct {
	w   *bufio.Writer
	buf []byte
	err error
}

func newEncoder(w io.Writer) *encoder {
	return &encoder{w: bufio.NewWriter(w), buf: make([]byte, 0, 96)}
}

func (e *encoder) line() {
	if e.err != nil {
		return
	}
	e.buf = append(e.buf, '\n')
	_, e.err = e.w.Write(e.buf)
}

func (e *encoder) vertices(vs []v3.Vec) {
	for _, v := range vs {
		e.buf = append(e.buf[:0], 'v')
		for _, c := range [3]float64{v.X, v.Y, v.Z} {
			e.buf = append(e.buf, ' ')
			e.buf = strconv.AppendFloat(e.buf, c, 'g', -1, 64)
		}
		e.line()
	}
}

func (e *encoder) faces(indices []int, arity int) {
	for i := 0; i+arity <= len(indices); i += arity {
		e.buf = append(e.buf[:0], 'f')
		for _, id := range indices[i : i+arity] {
			e.buf = append(e.buf, ' ')
			e.buf = strconv.AppendInt(e.buf, int64(id)+1, 10)
		}
		e.line()
	}
}

func (e *encoder) flush() error {
	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}
