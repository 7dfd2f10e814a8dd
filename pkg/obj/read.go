package obj

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// File is the geometry read from an OBJ stream. Faces hold zero-based
// vertex indices in file order.
type File struct {
	Vertices []v3.Vec
	Faces    [][]int
}

// CountFaces returns the number of faces with exactly 3 and exactly 4
// vertices; other polygons are counted in other.
func (f *File) CountFaces() (tris, quads, other int) {
	for _, face := range f.Faces {
		switch len(face) {
		case 3:
			tris++
		case 4:
			quads++
		default:
			other++
		}
	}
	return tris, quads, other
}

// ParseError reports a malformed line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("obj: line %d: %s", e.Line, e.Msg)
}

// Decode reads "v" and "f" directives from r. Face tokens may carry
// texture and normal references ("1/2/3", "1//3"); only the vertex part is
// kept. Negative indices count back from the last vertex read so far. All
// other directives are ignored.
func Decode(r io.Reader) (*File, error) {
	f := &File{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			v, err := parseVertex(fields[1:])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Msg: err.Error()}
			}
			f.Vertices = append(f.Vertices, v)
		case "f":
			face, err := parseFace(fields[1:], len(f.Vertices))
			if err != nil {
				return nil, &ParseError{Line: lineNo, Msg: err.Error()}
			}
			f.Faces = append(f.Faces, face)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("obj: read: %w", err)
	}
	return f, nil
}

func parseVertex(fields []string) (v3.Vec, error) {
	if len(fields) < 3 {
		return v3.Vec{}, fmt.Errorf("vertex needs 3 coordinates, found %d", len(fields))
	}
	var c [3]float64
	for i := range c {
		x, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return v3.Vec{}, fmt.Errorf("bad coordinate %q", fields[i])
		}
		c[i] = x
	}
	return v3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

func parseFace(fields []string, nverts int) ([]int, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("face needs at least 3 vertices, found %d", len(fields))
	}
	face := make([]int, 0, len(fields))
	for _, tok := range fields {
		ref, _, _ := strings.Cut(tok, "/")
		i, err := strconv.Atoi(ref)
		if err != nil {
			return nil, fmt.Errorf("bad vertex reference %q", tok)
		}
		switch {
		case i > 0:
			i--
		case i < 0:
			i += nverts
		default:
			return nil, fmt.Errorf("vertex index 0 is invalid")
		}
		if i < 0 || i >= nverts {
			return nil, fmt.Errorf("vertex reference %q out of range (%d vertices)", tok, nverts)
		}
		face = append(face, i)
	}
	return face, nil
}
