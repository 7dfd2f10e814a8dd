package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/brepweld/pkg/graph"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNodeRef wraps a graph node so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	kind graph.NodeKind
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(%s %q)", n.kind, n.name)
	}
	return fmt.Sprintf("(%s %s)", n.kind, n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a vector.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// number returns the keyword value if present, else the positional
// argument at index pos. ok is false when neither is given.
func (a kwArgs) number(key string, pos int) (f float64, ok bool, err error) {
	v, found := a.kw[key]
	if !found {
		if pos < 0 || pos >= len(a.positional) {
			return 0, false, nil
		}
		v = a.positional[pos]
	}
	f, err = toFloat64(v)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", key, err)
	}
	return f, true, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toAxis converts a keyword or string to a graph.Axis.
func toAxis(s zygo.Sexp) (graph.Axis, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return graph.AxisNone, fmt.Errorf("expected axis keyword (:x, :y, :z): %w", err)
	}
	switch name {
	case "x":
		return graph.AxisX, nil
	case "y":
		return graph.AxisY, nil
	case "z":
		return graph.AxisZ, nil
	}
	return graph.AxisNone, fmt.Errorf("invalid axis %q, expected x, y, or z", name)
}

// toNodeRef extracts a node reference.
func toNodeRef(s zygo.Sexp) (*sexpNodeRef, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref, nil
	}
	return nil, fmt.Errorf("expected shape, got %T (%s)", s, s.SexpString(nil))
}

// toSolid extracts a reference to a solid-valued node.
func toSolid(s zygo.Sexp) (*sexpNodeRef, error) {
	ref, err := toNodeRef(s)
	if err != nil {
		return nil, err
	}
	if !ref.kind.IsSolid() {
		return nil, fmt.Errorf("expected solid, got %s", ref.SexpString(nil))
	}
	return ref, nil
}

// toVec3 accepts a (vec3 ...) value or a three-element list or array.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil || len(items) != 3 {
		return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
	}
	var c [3]float64
	for i, item := range items {
		if c[i], err = toFloat64(item); err != nil {
			return v3.Vec{}, fmt.Errorf("vec3 component %d: %w", i, err)
		}
	}
	return v3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}
