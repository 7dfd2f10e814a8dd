package engine

import (
	"fmt"

	"github.com/chazu/brepweld/pkg/graph"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// builtin is the signature zygomys expects for Go functions.
type builtin = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs the shape script builtins into a zygomys
// environment. The builtins populate g as the script runs.
//
// Source must be preprocessed with preprocessSource so that :keyword
// tokens arrive as recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, g *graph.ShapeGraph) {
	b := &builder{g: g}

	env.AddFunction("vec3", b.vec3)

	env.AddFunction("box", b.box)
	env.AddFunction("cylinder", b.cylinder)
	env.AddFunction("sphere", b.sphere)

	env.AddFunction("union", b.boolean(graph.OpUnion))
	env.AddFunction("difference", b.boolean(graph.OpDifference))
	env.AddFunction("intersection", b.boolean(graph.OpIntersection))

	env.AddFunction("translate", b.transform("translate"))
	env.AddFunction("rotate", b.transform("rotate"))

	env.AddFunction("defpart", b.defpart)
	env.AddFunction("part", b.part)
	env.AddFunction("place", b.place)
	env.AddFunction("assembly", b.assembly)
}

// builder adds nodes to the graph under construction.
type builder struct {
	g *graph.ShapeGraph
}

func (b *builder) add(n *graph.Node) *sexpNodeRef {
	b.g.AddNode(n)
	return &sexpNodeRef{id: n.ID, kind: n.Kind, name: n.Name}
}

// ---------------------------------------------------------------------------
// (vec3 1 2 3)
// ---------------------------------------------------------------------------

func (b *builder) vec3(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}
	v, err := toVec3(&zygo.SexpArray{Val: args})
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
	}
	return &sexpVec3{vec: v}, nil
}

// ---------------------------------------------------------------------------
// (box 10 20 5) | (box (vec3 10 20 5)) | (box :x 10 :y 20 :z 5)
// ---------------------------------------------------------------------------

func (b *builder) box(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)

	var size v3.Vec
	if len(pa.positional) == 1 {
		v, err := toVec3(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
		}
		size = v
	} else {
		dims := [3]*float64{&size.X, &size.Y, &size.Z}
		for i, key := range []string{"x", "y", "z"} {
			f, ok, err := pa.number(key, i)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: %w", err)
			}
			if !ok {
				return zygo.SexpNull, fmt.Errorf("box: missing %s dimension", key)
			}
			*dims[i] = f
		}
	}
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return zygo.SexpNull, fmt.Errorf("box: dimensions must be positive, got %gx%gx%g", size.X, size.Y, size.Z)
	}

	return b.add(&graph.Node{
		ID:   b.g.AnonID("box"),
		Kind: graph.NodePrimitive,
		Data: graph.BoxData{Size: size},
	}), nil
}

// ---------------------------------------------------------------------------
// (cylinder 10 2) | (cylinder :height 10 :radius 2)
// ---------------------------------------------------------------------------

func (b *builder) cylinder(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)

	h, ok, err := pa.number("height", 0)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
	}
	if !ok {
		return zygo.SexpNull, fmt.Errorf("cylinder: missing height")
	}
	r, ok, err := pa.number("radius", 1)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
	}
	if !ok {
		return zygo.SexpNull, fmt.Errorf("cylinder: missing radius")
	}
	if h <= 0 || r <= 0 {
		return zygo.SexpNull, fmt.Errorf("cylinder: height and radius must be positive, got %g and %g", h, r)
	}

	return b.add(&graph.Node{
		ID:   b.g.AnonID("cylinder"),
		Kind: graph.NodePrimitive,
		Data: graph.CylinderData{Height: h, Radius: r},
	}), nil
}

// ---------------------------------------------------------------------------
// (sphere 5) | (sphere :radius 5)
// ---------------------------------------------------------------------------

func (b *builder) sphere(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)

	r, ok, err := pa.number("radius", 0)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
	}
	if !ok {
		return zygo.SexpNull, fmt.Errorf("sphere: missing radius")
	}
	if r <= 0 {
		return zygo.SexpNull, fmt.Errorf("sphere: radius must be positive, got %g", r)
	}

	return b.add(&graph.Node{
		ID:   b.g.AnonID("sphere"),
		Kind: graph.NodePrimitive,
		Data: graph.SphereData{Radius: r},
	}), nil
}

// ---------------------------------------------------------------------------
// (union a b ...) (difference a b ...) (intersection a b ...)
// ---------------------------------------------------------------------------

func (b *builder) boolean(op graph.BooleanOp) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids, got %d", op, len(args))
		}
		children := make([]graph.NodeID, 0, len(args))
		for i, arg := range args {
			ref, err := toSolid(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", op, i+1, err)
			}
			children = append(children, ref.id)
		}

		return b.add(&graph.Node{
			ID:       b.g.AnonID(op.String()),
			Kind:     graph.NodeBoolean,
			Children: children,
			Data:     graph.BooleanData{Op: op},
		}), nil
	}
}

// ---------------------------------------------------------------------------
// (translate solid (vec3 1 2 3))  (rotate solid (vec3 0 0 90))
// ---------------------------------------------------------------------------

func (b *builder) transform(op string) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("%s requires a solid and a vec3", op)
		}
		ref, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
		}
		v, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
		}

		td := graph.TransformData{}
		if op == "translate" {
			td.Translation = &v
		} else {
			td.Rotation = &v
		}
		return b.add(&graph.Node{
			ID:       b.g.AnonID(op),
			Kind:     graph.NodeTransform,
			Children: []graph.NodeID{ref.id},
			Data:     td,
		}), nil
	}
}

// ---------------------------------------------------------------------------
// (defpart "name" solid)
// ---------------------------------------------------------------------------

func (b *builder) defpart(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("defpart requires a name and a body expression")
	}
	partName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
	}
	if partName == "" {
		return zygo.SexpNull, fmt.Errorf("defpart: name must not be empty")
	}
	if b.g.Lookup(partName) != nil {
		return zygo.SexpNull, fmt.Errorf("defpart: %q is already defined", partName)
	}
	body, err := toSolid(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("defpart %q: body: %w", partName, err)
	}

	return b.add(&graph.Node{
		ID:       graph.NewNodeID("defpart/" + partName),
		Kind:     graph.NodePart,
		Name:     partName,
		Children: []graph.NodeID{body.id},
		Data:     graph.PartData{},
	}), nil
}

// ---------------------------------------------------------------------------
// (part "name")
// ---------------------------------------------------------------------------

func (b *builder) part(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("part requires a name argument")
	}
	partName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
	}
	n := b.g.Lookup(partName)
	if n == nil || n.Kind != graph.NodePart {
		return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
	}
	return &sexpNodeRef{id: n.ID, kind: n.Kind, name: n.Name}, nil
}

// ---------------------------------------------------------------------------
// (place (part "bracket") :at (vec3 0 0 10) :rotate (vec3 0 0 90) :mirror :x)
// ---------------------------------------------------------------------------

func (b *builder) place(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("place requires exactly one part or assembly")
	}
	child, err := toNodeRef(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("place: %w", err)
	}
	if !child.kind.IsPlaceable() {
		return zygo.SexpNull, fmt.Errorf("place: cannot place a %s, wrap it in defpart", child.kind)
	}

	pd := graph.PlacementData{}
	if v, ok := pa.kw["at"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
		}
		pd.Translation = &vec
	}
	if v, ok := pa.kw["rotate"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
		}
		pd.Rotation = &vec
	}
	if v, ok := pa.kw["mirror"]; ok {
		axis, err := toAxis(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: mirror: %w", err)
		}
		pd.Mirror = axis
	}
	for key := range pa.kw {
		if key != "at" && key != "rotate" && key != "mirror" {
			return zygo.SexpNull, fmt.Errorf("place: unknown keyword :%s", key)
		}
	}

	prefix := "place"
	if child.name != "" {
		prefix = "place/" + child.name
	}
	return b.add(&graph.Node{
		ID:       b.g.AnonID(prefix),
		Kind:     graph.NodePlacement,
		Children: []graph.NodeID{child.id},
		Data:     pd,
	}), nil
}

// ---------------------------------------------------------------------------
// (assembly "name" (place ...) (part "x") ...)
// ---------------------------------------------------------------------------

func (b *builder) assembly(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) < 1 {
		return zygo.SexpNull, fmt.Errorf("assembly requires a name argument")
	}
	asmName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("assembly: name: %w", err)
	}
	if asmName == "" {
		return zygo.SexpNull, fmt.Errorf("assembly: name must not be empty")
	}
	if b.g.Lookup(asmName) != nil {
		return zygo.SexpNull, fmt.Errorf("assembly: %q is already defined", asmName)
	}

	var children []graph.NodeID
	for i := 1; i < len(args); i++ {
		ref, err := toNodeRef(args[i])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly %q: member %d: %w", asmName, i, err)
		}
		if !ref.kind.IsPlaceable() {
			return zygo.SexpNull, fmt.Errorf("assembly %q: member %d is a %s, wrap it in defpart", asmName, i, ref.kind)
		}
		children = append(children, ref.id)
	}

	return b.add(&graph.Node{
		ID:       graph.NewNodeID("assembly/" + asmName),
		Kind:     graph.NodeGroup,
		Name:     asmName,
		Children: children,
		Data:     graph.GroupData{},
	}), nil
}
