// Package tessellate walks a shape graph and produces a kernel.Shape using
// a geometry kernel. Each placed part contributes one patch: the part's
// triangulation in its own coordinates plus the accumulated placement as
// the patch's local-to-global transform.
package tessellate

import (
	"fmt"

	"github.com/chazu/brepweld/pkg/graph"
	"github.com/chazu/brepweld/pkg/kernel"
	"github.com/chazu/brepweld/pkg/kernel/sdfx"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Tessellate walks the graph from its roots and returns the resulting
// shape. A part placed several times is triangulated once; its placements
// share nodes and triangles and differ only in location and orientation.
// A solid at the root is treated as an unnamed part placed at the origin.
// The tessellator is read-only and never mutates the graph.
func Tessellate(g *graph.ShapeGraph, k kernel.Kernel) (*kernel.Shape, error) {
	shape := &kernel.Shape{}
	if g == nil {
		return shape, nil
	}
	if len(g.Roots) == 1 {
		if root := g.Get(g.Roots[0]); root != nil && root.Name != "" {
			shape.Name = root.Name
		}
	}

	w := &walker{
		g:     g,
		k:     k,
		cache: make(map[graph.NodeID]*kernel.Triangulation),
	}
	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		if err := w.walk(root, sdf.Identity3d()); err != nil {
			return nil, fmt.Errorf("tessellate: %w", err)
		}
	}
	shape.Patches = w.patches
	return shape, nil
}

// walker carries the traversal state.
type walker struct {
	g       *graph.ShapeGraph
	k       kernel.Kernel
	cache   map[graph.NodeID]*kernel.Triangulation
	patches []kernel.Patch
}

// walk visits n under the accumulated local-to-global transform loc.
func (w *walker) walk(n *graph.Node, loc sdf.M44) error {
	switch {
	case n.Kind == graph.NodePart, n.Kind.IsSolid():
		tri, err := w.surface(n)
		if err != nil {
			return err
		}
		w.patches = append(w.patches, tri.Placed(loc, orientation(loc)))
		return nil

	case n.Kind == graph.NodePlacement:
		pd, ok := n.Data.(graph.PlacementData)
		if !ok {
			return fmt.Errorf("placement %s has unexpected data type %T", n.ID.Short(), n.Data)
		}
		return w.walkChildren(n, loc.Mul(placementMatrix(pd)))

	case n.Kind == graph.NodeGroup:
		return w.walkChildren(n, loc)

	default:
		return fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

func (w *walker) walkChildren(n *graph.Node, loc sdf.M44) error {
	for _, child := range w.g.Children(n) {
		if err := w.walk(child, loc); err != nil {
			return err
		}
	}
	return nil
}

// surface returns the cached triangulation of a part or root solid.
func (w *walker) surface(n *graph.Node) (tri *kernel.Triangulation, err error) {
	if tri, ok := w.cache[n.ID]; ok {
		return tri, nil
	}

	// Kernel primitives panic on invalid dimensions.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("part %q: kernel panic: %v", n.DisplayName(), r)
		}
	}()

	body := n
	if n.Kind == graph.NodePart {
		children := w.g.Children(n)
		if len(children) != 1 {
			return nil, fmt.Errorf("part %q has %d bodies, expected 1", n.DisplayName(), len(children))
		}
		body = children[0]
	}

	s, err := w.solid(body)
	if err != nil {
		return nil, fmt.Errorf("part %q: %w", n.DisplayName(), err)
	}
	tri, err = w.k.Triangulate(s)
	if err != nil {
		return nil, fmt.Errorf("part %q: %w", n.DisplayName(), err)
	}
	w.cache[n.ID] = tri
	return tri, nil
}

// solid builds the kernel solid for a solid-valued node. Transform nodes
// are baked into the solid, rotation first.
func (w *walker) solid(n *graph.Node) (kernel.Solid, error) {
	switch n.Kind {
	case graph.NodePrimitive:
		switch d := n.Data.(type) {
		case graph.BoxData:
			return w.k.Box(d.Size.X, d.Size.Y, d.Size.Z), nil
		case graph.CylinderData:
			return w.k.Cylinder(d.Height, d.Radius), nil
		case graph.SphereData:
			return w.k.Sphere(d.Radius), nil
		}
		return nil, fmt.Errorf("primitive %s has unsupported data type %T", n.ID.Short(), n.Data)

	case graph.NodeBoolean:
		bd, ok := n.Data.(graph.BooleanData)
		if !ok {
			return nil, fmt.Errorf("boolean %s has unexpected data type %T", n.ID.Short(), n.Data)
		}
		children := w.g.Children(n)
		if len(children) == 0 {
			return nil, fmt.Errorf("%s has no operands", bd.Op)
		}
		acc, err := w.solid(children[0])
		if err != nil {
			return nil, err
		}
		for _, c := range children[1:] {
			s, err := w.solid(c)
			if err != nil {
				return nil, err
			}
			switch bd.Op {
			case graph.OpUnion:
				acc = w.k.Union(acc, s)
			case graph.OpDifference:
				acc = w.k.Difference(acc, s)
			case graph.OpIntersection:
				acc = w.k.Intersection(acc, s)
			default:
				return nil, fmt.Errorf("unknown boolean operation %v", bd.Op)
			}
		}
		return acc, nil

	case graph.NodeTransform:
		td, ok := n.Data.(graph.TransformData)
		if !ok {
			return nil, fmt.Errorf("transform %s has unexpected data type %T", n.ID.Short(), n.Data)
		}
		children := w.g.Children(n)
		if len(children) != 1 {
			return nil, fmt.Errorf("transform %s has %d children, expected 1", n.ID.Short(), len(children))
		}
		s, err := w.solid(children[0])
		if err != nil {
			return nil, err
		}
		if r := td.Rotation; r != nil && (r.X != 0 || r.Y != 0 || r.Z != 0) {
			s = w.k.Rotate(s, r.X, r.Y, r.Z)
		}
		if t := td.Translation; t != nil && (t.X != 0 || t.Y != 0 || t.Z != 0) {
			s = w.k.Translate(s, t.X, t.Y, t.Z)
		}
		return s, nil
	}
	return nil, fmt.Errorf("%s %s is not a solid", n.Kind, n.DisplayName())
}

// placementMatrix maps a placed child's coordinates into its parent's:
// mirror first, then rotate, then translate.
func placementMatrix(pd graph.PlacementData) sdf.M44 {
	m := sdf.Identity3d()
	if t := pd.Translation; t != nil {
		m = m.Mul(sdf.Translate3d(*t))
	}
	if r := pd.Rotation; r != nil {
		m = m.Mul(sdfx.RotationMatrix(r.X, r.Y, r.Z))
	}
	switch pd.Mirror {
	case graph.AxisX:
		m = m.Mul(sdf.Scale3d(v3.Vec{X: -1, Y: 1, Z: 1}))
	case graph.AxisY:
		m = m.Mul(sdf.Scale3d(v3.Vec{X: 1, Y: -1, Z: 1}))
	case graph.AxisZ:
		m = m.Mul(sdf.Scale3d(v3.Vec{X: 1, Y: 1, Z: -1}))
	}
	return m
}

// orientation flips the winding when loc is orientation-reversing.
func orientation(loc sdf.M44) kernel.Orientation {
	if loc.Determinant() < 0 {
		return kernel.Reversed
	}
	return kernel.Forward
}
