package graph

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks
// tessellation or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks tessellation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// Validate runs all structural and geometric checks on the shape graph and
// returns the findings. An empty slice means the graph is valid. Validate
// never mutates the graph.
func Validate(g *ShapeGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validateChildren(g)...)
	errs = append(errs, validateDimensions(g)...)
	return errs
}

// HasErrors reports whether any finding has error severity.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
func validateDAG(g *ShapeGraph) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray
		if node, ok := g.Nodes[id]; ok {
			for _, childID := range node.Children {
				if visit(childID) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for _, id := range g.Order {
		if color[id] == white && visit(id) {
			break
		}
	}
	return errs
}

// validateReferences checks that every child reference names an existing
// node.
func validateReferences(g *ShapeGraph) []ValidationError {
	var errs []ValidationError
	for _, id := range g.Order {
		node := g.Nodes[id]
		for _, childID := range node.Children {
			if _, ok := g.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateNames checks that every NameIndex entry points to an existing
// node carrying that name.
func validateNames(g *ShapeGraph) []ValidationError {
	var errs []ValidationError
	for name, id := range g.NameIndex {
		node, ok := g.Nodes[id]
		if !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
			continue
		}
		if node.Name != name {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("name index entry %q points at node named %q", name, node.Name),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateRoots checks that roots exist and warns about roots that
// contribute no geometry.
func validateRoots(g *ShapeGraph) []ValidationError {
	var errs []ValidationError
	for _, rid := range g.Roots {
		node, ok := g.Nodes[rid]
		if !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
			continue
		}
		if node.Kind == NodeGroup && len(node.Children) == 0 {
			errs = append(errs, ValidationError{
				NodeID:   rid,
				Message:  fmt.Sprintf("group %q is empty", node.DisplayName()),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// validateChildren checks child counts and kinds for every node.
func validateChildren(g *ShapeGraph) []ValidationError {
	var errs []ValidationError
	fail := func(n *Node, format string, args ...any) {
		errs = append(errs, ValidationError{
			NodeID:   n.ID,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	for _, id := range g.Order {
		n := g.Nodes[id]
		children := g.Children(n)

		switch n.Kind {
		case NodePrimitive:
			if len(n.Children) != 0 {
				fail(n, "primitive has %d children, expected none", len(n.Children))
			}
		case NodeBoolean:
			if len(n.Children) < 2 {
				fail(n, "boolean %s needs at least 2 operands, got %d", opName(n), len(n.Children))
			}
			for _, c := range children {
				if !c.Kind.IsSolid() {
					fail(n, "boolean operand %s is a %s, not a solid", c.DisplayName(), c.Kind)
				}
			}
		case NodeTransform, NodePart:
			if len(n.Children) != 1 {
				fail(n, "%s has %d children, expected 1", n.Kind, len(n.Children))
			}
			for _, c := range children {
				if !c.Kind.IsSolid() {
					fail(n, "%s body %s is a %s, not a solid", n.Kind, c.DisplayName(), c.Kind)
				}
			}
		case NodePlacement:
			if len(n.Children) != 1 {
				fail(n, "placement has %d children, expected 1", len(n.Children))
			}
			for _, c := range children {
				if !c.Kind.IsPlaceable() {
					fail(n, "cannot place %s: a %s is not a part or group", c.DisplayName(), c.Kind)
				}
			}
		case NodeGroup:
			for _, c := range children {
				if !c.Kind.IsPlaceable() {
					fail(n, "group member %s is a %s, not a part, placement or group", c.DisplayName(), c.Kind)
				}
			}
		}
	}
	return errs
}

func opName(n *Node) string {
	if bd, ok := n.Data.(BooleanData); ok {
		return bd.Op.String()
	}
	return "operation"
}

// validateDimensions checks that primitive sizes are positive and that
// every node carries the payload its kind requires.
func validateDimensions(g *ShapeGraph) []ValidationError {
	var errs []ValidationError
	fail := func(n *Node, format string, args ...any) {
		errs = append(errs, ValidationError{
			NodeID:   n.ID,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	for _, id := range g.Order {
		n := g.Nodes[id]
		switch d := n.Data.(type) {
		case BoxData:
			if d.Size.X <= 0 || d.Size.Y <= 0 || d.Size.Z <= 0 {
				fail(n, "box size %gx%gx%g must be positive", d.Size.X, d.Size.Y, d.Size.Z)
			}
		case CylinderData:
			if d.Height <= 0 {
				fail(n, "cylinder height %g must be positive", d.Height)
			}
			if d.Radius <= 0 {
				fail(n, "cylinder radius %g must be positive", d.Radius)
			}
		case SphereData:
			if d.Radius <= 0 {
				fail(n, "sphere radius %g must be positive", d.Radius)
			}
		case PlacementData:
			if d.Mirror < AxisNone || d.Mirror > AxisZ {
				fail(n, "invalid mirror axis %d", int(d.Mirror))
			}
		}

		if !dataMatchesKind(n) {
			fail(n, "%s node carries %T", n.Kind, n.Data)
		}
	}
	return errs
}

func dataMatchesKind(n *Node) bool {
	switch n.Data.(type) {
	case BoxData, CylinderData, SphereData:
		return n.Kind == NodePrimitive
	case BooleanData:
		return n.Kind == NodeBoolean
	case TransformData:
		return n.Kind == NodeTransform
	case PartData:
		return n.Kind == NodePart
	case PlacementData:
		return n.Kind == NodePlacement
	case GroupData:
		return n.Kind == NodeGroup
	default:
		return false
	}
}
