package graph

// NodeKind enumerates the types of nodes in the shape graph.
type NodeKind int

const (
	NodePrimitive NodeKind = iota // primitive solid (box, cylinder, sphere)
	NodeBoolean                   // union, difference, intersection of solids
	NodeTransform                 // rigid move of a solid (translate, rotate)
	NodePart                      // named solid, triangulated as one patch
	NodePlacement                 // placement of a part or group (place)
	NodeGroup                     // logical grouping (assembly)
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeBoolean:
		return "boolean"
	case NodeTransform:
		return "transform"
	case NodePart:
		return "part"
	case NodePlacement:
		return "placement"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// IsSolid reports whether nodes of this kind evaluate to a solid that can
// be the body of a part or an operand of a boolean.
func (k NodeKind) IsSolid() bool {
	return k == NodePrimitive || k == NodeBoolean || k == NodeTransform
}

// IsPlaceable reports whether nodes of this kind may be placed or grouped.
func (k NodeKind) IsPlaceable() bool {
	return k == NodePart || k == NodePlacement || k == NodeGroup
}

// Node is the fundamental element of the shape graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
