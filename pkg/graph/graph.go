package graph

import (
	"fmt"
)

// ShapeGraph is the top-level immutable data structure produced by script
// evaluation. Each evaluation produces a new graph.
type ShapeGraph struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Order     []NodeID          `json:"order"` // creation order
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`

	anon uint64
}

// New creates an empty ShapeGraph.
func New() *ShapeGraph {
	return &ShapeGraph{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
	}
}

// AddNode adds a node to the graph. It does not check for duplicates; a
// node added twice keeps its first position in creation order.
func (g *ShapeGraph) AddNode(n *Node) {
	if _, exists := g.Nodes[n.ID]; !exists {
		g.Order = append(g.Order, n.ID)
	}
	g.Nodes[n.ID] = n
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AnonID returns a fresh identifier under prefix. The sequence restarts
// for every graph, so re-evaluating the same script yields the same IDs.
func (g *ShapeGraph) AnonID(prefix string) NodeID {
	g.anon++
	return NewNodeID(fmt.Sprintf("%s/_anon_%d", prefix, g.anon))
}

// ComputeRoots sets Roots to every node that is no other node's child,
// in creation order.
func (g *ShapeGraph) ComputeRoots() {
	referenced := make(map[NodeID]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		for _, c := range n.Children {
			referenced[c] = true
		}
	}
	g.Roots = g.Roots[:0]
	for _, id := range g.Order {
		if !referenced[id] {
			g.Roots = append(g.Roots, id)
		}
	}
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *ShapeGraph) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// Get returns the node with the given ID, or nil.
func (g *ShapeGraph) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// Parts returns all part nodes in creation order.
func (g *ShapeGraph) Parts() []*Node {
	var parts []*Node
	for _, id := range g.Order {
		if n := g.Nodes[id]; n.Kind == NodePart {
			parts = append(parts, n)
		}
	}
	return parts
}

// Children returns the child nodes of the given node.
func (g *ShapeGraph) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of nodes.
func (g *ShapeGraph) NodeCount() int {
	return len(g.Nodes)
}

// DisplayName returns the node's name, or its short ID if unnamed.
func (n *Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}
