package graph

import (
	"crypto/sha256"
	"encoding/hex"
)

// NodeID is a content-addressed identifier derived from the path that
// created a node ("defpart/bracket", "place/bracket/3", ...).
type NodeID string

// ZeroID is the empty identifier.
const ZeroID NodeID = ""

// NewNodeID returns the identifier for a creation path.
func NewNodeID(path string) NodeID {
	sum := sha256.Sum256([]byte(path))
	return NodeID(hex.EncodeToString(sum[:]))
}

// IsZero reports whether id is the empty identifier.
func (id NodeID) IsZero() bool { return id == ZeroID }

// Short returns the first 8 hex characters, for messages.
func (id NodeID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}
