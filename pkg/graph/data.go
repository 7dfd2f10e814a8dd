package graph

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ---------------------------------------------------------------------------
// Axis
// ---------------------------------------------------------------------------

// Axis names a coordinate axis. AxisNone is the zero value.
type Axis int

const (
	AxisNone Axis = iota
	AxisX
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisNone:
		return "none"
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "unknown"
	}
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// BoxData is an axis-aligned box with its minimum corner at the origin.
type BoxData struct {
	Size v3.Vec `json:"size"`
}

func (BoxData) nodeData() {}

// CylinderData is a cylinder along Z centered at the origin.
type CylinderData struct {
	Height float64 `json:"height"`
	Radius float64 `json:"radius"`
}

func (CylinderData) nodeData() {}

// SphereData is a sphere centered at the origin.
type SphereData struct {
	Radius float64 `json:"radius"`
}

func (SphereData) nodeData() {}

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// BooleanOp enumerates boolean operations on solids.
type BooleanOp int

const (
	OpUnion BooleanOp = iota
	OpDifference
	OpIntersection
)

func (op BooleanOp) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpDifference:
		return "difference"
	case OpIntersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// BooleanData combines the node's children in order. Difference subtracts
// every later child from the first.
type BooleanData struct {
	Op BooleanOp `json:"op"`
}

func (BooleanData) nodeData() {}

// ---------------------------------------------------------------------------
// Solid transform
// ---------------------------------------------------------------------------

// TransformData moves its single solid child. Rotation (Euler degrees,
// X then Y then Z) is applied before translation. It is baked into the
// solid before triangulation.
type TransformData struct {
	Translation *v3.Vec `json:"translation,omitempty"`
	Rotation    *v3.Vec `json:"rotation,omitempty"`
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Part
// ---------------------------------------------------------------------------

// PartData marks a named solid. Its single child is the body.
type PartData struct {
	Description string `json:"description,omitempty"`
}

func (PartData) nodeData() {}

// ---------------------------------------------------------------------------
// Placement
// ---------------------------------------------------------------------------

// PlacementData positions its single child (a part, group or placement)
// in its parent's frame: mirror first, then rotation, then translation.
// A placement is not baked into the geometry; it becomes the
// local-to-global transform of every patch below it.
type PlacementData struct {
	Translation *v3.Vec `json:"translation,omitempty"`
	Rotation    *v3.Vec `json:"rotation,omitempty"` // Euler angles in degrees
	Mirror      Axis    `json:"mirror,omitempty"`   // reflect across the plane normal to this axis
}

func (PlacementData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData represents a logical grouping (assembly, subassembly).
// Created by the (assembly ...) form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
