// Package kernel defines the abstract geometry kernel interface and the
// triangulated surface contract consumed by the welder. Implementations
// (sdfx) provide solid modeling behind this interface and hand back
// triangulated surface patches.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid
	Sphere(radius float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Triangulate discretizes the boundary of s into a surface patch
	// expressed in the solid's own coordinates. The returned patch has an
	// identity location and forward orientation.
	Triangulate(s Solid) (*Triangulation, error)
}
