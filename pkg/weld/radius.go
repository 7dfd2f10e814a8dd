package weld

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// weldPoint is an emitted vertex stored in the kd-tree.
type weldPoint struct {
	p     v3.Vec
	index int
}

var _ kdtree.Comparable = weldPoint{}

func coord(p v3.Vec, d kdtree.Dim) float64 {
	switch d {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// Compare returns the signed distance of w from the plane through c
// perpendicular to dimension d.
func (w weldPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return coord(w.p, d) - coord(c.(weldPoint).p, d)
}

// Dims returns the number of dimensions.
func (w weldPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between w and c.
func (w weldPoint) Distance(c kdtree.Comparable) float64 {
	d := w.p.Sub(c.(weldPoint).p)
	return d.Dot(d)
}

// radiusIndex matches a point to the nearest emitted vertex within radius.
// The tree grows by insertion in emission order.
type radiusIndex struct {
	r2   float64
	tree *kdtree.Tree
}

func newRadiusIndex(radius float64) *radiusIndex {
	return &radiusIndex{r2: radius * radius, tree: &kdtree.Tree{}}
}

func (r *radiusIndex) lookup(p v3.Vec) (int, bool) {
	if r.tree.Root == nil {
		return 0, false
	}
	keep := kdtree.NewDistKeeper(r.r2)
	r.tree.NearestSet(keep, weldPoint{p: p})

	best, found := 0, false
	bestDist := 0.0
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		wp := cd.Comparable.(weldPoint)
		if !found || cd.Dist < bestDist || (cd.Dist == bestDist && wp.index < best) {
			best, bestDist, found = wp.index, cd.Dist, true
		}
	}
	return best, found
}

func (r *radiusIndex) insert(p v3.Vec, index int) {
	r.tree.Insert(weldPoint{p: p, index: index}, false)
}
