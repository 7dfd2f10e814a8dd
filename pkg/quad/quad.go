// Package quad rebuilds quadrilateral faces from an indexed triangle mesh
// by greedily merging pairs of adjacent, nearly coplanar triangles.
//
// The merge is deterministic for a given triangle order. Triangles are
// walked in index order and each triangle's edges in the order (v0,v1),
// (v1,v2), (v2,v0); candidate pairs are accepted first come, first served.
// No global optimum is sought.
package quad

import (
	"math"

	"github.com/chazu/brepweld/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

const (
	// DefaultPlaneTolerance is the largest distance of the fourth point
	// from the plane of the other three for a pair to count as coplanar.
	DefaultPlaneTolerance = 1e-6
	// DefaultMinCosine is the cosine threshold between the normals of the
	// two split triangles (about 8 degrees).
	DefaultMinCosine = 0.99

	// minPlaneNormal2 is the squared cross product magnitude below which
	// the plane-defining triangle is considered degenerate.
	minPlaneNormal2 = 1e-18
	// minSplitNormal is the cross product magnitude below which a split
	// triangle is considered degenerate.
	minSplitNormal = 1e-12
)

// Options controls the geometric compatibility tests.
type Options struct {
	// PlaneTolerance is the coplanarity distance. Zero or negative means
	// DefaultPlaneTolerance.
	PlaneTolerance float64
	// MinCosine is the split-normal cosine threshold. Zero means
	// DefaultMinCosine.
	MinCosine float64
}

// DefaultOptions returns the default tolerances.
func DefaultOptions() Options {
	return Options{
		PlaneTolerance: DefaultPlaneTolerance,
		MinCosine:      DefaultMinCosine,
	}
}

func (o Options) withDefaults() Options {
	if o.PlaneTolerance <= 0 {
		o.PlaneTolerance = DefaultPlaneTolerance
	}
	if o.MinCosine == 0 {
		o.MinCosine = DefaultMinCosine
	}
	return o
}

// edgeKey is an undirected edge, a < b.
type edgeKey struct {
	a, b int
}

func makeEdgeKey(u, v int) edgeKey {
	if u < v {
		return edgeKey{u, v}
	}
	return edgeKey{v, u}
}

// candidate is a pair of triangles sharing an edge. t0 is the earlier
// triangle (the edge's first owner). sharedA follows other0 in t0's
// winding, so the loop other0, sharedA, other1, sharedB keeps t0's
// orientation.
type candidate struct {
	t0, t1           int
	sharedA, sharedB int
	other0, other1   int
}

// Merge pairs adjacent triangles of m into quads. The result shares m's
// vertex slice; every triangle of m ends up either in exactly one quad or
// once in the leftover triangle list, in source order.
func Merge(m *mesh.TriMesh, opts Options) *mesh.QuadMesh {
	opts = opts.withDefaults()

	out := &mesh.QuadMesh{Vertices: m.Vertices}
	triCount := m.TriangleCount()
	if triCount == 0 {
		return out
	}

	candidates := findCandidates(m)
	used := make([]bool, triCount)

	for _, c := range candidates {
		if used[c.t0] || used[c.t1] {
			continue
		}
		if !compatible(m.Vertices, c, opts) {
			continue
		}
		used[c.t0] = true
		used[c.t1] = true
		out.Quads = append(out.Quads, c.other0, c.sharedA, c.other1, c.sharedB)
	}

	for t := 0; t < triCount; t++ {
		if used[t] {
			continue
		}
		a, b, c := m.Triangle(t)
		out.Triangles = append(out.Triangles, a, b, c)
	}

	return out
}

// findCandidates walks triangles in index order and records a candidate
// every time an edge already owned by another triangle is seen again. The
// first triangle to see an edge stays its owner.
func findCandidates(m *mesh.TriMesh) []candidate {
	triCount := m.TriangleCount()
	owner := make(map[edgeKey]int, triCount*2)
	candidates := make([]candidate, 0, triCount/2)

	for t := 0; t < triCount; t++ {
		v0, v1, v2 := m.Triangle(t)
		edges := [3][2]int{{v0, v1}, {v1, v2}, {v2, v0}}

		for _, e := range edges {
			k := makeEdgeKey(e[0], e[1])
			t0, seen := owner[k]
			if !seen {
				owner[k] = t
				continue
			}
			if t0 == t {
				// Degenerate triangle repeating a vertex.
				continue
			}
			other0, ok0 := opposite(m, t0, k)
			other1, ok1 := opposite(m, t, k)
			if !ok0 || !ok1 || other0 == other1 {
				continue
			}
			sharedA, sharedB := k.a, k.b
			if next(m, t0, other0) != sharedA {
				sharedA, sharedB = sharedB, sharedA
			}
			candidates = append(candidates, candidate{
				t0: t0, t1: t,
				sharedA: sharedA, sharedB: sharedB,
				other0: other0, other1: other1,
			})
		}
	}
	return candidates
}

// opposite returns the vertex of triangle t not on edge k.
func opposite(m *mesh.TriMesh, t int, k edgeKey) (int, bool) {
	a, b, c := m.Triangle(t)
	for _, v := range [3]int{a, b, c} {
		if v != k.a && v != k.b {
			return v, true
		}
	}
	return 0, false
}

// next returns the vertex following v in triangle t's winding.
func next(m *mesh.TriMesh, t, v int) int {
	a, b, c := m.Triangle(t)
	switch v {
	case a:
		return b
	case b:
		return c
	default:
		return a
	}
}

// compatible reports whether the pair forms a flat, non-folded quad.
func compatible(verts []v3.Vec, c candidate, opts Options) bool {
	a := verts[c.sharedA]
	b := verts[c.sharedB]
	p0 := verts[c.other0]
	p1 := verts[c.other1]

	if !coplanar(a, b, p0, p1, opts.PlaneTolerance) {
		return false
	}

	// The quad loop p0, a, p1, b split along the shared edge gives the
	// triangles (a, p1, b) and (b, p0, a). Both keep the loop's winding,
	// so a flat, unfolded quad has parallel split normals.
	n1 := p1.Sub(a).Cross(b.Sub(a))
	n2 := p0.Sub(b).Cross(a.Sub(b))
	n1m := n1.Length()
	n2m := n2.Length()
	if n1m < minSplitNormal || n2m < minSplitNormal {
		return false
	}
	cos := n1.Dot(n2) / (n1m * n2m)
	return cos > opts.MinCosine
}

// coplanar reports whether d lies within tol of the plane through a, b, c.
// A degenerate plane triangle is never coplanar.
func coplanar(a, b, c, d v3.Vec, tol float64) bool {
	n := b.Sub(a).Cross(c.Sub(a))
	n2 := n.Dot(n)
	if n2 < minPlaneNormal2 {
		return false
	}
	dist := math.Abs(d.Sub(a).Dot(n)) / math.Sqrt(n2)
	return dist < tol
}
