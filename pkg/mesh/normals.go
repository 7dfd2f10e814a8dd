package mesh

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// VertexNormals returns one unit normal per vertex, accumulated from the
// unnormalized face normals of the adjacent triangles so that larger faces
// weigh more. Vertices referenced by no triangle, or only by degenerate
// ones, get a zero normal.
func (m *TriMesh) VertexNormals() []v3.Vec {
	normals := make([]v3.Vec, len(m.Vertices))
	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := m.Triangle(t)
		pa, pb, pc := m.Vertices[a], m.Vertices[b], m.Vertices[c]
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		normals[a] = normals[a].Add(n)
		normals[b] = normals[b].Add(n)
		normals[c] = normals[c].Add(n)
	}
	for i, n := range normals {
		if l := n.Length(); l > 0 {
			normals[i] = n.MulScalar(1 / l)
		}
	}
	return normals
}
