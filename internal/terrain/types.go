// Package terrain holds the shared mesh geometry types and generates
// chunked heightfield geometry.
package terrain

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is a heightfield mesh vertex.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// Mesh holds indexed triangle geometry for one chunk.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// TriangleCount returns the number of triangles referenced by the index buffer.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// BoundaryVertices marks vertices that lie on a boundary edge, i.e. an edge
// referenced by exactly one triangle. Simplification must not move these.
func (m *Mesh) BoundaryVertices() []bool {
	type edge struct{ a, b uint32 }

	edgeUse := make(map[edge]int)
	for i := 0; i+2 < len(m.Indices); i += 3 {
		tri := [3]uint32{m.Indices[i], m.Indices[i+1], m.Indices[i+2]}
		for j := 0; j < 3; j++ {
			a, b := tri[j], tri[(j+1)%3]
			if a > b {
				a, b = b, a
			}
			edgeUse[edge{a, b}]++
		}
	}

	boundary := make([]bool, len(m.Vertices))
	for e, uses := range edgeUse {
		if uses == 1 {
			boundary[e.a] = true
			boundary[e.b] = true
		}
	}
	return boundary
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// NewBounds returns an empty box ready for Expand calls.
func NewBounds() Bounds {
	return Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
}

// Expand grows the box to contain p.
func (b *Bounds) Expand(p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Union returns the smallest box containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	out := b
	out.Expand(o.Min)
	out.Expand(o.Max)
	return out
}

// Overlaps reports whether the boxes intersect, borders included.
func (b Bounds) Overlaps(o Bounds) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || b.Min[i] > o.Max[i] {
			return false
		}
	}
	return true
}

// Transform returns the axis-aligned box containing all eight corners of b
// transformed by mat.
func (b Bounds) Transform(mat mgl32.Mat4) Bounds {
	out := NewBounds()
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec4{b.Min[0], b.Min[1], b.Min[2], 1}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		p := mat.Mul4x1(corner)
		out.Expand([3]float32{p.X(), p.Y(), p.Z()})
	}
	return out
}
