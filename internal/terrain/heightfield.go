package terrain

import (
	"math"

	"github.com/veldtworks/veldt/internal/noise"
)

// FractalParams are the layered-noise settings used for displacement.
type FractalParams struct {
	Octaves    int
	Frequency  float64
	Amplitude  float64
	Lacunarity float64
	Gain       float64
}

// GridIndices returns the fixed two-triangles-per-cell index pattern for a
// (segments+1)x(segments+1) vertex grid, segments*segments*6 indices total.
// Every chunk with the same segment count shares this exact layout.
func GridIndices(segments int) []uint32 {
	indices := make([]uint32, 0, segments*segments*6)
	stride := uint32(segments + 1)
	for row := 0; row < segments; row++ {
		for col := 0; col < segments; col++ {
			a := uint32(row)*stride + uint32(col)
			b := a + 1
			c := a + stride
			d := c + 1
			indices = append(indices, a, c, b, b, c, d)
		}
	}
	return indices
}

// BuildHeightfield generates the displaced vertex grid for one chunk.
// Positions are chunk-local, covering [0, chunkSize] on both horizontal
// axes; the instance transform places the chunk at (originX, 0, originZ).
// Elevation is a pure function of the vertex's world coordinates, so
// vertices on a border shared with a neighboring chunk come out identical
// on both sides no matter which chunk generated them.
func BuildHeightfield(originX, originZ, chunkSize float64, segments int, s noise.Sampler, p FractalParams) *Mesh {
	step := chunkSize / float64(segments)
	side := segments + 1

	vertices := make([]Vertex, 0, side*side)
	bounds := NewBounds()
	for row := 0; row < side; row++ {
		localZ := float64(row) * step
		for col := 0; col < side; col++ {
			localX := float64(col) * step
			elevation := noise.Fractal(s, originX+localX, originZ+localZ, p.Octaves, p.Frequency, p.Amplitude, p.Lacunarity, p.Gain)
			pos := [3]float32{float32(localX), float32(elevation), float32(localZ)}
			bounds.Expand(pos)
			vertices = append(vertices, Vertex{Position: pos})
		}
	}

	mesh := &Mesh{
		Vertices: vertices,
		Indices:  GridIndices(segments),
		Bounds:   bounds,
	}
	recomputeNormals(mesh)
	return mesh
}

// recomputeNormals accumulates face normals onto each referenced vertex and
// normalizes the sums. Degenerate sums fall back to straight up.
func recomputeNormals(m *Mesh) {
	for i := range m.Vertices {
		m.Vertices[i].Normal = [3]float32{}
	}

	for i := 0; i+2 < len(m.Indices); i += 3 {
		a := m.Vertices[m.Indices[i]].Position
		b := m.Vertices[m.Indices[i+1]].Position
		c := m.Vertices[m.Indices[i+2]].Position

		e1 := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		e2 := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		face := cross(e1, e2)

		for _, vi := range m.Indices[i : i+3] {
			n := &m.Vertices[vi].Normal
			n[0] += face[0]
			n[1] += face[1]
			n[2] += face[2]
		}
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal = normalize(m.Vertices[i].Normal)
	}
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l < 1e-6 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}
