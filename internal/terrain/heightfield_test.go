package terrain

import (
	"math"
	"testing"

	"github.com/veldtworks/veldt/internal/noise"
)

var flatNoise = noise.SamplerFunc(func(x, z float64) float64 { return 0 })

var defaultParams = FractalParams{
	Octaves:    2,
	Frequency:  0.1,
	Amplitude:  1,
	Lacunarity: 2,
	Gain:       0.5,
}

func TestGridIndices(t *testing.T) {
	indices := GridIndices(2)
	if len(indices) != 2*2*6 {
		t.Fatalf("GridIndices(2) returned %d indices, want 24", len(indices))
	}

	// First cell: vertices 0,1 on row 0 and 3,4 on row 1.
	want := []uint32{0, 3, 1, 1, 3, 4}
	for i, w := range want {
		if indices[i] != w {
			t.Errorf("indices[%d] = %d, want %d", i, indices[i], w)
		}
	}
}

func TestBuildHeightfieldFlat(t *testing.T) {
	m := BuildHeightfield(0, 0, 10, 2, flatNoise, defaultParams)

	if len(m.Vertices) != 9 {
		t.Fatalf("got %d vertices, want 9", len(m.Vertices))
	}
	if len(m.Indices) != 24 {
		t.Fatalf("got %d indices, want 24", len(m.Indices))
	}
	for i, v := range m.Vertices {
		if v.Position[1] != 0 {
			t.Errorf("vertex %d elevation = %v, want 0", i, v.Position[1])
		}
		if v.Normal != [3]float32{0, 1, 0} {
			t.Errorf("vertex %d normal = %v, want up", i, v.Normal)
		}
	}
	if m.Bounds.Min != [3]float32{0, 0, 0} || m.Bounds.Max != [3]float32{10, 0, 10} {
		t.Errorf("bounds = %+v, want [0,0,0]..[10,0,10]", m.Bounds)
	}
}

func TestBuildHeightfieldDeterministic(t *testing.T) {
	s := noise.NewPerlin(42)
	a := BuildHeightfield(30, -20, 10, 4, s, defaultParams)
	b := BuildHeightfield(30, -20, 10, 4, s, defaultParams)

	for i := range a.Vertices {
		if a.Vertices[i] != b.Vertices[i] {
			t.Fatalf("vertex %d differs between identical builds", i)
		}
	}
}

func TestBorderContinuity(t *testing.T) {
	const (
		chunkSize = 10.0
		segments  = 4
	)
	s := noise.NewPerlin(7)

	left := BuildHeightfield(0, 0, chunkSize, segments, s, defaultParams)
	right := BuildHeightfield(chunkSize, 0, chunkSize, segments, s, defaultParams)

	// Left chunk's last column and right chunk's first column share world
	// positions, so their elevations must match exactly.
	side := segments + 1
	for row := 0; row < side; row++ {
		l := left.Vertices[row*side+segments].Position[1]
		r := right.Vertices[row*side].Position[1]
		if l != r {
			t.Errorf("row %d: border elevation %v (left) != %v (right)", row, l, r)
		}
	}
}

func TestNormalsUnitLength(t *testing.T) {
	s := noise.NewSimplex(3)
	m := BuildHeightfield(0, 0, 10, 8, s, FractalParams{
		Octaves: 3, Frequency: 0.3, Amplitude: 4, Lacunarity: 2, Gain: 0.5,
	})

	for i, v := range m.Vertices {
		n := v.Normal
		l := math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]))
		if math.Abs(l-1) > 1e-4 {
			t.Errorf("vertex %d normal length = %v, want 1", i, l)
		}
	}
}

func TestBoundaryVertices(t *testing.T) {
	m := BuildHeightfield(0, 0, 10, 4, flatNoise, defaultParams)
	boundary := m.BoundaryVertices()

	count := 0
	for _, b := range boundary {
		if b {
			count++
		}
	}
	// A 5x5 grid has 16 perimeter vertices.
	if count != 16 {
		t.Errorf("boundary vertex count = %d, want 16", count)
	}
	if boundary[2*5+2] {
		t.Error("center vertex flagged as boundary")
	}
	if !boundary[0] || !boundary[4] || !boundary[20] || !boundary[24] {
		t.Error("grid corners not flagged as boundary")
	}
}
