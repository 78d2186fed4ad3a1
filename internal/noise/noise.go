// Package noise provides seeded 2D noise sampling and fractal summation
// for terrain displacement.
package noise

import (
	"github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Sampler produces a deterministic noise value for a 2D world coordinate.
// Values are nominally in [-1, 1]. Implementations must be safe for
// concurrent reads; sampling never mutates state.
type Sampler interface {
	Sample(x, z float64) float64
}

// SamplerFunc adapts a plain function to the Sampler interface.
type SamplerFunc func(x, z float64) float64

// Sample calls f(x, z).
func (f SamplerFunc) Sample(x, z float64) float64 {
	return f(x, z)
}

// perlin parameters: alpha controls octave weight falloff, beta the
// per-octave frequency step. 3 internal octaves gives enough texture
// without washing out the fractal sum layered on top.
const (
	perlinAlpha   = 2.0
	perlinBeta    = 2.0
	perlinOctaves = 3
)

type perlinSampler struct {
	gen *perlin.Perlin
}

// NewPerlin returns a Perlin-backed sampler with its own seeded state.
// Two samplers built from the same seed produce identical values.
func NewPerlin(seed int64) Sampler {
	return &perlinSampler{gen: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed)}
}

func (p *perlinSampler) Sample(x, z float64) float64 {
	return p.gen.Noise2D(x, z)
}

type simplexSampler struct {
	gen opensimplex.Noise
}

// NewSimplex returns an OpenSimplex-backed sampler with its own seeded state.
func NewSimplex(seed int64) Sampler {
	return &simplexSampler{gen: opensimplex.New(seed)}
}

func (s *simplexSampler) Sample(x, z float64) float64 {
	return s.gen.Eval2(x, z)
}
