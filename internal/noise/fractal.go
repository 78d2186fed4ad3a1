package noise

// Fractal sums octaves of s at increasing frequency and decreasing
// amplitude. Octave i samples at frequency*lacunarity^i and is weighted by
// amplitude*gain^i. With octaves=1 the result is exactly
// amplitude*s.Sample(x*frequency, z*frequency).
func Fractal(s Sampler, x, z float64, octaves int, frequency, amplitude, lacunarity, gain float64) float64 {
	var total float64
	for i := 0; i < octaves; i++ {
		total += s.Sample(x*frequency, z*frequency) * amplitude
		frequency *= lacunarity
		amplitude *= gain
	}
	return total
}
