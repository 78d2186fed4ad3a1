// Package config handles terrain generator configuration loading and
// validation.
package config

import "fmt"

// Config holds all generator settings.
type Config struct {
	Terrain  TerrainConfig  `yaml:"terrain"`
	LOD      LODConfig      `yaml:"lod"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TerrainConfig holds heightfield synthesis and capacity settings. Chunk
// grid capacity is fixed for the lifetime of a surface; the shared buffers
// are sized from it up front.
type TerrainConfig struct {
	MaxChunksX int     `yaml:"max_chunks_x"`
	MaxChunksZ int     `yaml:"max_chunks_z"`
	ChunkSize  float64 `yaml:"chunk_size"`
	Segments   int     `yaml:"segments"`
	Frequency  float64 `yaml:"frequency"`
	Amplitude  float64 `yaml:"amplitude"`
	Octaves    int     `yaml:"octaves"`
	Lacunarity float64 `yaml:"lacunarity"`
	Gain       float64 `yaml:"gain"`
	Noise      string  `yaml:"noise"` // "perlin" or "simplex"
	Seed       int64   `yaml:"seed"`
}

// LODConfig holds the simplification chain settings.
type LODConfig struct {
	Levels            int       `yaml:"levels"`
	Ratio             float64   `yaml:"ratio"`
	Thresholds        []float64 `yaml:"thresholds"`
	ReserveMultiplier float64   `yaml:"reserve_multiplier"`
}

// PipelineConfig holds generation pipeline settings.
type PipelineConfig struct {
	Workers int `yaml:"workers"` // 0 = one per CPU
}

// OutputConfig holds bake artifact paths used by the CLI.
type OutputConfig struct {
	SnapshotPath  string `yaml:"snapshot_path"`
	HeightmapPath string `yaml:"heightmap_path"`
	HeightmapSize int    `yaml:"heightmap_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ConfigurationError reports an invalid construction parameter.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			MaxChunksX: 4,
			MaxChunksZ: 4,
			ChunkSize:  64,
			Segments:   32,
			Frequency:  0.01,
			Amplitude:  8,
			Octaves:    4,
			Lacunarity: 2,
			Gain:       0.5,
			Noise:      "perlin",
			Seed:       1337,
		},
		LOD: LODConfig{
			Levels:            4,
			Ratio:             0.5,
			Thresholds:        []float64{100, 300, 800, 1500},
			ReserveMultiplier: 2,
		},
		Pipeline: PipelineConfig{
			Workers: 0,
		},
		Output: OutputConfig{
			HeightmapSize: 512,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks every construction invariant and returns the first
// violation as a *ConfigurationError.
func (c *Config) Validate() error {
	t := &c.Terrain
	switch {
	case t.MaxChunksX <= 0:
		return &ConfigurationError{Field: "terrain.max_chunks_x", Reason: "must be positive"}
	case t.MaxChunksZ <= 0:
		return &ConfigurationError{Field: "terrain.max_chunks_z", Reason: "must be positive"}
	case t.ChunkSize <= 0:
		return &ConfigurationError{Field: "terrain.chunk_size", Reason: "must be positive"}
	case t.Segments <= 0:
		return &ConfigurationError{Field: "terrain.segments", Reason: "must be positive"}
	case t.Octaves < 1:
		return &ConfigurationError{Field: "terrain.octaves", Reason: "must be at least 1"}
	}
	if t.Noise != "" && t.Noise != "perlin" && t.Noise != "simplex" {
		return &ConfigurationError{Field: "terrain.noise", Reason: fmt.Sprintf("unknown algorithm %q", t.Noise)}
	}

	l := &c.LOD
	if l.Levels <= 0 {
		return &ConfigurationError{Field: "lod.levels", Reason: "must be positive"}
	}
	if l.Ratio <= 0 || l.Ratio >= 1 {
		return &ConfigurationError{Field: "lod.ratio", Reason: "must be in (0, 1)"}
	}
	if len(l.Thresholds) != l.Levels {
		return &ConfigurationError{
			Field:  "lod.thresholds",
			Reason: fmt.Sprintf("need %d entries to match lod.levels, got %d", l.Levels, len(l.Thresholds)),
		}
	}
	for i := 1; i < len(l.Thresholds); i++ {
		if l.Thresholds[i] <= l.Thresholds[i-1] {
			return &ConfigurationError{Field: "lod.thresholds", Reason: "must be strictly increasing"}
		}
	}
	if l.ReserveMultiplier < 1 {
		return &ConfigurationError{Field: "lod.reserve_multiplier", Reason: "must be at least 1"}
	}

	return nil
}
