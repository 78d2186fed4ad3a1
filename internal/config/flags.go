package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagSeed      = flag.Int64("seed", 0, "Noise seed override")
	flagChunksX   = flag.Int("chunks-x", 0, "Chunk grid capacity in X")
	flagChunksZ   = flag.Int("chunks-z", 0, "Chunk grid capacity in Z")
	flagSegments  = flag.Int("segments", 0, "Subdivisions per chunk edge")
	flagSnapshot  = flag.String("snapshot", "", "Write a zstd geometry snapshot to this path")
	flagHeightmap = flag.String("heightmap", "", "Write a BMP heightmap preview to this path")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSeed != 0 {
		cfg.Terrain.Seed = *flagSeed
	}
	if *flagChunksX > 0 {
		cfg.Terrain.MaxChunksX = *flagChunksX
	}
	if *flagChunksZ > 0 {
		cfg.Terrain.MaxChunksZ = *flagChunksZ
	}
	if *flagSegments > 0 {
		cfg.Terrain.Segments = *flagSegments
	}
	if *flagSnapshot != "" {
		cfg.Output.SnapshotPath = *flagSnapshot
	}
	if *flagHeightmap != "" {
		cfg.Output.HeightmapPath = *flagHeightmap
	}
}
