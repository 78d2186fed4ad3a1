// veldtgen bakes a procedural terrain surface: it generates the configured
// chunk grid, packs all geometry into the shared buffers and optionally
// writes a compressed snapshot and a heightmap preview to disk.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/veldtworks/veldt/internal/config"
	"github.com/veldtworks/veldt/internal/logger"
	"github.com/veldtworks/veldt/internal/snapshot"
	"github.com/veldtworks/veldt/internal/surface"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, true); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Sugar.Fatalw("bake failed", "error", err)
	}
}

func run(cfg *config.Config) error {
	srf, err := surface.New(cfg, surface.WithLogger(logger.Sugar))
	if err != nil {
		return err
	}
	defer srf.Close()

	ctx := context.Background()
	for z := 0; z < cfg.Terrain.MaxChunksZ; z++ {
		for x := 0; x < cfg.Terrain.MaxChunksX; x++ {
			if err := srf.AddChunk(ctx, x, z); err != nil {
				return fmt.Errorf("adding chunk (%d, %d): %w", x, z, err)
			}
		}
	}

	usage := srf.Pool().Usage()
	logger.Sugar.Infow("terrain baked",
		"chunks", srf.ChunkCount(),
		"vertices", usage.VerticesUsed,
		"indices", usage.IndicesUsed,
		"index_fill", fmt.Sprintf("%.1f%%", 100*float64(usage.IndicesUsed)/float64(usage.IndexCapacity)))

	if path := cfg.Output.SnapshotPath; path != "" {
		if err := writeSnapshot(path, cfg, srf); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		logger.Sugar.Infow("snapshot written", "path", path)
	}
	if path := cfg.Output.HeightmapPath; path != "" {
		if err := writeHeightmap(path, cfg, srf); err != nil {
			return fmt.Errorf("writing heightmap: %w", err)
		}
		logger.Sugar.Infow("heightmap written", "path", path)
	}
	return nil
}

// writeSnapshot bakes the packed buffers plus a sidecar config so the bake
// can be reproduced.
func writeSnapshot(path string, cfg *config.Config, srf *surface.Surface) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := snapshot.Write(f, srf.Pool()); err != nil {
		return err
	}
	return cfg.SaveTo(path + ".yaml")
}
