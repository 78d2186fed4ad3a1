package main

import (
	"image"
	"math"
	"os"

	"golang.org/x/image/bmp"

	"github.com/veldtworks/veldt/internal/config"
	"github.com/veldtworks/veldt/internal/surface"
)

// writeHeightmap samples the surface's elevation over the whole chunk grid
// and writes it as a grayscale BMP, normalized to the sampled height range.
func writeHeightmap(path string, cfg *config.Config, srf *surface.Surface) error {
	// Sampling interpolates over size-1 steps, so anything below 2 pixels
	// cannot map the world extent.
	size := cfg.Output.HeightmapSize
	if size < 2 {
		size = 512
	}

	worldW := cfg.Terrain.ChunkSize * float64(cfg.Terrain.MaxChunksX)
	worldH := cfg.Terrain.ChunkSize * float64(cfg.Terrain.MaxChunksZ)

	heights := make([]float64, size*size)
	minH, maxH := math.Inf(1), math.Inf(-1)
	for py := 0; py < size; py++ {
		wz := float64(py) / float64(size-1) * worldH
		for px := 0; px < size; px++ {
			wx := float64(px) / float64(size-1) * worldW
			h := srf.GeneratePosition(wx, wz)
			heights[py*size+px] = h
			if h < minH {
				minH = h
			}
			if h > maxH {
				maxH = h
			}
		}
	}

	span := maxH - minH
	if span == 0 {
		span = 1
	}
	img := image.NewGray(image.Rect(0, 0, size, size))
	for i, h := range heights {
		img.Pix[i] = uint8((h - minH) / span * 255)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return bmp.Encode(f, img)
}
