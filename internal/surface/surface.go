// Package surface orchestrates the full chunk pipeline on top of the
// geometry, LOD, batching and spatial packages.
package surface

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/veldtworks/veldt/internal/batch"
	"github.com/veldtworks/veldt/internal/config"
	"github.com/veldtworks/veldt/internal/lod"
	"github.com/veldtworks/veldt/internal/noise"
	"github.com/veldtworks/veldt/internal/spatial"
	"github.com/veldtworks/veldt/internal/terrain"
)

// ErrDuplicateChunk reports an AddChunk call for a coordinate that already
// holds a chunk. Duplicates are rejected, never overwritten: the shared
// buffers have no per-chunk replacement path and an overwrite would leave
// stale bounds in the spatial index.
var ErrDuplicateChunk = errors.New("chunk already present at coordinate")

// Surface owns the full chunk pipeline: heightfield synthesis, LOD chain
// construction, shared-buffer packing and spatial indexing. Capacity is
// fixed at construction; chunks are added but never removed.
//
// AddChunk calls must not run concurrently with each other: the buffer pool
// and spatial index are mutated without internal locking. The noise sampler
// is safe for concurrent reads.
type Surface struct {
	terrainCfg config.TerrainConfig
	lodCfg     config.LODConfig
	params     terrain.FractalParams

	sampler noise.Sampler
	dec     lod.Decimator
	chain   *lod.Chain
	pool    *batch.Pool
	index   *spatial.Index

	chunks map[[2]int]batch.InstanceID
	rng    *rand.Rand
	log    *zap.SugaredLogger
}

// Option customizes surface construction.
type Option func(*Surface)

// WithSampler injects a custom noise provider. Anything satisfying the
// single-method Sampler capability works, including a bare SamplerFunc.
func WithSampler(s noise.Sampler) Option {
	return func(sf *Surface) { sf.sampler = s }
}

// WithDecimator injects a custom mesh decimator.
func WithDecimator(d lod.Decimator) Option {
	return func(sf *Surface) { sf.dec = d }
}

// WithLogger injects a logger; the default discards everything.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(sf *Surface) { sf.log = log }
}

// New validates cfg and pre-allocates the shared buffers for the
// configured chunk capacity.
func New(cfg *config.Config, opts ...Option) (*Surface, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := cfg.Terrain
	s := &Surface{
		terrainCfg: t,
		lodCfg:     cfg.LOD,
		params: terrain.FractalParams{
			Octaves:    t.Octaves,
			Frequency:  t.Frequency,
			Amplitude:  t.Amplitude,
			Lacunarity: t.Lacunarity,
			Gain:       t.Gain,
		},
		dec:    lod.ClusterDecimator{},
		index:  spatial.New(),
		chunks: make(map[[2]int]batch.InstanceID),
		rng:    rand.New(rand.NewSource(t.Seed)),
		log:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sampler == nil {
		switch t.Noise {
		case "simplex":
			s.sampler = noise.NewSimplex(t.Seed)
		default:
			s.sampler = noise.NewPerlin(t.Seed)
		}
	}

	side := t.Segments + 1
	verticesPerChunk := side * side
	indicesPerChunk := t.Segments * t.Segments * 6

	pool, err := batch.NewPool(t.MaxChunksX*t.MaxChunksZ, verticesPerChunk, indicesPerChunk,
		cfg.LOD.Levels, cfg.LOD.Ratio, cfg.LOD.ReserveMultiplier)
	if err != nil {
		return nil, fmt.Errorf("sizing buffer pool: %w", err)
	}
	s.pool = pool
	s.chain = lod.NewChain(s.dec, cfg.LOD.Levels, cfg.LOD.Ratio, cfg.Pipeline.Workers, s.log)

	return s, nil
}

// AddChunk generates the chunk at integer grid coordinate (x, z), builds its
// LOD set off the calling goroutine, packs the result into the shared
// buffers and indexes the placed instance. The call blocks until the chunk
// is fully registered; simplification runs on the worker pool so the caller
// may interleave other work by running AddChunk from its own goroutine.
//
// A failed add leaves previously added chunks untouched: buffer writes for
// the failing chunk are rolled back before the error is returned.
func (s *Surface) AddChunk(ctx context.Context, x, z int) error {
	if s.pool.InstanceCount() >= s.terrainCfg.MaxChunksX*s.terrainCfg.MaxChunksZ {
		return fmt.Errorf("adding chunk (%d, %d): %w", x, z, batch.ErrCapacityExceeded)
	}
	key := [2]int{x, z}
	if _, ok := s.chunks[key]; ok {
		return fmt.Errorf("adding chunk (%d, %d): %w", x, z, ErrDuplicateChunk)
	}

	originX := float64(x) * s.terrainCfg.ChunkSize
	originZ := float64(z) * s.terrainCfg.ChunkSize

	base := terrain.BuildHeightfield(originX, originZ, s.terrainCfg.ChunkSize, s.terrainCfg.Segments, s.sampler, s.params)

	set, err := s.chain.Build(ctx, base)
	if err != nil {
		return fmt.Errorf("chunk (%d, %d) lod chain: %w", x, z, err)
	}

	slot, err := s.pool.Allocate(base)
	if err != nil {
		return fmt.Errorf("chunk (%d, %d): %w", x, z, err)
	}
	prev := base
	for i, m := range set {
		err := s.pool.RegisterLOD(slot, m, s.lodCfg.Thresholds[i])
		if errors.Is(err, batch.ErrCapacityExceeded) {
			// A variant near the border-locked floor can miss its ratio
			// target and overrun the slot reserve; reuse the previous
			// level, which aliases at zero index cost.
			s.log.Debugw("lod variant over reserve, reusing previous level",
				"x", x, "z", z, "level", i)
			m = prev
			err = s.pool.RegisterLOD(slot, m, s.lodCfg.Thresholds[i])
		}
		if err != nil {
			_ = s.pool.Release(slot)
			return fmt.Errorf("chunk (%d, %d) lod %d: %w", x, z, i, err)
		}
		prev = m
	}

	id, err := s.pool.AddInstance(slot)
	if err != nil {
		_ = s.pool.Release(slot)
		return fmt.Errorf("chunk (%d, %d): %w", x, z, err)
	}
	transform := mgl32.Translate3D(float32(originX), 0, float32(originZ))
	if err := s.pool.SetTransform(id, transform); err != nil {
		_ = s.pool.Release(slot)
		return fmt.Errorf("chunk (%d, %d): %w", x, z, err)
	}

	bounds, err := s.pool.InstanceBounds(id)
	if err != nil {
		_ = s.pool.Release(slot)
		return fmt.Errorf("chunk (%d, %d): %w", x, z, err)
	}
	s.index.Insert(id, bounds)
	s.chunks[key] = id

	s.log.Debugw("chunk added",
		"x", x,
		"z", z,
		"instance", id,
		"triangles", base.TriangleCount(),
		"lods", len(set))
	return nil
}

// GeneratePosition returns the ground elevation at an arbitrary world point
// using the exact noise formula that displaces mesh vertices, so the value
// agrees with the rendered surface.
func (s *Surface) GeneratePosition(x, z float64) float64 {
	return noise.Fractal(s.sampler, x, z, s.params.Octaves, s.params.Frequency, s.params.Amplitude, s.params.Lacunarity, s.params.Gain)
}

// SampleRandomPositions returns count uniform positions inside the chunk's
// footprint, each paired with its ground elevation. Useful for placing
// vegetation and props on the surface. A count below 1 yields no positions.
func (s *Surface) SampleRandomPositions(chunkX, chunkZ, count int) [][3]float64 {
	if count < 0 {
		count = 0
	}
	originX := float64(chunkX) * s.terrainCfg.ChunkSize
	originZ := float64(chunkZ) * s.terrainCfg.ChunkSize

	out := make([][3]float64, count)
	for i := range out {
		px := originX + s.rng.Float64()*s.terrainCfg.ChunkSize
		pz := originZ + s.rng.Float64()*s.terrainCfg.ChunkSize
		out[i] = [3]float64{px, s.GeneratePosition(px, pz), pz}
	}
	return out
}

// ChunkCount returns the number of placed chunks.
func (s *Surface) ChunkCount() int {
	return len(s.chunks)
}

// Instance returns the instance identity for a chunk coordinate.
func (s *Surface) Instance(x, z int) (batch.InstanceID, bool) {
	id, ok := s.chunks[[2]int{x, z}]
	return id, ok
}

// Pool exposes the shared buffer pool for upload and persistence.
func (s *Surface) Pool() *batch.Pool {
	return s.pool
}

// Index exposes the spatial index for visibility queries.
func (s *Surface) Index() *spatial.Index {
	return s.index
}

// Close stops the LOD worker pool after draining in-flight builds.
func (s *Surface) Close() {
	s.chain.Close()
}
