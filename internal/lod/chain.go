package lod

import (
	"context"
	"fmt"
	"runtime"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/veldtworks/veldt/internal/terrain"
)

type levelState int

const (
	stateBuilding levelState = iota + 1
	stateComplete
	stateFailed
)

func (s levelState) String() string {
	switch s {
	case stateBuilding:
		return "building"
	case stateComplete:
		return "complete"
	case stateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Chain builds ordered LOD sets off the caller's goroutine. Level 0
// simplifies the base mesh and every later level simplifies its predecessor,
// so total work and quality drift stay bounded. The returned set always has
// exactly the configured number of levels.
type Chain struct {
	dec    Decimator
	levels int
	ratio  float64
	pool   pond.Pool
	log    *zap.SugaredLogger
}

// NewChain creates a chain builder backed by a worker pool of the given
// size. workers <= 0 uses one worker per CPU.
func NewChain(dec Decimator, levels int, ratio float64, workers int, log *zap.SugaredLogger) *Chain {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Chain{
		dec:    dec,
		levels: levels,
		ratio:  ratio,
		pool:   pond.NewPool(workers),
		log:    log,
	}
}

// Build runs the simplification pipeline on the worker pool and waits for
// the full set. Cancelling ctx abandons the wait; the in-flight build still
// runs to completion on the pool and its result is discarded.
func (c *Chain) Build(ctx context.Context, base *terrain.Mesh) ([]*terrain.Mesh, error) {
	type outcome struct {
		set []*terrain.Mesh
		err error
	}

	done := make(chan outcome, 1)
	c.pool.Submit(func() {
		set, err := c.buildLevels(ctx, base)
		done <- outcome{set: set, err: err}
	})

	select {
	case out := <-done:
		return out.set, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Chain) buildLevels(ctx context.Context, base *terrain.Mesh) ([]*terrain.Mesh, error) {
	states := make([]levelState, c.levels)
	set := make([]*terrain.Mesh, 0, c.levels)

	prev := base
	for i := 0; i < c.levels; i++ {
		states[i] = stateBuilding
		simplified, err := c.dec.Simplify(ctx, prev, Options{Ratio: c.ratio, LockBorder: true})
		if err != nil {
			states[i] = stateFailed
			c.log.Warnw("lod chain aborted", "level", i, "states", states, "error", err)
			return nil, fmt.Errorf("simplifying lod level %d: %w", i, err)
		}

		// A level that fails to shrink is kept as-is; already-minimal
		// inputs make this expected on the deep levels.
		if simplified.TriangleCount() >= prev.TriangleCount() && prev.TriangleCount() > 0 {
			c.log.Debugw("lod level did not reduce",
				"level", i,
				"triangles", simplified.TriangleCount())
		}

		states[i] = stateComplete
		set = append(set, simplified)
		prev = simplified
	}
	return set, nil
}

// Levels returns the configured chain length.
func (c *Chain) Levels() int {
	return c.levels
}

// Close stops the worker pool after draining queued builds.
func (c *Chain) Close() {
	c.pool.StopAndWait()
}
