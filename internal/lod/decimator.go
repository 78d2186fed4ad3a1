// Package lod builds chains of progressively simplified meshes for
// distance-based detail selection.
package lod

import (
	"context"
	"math"

	"github.com/veldtworks/veldt/internal/terrain"
)

// Options control a single simplification pass.
type Options struct {
	// Ratio is the target triangle count as a fraction of the input's.
	Ratio float64
	// LockBorder pins boundary-edge vertices so chunk seams stay closed
	// regardless of which level a neighbor displays.
	LockBorder bool
}

// Decimator reduces a mesh's triangle count. Implementations must keep the
// vertex slice and vertex ordering of the input intact and only emit a new
// index buffer, so simplified variants can share the input's vertex range in
// a packed buffer.
type Decimator interface {
	Simplify(ctx context.Context, m *terrain.Mesh, opts Options) (*terrain.Mesh, error)
}

// ClusterDecimator simplifies by merging vertices that fall into the same
// cell of a coarsened horizontal grid. Each cluster collapses onto one of
// its original vertices, triangles that degenerate under the remap are
// dropped. Border vertices are never merged when LockBorder is set.
type ClusterDecimator struct{}

// Cell growth schedule for passes that miss the target. The last pass has
// grown the cell past any chunk extent, collapsing the whole interior.
const (
	maxClusterPasses  = 12
	clusterCellGrowth = 1.5
)

// Simplify implements Decimator.
func (ClusterDecimator) Simplify(ctx context.Context, m *terrain.Mesh, opts Options) (*terrain.Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ratio := opts.Ratio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.5
	}

	cell := clusterCellSize(m, ratio)
	if cell <= 0 {
		return &terrain.Mesh{Vertices: m.Vertices, Indices: m.Indices, Bounds: m.Bounds}, nil
	}

	var locked []bool
	if opts.LockBorder {
		locked = perimeterVertices(m)
	}

	// The analytic cell size assumes every cluster reduces; locked border
	// vertices break that, so grow the cell until the output meets the
	// target. Once the cell covers the whole extent the interior is a
	// single cluster and the locked rim is the floor: keep the best pass.
	target := int(float64(m.TriangleCount()) * ratio)
	extent := horizontalExtent(m)
	var best []uint32
	for pass := 0; pass < maxClusterPasses; pass++ {
		indices := clusterPass(m, locked, cell)
		if best == nil || len(indices) < len(best) {
			best = indices
		}
		if len(best)/3 <= target || cell >= extent {
			break
		}
		cell *= clusterCellGrowth
	}

	return &terrain.Mesh{Vertices: m.Vertices, Indices: best, Bounds: m.Bounds}, nil
}

// clusterPass collapses each unlocked vertex onto the first vertex seen in
// its grid cell and rebuilds the index buffer under that remap.
func clusterPass(m *terrain.Mesh, locked []bool, cell float64) []uint32 {
	remap := make([]uint32, len(m.Vertices))
	representative := make(map[[2]int32]uint32)
	for i := range m.Vertices {
		if locked != nil && locked[i] {
			remap[i] = uint32(i)
			continue
		}
		p := m.Vertices[i].Position
		key := [2]int32{
			int32(math.Floor(float64(p[0]-m.Bounds.Min[0]) / cell)),
			int32(math.Floor(float64(p[2]-m.Bounds.Min[2]) / cell)),
		}
		rep, ok := representative[key]
		if !ok {
			rep = uint32(i)
			representative[key] = rep
		}
		remap[i] = rep
	}

	// Several source triangles can remap onto the same coarse triple;
	// keep only the first occurrence.
	seen := make(map[[3]uint32]bool)
	indices := make([]uint32, 0, len(m.Indices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a := remap[m.Indices[i]]
		b := remap[m.Indices[i+1]]
		c := remap[m.Indices[i+2]]
		if a == b || b == c || a == c {
			continue
		}
		key := [3]uint32{a, b, c}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		if key[1] > key[2] {
			key[1], key[2] = key[2], key[1]
		}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		indices = append(indices, a, b, c)
	}
	return indices
}

// perimeterVertices flags vertices on the horizontal rim of the mesh's
// bounding box. For heightfield chunks this is exactly the border shared
// with neighbors, and unlike edge-topology detection it stays stable across
// chained simplification passes.
func perimeterVertices(m *terrain.Mesh) []bool {
	extentX := m.Bounds.Max[0] - m.Bounds.Min[0]
	extentZ := m.Bounds.Max[2] - m.Bounds.Min[2]
	eps := float32(math.Max(float64(extentX), float64(extentZ))) * 1e-5

	locked := make([]bool, len(m.Vertices))
	for i := range m.Vertices {
		p := m.Vertices[i].Position
		locked[i] = p[0]-m.Bounds.Min[0] <= eps || m.Bounds.Max[0]-p[0] <= eps ||
			p[2]-m.Bounds.Min[2] <= eps || m.Bounds.Max[2]-p[2] <= eps
	}
	return locked
}

func horizontalExtent(m *terrain.Mesh) float64 {
	extentX := float64(m.Bounds.Max[0] - m.Bounds.Min[0])
	extentZ := float64(m.Bounds.Max[2] - m.Bounds.Min[2])
	return math.Max(extentX, extentZ)
}

// clusterCellSize derives the merge cell edge from the mesh's horizontal
// extent and the requested triangle ratio. A regular grid of n*n*2 triangles
// keeps roughly ratio of them when the linear resolution shrinks by
// sqrt(ratio).
func clusterCellSize(m *terrain.Mesh, ratio float64) float64 {
	tris := m.TriangleCount()
	if tris < 2 {
		return 0
	}

	extent := horizontalExtent(m)
	if extent <= 0 {
		return 0
	}

	resolution := math.Sqrt(float64(tris)/2) * math.Sqrt(ratio)
	if resolution < 1 {
		resolution = 1
	}
	return extent / resolution
}
