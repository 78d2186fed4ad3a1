// Package spatial maintains a bounding-volume tree over placed chunk
// instances for visibility and range queries.
package spatial

import (
	"github.com/veldtworks/veldt/internal/batch"
	"github.com/veldtworks/veldt/internal/terrain"
)

type node struct {
	bounds terrain.Bounds
	left   *node
	right  *node
	id     batch.InstanceID // valid for leaves only
}

func (n *node) leaf() bool { return n.left == nil }

// Index is a binary AABB tree built incrementally as chunks are added.
// Inserts descend toward the child whose box grows least, keeping the tree
// loosely balanced for the mostly-uniform chunk grids it indexes.
type Index struct {
	root  *node
	count int
}

// New returns an empty index.
func New() *Index {
	return &Index{}
}

// Insert adds an instance with its world-space bounds. The caller must have
// finalized the instance transform first, otherwise the tree holds stale
// boxes.
func (x *Index) Insert(id batch.InstanceID, bounds terrain.Bounds) {
	leaf := &node{bounds: bounds, id: id}
	x.count++

	if x.root == nil {
		x.root = leaf
		return
	}

	cur := x.root
	for !cur.leaf() {
		cur.bounds = cur.bounds.Union(bounds)
		if growth(cur.left.bounds, bounds) <= growth(cur.right.bounds, bounds) {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}

	// Split the reached leaf into an internal node holding both.
	cur.left = &node{bounds: cur.bounds, id: cur.id}
	cur.right = leaf
	cur.bounds = cur.bounds.Union(bounds)
	cur.id = 0
}

// Query returns the instances whose bounds overlap region.
func (x *Index) Query(region terrain.Bounds) []batch.InstanceID {
	var hits []batch.InstanceID
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil || !n.bounds.Overlaps(region) {
			return
		}
		if n.leaf() {
			hits = append(hits, n.id)
			return
		}
		walk(n.left)
		walk(n.right)
	}
	walk(x.root)
	return hits
}

// Len returns the number of indexed instances.
func (x *Index) Len() int {
	return x.count
}

// growth measures the surface-area increase of b after absorbing o.
func growth(b, o terrain.Bounds) float32 {
	return surfaceArea(b.Union(o)) - surfaceArea(b)
}

func surfaceArea(b terrain.Bounds) float32 {
	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]
	dz := b.Max[2] - b.Min[2]
	return 2 * (dx*dy + dy*dz + dz*dx)
}
