// Package batch packs per-chunk geometry, LOD index variants and instance
// transforms into fixed-capacity shared buffers for batched rendering.
package batch

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/veldtworks/veldt/internal/terrain"
)

// ErrCapacityExceeded reports that an allocation would overrun the pool's
// fixed vertex, index or instance capacity.
var ErrCapacityExceeded = errors.New("buffer capacity exceeded")

// InstanceID identifies one placed chunk in the shared instance table.
type InstanceID int

// LODRange locates one simplified index variant inside a geometry slot's
// reserved index region.
type LODRange struct {
	Start     int
	Count     int
	Threshold float64
}

// GeometrySlot is one chunk's reservation in the shared buffers. The slot
// holds the full-resolution mesh plus index room for its LOD variants,
// sized as IndexCount times the pool's reserve multiplier.
type GeometrySlot struct {
	ID            int
	VertexStart   int
	VertexCount   int
	IndexStart    int
	IndexCount    int
	IndexReserved int
	LODs          []LODRange
	Bounds        terrain.Bounds
}

// Instance is one placed occurrence of a geometry slot.
type Instance struct {
	Slot      *GeometrySlot
	Transform mgl32.Mat4
}

// Range is a half-open dirty interval in one of the shared buffers.
type Range struct {
	Start int
	End   int
}

func (r Range) empty() bool { return r.Start >= r.End }

func (r Range) extend(start, end int) Range {
	if r.empty() {
		return Range{Start: start, End: end}
	}
	if start < r.Start {
		r.Start = start
	}
	if end > r.End {
		r.End = end
	}
	return r
}

// Pool owns the shared vertex, index and instance storage. Capacity is
// fixed at construction; allocations bump watermarks and are never
// fragmented. The pool is not internally synchronized: one orchestration
// path mutates it at a time.
type Pool struct {
	vertices  []terrain.Vertex
	indices   []uint32
	instances []Instance
	slots     []*GeometrySlot

	vertexUsed int
	indexUsed  int

	maxInstances int
	lodLevels    int
	reserve      float64

	dirtyVertex   Range
	dirtyIndex    Range
	dirtyInstance Range
}

// NewPool allocates shared storage for maxInstances chunks of
// verticesPerChunk vertices and indicesPerChunk indices each, with the index
// buffer oversized by reserveMultiplier to hold LOD variants. The multiplier
// is validated against the configured chain: it must cover the base mesh
// plus lodLevels variants shrinking by lodRatio per level.
func NewPool(maxInstances, verticesPerChunk, indicesPerChunk, lodLevels int, lodRatio, reserveMultiplier float64) (*Pool, error) {
	switch {
	case maxInstances <= 0:
		return nil, fmt.Errorf("max instances must be positive, got %d", maxInstances)
	case verticesPerChunk <= 0 || indicesPerChunk <= 0:
		return nil, fmt.Errorf("per-chunk capacity must be positive, got %d vertices / %d indices",
			verticesPerChunk, indicesPerChunk)
	case lodLevels <= 0:
		return nil, fmt.Errorf("lod level count must be positive, got %d", lodLevels)
	case reserveMultiplier < 1:
		return nil, fmt.Errorf("reserve multiplier must be at least 1, got %v", reserveMultiplier)
	}

	if required := requiredReserve(lodLevels, lodRatio); reserveMultiplier < required {
		return nil, fmt.Errorf("reserve multiplier %v cannot hold %d lod levels at ratio %v (need >= %.4f)",
			reserveMultiplier, lodLevels, lodRatio, required)
	}

	return &Pool{
		vertices:     make([]terrain.Vertex, maxInstances*verticesPerChunk),
		indices:      make([]uint32, int(float64(maxInstances*indicesPerChunk)*reserveMultiplier)),
		instances:    make([]Instance, 0, maxInstances),
		maxInstances: maxInstances,
		lodLevels:    lodLevels,
		reserve:      reserveMultiplier,
	}, nil
}

// requiredReserve is the index room one chunk needs relative to its base
// mesh: the base itself plus each level at ratio^level of the base.
func requiredReserve(levels int, ratio float64) float64 {
	total := 1.0
	for i := 1; i <= levels; i++ {
		total += math.Pow(ratio, float64(i))
	}
	return total
}

// Allocate reserves a geometry slot for base and writes its vertices and
// indices into the shared buffers. Stored indices are rebased to the slot's
// vertex offset so the buffer can be drawn directly.
func (p *Pool) Allocate(base *terrain.Mesh) (*GeometrySlot, error) {
	if len(p.slots) >= p.maxInstances {
		return nil, fmt.Errorf("allocating geometry slot %d: %w", len(p.slots), ErrCapacityExceeded)
	}

	reserved := int(float64(len(base.Indices)) * p.reserve)
	if p.vertexUsed+len(base.Vertices) > len(p.vertices) {
		return nil, fmt.Errorf("vertex buffer full (%d used, %d requested): %w",
			p.vertexUsed, len(base.Vertices), ErrCapacityExceeded)
	}
	if p.indexUsed+reserved > len(p.indices) {
		return nil, fmt.Errorf("index buffer full (%d used, %d requested): %w",
			p.indexUsed, reserved, ErrCapacityExceeded)
	}

	slot := &GeometrySlot{
		ID:            len(p.slots),
		VertexStart:   p.vertexUsed,
		VertexCount:   len(base.Vertices),
		IndexStart:    p.indexUsed,
		IndexCount:    len(base.Indices),
		IndexReserved: reserved,
		Bounds:        base.Bounds,
	}

	copy(p.vertices[slot.VertexStart:], base.Vertices)
	for i, idx := range base.Indices {
		p.indices[slot.IndexStart+i] = idx + uint32(slot.VertexStart)
	}

	p.vertexUsed += slot.VertexCount
	p.indexUsed += reserved
	p.slots = append(p.slots, slot)

	p.dirtyVertex = p.dirtyVertex.extend(slot.VertexStart, slot.VertexStart+slot.VertexCount)
	p.dirtyIndex = p.dirtyIndex.extend(slot.IndexStart, slot.IndexStart+slot.IndexCount)
	return slot, nil
}

// RegisterLOD appends one simplified index variant to the slot. Variants
// must arrive in display order with strictly increasing distance thresholds,
// must reference the slot's own vertex range, and must fit the slot's
// reserved index room. A variant identical to its predecessor is recorded
// as an alias of the predecessor's range and consumes no reserve.
func (p *Pool) RegisterLOD(slot *GeometrySlot, m *terrain.Mesh, threshold float64) error {
	if len(slot.LODs) >= p.lodLevels {
		return fmt.Errorf("slot %d already holds %d lod levels", slot.ID, p.lodLevels)
	}
	if n := len(slot.LODs); n > 0 && threshold <= slot.LODs[n-1].Threshold {
		return fmt.Errorf("lod threshold %v not above previous %v", threshold, slot.LODs[n-1].Threshold)
	}
	if len(m.Vertices) != slot.VertexCount {
		return fmt.Errorf("lod mesh has %d vertices, slot %d holds %d", len(m.Vertices), slot.ID, slot.VertexCount)
	}

	// A variant that failed to shrink arrives identical to its predecessor;
	// alias the predecessor's range instead of storing a second copy, so
	// degenerate levels never eat into the reserve.
	prevStart, prevCount := slot.IndexStart, slot.IndexCount
	if n := len(slot.LODs); n > 0 {
		prevStart, prevCount = slot.LODs[n-1].Start, slot.LODs[n-1].Count
	}
	if len(m.Indices) == prevCount {
		same := true
		for i, idx := range m.Indices {
			if p.indices[prevStart+i] != idx+uint32(slot.VertexStart) {
				same = false
				break
			}
		}
		if same {
			slot.LODs = append(slot.LODs, LODRange{Start: prevStart, Count: prevCount, Threshold: threshold})
			return nil
		}
	}

	// Write watermark inside the reserved region. Aliased variants fall
	// below it and cost nothing.
	used := slot.IndexCount
	for _, l := range slot.LODs {
		if end := l.Start + l.Count - slot.IndexStart; end > used {
			used = end
		}
	}
	if used+len(m.Indices) > slot.IndexReserved {
		return fmt.Errorf("slot %d lod variant needs %d indices, %d reserved: %w",
			slot.ID, used+len(m.Indices), slot.IndexReserved, ErrCapacityExceeded)
	}

	start := slot.IndexStart + used
	for i, idx := range m.Indices {
		p.indices[start+i] = idx + uint32(slot.VertexStart)
	}
	slot.LODs = append(slot.LODs, LODRange{Start: start, Count: len(m.Indices), Threshold: threshold})
	p.dirtyIndex = p.dirtyIndex.extend(start, start+len(m.Indices))
	return nil
}

// AddInstance places one occurrence of the slot and returns its identity.
// The transform starts as identity; call SetTransform before indexing the
// instance spatially.
func (p *Pool) AddInstance(slot *GeometrySlot) (InstanceID, error) {
	if len(p.instances) >= p.maxInstances {
		return 0, fmt.Errorf("instance table full (%d): %w", p.maxInstances, ErrCapacityExceeded)
	}
	id := InstanceID(len(p.instances))
	p.instances = append(p.instances, Instance{Slot: slot, Transform: mgl32.Ident4()})
	p.dirtyInstance = p.dirtyInstance.extend(int(id), int(id)+1)
	return id, nil
}

// SetTransform updates an instance's placement matrix.
func (p *Pool) SetTransform(id InstanceID, transform mgl32.Mat4) error {
	if int(id) < 0 || int(id) >= len(p.instances) {
		return fmt.Errorf("unknown instance %d", id)
	}
	p.instances[id].Transform = transform
	p.dirtyInstance = p.dirtyInstance.extend(int(id), int(id)+1)
	return nil
}

// InstanceBounds returns the instance's geometry bounds in world space.
func (p *Pool) InstanceBounds(id InstanceID) (terrain.Bounds, error) {
	if int(id) < 0 || int(id) >= len(p.instances) {
		return terrain.Bounds{}, fmt.Errorf("unknown instance %d", id)
	}
	inst := p.instances[id]
	return inst.Slot.Bounds.Transform(inst.Transform), nil
}

// Release rolls back the most recent allocation, restoring the buffer
// watermarks. Only the newest slot can be released; the pool never
// compacts. Instances referencing the slot are dropped with it.
func (p *Pool) Release(slot *GeometrySlot) error {
	if len(p.slots) == 0 || p.slots[len(p.slots)-1] != slot {
		return fmt.Errorf("slot %d is not the most recent allocation", slot.ID)
	}
	for len(p.instances) > 0 && p.instances[len(p.instances)-1].Slot == slot {
		p.instances = p.instances[:len(p.instances)-1]
	}
	p.slots = p.slots[:len(p.slots)-1]
	p.vertexUsed = slot.VertexStart
	p.indexUsed = slot.IndexStart
	return nil
}

// LODForDistance selects the index variant for a viewing distance: -1 keeps
// the full-resolution base mesh, otherwise the deepest level whose threshold
// the distance has passed.
func LODForDistance(slot *GeometrySlot, distance float64) int {
	selected := -1
	for i, l := range slot.LODs {
		if distance >= l.Threshold {
			selected = i
		}
	}
	return selected
}

// Vertices returns the populated prefix of the shared vertex buffer.
func (p *Pool) Vertices() []terrain.Vertex { return p.vertices[:p.vertexUsed] }

// Indices returns the reserved prefix of the shared index buffer, including
// unwritten LOD reserve gaps.
func (p *Pool) Indices() []uint32 { return p.indices[:p.indexUsed] }

// Slots returns the allocated geometry slots in allocation order.
func (p *Pool) Slots() []*GeometrySlot { return p.slots }

// Instances returns the shared instance table.
func (p *Pool) Instances() []Instance { return p.instances }

// InstanceCount returns the number of placed instances.
func (p *Pool) InstanceCount() int { return len(p.instances) }

// Utilization summarizes buffer occupancy.
type Utilization struct {
	VerticesUsed   int
	VertexCapacity int
	IndicesUsed    int
	IndexCapacity  int
	Instances      int
	MaxInstances   int
}

// Usage reports current buffer occupancy.
func (p *Pool) Usage() Utilization {
	return Utilization{
		VerticesUsed:   p.vertexUsed,
		VertexCapacity: len(p.vertices),
		IndicesUsed:    p.indexUsed,
		IndexCapacity:  len(p.indices),
		Instances:      len(p.instances),
		MaxInstances:   p.maxInstances,
	}
}

// DirtyRanges returns the vertex, index and instance ranges touched since
// the last Flush, for upload to the rendering backend.
func (p *Pool) DirtyRanges() (vertex, index, instance Range) {
	return p.dirtyVertex, p.dirtyIndex, p.dirtyInstance
}

// Flush clears the dirty ranges after an upload.
func (p *Pool) Flush() {
	p.dirtyVertex = Range{}
	p.dirtyIndex = Range{}
	p.dirtyInstance = Range{}
}
