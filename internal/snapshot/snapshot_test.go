package snapshot

import (
	"bytes"
	"testing"

	"github.com/veldtworks/veldt/internal/batch"
	"github.com/veldtworks/veldt/internal/terrain"
)

func buildPool(t *testing.T) *batch.Pool {
	t.Helper()
	pool, err := batch.NewPool(2, 4, 6, 2, 0.5, 2)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	mesh := &terrain.Mesh{
		Vertices: []terrain.Vertex{
			{Position: [3]float32{0, 0, 0}},
			{Position: [3]float32{1, 0, 0}},
			{Position: [3]float32{0, 0, 1}},
			{Position: [3]float32{1, 0, 1}},
		},
		Indices: []uint32{0, 2, 1, 1, 2, 3},
		Bounds:  terrain.NewBounds(),
	}
	for _, v := range mesh.Vertices {
		mesh.Bounds.Expand(v.Position)
	}

	slot, err := pool.Allocate(mesh)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	variant := &terrain.Mesh{Vertices: mesh.Vertices, Indices: mesh.Indices[:3], Bounds: mesh.Bounds}
	if err := pool.RegisterLOD(slot, variant, 100); err != nil {
		t.Fatalf("RegisterLOD: %v", err)
	}
	if _, err := pool.AddInstance(slot); err != nil {
		t.Fatalf("AddInstance: %v", err)
	}
	return pool
}

func TestRoundTrip(t *testing.T) {
	pool := buildPool(t)

	var buf bytes.Buffer
	if err := Write(&buf, pool); err != nil {
		t.Fatalf("Write: %v", err)
	}

	snap, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(snap.Vertices) != len(pool.Vertices()) {
		t.Fatalf("decoded %d vertices, want %d", len(snap.Vertices), len(pool.Vertices()))
	}
	for i, v := range pool.Vertices() {
		if snap.Vertices[i] != v {
			t.Fatalf("vertex %d = %+v, want %+v", i, snap.Vertices[i], v)
		}
	}
	for i, idx := range pool.Indices() {
		if snap.Indices[i] != idx {
			t.Fatalf("index %d = %d, want %d", i, snap.Indices[i], idx)
		}
	}

	if len(snap.Slots) != 1 {
		t.Fatalf("decoded %d slots, want 1", len(snap.Slots))
	}
	slot := snap.Slots[0]
	src := pool.Slots()[0]
	if int(slot.VertexCount) != src.VertexCount || int(slot.IndexReserved) != src.IndexReserved {
		t.Errorf("slot record %+v does not match source %+v", slot, src)
	}
	if len(slot.LODs) != 1 || slot.LODs[0].Threshold != 100 {
		t.Errorf("lod records = %+v, want one at threshold 100", slot.LODs)
	}

	if len(snap.Instances) != 1 {
		t.Fatalf("decoded %d instances, want 1", len(snap.Instances))
	}
	if snap.Instances[0].Slot != 0 {
		t.Errorf("instance references slot %d, want 0", snap.Instances[0].Slot)
	}
	// AddInstance starts instances at identity.
	if snap.Instances[0].Transform[0] != 1 || snap.Instances[0].Transform[5] != 1 {
		t.Errorf("instance transform = %v, want identity", snap.Instances[0].Transform)
	}
}

func TestReadRejectsCorruptStream(t *testing.T) {
	pool := buildPool(t)
	var buf bytes.Buffer
	if err := Write(&buf, pool); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw := buf.Bytes()
	raw[0] ^= 0xFF
	if _, err := Read(bytes.NewReader(raw)); err == nil {
		t.Error("Read accepted a corrupted stream")
	}
}
