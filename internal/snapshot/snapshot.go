// Package snapshot serializes packed terrain geometry to a compressed
// binary stream so a baked surface can be written to disk and reloaded
// without regenerating it.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/veldtworks/veldt/internal/batch"
	"github.com/veldtworks/veldt/internal/terrain"
)

const (
	magic   uint32 = 0x56454C44 // "VELD"
	version uint32 = 1
)

// LODRecord mirrors one LOD index range of a geometry slot.
type LODRecord struct {
	Start     int32
	Count     int32
	Threshold float64
}

// SlotRecord mirrors one geometry slot's buffer reservation.
type SlotRecord struct {
	VertexStart   int32
	VertexCount   int32
	IndexStart    int32
	IndexCount    int32
	IndexReserved int32
	LODs          []LODRecord
}

// InstanceRecord mirrors one placed instance.
type InstanceRecord struct {
	Slot      int32
	Transform [16]float32
}

// Snapshot is the decoded content of a geometry stream.
type Snapshot struct {
	Vertices  []terrain.Vertex
	Indices   []uint32
	Slots     []SlotRecord
	Instances []InstanceRecord
}

// Write encodes the pool's packed buffers, slot table and instance table as
// a zstd-compressed little-endian stream.
func Write(w io.Writer, p *batch.Pool) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	vertices := p.Vertices()
	indices := p.Indices()
	slots := p.Slots()
	instances := p.Instances()

	header := []uint32{magic, version,
		uint32(len(vertices)), uint32(len(indices)), uint32(len(slots)), uint32(len(instances))}
	for _, v := range []any{header, vertices, indices} {
		if err := binary.Write(zw, binary.LittleEndian, v); err != nil {
			zw.Close()
			return fmt.Errorf("encoding snapshot: %w", err)
		}
	}

	for _, slot := range slots {
		fixed := []int32{
			int32(slot.VertexStart), int32(slot.VertexCount),
			int32(slot.IndexStart), int32(slot.IndexCount), int32(slot.IndexReserved),
			int32(len(slot.LODs)),
		}
		if err := binary.Write(zw, binary.LittleEndian, fixed); err != nil {
			zw.Close()
			return fmt.Errorf("encoding slot %d: %w", slot.ID, err)
		}
		for _, l := range slot.LODs {
			rec := LODRecord{Start: int32(l.Start), Count: int32(l.Count), Threshold: l.Threshold}
			if err := binary.Write(zw, binary.LittleEndian, rec); err != nil {
				zw.Close()
				return fmt.Errorf("encoding slot %d lods: %w", slot.ID, err)
			}
		}
	}

	slotIDs := make(map[*batch.GeometrySlot]int32, len(slots))
	for i, slot := range slots {
		slotIDs[slot] = int32(i)
	}
	for i, inst := range instances {
		rec := InstanceRecord{Slot: slotIDs[inst.Slot], Transform: [16]float32(inst.Transform)}
		if err := binary.Write(zw, binary.LittleEndian, rec); err != nil {
			zw.Close()
			return fmt.Errorf("encoding instance %d: %w", i, err)
		}
	}

	return zw.Close()
}

// Read decodes a stream produced by Write.
func Read(r io.Reader) (*Snapshot, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer zr.Close()

	var header [6]uint32
	if err := binary.Read(zr, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("decoding header: %w", err)
	}
	if header[0] != magic {
		return nil, fmt.Errorf("bad magic %#x", header[0])
	}
	if header[1] != version {
		return nil, fmt.Errorf("unsupported snapshot version %d", header[1])
	}

	snap := &Snapshot{
		Vertices:  make([]terrain.Vertex, header[2]),
		Indices:   make([]uint32, header[3]),
		Slots:     make([]SlotRecord, header[4]),
		Instances: make([]InstanceRecord, header[5]),
	}
	if err := binary.Read(zr, binary.LittleEndian, snap.Vertices); err != nil {
		return nil, fmt.Errorf("decoding vertices: %w", err)
	}
	if err := binary.Read(zr, binary.LittleEndian, snap.Indices); err != nil {
		return nil, fmt.Errorf("decoding indices: %w", err)
	}

	for i := range snap.Slots {
		var fixed [6]int32
		if err := binary.Read(zr, binary.LittleEndian, &fixed); err != nil {
			return nil, fmt.Errorf("decoding slot %d: %w", i, err)
		}
		slot := SlotRecord{
			VertexStart:   fixed[0],
			VertexCount:   fixed[1],
			IndexStart:    fixed[2],
			IndexCount:    fixed[3],
			IndexReserved: fixed[4],
			LODs:          make([]LODRecord, fixed[5]),
		}
		if err := binary.Read(zr, binary.LittleEndian, slot.LODs); err != nil {
			return nil, fmt.Errorf("decoding slot %d lods: %w", i, err)
		}
		snap.Slots[i] = slot
	}

	if err := binary.Read(zr, binary.LittleEndian, snap.Instances); err != nil {
		return nil, fmt.Errorf("decoding instances: %w", err)
	}
	return snap, nil
}
