package spatial

import (
	"sort"
	"testing"

	"github.com/veldtworks/veldt/internal/batch"
	"github.com/veldtworks/veldt/internal/terrain"
)

func box(minX, minZ, maxX, maxZ float32) terrain.Bounds {
	return terrain.Bounds{
		Min: [3]float32{minX, 0, minZ},
		Max: [3]float32{maxX, 10, maxZ},
	}
}

func queryIDs(x *Index, region terrain.Bounds) []int {
	hits := x.Query(region)
	ids := make([]int, len(hits))
	for i, h := range hits {
		ids[i] = int(h)
	}
	sort.Ints(ids)
	return ids
}

func TestQueryEmptyIndex(t *testing.T) {
	x := New()
	if x.Len() != 0 {
		t.Fatalf("Len = %d, want 0", x.Len())
	}
	if hits := x.Query(box(0, 0, 100, 100)); len(hits) != 0 {
		t.Fatalf("query on empty index returned %v", hits)
	}
}

func TestInsertAndQueryGrid(t *testing.T) {
	x := New()
	// A 4x4 grid of 10-unit chunks.
	id := 0
	for gz := 0; gz < 4; gz++ {
		for gx := 0; gx < 4; gx++ {
			minX, minZ := float32(gx*10), float32(gz*10)
			x.Insert(batch.InstanceID(id), box(minX, minZ, minX+10, minZ+10))
			id++
		}
	}
	if x.Len() != 16 {
		t.Fatalf("Len = %d, want 16", x.Len())
	}

	// A region strictly inside chunk (2, 1) touches only that chunk.
	got := queryIDs(x, box(22, 12, 28, 18))
	if len(got) != 1 || got[0] != 6 {
		t.Errorf("interior query hit %v, want [6]", got)
	}

	// A region spanning the corner where four chunks meet hits all four.
	got = queryIDs(x, box(18, 18, 22, 22))
	want := []int{5, 6, 9, 10}
	if len(got) != len(want) {
		t.Fatalf("corner query hit %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("corner query hit %v, want %v", got, want)
		}
	}

	// A region covering everything returns every instance.
	if got = queryIDs(x, box(-5, -5, 100, 100)); len(got) != 16 {
		t.Errorf("full query hit %d instances, want 16", len(got))
	}

	// A disjoint region returns nothing.
	if got = queryIDs(x, box(500, 500, 600, 600)); len(got) != 0 {
		t.Errorf("disjoint query hit %v, want none", got)
	}
}

func TestInsertOrderIndependence(t *testing.T) {
	// The same chunks inserted in reverse order answer queries identically.
	boxes := []terrain.Bounds{
		box(0, 0, 10, 10),
		box(10, 0, 20, 10),
		box(0, 10, 10, 20),
		box(10, 10, 20, 20),
	}

	forward, reverse := New(), New()
	for i, b := range boxes {
		forward.Insert(batch.InstanceID(i), b)
		reverse.Insert(batch.InstanceID(len(boxes)-1-i), boxes[len(boxes)-1-i])
	}

	region := box(5, 5, 15, 15)
	got, want := queryIDs(forward, region), queryIDs(reverse, region)
	if len(got) != len(want) {
		t.Fatalf("forward hit %v, reverse hit %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("forward hit %v, reverse hit %v", got, want)
		}
	}
}
