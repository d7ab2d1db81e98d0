package rt

import (
	"testing"
	"time"
)

func TestArenaAllocateAligned(t *testing.T) {
	var a Arena
	sizes := []int{37, 64, 1024, 37}
	aligns := []int{16, 16, MaxAlignment, 16}

	var allocs []Allocation
	for i, size := range sizes {
		al := a.Allocate(size, aligns[i])
		b := al.Bytes()
		if len(b) != size {
			t.Fatalf("allocation %d: got %d bytes, want %d", i, len(b), size)
		}
		if al.offset%aligns[i] != 0 {
			t.Fatalf("allocation %d: offset %d not aligned to %d", i, al.offset, aligns[i])
		}
		allocs = append(allocs, al)
	}

	for _, al := range allocs {
		Free(al)
	}
	a.Close()
}

func TestArenaRejectsOversizedAllocation(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for oversized allocation")
		}
	}()
	var a Arena
	a.Allocate(MaxAllocSize+1, 16)
}

func TestArenaRejectsOversizedAlignment(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for oversized alignment")
		}
	}()
	var a Arena
	a.Allocate(16, MaxAlignment*2)
}

func TestSlabReclaimedAfterAllAllocationsFreed(t *testing.T) {
	var a Arena
	al := a.Allocate(128, 16)
	a.Close() // hands current slab to garbage

	RunGC(1024)
	if garbageSlabs.len() != 1 {
		t.Fatalf("slab with a live allocation should still be garbage, got %d", garbageSlabs.len())
	}

	Free(al)
	RunGC(1024)
	if garbageSlabs.len() != 0 {
		t.Fatalf("slab should have left garbage after its only allocation was freed")
	}
}

func TestStartGCReclaimsPeriodically(t *testing.T) {
	var a Arena
	al := a.Allocate(64, 16)
	a.Close()
	Free(al)

	stop := StartGC(5*time.Millisecond, 1024)
	defer stop()

	deadline := time.After(500 * time.Millisecond)
	for garbageSlabs.len() != 0 {
		select {
		case <-deadline:
			t.Fatal("GC goroutine never reclaimed the drained slab")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
