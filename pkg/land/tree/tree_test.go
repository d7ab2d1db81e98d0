package tree

import "testing"

func TestChunkKeyParentChildRoundTrip(t *testing.T) {
	parent := ChunkKey{X: 3, Y: -2, Z: 5, Lod: 2}
	for octant := 0; octant < 8; octant++ {
		child := parent.Child(octant)
		if child.Parent() != parent {
			t.Fatalf("octant %d: child.Parent() = %+v, want %+v", octant, child.Parent(), parent)
		}
		if got := octantOf(child, parent); got != octant {
			t.Fatalf("octantOf(child of %d) = %d, want %d", octant, got, octant)
		}
	}
}

func TestLookupMissingKeyReportsNotFound(t *testing.T) {
	tr := New(ChunkKey{Lod: 4})
	if _, _, _, ok := tr.Lookup(ChunkKey{Lod: 0}); ok {
		t.Fatal("lookup on empty tree should report not found")
	}
}

func TestSetThenLookupRoundTrips(t *testing.T) {
	tr := New(ChunkKey{Lod: 4})
	ctl := &Control{}
	key := ChunkKey{X: 1, Y: -1, Z: 2, Lod: 0}

	tr.SetVersion(key, 7, "shared-v7", "private-v7", ctl)

	shared, private, version, ok := tr.Lookup(key)
	if !ok || shared != "shared-v7" || private != "private-v7" || version != 7 {
		t.Fatalf("lookup = (%v,%v,%d,%v), want (shared-v7,private-v7,7,true)", shared, private, version, ok)
	}

	// A sibling key must remain untouched.
	sibling := ChunkKey{X: 0, Y: -1, Z: 2, Lod: 0}
	if _, _, _, ok := tr.Lookup(sibling); ok {
		t.Fatal("sibling key should not exist yet")
	}
}

// TestCopyFromSharesUnchangedSubtreesByPointer verifies the core COW
// claim: a node whose version didn't change between two CopyFrom calls
// is reused by identity, not rebuilt.
func TestCopyFromSharesUnchangedSubtreesByPointer(t *testing.T) {
	root := ChunkKey{Lod: 2}
	src := New(root)
	ctl := &Control{}

	keyA := ChunkKey{X: 0, Y: 0, Z: 0, Lod: 0}
	keyB := ChunkKey{X: 1, Y: 0, Z: 0, Lod: 0}
	src.SetVersion(keyA, 1, "A-v1", nil, ctl)
	src.SetVersion(keyB, 1, "B-v1", nil, ctl)

	dst := New(root)
	dst.CopyFrom(src, ctl)

	aNodeFirst := dst.find(keyA)
	bNodeFirst := dst.find(keyB)
	if aNodeFirst == nil || bNodeFirst == nil {
		t.Fatal("expected both leaves to exist after first copy")
	}

	// Bump only A's version in the source, then copy again.
	src.SetVersion(keyA, 2, "A-v2", nil, ctl)
	dst.CopyFrom(src, ctl)

	aNodeSecond := dst.find(keyA)
	bNodeSecond := dst.find(keyB)

	if aNodeSecond == aNodeFirst {
		t.Fatal("A's node should have been rebuilt: its version changed")
	}
	if sharedA, _, _, _ := dst.Lookup(keyA); sharedA != "A-v2" {
		t.Fatalf("A's shared data = %v, want A-v2", sharedA)
	}
	if bNodeSecond != bNodeFirst {
		t.Fatal("B's node should have been shared by pointer: its version didn't change")
	}
}

func TestCopyFromMovesPrivateDataFromSource(t *testing.T) {
	root := ChunkKey{Lod: 1}
	src := New(root)
	ctl := &Control{}
	key := ChunkKey{Lod: 0}
	src.SetVersion(key, 1, "shared", "owned-buffer", ctl)

	dst := New(root)
	dst.CopyFrom(src, ctl)

	_, private, _, ok := dst.Lookup(key)
	if !ok || private != "owned-buffer" {
		t.Fatalf("dst private = %v, want owned-buffer", private)
	}

	srcNode := src.find(key)
	if srcNode.private != nil {
		t.Fatalf("source should no longer own the private data after move, got %v", srcNode.private)
	}
}

func TestTypedStorageTreeCopyFromInvokesTypedCopier(t *testing.T) {
	type chunkShared struct{ Count int }
	root := ChunkKey{Lod: 1}

	src := NewTypedStorageTree[chunkShared, string, struct{}, struct{}](root)
	key := ChunkKey{Lod: 0}
	src.Set(key, 1, chunkShared{Count: 1}, "buf-1")

	dst := NewTypedStorageTree[chunkShared, string, struct{}, struct{}](root)

	var calls int
	copyChunk := func(k ChunkKey, oldVersion, newVersion uint64, dstShared *chunkShared, srcShared chunkShared) {
		calls++
		dstShared.Count = srcShared.Count + dstShared.Count
	}

	dst.CopyFrom(src, copyChunk, nil)
	if calls != 1 {
		t.Fatalf("copier called %d times, want 1", calls)
	}
	shared, private, version, ok := dst.Lookup(key)
	if !ok || shared.Count != 1 || private != "buf-1" || version != 1 {
		t.Fatalf("dst lookup = (%+v,%q,%d,%v)", shared, private, version, ok)
	}

	// Advance the source and copy again: the copier should accumulate
	// onto the previous destination value.
	src.Set(key, 2, chunkShared{Count: 5}, "buf-2")
	dst.CopyFrom(src, copyChunk, nil)
	shared, private, version, ok = dst.Lookup(key)
	if !ok || shared.Count != 6 || private != "buf-2" || version != 2 {
		t.Fatalf("dst lookup after second copy = (%+v,%q,%d,%v)", shared, private, version, ok)
	}
}
