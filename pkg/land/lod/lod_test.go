package lod

import (
	"testing"

	"github.com/svenny-voxen/voxen-go/pkg/land/tree"
)

func TestUpsertPOIAndDesiredLod(t *testing.T) {
	c := NewController()
	c.UpsertPOI(1, 0, 0, 0)

	// Very close: should want the finest LOD (0).
	if got := c.DesiredLod(1, 0, 0); got != 0 {
		t.Fatalf("expected LOD 0 close to POI, got %d", got)
	}

	// Far away: should want a coarser LOD.
	far := float64(ChunkSize) * (1 << 10)
	if got := c.DesiredLod(far, 0, 0); got == 0 {
		t.Fatalf("expected a coarser LOD far from POI, got %d", got)
	}
}

func TestDesiredLodWithNoPOIsIsZero(t *testing.T) {
	c := NewController()
	if got := c.DesiredLod(1000, 1000, 1000); got != 0 {
		t.Fatalf("expected LOD 0 with no POIs, got %d", got)
	}
}

func TestPOIEvictedAfterMaxAge(t *testing.T) {
	c := NewController()
	c.UpsertPOI(1, 0, 0, 0)

	for i := 0; i < MaxPOIAge+2; i++ {
		c.Tick()
	}

	c.mu.Lock()
	_, ok := c.pois[1]
	c.mu.Unlock()
	if ok {
		t.Fatal("expected POI to be evicted after MaxPOIAge ticks of no refresh")
	}
}

func TestBlockStartsLoadingThenMarkLoadedMovesToStandby(t *testing.T) {
	c := NewController()
	key := tree.ChunkKey{Lod: 0}

	b := c.Block(key)
	if b.State != Loading {
		t.Fatalf("expected fresh block to start Loading, got %v", b.State)
	}

	c.MarkLoaded(key)
	b = c.Block(key)
	if b.State != Standby {
		t.Fatalf("expected block to move to Standby after MarkLoaded, got %v", b.State)
	}
}

func TestUpdateNodeStandbyGoesActiveWhenNoChildrenAndDesiredLodMet(t *testing.T) {
	c := NewController()
	key := tree.ChunkKey{Lod: 2}
	c.MarkLoaded(key)

	c.UpdateNode(key, 5) // desired LOD coarser than key's own: should go Active
	if b := c.Block(key); b.State != Active {
		t.Fatalf("expected Standby node with no children to go Active, got %v", b.State)
	}
}

func TestUpdateNodeActiveSplitsWhenFinerLodWanted(t *testing.T) {
	c := NewController()
	key := tree.ChunkKey{Lod: 2}
	c.MarkLoaded(key)
	c.UpdateNode(key, 5)
	if b := c.Block(key); b.State != Active {
		t.Fatalf("precondition failed: expected Active, got %v", b.State)
	}

	c.UpdateNode(key, 0) // caller now wants finer detail than this node's LOD
	b := c.Block(key)
	if b.State != Standby {
		t.Fatalf("expected Active node to split back to Standby when finer LOD wanted, got %v", b.State)
	}
	if !b.OverActive {
		t.Fatal("expected OverActive to be set after a split")
	}

	for octant := 0; octant < 8; octant++ {
		child, ok := c.blocks[key.Child(octant)]
		if !ok {
			t.Fatalf("expected child %d control block to exist after split", octant)
		}
		if child.State != Loading {
			t.Fatalf("expected freshly created child %d to start Loading, got %v", octant, child.State)
		}
	}
}

func TestUpdateNodeCollapsesWhenAllChildrenActive(t *testing.T) {
	c := NewController()
	key := tree.ChunkKey{Lod: 1}
	c.MarkLoaded(key)
	c.UpdateNode(key, 0) // split

	for octant := 0; octant < 8; octant++ {
		childKey := key.Child(octant)
		c.MarkLoaded(childKey)
		c.UpdateNode(childKey, 0)
		if b := c.Block(childKey); b.State != Active {
			t.Fatalf("expected child %d to be Active, got %v", octant, b.State)
		}
	}

	c.UpdateNode(key, 5) // desired LOD now coarser: should collapse
	b := c.Block(key)
	if b.State != Active {
		t.Fatalf("expected parent to collapse to Active once all children Active, got %v", b.State)
	}
	for octant := 0; octant < 8; octant++ {
		if _, ok := c.blocks[key.Child(octant)]; ok {
			t.Fatalf("expected child %d control block to be unloaded after collapse", octant)
		}
	}
}

func TestSuperchunkEngagesNearPOIAndIdlesOut(t *testing.T) {
	c := NewController()
	c.UpsertPOI(1, 0, 0, 0)
	c.Tick()

	c.mu.Lock()
	n := len(c.superchunks)
	c.mu.Unlock()
	if n == 0 {
		t.Fatal("expected at least one superchunk to exist once a POI is registered")
	}

	originKey := superchunkKeyFor(0, 0, 0)

	// Move the POI far enough away that no superchunk is engaged, then
	// advance past the idle-unload threshold.
	c.UpsertPOI(1, 1e9, 1e9, 1e9)
	for i := 0; i < SuperchunkMaxIdleAge+2; i++ {
		c.Tick()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.superchunks[originKey]; ok {
		t.Fatal("expected origin superchunk to have been unloaded after going idle")
	}
}
