package pseudo

import "testing"

func TestAggregateHalvesChildCoordinatesAndOffsetsByOctant(t *testing.T) {
	var children [8][]Face
	// Octant 3 (bits 1,1,0: +X,+Y) contributes one face at child-local (10,10,10).
	children[3] = []Face{{X: 10, Y: 10, Z: 10, Orientation: OrientXPos, ColorSRGB: 0xFF808080}}

	out := Aggregate(children)
	if len(out) != 1 {
		t.Fatalf("expected 1 aggregated face, got %d", len(out))
	}
	f := out[0]
	wantX, wantY, wantZ := uint8(10/2+16), uint8(10/2+16), uint8(10/2)
	if f.X != wantX || f.Y != wantY || f.Z != wantZ {
		t.Fatalf("expected parent coords (%d,%d,%d), got (%d,%d,%d)", wantX, wantY, wantZ, f.X, f.Y, f.Z)
	}
}

func TestAggregateMergesFacesAtSameParentCellByAveragingColor(t *testing.T) {
	var children [8][]Face
	// Both faces are in octant 0 (no coordinate offset) and halve to the
	// same parent cell (2/2 == 3/2 == 1), so they must merge into one
	// face whose color averages the two inputs.
	children[0] = []Face{
		{X: 2, Y: 2, Z: 2, Orientation: OrientZPos, ColorSRGB: packColor(1, 0, 0, 1)},
		{X: 3, Y: 2, Z: 2, Orientation: OrientZPos, ColorSRGB: packColor(0, 1, 0, 1)},
	}

	out := Aggregate(children)
	if len(out) != 1 {
		t.Fatalf("expected merge into 1 face for same parent cell, got %d", len(out))
	}
	r, g, _, _ := unpackColor(out[0].ColorSRGB)
	if r < 0.49 || r > 0.51 || g < 0.49 || g > 0.51 {
		t.Fatalf("expected averaged red/green channels near 0.5, got r=%v g=%v", r, g)
	}
}

func TestAggregateKeepsDistinctOctantsSeparate(t *testing.T) {
	var children [8][]Face
	children[0] = []Face{{X: 2, Y: 2, Z: 2, Orientation: OrientZPos, ColorSRGB: packColor(1, 0, 0, 1)}}
	children[1] = []Face{{X: 2, Y: 2, Z: 2, Orientation: OrientZPos, ColorSRGB: packColor(0, 1, 0, 1)}}

	out := Aggregate(children)
	if len(out) != 2 {
		t.Fatalf("expected faces from distinct octants to remain distinct, got %d", len(out))
	}
}
