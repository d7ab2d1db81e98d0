package pseudo

import "testing"

func TestFacePackUnpackRoundTrip(t *testing.T) {
	f := Face{X: 7, Y: 19, Z: 31, Orientation: OrientYNeg, Flags: FlagTransparent, ColorSRGB: 0xAABBCCDD}
	header, color := f.Pack()
	got := UnpackFace(header, color)
	if got != f {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, f)
	}
}

func TestExtractFacesSingleSolidCellHasSixFaces(t *testing.T) {
	var grid [34][34][34]uint16
	grid[1+5][1+5][1+5] = 1 // solid cell at local (5,5,5)

	faces := ExtractFaces(grid)
	if len(faces) != 6 {
		t.Fatalf("expected 6 faces for an isolated solid cell, got %d", len(faces))
	}
}

func TestExtractFacesHiddenBetweenTwoSolidCellsAreOmitted(t *testing.T) {
	var grid [34][34][34]uint16
	grid[1+5][1+5][1+5] = 1
	grid[1+5][1+6][1+5] = 1 // adjacent along +X

	faces := ExtractFaces(grid)
	// Two isolated cubes would be 12 faces; the shared interior face on
	// each side must be suppressed, leaving 10.
	if len(faces) != 10 {
		t.Fatalf("expected 10 faces for two adjacent solid cells, got %d", len(faces))
	}
}

func TestExtractFacesEmptyGridProducesNoFaces(t *testing.T) {
	var grid [34][34][34]uint16
	if faces := ExtractFaces(grid); len(faces) != 0 {
		t.Fatalf("expected no faces for an empty grid, got %d", len(faces))
	}
}
