package pseudo

import "testing"

func TestTriangulateSingleFaceProducesOneQuad(t *testing.T) {
	faces := []Face{{X: 4, Y: 4, Z: 4, Orientation: OrientYPos, ColorSRGB: 0xFF808080}}
	mesh := Triangulate(faces, 1)

	if len(mesh.Vertices) != 4 {
		t.Fatalf("expected 4 distinct vertices for a single quad, got %d", len(mesh.Vertices))
	}
	if len(mesh.Triangles) != 2 {
		t.Fatalf("expected 2 triangles for a single quad, got %d", len(mesh.Triangles))
	}
}

func TestTriangulateSharesVerticesBetweenAdjacentSameOrientationFaces(t *testing.T) {
	faces := []Face{
		{X: 4, Y: 4, Z: 4, Orientation: OrientYPos, ColorSRGB: 0xFF808080},
		{X: 5, Y: 4, Z: 4, Orientation: OrientYPos, ColorSRGB: 0xFF808080},
	}
	mesh := Triangulate(faces, 1)

	// Two adjacent top faces share one edge (2 vertices); total unique
	// vertices should be 4+4-2=6, not 8.
	if len(mesh.Vertices) != 6 {
		t.Fatalf("expected 6 unique vertices for two adjacent faces, got %d", len(mesh.Vertices))
	}
}

func TestVertexPackRoundTripPreservesPosition(t *testing.T) {
	v := Vertex{X: 1234, Y: 5678, Z: 9, Normal: [3]float32{0, 1, 0}, Albedo: [3]float32{0.5, 0.25, 0.75}}
	w0, w1, _, _ := v.Pack()
	gotX := uint16(w0 & 0xFFFF)
	gotY := uint16(w0 >> 16)
	gotZ := uint16(w1 & 0xFFFF)
	if gotX != v.X || gotY != v.Y || gotZ != v.Z {
		t.Fatalf("position round trip failed: got (%d,%d,%d), want (%d,%d,%d)", gotX, gotY, gotZ, v.X, v.Y, v.Z)
	}
}

// TestVertexPackIs16Bytes is the hard invariant spec.md §4.K and §8
// require ("output layout must match the vertex format exactly, 16
// bytes per vertex"), confirmed against original_source's
// static_assert(sizeof(PseudoSurfaceVertex) == 16).
func TestVertexPackIs16Bytes(t *testing.T) {
	var v Vertex
	w0, w1, w2, w3 := v.Pack()
	_, _, _, _ = w0, w1, w2, w3
	const wordBytes = 4
	const numWords = 4
	if numWords*wordBytes != 16 {
		t.Fatalf("Vertex.Pack must emit 16 bytes (4 uint32 words), got %d", numWords*wordBytes)
	}
}

func TestVertexPackReservedBitsAreZero(t *testing.T) {
	v := Vertex{X: 1, Y: 2, Z: 3, Normal: [3]float32{1, 0, 0}, Albedo: [3]float32{1, 1, 1}}
	w1, w2 := func() (uint32, uint32) {
		_, w1, w2, _ := v.Pack()
		return w1, w2
	}()
	if w1>>16 != 0 {
		t.Fatalf("expected word1's reserved top 16 bits to be zero, got %#x", w1>>16)
	}
	if w2>>16 != 0 {
		t.Fatalf("expected word2's reserved top 16 bits to be zero, got %#x", w2>>16)
	}
}
