package pseudo

import "github.com/go-gl/mathgl/mgl32"

// Vertex is spec.md §4.K's packed 16-byte GPU vertex format: UNORM16
// position (3x uint16), SNORM 5/6/5 packed normal, 11/11/10 packed
// albedo. original_source/src/voxen/land/pseudo_chunk_surface.cpp
// static_asserts this at exactly 16 bytes, and splits it on the wire
// into two 8-byte substreams — PseudoSurfaceVertexPosition (position
// plus 2 reserved bytes) and PseudoSurfaceVertexAttributes (packed
// normal plus 2 reserved bytes, then packed albedo) — so a position-only
// prepass can read the smaller stream. Kept unpacked here like Face,
// for the same reason: Go has no bitfield syntax, so Pack produces the
// wire words on demand instead of storing them inline (mirroring the
// teacher's Vertex/PackVertex split in pkg/voxel/mesh.go, generalized
// to this wider four-word layout).
type Vertex struct {
	X, Y, Z uint16     // UNORM16, chunk-local position scaled to [0,65535]
	Normal  mgl32.Vec3 // unit vector, quantized on Pack
	Albedo  mgl32.Vec3 // linear RGB in [0,1], quantized on Pack
}

// Pack encodes v into its 16-byte GPU representation, split into the
// position half (word0, word1) and attributes half (word2, word3) per
// the original's two-substream layout: word0 = X|Y<<16, word1 = Z (top
// 16 bits reserved, zero), word2 = packed normal (top 16 bits reserved,
// zero), word3 = packed albedo.
func (v Vertex) Pack() (word0, word1, word2, word3 uint32) {
	word0 = uint32(v.X) | uint32(v.Y)<<16
	word1 = uint32(v.Z)
	n := packSnorm556(v.Normal)
	word2 = uint32(n)
	word3 = packUnorm11_11_10(v.Albedo)
	return
}

func snormComponent(f float32, bits uint) uint32 {
	max := float32(int32(1)<<(bits-1) - 1)
	q := int32(f * max)
	mask := uint32(1)<<bits - 1
	return uint32(q) & mask
}

func packSnorm556(n mgl32.Vec3) uint16 {
	x := snormComponent(n.X(), 5)
	y := snormComponent(n.Y(), 6)
	z := snormComponent(n.Z(), 5)
	return uint16(x | y<<5 | z<<11)
}

func unormComponent(f float32, bits uint) uint32 {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	max := float32(uint32(1)<<bits - 1)
	return uint32(f*max + 0.5)
}

func packUnorm11_11_10(c mgl32.Vec3) uint32 {
	r := unormComponent(c.X(), 11)
	g := unormComponent(c.Y(), 11)
	b := unormComponent(c.Z(), 10)
	return r | g<<11 | b<<22
}

// Triangle is a single packed triangle, indexing Mesh.Vertices.
type Triangle struct {
	A, B, C uint32
}

// Mesh is the triangulated result of one pseudo-chunk's face set,
// ready for the mesh streamer (pkg/gfx/mesh, §4.O) to upload.
type Mesh struct {
	Vertices  []Vertex
	Triangles []Triangle
}

// faceCorners gives, for each orientation, the 4 corner offsets (in
// cell-local units, cell occupying [0,1]^3) of that face's quad in
// counter-clockwise winding as seen from outside the cell — matching
// the teacher's Face.Vertices winding convention in pkg/voxel/mesh.go.
var faceCorners = [6][4][3]float32{
	OrientXPos: {{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
	OrientXNeg: {{0, 0, 1}, {0, 1, 1}, {0, 1, 0}, {0, 0, 0}},
	OrientYPos: {{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
	OrientYNeg: {{0, 0, 1}, {0, 0, 0}, {1, 0, 0}, {1, 0, 1}},
	OrientZPos: {{1, 0, 1}, {1, 1, 1}, {0, 1, 1}, {0, 0, 1}},
	OrientZNeg: {{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
}

// vertexKey identifies a vertex by its originating cell corner and
// orientation, for dedup across faces that share a corner (adjacent
// faces on the same orientation plane reuse it; faces of different
// orientation meeting at a corner intentionally do not, since they
// need distinct normals).
type vertexKey struct {
	cx, cy, cz uint16
	o          Orientation
}

// Triangulate converts faces into an indexed triangle mesh at the
// given chunk-local scale (cellSize voxels per grid unit, matching the
// LOD this face set was produced at), deduplicating vertices shared
// between adjacent faces of the same orientation and accumulating
// normals into them before a final per-vertex normalize pass.
func Triangulate(faces []Face, cellSize float32) Mesh {
	var mesh Mesh
	index := make(map[vertexKey]uint32)
	var accumNormal []mgl32.Vec3

	vertexFor := func(cx, cy, cz float32, o Orientation, albedo mgl32.Vec3) uint32 {
		k := vertexKey{
			cx: uint16(cx*8 + 0.5), cy: uint16(cy*8 + 0.5), cz: uint16(cz*8 + 0.5),
			o: o,
		}
		if idx, ok := index[k]; ok {
			nx, ny, nz := o.Normal()
			accumNormal[idx] = accumNormal[idx].Add(mgl32.Vec3{nx, ny, nz})
			return idx
		}
		idx := uint32(len(mesh.Vertices))
		index[k] = idx
		nx, ny, nz := o.Normal()
		mesh.Vertices = append(mesh.Vertices, Vertex{
			X:      scaleToUnorm16(cx * cellSize),
			Y:      scaleToUnorm16(cy * cellSize),
			Z:      scaleToUnorm16(cz * cellSize),
			Normal: mgl32.Vec3{nx, ny, nz},
			Albedo: albedo,
		})
		accumNormal = append(accumNormal, mgl32.Vec3{nx, ny, nz})
		return idx
	}

	for _, f := range faces {
		corners := faceCorners[f.Orientation]
		r, g, b, _ := unpackColor(f.ColorSRGB)
		albedo := mgl32.Vec3{float32(r), float32(g), float32(b)}

		var idx [4]uint32
		for i, c := range corners {
			idx[i] = vertexFor(
				float32(f.X)+c[0], float32(f.Y)+c[1], float32(f.Z)+c[2],
				f.Orientation, albedo,
			)
		}

		mesh.Triangles = append(mesh.Triangles,
			Triangle{idx[0], idx[1], idx[2]},
			Triangle{idx[0], idx[2], idx[3]},
		)
	}

	for i := range mesh.Vertices {
		n := accumNormal[i]
		if n.Len() > 1e-9 {
			mesh.Vertices[i].Normal = n.Normalize()
		}
	}

	return mesh
}

func scaleToUnorm16(chunkLocal float32) uint16 {
	const chunkExtent = 32
	v := chunkLocal / chunkExtent
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint16(v*65535 + 0.5)
}
