// Package pseudo implements pseudo-chunk surfaces: a compact, mergeable
// face representation extracted from a LOD0 chunk's voxel ids, then
// aggregated up through coarser LODs without ever re-touching LOD0 data,
// plus the vertex/triangle format the mesh streamer consumes.
//
// Grounded on spec.md §4.K, and on the teacher's pkg/voxel/mesh.go for
// the packing idiom (PackVertex's single-uint32 bitfield layout is
// generalized here into PackedFace/PackedVertex's two-word layouts) and
// pkg/voxel/block.go's per-block-type property table, which the face
// extraction visibility check is adapted from (replacing
// BlockProperties.Solid/Transparent with a direct opaque/transparent
// lookup over the wider uint16 LOD0 block id space land/gen produces).
package pseudo

// Orientation identifies one of the 6 axis-aligned face directions a
// pseudo-chunk face can have, renumbered from the teacher's
// voxel.Direction to match spec.md's packed 3-bit orientation field.
type Orientation uint8

const (
	OrientXPos Orientation = iota
	OrientXNeg
	OrientYPos
	OrientYNeg
	OrientZPos
	OrientZNeg
)

// Normal returns the unit outward normal for o.
func (o Orientation) Normal() (float32, float32, float32) {
	switch o {
	case OrientXPos:
		return 1, 0, 0
	case OrientXNeg:
		return -1, 0, 0
	case OrientYPos:
		return 0, 1, 0
	case OrientYNeg:
		return 0, -1, 0
	case OrientZPos:
		return 0, 0, 1
	case OrientZNeg:
		return 0, 0, -1
	default:
		return 0, 0, 0
	}
}

var orientationOffsets = [6][3]int{
	OrientXPos: {1, 0, 0},
	OrientXNeg: {-1, 0, 0},
	OrientYPos: {0, 1, 0},
	OrientYNeg: {0, -1, 0},
	OrientZPos: {0, 0, 1},
	OrientZNeg: {0, 0, -1},
}

// Face is one pseudo-chunk surface quad with spec.md §4.K's face fields
// (x,y,z: 5 bits each, orientation: 3 bits, flags: 8 bits,
// color_srgb: 32 bits), kept unpacked in Go (struct fields instead of a
// single bitfield) since Go has no portable bitfield syntax — the
// teacher's own PackVertex resorts to explicit shifts for the same
// reason, which Pack/Unpack below reproduce for the wire/GPU-facing
// encoding.
type Face struct {
	X, Y, Z     uint8 // local cell position within the chunk, 0..31
	Orientation Orientation
	Flags       uint8
	ColorSRGB   uint32 // packed RGBA8, sRGB-encoded
}

// FaceFlag bits, matching spec.md's per-face flags.
const (
	FlagTransparent uint8 = 1 << iota
	FlagLiquid
)

// Pack encodes f into two 32-bit words, 8 bytes in all: one uint32 of
// position+orientation+flags, followed by the raw color word. It adds no
// padding word, so the packed face is 8 bytes, not 12.
func (f Face) Pack() (header uint32, color uint32) {
	header = uint32(f.X&31) |
		uint32(f.Y&31)<<5 |
		uint32(f.Z&31)<<10 |
		uint32(f.Orientation&7)<<15 |
		uint32(f.Flags)<<18
	return header, f.ColorSRGB
}

// UnpackFace decodes a (header, color) pair produced by Face.Pack.
func UnpackFace(header, color uint32) Face {
	return Face{
		X:           uint8(header & 31),
		Y:           uint8((header >> 5) & 31),
		Z:           uint8((header >> 10) & 31),
		Orientation: Orientation((header >> 15) & 7),
		Flags:       uint8((header >> 18) & 0xFF),
		ColorSRGB:   color,
	}
}

// isOpaque reports whether block id v occludes a neighboring face. Block
// id 0 is always empty (land/gen's convention); every other id is opaque
// here since the generator doesn't yet emit a transparent block type —
// grounded on voxel.BlockProperties' Solid/Transparent split, narrowed
// to a single predicate until land/gen grows more block kinds.
func isOpaque(v uint16) bool { return v != 0 }

func colorForBlock(v uint16) uint32 {
	switch v {
	case 1:
		return 0xFF808080 // solid: grey
	case 2:
		return 0xFF4A9C3E // surface layer: green
	default:
		return 0xFFFFFFFF
	}
}

// ExtractFaces walks a LOD0 chunk's expanded voxel grid (34^3: the
// chunk's own 32^3 cube plus a 1-voxel halo on every side, so boundary
// faces can be tested against the neighboring chunk without a separate
// cross-chunk special case) and emits one Face per visible (opaque
// cell, transparent/out-of-range neighbor) boundary, per spec.md §4.K.
//
// expanded is indexed expanded[y+1][x+1][z+1] for cell (y,x,z) in
// 0..31, with index 0 and 33 holding the halo from land/gen's adjacent
// chunks (or 0 if unavailable, expressing "neighbor chunk not loaded,
// treat its face as exposed").
func ExtractFaces(expanded [34][34][34]uint16) []Face {
	var faces []Face

	at := func(y, x, z int) uint16 { return expanded[y+1][x+1][z+1] }

	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			for z := 0; z < 32; z++ {
				v := at(y, x, z)
				if !isOpaque(v) {
					continue
				}
				color := colorForBlock(v)

				for o := Orientation(0); o < 6; o++ {
					off := orientationOffsets[o]
					nv := at(y+off[1], x+off[0], z+off[2])
					if isOpaque(nv) {
						continue
					}
					faces = append(faces, Face{
						X: uint8(x), Y: uint8(y), Z: uint8(z),
						Orientation: o,
						ColorSRGB:   color,
					})
				}
			}
		}
	}

	return faces
}
