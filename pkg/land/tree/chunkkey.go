// Package tree implements the land subsystem's storage tree: a
// hierarchical chunk/duoctree container indexed by chunk key, with
// shared/private per-node user data and versioned copy-on-write copy
// from one snapshot to another.
//
// Grounded on spec.md §3 ("Chunk coordinate / key", "Storage tree") and
// §4.I, and on original_source's typed_storage_tree.hpp (the typed
// wrapper survives into TypedStorageTree below); the untyped tree it
// forwards to (land_storage_tree.hpp) was not present in the retrieved
// source, so its internals are a reconstruction from the spec text,
// recorded as an Open Question resolution in DESIGN.md.
package tree

// ChunkKey addresses a chunk (or, at Lod > 0, a duoctree node standing
// in for an aggregate of chunks) by its origin in units of its own LOD
// grid, plus its LOD. A chunk at LOD L covers ChunkSize*2^L blocks per
// side from (X,Y,Z)*ChunkSize*2^L.
type ChunkKey struct {
	X, Y, Z int32
	Lod     uint8
}

// Parent returns the key one LOD up whose region contains k, obtained
// by halving (flooring) each coordinate.
func (k ChunkKey) Parent() ChunkKey {
	return ChunkKey{X: k.X >> 1, Y: k.Y >> 1, Z: k.Z >> 1, Lod: k.Lod + 1}
}

// Child returns one of k's 8 children one LOD down. octant's bit 0
// selects X, bit 1 selects Y, bit 2 selects Z. k.Lod must be > 0.
func (k ChunkKey) Child(octant int) ChunkKey {
	return ChunkKey{
		X:   k.X<<1 + int32(octant&1),
		Y:   k.Y<<1 + int32((octant>>1)&1),
		Z:   k.Z<<1 + int32((octant>>2)&1),
		Lod: k.Lod - 1,
	}
}

// ancestorAt walks k up to the given lod, which must be >= k.Lod.
func ancestorAt(k ChunkKey, lod uint8) ChunkKey {
	for k.Lod < lod {
		k = k.Parent()
	}
	return k
}

// octantOf returns which of parent's 8 children contains child, which
// must be parent.Child(result) for some result in 0..7.
func octantOf(child, parent ChunkKey) int {
	dx := child.X - parent.X<<1
	dy := child.Y - parent.Y<<1
	dz := child.Z - parent.Z<<1
	return int(dx) | int(dy)<<1 | int(dz)<<2
}
