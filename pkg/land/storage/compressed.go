package storage

import "math/bits"

// subchunksPerAxis subdivides a ChunkSize^3 cube into 4x4x4 = 64
// subchunks of 8^3 voxels each, matching the 64-bit node mask.
const (
	subchunksPerAxis = ChunkSize / subchunkVoxels
	subchunkVoxels   = 8

	leavesPerAxis = subchunkVoxels / leafVoxels
	leafVoxels    = 2
)

// gridBit maps a position in a 4x4x4 grid to its bit in a 64-bit mask.
// Both the subchunk grid (4x4x4 blocks per chunk) and the leaf grid
// (4x4x4 leaves per subchunk) happen to share this shape.
func gridBit(a, x, z int) uint {
	return uint(a*leavesPerAxis*leavesPerAxis + x*leavesPerAxis + z)
}

// rankBefore counts the set bits of mask below position bit, i.e. the
// index this bit's payload occupies among the mask's set bits.
func rankBefore(mask uint64, bit uint) int {
	return bits.OnesCount64(mask & (uint64(1)<<bit - 1))
}

// subchunk holds one non-uniform-chunk-wide 8^3 block: either a single
// value (the whole block differs from the chunk's background but is
// itself uniform) or a further two-level decomposition into 2^3 leaves.
type subchunk[T comparable] struct {
	uniform  bool
	value    T
	leafMask uint64 // bit set => leaf is not uniform and is stored raw
	leafVals []T    // one per CLEAR leafMask bit, ascending bit order
	leafRaw  [][8]T // one per SET leafMask bit, ascending bit order
}

// CompressedChunkStorage is the chunk-resident representation of a
// ChunkSize^3 voxel cube: a single background value plus, for any 8^3
// subchunk that differs from it, either a uniform override or a
// per-2^3-leaf decomposition. Round-trips exactly through Expand.
//
// The zero value is a valid, fully-uniform storage of T's zero value —
// matching spec.md §4.H's "all fields zero-initialize to the
// uniform-zero state".
type CompressedChunkStorage[T comparable] struct {
	uniform   bool
	value     T
	nodeMask  uint64
	subchunks []subchunk[T]
}

// NewCompressedChunkStorage builds a compressed representation of the
// dense data behind view, which must be ChunkSize^3.
func NewCompressedChunkStorage[T comparable](view CubeArrayView[T]) *CompressedChunkStorage[T] {
	cs := &CompressedChunkStorage[T]{}
	// The background is the value held by the most uniform subchunks (on a
	// tie, the one that reached that count first in scan order).
	background := view.At(0, 0, 0)
	uniformCounts := make(map[T]int)
	for sy := 0; sy < subchunksPerAxis; sy++ {
		for sx := 0; sx < subchunksPerAxis; sx++ {
			for sz := 0; sz < subchunksPerAxis; sz++ {
				if u, v := scanUniform(view.SubView(sy*subchunkVoxels, sx*subchunkVoxels, sz*subchunkVoxels, subchunkVoxels)); u {
					if uniformCounts[v]++; uniformCounts[v] > uniformCounts[background] {
						background = v
					}
				}
			}
		}
	}

	var nodeMask uint64
	var subs []subchunk[T]

	for sy := 0; sy < subchunksPerAxis; sy++ {
		for sx := 0; sx < subchunksPerAxis; sx++ {
			for sz := 0; sz < subchunksPerAxis; sz++ {
				block := view.SubView(sy*subchunkVoxels, sx*subchunkVoxels, sz*subchunkVoxels, subchunkVoxels)
				uniform, val := scanUniform(block)
				if uniform && val == background {
					continue
				}

				bit := gridBit(sy, sx, sz)
				nodeMask |= 1 << bit

				sc := subchunk[T]{uniform: uniform, value: val}
				if !uniform {
					sc = buildSubchunk(block, val)
				}
				subs = append(subs, sc)
			}
		}
	}

	if nodeMask == 0 {
		cs.uniform = true
		cs.value = background
		return cs
	}

	cs.value = background
	cs.nodeMask = nodeMask
	cs.subchunks = subs
	return cs
}

// buildSubchunk decomposes a non-uniform 8^3 block into its 4x4x4 grid
// of 2^3 leaves, storing each uniform leaf as its single value and every
// other leaf as 8 raw values. The second argument is unused: each leaf
// is only compared against its own first voxel.
func buildSubchunk[T comparable](block CubeArrayView[T], _ T) subchunk[T] {
	var leafMask uint64
	var leafVals []T
	var leafRaw [][8]T

	for ly := 0; ly < leavesPerAxis; ly++ {
		for lx := 0; lx < leavesPerAxis; lx++ {
			for lz := 0; lz < leavesPerAxis; lz++ {
				leaf := block.SubView(ly*leafVoxels, lx*leafVoxels, lz*leafVoxels, leafVoxels)
				uniform, val := scanUniform(leaf)
				bit := gridBit(ly, lx, lz)
				if uniform {
					leafVals = append(leafVals, val)
					continue
				}
				leafMask |= 1 << bit
				leafRaw = append(leafRaw, extractLeaf(leaf))
			}
		}
	}

	return subchunk[T]{leafMask: leafMask, leafVals: leafVals, leafRaw: leafRaw}
}

func scanUniform[T comparable](v CubeArrayView[T]) (uniform bool, val T) {
	val = v.At(0, 0, 0)
	for y := 0; y < v.Size(); y++ {
		for x := 0; x < v.Size(); x++ {
			for z := 0; z < v.Size(); z++ {
				if v.At(y, x, z) != val {
					return false, val
				}
			}
		}
	}
	return true, val
}

func extractLeaf[T comparable](v CubeArrayView[T]) [8]T {
	var out [8]T
	i := 0
	for y := 0; y < leafVoxels; y++ {
		for x := 0; x < leafVoxels; x++ {
			for z := 0; z < leafVoxels; z++ {
				out[i] = v.At(y, x, z)
				i++
			}
		}
	}
	return out
}

// Load returns the voxel value at (x, y, z) by direct bit navigation
// through the node mask and, if necessary, the owning subchunk's leaf
// mask — no scan, no allocation.
func (c *CompressedChunkStorage[T]) Load(y, x, z int) T {
	if c.uniform {
		return c.value
	}

	sBit := gridBit(y/subchunkVoxels, x/subchunkVoxels, z/subchunkVoxels)
	if c.nodeMask&(1<<sBit) == 0 {
		return c.value
	}
	sc := &c.subchunks[rankBefore(c.nodeMask, sBit)]
	if sc.uniform {
		return sc.value
	}

	ly, lx, lz := (y%subchunkVoxels)/leafVoxels, (x%subchunkVoxels)/leafVoxels, (z%subchunkVoxels)/leafVoxels
	lBit := gridBit(ly, lx, lz)
	fy, fx, fz := y%leafVoxels, x%leafVoxels, z%leafVoxels
	idx := fy*leafVoxels*leafVoxels + fx*leafVoxels + fz

	if sc.leafMask&(1<<lBit) == 0 {
		return sc.leafVals[rankBefore(^sc.leafMask, lBit)]
	}
	return sc.leafRaw[rankBefore(sc.leafMask, lBit)][idx]
}

// SetUniform collapses the entire storage to a single value, discarding
// any subchunk/leaf decomposition.
func (c *CompressedChunkStorage[T]) SetUniform(v T) {
	c.uniform = true
	c.value = v
	c.nodeMask = 0
	c.subchunks = nil
}

// Uniform reports whether the whole storage currently holds one value,
// and returns it.
func (c *CompressedChunkStorage[T]) Uniform() (T, bool) {
	return c.value, c.uniform || c.nodeMask == 0
}

// NonUniformSubchunks returns the number of 8^3 subchunks that differ
// from the chunk's background value, for tests and diagnostics.
func (c *CompressedChunkStorage[T]) NonUniformSubchunks() int {
	return bits.OnesCount64(c.nodeMask)
}

// NonUniformLeaves returns, for the subchunk at the given 0..63 node-mask
// bit position, how many of its 2^3 leaves are stored raw rather than as
// a single uniform value. Used by tests asserting compression shape.
func (c *CompressedChunkStorage[T]) NonUniformLeaves(subchunkBit uint) int {
	if c.nodeMask&(1<<subchunkBit) == 0 {
		return 0
	}
	sc := &c.subchunks[rankBefore(c.nodeMask, subchunkBit)]
	if sc.uniform {
		return 0
	}
	return bits.OnesCount64(sc.leafMask)
}

// Expand writes the full ChunkSize^3 decompressed contents into dst.
func (c *CompressedChunkStorage[T]) Expand(dst CubeArrayView[T]) {
	for y := 0; y < dst.Size(); y++ {
		for x := 0; x < dst.Size(); x++ {
			for z := 0; z < dst.Size(); z++ {
				dst.Set(y, x, z, c.Load(y, x, z))
			}
		}
	}
}
