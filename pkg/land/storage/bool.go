package storage

import "math/bits"

// boolSubchunk is the bool specialization of subchunk: a leaf's 8 values
// pack into one byte instead of [8]bool, so a whole non-uniform
// subchunk's raw leaves fit in a single uint64 bit table (8 bytes for up
// to 64 leaves) rather than a slice of [8]bool, per spec.md §4.H's
// bool-specialization note.
type boolSubchunk struct {
	uniform  bool
	value    bool
	leafMask uint64 // bit set => leaf is non-uniform, raw bits live in leafBits
	leafVals uint64 // bit i => value of the i-th CLEAR-leafMask leaf, packed
	leafBits []uint8 // one packed byte per SET leafMask bit, ascending order
}

// CompressedBoolStorage is CompressedChunkStorage specialized for bool:
// every per-leaf payload that would otherwise be [8]bool collapses into
// bit tables, since 8 bools cost nothing more than a byte.
type CompressedBoolStorage struct {
	uniform   bool
	value     bool
	nodeMask  uint64
	subchunks []boolSubchunk
}

// NewCompressedBoolStorage builds a compressed representation of the
// dense bool data behind view, which must be ChunkSize^3.
func NewCompressedBoolStorage(view CubeArrayView[bool]) *CompressedBoolStorage {
	cs := &CompressedBoolStorage{}
	background := view.At(0, 0, 0)

	var nodeMask uint64
	var subs []boolSubchunk

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

				sc := boolSubchunk{uniform: uniform, value: val}
				if !uniform {
					sc = buildBoolSubchunk(block)
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

func buildBoolSubchunk(block CubeArrayView[bool]) boolSubchunk {
	var leafMask, leafVals uint64
	var leafBits []uint8

	for ly := 0; ly < leavesPerAxis; ly++ {
		for lx := 0; lx < leavesPerAxis; lx++ {
			for lz := 0; lz < leavesPerAxis; lz++ {
				leaf := block.SubView(ly*leafVoxels, lx*leafVoxels, lz*leafVoxels, leafVoxels)
				uniform, val := scanUniform(leaf)
				bit := gridBit(ly, lx, lz)
				if uniform {
					if val {
						leafVals |= 1 << uint(bits.OnesCount64(^leafMask&(uint64(1)<<bit-1)))
					}
					continue
				}
				leafMask |= 1 << bit
				leafBits = append(leafBits, packLeaf(leaf))
			}
		}
	}

	return boolSubchunk{leafMask: leafMask, leafVals: leafVals, leafBits: leafBits}
}

func packLeaf(v CubeArrayView[bool]) uint8 {
	var out uint8
	idx := 0
	for y := 0; y < leafVoxels; y++ {
		for x := 0; x < leafVoxels; x++ {
			for z := 0; z < leafVoxels; z++ {
				if v.At(y, x, z) {
					out |= 1 << uint(idx)
				}
				idx++
			}
		}
	}
	return out
}

// Load returns the voxel value at (x, y, z).
func (c *CompressedBoolStorage) Load(y, x, z int) bool {
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
		rank := rankBefore(^sc.leafMask, lBit)
		return sc.leafVals&(1<<uint(rank)) != 0
	}
	return sc.leafBits[rankBefore(sc.leafMask, lBit)]&(1<<uint(idx)) != 0
}

// SetUniform collapses the entire storage to a single value.
func (c *CompressedBoolStorage) SetUniform(v bool) {
	c.uniform = true
	c.value = v
	c.nodeMask = 0
	c.subchunks = nil
}

// Uniform reports whether the whole storage currently holds one value.
func (c *CompressedBoolStorage) Uniform() (bool, bool) {
	return c.value, c.uniform
}

// Expand writes the full ChunkSize^3 decompressed contents into dst.
func (c *CompressedBoolStorage) Expand(dst CubeArrayView[bool]) {
	for y := 0; y < dst.Size(); y++ {
		for x := 0; x < dst.Size(); x++ {
			for z := 0; z < dst.Size(); z++ {
				dst.Set(y, x, z, c.Load(y, x, z))
			}
		}
	}
}
