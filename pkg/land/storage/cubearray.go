// Package storage implements the engine's chunk-local voxel storage: a
// dense 32^3 cube array for building/editing, and a compressed
// two-level bitmask representation for chunks that sit in the storage
// tree unmodified.
//
// Grounded on spec.md §4.H and original_source's cube_array.hpp /
// chunk_storage.hpp: YXZ indexing (z contiguous), and a view type that
// lets callers operate on sub-cubes without copying.
package storage

// ChunkSize is the fixed edge length of a chunk's voxel grid. The
// original parameterizes CubeArray on N; Go generics have no
// value parameters, so this is pinned to the one size the engine
// actually uses.
const ChunkSize = 32

// CubeArray is a dense ChunkSize^3 array of T, indexed (y, x, z) with z
// contiguous in memory.
type CubeArray[T any] struct {
	data [ChunkSize * ChunkSize * ChunkSize]T
}

func cubeIndex(y, x, z int) int {
	return y*ChunkSize*ChunkSize + x*ChunkSize + z
}

// At returns the value at (y, x, z).
func (c *CubeArray[T]) At(y, x, z int) T {
	return c.data[cubeIndex(y, x, z)]
}

// Set stores v at (y, x, z).
func (c *CubeArray[T]) Set(y, x, z int, v T) {
	c.data[cubeIndex(y, x, z)] = v
}

// Fill overwrites every voxel with v.
func (c *CubeArray[T]) Fill(v T) {
	for i := range c.data {
		c.data[i] = v
	}
}

// View returns a CubeArrayView over the entire array.
func (c *CubeArray[T]) View() CubeArrayView[T] {
	return CubeArrayView[T]{
		data:    c.data[:],
		strideY: ChunkSize * ChunkSize,
		strideX: ChunkSize,
		size:    ChunkSize,
	}
}

// CubeArrayView is a pointer-plus-stride view onto a cube of T values,
// either a whole CubeArray or a cubic sub-region of one. z is always
// contiguous; strideY/strideX carry the backing array's real strides so
// a sub-view still addresses its parent's storage directly.
type CubeArrayView[T any] struct {
	data            []T
	origin          int
	strideY, strideX int
	size            int
}

func (v CubeArrayView[T]) offset(y, x, z int) int {
	return v.origin + y*v.strideY + x*v.strideX + z
}

// Size returns the view's edge length.
func (v CubeArrayView[T]) Size() int { return v.size }

// At returns the value at local coordinate (y, x, z) within the view.
func (v CubeArrayView[T]) At(y, x, z int) T {
	return v.data[v.offset(y, x, z)]
}

// Set stores val at local coordinate (y, x, z) within the view.
func (v CubeArrayView[T]) Set(y, x, z int, val T) {
	v.data[v.offset(y, x, z)] = val
}

// SubView returns a size^3 view rooted at local coordinate (y0, x0, z0)
// within v, sharing the same backing storage.
func (v CubeArrayView[T]) SubView(y0, x0, z0, size int) CubeArrayView[T] {
	return CubeArrayView[T]{
		data:    v.data,
		origin:  v.offset(y0, x0, z0),
		strideY: v.strideY,
		strideX: v.strideX,
		size:    size,
	}
}

// Fill overwrites every voxel in the view with val.
func (v CubeArrayView[T]) Fill(val T) {
	v.FillRect(0, 0, 0, v.size, v.size, v.size, val)
}

// FillRect overwrites the sy*sx*sz box rooted at (y0, x0, z0) with val.
func (v CubeArrayView[T]) FillRect(y0, x0, z0, sy, sx, sz int, val T) {
	for y := 0; y < sy; y++ {
		for x := 0; x < sx; x++ {
			for z := 0; z < sz; z++ {
				v.Set(y0+y, x0+x, z0+z, val)
			}
		}
	}
}

// CopyFrom copies src into dst voxel-by-voxel. Both views must have the
// same size.
func (dst CubeArrayView[T]) CopyFrom(src CubeArrayView[T]) {
	for y := 0; y < dst.size; y++ {
		for x := 0; x < dst.size; x++ {
			for z := 0; z < dst.size; z++ {
				dst.Set(y, x, z, src.At(y, x, z))
			}
		}
	}
}

// Extract flattens v into a YXZ-ordered slice, for callers that need a
// standalone copy of a sub-cube (e.g. to stash a leaf's values inside a
// CompressedChunkStorage).
func (v CubeArrayView[T]) Extract() []T {
	out := make([]T, 0, v.size*v.size*v.size)
	for y := 0; y < v.size; y++ {
		for x := 0; x < v.size; x++ {
			for z := 0; z < v.size; z++ {
				out = append(out, v.At(y, x, z))
			}
		}
	}
	return out
}

// Insert writes a YXZ-ordered slice produced by Extract back into v.
func (v CubeArrayView[T]) Insert(data []T) {
	i := 0
	for y := 0; y < v.size; y++ {
		for x := 0; x < v.size; x++ {
			for z := 0; z < v.size; z++ {
				v.Set(y, x, z, data[i])
				i++
			}
		}
	}
}
