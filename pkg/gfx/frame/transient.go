// Package frame implements the per-tick command allocator, transient
// buffer allocators, and frame context ring that feed the render graph
// (pkg/gfx/graph) one submission per engine tick.
//
// Grounded on spec.md §4.N, and directly on the teacher's
// internal/openglhelper.NewPersistentBuffer/TripleBuffer pattern
// (persistent-mapped buffer, triple region rotation gated by a fence)
// for the Upload kind, generalized from "3 fixed regions sized once at
// startup" to "N regions whose size tracks an exponential moving
// average of recent demand, evicted and regrown as that average
// drifts".
package frame

import "github.com/svenny-voxen/voxen-go/internal/rt"

// BufferKind selects which of the two transient pools an allocation
// comes from, per spec.md §4.N.
type BufferKind int

const (
	// Scratch is device-local, never CPU-mapped: the OpenGL analogue of
	// a GL_DYNAMIC_DRAW buffer the GPU writes and reads without the CPU
	// ever touching it directly.
	Scratch BufferKind = iota
	// Upload is persistently mapped for CPU writes, grounded directly on
	// internal/openglhelper.NewPersistentBuffer.
	Upload
)

// Backend creates and destroys the GPU-side storage a BufferKind needs.
// Exposed as an interface (rather than calling gl.* directly) so the
// allocator's sizing/eviction logic — the part with real invariants to
// get right — can be tested without a live GL context, the same way
// internal/rt.Arena's slab bookkeeping is tested independently of any
// real backing memory.
type Backend interface {
	// CreateBuffer allocates sizeBytes of GPU storage for kind, returning
	// an opaque handle and, for Upload, a CPU-writable mapped slice (nil
	// for Scratch).
	CreateBuffer(kind BufferKind, sizeBytes int) (handle any, mapped []byte)
	DestroyBuffer(handle any)
}

// region is one backing allocation within a pool, sized to the pool's
// current target size. alloc.offset within it is a simple bump pointer
// reset every tick.
type region struct {
	handle   any
	mapped   []byte
	size     int
	offset   int
	liveTick uint64 // engine tick this region was carved from
}

// Allocation is a handle to transient memory carved out of one frame's
// pool. Valid only until the allocator's next BeginTick, which retires
// the region to the free list where the very next Allocate may reuse it.
// Ring gives each in-flight tick its own allocators and waits on a slot's
// previous submission before calling BeginTick on them again.
type Allocation struct {
	Handle any
	Offset int
	Size   int
	Mapped []byte // nil for Scratch allocations
}

// TransientBufferAllocator is a bump allocator over a pool of
// `Backend`-provided regions, sized by an exponential moving average of
// recent per-tick demand rather than a single fixed size picked ahead
// of time, per spec.md §4.N.
type TransientBufferAllocator struct {
	kind    BufferKind
	backend Backend

	avgDemand   float64
	targetSize  int
	minSize     int
	alignment   int
	maxPending  int
	current     *region
	freeRegions []*region
	tick        uint64
}

const emaAlpha = 0.2 // weight given to the newest tick's demand

// NewTransientBufferAllocator creates an allocator for kind, with
// minSize as the floor the exponential average never shrinks the pool
// below, and maxPendingFrames as the number of ticks a retired region
// whose size differs from the current target may sit idle in the free
// list before evictStale destroys it.
func NewTransientBufferAllocator(kind BufferKind, backend Backend, minSize, alignment, maxPendingFrames int) *TransientBufferAllocator {
	return &TransientBufferAllocator{
		kind:       kind,
		backend:    backend,
		targetSize: minSize,
		minSize:    minSize,
		alignment:  alignment,
		maxPending: maxPendingFrames,
	}
}

func alignUp(v, align int) int {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// BeginTick resets the allocator's bump pointer for a new tick,
// retiring the current region into the free list and recording this
// tick's total demand into the exponential moving average that sizes
// the *next* region grown.
func (a *TransientBufferAllocator) BeginTick(tick uint64) {
	a.tick = tick
	demand := 0
	if a.current != nil {
		demand = a.current.offset
		a.freeRegions = append(a.freeRegions, a.current)
		a.current = nil
	}

	a.avgDemand = (1-emaAlpha)*a.avgDemand + emaAlpha*float64(demand)
	target := int(a.avgDemand * 1.5) // headroom over the average, not the exact average
	if target < a.minSize {
		target = a.minSize
	}
	a.targetSize = target

	a.evictStale()
}

// evictStale destroys free regions whose size no longer matches the
// current target and that have sat idle past maxPending ticks —
// spec.md's "stale-buffer eviction", preventing an allocator that once
// saw a demand spike from holding onto an oversized region forever.
func (a *TransientBufferAllocator) evictStale() {
	kept := a.freeRegions[:0]
	for _, r := range a.freeRegions {
		stale := a.tick-r.liveTick > uint64(a.maxPending) && r.size != a.targetSize
		if stale {
			a.backend.DestroyBuffer(r.handle)
			continue
		}
		kept = append(kept, r)
	}
	a.freeRegions = kept
}

// Allocate carves size bytes, aligned to a.alignment, out of the
// current region, growing a new one sized to the current target if
// there's no room (or no current region yet).
func (a *TransientBufferAllocator) Allocate(size int) Allocation {
	if size > rt.MaxAllocSize {
		panic("frame: allocation exceeds MaxAllocSize")
	}

	if a.current == nil || !a.tryBump(size) {
		a.current = a.acquireRegion(size)
	}

	off := alignUp(a.current.offset, a.alignment)
	a.current.offset = off + size

	var mapped []byte
	if a.current.mapped != nil {
		mapped = a.current.mapped[off : off+size]
	}
	return Allocation{Handle: a.current.handle, Offset: off, Size: size, Mapped: mapped}
}

func (a *TransientBufferAllocator) tryBump(size int) bool {
	off := alignUp(a.current.offset, a.alignment)
	return off+size <= a.current.size
}

func (a *TransientBufferAllocator) acquireRegion(minNeeded int) *region {
	size := a.targetSize
	if minNeeded > size {
		size = minNeeded
	}

	for i, r := range a.freeRegions {
		if r.size >= size {
			a.freeRegions = append(a.freeRegions[:i], a.freeRegions[i+1:]...)
			r.offset = 0
			r.liveTick = a.tick
			return r
		}
	}

	handle, mapped := a.backend.CreateBuffer(a.kind, size)
	return &region{handle: handle, mapped: mapped, size: size, liveTick: a.tick}
}
