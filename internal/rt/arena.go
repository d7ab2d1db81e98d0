package rt

import "log"

// Arena is a single-owner bump allocator over a chain of slabs. It backs
// coroutine frames, message payloads and async result objects: allocation
// is O(1), deallocation is a single atomic decrement, and memory comes
// back in bulk once every allocation from a slab has been freed.
//
// An Arena must only be used from one goroutine at a time (the "thread"
// that owns it); the slabs it hands out, and the allocations within them,
// are safe to free from any goroutine.
type Arena struct {
	cur *slab
}

// Allocation is a handle to a region carved out of an Arena's current
// slab. The zero value is a no-op allocation (Bytes returns nil, Free is
// a no-op), useful as a default/"not yet allocated" state.
type Allocation struct {
	s      *slab
	offset int
	size   int
}

// Bytes returns the (uninitialized) memory backing this allocation.
func (a Allocation) Bytes() []byte {
	if a.s == nil {
		return nil
	}
	return a.s.buf[a.offset : a.offset+a.size]
}

// Allocate carves out size bytes aligned to align from the arena's
// current slab, rotating in a new slab from the free list (or freshly
// allocated) if there isn't enough room. Panics if size or align exceed
// the documented ceilings: that is a programming bug, not a recoverable
// error.
func (a *Arena) Allocate(size, align int) Allocation {
	if size > MaxAllocSize {
		panic("rt: allocation size exceeds MaxAllocSize")
	}
	if align <= 0 || align&(align-1) != 0 || align > MaxAlignment {
		panic("rt: invalid or too-large alignment")
	}

	if a.cur != nil {
		if off, ok := a.cur.tryBump(size, align); ok {
			a.cur.live.Add(1)
			return Allocation{s: a.cur, offset: off, size: size}
		}
		garbageSlabs.push(a.cur)
	}

	needed := size * 2
	if needed < DefaultSlabSize {
		needed = DefaultSlabSize
	}
	if s := freeSlabs.popFitting(needed); s != nil {
		a.cur = s
	} else {
		a.cur = newSlab(needed)
	}

	off, ok := a.cur.tryBump(size, align)
	if !ok {
		// Freshly sized slab must fit a single allocation of this size.
		panic("rt: freshly allocated slab too small, this is a bug")
	}
	a.cur.live.Add(1)
	return Allocation{s: a.cur, offset: off, size: size}
}

// Close hands the arena's current slab to the garbage list, as happens
// when the owning thread/goroutine exits. The Arena is left empty and
// reusable.
func (a *Arena) Close() {
	if a.cur != nil {
		garbageSlabs.push(a.cur)
		a.cur = nil
	}
}

// Free releases an allocation. It is a single atomic decrement of the
// owning slab's live-allocation counter; the slab itself is reclaimed in
// bulk by the GC goroutine once its counter reaches zero.
func Free(a Allocation) {
	if a.s == nil {
		return
	}
	if left := a.s.live.Add(-1); left < 0 {
		log.Fatalf("rt: double free detected, live count went negative")
	}
}
