package rt

import (
	"log"
	"sync/atomic"
)

// MaxRefCount is the capacity of a SharedPool object's refcount. It is
// documented as opportunistic: raising it later is not a breaking change
// for callers, only for the pool's internal slot layout.
const MaxRefCount = 65535

// PrivatePool is a single-threaded slab-backed free list returning
// uniquely-owned handles. Acquire/Release are not safe for concurrent use
// from multiple goroutines; the resulting *T values are plain Go values
// with no implied thread-safety of their own.
type PrivatePool[T any] struct {
	free []*T
	new  func() *T
}

// NewPrivatePool creates a pool that constructs fresh values with newFn
// whenever its free list is empty.
func NewPrivatePool[T any](newFn func() *T) *PrivatePool[T] {
	return &PrivatePool[T]{new: newFn}
}

// Acquire returns a handle from the free list, or a freshly constructed
// one if the pool is empty.
func (p *PrivatePool[T]) Acquire() *T {
	if n := len(p.free); n > 0 {
		v := p.free[n-1]
		p.free = p.free[:n-1]
		return v
	}
	return p.new()
}

// Release returns a handle to the pool's free list.
func (p *PrivatePool[T]) Release(v *T) {
	p.free = append(p.free, v)
}

// sharedSlot packs a pooled value together with an atomic refcount and an
// intrusive lock-free free-list link, the way the spec's shared object
// pool packs a u16 refcount in the slab tail table next to the object.
type sharedSlot[T any] struct {
	value T
	refs  atomic.Uint32
	pool  *SharedPool[T]
	next  atomic.Pointer[sharedSlot[T]]
}

// SharedRef is a refcounted handle into a SharedPool. Copying a SharedRef
// does not bump the refcount — call AddRef explicitly, mirroring the
// spec's addRef/releaseRef pair.
type SharedRef[T any] struct {
	slot *sharedSlot[T]
}

// Valid reports whether this ref points at a live slot.
func (r SharedRef[T]) Valid() bool { return r.slot != nil }

// Get returns a pointer to the pooled value. The caller must hold a live
// reference (via Acquire or a prior AddRef not yet Released).
func (r SharedRef[T]) Get() *T { return &r.slot.value }

// AddRef increments the refcount and returns the same ref, for chaining.
// Overflowing MaxRefCount is fatal: it means a runaway reference leak.
func (r SharedRef[T]) AddRef() SharedRef[T] {
	if n := r.slot.refs.Add(1); n > MaxRefCount {
		log.Fatalf("rt: shared object refcount overflow (%d)", n)
	}
	return r
}

// Release decrements the refcount, returning the slot to its pool's
// lock-free free list once it reaches zero.
func (r SharedRef[T]) Release() {
	if r.slot.refs.Add(^uint32(0)) == 0 {
		r.slot.pool.reclaim(r.slot)
	}
}

// SharedPool is a slab-style pool of refcounted objects. Allocation
// (Acquire creating a brand-new slot) is not safe for concurrent use —
// callers must serialize it themselves, e.g. by running all Acquire calls
// on a single owning goroutine — but a SharedRef obtained from it may be
// freely AddRef'd/Released from any goroutine, and reclamation uses a
// lock-free CAS stack.
type SharedPool[T any] struct {
	head    atomic.Pointer[sharedSlot[T]]
	destroy func(*T)
}

// NewSharedPool creates an empty shared object pool.
func NewSharedPool[T any]() *SharedPool[T] {
	return &SharedPool[T]{}
}

// SetDestructor installs fn to run on a value when its refcount reaches
// zero, before the slot is recycled for a future Acquire. Needed for
// pooled values that own something besides memory (a file descriptor, a
// GPU handle) — plain pooled values have no use for it.
func (p *SharedPool[T]) SetDestructor(fn func(*T)) {
	p.destroy = fn
}

// Acquire returns a new handle with refcount 1, reusing a freed slot when
// available. init, if non-nil, is called on the (possibly reused) value
// before the handle is returned.
func (p *SharedPool[T]) Acquire(init func(*T)) SharedRef[T] {
	slot := p.pop()
	if slot == nil {
		slot = &sharedSlot[T]{pool: p}
	}
	slot.refs.Store(1)
	if init != nil {
		init(&slot.value)
	}
	return SharedRef[T]{slot: slot}
}

func (p *SharedPool[T]) reclaim(slot *sharedSlot[T]) {
	if p.destroy != nil {
		p.destroy(&slot.value)
	}
	for {
		old := p.head.Load()
		slot.next.Store(old)
		if p.head.CompareAndSwap(old, slot) {
			return
		}
	}
}

func (p *SharedPool[T]) pop() *sharedSlot[T] {
	for {
		old := p.head.Load()
		if old == nil {
			return nil
		}
		next := old.next.Load()
		if p.head.CompareAndSwap(old, next) {
			return old
		}
	}
}
