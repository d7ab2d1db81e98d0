// Package mesh implements the mesh streamer: a versioned slab allocator
// that uploads per-chunk vertex/index data into size-classed GPU buffer
// regions, tracks a ready/pending version pair per key, evicts by least
// recent access, and defragments a size class once its free space
// fragments past a threshold.
//
// Grounded on spec.md §4.O and pkg/render.ChunkBufferManager: that type
// already does the core of this (map a key to a buffer slot, persistent-
// mapped upload, defer destructive updates behind a fence) for a single
// fixed chunk size. This package generalizes it to multiple size
// classes (a chunk's packed mesh can be any size, not one fixed budget)
// and replaces ChunkBufferManager's "reuse slot 0 if nothing free"
// fallback with real LRU eviction plus versioning, since a streamer
// must let a caller overwrite a chunk's mesh while a previous version is
// still possibly in flight to the GPU.
package mesh

import (
	"sort"
)

// Key identifies one streamed mesh, e.g. a land chunk's tree.ChunkKey
// reduced to whatever comparable value the caller uses.
type Key any

// MeshAdd is the data a caller hands the streamer for one mesh.
type MeshAdd struct {
	VertexData []byte
	IndexData  []byte
}

// Backend performs the actual GPU-side upload/free a size class needs;
// isolated behind an interface for the same reason
// pkg/gfx/frame.Backend is, so the allocator bookkeeping is testable
// without a live GL context.
type Backend interface {
	// Upload writes data into the region [offset, offset+len(data)) of
	// the size class's backing buffer, returning once submitted (the
	// caller tracks completion itself via tick bookkeeping, mirroring
	// ChunkBufferManager.waitForFence's region-gating instead of a
	// blocking upload).
	Upload(sizeClass int, offset int, data []byte)
}

// sizeClassFor returns the smallest size class buffer ring step able to
// hold n bytes. Size classes grow by a fixed power-of-two multiple
// (ChunkBufferManager uses one fixed chunkSizeBytes per mesh; a
// streamer serving meshes of varying complexity needs several).
func sizeClassFor(n int) int {
	const base = 4096
	c := base
	for c < n {
		c *= 2
	}
	return c
}

type slot struct {
	sizeClass int
	offset    int
	key       Key
	present   bool
}

type entry struct {
	slot            *slot
	readyVersion    uint64
	pendingVersion  uint64
	lastAccessTick  uint64
	pendingUploaded bool   // true once the in-flight upload for pendingVersion has been issued
	payload         []byte // last uploaded bytes, retained so defragmentation can re-upload at a new offset
}

// QueryResult answers QueryMesh, per spec.md §4.O.
type QueryResult struct {
	Ready          bool
	ReadyVersion   uint64
	PendingVersion uint64
}

const fragmentationThreshold = 0.4 // fraction of a class's allocated regions that may sit empty before compaction runs

// sizeClassPool holds every region ever allocated at one size class,
// partitioned into used (indexed by offset) and free.
type sizeClassPool struct {
	regionSize int
	used       map[int]*slot // offset -> slot
	free       []int         // free region offsets
	nextOffset int
}

// Streamer is the mesh streamer itself.
type Streamer struct {
	backend Backend
	pools   map[int]*sizeClassPool
	byKey   map[Key]*entry
	tick    uint64
	version uint64

	pendingRemoval map[Key]uint64 // key -> tick after which it's safe to free (last access tick)
}

// New creates an empty Streamer.
func New(backend Backend) *Streamer {
	return &Streamer{
		backend:        backend,
		pools:          make(map[int]*sizeClassPool),
		byKey:          make(map[Key]*entry),
		pendingRemoval: make(map[Key]uint64),
	}
}

// BeginTick advances the streamer's notion of the current frame tick and
// finalizes any removal whose deferred tick has passed.
func (s *Streamer) BeginTick(tick uint64) {
	s.tick = tick
	for key, freeAtTick := range s.pendingRemoval {
		if tick >= freeAtTick {
			s.finalizeRemoval(key)
			delete(s.pendingRemoval, key)
		}
	}
}

func (s *Streamer) poolFor(sizeClass int) *sizeClassPool {
	p, ok := s.pools[sizeClass]
	if !ok {
		p = &sizeClassPool{regionSize: sizeClass, used: make(map[int]*slot)}
		s.pools[sizeClass] = p
	}
	return p
}

func (p *sizeClassPool) acquire() int {
	if n := len(p.free); n > 0 {
		off := p.free[n-1]
		p.free = p.free[:n-1]
		return off
	}
	off := p.nextOffset
	p.nextOffset += p.regionSize
	return off
}

func (p *sizeClassPool) release(offset int) {
	delete(p.used, offset)
	p.free = append(p.free, offset)
}

// fragmentation reports the fraction of this class's allocated span
// (everything up to nextOffset) currently sitting in the free list.
func (p *sizeClassPool) fragmentation() float64 {
	if p.nextOffset == 0 {
		return 0
	}
	freeBytes := len(p.free) * p.regionSize
	return float64(freeBytes) / float64(p.nextOffset)
}

// AddMesh reserves (or reuses) a region for key sized to fit data,
// bumps key's pending version, and issues the upload. The previous
// ready version, if any, remains valid for readers until the new
// upload's version is observed via QueryMesh.
func (s *Streamer) AddMesh(key Key, data MeshAdd) {
	sz := len(data.VertexData) + len(data.IndexData)
	class := sizeClassFor(sz)

	e, exists := s.byKey[key]
	if exists && e.slot.sizeClass != class {
		s.releaseSlot(e.slot)
		exists = false
	}

	if !exists {
		pool := s.poolFor(class)
		off := pool.acquire()
		sl := &slot{sizeClass: class, offset: off, key: key, present: true}
		pool.used[off] = sl
		e = &entry{slot: sl}
		s.byKey[key] = e
	}

	s.version++
	e.pendingVersion = s.version
	e.lastAccessTick = s.tick
	e.pendingUploaded = false

	payload := make([]byte, 0, sz)
	payload = append(payload, data.VertexData...)
	payload = append(payload, data.IndexData...)
	e.payload = payload
	s.backend.Upload(class, e.slot.offset, payload)
	e.pendingUploaded = true

	s.maybeDefragment(class)
}

// CompleteUpload marks key's most recent pending upload as ready,
// called once the backend confirms the GPU has consumed it (mirrors
// ChunkBufferManager gating reuse of a triple-buffered region on a
// fence, generalized to a version number instead of a region index).
func (s *Streamer) CompleteUpload(key Key) {
	e, ok := s.byKey[key]
	if !ok || !e.pendingUploaded {
		return
	}
	e.readyVersion = e.pendingVersion
}

// QueryMesh reports key's ready/pending versions, per spec.md §4.O, and
// refreshes its last-access tick for LRU purposes.
func (s *Streamer) QueryMesh(key Key) QueryResult {
	e, ok := s.byKey[key]
	if !ok {
		return QueryResult{}
	}
	e.lastAccessTick = s.tick
	return QueryResult{
		Ready:          e.readyVersion > 0 && e.readyVersion == e.pendingVersion,
		ReadyVersion:   e.readyVersion,
		PendingVersion: e.pendingVersion,
	}
}

// RemoveMesh schedules key's region for release once its last access
// tick has fully drained from the pipeline (deferredFrames ticks later,
// matching spec.md's "deallocation deferred to frame completion of last
// access tick").
func (s *Streamer) RemoveMesh(key Key, deferredFrames uint64) {
	e, ok := s.byKey[key]
	if !ok {
		return
	}
	s.pendingRemoval[key] = e.lastAccessTick + deferredFrames
}

func (s *Streamer) finalizeRemoval(key Key) {
	e, ok := s.byKey[key]
	if !ok {
		return
	}
	s.releaseSlot(e.slot)
	delete(s.byKey, key)
}

func (s *Streamer) releaseSlot(sl *slot) {
	pool := s.poolFor(sl.sizeClass)
	pool.release(sl.offset)
}

// EvictLRU frees the n least-recently-accessed entries across every size
// class, regardless of pending removal state — used when a size
// class is full and a new AddMesh needs room immediately rather than
// waiting out the deferred-removal window.
func (s *Streamer) EvictLRU(n int) []Key {
	type scored struct {
		key  Key
		tick uint64
	}
	var all []scored
	for k, e := range s.byKey {
		all = append(all, scored{key: k, tick: e.lastAccessTick})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].tick < all[j].tick })

	if n > len(all) {
		n = len(all)
	}
	var evicted []Key
	for i := 0; i < n; i++ {
		k := all[i].key
		s.finalizeRemoval(k)
		delete(s.pendingRemoval, k)
		evicted = append(evicted, k)
	}
	return evicted
}

// maybeDefragment compacts a size class's used regions down toward
// offset 0 when its fragmentation ratio crosses fragmentationThreshold,
// re-uploading each moved mesh's data via the backend (spec.md §4.O:
// "defragmentation transfers when fragmentation crosses a threshold").
// Each moved mesh whose payload the streamer holds is uploaded again
// through backend.Upload at its new offset; the class's
// free list and nextOffset are then reset to the compacted layout.
func (s *Streamer) maybeDefragment(class int) {
	pool := s.poolFor(class)
	if pool.fragmentation() < fragmentationThreshold {
		return
	}
	if len(pool.free) == 0 {
		return
	}

	var usedSlots []*slot
	for _, sl := range pool.used {
		usedSlots = append(usedSlots, sl)
	}
	sort.Slice(usedSlots, func(i, j int) bool { return usedSlots[i].offset < usedSlots[j].offset })

	newUsed := make(map[int]*slot, len(usedSlots))
	offset := 0
	for _, sl := range usedSlots {
		sl.offset = offset
		newUsed[offset] = sl
		offset += pool.regionSize
		if e, ok := s.byKey[sl.key]; ok && e.payload != nil {
			s.backend.Upload(class, sl.offset, e.payload)
		}
	}
	pool.used = newUsed
	pool.free = nil
	pool.nextOffset = offset
}
