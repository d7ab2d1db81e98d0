// Package device wraps the GPU context the render graph, frame
// allocators, and mesh streamer submit work through.
//
// spec.md targets Vulkan (3 logical queues with per-queue timeline
// semaphores, a destroy queue, vkDeviceWaitIdle). No Vulkan binding
// exists anywhere in the retrieved example corpus, so this is built on
// the corpus's one real GPU stack instead: github.com/go-gl/gl plus
// github.com/go-gl/glfw, used exactly as the teacher uses them in
// internal/openglhelper/{window,buffer,shader,mesh}.go. Vulkan's
// 3-queue/timeline-semaphore model collapses onto a single GL context
// driven from the render thread: there is one real submission stream,
// so "queue" here names a logical stream multiplexed onto it, not a
// second hardware queue.
package device

import (
	"sync"

	"github.com/go-gl/gl/v4.6-core/gl"
)

// Queue identifies one of the logical submission streams spec.md's
// Vulkan design assigns to separate hardware queues. All three share
// the one real GL context; the distinction here is bookkeeping only
// (each gets its own monotonic tick and destroy queue), so a caller
// that mixes Main/Dma/Compute submissions still gets correctly ordered
// per-queue waits.
type Queue int

const (
	QueueMain Queue = iota
	QueueDma
	QueueCompute
	numQueues
)

// Fence is an opaque wait handle, grounded on the teacher's
// ChunkBufferManager.fencePool ([]GLSync, created via gl.FenceSync and
// waited on via gl.ClientWaitSync in pkg/render/chunkBufferManager.go),
// generalized from "3 fences for triple buffering" to "one fence per
// submission, on any queue".
type Fence uintptr

type destroyEntry struct {
	tick   uint64
	delete func()
}

type queueState struct {
	mu            sync.Mutex
	tick          uint64
	lastCompleted uint64
	fences        map[uint64]Fence
	destroys      []destroyEntry
}

// Device owns the per-queue tick counters, their fences, and their
// deferred-destroy lists.
type Device struct {
	queues [numQueues]*queueState
}

// New creates a Device. The caller must have already made a GL context
// current on the calling thread (glfw.MakeContextCurrent + gl.Init, as
// the teacher's openglhelper.NewWindow does) before calling any Device
// method that touches GL, since every GL call below must run on that
// thread.
func New() *Device {
	d := &Device{}
	for i := range d.queues {
		d.queues[i] = &queueState{fences: make(map[uint64]Fence)}
	}
	return d
}

// Submit records a GL fence for the given queue's next tick and returns
// it. Callers wait on the returned tick with WaitForTimeline, mirroring
// spec.md's "submit returns a timeline value" Vulkan idiom.
func (d *Device) Submit(q Queue) uint64 {
	qs := d.queues[q]
	qs.mu.Lock()
	defer qs.mu.Unlock()

	qs.tick++
	qs.fences[qs.tick] = Fence(gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0))
	return qs.tick
}

// WaitForTimeline blocks until queue q has completed tick (or any later
// tick). Grounded on ChunkBufferManager.waitForFence's
// gl.ClientWaitSync/gl.TIMEOUT_EXPIRED pattern, generalized to wait on
// an arbitrary past tick instead of always "the oldest of 3".
func (d *Device) WaitForTimeline(q Queue, tick uint64) {
	qs := d.queues[q]
	qs.mu.Lock()
	fence, ok := qs.fences[tick]
	completed := tick <= qs.completedLocked()
	qs.mu.Unlock()

	if completed || !ok {
		return
	}

	const timeoutNanos = 1e9 // 1 second, generous relative to one GPU tick
	gl.ClientWaitSync(uintptr(fence), gl.SYNC_FLUSH_COMMANDS_BIT, timeoutNanos)

	qs.mu.Lock()
	defer qs.mu.Unlock()
	qs.markCompletedLocked(tick)
}

// completedLocked and markCompletedLocked track, per queue, the highest
// tick known to have finished — letting WaitForTimeline/ProcessDestroyQueue
// skip re-waiting on fences already observed complete. Caller holds qs.mu.
func (qs *queueState) completedLocked() uint64 {
	return qs.lastCompleted
}

func (qs *queueState) markCompletedLocked(tick uint64) {
	if tick > qs.lastCompleted {
		qs.lastCompleted = tick
	}
	for t, f := range qs.fences {
		if t <= tick {
			gl.DeleteSync(uintptr(f))
			delete(qs.fences, t)
		}
	}
}

// EnqueueDestroy defers deleteFn until queue q's current tick's fence
// has signaled — spec.md's "destroy queue" for GPU objects that may
// still be in flight when their owner is released.
func (d *Device) EnqueueDestroy(q Queue, deleteFn func()) {
	qs := d.queues[q]
	qs.mu.Lock()
	defer qs.mu.Unlock()
	qs.destroys = append(qs.destroys, destroyEntry{tick: qs.tick, delete: deleteFn})
}

// ProcessDestroyQueue runs every deferred destructor on queue q whose
// recorded tick has completed. Intended to be called once per engine
// tick, after the frame's submissions for that queue.
func (d *Device) ProcessDestroyQueue(q Queue) {
	qs := d.queues[q]
	qs.mu.Lock()
	completed := qs.lastCompleted
	remaining := qs.destroys[:0]
	var toRun []func()
	for _, e := range qs.destroys {
		if e.tick <= completed {
			toRun = append(toRun, e.delete)
		} else {
			remaining = append(remaining, e)
		}
	}
	qs.destroys = remaining
	qs.mu.Unlock()

	for _, fn := range toRun {
		fn()
	}
}

// ForceCompletion blocks until every queue's outstanding GPU work has
// finished. The Vulkan analogue is vkDeviceWaitIdle; gl.Finish() is the
// OpenGL equivalent (flush and block until the driver reports the GPU
// idle). Used only from Close, per spec.md §4.L.
func (d *Device) ForceCompletion() {
	gl.Finish()
	for i := range d.queues {
		qs := d.queues[Queue(i)]
		qs.mu.Lock()
		for t := range qs.fences {
			qs.markCompletedLocked(t)
		}
		qs.mu.Unlock()
	}
}

// Close forces completion and runs every remaining deferred destructor
// regardless of tick, since nothing can still be in flight afterward.
func (d *Device) Close() {
	d.ForceCompletion()
	for i := range d.queues {
		d.ProcessDestroyQueue(Queue(i))
	}
}
