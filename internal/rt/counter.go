package rt

import "sync/atomic"

// WorkCounter is a futex-like outstanding-work counter for a task worker.
// Go exposes no raw futex syscall to userspace, so instead of parking on
// the counter's address we park on a channel that is signaled whenever
// the counter transitions to zero — the same "wake waiters on empty"
// shape a futex-backed counter provides, built from the teacher's
// channel-based worker shutdown idiom (chunkWorker/stopWorker).
type WorkCounter struct {
	v       atomic.Int64
	drained chan struct{}
}

// NewWorkCounter returns a ready-to-use, zeroed WorkCounter.
func NewWorkCounter() *WorkCounter {
	return &WorkCounter{drained: make(chan struct{}, 1)}
}

// Add adjusts the counter by delta and returns the new value. A
// transition to zero notifies (non-blocking) anyone waiting in Drained.
func (c *WorkCounter) Add(delta int64) int64 {
	n := c.v.Add(delta)
	if n == 0 {
		select {
		case c.drained <- struct{}{}:
		default:
		}
	}
	return n
}

// Load returns the current outstanding work count.
func (c *WorkCounter) Load() int64 {
	return c.v.Load()
}

// Drained returns a channel that receives a value shortly after the
// counter reaches zero. It is a hint, not a guarantee of continued
// emptiness — the counter may be incremented again immediately after.
func (c *WorkCounter) Drained() <-chan struct{} {
	return c.drained
}
