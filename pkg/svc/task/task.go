// Package task implements the engine's task service: a fixed-size worker
// pool running run-to-completion functors with wait-counter dependencies,
// plus a coroutine-style task flavor that may suspend mid-function on a
// counter without occupying a worker slot while it waits.
//
// Grounded on spec.md §4.D. The teacher repo has no worker pool of its
// own; this is new construction in the teacher's goroutine/channel idiom
// (see pkg/game/chunk_manager.go's worker-goroutine-plus-job-channel
// shape, which this generalizes from "one worker per chunk load" to "N
// workers sharing a dependency-aware job queue").
package task

import (
	"sync/atomic"
	"time"

	"github.com/svenny-voxen/voxen-go/internal/rt"
	"github.com/svenny-voxen/voxen-go/pkg/svc/counter"
)

// Requeue backoff bounds for worker.loop: a task whose waits aren't yet
// satisfied is requeued rather than blocking the worker, but requeuing
// it with no delay at all busy-spins a core if it's the only job on that
// worker's channel. Doubling up to a 1ms ceiling keeps latency low for
// the common case (wait completes within a tick or two) while bounding
// worst-case CPU burn.
const (
	minRequeueBackoff = 50 * time.Microsecond
	maxRequeueBackoff = time.Millisecond
)

// Func is a plain task functor: it runs to completion on a worker
// goroutine once its wait counters are satisfied.
type Func func(ctx *Context)

// CoroFunc is a coroutine-style task functor. Unlike Func, it may call
// Context.Await to suspend until another counter completes. It runs on
// its own goroutine rather than a fixed worker slot — lowering the
// spec's stackful coroutines to "one goroutine per suspend-capable task"
// is exactly the substitution spec.md §9's design notes bless ("lower
// tasks to explicit state machines with waitable counters").
type CoroFunc func(ctx *Context)

type taskState struct {
	fn      Func
	waits   []uint64
	counter uint64
	parent  *taskState
	pending atomic.Int64 // see Service.completeOne
}

// Context is passed to a running task. It gives the task access to the
// service for spawning continuations and, for coroutine tasks, for
// suspending on a counter.
type Context struct {
	svc   *Service
	state *taskState
}

// Counter returns the completion counter of the task this context was
// handed to.
func (ctx *Context) Counter() uint64 { return ctx.state.counter }

// Await suspends the calling goroutine until c completes. Only meaningful
// inside a CoroFunc: calling it from a plain Func blocks that worker
// goroutine, stalling everything else queued behind it on that worker.
func (ctx *Context) Await(c uint64) {
	<-ctx.svc.tracker.WaitChan(c)
}

// Continuation returns a Builder bound to this context's task as parent:
// tasks enqueued from it count toward this task's own completion, which
// will not be signaled until every continuation (recursively) finishes.
func (ctx *Context) Continuation() *Builder {
	return &Builder{svc: ctx.svc, parent: ctx.state}
}

type worker struct {
	jobs        chan *taskState
	outstanding *rt.WorkCounter
	svc         *Service
}

// Service owns the worker pool and the counter tracker backing every
// task's completion counter.
type Service struct {
	tracker *counter.Tracker
	workers []*worker
}

// New creates a task service with the given number of worker goroutines.
func New(numWorkers int) *Service {
	if numWorkers < 1 {
		numWorkers = 1
	}
	svc := &Service{tracker: counter.New()}
	svc.workers = make([]*worker, numWorkers)
	for i := range svc.workers {
		w := &worker{jobs: make(chan *taskState, 4096), outstanding: rt.NewWorkCounter(), svc: svc}
		svc.workers[i] = w
		go w.loop()
	}
	return svc
}

func (s *Service) pickWorker() *worker {
	best := s.workers[0]
	for _, w := range s.workers[1:] {
		if w.outstanding.Load() < best.outstanding.Load() {
			best = w
		}
	}
	return best
}

func (w *worker) loop() {
	backoff := minRequeueBackoff
	for ts := range w.jobs {
		if remaining := w.svc.tracker.TrimCompleteCounters(ts.waits); remaining > 0 {
			ts.waits = ts.waits[:remaining]
			// Waits not yet satisfied: per spec.md §4.D, requeue and move
			// on rather than block the worker. Every requeue first sleeps
			// a bounded, growing backoff so a job whose waits stay unmet
			// isn't spun on at full CPU; whatever else is queued behind it
			// then runs before it comes round again.
			time.Sleep(backoff)
			if backoff < maxRequeueBackoff {
				backoff *= 2
			}
			w.jobs <- ts
			continue
		}
		backoff = minRequeueBackoff
		w.execute(ts)
	}
}

func (w *worker) execute(ts *taskState) {
	ctx := &Context{svc: w.svc, state: ts}
	ts.fn(ctx)
	w.svc.completeOne(ts)
	w.outstanding.Add(-1)
}

// completeOne marks ts's own contribution to its pending count resolved
// (either "its functor returned" or "one more continuation finished").
// When pending reaches zero every continuation has finished and the
// functor has returned, so the task's counter completes and, if it has a
// parent (it is itself a continuation), the parent's pending count is
// decremented in turn — the fan-in cascades up the continuation chain.
func (s *Service) completeOne(ts *taskState) {
	if ts.pending.Add(-1) == 0 {
		s.tracker.Complete(ts.counter)
		if ts.parent != nil {
			s.completeOne(ts.parent)
		}
	}
}

// Wait blocks the calling goroutine until c completes. For use outside
// any task (e.g. a caller on the main goroutine waiting on work it
// enqueued); a running task should use Context.Await instead so a
// suspend-capable CoroFunc doesn't need its caller to know it's a task.
func (s *Service) Wait(c uint64) {
	<-s.tracker.WaitChan(c)
}

func (s *Service) submit(ts *taskState) {
	w := s.pickWorker()
	w.outstanding.Add(1)
	w.jobs <- ts
}

// Close stops accepting new work and lets every worker goroutine drain
// and exit once its job channel is closed.
func (s *Service) Close() {
	for _, w := range s.workers {
		close(w.jobs)
	}
}
