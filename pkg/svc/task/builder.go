package task

// Builder accumulates wait-counter dependencies for a task about to be
// enqueued. Obtain one from Service.NewBuilder (plain mode) or
// Context.Continuation (continuation mode, which binds the enqueuing
// task as parent so its completion fans in the continuation).
type Builder struct {
	svc    *Service
	waits  []uint64
	parent *taskState
}

// NewBuilder returns a plain-mode builder: tasks enqueued from it have no
// parent, and their completion is independent of any other task.
func (s *Service) NewBuilder() *Builder {
	return &Builder{svc: s}
}

// AddWait records a counter the next enqueued task must wait for.
func (b *Builder) AddWait(c uint64) *Builder {
	if c != 0 {
		b.waits = append(b.waits, c)
	}
	return b
}

// AddWaitSpan records a batch of counters the next enqueued task must
// wait for.
func (b *Builder) AddWaitSpan(cs []uint64) *Builder {
	for _, c := range cs {
		b.AddWait(c)
	}
	return b
}

// Enqueue submits fn as a plain task and returns its completion counter.
// If this builder is in continuation mode, the parent task's completion
// is deferred until this task (and, recursively, any continuations it
// spawns) finishes.
func (b *Builder) Enqueue(fn Func) uint64 {
	ts := b.newState(fn)
	b.svc.submit(ts)
	return ts.counter
}

func (b *Builder) newState(fn Func) *taskState {
	c := b.svc.tracker.Allocate()
	ts := &taskState{
		fn:      fn,
		waits:   append([]uint64(nil), b.waits...),
		counter: c,
		parent:  b.parent,
	}
	ts.pending.Store(1)
	if b.parent != nil {
		b.parent.pending.Add(1)
	}
	return ts
}

// EnqueueCoro submits fn as a coroutine-style task: it runs on its own
// goroutine (not a fixed worker slot) and may call Context.Await to
// suspend mid-function. Its initial wait counters are waited on directly
// (no busy requeue) before fn runs.
func (b *Builder) EnqueueCoro(fn CoroFunc) uint64 {
	ts := b.newState(nil)
	svc := b.svc
	waits := ts.waits

	go func() {
		for _, c := range waits {
			<-svc.tracker.WaitChan(c)
		}
		ctx := &Context{svc: svc, state: ts}
		fn(ctx)
		svc.completeOne(ts)
	}()

	return ts.counter
}
