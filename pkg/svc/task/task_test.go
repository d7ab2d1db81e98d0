package task

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitOrTimeout(t *testing.T, done <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestPlainTaskRunsAndCompletes(t *testing.T) {
	svc := New(4)
	defer svc.Close()

	var ran atomic.Bool
	c := svc.NewBuilder().Enqueue(func(ctx *Context) {
		ran.Store(true)
	})

	waitOrTimeout(t, svc.tracker.WaitChan(c), "task completion")
	if !ran.Load() {
		t.Fatal("task functor never ran")
	}
}

func TestTaskWaitsForDependency(t *testing.T) {
	svc := New(4)
	defer svc.Close()

	var order []int
	var mu sync.Mutex
	record := func(n int) {
		mu.Lock()
		order = append(order, n)
		mu.Unlock()
	}

	first := svc.NewBuilder().Enqueue(func(ctx *Context) {
		time.Sleep(20 * time.Millisecond)
		record(1)
	})
	second := svc.NewBuilder().AddWait(first).Enqueue(func(ctx *Context) {
		record(2)
	})

	waitOrTimeout(t, svc.tracker.WaitChan(second), "second task")

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order = %v, want [1 2]", order)
	}
}

// TestRootTaskWithFanInContinuations implements the "task continuations"
// scenario: root task R enqueues continuations A and B, each of which
// enqueues a grandchild. R's counter must not complete until both
// grandchildren have run, and a sibling task that waits on R's counter
// must not run before all four have executed.
func TestRootTaskWithFanInContinuations(t *testing.T) {
	svc := New(4)
	defer svc.Close()

	var mu sync.Mutex
	var ran []string
	mark := func(name string) {
		mu.Lock()
		ran = append(ran, name)
		mu.Unlock()
	}

	rootCounter := svc.NewBuilder().Enqueue(func(ctx *Context) {
		mark("R")
		ctx.Continuation().Enqueue(func(actx *Context) {
			mark("A")
			actx.Continuation().Enqueue(func(gctx *Context) {
				time.Sleep(10 * time.Millisecond)
				mark("GA")
			})
		})
		ctx.Continuation().Enqueue(func(bctx *Context) {
			mark("B")
			bctx.Continuation().Enqueue(func(gctx *Context) {
				time.Sleep(10 * time.Millisecond)
				mark("GB")
			})
		})
	})

	siblingRan := make(chan struct{})
	svc.NewBuilder().AddWait(rootCounter).Enqueue(func(ctx *Context) {
		close(siblingRan)
	})

	waitOrTimeout(t, siblingRan, "sibling waiting on root's counter")

	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 5 {
		t.Fatalf("ran = %v, want 5 entries (R,A,B,GA,GB in some order)", ran)
	}
	seen := map[string]bool{}
	for _, n := range ran {
		seen[n] = true
	}
	for _, want := range []string{"R", "A", "B", "GA", "GB"} {
		if !seen[want] {
			t.Fatalf("ran = %v, missing %s", ran, want)
		}
	}
}

func TestCoroTaskAwaitsMidFunction(t *testing.T) {
	svc := New(4)
	defer svc.Close()

	dep := svc.NewBuilder().Enqueue(func(ctx *Context) {
		time.Sleep(20 * time.Millisecond)
	})

	var resumed atomic.Bool
	coro := svc.NewBuilder().EnqueueCoro(func(ctx *Context) {
		ctx.Await(dep)
		resumed.Store(true)
	})

	waitOrTimeout(t, svc.tracker.WaitChan(coro), "coroutine task")
	if !resumed.Load() {
		t.Fatal("coroutine never resumed after await")
	}
}
