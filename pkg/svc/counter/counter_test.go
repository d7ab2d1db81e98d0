package counter

import (
	"sync"
	"testing"
)

func TestZeroCounterIsAlwaysComplete(t *testing.T) {
	tr := New()
	if !tr.IsComplete(0) {
		t.Fatal("counter 0 must always be complete")
	}
}

func TestCompleteInOrderAdvancesFrontier(t *testing.T) {
	tr := New()
	var cs []uint64
	for i := 0; i < 10; i++ {
		cs = append(cs, tr.Allocate())
	}
	for _, c := range cs {
		tr.Complete(c)
	}
	for _, c := range cs {
		if !tr.IsComplete(c) {
			t.Fatalf("counter %d should be complete", c)
		}
	}
}

func TestCompleteOutOfOrderThenAbsorbs(t *testing.T) {
	tr := New()
	a, b, c := tr.Allocate(), tr.Allocate(), tr.Allocate()

	tr.Complete(c)
	if tr.IsComplete(a) {
		t.Fatal("a should not be complete yet")
	}
	if !tr.IsComplete(c) {
		t.Fatal("c should already be complete")
	}

	tr.Complete(a)
	if !tr.IsComplete(a) {
		t.Fatal("a should be complete")
	}
	if tr.IsComplete(b) {
		t.Fatal("b should still be incomplete")
	}

	tr.Complete(b)
	if !tr.IsComplete(b) || !tr.IsComplete(c) {
		t.Fatal("b and c should both be complete once the gap closes")
	}
}

func TestIsCompleteMonotonicOnceTrue(t *testing.T) {
	tr := New()
	var cs []uint64
	for i := 0; i < 50; i++ {
		cs = append(cs, tr.Allocate())
	}
	// Complete in reverse order: every completion is "out of order" until
	// the very last one, which closes the gap down to zero.
	for i := len(cs) - 1; i >= 0; i-- {
		tr.Complete(cs[i])
		for j := i; j < len(cs); j++ {
			if !tr.IsComplete(cs[j]) {
				t.Fatalf("counter %d regressed to incomplete after being completed", cs[j])
			}
		}
	}
}

func TestTrimCompleteCountersPacksIncompleteToFront(t *testing.T) {
	tr := New()
	a, b, c, d := tr.Allocate(), tr.Allocate(), tr.Allocate(), tr.Allocate()
	tr.Complete(a)
	tr.Complete(c)

	span := []uint64{a, b, c, d}
	n := tr.TrimCompleteCounters(span)
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	got := map[uint64]bool{span[0]: true, span[1]: true}
	if !got[b] || !got[d] {
		t.Fatalf("trimmed prefix = %v, want {%d,%d}", span[:n], b, d)
	}
}

// TestCounterTrackerLivenessUnderConcurrentOutOfOrderCompletion implements
// the "counter tracker liveness" scenario: allocate counters c1..cN on one
// goroutine, complete them out of order from multiple goroutines, and
// verify every one ends up complete.
func TestCounterTrackerLivenessUnderConcurrentOutOfOrderCompletion(t *testing.T) {
	const n = 4000
	tr := New()
	cs := make([]uint64, n)
	for i := range cs {
		cs[i] = tr.Allocate()
	}

	// Shuffle deterministically (reverse blocks of varying stride) to get
	// an out-of-order completion pattern without pulling in math/rand.
	order := make([]uint64, n)
	copy(order, cs)
	for stride := 7; stride < n; stride += 13 {
		lo, hi := 0, stride
		for hi < n {
			order[lo], order[hi] = order[hi], order[lo]
			lo++
			hi++
		}
	}

	var wg sync.WaitGroup
	const workers = 8
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(s []uint64) {
			defer wg.Done()
			for _, c := range s {
				tr.Complete(c)
			}
		}(order[start:end])
	}
	wg.Wait()

	for _, c := range cs {
		if !tr.IsComplete(c) {
			t.Fatalf("counter %d not complete after all completions ran", c)
		}
	}
}
