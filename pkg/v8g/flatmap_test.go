package v8g

import "testing"

func copyInt(mut *int, _ *int) *int {
	v := *mut
	return &v
}

func TestFlatMapDiffScenario(t *testing.T) {
	var mut FlatMap[int, int]

	v1, v2, v3, v4 := 1, 2, 3, 4
	mut.Insert(5, 5, &v1)
	mut.Insert(5, 10, &v2)
	mut.Insert(5, 3, &v3)
	mut.Insert(5, 7, &v4)

	i1 := NewImmutableFlatMap[int, int](&mut, nil, Copyable, copyInt)

	v5 := 5
	mut.Insert(6, 15, &v5)
	mut.Erase(3)
	if p := mut.Find(6, 7); p == nil {
		t.Fatal("expected to find key 7")
	} else {
		*p = 6
	}

	i2 := NewImmutableFlatMap[int, int](&mut, i1, Copyable, copyInt)

	type event struct {
		key       int
		newVal    *int
		oldVal    *int
		hasNew    bool
		hasOld    bool
	}
	var got []event

	i2.VisitDiff(i1, func(key int, newValue, oldValue *int) bool {
		got = append(got, event{key: key, newVal: newValue, oldVal: oldValue, hasNew: newValue != nil, hasOld: oldValue != nil})
		return true
	})

	if len(got) != 3 {
		t.Fatalf("expected 3 diff events, got %d: %+v", len(got), got)
	}

	if got[0].key != 3 || got[0].hasNew || !got[0].hasOld {
		t.Fatalf("event 0 = %+v, want removed key 3", got[0])
	}
	if got[1].key != 7 || *got[1].newVal != 6 || *got[1].oldVal != 4 {
		t.Fatalf("event 1 = %+v, want key 7 changed 4->6", got[1])
	}
	if got[2].key != 15 || *got[2].newVal != 5 || got[2].hasOld {
		t.Fatalf("event 2 = %+v, want added key 15", got[2])
	}

	// Keys 5 and 10 are unchanged: pointers must be identical between
	// snapshots, and they must not appear in the diff.
	if i1.Find(5).Value != i2.Find(5).Value {
		t.Fatal("unchanged key 5 should reuse the same value pointer")
	}
	if i1.Find(10).Value != i2.Find(10).Value {
		t.Fatal("unchanged key 10 should reuse the same value pointer")
	}
}

func TestFlatMapSnapshotIsolationFromLaterMutation(t *testing.T) {
	var mut FlatMap[int, int]
	v1 := 1
	mut.Insert(1, 1, &v1)

	snap := NewImmutableFlatMap[int, int](&mut, nil, Copyable, copyInt)

	v2 := 2
	mut.Insert(2, 1, &v2)
	mut.Insert(2, 2, &v2)

	if *snap.Find(1).Value != 1 {
		t.Fatal("snapshot must not observe later mutations to the source map")
	}
	if snap.Find(2).HasValue() {
		t.Fatal("snapshot must not observe keys inserted after it was taken")
	}
}
