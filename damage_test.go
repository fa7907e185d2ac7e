package texsync

import (
	"image"
	"math/rand/v2"
	"slices"
	"testing"
)

func sparse(t *testing.T, d Damage) []image.Point {
	t.Helper()
	s, ok := d.(SparseDamage)
	if !ok {
		t.Fatalf("damage = %#v, want SparseDamage", d)
	}
	return s.Positions
}

func region(t *testing.T, d Damage) RegionDamage {
	t.Helper()
	r, ok := d.(RegionDamage)
	if !ok {
		t.Fatalf("damage = %#v, want RegionDamage", d)
	}
	return r
}

func TestTrackerZeroValue(t *testing.T) {
	var tr Tracker
	if tr.Capacity() != DefaultSparseCapacity {
		t.Errorf("Capacity() = %d, want %d", tr.Capacity(), DefaultSparseCapacity)
	}
	if tr.Pending() {
		t.Error("zero tracker is pending")
	}
	if _, ok := tr.Drain().(NoDamage); !ok {
		t.Error("zero tracker did not drain to NoDamage")
	}
}

func TestTrackerSparseDeduplicates(t *testing.T) {
	tr := NewTracker(8)
	tr.Mark(image.Pt(3, 1))
	tr.Mark(image.Pt(0, 2))
	tr.Mark(image.Pt(3, 1))
	tr.Mark(image.Pt(1, 0))
	tr.Mark(image.Pt(0, 2))

	got := sparse(t, tr.Drain())
	want := []image.Point{{1, 0}, {3, 1}, {0, 2}}
	if !slices.Equal(got, want) {
		t.Errorf("positions = %v, want %v", got, want)
	}
}

func TestTrackerDrainResets(t *testing.T) {
	tr := NewTracker(4)
	tr.Mark(image.Pt(1, 1))
	tr.Drain()

	if tr.Pending() {
		t.Error("Pending() after Drain = true")
	}
	if _, ok := tr.Drain().(NoDamage); !ok {
		t.Error("second Drain did not return NoDamage")
	}

	tr.MarkAll(image.Rect(0, 0, 4, 4))
	tr.Drain()
	if _, ok := tr.Drain().(NoDamage); !ok {
		t.Error("Drain after drained MarkAll did not return NoDamage")
	}
}

func TestTrackerSparseAtCapacity(t *testing.T) {
	tr := NewTracker(3)
	for x := range 3 {
		tr.Mark(image.Pt(x, 0))
	}
	if got := sparse(t, tr.Drain()); len(got) != 3 {
		t.Errorf("len(positions) = %d, want 3", len(got))
	}
}

func TestTrackerSparseToRegion(t *testing.T) {
	tr := NewTracker(3)
	tr.Mark(image.Pt(1, 1))
	tr.Mark(image.Pt(5, 2))
	tr.Mark(image.Pt(2, 4))
	tr.Mark(image.Pt(0, 3)) // fourth unique cell exceeds capacity

	r := region(t, tr.Drain())
	if r.Min != image.Pt(0, 1) || r.Size != Sz(6, 4) {
		t.Errorf("region = %v, want min (0,1) size 6x4", r)
	}
	if r.Area != 4 {
		t.Errorf("Area = %d, want 4", r.Area)
	}
}

func TestTrackerRegionCountsRawWrites(t *testing.T) {
	// Once in region form every write counts, including repeats of the
	// same cell. This biases hot regions toward a full replace.
	tr := NewTracker(1)
	tr.Mark(image.Pt(0, 0))
	tr.Mark(image.Pt(1, 0))
	for range 5 {
		tr.Mark(image.Pt(1, 0))
	}
	r := region(t, tr.Drain())
	if r.Area != 7 {
		t.Errorf("Area = %d, want 7 raw writes", r.Area)
	}
	if r.Size != Sz(2, 1) {
		t.Errorf("Size = %v, want 2x1", r.Size)
	}
}

func TestTrackerAreaMonotonic(t *testing.T) {
	tr := NewTracker(2)
	rng := rand.New(rand.NewPCG(1, 2))
	last := 0
	for i := range 200 {
		tr.Mark(image.Pt(rng.IntN(16), rng.IntN(16)))
		if r, ok := tr.Peek().(RegionDamage); ok {
			if r.Area < last {
				t.Fatalf("write %d: Area dropped from %d to %d", i, last, r.Area)
			}
			last = r.Area
		}
	}
	tr.Drain()
	tr.Mark(image.Pt(0, 0))
	if _, ok := tr.Peek().(SparseDamage); !ok {
		t.Error("tracker did not restart in sparse form after Drain")
	}
}

func TestTrackerRandomSequences(t *testing.T) {
	const k = 16
	rng := rand.New(rand.NewPCG(7, 11))

	for round := range 100 {
		tr := NewTracker(k)
		unique := map[image.Point]struct{}{}
		bounds := image.Rectangle{}
		writes := 1 + rng.IntN(3*k)
		for range writes {
			p := image.Pt(rng.IntN(40), rng.IntN(30))
			tr.Mark(p)
			unique[p] = struct{}{}
			bounds = bounds.Union(cell(p))
		}

		d := tr.Drain()
		if len(unique) <= k {
			got := sparse(t, d)
			if len(got) != len(unique) {
				t.Fatalf("round %d: %d positions, want %d", round, len(got), len(unique))
			}
			for _, p := range got {
				if _, ok := unique[p]; !ok {
					t.Fatalf("round %d: unexpected position %v", round, p)
				}
			}
			continue
		}
		r := region(t, d)
		if r.Rect() != bounds {
			t.Fatalf("round %d: region %v, want minimal box %v", round, r.Rect(), bounds)
		}
		for p := range unique {
			if !p.In(r.Rect()) {
				t.Fatalf("round %d: %v outside region %v", round, p, r.Rect())
			}
		}
	}
}

func TestTrackerMarkRect(t *testing.T) {
	t.Run("small rect enumerates cells", func(t *testing.T) {
		tr := NewTracker(8)
		tr.MarkRect(image.Rect(1, 1, 3, 2))
		got := sparse(t, tr.Drain())
		want := []image.Point{{1, 1}, {2, 1}}
		if !slices.Equal(got, want) {
			t.Errorf("positions = %v, want %v", got, want)
		}
	})

	t.Run("large rect becomes region", func(t *testing.T) {
		tr := NewTracker(4)
		tr.Mark(image.Pt(9, 9))
		tr.MarkRect(image.Rect(0, 0, 3, 3))
		r := region(t, tr.Drain())
		if r.Rect() != image.Rect(0, 0, 10, 10) {
			t.Errorf("region = %v, want (0,0)-(10,10)", r.Rect())
		}
		if r.Area != 10 {
			t.Errorf("Area = %d, want 1 + 9", r.Area)
		}
	})

	t.Run("empty rect ignored", func(t *testing.T) {
		tr := NewTracker(4)
		tr.MarkRect(image.Rect(2, 2, 2, 5))
		if tr.Pending() {
			t.Error("empty rect left the tracker pending")
		}
	})

	t.Run("unit rect is a single mark", func(t *testing.T) {
		tr := NewTracker(4)
		tr.MarkRect(image.Rect(3, 3, 4, 4))
		tr.Mark(image.Pt(3, 3))
		if got := sparse(t, tr.Drain()); len(got) != 1 {
			t.Errorf("positions = %v, want one cell", got)
		}
	})
}

func TestTrackerMarkAll(t *testing.T) {
	tr := NewTracker(4)
	tr.Mark(image.Pt(1, 1))
	tr.MarkAll(image.Rect(0, 0, 4, 4))
	tr.Mark(image.Pt(2, 2))

	r := region(t, tr.Drain())
	if r.Rect() != image.Rect(0, 0, 4, 4) {
		t.Errorf("region = %v, want the full canvas", r.Rect())
	}
	if r.Area != 17 {
		t.Errorf("Area = %d, want 16 cells + 1 write", r.Area)
	}
}

func TestTrackerMerge(t *testing.T) {
	tr := NewTracker(4)
	tr.Mark(image.Pt(0, 0))
	d := tr.Drain()

	tr.Mark(image.Pt(1, 1))
	tr.Merge(d)
	if got := sparse(t, tr.Drain()); len(got) != 2 {
		t.Errorf("merged sparse positions = %v, want 2", got)
	}

	tr.Mark(image.Pt(5, 5))
	tr.Merge(RegionDamage{Min: image.Pt(0, 0), Size: Sz(2, 2), Area: 6})
	r := region(t, tr.Drain())
	if r.Rect() != image.Rect(0, 0, 6, 6) || r.Area != 7 {
		t.Errorf("merged region = %v, want (0,0)-(6,6) area 7", r)
	}

	tr.Merge(NoDamage{})
	tr.Merge(nil)
	if tr.Pending() {
		t.Error("merging NoDamage left the tracker pending")
	}
}

func TestTrackerPeekDoesNotDrain(t *testing.T) {
	tr := NewTracker(4)
	tr.Mark(image.Pt(2, 2))
	if got := sparse(t, tr.Peek()); len(got) != 1 {
		t.Fatalf("Peek() = %v", got)
	}
	tr.Mark(image.Pt(3, 3))
	if got := sparse(t, tr.Drain()); len(got) != 2 {
		t.Errorf("Drain() after Peek = %v, want 2 positions", got)
	}
}

func TestTrackerSetCapacity(t *testing.T) {
	tr := NewTracker(0)
	if tr.Capacity() != DefaultSparseCapacity {
		t.Errorf("NewTracker(0).Capacity() = %d, want default", tr.Capacity())
	}
	tr.SetCapacity(2)
	for x := range 3 {
		tr.Mark(image.Pt(x, 0))
	}
	region(t, tr.Drain())
}

func TestConcurrentTracker(t *testing.T) {
	ct := NewConcurrentTracker(1000)
	done := make(chan struct{})
	const workers, perWorker = 4, 100
	for w := range workers {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := range perWorker {
				ct.Mark(image.Pt(i, w))
			}
		}()
	}
	for range workers {
		<-done
	}
	if !ct.Pending() {
		t.Fatal("Pending() = false after concurrent writes")
	}
	if got := sparse(t, ct.Drain()); len(got) != workers*perWorker {
		t.Errorf("len(positions) = %d, want %d", len(got), workers*perWorker)
	}
	if ct.Pending() {
		t.Error("Pending() = true after Drain")
	}

	ct.MarkAll(image.Rect(0, 0, 2, 2))
	ct.MarkRect(image.Rect(0, 0, 1, 1))
	ct.Merge(NoDamage{})
	if r := region(t, ct.Drain()); r.Area != 5 {
		t.Errorf("Area = %d, want 5", r.Area)
	}
}
