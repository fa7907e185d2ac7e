package texsync

import (
	"fmt"
	"image"
	"slices"
)

// DefaultSparseCapacity is the number of unique cells a Tracker enumerates
// before it falls back to a bounding box. A 1x1 patch costs one upload call,
// so past a few dozen isolated cells a single rectangle is cheaper.
const DefaultSparseCapacity = 32

// Damage is the summary returned by Tracker.Drain. It is one of NoDamage,
// SparseDamage or RegionDamage; consumers switch on the concrete type.
type Damage interface {
	isDamage()
}

// NoDamage reports that nothing was written since the previous drain.
type NoDamage struct{}

// SparseDamage lists every cell written since the previous drain.
// Positions are unique and sorted row-major.
type SparseDamage struct {
	Positions []image.Point
}

// RegionDamage is the bounding box of every cell written since the
// previous drain.
type RegionDamage struct {
	Min  image.Point
	Size Size

	// Area counts cell writes, not cells: a cell written twice counts twice.
	// The synchronizer compares it against the canvas cell count to choose
	// between a patch and a full replace.
	Area int
}

func (NoDamage) isDamage()     {}
func (SparseDamage) isDamage() {}
func (RegionDamage) isDamage() {}

// Rect returns the damaged rectangle.
func (r RegionDamage) Rect() image.Rectangle {
	return r.Size.Rect(r.Min)
}

func (r RegionDamage) String() string {
	return fmt.Sprintf("region %v area=%d", r.Rect(), r.Area)
}

// trackerState is the accumulation state of a Tracker.
type trackerState uint8

const (
	stateEmpty trackerState = iota
	stateSparse
	stateRegion
)

// Tracker accumulates the cells written since the last drain.
//
// Up to its capacity of unique cells it keeps the exact positions; past that
// it keeps only their bounding box and a count of writes. MarkAll forces the
// bounding-box form for bulk invalidation.
//
// The zero value is an empty tracker with DefaultSparseCapacity.
// Tracker is NOT safe for concurrent use; see ConcurrentTracker.
type Tracker struct {
	capacity  int
	state     trackerState
	positions map[image.Point]struct{}
	bounds    image.Rectangle
	area      int
}

// NewTracker creates an empty tracker that enumerates up to capacity cells.
// A non-positive capacity selects DefaultSparseCapacity.
func NewTracker(capacity int) *Tracker {
	t := &Tracker{}
	t.SetCapacity(capacity)
	return t
}

// SetCapacity changes the sparse capacity. It applies from the next write;
// an already enumerated set larger than the new capacity collapses to a
// region on that write.
func (t *Tracker) SetCapacity(capacity int) {
	if capacity <= 0 {
		capacity = DefaultSparseCapacity
	}
	t.capacity = capacity
}

// Capacity returns the number of unique cells enumerated before the tracker
// switches to a bounding box.
func (t *Tracker) Capacity() int {
	if t.capacity <= 0 {
		return DefaultSparseCapacity
	}
	return t.capacity
}

// Pending reports whether any write is waiting to be drained.
func (t *Tracker) Pending() bool {
	return t.state != stateEmpty
}

// Mark records a write to the single cell p.
func (t *Tracker) Mark(p image.Point) {
	switch t.state {
	case stateEmpty:
		t.state = stateSparse
		if t.positions == nil {
			t.positions = make(map[image.Point]struct{}, t.Capacity())
		}
		t.positions[p] = struct{}{}
	case stateSparse:
		if _, ok := t.positions[p]; ok {
			return
		}
		if len(t.positions)+1 > t.Capacity() {
			t.toRegion()
			t.bounds = t.bounds.Union(cell(p))
			t.area++
			return
		}
		t.positions[p] = struct{}{}
	case stateRegion:
		t.bounds = t.bounds.Union(cell(p))
		t.area++
	}
}

// MarkRect records a write to every cell of r. Empty rectangles are ignored.
func (t *Tracker) MarkRect(r image.Rectangle) {
	r = r.Canon()
	if r.Empty() {
		return
	}
	if r.Dx() == 1 && r.Dy() == 1 {
		t.Mark(r.Min)
		return
	}
	if t.state != stateRegion && r.Dx()*r.Dy() > t.Capacity() {
		// r alone holds more unique cells than the sparse set can enumerate.
		t.toRegion()
	}
	if t.state == stateRegion {
		t.bounds = t.bounds.Union(r)
		t.area += r.Dx() * r.Dy()
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			t.Mark(image.Pt(x, y))
		}
	}
}

// MarkAll forces the whole canvas dirty. The summary becomes a region equal
// to full whose write count is the number of cells in full.
func (t *Tracker) MarkAll(full image.Rectangle) {
	full = full.Canon()
	clear(t.positions)
	t.state = stateRegion
	t.bounds = full
	t.area = full.Dx() * full.Dy()
}

// Merge folds a previously drained summary back into the tracker.
// Nothing is lost: sparse positions are re-marked, a region is unioned with
// its write count added.
func (t *Tracker) Merge(d Damage) {
	switch d := d.(type) {
	case nil, NoDamage:
	case SparseDamage:
		for _, p := range d.Positions {
			t.Mark(p)
		}
	case RegionDamage:
		if d.Size.Area() == 0 {
			return
		}
		t.toRegion()
		t.bounds = t.bounds.Union(d.Rect())
		t.area += d.Area
	default:
		panic(fmt.Sprintf("texsync: unknown damage type %T", d))
	}
}

// Drain returns the accumulated summary and resets the tracker to empty.
func (t *Tracker) Drain() Damage {
	var d Damage
	switch t.state {
	case stateSparse:
		positions := make([]image.Point, 0, len(t.positions))
		for p := range t.positions {
			positions = append(positions, p)
		}
		slices.SortFunc(positions, comparePoints)
		d = SparseDamage{Positions: positions}
	case stateRegion:
		d = RegionDamage{Min: t.bounds.Min, Size: sizeOf(t.bounds), Area: t.area}
	default:
		d = NoDamage{}
	}
	t.reset()
	return d
}

// Peek returns the summary Drain would return without resetting.
func (t *Tracker) Peek() Damage {
	saved := *t
	saved.positions = make(map[image.Point]struct{}, len(t.positions))
	for p := range t.positions {
		saved.positions[p] = struct{}{}
	}
	return saved.Drain()
}

// toRegion converts the current state to a region covering every cell
// recorded so far. Each enumerated cell counts as one write.
func (t *Tracker) toRegion() {
	switch t.state {
	case stateRegion:
		return
	case stateSparse:
		t.bounds = image.Rectangle{}
		for p := range t.positions {
			t.bounds = t.bounds.Union(cell(p))
		}
		t.area = len(t.positions)
		clear(t.positions)
	default:
		t.bounds = image.Rectangle{}
		t.area = 0
	}
	t.state = stateRegion
}

func (t *Tracker) reset() {
	t.state = stateEmpty
	clear(t.positions)
	t.bounds = image.Rectangle{}
	t.area = 0
}

// cell returns the 1x1 rectangle at p.
func cell(p image.Point) image.Rectangle {
	return image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))}
}

// comparePoints orders points row-major.
func comparePoints(a, b image.Point) int {
	if a.Y != b.Y {
		return a.Y - b.Y
	}
	return a.X - b.X
}
