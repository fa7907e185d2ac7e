package texsync

import (
	"image"
	"sync"
)

// ConcurrentTracker is a Tracker guarded by a single mutex, for hosts whose
// pixel writes come from several goroutines.
//
// The sparse-to-region switch and the bounding-box widening must observe
// every write in order, so every operation, including Drain, takes the
// same lock.
type ConcurrentTracker struct {
	mu sync.Mutex
	t  Tracker
}

// NewConcurrentTracker creates an empty tracker that enumerates up to
// capacity cells.
func NewConcurrentTracker(capacity int) *ConcurrentTracker {
	c := &ConcurrentTracker{}
	c.t.SetCapacity(capacity)
	return c
}

// Mark records a write to the single cell p.
func (c *ConcurrentTracker) Mark(p image.Point) {
	c.mu.Lock()
	c.t.Mark(p)
	c.mu.Unlock()
}

// MarkRect records a write to every cell of r.
func (c *ConcurrentTracker) MarkRect(r image.Rectangle) {
	c.mu.Lock()
	c.t.MarkRect(r)
	c.mu.Unlock()
}

// MarkAll forces the whole canvas dirty.
func (c *ConcurrentTracker) MarkAll(full image.Rectangle) {
	c.mu.Lock()
	c.t.MarkAll(full)
	c.mu.Unlock()
}

// Merge folds a previously drained summary back in.
func (c *ConcurrentTracker) Merge(d Damage) {
	c.mu.Lock()
	c.t.Merge(d)
	c.mu.Unlock()
}

// Pending reports whether any write is waiting to be drained.
func (c *ConcurrentTracker) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t.Pending()
}

// Drain atomically returns the accumulated summary and resets the tracker.
func (c *ConcurrentTracker) Drain() Damage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t.Drain()
}
