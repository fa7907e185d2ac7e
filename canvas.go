package texsync

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Canvas errors.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("texsync: canvas is closed")

	// ErrNilCache is returned when a nil TextureCache is passed.
	ErrNilCache = errors.New("texsync: nil TextureCache")
)

// Canvas is an editable pixel surface mirrored into a texture.
//
// Writes go to the CPU buffer and are recorded by the damage tracker; once
// per frame Frame (or Sync) uploads only what changed. The canvas owns its
// buffer, tracker and texture handle directly.
//
// Canvas is NOT safe for concurrent use. Create one Canvas per goroutine,
// or use external synchronization.
type Canvas struct {
	buf     *PixelBuffer
	tracker Tracker
	tex     Handle
	sync    *Synchronizer
	cache   TextureCache
	closed  bool
}

// New creates a canvas of the given size, allocates its texture in cache
// and uploads the initial (background) contents.
//
// Returns error if cache is nil, dimensions are invalid, or the texture
// cannot be allocated.
func New(cache TextureCache, size Size, opts ...Option) (*Canvas, error) {
	if cache == nil {
		return nil, ErrNilCache
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, size.Width, size.Height)
	}

	o := buildOptions(opts)
	c := &Canvas{
		buf:   NewPixelBuffer(size, o.background),
		sync:  newSynchronizer(cache, o),
		cache: cache,
	}
	c.tracker.SetCapacity(o.capacity)

	l := o.logger
	if l == nil {
		l = Logger()
	}
	propagateLogger(cache, l)

	tex, err := c.sync.Allocate(c.buf)
	if err != nil {
		return nil, err
	}
	c.tex = tex
	return c, nil
}

// MustNew is like New but panics on error.
// Use only when errors are programming mistakes.
func MustNew(cache TextureCache, size Size, opts ...Option) *Canvas {
	c, err := New(cache, size, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() Size {
	return c.buf.Size()
}

// Bounds returns the valid position range.
func (c *Canvas) Bounds() image.Rectangle {
	return c.buf.Bounds()
}

// Texture returns the current texture handle. The handle changes on every
// resize; InvalidHandle means allocation failed or the canvas is closed.
func (c *Canvas) Texture() Handle {
	return c.tex
}

// Buffer returns the CPU pixel buffer. It is replaced on resize, so do not
// keep it across frames. Writing to it directly bypasses damage tracking.
func (c *Canvas) Buffer() *PixelBuffer {
	return c.buf
}

// Pixel returns the color at p, or false if p is outside the canvas.
func (c *Canvas) Pixel(p image.Point) (color.RGBA, bool) {
	return c.buf.Get(p)
}

// SetPixel writes col at p and records the write.
// p must lie inside the canvas; see PixelBuffer.Set.
func (c *Canvas) SetPixel(p image.Point, col color.RGBA) {
	c.buf.Set(p, col)
	c.tracker.Mark(p)
}

// FillRect fills r, clipped to the canvas, with col and records the write.
func (c *Canvas) FillRect(r image.Rectangle, col color.RGBA) {
	r = r.Canon().Intersect(c.buf.Bounds())
	if r.Empty() {
		return
	}
	c.buf.fill(r, col)
	c.tracker.MarkRect(r)
}

// Invalidate marks the whole canvas dirty so the next sync replaces the
// entire texture.
func (c *Canvas) Invalidate() {
	c.tracker.MarkAll(c.buf.Bounds())
}

// Pending reports whether any write is waiting to be uploaded.
func (c *Canvas) Pending() bool {
	return c.tracker.Pending()
}

// Damage returns the summary the next Sync would upload, without draining it.
func (c *Canvas) Damage() Damage {
	return c.tracker.Peek()
}

// Stats returns the accumulated transfer statistics.
func (c *Canvas) Stats() Stats {
	return c.sync.Stats()
}

// Resize changes the canvas dimensions, keeping the overlapping pixels.
// Resizing to the current size is a no-op. After a real resize the old
// texture handle is invalid and the new texture is fully populated.
func (c *Canvas) Resize(size Size) error {
	if c.closed {
		return ErrCanvasClosed
	}
	buf, tex, err := c.sync.HandleResize(size, c.buf, c.tex, &c.tracker)
	c.buf = buf
	c.tex = tex
	return err
}

// Sync uploads everything written since the last sync.
func (c *Canvas) Sync() error {
	if c.closed {
		return ErrCanvasClosed
	}
	return c.sync.Flush(c.buf, &c.tracker, c.tex)
}

// Frame is the per-frame entry point for a host loop: it resizes the canvas
// to windowSize if that changed, then uploads pending damage.
//
// Example:
//
//	for frame := range frames {
//	    paint(canvas)
//	    if err := canvas.Frame(frame.WindowSize); err != nil {
//	        return err
//	    }
//	    draw(canvas.Texture())
//	}
func (c *Canvas) Frame(windowSize Size) error {
	if err := c.Resize(windowSize); err != nil {
		return err
	}
	return c.Sync()
}

// Close frees the texture. After Close, the canvas should not be used.
// Close is idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.tex != InvalidHandle {
		c.cache.Free(c.tex)
		c.tex = InvalidHandle
	}
	c.sync.log().Debug("texsync: canvas closed", "stats", c.sync.Stats())
	return nil
}
