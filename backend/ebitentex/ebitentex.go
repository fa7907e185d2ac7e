//go:build ebiten

package ebitentex

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/texsync"
	"github.com/hajimehoshi/ebiten/v2"
)

// ErrUnknownHandle is returned for a handle that is not allocated.
var ErrUnknownHandle = errors.New("ebitentex: unknown texture handle")

type entry struct {
	img      *ebiten.Image
	sampling texsync.SamplingOptions
}

// Cache is a texsync.TextureCache of ebiten images. Use it from the game
// goroutine only.
type Cache struct {
	next    texsync.Handle
	entries map[texsync.Handle]*entry
	logger  *slog.Logger
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[texsync.Handle]*entry)}
}

// SetLogger sets the logger for texture lifecycle messages.
func (c *Cache) SetLogger(l *slog.Logger) { c.logger = l }

func (c *Cache) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return texsync.Logger()
}

// Allocate creates an ebiten image holding img.
func (c *Cache) Allocate(name string, img *image.RGBA, opts texsync.SamplingOptions) (texsync.Handle, error) {
	size := img.Rect.Size()
	if size.X <= 0 || size.Y <= 0 {
		return texsync.InvalidHandle, fmt.Errorf("ebitentex: %w: %v", texsync.ErrInvalidDimensions, size)
	}
	e := &entry{img: ebiten.NewImage(size.X, size.Y), sampling: opts}
	e.img.WritePixels(pixels(img))

	c.next++
	c.entries[c.next] = e
	c.log().Debug("ebitentex: image created", "handle", c.next, "name", name, "size", size)
	return c.next, nil
}

// Free disposes the image of h.
func (c *Cache) Free(h texsync.Handle) {
	e, ok := c.entries[h]
	if !ok {
		return
	}
	delete(c.entries, h)
	e.img.Dispose()
}

// ApplyPatch writes img into the sub-image of h at origin.
func (c *Cache) ApplyPatch(h texsync.Handle, origin image.Point, img *image.RGBA, opts texsync.SamplingOptions) error {
	e, ok := c.entries[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	r := image.Rectangle{Min: origin, Max: origin.Add(img.Rect.Size())}
	if !r.In(e.img.Bounds()) {
		return fmt.Errorf("ebitentex: patch %v outside %v", r, e.img.Bounds())
	}
	if r.Empty() {
		return nil
	}
	e.img.SubImage(r).(*ebiten.Image).WritePixels(pixels(img))
	e.sampling = opts
	return nil
}

// ApplyFull replaces every pixel of h.
func (c *Cache) ApplyFull(h texsync.Handle, img *image.RGBA, opts texsync.SamplingOptions) error {
	e, ok := c.entries[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	if img.Rect.Size() != e.img.Bounds().Size() {
		return fmt.Errorf("ebitentex: full image %v, texture %v", img.Rect.Size(), e.img.Bounds().Size())
	}
	e.img.WritePixels(pixels(img))
	e.sampling = opts
	return nil
}

// Image returns the ebiten image of h.
func (c *Cache) Image(h texsync.Handle) (*ebiten.Image, bool) {
	e, ok := c.entries[h]
	if !ok {
		return nil, false
	}
	return e.img, true
}

// Draw draws h onto dst at (x, y) scaled by scale, using the filter the
// canvas sampling options select for that scale.
func (c *Cache) Draw(dst *ebiten.Image, h texsync.Handle, x, y, scale float64) error {
	e, ok := c.entries[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	op := &ebiten.DrawImageOptions{}
	if Filter(e.sampling, scale) == gputypes.FilterModeLinear {
		op.Filter = ebiten.FilterLinear
	} else {
		op.Filter = ebiten.FilterNearest
	}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	dst.DrawImage(e.img, op)
	return nil
}

// Close disposes every image.
func (c *Cache) Close() {
	for h := range c.entries {
		c.Free(h)
	}
}
