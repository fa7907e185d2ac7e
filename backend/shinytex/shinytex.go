// Package shinytex keeps canvas textures in golang.org/x/exp/shiny
// textures.
//
// Each handle owns a screen.Texture and a staging screen.Buffer of the same
// size. Patches are copied into the staging buffer and only the patch
// rectangle is uploaded.
package shinytex

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/texsync"
	"golang.org/x/exp/shiny/screen"
	xdraw "golang.org/x/image/draw"
)

// ErrUnknownHandle is returned for a handle that is not allocated.
var ErrUnknownHandle = errors.New("shinytex: unknown texture handle")

// Allocator is the subset of screen.Screen the cache allocates from.
type Allocator interface {
	NewBuffer(size image.Point) (screen.Buffer, error)
	NewTexture(size image.Point) (screen.Texture, error)
}

// Scaler is implemented by screen.Window.
type Scaler interface {
	Scale(dr image.Rectangle, src screen.Texture, sr image.Rectangle, op draw.Op, opts *screen.DrawOptions)
}

type entry struct {
	tex      screen.Texture
	staging  screen.Buffer
	sampling texsync.SamplingOptions
}

// Cache is a texsync.TextureCache of shiny textures. Use it from the
// goroutine that owns the window.
type Cache struct {
	alloc   Allocator
	next    texsync.Handle
	entries map[texsync.Handle]*entry
	logger  *slog.Logger
}

// New creates a cache allocating from s, usually the screen.Screen passed
// to driver.Main.
func New(s Allocator) *Cache {
	return &Cache{alloc: s, entries: make(map[texsync.Handle]*entry)}
}

// SetLogger sets the logger for texture lifecycle messages.
func (c *Cache) SetLogger(l *slog.Logger) { c.logger = l }

func (c *Cache) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return texsync.Logger()
}

// Allocate creates a texture and staging buffer holding img.
func (c *Cache) Allocate(name string, img *image.RGBA, opts texsync.SamplingOptions) (texsync.Handle, error) {
	size := img.Rect.Size()
	staging, err := c.alloc.NewBuffer(size)
	if err != nil {
		return texsync.InvalidHandle, fmt.Errorf("shinytex: new buffer %v: %w", size, err)
	}
	tex, err := c.alloc.NewTexture(size)
	if err != nil {
		staging.Release()
		return texsync.InvalidHandle, fmt.Errorf("shinytex: new texture %v: %w", size, err)
	}

	e := &entry{tex: tex, staging: staging, sampling: opts}
	xdraw.Copy(staging.RGBA(), image.Point{}, img, img.Rect, xdraw.Src, nil)
	tex.Upload(image.Point{}, staging, staging.Bounds())

	c.next++
	c.entries[c.next] = e
	c.log().Debug("shinytex: texture created", "handle", c.next, "name", name, "size", size)
	return c.next, nil
}

// Free releases the texture and staging buffer of h.
func (c *Cache) Free(h texsync.Handle) {
	e, ok := c.entries[h]
	if !ok {
		return
	}
	delete(c.entries, h)
	e.tex.Release()
	e.staging.Release()
}

// ApplyPatch stages img at origin and uploads that rectangle.
func (c *Cache) ApplyPatch(h texsync.Handle, origin image.Point, img *image.RGBA, opts texsync.SamplingOptions) error {
	e, ok := c.entries[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	r := image.Rectangle{Min: origin, Max: origin.Add(img.Rect.Size())}
	if !r.In(e.staging.Bounds()) {
		return fmt.Errorf("shinytex: patch %v outside %v", r, e.staging.Bounds())
	}
	xdraw.Copy(e.staging.RGBA(), origin, img, img.Rect, xdraw.Src, nil)
	e.tex.Upload(origin, e.staging, r)
	e.sampling = opts
	return nil
}

// ApplyFull stages img and uploads the whole texture.
func (c *Cache) ApplyFull(h texsync.Handle, img *image.RGBA, opts texsync.SamplingOptions) error {
	e, ok := c.entries[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	if img.Rect.Size() != e.staging.Size() {
		return fmt.Errorf("shinytex: full image %v, texture %v", img.Rect.Size(), e.staging.Size())
	}
	xdraw.Copy(e.staging.RGBA(), image.Point{}, img, img.Rect, xdraw.Src, nil)
	e.tex.Upload(image.Point{}, e.staging, e.staging.Bounds())
	e.sampling = opts
	return nil
}

// Texture returns the shiny texture of h.
func (c *Cache) Texture(h texsync.Handle) (screen.Texture, bool) {
	e, ok := c.entries[h]
	if !ok {
		return nil, false
	}
	return e.tex, true
}

// Draw scales h into dr of w on the GPU side.
func (c *Cache) Draw(w Scaler, h texsync.Handle, dr image.Rectangle) error {
	e, ok := c.entries[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	w.Scale(dr, e.tex, e.tex.Bounds(), draw.Src, nil)
	return nil
}

// Render scales the staged texels of h into dr of dst on the CPU, with the
// interpolator the sampling options select for that scale.
func (c *Cache) Render(dst draw.Image, h texsync.Handle, dr image.Rectangle) error {
	e, ok := c.entries[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	src := e.staging.RGBA()
	interp(e.sampling, dr.Size(), src.Rect.Size()).Scale(dst, dr, src, src.Rect, xdraw.Src, nil)
	return nil
}

// interp picks the interpolator for drawing a texture of size src into dst.
func interp(s texsync.SamplingOptions, dst, src image.Point) xdraw.Interpolator {
	mode := s.Magnification
	if dst.X < src.X || dst.Y < src.Y {
		mode = s.Minification
	}
	if mode == gputypes.FilterModeLinear {
		return xdraw.ApproxBiLinear
	}
	return xdraw.NearestNeighbor
}

// Close releases every texture.
func (c *Cache) Close() {
	for h := range c.entries {
		c.Free(h)
	}
}
