// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpucanvas

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/gpucontext"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/texsync"
)

// Common errors returned by Cache operations.
var (
	// ErrCacheClosed is returned when operations are attempted on a closed cache.
	ErrCacheClosed = errors.New("gpucanvas: cache is closed")

	// ErrUnknownHandle is returned for a handle that is not allocated.
	ErrUnknownHandle = errors.New("gpucanvas: unknown texture handle")

	// ErrPatchOutOfBounds is returned when a patch does not fit the texture.
	ErrPatchOutOfBounds = errors.New("gpucanvas: patch outside texture")

	// ErrTextureCreationFailed is returned when the GPU texture cannot be created.
	ErrTextureCreationFailed = errors.New("gpucanvas: texture creation failed")
)

// textureDestroyer is the interface for destroying textures.
// This matches the gogpu.Texture.Destroy signature.
type textureDestroyer interface {
	Destroy()
}

// createFunc creates a GPU texture from tightly packed RGBA texels.
type createFunc func(width, height int, data []byte) (any, error)

// slot is one canvas texture: a CPU shadow plus the GPU texture created
// from it during the first render.
type slot struct {
	name    string
	shadow  *image.RGBA
	texture any             // nil until the first render (pending)
	dirty   image.Rectangle // shadow texels not yet on the GPU
}

// Cache is a texsync.TextureCache for gogpu windows.
//
// GPU textures can only be created while a frame is being drawn, so
// Allocate and the Apply methods only touch a CPU shadow of each texture.
// RenderTo creates the GPU texture on first use and uploads what changed
// since the previous render. Freed GPU textures are destroyed after the
// next upload, when the GPU no longer reads them.
//
// Cache is NOT safe for concurrent use.
type Cache struct {
	provider  gpucontext.DeviceProvider
	slots     map[texsync.Handle]*slot
	next      texsync.Handle
	graveyard []any
	uploads   Uploads
	logger    *slog.Logger
	closed    bool
}

// Uploads counts GPU transfers made by RenderTo.
type Uploads struct {
	Created int // textures created from a pending shadow
	Region  int // partial uploads through a region updater
	Full    int // whole-texture UpdateData calls
}

// New creates a cache for textures drawn in windows of provider.
// The provider should come from gogpu.App.GPUContextProvider(); it may be
// nil when the cache is only driven through RenderTo.
func New(provider gpucontext.DeviceProvider) *Cache {
	return &Cache{
		provider: provider,
		slots:    make(map[texsync.Handle]*slot),
	}
}

// Provider returns the DeviceProvider associated with this cache.
// Returns nil if the cache is closed.
func (c *Cache) Provider() gpucontext.DeviceProvider {
	if c.closed {
		return nil
	}
	return c.provider
}

// SetLogger sets the logger for texture lifecycle messages.
func (c *Cache) SetLogger(l *slog.Logger) {
	c.logger = l
}

func (c *Cache) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return texsync.Logger()
}

// Uploads returns the transfer counters.
func (c *Cache) Uploads() Uploads {
	return c.uploads
}

// Allocate stores a pending texture initialized with img.
func (c *Cache) Allocate(name string, img *image.RGBA, _ texsync.SamplingOptions) (texsync.Handle, error) {
	if c.closed {
		return texsync.InvalidHandle, ErrCacheClosed
	}
	c.next++
	c.slots[c.next] = &slot{name: name, shadow: clone(img)}
	return c.next, nil
}

// Free drops h. Its GPU texture, if any, is destroyed after the next upload.
func (c *Cache) Free(h texsync.Handle) {
	s, ok := c.slots[h]
	if !ok {
		return
	}
	delete(c.slots, h)
	if s.texture != nil {
		c.graveyard = append(c.graveyard, s.texture)
	}
}

// ApplyPatch copies img into the shadow of h at origin.
func (c *Cache) ApplyPatch(h texsync.Handle, origin image.Point, img *image.RGBA, _ texsync.SamplingOptions) error {
	s, err := c.slot(h)
	if err != nil {
		return err
	}
	r := image.Rectangle{Min: origin, Max: origin.Add(img.Rect.Size())}
	if !r.In(s.shadow.Rect) {
		return fmt.Errorf("%w: %v in %v", ErrPatchOutOfBounds, r, s.shadow.Rect)
	}
	xdraw.Copy(s.shadow, r.Min, img, img.Rect, xdraw.Src, nil)
	s.dirty = s.dirty.Union(r)
	return nil
}

// ApplyFull replaces the shadow of h.
func (c *Cache) ApplyFull(h texsync.Handle, img *image.RGBA, _ texsync.SamplingOptions) error {
	s, err := c.slot(h)
	if err != nil {
		return err
	}
	if img.Rect.Size() != s.shadow.Rect.Size() {
		return fmt.Errorf("gpucanvas: full image %v, texture %v", img.Rect.Size(), s.shadow.Rect.Size())
	}
	s.shadow = clone(img)
	s.dirty = s.shadow.Rect
	return nil
}

func (c *Cache) slot(h texsync.Handle) (*slot, error) {
	if c.closed {
		return nil, ErrCacheClosed
	}
	s, ok := c.slots[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return s, nil
}

// Pending reports whether h has no GPU texture yet.
func (c *Cache) Pending(h texsync.Handle) bool {
	s, ok := c.slots[h]
	return ok && s.texture == nil
}

// realize returns the GPU texture of h with every shadow change uploaded.
func (c *Cache) realize(h texsync.Handle, create createFunc) (any, error) {
	s, err := c.slot(h)
	if err != nil {
		return nil, err
	}

	if s.texture == nil {
		size := s.shadow.Rect.Size()
		tex, err := create(size.X, size.Y, s.shadow.Pix)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrTextureCreationFailed, s.name, err)
		}
		s.texture = tex
		s.dirty = image.Rectangle{}
		c.uploads.Created++
		c.log().Debug("gpucanvas: texture created", "name", s.name, "size", size)
		c.bury()
		return tex, nil
	}

	if s.dirty.Empty() {
		return s.texture, nil
	}
	if err := c.upload(s); err != nil {
		return nil, err
	}
	s.dirty = image.Rectangle{}
	c.bury()
	return s.texture, nil
}

// upload sends the dirty rectangle through a region updater when the
// texture has one, and the whole shadow otherwise.
func (c *Cache) upload(s *slot) error {
	if s.dirty != s.shadow.Rect {
		if ru, ok := s.texture.(gpucontext.TextureRegionUpdater); ok {
			sub := s.shadow.SubImage(s.dirty).(*image.RGBA)
			if err := ru.UpdateRegion(s.dirty.Min.X, s.dirty.Min.Y, s.dirty.Dx(), s.dirty.Dy(), packed(sub)); err != nil {
				return fmt.Errorf("gpucanvas: region update failed: %w", err)
			}
			c.uploads.Region++
			return nil
		}
	}
	if updater, ok := s.texture.(gpucontext.TextureUpdater); ok {
		if err := updater.UpdateData(s.shadow.Pix); err != nil {
			return fmt.Errorf("gpucanvas: texture update failed: %w", err)
		}
		c.uploads.Full++
	}
	return nil
}

// bury destroys textures freed before the last upload. Uploads wait for
// the GPU, so nothing still samples them.
func (c *Cache) bury() {
	for _, tex := range c.graveyard {
		if destroyer, ok := tex.(textureDestroyer); ok {
			destroyer.Destroy()
		}
	}
	c.graveyard = c.graveyard[:0]
}

// Close destroys every GPU texture. After Close, the cache should not be used.
// Close is idempotent - multiple calls are safe.
func (c *Cache) Close() {
	if c.closed {
		return
	}
	for h, s := range c.slots {
		if s.texture != nil {
			c.graveyard = append(c.graveyard, s.texture)
		}
		delete(c.slots, h)
	}
	c.bury()
	c.closed = true
	c.provider = nil
}

func clone(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Rect.Sub(img.Rect.Min))
	xdraw.Copy(out, image.Point{}, img, img.Rect, xdraw.Src, nil)
	return out
}

// packed returns the texels of img without row padding.
func packed(img *image.RGBA) []byte {
	w := img.Rect.Dx() * 4
	h := img.Rect.Dy()
	if img.Stride == w && img.Rect.Min == (image.Point{}) {
		return img.Pix[:w*h]
	}
	out := make([]byte, w*h)
	for y := 0; y < h; y++ {
		o := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(out[y*w:], img.Pix[o:o+w])
	}
	return out
}
