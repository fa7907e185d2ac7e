// Package haltex uploads canvas textures through the gogpu/wgpu HAL.
//
// Each handle owns an RGBA8Unorm 2D texture and a sampler built from the
// canvas sampling options. Patches are written with Queue.WriteTexture at
// the patch origin, so a sparse frame costs one small copy per cell.
package haltex

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/texsync"
	"github.com/gogpu/wgpu/hal"
)

// ErrUnknownHandle is returned for a handle that is not allocated.
var ErrUnknownHandle = errors.New("haltex: unknown texture handle")

// ErrPatchOutOfBounds is returned when a patch does not fit the texture.
var ErrPatchOutOfBounds = errors.New("haltex: patch outside texture")

// Device is the subset of hal.Device the cache uses.
type Device interface {
	CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error)
	DestroyTexture(texture hal.Texture)
	CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error)
	DestroySampler(sampler hal.Sampler)
}

// writeFunc copies tightly packed texels into a texture region.
type writeFunc func(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D)

type entry struct {
	texture  hal.Texture
	sampler  hal.Sampler
	size     image.Point
	sampling texsync.SamplingOptions
}

// Cache is a texsync.TextureCache backed by HAL textures.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	device  Device
	write   writeFunc
	next    texsync.Handle
	entries map[texsync.Handle]*entry
	logger  *slog.Logger
}

// New creates a cache that allocates on device and uploads through queue.
func New(device Device, queue hal.Queue) *Cache {
	return newCache(device, func(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) {
		queue.WriteTexture(dst, data, layout, size)
	})
}

func newCache(device Device, write writeFunc) *Cache {
	return &Cache{
		device:  device,
		write:   write,
		entries: make(map[texsync.Handle]*entry),
	}
}

// SetLogger sets the logger for texture lifecycle messages.
func (c *Cache) SetLogger(l *slog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
}

func (c *Cache) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return texsync.Logger()
}

// Allocate creates a texture and sampler, then uploads img.
func (c *Cache) Allocate(name string, img *image.RGBA, opts texsync.SamplingOptions) (texsync.Handle, error) {
	size := img.Rect.Size()
	if size.X <= 0 || size.Y <= 0 {
		return texsync.InvalidHandle, fmt.Errorf("haltex: %w: %v", texsync.ErrInvalidDimensions, size)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tex, err := c.device.CreateTexture(textureDescriptor(name, size))
	if err != nil {
		return texsync.InvalidHandle, fmt.Errorf("haltex: create texture %q: %w", name, err)
	}
	smp, err := c.device.CreateSampler(samplerDescriptor(name, opts))
	if err != nil {
		c.device.DestroyTexture(tex)
		return texsync.InvalidHandle, fmt.Errorf("haltex: create sampler %q: %w", name, err)
	}

	c.next++
	h := c.next
	e := &entry{texture: tex, sampler: smp, size: size, sampling: opts}
	c.entries[h] = e
	c.upload(e, image.Point{}, img)
	c.log().Debug("haltex: texture created", "handle", h, "name", name, "size", size)
	return h, nil
}

// Free destroys the texture and sampler of h.
func (c *Cache) Free(h texsync.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[h]
	if !ok {
		return
	}
	delete(c.entries, h)
	c.device.DestroySampler(e.sampler)
	c.device.DestroyTexture(e.texture)
	c.log().Debug("haltex: texture destroyed", "handle", h)
}

// ApplyPatch writes img into h at origin.
func (c *Cache) ApplyPatch(h texsync.Handle, origin image.Point, img *image.RGBA, opts texsync.SamplingOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.entry(h, opts)
	if err != nil {
		return err
	}
	r := image.Rectangle{Min: origin, Max: origin.Add(img.Rect.Size())}
	if !r.In(image.Rectangle{Max: e.size}) {
		return fmt.Errorf("%w: %v in %v", ErrPatchOutOfBounds, r, e.size)
	}
	c.upload(e, origin, img)
	return nil
}

// ApplyFull writes img over the whole texture of h.
func (c *Cache) ApplyFull(h texsync.Handle, img *image.RGBA, opts texsync.SamplingOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.entry(h, opts)
	if err != nil {
		return err
	}
	if img.Rect.Size() != e.size {
		return fmt.Errorf("haltex: full image %v, texture %v", img.Rect.Size(), e.size)
	}
	c.upload(e, image.Point{}, img)
	return nil
}

// entry looks up h and rebuilds its sampler if the filters changed.
func (c *Cache) entry(h texsync.Handle, opts texsync.SamplingOptions) (*entry, error) {
	e, ok := c.entries[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	if opts != e.sampling {
		smp, err := c.device.CreateSampler(samplerDescriptor("", opts))
		if err != nil {
			return nil, fmt.Errorf("haltex: recreate sampler: %w", err)
		}
		c.device.DestroySampler(e.sampler)
		e.sampler = smp
		e.sampling = opts
	}
	return e, nil
}

func (c *Cache) upload(e *entry, origin image.Point, img *image.RGBA) {
	size := img.Rect.Size()
	if size.X == 0 || size.Y == 0 {
		return
	}
	data := packed(img)
	c.write(
		&hal.ImageCopyTexture{
			Texture:  e.texture,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(origin.X), Y: uint32(origin.Y), Z: 0},
			Aspect:   gputypes.TextureAspectAll,
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(size.X * 4),
			RowsPerImage: uint32(size.Y),
		},
		&hal.Extent3D{Width: uint32(size.X), Height: uint32(size.Y), DepthOrArrayLayers: 1},
	)
}

// Texture returns the HAL texture of h for binding.
func (c *Cache) Texture(h texsync.Handle) (hal.Texture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[h]; ok {
		return e.texture, true
	}
	return nil, false
}

// Sampler returns the sampler of h for binding.
func (c *Cache) Sampler(h texsync.Handle) (hal.Sampler, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[h]; ok {
		return e.sampler, true
	}
	return nil, false
}

// Close destroys every texture still allocated.
func (c *Cache) Close() {
	c.mu.Lock()
	handles := make([]texsync.Handle, 0, len(c.entries))
	for h := range c.entries {
		handles = append(handles, h)
	}
	c.mu.Unlock()

	for _, h := range handles {
		c.Free(h)
	}
}

func textureDescriptor(label string, size image.Point) *hal.TextureDescriptor {
	return &hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              uint32(size.X),
			Height:             uint32(size.Y),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	}
}

func samplerDescriptor(label string, opts texsync.SamplingOptions) *hal.SamplerDescriptor {
	return &hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    opts.Magnification,
		MinFilter:    opts.Minification,
		MipmapFilter: gputypes.FilterModeNearest,
	}
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
