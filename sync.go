package texsync

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/oklog/ulid/v2"
)

// Handle is an opaque texture handle issued by a TextureCache.
type Handle uint64

// InvalidHandle is the zero Handle: no texture.
const InvalidHandle Handle = 0

// TextureCache is the texture backend a canvas synchronizes into.
//
// Images passed to the cache are anchored at (0, 0) and owned by the cache
// after the call returns.
type TextureCache interface {
	// Allocate creates a texture initialized with img.
	Allocate(name string, img *image.RGBA, opts SamplingOptions) (Handle, error)

	// Free releases h. The handle must not be used afterwards.
	Free(h Handle)

	// ApplyPatch overwrites the texels of h covered by img placed at origin.
	ApplyPatch(h Handle, origin image.Point, img *image.RGBA, opts SamplingOptions) error

	// ApplyFull replaces every texel of h with img.
	ApplyFull(h Handle, img *image.RGBA, opts SamplingOptions) error
}

// Synchronization errors.
var (
	// ErrNoTexture is returned when damage must be uploaded but no texture
	// is allocated.
	ErrNoTexture = errors.New("texsync: no texture allocated")

	// ErrDamageOutOfBounds is returned when a damage summary references
	// cells outside the pixel buffer. Nothing is uploaded.
	ErrDamageOutOfBounds = errors.New("texsync: damage outside buffer")

	// ErrInvalidDimensions is returned when width or height is not positive.
	ErrInvalidDimensions = errors.New("texsync: invalid dimensions")
)

// Synchronizer turns drained damage into texture cache updates.
//
// For a sparse summary it sends one 1x1 patch per cell. For a region it sends
// one rectangular patch while the region's write count stays below half the
// canvas, and a full replace from there on. Resize reallocates the buffer
// and the texture and forces a full replace.
//
// Synchronizer is NOT safe for concurrent use.
type Synchronizer struct {
	cache      TextureCache
	name       string
	sampling   SamplingOptions
	background color.RGBA
	logger     *slog.Logger
	stats      Stats
}

// NewSynchronizer creates a Synchronizer that uploads into cache.
// WithSparseCapacity does not apply to a Synchronizer.
func NewSynchronizer(cache TextureCache, opts ...Option) *Synchronizer {
	return newSynchronizer(cache, buildOptions(opts))
}

func newSynchronizer(cache TextureCache, o options) *Synchronizer {
	return &Synchronizer{
		cache:      cache,
		name:       o.name,
		sampling:   o.sampling,
		background: o.background,
		logger:     o.logger,
	}
}

func (s *Synchronizer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return Logger()
}

// Stats returns the accumulated transfer statistics.
func (s *Synchronizer) Stats() Stats {
	return s.stats
}

// Sampling returns the filters attached to every upload.
func (s *Synchronizer) Sampling() SamplingOptions {
	return s.sampling
}

// Sync uploads the cells described by d from buf into texture h.
//
// A summary that references cells outside buf is rejected before any upload.
// Texture cache errors are wrapped and returned; Sync does not retry.
func (s *Synchronizer) Sync(buf *PixelBuffer, d Damage, h Handle) error {
	s.stats.Frames++

	switch d := d.(type) {
	case nil, NoDamage:
		s.stats.Idle++
		return nil

	case SparseDamage:
		if len(d.Positions) == 0 {
			s.stats.Idle++
			return nil
		}
		if h == InvalidHandle {
			return ErrNoTexture
		}
		bounds := buf.Bounds()
		for _, p := range d.Positions {
			if !p.In(bounds) {
				return fmt.Errorf("%w: cell (%d, %d) in %v buffer", ErrDamageOutOfBounds, p.X, p.Y, buf.Size())
			}
		}
		s.stats.SparseFrames++
		s.log().Debug("texsync: sparse sync", "cells", len(d.Positions))
		for _, p := range d.Positions {
			c, _ := buf.Get(p)
			px := image.NewRGBA(image.Rect(0, 0, 1, 1))
			px.SetRGBA(0, 0, c)
			if err := s.cache.ApplyPatch(h, p, px, s.sampling); err != nil {
				s.log().Warn("texsync: patch failed", "origin", p, "err", err)
				return fmt.Errorf("texsync: apply patch at %v: %w", p, err)
			}
			s.stats.Patches++
			s.stats.PixelsUploaded++
		}
		return nil

	case RegionDamage:
		if d.Size.Area() == 0 {
			s.stats.Idle++
			return nil
		}
		if h == InvalidHandle {
			return ErrNoTexture
		}
		r := d.Rect()
		if !r.In(buf.Bounds()) {
			return fmt.Errorf("%w: region %v in %v buffer", ErrDamageOutOfBounds, r, buf.Size())
		}
		total := buf.Len()
		if d.Area < total/2 {
			return s.patchRegion(buf, d, h)
		}
		return s.replace(buf, h, d.Area)

	default:
		panic(fmt.Sprintf("texsync: unknown damage type %T", d))
	}
}

// patchRegion uploads the bounding box of d as one patch.
func (s *Synchronizer) patchRegion(buf *PixelBuffer, d RegionDamage, h Handle) error {
	payload, err := buf.Area(d.Min, d.Size)
	if err != nil {
		return err
	}
	s.stats.RegionFrames++
	s.log().Debug("texsync: region sync", "rect", d.Rect(), "area", d.Area)
	if err := s.cache.ApplyPatch(h, d.Min, payload, s.sampling); err != nil {
		s.log().Warn("texsync: patch failed", "rect", d.Rect(), "err", err)
		return fmt.Errorf("texsync: apply patch %v: %w", d.Rect(), err)
	}
	s.stats.Patches++
	s.stats.PixelsUploaded += d.Size.Area()
	return nil
}

// replace uploads the whole buffer.
func (s *Synchronizer) replace(buf *PixelBuffer, h Handle, area int) error {
	s.stats.FullFrames++
	s.log().Debug("texsync: full sync", "size", buf.Size(), "area", area)
	if err := s.cache.ApplyFull(h, buf.Image(), s.sampling); err != nil {
		s.log().Warn("texsync: full replace failed", "size", buf.Size(), "err", err)
		return fmt.Errorf("texsync: apply full: %w", err)
	}
	s.stats.PixelsUploaded += buf.Len()
	return nil
}

// Flush drains t and syncs the result into h. If the upload fails, the
// drained summary is merged back into t so the next Flush sends it again.
func (s *Synchronizer) Flush(buf *PixelBuffer, t *Tracker, h Handle) error {
	d := t.Drain()
	if err := s.Sync(buf, d, h); err != nil {
		t.Merge(d)
		return err
	}
	return nil
}

// Allocate creates a texture holding the current contents of buf.
func (s *Synchronizer) Allocate(buf *PixelBuffer) (Handle, error) {
	label := s.name + "/" + ulid.Make().String()
	h, err := s.cache.Allocate(label, buf.Image(), s.sampling)
	if err != nil {
		s.log().Warn("texsync: texture allocation failed", "size", buf.Size(), "err", err)
		return InvalidHandle, fmt.Errorf("texsync: allocate %v texture: %w", buf.Size(), err)
	}
	if h == InvalidHandle {
		return InvalidHandle, fmt.Errorf("texsync: allocate %v texture: %w", buf.Size(), ErrNoTexture)
	}
	s.log().Info("texsync: texture allocated", "name", label, "size", buf.Size())
	return h, nil
}

// HandleResize brings buf and h to the given size.
//
// If buf already has that size and h is valid, nothing happens. Otherwise the
// buffer is resized (exposed cells take the background color), the old
// texture is freed, a new one is allocated, t is marked fully dirty and a
// full sync runs immediately so the new texture is never observed half
// populated. h must not be used after a successful reallocation.
//
// On error the returned buffer is still the one to keep: a failed
// allocation returns InvalidHandle and leaves t fully dirty, so a later
// HandleResize or a smaller size can recover.
func (s *Synchronizer) HandleResize(size Size, buf *PixelBuffer, h Handle, t *Tracker) (*PixelBuffer, Handle, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return buf, h, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, size.Width, size.Height)
	}
	if buf.Size() == size && h != InvalidHandle {
		return buf, h, nil
	}

	old := buf.Size()
	if old != size {
		buf = buf.Resize(size, s.background)
	}
	if h != InvalidHandle {
		s.cache.Free(h)
	}
	t.MarkAll(buf.Bounds())

	nh, err := s.Allocate(buf)
	if err != nil {
		return buf, InvalidHandle, err
	}
	s.stats.Resizes++
	s.log().Info("texsync: canvas resized", "from", old, "to", size)

	if err := s.Flush(buf, t, nh); err != nil {
		return buf, nh, err
	}
	return buf, nh, nil
}
