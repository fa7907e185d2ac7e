// Package memtex implements an in-memory texture cache.
//
// Textures are plain *image.RGBA values. Every call is recorded in an
// operation log, which makes the cache the reference backend for tests and
// for measuring transfer strategies without a GPU.
package memtex

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/texsync"
	"github.com/gogpu/texsync/backend"
)

// Errors returned by Cache.
var (
	// ErrUnknownHandle is returned for a handle that was never allocated or
	// has been freed.
	ErrUnknownHandle = errors.New("memtex: unknown texture handle")

	// ErrPatchOutOfBounds is returned when a patch does not fit the texture.
	ErrPatchOutOfBounds = errors.New("memtex: patch outside texture")

	// ErrSizeMismatch is returned when a full replace has the wrong size.
	ErrSizeMismatch = errors.New("memtex: full image size mismatch")

	// ErrInjected is returned by operations selected with FailOn.
	ErrInjected = errors.New("memtex: injected failure")
)

func init() {
	backend.Register(backend.BackendMemory, func() (texsync.TextureCache, error) {
		return New(), nil
	})
}

// OpKind identifies a cache operation.
type OpKind uint8

// Operation kinds.
const (
	OpAllocate OpKind = iota
	OpFree
	OpPatch
	OpFull
)

// String returns the operation name.
func (k OpKind) String() string {
	switch k {
	case OpAllocate:
		return "allocate"
	case OpFree:
		return "free"
	case OpPatch:
		return "patch"
	case OpFull:
		return "full"
	default:
		return fmt.Sprintf("OpKind(%d)", k)
	}
}

// Op is one recorded cache call. Failed calls are not recorded.
type Op struct {
	Kind     OpKind
	Handle   texsync.Handle
	Rect     image.Rectangle // texels written; empty for OpFree
	Sampling texsync.SamplingOptions
}

type texture struct {
	name     string
	img      *image.RGBA
	sampling texsync.SamplingOptions
}

// Cache is an in-memory texsync.TextureCache.
// It is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	next     texsync.Handle
	textures map[texsync.Handle]*texture
	ops      []Op
	failOn   map[OpKind]int
	logger   *slog.Logger
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		textures: make(map[texsync.Handle]*texture),
		failOn:   make(map[OpKind]int),
	}
}

// SetLogger sets the logger used for operation tracing.
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

// FailOn makes the next n operations of the given kind fail with
// ErrInjected. Free never fails.
func (c *Cache) FailOn(kind OpKind, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failOn[kind] = n
}

func (c *Cache) injected(kind OpKind) bool {
	if c.failOn[kind] > 0 {
		c.failOn[kind]--
		return true
	}
	return false
}

// Allocate stores a copy of img under a new handle.
func (c *Cache) Allocate(name string, img *image.RGBA, opts texsync.SamplingOptions) (texsync.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.injected(OpAllocate) {
		return texsync.InvalidHandle, ErrInjected
	}
	c.next++
	h := c.next
	c.textures[h] = &texture{name: name, img: clone(img), sampling: opts}
	c.ops = append(c.ops, Op{Kind: OpAllocate, Handle: h, Rect: img.Rect.Sub(img.Rect.Min), Sampling: opts})
	c.log().Debug("memtex: allocate", "handle", h, "name", name, "size", img.Rect.Size())
	return h, nil
}

// Free drops h. Unknown handles are ignored.
func (c *Cache) Free(h texsync.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.textures[h]; !ok {
		return
	}
	delete(c.textures, h)
	c.ops = append(c.ops, Op{Kind: OpFree, Handle: h})
	c.log().Debug("memtex: free", "handle", h)
}

// ApplyPatch copies img into h at origin.
func (c *Cache) ApplyPatch(h texsync.Handle, origin image.Point, img *image.RGBA, opts texsync.SamplingOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tex, ok := c.textures[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	dst := image.Rectangle{Min: origin, Max: origin.Add(img.Rect.Size())}
	if !dst.In(tex.img.Rect) {
		return fmt.Errorf("%w: %v in %v", ErrPatchOutOfBounds, dst, tex.img.Rect)
	}
	if c.injected(OpPatch) {
		return ErrInjected
	}

	xdraw.Copy(tex.img, dst.Min, img, img.Rect, xdraw.Src, nil)
	tex.sampling = opts
	c.ops = append(c.ops, Op{Kind: OpPatch, Handle: h, Rect: dst, Sampling: opts})
	return nil
}

// ApplyFull replaces the contents of h with img, which must match the
// texture size.
func (c *Cache) ApplyFull(h texsync.Handle, img *image.RGBA, opts texsync.SamplingOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tex, ok := c.textures[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	if img.Rect.Size() != tex.img.Rect.Size() {
		return fmt.Errorf("%w: %v, texture is %v", ErrSizeMismatch, img.Rect.Size(), tex.img.Rect.Size())
	}
	if c.injected(OpFull) {
		return ErrInjected
	}
	tex.img = clone(img)
	tex.sampling = opts
	c.ops = append(c.ops, Op{Kind: OpFull, Handle: h, Rect: tex.img.Rect, Sampling: opts})
	return nil
}

// Texture returns a copy of the texels of h.
func (c *Cache) Texture(h texsync.Handle) (*image.RGBA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tex, ok := c.textures[h]
	if !ok {
		return nil, false
	}
	return clone(tex.img), true
}

// Name returns the label h was allocated with.
func (c *Cache) Name(h texsync.Handle) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tex, ok := c.textures[h]; ok {
		return tex.name
	}
	return ""
}

// Sampling returns the filters of the last upload to h.
func (c *Cache) Sampling(h texsync.Handle) (texsync.SamplingOptions, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tex, ok := c.textures[h]
	if !ok {
		return texsync.SamplingOptions{}, false
	}
	return tex.sampling, true
}

// Len returns the number of live textures.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.textures)
}

// Ops returns a copy of the operation log.
func (c *Cache) Ops() []Op {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Op(nil), c.ops...)
}

// ResetOps clears the operation log.
func (c *Cache) ResetOps() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = c.ops[:0]
}

// clone copies img into a new image anchored at (0, 0).
func clone(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Rect.Sub(img.Rect.Min))
	xdraw.Copy(out, image.Point{}, img, img.Rect, xdraw.Src, nil)
	return out
}
