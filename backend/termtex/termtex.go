// Package termtex shows canvas textures on a terminal screen.
//
// A texture is a rectangle of terminal cells. In the default mode each
// texel paints one cell's background; with half blocks each cell shows two
// vertically stacked texels using the upper half block glyph. Patches
// repaint only the cells they cover, so a terminal receives exactly the
// damage the canvas produced.
package termtex

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/texsync"
	"github.com/gogpu/texsync/backend"
)

// ErrUnknownHandle is returned for a handle that is not allocated.
var ErrUnknownHandle = errors.New("termtex: unknown texture handle")

// upperHalf is drawn with the top texel as foreground and the bottom texel
// as background.
const upperHalf = '▀'

func init() {
	backend.Register(backend.BackendTerminal, func() (texsync.TextureCache, error) {
		s := tcell.NewSimulationScreen("UTF-8")
		if err := s.Init(); err != nil {
			return nil, fmt.Errorf("termtex: init simulation screen: %w", err)
		}
		c := New(s)
		c.owned = true
		return c, nil
	})
}

// Screen is the subset of tcell.Screen the cache paints on.
type Screen interface {
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
	Size() (width, height int)
	Fini()
}

// Option configures a Cache.
type Option func(*Cache)

// WithOrigin places textures with their top-left texel at cell origin.
func WithOrigin(origin image.Point) Option {
	return func(c *Cache) { c.origin = origin }
}

// WithHalfBlocks packs two texel rows into each terminal row.
func WithHalfBlocks() Option {
	return func(c *Cache) { c.halfBlocks = true }
}

// Cache is a texsync.TextureCache that paints onto a terminal screen.
// The host calls Show on its screen after syncing.
//
// Cache is NOT safe for concurrent use.
type Cache struct {
	screen     Screen
	origin     image.Point
	halfBlocks bool
	owned      bool
	next       texsync.Handle
	textures   map[texsync.Handle]*image.RGBA
	painted    int
	logger     *slog.Logger
}

// New creates a cache drawing on screen.
func New(screen Screen, opts ...Option) *Cache {
	c := &Cache{
		screen:   screen,
		textures: make(map[texsync.Handle]*image.RGBA),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetLogger sets the logger for texture lifecycle messages.
func (c *Cache) SetLogger(l *slog.Logger) { c.logger = l }

func (c *Cache) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return texsync.Logger()
}

// CanvasSize returns the canvas size that fills a screen of the given cell
// dimensions.
func (c *Cache) CanvasSize(cols, rows int) texsync.Size {
	w, h := cols-c.origin.X, rows-c.origin.Y
	if c.halfBlocks {
		h *= 2
	}
	return texsync.Sz(max(w, 1), max(h, 1))
}

// Fit returns the canvas size that fills the whole screen.
func (c *Cache) Fit() texsync.Size {
	return c.CanvasSize(c.screen.Size())
}

// CellToTexel maps a screen cell to the texel it shows (the upper texel
// in half block mode).
func (c *Cache) CellToTexel(x, y int) image.Point {
	p := image.Pt(x, y).Sub(c.origin)
	if c.halfBlocks {
		p.Y *= 2
	}
	return p
}

// Painted returns the number of terminal cells written so far.
func (c *Cache) Painted() int {
	return c.painted
}

// Allocate stores img and paints it.
func (c *Cache) Allocate(name string, img *image.RGBA, _ texsync.SamplingOptions) (texsync.Handle, error) {
	tex := image.NewRGBA(img.Rect.Sub(img.Rect.Min))
	xdraw.Copy(tex, image.Point{}, img, img.Rect, xdraw.Src, nil)
	c.next++
	c.textures[c.next] = tex
	c.paint(tex, tex.Rect)
	c.log().Debug("termtex: texture allocated", "handle", c.next, "name", name, "size", tex.Rect.Size())
	return c.next, nil
}

// Free forgets h. The cells stay on screen until overpainted.
func (c *Cache) Free(h texsync.Handle) {
	delete(c.textures, h)
}

// ApplyPatch writes img at origin and repaints the covered cells.
func (c *Cache) ApplyPatch(h texsync.Handle, origin image.Point, img *image.RGBA, _ texsync.SamplingOptions) error {
	tex, ok := c.textures[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	r := image.Rectangle{Min: origin, Max: origin.Add(img.Rect.Size())}
	if !r.In(tex.Rect) {
		return fmt.Errorf("termtex: patch %v outside %v", r, tex.Rect)
	}
	xdraw.Copy(tex, origin, img, img.Rect, xdraw.Src, nil)
	c.paint(tex, r)
	return nil
}

// ApplyFull replaces h and repaints all of it.
func (c *Cache) ApplyFull(h texsync.Handle, img *image.RGBA, _ texsync.SamplingOptions) error {
	tex, ok := c.textures[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	if img.Rect.Size() != tex.Rect.Size() {
		return fmt.Errorf("termtex: full image %v, texture %v", img.Rect.Size(), tex.Rect.Size())
	}
	xdraw.Copy(tex, image.Point{}, img, img.Rect, xdraw.Src, nil)
	c.paint(tex, tex.Rect)
	return nil
}

// Close finalizes the screen if the cache created it.
func (c *Cache) Close() {
	clear(c.textures)
	if c.owned {
		c.screen.Fini()
	}
}

// paint repaints the cells showing texels in r.
func (c *Cache) paint(tex *image.RGBA, r image.Rectangle) {
	if c.halfBlocks {
		r.Min.Y &^= 1
	}
	step := 1
	if c.halfBlocks {
		step = 2
	}
	for y := r.Min.Y; y < r.Max.Y; y += step {
		row := y
		if c.halfBlocks {
			row = y / 2
		}
		for x := r.Min.X; x < r.Max.X; x++ {
			cx, cy := c.origin.X+x, c.origin.Y+row
			if c.halfBlocks {
				top := tex.RGBAAt(x, y)
				bottom := top
				if y+1 < tex.Rect.Max.Y {
					bottom = tex.RGBAAt(x, y+1)
				}
				c.screen.SetContent(cx, cy, upperHalf, nil,
					tcell.StyleDefault.Foreground(rgb(top)).Background(rgb(bottom)))
			} else {
				c.screen.SetContent(cx, cy, ' ', nil, tcell.StyleDefault.Background(rgb(tex.RGBAAt(x, y))))
			}
			c.painted++
		}
	}
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
