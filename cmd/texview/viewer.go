package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/mobile/event/mouse"

	"github.com/gogpu/texsync"
	"github.com/gogpu/texsync/internal/brush"
)

type action int

const (
	actionNone action = iota
	actionQuit
	actionCopy
)

var palette = []color.RGBA{
	{0x11, 0x11, 0x11, 0xff},
	{0xd6, 0x28, 0x28, 0xff},
	{0xf7, 0x7f, 0x00, 0xff},
	{0xfc, 0xbf, 0x49, 0xff},
	{0x2a, 0x9d, 0x8f, 0xff},
	{0x00, 0x30, 0x49, 0xff},
	{0x80, 0x5e, 0x73, 0xff},
	{0xff, 0xff, 0xff, 0xff},
}

// viewer maps window input in screen pixels onto a zoomed canvas.
type viewer struct {
	canvas *texsync.Canvas
	zoom   int
	brush  brush.Brush
	down   bool
	last   image.Point
}

func newViewer(cache texsync.TextureCache, window image.Point, zoom, capacity int) (*viewer, error) {
	zoom = max(zoom, 1)
	canvas, err := texsync.New(cache, canvasSize(window, zoom), texsync.WithSparseCapacity(capacity))
	if err != nil {
		return nil, err
	}
	return &viewer{canvas: canvas, zoom: zoom, brush: brush.Brush{Color: palette[1]}}, nil
}

func canvasSize(window image.Point, zoom int) texsync.Size {
	return texsync.Sz(max(window.X/zoom, 1), max(window.Y/zoom, 1))
}

func (v *viewer) resize(window image.Point) error {
	return v.canvas.Frame(canvasSize(window, v.zoom))
}

// screenRect is where the canvas texture lands in the window.
func (v *viewer) screenRect() image.Rectangle {
	s := v.canvas.Size()
	return image.Rect(0, 0, s.Width*v.zoom, s.Height*v.zoom)
}

// mouse applies a mouse event and reports whether the canvas changed.
func (v *viewer) mouse(e mouse.Event) bool {
	p := image.Pt(int(e.X)/v.zoom, int(e.Y)/v.zoom)
	switch {
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
		v.down = true
		v.last = p
		v.brush.Dab(v.canvas, p)
		return true
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
		v.down = false
		return false
	case v.down && e.Direction == mouse.DirNone:
		v.brush.Stroke(v.canvas, v.last, p)
		v.last = p
		return true
	}
	return false
}

func (v *viewer) key(r rune) action {
	switch {
	case r == 'q' || r == 'Q':
		return actionQuit
	case r == 'c' || r == 'C':
		return actionCopy
	case r == 'x':
		v.canvas.FillRect(v.canvas.Bounds(), texsync.Background)
	case r == '+':
		v.brush.Radius = min(v.brush.Radius+1, 16)
	case r == '-':
		v.brush.Radius = max(v.brush.Radius-1, 0)
	case r >= '1' && r <= '8':
		v.brush.Color = palette[r-'1']
	}
	return actionNone
}

// png encodes the canvas contents.
func (v *viewer) png() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, v.canvas.Buffer().Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
