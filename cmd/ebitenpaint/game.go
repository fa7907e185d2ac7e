//go:build ebiten

package main

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gogpu/texsync"
	"github.com/gogpu/texsync/backend/ebitentex"
	"github.com/gogpu/texsync/internal/brush"
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

var colorKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4,
	ebiten.Key5, ebiten.Key6, ebiten.Key7, ebiten.Key8,
}

// Game adapts a texsync canvas to the ebiten.Game interface.
type Game struct {
	cache    *ebitentex.Cache
	canvas   *texsync.Canvas
	brush    brush.Brush
	scale    int
	capacity int
	window   image.Point
	down     bool
	last     image.Point
}

func newGame(scale, capacity int) *Game {
	return &Game{
		cache:    ebitentex.New(),
		brush:    brush.Brush{Color: palette[1]},
		scale:    max(scale, 1),
		capacity: capacity,
	}
}

func (g *Game) canvasSize() texsync.Size {
	return texsync.Sz(max(g.window.X/g.scale, 1), max(g.window.Y/g.scale, 1))
}

// Update handles input and uploads the frame's damage. Images can only be
// created once the game loop runs, so the canvas is built on the first tick.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if g.canvas == nil {
		c, err := texsync.New(g.cache, g.canvasSize(), texsync.WithSparseCapacity(g.capacity))
		if err != nil {
			return err
		}
		g.canvas = c
	}

	for i, k := range colorKeys {
		if inpututil.IsKeyJustPressed(k) {
			g.brush.Color = palette[i]
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyX) {
		g.canvas.FillRect(g.canvas.Bounds(), texsync.Background)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		g.brush.Radius = min(g.brush.Radius+1, 16)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		g.brush.Radius = max(g.brush.Radius-1, 0)
	}

	x, y := ebiten.CursorPosition()
	p := image.Pt(x/g.scale, y/g.scale)
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.down = true
		g.brush.Dab(g.canvas, p)
	case g.down && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		if p != g.last {
			g.brush.Stroke(g.canvas, g.last, p)
		}
	default:
		g.down = false
	}
	g.last = p

	return g.canvas.Frame(g.canvasSize())
}

// Draw renders the canvas texture scaled to the window.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{0x20, 0x20, 0x20, 0xff})
	if g.canvas == nil {
		return
	}
	if err := g.cache.Draw(screen, g.canvas.Texture(), 0, 0, float64(g.scale)); err != nil {
		texsync.Logger().Warn("ebitenpaint: draw", "err", err)
	}
}

// Layout uses the window size directly; the canvas follows it.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.window = image.Pt(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func (g *Game) stats() texsync.Stats {
	if g.canvas == nil {
		return texsync.Stats{}
	}
	return g.canvas.Stats()
}

func (g *Game) close() {
	if g.canvas != nil {
		_ = g.canvas.Close()
	}
	g.cache.Close()
}
