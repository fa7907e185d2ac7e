package main

import (
	"fmt"
	"image"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/gogpu/texsync"
	"github.com/gogpu/texsync/backend/termtex"
	"github.com/gogpu/texsync/internal/brush"
)

const swatch = '█'

// painter turns terminal input into canvas edits.
type painter struct {
	cache  *termtex.Cache
	canvas *texsync.Canvas
	brush  brush.Brush
	down   bool
	last   image.Point
	rows   int
}

func newPainter(cache *termtex.Cache, capacity int) (*painter, error) {
	canvas, err := texsync.New(cache, texsync.Sz(1, 1), texsync.WithSparseCapacity(capacity))
	if err != nil {
		return nil, err
	}
	return &painter{
		cache:  cache,
		canvas: canvas,
		brush:  brush.Brush{Color: palette[1]},
	}, nil
}

// resize fits the canvas to a terminal of cols x rows, keeping the last
// row for the status line.
func (p *painter) resize(cols, rows int) error {
	p.rows = rows
	return p.canvas.Frame(p.cache.CanvasSize(cols, rows-1))
}

func (p *painter) mouse(x, y int, pressed bool) {
	pt := p.cache.CellToTexel(x, y)
	if !pressed || !pt.In(p.canvas.Bounds()) {
		p.down = false
		return
	}
	from := pt
	if p.down {
		from = p.last
	}
	p.brush.Stroke(p.canvas, from, pt)
	p.down = true
	p.last = pt
}

// key handles a typed rune and reports whether to keep running.
func (p *painter) key(r rune) bool {
	switch {
	case r == 'q':
		return false
	case r == 'c':
		p.canvas.FillRect(p.canvas.Bounds(), texsync.Background)
	case r == '+':
		p.brush.Radius = min(p.brush.Radius+1, 8)
	case r == '-':
		p.brush.Radius = max(p.brush.Radius-1, 0)
	case r >= '1' && r <= '8':
		p.brush.Color = palette[r-'1']
	}
	return true
}

// status draws the brush swatch and transfer counters on the last row,
// truncated to the terminal width.
func (p *painter) status(s tcell.Screen) {
	if p.rows == 0 {
		return
	}
	cols, _ := s.Size()
	y := p.rows - 1
	style := tcell.StyleDefault.Reverse(true)
	for x := range cols {
		s.SetContent(x, y, ' ', nil, style)
	}
	if cols == 0 {
		return
	}
	c := p.brush.Color
	s.SetContent(0, y, swatch, nil, tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))))

	st := p.canvas.Stats()
	line := fmt.Sprintf("size %v  brush %d  frames %d  sparse %d  region %d  full %d  uploaded %d",
		p.canvas.Size(), p.brush.Radius, st.Frames, st.SparseFrames, st.RegionFrames, st.FullFrames, st.PixelsUploaded)
	if runewidth.StringWidth(line) > cols-1 {
		line = runewidth.Truncate(line, cols-1, "…")
	}
	x := 1
	for _, r := range line {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}
