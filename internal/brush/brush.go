// Package brush rasterizes freehand strokes onto a canvas for the paint
// hosts.
package brush

import (
	"image"
	"image/color"
)

// Target is a pixel surface. *texsync.Canvas implements it.
type Target interface {
	Bounds() image.Rectangle
	SetPixel(p image.Point, c color.RGBA)
}

// Brush is a round brush of a solid color. Radius 0 paints single pixels.
type Brush struct {
	Radius int
	Color  color.RGBA
}

// Dab paints one disc centered at p.
func (b Brush) Dab(t Target, p image.Point) {
	b.Stroke(t, p, p)
}

// Stroke paints a line of discs from a to b. Every covered pixel is
// written exactly once, clipped to the target.
func (b Brush) Stroke(t Target, from, to image.Point) {
	bounds := t.Bounds()
	seen := make(map[image.Point]struct{})
	Line(from, to, func(c image.Point) {
		Disc(c, b.Radius, func(p image.Point) {
			if !p.In(bounds) {
				return
			}
			if _, ok := seen[p]; ok {
				return
			}
			seen[p] = struct{}{}
			t.SetPixel(p, b.Color)
		})
	})
}

// Line calls fn for every point of the Bresenham line from a to b,
// endpoints included.
func Line(a, b image.Point, fn func(image.Point)) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := sign(b.X-a.X), sign(b.Y-a.Y)
	e := dx + dy
	for p := a; ; {
		fn(p)
		if p == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			p.X += sx
		}
		if e2 <= dx {
			e += dx
			p.Y += sy
		}
	}
}

// Disc calls fn for every point within radius r of c.
func Disc(c image.Point, r int, fn func(image.Point)) {
	r2 := r * r
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r2 {
				fn(c.Add(image.Pt(x, y)))
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
