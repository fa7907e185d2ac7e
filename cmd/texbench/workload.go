package main

import (
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/gogpu/texsync"
	"github.com/gogpu/texsync/internal/brush"
)

// workload paints one frame's worth of edits.
type workload struct {
	kind string
	rng  *rand.Rand
	pen  image.Point
}

func newWorkload(kind string, seed uint64) (*workload, error) {
	switch kind {
	case "dots", "strokes", "fills", "mixed":
	default:
		return nil, fmt.Errorf("unknown workload %q", kind)
	}
	return &workload{kind: kind, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}, nil
}

func (w *workload) color() color.RGBA {
	return color.RGBA{R: uint8(w.rng.IntN(256)), G: uint8(w.rng.IntN(256)), B: uint8(w.rng.IntN(256)), A: 0xff}
}

func (w *workload) point(b image.Rectangle) image.Point {
	return image.Pt(b.Min.X+w.rng.IntN(b.Dx()), b.Min.Y+w.rng.IntN(b.Dy()))
}

func (w *workload) paint(c *texsync.Canvas, frame int) {
	kind := w.kind
	if kind == "mixed" {
		// Mostly small edits, an occasional stroke, a rare big fill and
		// some idle frames.
		switch r := w.rng.IntN(100); {
		case r < 20:
			return
		case r < 70:
			kind = "dots"
		case r < 97:
			kind = "strokes"
		default:
			kind = "fills"
		}
	}

	b := c.Bounds()
	switch kind {
	case "dots":
		for range 1 + w.rng.IntN(8) {
			c.SetPixel(w.point(b), w.color())
		}
	case "strokes":
		to := w.pen.Add(image.Pt(w.rng.IntN(33)-16, w.rng.IntN(33)-16))
		to.X = min(max(to.X, b.Min.X), b.Max.X-1)
		to.Y = min(max(to.Y, b.Min.Y), b.Max.Y-1)
		brush.Brush{Radius: 1 + frame%3, Color: w.color()}.Stroke(c, w.pen, to)
		w.pen = to
	case "fills":
		r := image.Rectangle{Min: w.point(b), Max: w.point(b)}
		c.FillRect(r, w.color())
	}
}
