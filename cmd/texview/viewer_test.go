package main

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"golang.org/x/mobile/event/mouse"

	"github.com/gogpu/texsync"
	"github.com/gogpu/texsync/backend/memtex"
)

func newTestViewer(t *testing.T) (*viewer, *memtex.Cache) {
	t.Helper()
	cache := memtex.New()
	v, err := newViewer(cache, image.Pt(80, 40), 4, 16)
	if err != nil {
		t.Fatalf("newViewer() error = %v", err)
	}
	t.Cleanup(func() { _ = v.canvas.Close() })
	return v, cache
}

func TestViewerCanvasFollowsWindow(t *testing.T) {
	v, _ := newTestViewer(t)
	if got := v.canvas.Size(); got != texsync.Sz(20, 10) {
		t.Fatalf("canvas = %v, want 20x10", got)
	}
	if err := v.resize(image.Pt(123, 9)); err != nil {
		t.Fatalf("resize() error = %v", err)
	}
	if got := v.canvas.Size(); got != texsync.Sz(30, 2) {
		t.Errorf("canvas = %v, want 30x2", got)
	}
	if got := v.screenRect(); got != image.Rect(0, 0, 120, 8) {
		t.Errorf("screenRect() = %v", got)
	}
}

func TestViewerDragPaintsZoomedPixels(t *testing.T) {
	v, cache := newTestViewer(t)

	v.mouse(mouse.Event{X: 9, Y: 9, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	v.mouse(mouse.Event{X: 25, Y: 9, Direction: mouse.DirNone})
	if changed := v.mouse(mouse.Event{X: 25, Y: 9, Button: mouse.ButtonLeft, Direction: mouse.DirRelease}); changed {
		t.Error("release reported a change")
	}
	if v.mouse(mouse.Event{X: 30, Y: 30, Direction: mouse.DirNone}) {
		t.Error("hover painted")
	}

	for x := 2; x <= 6; x++ {
		if got, _ := v.canvas.Pixel(image.Pt(x, 2)); got != palette[1] {
			t.Errorf("pixel (%d,2) = %v, want brush color", x, got)
		}
	}
	if err := v.canvas.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	tex, _ := cache.Texture(v.canvas.Texture())
	if got := tex.RGBAAt(6, 2); got != palette[1] {
		t.Errorf("texel (6,2) = %v, want brush color", got)
	}
}

func TestViewerKeys(t *testing.T) {
	v, _ := newTestViewer(t)
	if v.key('q') != actionQuit || v.key('c') != actionCopy {
		t.Error("q/c not mapped to quit/copy")
	}
	v.key('5')
	if v.brush.Color != palette[4] {
		t.Errorf("color = %v, want palette[4]", v.brush.Color)
	}
	v.key('x')
	if !v.canvas.Pending() {
		t.Error("clear did not damage the canvas")
	}
}

func TestViewerPNG(t *testing.T) {
	v, _ := newTestViewer(t)
	v.canvas.SetPixel(image.Pt(3, 3), palette[0])

	data, err := v.png()
	if err != nil {
		t.Fatalf("png() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 20, 10) {
		t.Errorf("bounds = %v", img.Bounds())
	}
}
