package texsync

import (
	"errors"
	"image"
	"testing"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name  string
		cache TextureCache
		size  Size
		want  error
	}{
		{"nil cache", nil, Sz(4, 4), ErrNilCache},
		{"zero width", newRecordingCache(), Sz(0, 4), ErrInvalidDimensions},
		{"negative height", newRecordingCache(), Sz(4, -1), ErrInvalidDimensions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cache, tt.size)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
			if c != nil {
				t.Error("New() returned a canvas on error")
			}
		})
	}
}

func TestNewAllocationFailure(t *testing.T) {
	m := newRecordingCache()
	m.failOn = "alloc"
	if _, err := New(m, Sz(4, 4)); !errors.Is(err, errInjected) {
		t.Errorf("New() error = %v, want %v", err, errInjected)
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustNew(nil) did not panic")
		}
	}()
	MustNew(nil, Sz(1, 1))
}

func TestNewAllocatesBackground(t *testing.T) {
	m := newRecordingCache()
	c := MustNew(m, Sz(3, 2), WithBackground(black))
	defer c.Close()

	if c.Texture() == InvalidHandle {
		t.Fatal("Texture() = InvalidHandle after New")
	}
	if c.Pending() {
		t.Error("new canvas has pending damage")
	}
	if got, _ := c.Pixel(image.Pt(2, 1)); got != black {
		t.Errorf("Pixel = %v, want background %v", got, black)
	}
	assertTextureMatches(t, m, c.Texture(), c.Buffer())
}

func TestCanvasSparseFrame(t *testing.T) {
	m := newRecordingCache()
	c := MustNew(m, Sz(4, 4))
	defer c.Close()
	m.reset()

	c.SetPixel(image.Pt(0, 0), red)
	c.SetPixel(image.Pt(3, 3), green)
	if got := sparse(t, c.Damage()); len(got) != 2 {
		t.Fatalf("Damage() = %v, want 2 cells", got)
	}

	if err := c.Frame(Sz(4, 4)); err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if m.kinds() != "patch,patch" {
		t.Errorf("ops = %s, want two patches", m.kinds())
	}
	if c.Pending() {
		t.Error("Pending() after Frame")
	}
	assertTextureMatches(t, m, c.Texture(), c.Buffer())
}

func TestCanvasRegionTransition(t *testing.T) {
	// 4x4 canvas with room for 8 cells: the ninth distinct write turns the
	// summary into a region whose write count reaches half the canvas.
	m := newRecordingCache()
	c := MustNew(m, Sz(4, 4), WithSparseCapacity(8))
	defer c.Close()
	m.reset()

	for i := range 9 {
		c.SetPixel(image.Pt(i%4, i/4), blue)
	}
	r := region(t, c.Damage())
	if r.Area < 8 {
		t.Fatalf("region area = %d, want >= 8", r.Area)
	}
	if err := c.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if m.kinds() != "full" {
		t.Errorf("ops = %s, want full", m.kinds())
	}
	assertTextureMatches(t, m, c.Texture(), c.Buffer())
}

func TestCanvasFillRect(t *testing.T) {
	tests := []struct {
		name string
		r    image.Rectangle
		want string
	}{
		{"small rect enumerates cells", image.Rect(1, 1, 3, 2), "patch,patch"},
		{"large rect patches region", image.Rect(0, 0, 8, 5), "patch"},
		{"half the canvas replaces", image.Rect(0, 0, 16, 8), "full"},
		{"clipped to canvas", image.Rect(-5, -5, 100, 100), "full"},
		{"outside canvas", image.Rect(20, 20, 30, 30), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newRecordingCache()
			c := MustNew(m, Sz(16, 16))
			defer c.Close()
			m.reset()

			c.FillRect(tt.r, red)
			if err := c.Sync(); err != nil {
				t.Fatalf("Sync() error = %v", err)
			}
			if m.kinds() != tt.want {
				t.Errorf("ops = %s, want %s", m.kinds(), tt.want)
			}
			assertTextureMatches(t, m, c.Texture(), c.Buffer())
		})
	}
}

func TestCanvasResize(t *testing.T) {
	m := newRecordingCache()
	c := MustNew(m, Sz(10, 10))
	defer c.Close()
	c.SetPixel(image.Pt(1, 1), red)
	c.SetPixel(image.Pt(9, 9), red)
	old := c.Texture()
	m.reset()

	if err := c.Frame(Sz(5, 5)); err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if c.Size() != Sz(5, 5) {
		t.Errorf("Size() = %v, want 5x5", c.Size())
	}
	if c.Texture() == old {
		t.Error("texture handle unchanged after resize")
	}
	if m.kinds() != "free,alloc,full" {
		t.Errorf("ops = %s, want free,alloc,full", m.kinds())
	}
	if got, _ := c.Pixel(image.Pt(1, 1)); got != red {
		t.Errorf("Pixel(1,1) = %v, want %v", got, red)
	}
	if _, ok := c.Pixel(image.Pt(9, 9)); ok {
		t.Error("Pixel(9,9) still inside after shrink")
	}
	assertTextureMatches(t, m, c.Texture(), c.Buffer())

	m.reset()
	if err := c.Frame(Sz(5, 5)); err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if len(m.ops) != 0 {
		t.Errorf("ops = %s on an unchanged idle frame, want none", m.kinds())
	}
}

func TestCanvasInvalidate(t *testing.T) {
	m := newRecordingCache()
	c := MustNew(m, Sz(6, 6))
	defer c.Close()
	m.reset()

	c.Invalidate()
	r := region(t, c.Damage())
	if r.Rect() != c.Bounds() || r.Area != 36 {
		t.Errorf("Damage() = %v, want whole canvas with area 36", r)
	}
	if err := c.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if m.kinds() != "full" {
		t.Errorf("ops = %s, want full", m.kinds())
	}
}

func TestCanvasSyncFailureKeepsDamage(t *testing.T) {
	m := newRecordingCache()
	c := MustNew(m, Sz(4, 4))
	defer c.Close()

	c.SetPixel(image.Pt(2, 2), green)
	m.failOn = "patch"
	if err := c.Sync(); !errors.Is(err, errInjected) {
		t.Fatalf("Sync() error = %v, want %v", err, errInjected)
	}
	if !c.Pending() {
		t.Fatal("damage lost after failed Sync")
	}
	if err := c.Sync(); err != nil {
		t.Fatalf("retry Sync() error = %v", err)
	}
	assertTextureMatches(t, m, c.Texture(), c.Buffer())
}

func TestCanvasClose(t *testing.T) {
	m := newRecordingCache()
	c := MustNew(m, Sz(4, 4))
	h := c.Texture()

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if _, ok := m.textures[h]; ok {
		t.Error("texture not freed by Close")
	}
	frees := 0
	for _, op := range m.ops {
		if op.kind == "free" {
			frees++
		}
	}
	if frees != 1 {
		t.Errorf("Free called %d times, want 1", frees)
	}
	if c.Texture() != InvalidHandle {
		t.Error("Texture() valid after Close")
	}
	if err := c.Sync(); !errors.Is(err, ErrCanvasClosed) {
		t.Errorf("Sync() after Close error = %v, want %v", err, ErrCanvasClosed)
	}
	if err := c.Resize(Sz(2, 2)); !errors.Is(err, ErrCanvasClosed) {
		t.Errorf("Resize() after Close error = %v, want %v", err, ErrCanvasClosed)
	}
}

func TestCanvasStats(t *testing.T) {
	m := newRecordingCache()
	c := MustNew(m, Sz(8, 8))
	defer c.Close()

	_ = c.Sync()
	c.SetPixel(image.Pt(0, 0), red)
	_ = c.Sync()
	c.Invalidate()
	_ = c.Sync()

	st := c.Stats()
	want := Stats{
		Frames:         3,
		Idle:           1,
		SparseFrames:   1,
		FullFrames:     1,
		Patches:        1,
		PixelsUploaded: 65,
	}
	if st != want {
		t.Errorf("Stats() = %+v, want %+v", st, want)
	}
	if got := st.Saved(64); got != 63 {
		t.Errorf("Saved(64) = %d, want 63", got)
	}
}
