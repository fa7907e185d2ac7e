package texsync

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Background is the color of cells that hold no painted value: the initial
// contents of a canvas and the cells a resize exposes.
var Background = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// ErrAreaOutOfBounds is returned when a requested window does not fit inside
// the pixel buffer.
var ErrAreaOutOfBounds = errors.New("texsync: area exceeds buffer bounds")

// Size is a width and height in cells.
type Size struct {
	Width, Height int
}

// Sz is shorthand for Size{Width: w, Height: h}.
func Sz(w, h int) Size {
	return Size{Width: w, Height: h}
}

// Area returns the number of cells covered by s.
func (s Size) Area() int {
	if s.Width <= 0 || s.Height <= 0 {
		return 0
	}
	return s.Width * s.Height
}

// Rect returns the rectangle of size s anchored at origin.
func (s Size) Rect(origin image.Point) image.Rectangle {
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(s.Width, s.Height))}
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// sizeOf returns the size of r.
func sizeOf(r image.Rectangle) Size {
	return Size{Width: r.Dx(), Height: r.Dy()}
}

// PixelBuffer is the CPU-side grid of canvas pixels.
//
// Cells are stored row-major in an *image.RGBA anchored at (0, 0), so reads
// and writes are O(1) and whole-buffer payloads are a single copy.
type PixelBuffer struct {
	img *image.RGBA
}

// NewPixelBuffer creates a buffer of the given size with every cell set to bg.
// Non-positive dimensions produce an empty buffer.
func NewPixelBuffer(size Size, bg color.RGBA) *PixelBuffer {
	w, h := max(size.Width, 0), max(size.Height, 0)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, xdraw.Src)
	return &PixelBuffer{img: img}
}

// Size returns the buffer dimensions.
func (b *PixelBuffer) Size() Size {
	return sizeOf(b.img.Rect)
}

// Bounds returns the valid position range, always anchored at (0, 0).
func (b *PixelBuffer) Bounds() image.Rectangle {
	return b.img.Rect
}

// Len returns the number of cells.
func (b *PixelBuffer) Len() int {
	return b.Size().Area()
}

// Get returns the color at p. The second result is false if p is outside
// the buffer; Get never panics.
func (b *PixelBuffer) Get(p image.Point) (color.RGBA, bool) {
	if !p.In(b.img.Rect) {
		return color.RGBA{}, false
	}
	return b.img.RGBAAt(p.X, p.Y), true
}

// Set stores c at p.
//
// Callers clip positions to the buffer before writing: an out-of-bounds
// position is a contract violation and panics.
func (b *PixelBuffer) Set(p image.Point, c color.RGBA) {
	if !p.In(b.img.Rect) {
		panic(fmt.Sprintf("texsync: Set(%d, %d) outside %v buffer", p.X, p.Y, b.Size()))
	}
	b.img.SetRGBA(p.X, p.Y, c)
}

// fill sets every cell of r, which must lie inside the buffer, to c.
func (b *PixelBuffer) fill(r image.Rectangle, c color.RGBA) {
	xdraw.Draw(b.img, r, &image.Uniform{C: c}, image.Point{}, xdraw.Src)
}

// Resize returns a new buffer of the given size. Every cell starts as bg and
// every cell valid in both buffers is copied from b. The receiver is left
// untouched.
func (b *PixelBuffer) Resize(size Size, bg color.RGBA) *PixelBuffer {
	nb := NewPixelBuffer(size, bg)
	shared := b.img.Rect.Intersect(nb.img.Rect)
	if !shared.Empty() {
		xdraw.Copy(nb.img, shared.Min, b.img, shared, xdraw.Src, nil)
	}
	return nb
}

// window validates the window of the given size at origin.
func (b *PixelBuffer) window(origin image.Point, size Size) (image.Rectangle, error) {
	if size.Width < 0 || size.Height < 0 {
		return image.Rectangle{}, fmt.Errorf("%w: negative size %v", ErrAreaOutOfBounds, size)
	}
	r := size.Rect(origin)
	if size.Area() > 0 && !r.In(b.img.Rect) {
		return image.Rectangle{}, fmt.Errorf("%w: %v in %v buffer", ErrAreaOutOfBounds, r, b.Size())
	}
	return r, nil
}

// Area copies the window of the given size at origin into a new image anchored
// at (0, 0). This is the payload of a rectangular texture patch.
func (b *PixelBuffer) Area(origin image.Point, size Size) (*image.RGBA, error) {
	r, err := b.window(origin, size)
	if err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	if !r.Empty() {
		xdraw.Copy(dst, image.Point{}, b.img, r, xdraw.Src, nil)
	}
	return dst, nil
}

// AreaFlat returns the window of the given size at origin in row-major order.
func (b *PixelBuffer) AreaFlat(origin image.Point, size Size) ([]color.RGBA, error) {
	img, err := b.Area(origin, size)
	if err != nil {
		return nil, err
	}
	return flatten(img), nil
}

// Flatten returns every cell in row-major order.
func (b *PixelBuffer) Flatten() []color.RGBA {
	return flatten(b.img)
}

// Image returns a copy of the whole buffer, the payload of a full replace.
func (b *PixelBuffer) Image() *image.RGBA {
	dst := image.NewRGBA(b.img.Rect)
	copy(dst.Pix, b.img.Pix)
	return dst
}

func flatten(img *image.RGBA) []color.RGBA {
	r := img.Rect
	out := make([]color.RGBA, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			out = append(out, img.RGBAAt(x, y))
		}
	}
	return out
}
