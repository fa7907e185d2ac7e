// Package ebitentex keeps canvas textures in ebiten images.
//
// The cache itself needs the ebiten build tag:
//
//	go build -tags ebiten ./...
//
// Filter selection and pixel packing build everywhere.
package ebitentex

import (
	"image"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/texsync"
)

// Filter returns the filter for drawing a texture at scale: the
// magnification filter when the texture is enlarged or drawn 1:1, the
// minification filter when it is shrunk.
func Filter(s texsync.SamplingOptions, scale float64) gputypes.FilterMode {
	if scale >= 1 {
		return s.Magnification
	}
	return s.Minification
}

// pixels returns the texels of img tightly packed. image.RGBA is already
// premultiplied, which is what WritePixels takes, so bytes pass through
// unchanged; only a strided sub-image is copied.
func pixels(img *image.RGBA) []byte {
	r := img.Rect
	if img.Stride == r.Dx()*4 && len(img.Pix) == r.Dx()*r.Dy()*4 {
		return img.Pix
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Copy(dst, image.Point{}, img, r, xdraw.Src, nil)
	return dst.Pix
}
