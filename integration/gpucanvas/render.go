// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpucanvas

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/texsync"
)

// Rendering errors.
var (
	// ErrInvalidDrawContext is returned when the realized texture does not
	// implement gpucontext.Texture.
	ErrInvalidDrawContext = errors.New("gpucanvas: texture does not implement gpucontext.Texture")

	// ErrInvalidRenderer is returned when the draw context has no
	// gpucontext.TextureCreator.
	ErrInvalidRenderer = errors.New("gpucanvas: renderer must implement gpucontext.TextureCreator")
)

// RenderOptions controls where a canvas texture is drawn.
type RenderOptions struct {
	// X, Y is the position to draw the texture (default: 0, 0)
	X, Y float32

	// StraightAlpha marks the texture as straight (non-premultiplied)
	// alpha. Canvas pixels are premultiplied image.RGBA data, so leave it
	// false unless the texels were converted.
	StraightAlpha bool
}

// DefaultRenderOptions returns options that draw at the origin.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{}
}

// RenderTo uploads pending changes of h and draws it at (0, 0).
//
// The dc parameter should be obtained from gogpu.Context.AsTextureDrawer().
//
// Example:
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    if err := canvas.Frame(windowSize); err != nil {
//	        log.Print(err)
//	    }
//	    cache.RenderTo(dc.AsTextureDrawer(), canvas.Texture())
//	})
func (c *Cache) RenderTo(dc gpucontext.TextureDrawer, h texsync.Handle) error {
	return c.RenderToEx(dc, h, DefaultRenderOptions())
}

// RenderToPosition is a convenience method for rendering at a specific position.
func (c *Cache) RenderToPosition(dc gpucontext.TextureDrawer, h texsync.Handle, x, y float32) error {
	return c.RenderToEx(dc, h, RenderOptions{X: x, Y: y})
}

// RenderToEx uploads pending changes of h and draws it with opts.
func (c *Cache) RenderToEx(dc gpucontext.TextureDrawer, h texsync.Handle, opts RenderOptions) error {
	if c.closed {
		return ErrCacheClosed
	}

	creator := dc.TextureCreator()
	if creator == nil {
		return ErrInvalidRenderer
	}

	tex, err := c.realize(h, func(width, height int, data []byte) (any, error) {
		realTex, err := creator.NewTextureFromRGBA(width, height, data)
		if err != nil {
			return nil, err
		}
		markAlpha(realTex, opts)
		return realTex, nil
	})
	if err != nil {
		return err
	}

	gpuTex, ok := tex.(gpucontext.Texture)
	if !ok {
		return ErrInvalidDrawContext
	}
	return dc.DrawTexture(gpuTex, opts.X, opts.Y)
}

// markAlpha tells textures that support it how their alpha is encoded, so
// the renderer picks the matching blend factors.
func markAlpha(tex any, opts RenderOptions) {
	if pt, ok := tex.(interface{ SetPremultiplied(bool) }); ok {
		pt.SetPremultiplied(!opts.StraightAlpha)
	}
}
