// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpucanvas draws texsync canvases in gogpu GPU-accelerated windows.
//
// Cache implements texsync.TextureCache on top of gpucontext. The data
// flow is:
//
//	texsync.Canvas (edit) -> damage -> Cache shadow (CPU) -> GPU Texture -> Window
//
// # Architecture
//
// GPU textures can only be created while a frame is drawn, so the cache
// keeps a CPU shadow of every texture:
//
//   - Allocate stores a pending texture
//   - ApplyPatch and ApplyFull update the shadow and remember the dirty rectangle
//   - RenderTo creates the GPU texture on first use, uploads the dirty
//     rectangle, and draws the texture
//
// Textures freed by a resize stay alive until the next upload has waited
// for the GPU, so in-flight command buffers never sample freed memory.
//
// # Usage
//
//	cache := gpucanvas.New(app.GPUContextProvider())
//	defer cache.Close()
//	canvas := texsync.MustNew(cache, texsync.Sz(800, 600))
//	defer canvas.Close()
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    canvas.SetPixel(image.Pt(10, 10), color.RGBA{R: 255, A: 255})
//	    _ = canvas.Frame(texsync.Sz(dc.Width(), dc.Height()))
//	    _ = cache.RenderTo(dc.AsTextureDrawer(), canvas.Texture())
//	})
//
// # Thread Safety
//
// Cache is NOT safe for concurrent use. Create one Cache per goroutine,
// or use external synchronization.
package gpucanvas
