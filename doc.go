// Package texsync keeps a GPU texture in step with an editable CPU pixel
// buffer while uploading as little as possible each frame.
//
// # Overview
//
// A Canvas owns three things: a PixelBuffer holding the pixels, a Tracker
// recording which cells were written since the last upload, and the handle
// of a texture in a TextureCache. Once per frame the host calls Frame, which
// reallocates everything if the window size changed and then drains the
// tracker and uploads the damage.
//
//	c, err := texsync.New(cache, texsync.Sz(800, 600))
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	c.SetPixel(image.Pt(10, 20), color.RGBA{R: 0xff, A: 0xff})
//	if err := c.Frame(windowSize); err != nil {
//	    return err
//	}
//
// # Update strategies
//
// Drain returns one of three summaries:
//
//   - NoDamage: nothing to upload.
//   - SparseDamage: up to the tracker capacity of unique cells, each sent as
//     a 1x1 patch. Cheapest for a few isolated edits.
//   - RegionDamage: the bounding box of every write plus a write count. While
//     the count stays below half the canvas the box is sent as one patch;
//     from there on the whole texture is replaced.
//
// A resize always ends in a full replace of a freshly allocated texture.
//
// # Backends
//
// TextureCache implementations live in sub-packages:
//
//   - backend/memtex: in-memory reference cache, useful in tests
//   - backend/haltex: gogpu/wgpu HAL textures
//   - backend/ebitentex: ebiten images
//   - backend/shinytex: golang.org/x/exp/shiny textures
//   - backend/termtex: tcell terminal cells
//   - integration/gpucanvas: gpucontext texture creators and drawers
//
// # Thread Safety
//
// Canvas, Tracker and PixelBuffer are NOT safe for concurrent use.
// ConcurrentTracker serializes writers producing damage from several
// goroutines.
//
// # Logging
//
// texsync is silent by default. SetLogger enables structured logging through
// log/slog for the package and for backends that accept a logger.
package texsync
