package backend

import (
	"errors"

	"github.com/gogpu/texsync"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Factory creates a texture cache. Factories registered here must not
// need a window or device handed in by the caller; backends that do
// (haltex, ebitentex, shinytex) are constructed directly.
type Factory func() (texsync.TextureCache, error)

// Closer is implemented by caches that hold resources beyond their
// textures, such as a terminal screen.
type Closer interface {
	Close()
}

// Release closes c if it implements Closer.
func Release(c texsync.TextureCache) {
	if cl, ok := c.(Closer); ok {
		cl.Close()
	}
}
