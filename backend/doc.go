// Package backend is a registry of texture caches that can be created
// without outside resources.
//
// Backend packages register themselves on import:
//
//	import _ "github.com/gogpu/texsync/backend/memtex"
//
// Hosts then select a cache by name, for example from a command line flag:
//
//	cache, err := backend.Get(opts.Backend)
//	if err != nil {
//	    return err
//	}
//	defer backend.Release(cache)
//
// Backends that need a device, a window or a game loop (haltex, ebitentex,
// shinytex, gpucanvas) are not registered; construct them directly.
package backend
