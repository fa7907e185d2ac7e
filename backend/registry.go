package backend

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/texsync"
)

// Backend name constants.
const (
	// BackendMemory is the name of the in-memory reference cache.
	BackendMemory = "memory"
	// BackendTerminal is the name of the headless terminal cache.
	BackendTerminal = "terminal"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for Default (first registered wins).
	backendPriority = []string{BackendMemory, BackendTerminal}
)

// Register registers a factory under name. This is typically called from
// init() functions in backend packages. A later registration with the same
// name replaces the earlier one.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get creates a texture cache from the backend registered as name.
func Get(name string) (texsync.TextureCache, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	c, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend: create %q: %w", name, err)
	}
	return c, nil
}

// Default creates a cache from the first registered backend in priority
// order, falling back to any registered backend.
func Default() (texsync.TextureCache, error) {
	registryMu.RLock()
	name := ""
	for _, n := range backendPriority {
		if _, ok := backends[n]; ok {
			name = n
			break
		}
	}
	if name == "" {
		for n := range backends {
			name = n
			break
		}
	}
	registryMu.RUnlock()

	if name == "" {
		return nil, ErrBackendNotAvailable
	}
	return Get(name)
}
