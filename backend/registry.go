package backend

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/gogpu/texsource"
)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for Default (first usable wins).
	priority = []string{BackendWGPU, BackendSoftware}
)

// Register registers a device factory under name, replacing any previous
// registration. Typically called from init functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the sorted names of registered backends.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether a backend is registered under name.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get opens the backend registered under name.
func Get(name string) (texsource.Device, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q not registered", ErrBackendNotAvailable, name)
	}
	dev, err := factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBackendNotAvailable, name, err)
	}
	return dev, nil
}

// Default opens the first usable backend in priority order (wgpu, then
// software), falling back to any other registered backend.
func Default() (texsource.Device, error) {
	registryMu.RLock()
	names := make([]string, 0, len(factories))
	for _, name := range priority {
		if _, ok := factories[name]; ok {
			names = append(names, name)
		}
	}
	var rest []string
	for name := range factories {
		if !slices.Contains(priority, name) {
			rest = append(rest, name)
		}
	}
	registryMu.RUnlock()
	sort.Strings(rest)
	names = append(names, rest...)

	for _, name := range names {
		dev, err := Get(name)
		if err == nil {
			texsource.Logger().Info("backend: device opened", "backend", name)
			return dev, nil
		}
		texsource.Logger().Warn("backend: falling back", "backend", name, "err", err)
	}
	return nil, ErrBackendNotAvailable
}

// MustDefault returns the default device or panics.
func MustDefault() texsource.Device {
	dev, err := Default()
	if err != nil {
		panic(err)
	}
	return dev
}
