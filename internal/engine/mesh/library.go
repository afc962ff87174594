package mesh

import (
	"fmt"
	"sort"

	"github.com/Faultbox/lilcraft/internal/gpu"
)

// Library holds the loaded mesh assets by name.
type Library struct {
	assets map[string]*Asset
}

// LoadLibrary loads every named asset from dir into one copy pass. Duplicate
// names load once. If any asset fails, the ones already loaded are freed and
// the error is returned.
func LoadLibrary(dev gpu.Backend, pass gpu.CopyPass, dir string, names []string, opts LoadOptions) (*Library, error) {
	lib := &Library{assets: make(map[string]*Asset, len(names))}
	for _, name := range names {
		if _, ok := lib.assets[name]; ok {
			continue
		}
		asset, err := Load(dev, pass, dir, name, opts)
		if err != nil {
			lib.Free(dev)
			return nil, fmt.Errorf("loading mesh library: %w", err)
		}
		lib.assets[name] = asset
	}
	return lib, nil
}

// Get returns the asset called name.
func (l *Library) Get(name string) (*Asset, bool) {
	a, ok := l.assets[name]
	return a, ok
}

// Names returns the loaded asset names, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.assets))
	for name := range l.assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of loaded assets.
func (l *Library) Len() int { return len(l.assets) }

// Free releases every asset.
func (l *Library) Free(dev gpu.Backend) {
	for name, a := range l.assets {
		a.Free(dev)
		delete(l.assets, name)
	}
}
