package addrspace

import (
	"sort"
	"sync"

	"github.com/wippyai/mcu-facade/errors"
)

// DefaultBackend is the translator used when none is named.
const DefaultBackend = "xc8"

// Factory builds a Translator for a space.
type Factory func(Space) Translator

// Registry maps backend names to translator factories.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry returns a registry holding the built-in backends.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("xc8", func(s Space) Translator { return NewXC8(s) })
	r.Register("flat", func(s Space) Translator { return NewFlat(s) })
	return r
}

// Register adds or replaces a backend.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// New builds the named backend for space. An empty name selects
// DefaultBackend.
func (r *Registry) New(name string, space Space) (Translator, error) {
	if name == "" {
		name = DefaultBackend
	}
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound(errors.PhaseConfig, "compiler backend", name)
	}
	return f(space), nil
}

// Names returns the registered backend names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
