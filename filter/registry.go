// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package filter

import (
	"sort"
	"sync"
)

// globalRegistry is the default registry.
var globalRegistry = &Registry{}

// Registry maps filter names to factories.
//
// Third-party filters register themselves in an init function:
//
//	func init() {
//	    filter.Register("sepia", func() filter.Filter { return &sepia{} })
//	}
//
// and become addressable from chain specs by name.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Factory
}

// NewRegistry creates a new empty registry.
// Most code should use the global registry via Register and New.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Factory)}
}

// Register adds a filter to the global registry.
// Registering a name that already exists replaces the previous entry.
func Register(name string, factory Factory) {
	globalRegistry.Register(name, factory)
}

// Unregister removes a filter from the global registry.
func Unregister(name string) {
	globalRegistry.Unregister(name)
}

// List returns all registered filter names, sorted.
func List() []string {
	return globalRegistry.List()
}

// New instantiates the named filter from the global registry.
func New(name string) (Filter, error) {
	return globalRegistry.New(name)
}

// Register adds a filter to this registry.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]Factory)
	}
	r.entries[name] = factory
}

// Unregister removes a filter from this registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// List returns all registered filter names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New instantiates the named filter.
func (r *Registry) New(name string) (Filter, error) {
	r.mu.RLock()
	factory, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownFilterError{Name: name}
	}
	return factory(), nil
}

// UnknownFilterError indicates a named filter is not registered.
type UnknownFilterError struct {
	Name string
}

func (e *UnknownFilterError) Error() string {
	return "filter: unknown filter: " + e.Name
}
