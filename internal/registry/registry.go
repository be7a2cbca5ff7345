// Package registry provides the named registries webpress is built around: a
// process-wide mapping from name to text processor, and the bundle registry
// held by the compressor. Both share one mutex-guarded implementation.
package registry

import (
	"context"
	"sync"

	"github.com/webpress/webpress/internal/errors"
)

// ProcessorFunc is a pure text-to-text transform. Implementations must be
// deterministic for a fixed input; the resolution pipeline memoizes their
// output. The context bounds external invocations such as the LESS compiler.
type ProcessorFunc func(ctx context.Context, content string) (string, error)

// Registry is a mutex-guarded mapping from unique name to value. The entity
// string names what is being registered ("processor", "bundle") and is only
// used to build error messages.
type Registry[T any] struct {
	entity  string
	mutex   sync.RWMutex
	entries map[string]T
}

// New creates an empty registry for the given entity kind.
func New[T any](entity string) *Registry[T] {
	return &Registry[T]{
		entity:  entity,
		entries: make(map[string]T),
	}
}

// Register installs value under name. Registering an existing name without
// replace fails with a DuplicateName error and leaves the registry unchanged.
func (r *Registry[T]) Register(name string, value T, replace bool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.entries[name]; exists && !replace {
		return errors.DuplicateName(r.entity, name)
	}
	r.entries[name] = value
	return nil
}

// Get retrieves the value registered under name. An unknown name is a
// NotFound error, never a silent zero value.
func (r *Registry[T]) Get(name string) (T, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	value, exists := r.entries[name]
	if !exists {
		var zero T
		return zero, errors.NotFound(r.entity, name)
	}
	return value, nil
}

// Names returns the registered names in unspecified order.
func (r *Registry[T]) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Len returns the number of registered entries.
func (r *Registry[T]) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.entries)
}

// Range calls fn for each entry until fn returns false. The registry lock is
// held for the duration of the iteration.
func (r *Registry[T]) Range(fn func(name string, value T) bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for name, value := range r.entries {
		if !fn(name, value) {
			return
		}
	}
}
