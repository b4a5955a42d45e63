package loader

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Registry maps names to values, typically handler factories.
type Registry[T any] struct {
	items map[string]T
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[string]T)}
}

// Register adds v under name. Names are normalized with [Normalize].
func (r *Registry[T]) Register(name string, v T) error {
	name = Normalize(name)
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.items[name] = v
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry[T]) MustRegister(name string, v T) {
	if err := r.Register(name, v); err != nil {
		panic(err)
	}
}

// Lookup returns the value registered under name.
func (r *Registry[T]) Lookup(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.items[Normalize(name)]
	return v, ok
}

// Has reports whether name is registered.
func (r *Registry[T]) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.items))
}

// Len returns the number of registered names.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Normalize converts backslashes to slashes and trims surrounding slashes
// and whitespace.
func Normalize(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	return strings.Trim(name, "/")
}

// Adapters is a two-level registry of adapter implementations keyed by
// kind and name.
type Adapters struct {
	items map[string]map[string]any
	mu    sync.RWMutex
}

// NewAdapters creates an empty adapter registry.
func NewAdapters() *Adapters {
	return &Adapters{items: make(map[string]map[string]any)}
}

// Register adds impl as adapter name of kind.
func (a *Adapters) Register(kind, name string, impl any) error {
	kind, name = Normalize(kind), Normalize(name)
	if kind == "" || name == "" {
		return ErrEmptyName
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	byName, ok := a.items[kind]
	if !ok {
		byName = make(map[string]any)
		a.items[kind] = byName
	}
	if _, ok := byName[name]; ok {
		return fmt.Errorf("%w: %s/%s", ErrDuplicate, kind, name)
	}
	byName[name] = impl
	return nil
}

// MustRegister is like Register but panics on error.
func (a *Adapters) MustRegister(kind, name string, impl any) {
	if err := a.Register(kind, name, impl); err != nil {
		panic(err)
	}
}

// Adapter returns the implementation registered as kind/name.
func (a *Adapters) Adapter(kind, name string) (any, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	impl, ok := a.items[Normalize(kind)][Normalize(name)]
	return impl, ok
}

// Kinds returns the registered adapter kinds in sorted order.
func (a *Adapters) Kinds() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Sorted(maps.Keys(a.items))
}

// Names returns the adapter names registered for kind in sorted order.
func (a *Adapters) Names(kind string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Sorted(maps.Keys(a.items[Normalize(kind)]))
}
