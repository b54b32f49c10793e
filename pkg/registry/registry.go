package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
)

// Registry maps names to items of one kind.
type Registry[T any] struct {
	kind     string
	notFound errors.ErrorCode

	mu    sync.RWMutex
	items map[string]T
}

// Option configures a Registry.
type Option func(*settings)

type settings struct {
	notFound errors.ErrorCode
}

// WithNotFoundCode sets the error code Get returns for unknown names.
func WithNotFoundCode(code errors.ErrorCode) Option {
	return func(s *settings) {
		s.notFound = code
	}
}

// New creates an empty registry. kind names the items in error messages.
func New[T any](kind string, opts ...Option) *Registry[T] {
	s := settings{notFound: errors.ErrNotFound}
	for _, opt := range opts {
		opt(&s)
	}
	if kind == "" {
		kind = "item"
	}
	return &Registry[T]{
		kind:     kind,
		notFound: s.notFound,
		items:    make(map[string]T),
	}
}

// Register adds an item under name.
func (r *Registry[T]) Register(name string, item T) error {
	if name == "" {
		return errors.Newf(errors.ErrInvalidInput, "%s name cannot be empty", r.kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[name]; exists {
		return errors.Newf(errors.ErrAlreadyExists, "%s '%s' is already registered", r.kind, name)
	}

	r.items[name] = item
	return nil
}

// Get retrieves the item registered under name.
func (r *Registry[T]) Get(name string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[name]
	if !exists {
		var zero T
		return zero, errors.Newf(r.notFound, "%s '%s' not found", r.kind, name).
			WithDetail("name", name).
			WithDetail("available", r.namesLocked())
	}
	return item, nil
}

// Select returns the items for names in the order given. The first unknown
// name fails the whole lookup.
func (r *Registry[T]) Select(names []string) ([]T, error) {
	out := make([]T, 0, len(names))
	for _, name := range names {
		item, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Remove deletes name from the registry.
func (r *Registry[T]) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[name]; !exists {
		return errors.Newf(r.notFound, "%s '%s' not found", r.kind, name)
	}
	delete(r.items, name)
	return nil
}

// List returns all registered names in sorted order.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

// Has checks if name is registered.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.items[name]
	return exists
}

// Clear removes every item.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[string]T)
}

// Count returns the number of registered items.
func (r *Registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

func (r *Registry[T]) namesLocked() []string {
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MustRegister registers an item and panics if registration fails.
// Registration errors in a compile-time table are programming errors.
func MustRegister[T any](reg *Registry[T], name string, item T) {
	if err := reg.Register(name, item); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", name, err))
	}
}
