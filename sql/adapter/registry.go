package adapter

import (
	"fmt"
	"sync"
)

var globalRegistry = NewRegistry()

// Registry manages available SQL adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]func() Adapter
}

// NewRegistry creates a registry with the built-in adapters registered.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[string]func() Adapter)}

	r.Register("sqlite", func() Adapter { return NewSQLiteAdapter() })
	r.Register("sqlite3", func() Adapter { return NewSQLiteAdapter() })
	r.Register("postgres", func() Adapter { return NewPostgresAdapter() })
	r.Register("postgresql", func() Adapter { return NewPostgresAdapter() })
	r.Register("mysql", func() Adapter { return NewMySQLAdapter() })

	return r
}

// Register registers an adapter factory under a name.
func (r *Registry) Register(name string, factory func() Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[name] = factory
}

// Get retrieves an adapter by name.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	factory, exists := r.adapters[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("adapter %q not registered", name)
	}
	return factory(), nil
}

// List returns all registered adapter names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

// Register registers an adapter factory in the global registry.
func Register(name string, factory func() Adapter) {
	globalRegistry.Register(name, factory)
}

// Get retrieves an adapter from the global registry.
func Get(name string) (Adapter, error) {
	return globalRegistry.Get(name)
}

// List returns all adapter names in the global registry.
func List() []string {
	return globalRegistry.List()
}
