package contract

import (
	"fmt"
	"slices"
	"sync"
)

// Factory builds a fresh instance of a contract.
type Factory func() Code

// Registry maps code ids to contract factories. A deployed account refers
// to its contract by code id.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under id. Registering an id twice is an error.
func (r *Registry) Register(id string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" {
		return fmt.Errorf("register contract: empty code id")
	}
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("register contract %q: already registered", id)
	}
	r.factories[id] = f
	return nil
}

// Lookup returns a new instance of the contract registered under id.
func (r *Registry) Lookup(id string) (Code, bool) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// IDs returns the registered code ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
