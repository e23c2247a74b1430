package auth

import (
	"sort"
	"sync"
)

// Registry holds the configured federators keyed by provider id.
type Registry struct {
	mu         sync.RWMutex
	federators map[string]Federator
}

// NewRegistry registers the given federators. Later duplicates replace
// earlier ones and ids without a declared Method are skipped; use Register
// to detect either.
func NewRegistry(list ...Federator) *Registry {
	r := &Registry{federators: make(map[string]Federator)}
	for _, f := range list {
		if _, ok := MethodFor(f.ID()); ok {
			r.federators[f.ID()] = f
		}
	}
	return r
}

// Register adds f. It fails if the id has no declared Method or is
// already taken.
func (r *Registry) Register(f Federator) error {
	if _, ok := MethodFor(f.ID()); !ok {
		return NewError(ErrUnsupportedProvider, "provider has no session method", map[string]interface{}{
			"provider": f.ID(),
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.federators[f.ID()]; exists {
		return NewError(ErrDuplicateProvider, "provider already registered", map[string]interface{}{
			"provider": f.ID(),
		})
	}
	r.federators[f.ID()] = f
	return nil
}

// Get returns the federator registered for id.
func (r *Registry) Get(id string) (Federator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.federators[id]
	return f, ok
}

// IDs returns the registered provider ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.federators))
	for id := range r.federators {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
