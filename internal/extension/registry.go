package extension

import (
	"fmt"
	"sync"
)

// Registry is an in-memory table of extension definitions keyed by id and
// queryable by surface. Insertion order is preserved; registration order is
// the tie-break for presentation order absent other criteria.
//
// It is safe for concurrent use. Renderers read; only the plugin lifecycle
// manager inserts and removes entries.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]struct{}
	order []Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]struct{}),
	}
}

// Register inserts a definition. It fails with ErrDuplicateID if the id is
// already present; a failed registration never mutates existing state.
func (r *Registry) Register(def Definition) error {
	if def.ID == "" {
		return ErrEmptyID
	}
	if !def.Surface.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSurface, def.Surface)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[def.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, def.ID)
	}

	r.byID[def.ID] = struct{}{}
	r.order = append(r.order, def)
	return nil
}

// Unregister removes a definition by id. Removing an absent id is a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return
	}

	delete(r.byID, id)
	for i, def := range r.order {
		if def.ID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// QueryBySurface returns all current definitions targeting the surface, in
// registration order. The returned slice is a snapshot; later registry
// mutations do not affect it. An unknown surface yields an empty result.
func (r *Registry) QueryBySurface(surface Surface) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Definition
	for _, def := range r.order {
		if def.Surface == surface {
			result = append(result, def)
		}
	}
	return result
}

// Get returns the definition for an id.
func (r *Registry) Get(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.byID[id]; !exists {
		return Definition{}, false
	}
	for _, def := range r.order {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}

// Has reports whether an id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.byID[id]
	return exists
}

// Count returns the number of registered definitions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// All returns a snapshot of every definition in registration order.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Definition, len(r.order))
	copy(result, r.order)
	return result
}
