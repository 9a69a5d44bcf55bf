package plugin

import (
	"context"
	"fmt"
	"sync"
)

// Resource kinds.
const (
	ResourceStylesheet = "stylesheet"
	ResourceAsset      = "asset"
)

// Resource is a side-effect resource a plugin declares for its enabled
// state, such as an injected stylesheet. Resources are exclusively owned by
// the plugin that applied them and never outlive its Enabled state.
type Resource struct {
	ID   string
	Kind string
	URI  string
}

// Applier applies and reverts side-effect resources in the host
// environment. Apply returns an opaque handle used to revert.
type Applier interface {
	Apply(ctx context.Context, pluginID string, res Resource) (handle string, err error)
	Revert(ctx context.Context, handle string) error
}

// MemoryApplier tracks applied resources in memory. It is the host's
// default applier and the test double for lifecycle tests.
type MemoryApplier struct {
	mu      sync.Mutex
	applied map[string]Resource
}

// NewMemoryApplier creates an empty applier.
func NewMemoryApplier() *MemoryApplier {
	return &MemoryApplier{
		applied: make(map[string]Resource),
	}
}

// Apply records the resource and returns its handle. Applying the same
// plugin/resource pair twice is an error; the lifecycle manager never
// re-applies without reverting first.
func (a *MemoryApplier) Apply(_ context.Context, pluginID string, res Resource) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	handle := pluginID + "/" + res.ID
	if _, exists := a.applied[handle]; exists {
		return "", fmt.Errorf("resource %q already applied", handle)
	}
	a.applied[handle] = res
	return handle, nil
}

// Revert removes a previously applied resource. Unknown handles are a no-op.
func (a *MemoryApplier) Revert(_ context.Context, handle string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.applied, handle)
	return nil
}

// Has reports whether a handle is currently applied.
func (a *MemoryApplier) Has(handle string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, exists := a.applied[handle]
	return exists
}

// Count returns the number of applied resources.
func (a *MemoryApplier) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.applied)
}
