package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/openfab/forgebench/internal/extension"
)

// Manager orchestrates plugin lifecycles against one extension registry.
// It is the only component that inserts into or removes from the registry.
type Manager struct {
	mu        sync.RWMutex
	registry  *extension.Registry
	applier   Applier
	logger    *zap.Logger
	instances map[string]*Instance
	order     []string
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithApplier sets the resource applier used during enable/disable.
func WithApplier(a Applier) ManagerOption {
	return func(m *Manager) {
		if a != nil {
			m.applier = a
		}
	}
}

// NewManager creates a manager bound to the given registry.
func NewManager(registry *extension.Registry, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry:  registry,
		applier:   NewMemoryApplier(),
		logger:    zap.NewNop(),
		instances: make(map[string]*Instance),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Install registers a plugin module with the manager. The instance starts
// in the Installed state; no hooks run.
func (m *Manager) Install(p Plugin) (*Instance, error) {
	if p == nil {
		return nil, ErrNilPlugin
	}
	id := p.ID()
	if id == "" {
		return nil, ErrEmptyPluginID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.instances[id]; exists {
		return nil, fmt.Errorf("plugin %q: %w", id, ErrAlreadyInstalled)
	}

	inst := &Instance{
		plugin: p,
		id:     id,
		state:  StateInstalled,
	}
	m.instances[id] = inst
	m.order = append(m.order, id)

	m.logger.Info("plugin installed", zap.String("plugin", id))
	return inst, nil
}

// Get returns an installed plugin instance by id.
func (m *Manager) Get(id string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, exists := m.instances[id]
	return inst, exists
}

// List returns all installed instances in install order.
func (m *Manager) List() []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Instance, 0, len(m.order))
	for _, id := range m.order {
		if inst, exists := m.instances[id]; exists {
			result = append(result, inst)
		}
	}
	return result
}

// Count returns the number of installed plugins.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.instances)
}

// Load runs the plugin's load hook, captures its declared extensions and
// registers them. Any registration failure rolls back every registration
// made during this load and aborts the transition. Calling Load on an
// already-loaded plugin is a no-op.
func (m *Manager) Load(ctx context.Context, id string) error {
	inst, err := m.instance(id)
	if err != nil {
		return err
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	switch inst.state {
	case StateLoaded, StateEnabled, StateDisabled:
		return nil
	case StateUninstalled:
		return fmt.Errorf("plugin %q: %w", id, ErrUninstalled)
	}

	defs, err := inst.plugin.OnLoad(ctx)
	if err != nil {
		herr := &HookError{PluginID: id, Hook: "load", Err: err}
		inst.lastErr = herr
		return herr
	}

	registered := make([]string, 0, len(defs))
	for _, def := range defs {
		if err := m.registry.Register(def); err != nil {
			for _, rid := range registered {
				m.registry.Unregister(rid)
			}
			ferr := fmt.Errorf("plugin %q: load: %w", id, err)
			inst.lastErr = ferr
			return ferr
		}
		registered = append(registered, def.ID)
	}

	inst.captured = append([]extension.Definition{}, defs...)
	inst.state = StateLoaded
	inst.lastErr = nil

	m.logger.Info("plugin loaded",
		zap.String("plugin", id),
		zap.Int("extensions", len(defs)))
	return nil
}

// Enable runs the plugin's enable hook and applies its declared resources.
// From Disabled, the extensions captured at load time are re-registered
// first. The transition fails atomically: on any error the prior state is
// restored and no partial side effects remain. Enabling an enabled plugin
// is a no-op.
func (m *Manager) Enable(ctx context.Context, id string) error {
	inst, err := m.instance(id)
	if err != nil {
		return err
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	switch inst.state {
	case StateEnabled:
		return nil
	case StateInstalled:
		return fmt.Errorf("plugin %q: %w", id, ErrNotLoaded)
	case StateUninstalled:
		return fmt.Errorf("plugin %q: %w", id, ErrUninstalled)
	}

	// Disabled implies zero owned extensions currently registered;
	// re-registration reuses the definitions captured at load time.
	var reregistered []string
	if inst.state == StateDisabled {
		for _, def := range inst.captured {
			if err := m.registry.Register(def); err != nil {
				for _, rid := range reregistered {
					m.registry.Unregister(rid)
				}
				ferr := fmt.Errorf("plugin %q: enable: %w", id, err)
				inst.lastErr = ferr
				return ferr
			}
			reregistered = append(reregistered, def.ID)
		}
	}
	rollbackRegistrations := func() {
		for _, rid := range reregistered {
			m.registry.Unregister(rid)
		}
	}

	if err := inst.plugin.OnEnable(ctx); err != nil {
		rollbackRegistrations()
		herr := &HookError{PluginID: id, Hook: "enable", Err: err}
		inst.lastErr = herr
		return herr
	}

	var handles []string
	for _, res := range inst.resources() {
		handle, err := m.applier.Apply(ctx, id, res)
		if err != nil {
			for _, applied := range handles {
				if rerr := m.applier.Revert(ctx, applied); rerr != nil {
					m.logger.Warn("resource revert failed during rollback",
						zap.String("plugin", id),
						zap.String("handle", applied),
						zap.Error(rerr))
				}
			}
			rollbackRegistrations()
			herr := &HookError{
				PluginID: id,
				Hook:     "enable",
				Err:      fmt.Errorf("%w: %s: %v", ErrResourceApply, res.ID, err),
			}
			inst.lastErr = herr
			return herr
		}
		handles = append(handles, handle)
	}

	inst.handles = handles
	inst.state = StateEnabled
	inst.lastErr = nil

	m.logger.Info("plugin enabled",
		zap.String("plugin", id),
		zap.Int("resources", len(handles)))
	return nil
}

// Disable runs the plugin's disable hook, unregisters every extension it
// owns and reverts every applied resource. A failing hook is logged and
// never blocks cleanup. Disabling a disabled plugin is a no-op.
func (m *Manager) Disable(ctx context.Context, id string) error {
	inst, err := m.instance(id)
	if err != nil {
		return err
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	switch inst.state {
	case StateDisabled:
		return nil
	case StateInstalled, StateLoaded:
		return fmt.Errorf("plugin %q: %w", id, ErrNotEnabled)
	case StateUninstalled:
		return fmt.Errorf("plugin %q: %w", id, ErrUninstalled)
	}

	if err := inst.plugin.OnDisable(ctx); err != nil {
		inst.lastErr = &HookError{PluginID: id, Hook: "disable", Err: err}
		m.logger.Warn("disable hook failed, cleanup continues",
			zap.String("plugin", id),
			zap.Error(err))
	}

	m.teardownLocked(ctx, inst)
	inst.state = StateDisabled

	m.logger.Info("plugin disabled", zap.String("plugin", id))
	return nil
}

// Uninstall runs the plugin's uninstall hook and guarantees the owned
// extension set and resource set are empty before completing. A failing
// hook is logged and never blocks cleanup. The instance is removed from
// the manager on completion.
func (m *Manager) Uninstall(ctx context.Context, id string) error {
	inst, err := m.instance(id)
	if err != nil {
		return err
	}

	inst.mu.Lock()

	switch inst.state {
	case StateUninstalled:
		inst.mu.Unlock()
		return nil
	case StateEnabled:
		inst.mu.Unlock()
		return fmt.Errorf("plugin %q: %w", id, ErrStillEnabled)
	}

	if err := inst.plugin.OnUninstall(ctx); err != nil {
		inst.lastErr = &HookError{PluginID: id, Hook: "uninstall", Err: err}
		m.logger.Warn("uninstall hook failed, cleanup continues",
			zap.String("plugin", id),
			zap.Error(err))
	}

	// Force-unregister covers the Loaded case (never enabled); for
	// Disabled the extensions are already gone and unregister is a no-op.
	m.teardownLocked(ctx, inst)
	inst.captured = nil
	inst.state = StateUninstalled
	inst.mu.Unlock()

	m.mu.Lock()
	delete(m.instances, id)
	for i, name := range m.order {
		if name == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	m.logger.Info("plugin uninstalled", zap.String("plugin", id))
	return nil
}

// teardownLocked unregisters owned extensions and reverts applied
// resources. Revert failures are logged; cleanup always completes.
// The instance mutex must be held.
func (m *Manager) teardownLocked(ctx context.Context, inst *Instance) {
	for _, xid := range inst.ownedIDsLocked() {
		m.registry.Unregister(xid)
	}
	for _, handle := range inst.handles {
		if err := m.applier.Revert(ctx, handle); err != nil {
			m.logger.Warn("resource revert failed",
				zap.String("plugin", inst.id),
				zap.String("handle", handle),
				zap.Error(err))
		}
	}
	inst.handles = nil
}

// UpdateSettings notifies a plugin of a host-managed configuration change.
// The notification is informational; panics in the plugin are recovered.
func (m *Manager) UpdateSettings(id string, settings map[string]any) error {
	inst, err := m.instance(id)
	if err != nil {
		return err
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	if inst.state == StateUninstalled {
		return fmt.Errorf("plugin %q: %w", id, ErrUninstalled)
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("settings change handler panic",
					zap.String("plugin", id),
					zap.Any("panic", r))
			}
		}()
		inst.plugin.OnSettingsChange(settings)
	}()
	return nil
}

// Shutdown disables and uninstalls every plugin in reverse install order.
// Individual failures are collected; cleanup continues regardless.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.RLock()
	ids := make([]string, len(m.order))
	for i, id := range m.order {
		ids[len(m.order)-1-i] = id
	}
	m.mu.RUnlock()

	var errs []error
	for _, id := range ids {
		inst, exists := m.Get(id)
		if !exists {
			continue
		}
		if inst.State() == StateEnabled {
			if err := m.Disable(ctx, id); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
				continue
			}
		}
		if err := m.Uninstall(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown failed for %d plugins: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// instance looks up an installed instance.
func (m *Manager) instance(id string) (*Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, exists := m.instances[id]
	if !exists {
		return nil, fmt.Errorf("plugin %q: %w", id, ErrPluginNotFound)
	}
	return inst, nil
}
