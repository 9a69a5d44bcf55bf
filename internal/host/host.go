package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/openfab/forgebench/internal/bus"
	"github.com/openfab/forgebench/internal/extension"
	"github.com/openfab/forgebench/internal/plugin"
	"github.com/openfab/forgebench/internal/plugin/luaplug"
	"github.com/openfab/forgebench/internal/settings"
	"github.com/openfab/forgebench/internal/surface"
)

// Host is one assembled workbench instance.
type Host struct {
	registry *extension.Registry
	bus      *bus.Bus
	manager  *plugin.Manager
	resolver *surface.Resolver
	settings *settings.Store
	loader   *plugin.Loader
	logger   *zap.Logger
	collab   Collaborators

	mu         sync.RWMutex
	activeTool string
	manifests  map[string]*plugin.Manifest

	activeSub *bus.Subscription
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host logger, shared with every owned component.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithPluginPaths sets the plugin search paths.
func WithPluginPaths(paths ...string) Option {
	return func(h *Host) {
		h.loader = plugin.NewLoader(plugin.WithPaths(paths...))
	}
}

// WithSettings sets the settings store. Without one the host keeps an
// in-memory-only document.
func WithSettings(store *settings.Store) Option {
	return func(h *Host) {
		h.settings = store
	}
}

// WithCollaborators wires the external service interfaces.
func WithCollaborators(c Collaborators) Option {
	return func(h *Host) {
		h.collab = c
	}
}

// New assembles a host. The activation bus starts immediately; the host
// tracks the most recently activated tool for resolver queries.
func New(opts ...Option) (*Host, error) {
	h := &Host{
		registry:  extension.NewRegistry(),
		logger:    zap.NewNop(),
		loader:    plugin.NewLoader(),
		manifests: make(map[string]*plugin.Manifest),
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.settings == nil {
		store, err := settings.Open("")
		if err != nil {
			return nil, err
		}
		h.settings = store
	}

	h.bus = bus.New(bus.WithLogger(h.logger))
	h.manager = plugin.NewManager(h.registry, plugin.WithLogger(h.logger))
	h.resolver = surface.NewResolver(h.registry, h.bus, surface.WithLogger(h.logger))

	sub, err := h.bus.SubscribeActivation(func(a bus.Activation) {
		h.mu.Lock()
		h.activeTool = a.ToolID
		h.mu.Unlock()
	})
	if err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}
	h.activeSub = sub

	return h, nil
}

// Registry returns the extension registry.
func (h *Host) Registry() *extension.Registry { return h.registry }

// Bus returns the activation bus.
func (h *Host) Bus() *bus.Bus { return h.bus }

// Manager returns the plugin lifecycle manager.
func (h *Host) Manager() *plugin.Manager { return h.manager }

// Settings returns the settings store.
func (h *Host) Settings() *settings.Store { return h.settings }

// ActiveTool returns the id of the most recently activated tool.
func (h *Host) ActiveTool() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.activeTool
}

// Controls resolves toolbar-style controls for a surface, marking the
// host's active tool.
func (h *Host) Controls(s extension.Surface, opts ...surface.Option) []surface.Control {
	opts = append(opts, surface.WithActiveTool(h.ActiveTool()))
	return h.resolver.Controls(s, opts...)
}

// Panels resolves rendered panel content for a surface.
func (h *Host) Panels(s extension.Surface, opts ...surface.Option) []surface.Panel {
	return h.resolver.Panels(s, opts...)
}

// InstallAndEnable installs a plugin, loads it and enables it, then
// delivers its effective settings.
func (h *Host) InstallAndEnable(ctx context.Context, p plugin.Plugin) error {
	if _, err := h.manager.Install(p); err != nil {
		return err
	}
	id := p.ID()
	if err := h.manager.Load(ctx, id); err != nil {
		return err
	}
	if err := h.manager.Enable(ctx, id); err != nil {
		return err
	}

	if mp, ok := p.(interface{ Manifest() *plugin.Manifest }); ok {
		h.mu.Lock()
		h.manifests[id] = mp.Manifest()
		h.mu.Unlock()
	}
	h.pushSettings(id)
	return nil
}

// DiscoverAndInstall discovers Lua plugins on the search paths and
// installs, loads and enables each. A failing plugin is logged and
// skipped; it never blocks the rest. Returns the number of plugins
// enabled.
func (h *Host) DiscoverAndInstall(ctx context.Context) (int, error) {
	infos, err := h.loader.Discover()
	if err != nil {
		return 0, fmt.Errorf("host: discover: %w", err)
	}

	enabled := 0
	for _, info := range infos {
		if info.Err != nil {
			h.logger.Warn("skipping plugin",
				zap.String("plugin", info.Name),
				zap.Error(info.Err))
			continue
		}

		lp := luaplug.New(info.Manifest, luaplug.WithLogger(h.logger))
		if err := h.InstallAndEnable(ctx, lp); err != nil {
			h.logger.Warn("plugin failed to start",
				zap.String("plugin", info.Name),
				zap.Error(err))
			continue
		}
		enabled++
	}
	return enabled, nil
}

// UpdateSetting stores one plugin setting and notifies the plugin with
// its full effective settings map.
func (h *Host) UpdateSetting(pluginID, key string, value any) error {
	if _, err := h.settings.SetPluginSetting(pluginID, key, value); err != nil {
		return err
	}
	h.pushSettings(pluginID)
	return nil
}

// pushSettings delivers a plugin's effective settings. Unknown plugins
// are ignored; settings are informational.
func (h *Host) pushSettings(pluginID string) {
	defaults := map[string]any{}
	h.mu.RLock()
	if m, ok := h.manifests[pluginID]; ok {
		defaults = m.SettingsDefaults()
	}
	h.mu.RUnlock()

	effective := h.settings.EffectiveSettings(pluginID, defaults)
	if err := h.manager.UpdateSettings(pluginID, effective); err != nil && !errors.Is(err, plugin.ErrPluginNotFound) {
		h.logger.Warn("settings delivery failed",
			zap.String("plugin", pluginID),
			zap.Error(err))
	}
}

// SaveDocument persists a document through the document collaborator.
func (h *Host) SaveDocument(ctx context.Context, id string, data []byte) error {
	if h.collab.Documents == nil {
		return fmt.Errorf("document store: %w", ErrNoCollaborator)
	}
	return h.collab.Documents.SaveDocument(ctx, id, data)
}

// LoadDocument loads a document through the document collaborator.
func (h *Host) LoadDocument(ctx context.Context, id string) ([]byte, error) {
	if h.collab.Documents == nil {
		return nil, fmt.Errorf("document store: %w", ErrNoCollaborator)
	}
	return h.collab.Documents.LoadDocument(ctx, id)
}

// ResolveUser resolves a token through the auth collaborator.
func (h *Host) ResolveUser(ctx context.Context, token string) (UserInfo, error) {
	if h.collab.Auth == nil {
		return UserInfo{}, fmt.Errorf("auth resolver: %w", ErrNoCollaborator)
	}
	return h.collab.Auth.ResolveUser(ctx, token)
}

// UploadArtifact uploads a produced artifact through the object-store
// collaborator.
func (h *Host) UploadArtifact(ctx context.Context, key string, data []byte) (string, error) {
	if h.collab.Objects == nil {
		return "", fmt.Errorf("object store: %w", ErrNoCollaborator)
	}
	return h.collab.Objects.Upload(ctx, key, data)
}

// NotifyOrg notifies an organization through the notifier collaborator.
func (h *Host) NotifyOrg(ctx context.Context, orgID, message string) error {
	if h.collab.Notifier == nil {
		return fmt.Errorf("org notifier: %w", ErrNoCollaborator)
	}
	return h.collab.Notifier.Notify(ctx, orgID, message)
}

// Close tears down every plugin in reverse install order, then stops the
// bus. Teardown continues past individual failures.
func (h *Host) Close(ctx context.Context) error {
	var errs []error
	if err := h.manager.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if h.activeSub != nil {
		h.bus.Unsubscribe(h.activeSub)
	}
	if err := h.bus.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
