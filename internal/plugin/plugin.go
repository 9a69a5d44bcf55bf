package plugin

import (
	"context"

	"github.com/openfab/forgebench/internal/extension"
)

// Plugin is the contract a plugin module implements. The manager awaits
// each hook before advancing state; hooks may block (network, script
// execution) and should honor the context.
type Plugin interface {
	// ID returns the plugin's unique identifier.
	ID() string

	// OnLoad declares the plugin's extensions. It is called exactly once,
	// during the Installed -> Loaded transition; the returned definitions
	// are captured for the lifetime of the instance and re-registered
	// verbatim on every re-enable after a disable.
	OnLoad(ctx context.Context) ([]extension.Definition, error)

	// OnEnable runs before the plugin's declared resources are applied.
	OnEnable(ctx context.Context) error

	// OnDisable runs before the manager unregisters the plugin's
	// extensions and reverts its resources. Registry cleanup happens
	// regardless of the hook's outcome.
	OnDisable(ctx context.Context) error

	// OnUninstall is the final teardown notification.
	OnUninstall(ctx context.Context) error

	// OnSettingsChange is invoked when host-managed configuration for the
	// plugin changes. Purely informational; no return contract.
	OnSettingsChange(settings map[string]any)
}

// ResourceProvider is implemented by plugins that declare side-effect
// resources (e.g., stylesheets) to apply while enabled.
type ResourceProvider interface {
	Resources() []Resource
}

// Base provides no-op implementations of the optional hooks so plugins only
// implement what they need.
type Base struct{}

// OnEnable implements Plugin.
func (Base) OnEnable(context.Context) error { return nil }

// OnDisable implements Plugin.
func (Base) OnDisable(context.Context) error { return nil }

// OnUninstall implements Plugin.
func (Base) OnUninstall(context.Context) error { return nil }

// OnSettingsChange implements Plugin.
func (Base) OnSettingsChange(map[string]any) {}
