package plugin

import (
	"errors"
	"fmt"
)

// Plugin system errors.
var (
	// ErrPluginNotFound is returned when a plugin id is not installed.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrAlreadyInstalled is returned when installing a plugin id twice.
	ErrAlreadyInstalled = errors.New("plugin is already installed")

	// ErrNilPlugin is returned when installing a nil plugin.
	ErrNilPlugin = errors.New("plugin is nil")

	// ErrEmptyPluginID is returned when a plugin reports an empty id.
	ErrEmptyPluginID = errors.New("plugin id is empty")

	// ErrNotLoaded is returned for transitions that require a loaded plugin.
	ErrNotLoaded = errors.New("plugin is not loaded")

	// ErrNotEnabled is returned when disabling a plugin that was never enabled.
	ErrNotEnabled = errors.New("plugin is not enabled")

	// ErrStillEnabled is returned when uninstalling an enabled plugin;
	// disable it first.
	ErrStillEnabled = errors.New("plugin is still enabled")

	// ErrUninstalled is returned for transitions on an uninstalled plugin.
	ErrUninstalled = errors.New("plugin is uninstalled")

	// ErrResourceApply is returned when a declared side-effect resource
	// cannot be applied during enable.
	ErrResourceApply = errors.New("resource apply failed")

	// ErrNoEntryPoint is returned when a plugin directory has no valid
	// entry point (init.lua or plugin.lua).
	ErrNoEntryPoint = errors.New("plugin has no entry point (init.lua or plugin.lua)")
)

// HookError reports a failed lifecycle hook. Load and enable hook errors
// block their transition; disable and uninstall hook errors are logged and
// cleanup proceeds.
type HookError struct {
	PluginID string
	Hook     string
	Err      error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("plugin %q: %s hook: %v", e.PluginID, e.Hook, e.Err)
}

// Unwrap returns the underlying hook failure.
func (e *HookError) Unwrap() error {
	return e.Err
}
