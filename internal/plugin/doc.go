// Package plugin implements the plugin lifecycle state machine and the
// manager that drives it.
//
// A plugin moves through an ordered set of states:
//
//	Installed -> Loaded -> Enabled <-> Disabled -> Uninstalled
//
// (Uninstalled is also reachable directly from Loaded.) Loading captures the
// extensions the plugin declares and registers them in the extension
// registry; enabling applies declared side-effect resources; disabling
// unregisters the plugin's extensions and reverts its resources; uninstall
// guarantees both sets are empty before completing.
//
// Hook failures during load and enable block the transition and surface to
// the caller. Hook failures during disable and uninstall are logged but
// never block cleanup: correctness of the shared UI state takes priority
// over plugin-reported success.
//
// Transitions for one plugin are serialized; different plugins may
// transition concurrently.
package plugin
