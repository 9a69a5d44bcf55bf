package plugin

import (
	"sync"

	"github.com/openfab/forgebench/internal/extension"
)

// Instance is one installed plugin and its lifecycle bookkeeping. The
// manager creates instances; plugins never see them.
type Instance struct {
	// mu serializes lifecycle transitions for this plugin. Held for the
	// full duration of a transition, including hook execution.
	mu sync.Mutex

	plugin Plugin
	id     string
	state  State

	// captured holds the definitions returned by OnLoad, exactly as
	// declared. Re-enable after disable re-registers these; OnLoad is
	// never re-run, so non-deterministic id generation in a plugin's load
	// hook cannot diverge the rendered ids.
	captured []extension.Definition

	// handles are the applied resource handles; empty outside Enabled.
	handles []string

	lastErr error
}

// ID returns the plugin id.
func (i *Instance) ID() string {
	return i.id
}

// Plugin returns the underlying plugin module.
func (i *Instance) Plugin() Plugin {
	return i.plugin
}

// State returns the current lifecycle state. Blocks while a transition for
// this plugin is in flight.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Err returns the most recent hook error observed for this instance,
// including logged (non-blocking) teardown failures.
func (i *Instance) Err() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastErr
}

// OwnedExtensionIDs returns the ids of the extensions captured at load
// time. Empty outside the Loaded, Enabled and Disabled states.
func (i *Instance) OwnedExtensionIDs() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.ownedIDsLocked()
}

func (i *Instance) ownedIDsLocked() []string {
	ids := make([]string, len(i.captured))
	for n, def := range i.captured {
		ids[n] = def.ID
	}
	return ids
}

// AppliedResourceIDs returns the applied resource handles. Empty outside
// the Enabled state.
func (i *Instance) AppliedResourceIDs() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string{}, i.handles...)
}

// resources returns the plugin's declared side-effect resources.
func (i *Instance) resources() []Resource {
	if rp, ok := i.plugin.(ResourceProvider); ok {
		return rp.Resources()
	}
	return nil
}
