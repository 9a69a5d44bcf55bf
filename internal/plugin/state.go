package plugin

// State represents the lifecycle state of a plugin instance.
type State int

// Plugin states.
const (
	// StateInstalled - Plugin is installed but its load hook has not run.
	StateInstalled State = iota

	// StateLoaded - Extensions are captured and registered; not yet enabled.
	StateLoaded

	// StateEnabled - Extensions registered and resources applied.
	StateEnabled

	// StateDisabled - Extensions unregistered and resources reverted;
	// re-enable re-registers the extensions captured at load time.
	StateDisabled

	// StateUninstalled - Terminal state; all owned state is released.
	StateUninstalled
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateInstalled:
		return "installed"
	case StateLoaded:
		return "loaded"
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	case StateUninstalled:
		return "uninstalled"
	default:
		return "unknown"
	}
}

// Terminal returns true if no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateUninstalled
}
