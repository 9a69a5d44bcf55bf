package luaplug

import "errors"

var (
	// ErrStateClosed is returned when using a closed Lua state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrBadDeclaration is returned when on_load returns something other
	// than an array of declaration tables.
	ErrBadDeclaration = errors.New("invalid extension declaration")

	// ErrExecutionLimit is returned when a script exceeds its execution
	// budget.
	ErrExecutionLimit = errors.New("script execution limit exceeded")
)
