package luaplug

import (
	"context"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds one script execution. gopher-lua has no
// instruction hooks, so the budget is enforced as a wall-clock deadline
// checked by the VM between instructions.
const DefaultExecutionTimeout = 5 * time.Second

// State wraps a gopher-lua interpreter for plugin execution.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes every
// entry into the interpreter, including handler and render callbacks that
// fire long after the script ran.
type State struct {
	mu      sync.Mutex
	L       *lua.LState
	timeout time.Duration
	closed  bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the per-execution budget. Every script entry
// (file, hook, render or activation callback) must finish within it.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewState creates a sandboxed Lua state with only the safe standard
// libraries opened.
func NewState(opts ...StateOption) *State {
	s := &State{timeout: DefaultExecutionTimeout}
	for _, opt := range opts {
		opt(s)
	}
	s.L = lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibraries(s.L)
	return s
}

// openSafeLibraries opens the safe subset of the Lua standard library.
// io, os, debug and package stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Base ships loaders that reach the filesystem or compile arbitrary
	// source; none of them belong in plugin scripts.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// DoFile executes a Lua file. The call blocks until completion or error.
func (s *State) DoFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	return s.runBounded(func() error {
		return s.L.DoFile(path)
	})
}

// DoString executes Lua source. The call blocks until completion or error.
func (s *State) DoString(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	return s.runBounded(func() error {
		return s.L.DoString(code)
	})
}

// HasGlobal reports whether a global of the given name is a function.
func (s *State) HasGlobal(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	return s.L.GetGlobal(name).Type() == lua.LTFunction
}

// CallGlobal calls a global Lua function with the given arguments and
// returns its results. A missing global is an error; use HasGlobal first
// for optional hooks.
func (s *State) CallGlobal(fn string, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	fnVal := s.L.GetGlobal(fn)
	if fnVal == lua.LNil {
		return nil, fmt.Errorf("function %q not found", fn)
	}
	if fnVal.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%q is not a function (got %s)", fn, fnVal.Type())
	}
	return s.callLocked(fnVal.(*lua.LFunction), args...)
}

// CallFunction calls a Lua function value, typically one captured from a
// declaration table.
func (s *State) CallFunction(fn *lua.LFunction, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}
	return s.callLocked(fn, args...)
}

func (s *State) callLocked(fn *lua.LFunction, args ...lua.LValue) ([]lua.LValue, error) {
	stackTop := s.L.GetTop()

	s.L.Push(fn)
	for _, arg := range args {
		s.L.Push(arg)
	}

	if err := s.runBounded(func() error {
		return s.L.PCall(len(args), lua.MultRet, nil)
	}); err != nil {
		return nil, err
	}

	nRet := s.L.GetTop() - stackTop
	if nRet <= 0 {
		return []lua.LValue{}, nil
	}
	results := make([]lua.LValue, nRet)
	for i := 0; i < nRet; i++ {
		results[i] = s.L.Get(stackTop + i + 1)
	}
	s.L.Pop(nRet)

	return results, nil
}

// CallTable calls a Lua function value with a single table argument built
// from fields, converting the results to Go values before releasing the
// interpreter.
func (s *State) CallTable(fn *lua.LFunction, fields map[string]any) ([]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	arg := toLuaValue(s.L, fields)
	results, err := s.callLocked(fn, arg)
	if err != nil {
		return nil, err
	}

	converted := make([]any, len(results))
	for i, res := range results {
		converted[i] = toGoValue(res)
	}
	return converted, nil
}

// CallGlobalTable calls a global function with a single table argument.
// A missing or non-function global is a no-op.
func (s *State) CallGlobalTable(name string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	fn, ok := s.L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return nil
	}

	arg := toLuaValue(s.L, fields)
	_, err := s.callLocked(fn, arg)
	return err
}

// runBounded executes fn under the state's execution deadline. A runaway
// script is interrupted between VM instructions instead of holding the
// interpreter lock forever. The caller must hold the mutex.
func (s *State) runBounded(fn func() error) error {
	if s.timeout <= 0 {
		return s.withRecovery(fn)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	err := s.withRecovery(fn)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w after %v", ErrExecutionLimit, s.timeout)
	}
	return err
}

// withRecovery executes a function with panic recovery. The caller must
// hold the mutex.
func (s *State) withRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Closed reports whether the state has been closed.
func (s *State) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the interpreter. Further calls return ErrStateClosed.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.Close()
	s.closed = true
}
