package luaplug

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/openfab/forgebench/internal/extension"
	"github.com/openfab/forgebench/internal/plugin"
)

// Plugin adapts a Lua script to the plugin lifecycle contract. One
// interpreter per plugin; it lives from the load hook until uninstall.
type Plugin struct {
	manifest  *plugin.Manifest
	logger    *zap.Logger
	stateOpts []StateOption
	state     *State
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithLogger sets the logger used for handler and hook failures that do
// not block a transition.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Plugin) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithStateOptions forwards options to the plugin's interpreter state,
// such as a tighter execution budget.
func WithStateOptions(opts ...StateOption) Option {
	return func(p *Plugin) {
		p.stateOpts = append(p.stateOpts, opts...)
	}
}

// New creates a Lua plugin from its manifest. The script does not run
// until the load hook.
func New(manifest *plugin.Manifest, opts ...Option) *Plugin {
	p := &Plugin{
		manifest: manifest,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID implements plugin.Plugin.
func (p *Plugin) ID() string {
	return p.manifest.Name
}

// Manifest returns the plugin's manifest.
func (p *Plugin) Manifest() *plugin.Manifest {
	return p.manifest
}

// Resources implements plugin.ResourceProvider from the manifest's
// resource declarations.
func (p *Plugin) Resources() []plugin.Resource {
	return p.manifest.DeclaredResources()
}

// OnLoad runs the script and collects the declarations returned by its
// on_load function. A script without on_load declares no extensions.
func (p *Plugin) OnLoad(_ context.Context) ([]extension.Definition, error) {
	state := NewState(p.stateOpts...)

	if err := state.DoFile(p.manifest.MainPath()); err != nil {
		state.Close()
		return nil, fmt.Errorf("lua plugin %q: %w", p.ID(), err)
	}

	if !state.HasGlobal("on_load") {
		p.state = state
		return nil, nil
	}

	results, err := state.CallGlobal("on_load")
	if err != nil {
		state.Close()
		return nil, fmt.Errorf("lua plugin %q: on_load: %w", p.ID(), err)
	}

	defs, err := p.collectDefinitions(state, results)
	if err != nil {
		state.Close()
		return nil, err
	}

	p.state = state
	return defs, nil
}

// OnEnable implements plugin.Plugin.
func (p *Plugin) OnEnable(context.Context) error {
	return p.callHook("on_enable")
}

// OnDisable implements plugin.Plugin.
func (p *Plugin) OnDisable(context.Context) error {
	return p.callHook("on_disable")
}

// OnUninstall runs the uninstall hook and always closes the interpreter,
// invalidating every handler and render callback the script declared.
func (p *Plugin) OnUninstall(context.Context) error {
	err := p.callHook("on_uninstall")
	if p.state != nil {
		p.state.Close()
	}
	return err
}

// OnSettingsChange forwards the settings map to the script's
// on_settings_change function. Script failures are logged, not returned;
// the notification has no error contract.
func (p *Plugin) OnSettingsChange(settings map[string]any) {
	if p.state == nil {
		return
	}
	if err := p.state.CallGlobalTable("on_settings_change", settings); err != nil {
		p.logger.Warn("settings change handler failed",
			zap.String("plugin", p.ID()),
			zap.Error(err))
	}
}

// callHook invokes an optional global hook function.
func (p *Plugin) callHook(name string) error {
	if p.state == nil || !p.state.HasGlobal(name) {
		return nil
	}
	if _, err := p.state.CallGlobal(name); err != nil {
		return fmt.Errorf("lua plugin %q: %s: %w", p.ID(), name, err)
	}
	return nil
}

// collectDefinitions converts on_load's return value to definitions.
func (p *Plugin) collectDefinitions(state *State, results []lua.LValue) ([]extension.Definition, error) {
	if len(results) == 0 || results[0] == lua.LNil {
		return nil, nil
	}

	table, ok := results[0].(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("lua plugin %q: %w: on_load must return a table, got %s",
			p.ID(), ErrBadDeclaration, results[0].Type())
	}

	var defs []extension.Definition
	var convErr error
	table.ForEach(func(_, v lua.LValue) {
		if convErr != nil {
			return
		}
		entry, ok := v.(*lua.LTable)
		if !ok {
			convErr = fmt.Errorf("lua plugin %q: %w: declaration entries must be tables",
				p.ID(), ErrBadDeclaration)
			return
		}
		def, err := p.definitionFromTable(state, entry)
		if err != nil {
			convErr = err
			return
		}
		defs = append(defs, def)
	})
	if convErr != nil {
		return nil, convErr
	}
	return defs, nil
}

// definitionFromTable converts one declaration table to a definition.
func (p *Plugin) definitionFromTable(state *State, t *lua.LTable) (extension.Definition, error) {
	var def extension.Definition

	def.ID = tableString(t, "id")
	if def.ID == "" {
		return def, fmt.Errorf("lua plugin %q: %w: id is required", p.ID(), ErrBadDeclaration)
	}

	def.Surface = extension.Surface(tableString(t, "surface"))
	if !def.Surface.Valid() {
		return def, fmt.Errorf("lua plugin %q: %w: %q targets unknown surface %q",
			p.ID(), ErrBadDeclaration, def.ID, def.Surface)
	}

	def.Metadata = extension.Metadata{
		Label:   tableString(t, "label"),
		Name:    tableString(t, "name"),
		Tooltip: tableString(t, "tooltip"),
		Icon:    tableString(t, "icon"),
		Group:   tableString(t, "group"),
	}

	if pos := tableString(t, "position"); pos != "" {
		position := extension.Position(pos)
		switch position {
		case extension.PositionLeft, extension.PositionCenter, extension.PositionRight:
			def.Metadata.Position = position
		default:
			return def, fmt.Errorf("lua plugin %q: %w: %q has unknown position %q",
				p.ID(), ErrBadDeclaration, def.ID, pos)
		}
	}

	if fn := tableFunc(t, "render"); fn != nil {
		def.Renderable = p.renderFunc(state, def.ID, fn)
	}
	if fn := tableFunc(t, "icon_render"); fn != nil {
		def.Metadata.IconRender = p.renderFunc(state, def.ID, fn)
	}
	if fn := tableFunc(t, "on_activate"); fn != nil {
		def.Handler = p.handlerFunc(state, def.ID, fn)
	}

	return def, nil
}

// renderFunc wraps a Lua render function as a Renderable. The metadata
// goes in as a table; the script returns { title = ..., lines = {...} }.
func (p *Plugin) renderFunc(state *State, id string, fn *lua.LFunction) extension.RenderFunc {
	return func(meta extension.Metadata) (extension.Content, error) {
		results, err := state.CallTable(fn, map[string]any{
			"label":    meta.Label,
			"name":     meta.Name,
			"tooltip":  meta.Tooltip,
			"icon":     meta.Icon,
			"group":    meta.Group,
			"position": string(meta.Position),
		})
		if err != nil {
			return extension.Content{}, fmt.Errorf("lua plugin %q: render %q: %w", p.ID(), id, err)
		}
		if len(results) == 0 || results[0] == nil {
			return extension.Content{}, nil
		}
		return contentFromValue(results[0])
	}
}

// handlerFunc wraps a Lua activation callback. Handler failures cannot
// propagate through the activation path, so they are logged.
func (p *Plugin) handlerFunc(state *State, id string, fn *lua.LFunction) extension.Handler {
	return func() {
		if _, err := state.CallFunction(fn); err != nil {
			p.logger.Warn("activation handler failed",
				zap.String("plugin", p.ID()),
				zap.String("extension", id),
				zap.Error(err))
		}
	}
}

// contentFromValue converts a render result to Content.
func contentFromValue(v any) (extension.Content, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return extension.Content{}, fmt.Errorf("%w: render must return a table", ErrBadDeclaration)
	}

	var content extension.Content
	if title, ok := m["title"].(string); ok {
		content.Title = title
	}
	if lines, ok := m["lines"].([]any); ok {
		for _, line := range lines {
			if s, ok := line.(string); ok {
				content.Lines = append(content.Lines, s)
			}
		}
	}
	return content, nil
}
