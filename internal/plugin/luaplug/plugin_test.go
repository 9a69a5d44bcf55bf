package luaplug

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/openfab/forgebench/internal/extension"
	"github.com/openfab/forgebench/internal/plugin"
)

func scriptPlugin(t *testing.T, name, source string, opts ...Option) *Plugin {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "init.lua"), []byte(source), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return New(plugin.NewManifestMinimal(name, dir), opts...)
}

// globalNumber reads a numeric global through a Lua getter function.
func globalNumber(t *testing.T, p *Plugin, getter string) float64 {
	t.Helper()
	results, err := p.state.CallGlobal(getter)
	if err != nil {
		t.Fatalf("CallGlobal(%s) error = %v", getter, err)
	}
	if len(results) != 1 {
		t.Fatalf("CallGlobal(%s) returned %d values", getter, len(results))
	}
	n, ok := results[0].(lua.LNumber)
	if !ok {
		t.Fatalf("CallGlobal(%s) = %v, want number", getter, results[0])
	}
	return float64(n)
}

func TestOnLoadDeclaresExtensions(t *testing.T) {
	p := scriptPlugin(t, "sketch", `
		activated = 0
		function activations() return activated end

		function on_load()
		  return {
		    {
		      id = "sketch.line",
		      surface = "toolbar",
		      label = "Line",
		      tooltip = "Draw a line",
		      group = "sketch",
		      position = "left",
		      render = function(meta)
		        return { title = meta.label, lines = { "/" } }
		      end,
		      on_activate = function()
		        activated = activated + 1
		      end,
		    },
		    {
		      id = "sketch.panel",
		      surface = "sidebar",
		      name = "Sketch",
		    },
		  }
		end
	`)

	defs, err := p.OnLoad(context.Background())
	if err != nil {
		t.Fatalf("OnLoad() error = %v", err)
	}
	defer p.OnUninstall(context.Background())

	if len(defs) != 2 {
		t.Fatalf("OnLoad() returned %d definitions, want 2", len(defs))
	}

	line := defs[0]
	if line.ID != "sketch.line" || line.Surface != extension.SurfaceToolbar {
		t.Errorf("definition = %+v", line)
	}
	if line.Metadata.Group != "sketch" || line.Metadata.Position != extension.PositionLeft {
		t.Errorf("metadata = %+v", line.Metadata)
	}

	content, err := line.Renderable.Render(line.Metadata)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if content.Title != "Line" || len(content.Lines) != 1 || content.Lines[0] != "/" {
		t.Errorf("Render() = %+v", content)
	}

	line.Handler()
	line.Handler()
	if got := globalNumber(t, p, "activations"); got != 2 {
		t.Errorf("activations = %v, want 2", got)
	}

	panel := defs[1]
	if panel.Renderable != nil || panel.Handler != nil {
		t.Error("bare declaration should have no renderable or handler")
	}
	if panel.DisplayLabel() != "Sketch" {
		t.Errorf("DisplayLabel() = %q, want Sketch", panel.DisplayLabel())
	}
}

func TestOnLoadWithoutDeclarations(t *testing.T) {
	p := scriptPlugin(t, "quiet", `local x = 1`)

	defs, err := p.OnLoad(context.Background())
	if err != nil {
		t.Fatalf("OnLoad() error = %v", err)
	}
	defer p.OnUninstall(context.Background())

	if len(defs) != 0 {
		t.Errorf("OnLoad() returned %d definitions, want 0", len(defs))
	}
}

func TestOnLoadBadDeclarations(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name:   "missing id",
			source: `function on_load() return { { surface = "toolbar" } } end`,
		},
		{
			name:   "unknown surface",
			source: `function on_load() return { { id = "a", surface = "ribbon" } } end`,
		},
		{
			name:   "unknown position",
			source: `function on_load() return { { id = "a", surface = "toolbar", position = "top" } } end`,
		},
		{
			name:   "non-table return",
			source: `function on_load() return 42 end`,
		},
		{
			name:   "non-table entry",
			source: `function on_load() return { "nope" } end`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := scriptPlugin(t, "broken", tt.source)
			_, err := p.OnLoad(context.Background())
			if !errors.Is(err, ErrBadDeclaration) {
				t.Errorf("OnLoad() = %v, want ErrBadDeclaration", err)
			}
		})
	}
}

func TestOnLoadScriptError(t *testing.T) {
	p := scriptPlugin(t, "crash", `error("boom at load")`)

	if _, err := p.OnLoad(context.Background()); err == nil {
		t.Error("OnLoad() succeeded on a failing script")
	}
}

func TestLifecycleHooks(t *testing.T) {
	p := scriptPlugin(t, "hooks", `
		enables, disables, uninstalls = 0, 0, 0
		function enable_count() return enables end
		function disable_count() return disables end

		function on_enable() enables = enables + 1 end
		function on_disable() disables = disables + 1 end
		function on_uninstall() uninstalls = uninstalls + 1 end
	`)
	ctx := context.Background()

	if _, err := p.OnLoad(ctx); err != nil {
		t.Fatalf("OnLoad() error = %v", err)
	}
	if err := p.OnEnable(ctx); err != nil {
		t.Fatalf("OnEnable() error = %v", err)
	}
	if err := p.OnDisable(ctx); err != nil {
		t.Fatalf("OnDisable() error = %v", err)
	}
	if got := globalNumber(t, p, "enable_count"); got != 1 {
		t.Errorf("enables = %v, want 1", got)
	}
	if got := globalNumber(t, p, "disable_count"); got != 1 {
		t.Errorf("disables = %v, want 1", got)
	}

	if err := p.OnUninstall(ctx); err != nil {
		t.Fatalf("OnUninstall() error = %v", err)
	}
	if !p.state.Closed() {
		t.Error("interpreter still open after uninstall")
	}
}

func TestFailingEnableHook(t *testing.T) {
	p := scriptPlugin(t, "hooks", `function on_enable() error("refused") end`)
	ctx := context.Background()

	if _, err := p.OnLoad(ctx); err != nil {
		t.Fatalf("OnLoad() error = %v", err)
	}
	defer p.OnUninstall(ctx)

	if err := p.OnEnable(ctx); err == nil {
		t.Error("OnEnable() succeeded with a failing hook")
	}
}

func TestOnSettingsChange(t *testing.T) {
	p := scriptPlugin(t, "settings", `
		grid = 0
		function grid_size() return grid end
		function on_settings_change(s) grid = s.gridSize end
	`)
	ctx := context.Background()

	if _, err := p.OnLoad(ctx); err != nil {
		t.Fatalf("OnLoad() error = %v", err)
	}
	defer p.OnUninstall(ctx)

	p.OnSettingsChange(map[string]any{"gridSize": 25})
	if got := globalNumber(t, p, "grid_size"); got != 25 {
		t.Errorf("grid = %v, want 25", got)
	}
}

func TestRunawayLoadHookIsBounded(t *testing.T) {
	p := scriptPlugin(t, "spin", `
		function on_load()
		  while true do end
		end
	`, WithStateOptions(WithExecutionTimeout(100*time.Millisecond)))

	start := time.Now()
	_, err := p.OnLoad(context.Background())
	if !errors.Is(err, ErrExecutionLimit) {
		t.Fatalf("OnLoad() = %v, want ErrExecutionLimit", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("OnLoad() took %v, execution budget not enforced", elapsed)
	}
}

func TestRunawayScriptBodyIsBounded(t *testing.T) {
	p := scriptPlugin(t, "spin", `while true do end`,
		WithStateOptions(WithExecutionTimeout(100*time.Millisecond)))

	if _, err := p.OnLoad(context.Background()); !errors.Is(err, ErrExecutionLimit) {
		t.Fatalf("OnLoad() = %v, want ErrExecutionLimit", err)
	}
}

func TestSandboxClosesUnsafeLibraries(t *testing.T) {
	p := scriptPlugin(t, "probe", `
		assert(io == nil, "io must not be open")
		assert(os == nil, "os must not be open")
		assert(debug == nil, "debug must not be open")
		assert(package == nil, "package must not be open")
		assert(dofile == nil, "dofile must be stripped")
		assert(loadfile == nil, "loadfile must be stripped")
		assert(load == nil, "load must be stripped")
		assert(loadstring == nil, "loadstring must be stripped")
		assert(type(string.format) == "function", "string must be open")
		assert(type(math.floor) == "function", "math must be open")
	`)

	if _, err := p.OnLoad(context.Background()); err != nil {
		t.Fatalf("OnLoad() error = %v", err)
	}
	p.OnUninstall(context.Background())
}

func TestResourcesFromManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := plugin.NewManifestMinimal("themed", dir)
	manifest.Resources = []plugin.ResourceDecl{
		{ID: "theme", Kind: plugin.ResourceStylesheet, URI: "theme.css"},
	}

	p := New(manifest)
	res := p.Resources()
	if len(res) != 1 || res[0].Kind != plugin.ResourceStylesheet {
		t.Errorf("Resources() = %v", res)
	}
}
