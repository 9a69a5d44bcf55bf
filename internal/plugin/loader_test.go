package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func mkPlugin(t *testing.T, base, name string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	for file, content := range files {
		if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
}

func TestDiscover(t *testing.T) {
	base := t.TempDir()

	mkPlugin(t, base, "with-manifest", map[string]string{
		"plugin.json": `{"name": "with-manifest", "version": "1.0.0", "main": "main.lua"}`,
		"main.lua":    "-- entry",
	})
	mkPlugin(t, base, "bare-init", map[string]string{
		"init.lua": "-- entry",
	})
	mkPlugin(t, base, "alt-entry", map[string]string{
		"plugin.lua": "-- entry",
	})
	mkPlugin(t, base, "empty", nil)
	if err := os.WriteFile(filepath.Join(base, "single.lua"), []byte("-- entry"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loader := NewLoader(WithPaths(base))
	plugins, err := loader.Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	// Sorted by name, the empty directory included with its error.
	wantNames := []string{"alt-entry", "bare-init", "empty", "single", "with-manifest"}
	if len(plugins) != len(wantNames) {
		t.Fatalf("Discover() found %d plugins, want %d", len(plugins), len(wantNames))
	}
	for i, info := range plugins {
		if info.Name != wantNames[i] {
			t.Errorf("plugins[%d].Name = %q, want %q", i, info.Name, wantNames[i])
		}
	}

	if info, _ := loader.Get("empty"); !errors.Is(info.Err, ErrNoEntryPoint) {
		t.Errorf("empty plugin Err = %v, want ErrNoEntryPoint", info.Err)
	}
	if info, _ := loader.Get("alt-entry"); info.Manifest.Main != "plugin.lua" {
		t.Errorf("alt-entry Main = %q, want plugin.lua", info.Manifest.Main)
	}
	if got := len(loader.Errors()); got != 1 {
		t.Errorf("Errors() len = %d, want 1", got)
	}
}

func TestDiscoverFirstPathWins(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	mkPlugin(t, first, "dup", map[string]string{
		"plugin.json": `{"name": "dup", "version": "1.0.0", "displayName": "First"}`,
		"init.lua":    "",
	})
	mkPlugin(t, second, "dup", map[string]string{
		"plugin.json": `{"name": "dup", "version": "2.0.0", "displayName": "Second"}`,
		"init.lua":    "",
	})

	loader := NewLoader(WithPaths(first, second))
	if _, err := loader.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	info, ok := loader.Get("dup")
	if !ok {
		t.Fatal("Get(dup) not found")
	}
	if info.Manifest.Version != "1.0.0" {
		t.Errorf("Version = %q, want the first path's 1.0.0", info.Manifest.Version)
	}
}

func TestFindPlugin(t *testing.T) {
	base := t.TempDir()
	mkPlugin(t, base, "tools", map[string]string{"init.lua": ""})

	loader := NewLoader(WithPaths(base))

	info, err := loader.FindPlugin("tools")
	if err != nil {
		t.Fatalf("FindPlugin() error = %v", err)
	}
	if info.Name != "tools" {
		t.Errorf("Name = %q, want tools", info.Name)
	}

	if _, err := loader.FindPlugin("absent"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("FindPlugin(absent) = %v, want ErrPluginNotFound", err)
	}
}

func TestDiscoverMissingPath(t *testing.T) {
	loader := NewLoader(WithPaths(filepath.Join(t.TempDir(), "nope")))
	plugins, err := loader.Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(plugins) != 0 {
		t.Errorf("Discover() found %d plugins in a missing path", len(plugins))
	}
}

func TestValidatePlugin(t *testing.T) {
	base := t.TempDir()
	mkPlugin(t, base, "good", map[string]string{"init.lua": ""})
	mkPlugin(t, base, "broken", map[string]string{
		"plugin.json": `{"name": "Broken Name", "version": "1.0.0"}`,
	})
	mkPlugin(t, base, "empty", nil)

	loader := NewLoader(WithPaths(base))

	if err := loader.ValidatePlugin(filepath.Join(base, "good")); err != nil {
		t.Errorf("ValidatePlugin(good) error = %v", err)
	}
	if err := loader.ValidatePlugin(filepath.Join(base, "broken")); !errors.Is(err, ErrInvalidName) {
		t.Errorf("ValidatePlugin(broken) = %v, want ErrInvalidName", err)
	}
	if err := loader.ValidatePlugin(filepath.Join(base, "empty")); !errors.Is(err, ErrNoEntryPoint) {
		t.Errorf("ValidatePlugin(empty) = %v, want ErrNoEntryPoint", err)
	}
}
