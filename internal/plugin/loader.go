package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Loader discovers plugins on the filesystem. Discovery only reads
// manifests; nothing runs until the host installs and loads a plugin.
type Loader struct {
	// Search paths for plugins (checked in order)
	paths []string

	// Discovered plugins cache
	discovered map[string]*Info
}

// Info contains discovery information about a plugin.
type Info struct {
	Name     string
	Path     string
	Manifest *Manifest
	Err      error
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPaths sets the plugin search paths.
func WithPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.paths = paths
	}
}

// NewLoader creates a new plugin loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		paths:      DefaultPluginPaths(),
		discovered: make(map[string]*Info),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// DefaultPluginPaths returns the default plugin search paths.
func DefaultPluginPaths() []string {
	paths := make([]string, 0, 3)

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "forgebench", "plugins"))
		paths = append(paths, filepath.Join(home, ".local", "share", "forgebench", "plugins"))
	}

	// Project plugins: .forgebench/plugins/
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".forgebench", "plugins"))
	}

	return paths
}

// Paths returns the configured search paths.
func (l *Loader) Paths() []string {
	return l.paths
}

// AddPath adds a search path.
func (l *Loader) AddPath(path string) {
	l.paths = append(l.paths, path)
}

// Discover finds all plugins in the search paths.
// Returns plugins sorted by name.
func (l *Loader) Discover() ([]*Info, error) {
	l.discovered = make(map[string]*Info)

	for _, basePath := range l.paths {
		if err := l.discoverInPath(basePath); err != nil {
			// Missing paths are not errors
			continue
		}
	}

	plugins := make([]*Info, 0, len(l.discovered))
	for _, info := range l.discovered {
		plugins = append(plugins, info)
	}

	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Name < plugins[j].Name
	})

	return plugins, nil
}

// discoverInPath finds plugins in a single directory.
func (l *Loader) discoverInPath(basePath string) error {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			// Single-file plugins (name.lua)
			if filepath.Ext(entry.Name()) == ".lua" {
				name := strings.TrimSuffix(entry.Name(), ".lua")
				l.addSingleFilePlugin(name, filepath.Join(basePath, entry.Name()))
			}
			continue
		}

		pluginPath := filepath.Join(basePath, entry.Name())
		info := l.inspectPlugin(entry.Name(), pluginPath)

		// Don't override earlier discoveries (first path wins)
		if _, exists := l.discovered[info.Name]; !exists {
			l.discovered[info.Name] = info
		}
	}

	return nil
}

// addSingleFilePlugin adds a single-file plugin.
func (l *Loader) addSingleFilePlugin(name, luaPath string) {
	if _, exists := l.discovered[name]; exists {
		return
	}

	manifest := NewManifestMinimal(name, filepath.Dir(luaPath))
	manifest.Main = filepath.Base(luaPath)

	l.discovered[name] = &Info{
		Name:     name,
		Path:     filepath.Dir(luaPath),
		Manifest: manifest,
	}
}

// inspectPlugin examines a plugin directory and returns its info.
func (l *Loader) inspectPlugin(name, path string) *Info {
	info := &Info{
		Name: name,
		Path: path,
	}

	manifestPath := filepath.Join(path, "plugin.json")
	if _, err := os.Stat(manifestPath); err == nil {
		manifest, err := LoadManifest(manifestPath)
		if err != nil {
			info.Err = fmt.Errorf("invalid manifest: %w", err)
			return info
		}
		info.Manifest = manifest
		info.Name = manifest.Name // Use name from manifest
		return info
	}

	// No manifest - check for init.lua
	if _, err := os.Stat(filepath.Join(path, "init.lua")); err == nil {
		info.Manifest = NewManifestMinimal(name, path)
		return info
	}

	// Check for plugin.lua (alternative entry point)
	if _, err := os.Stat(filepath.Join(path, "plugin.lua")); err == nil {
		manifest := NewManifestMinimal(name, path)
		manifest.Main = "plugin.lua"
		info.Manifest = manifest
		return info
	}

	info.Err = ErrNoEntryPoint
	return info
}

// Get returns info for a specific plugin by name.
func (l *Loader) Get(name string) (*Info, bool) {
	info, ok := l.discovered[name]
	return info, ok
}

// Refresh re-discovers plugins.
func (l *Loader) Refresh() ([]*Info, error) {
	return l.Discover()
}

// FindPlugin searches for a plugin by name across all paths.
// Returns the first match found.
func (l *Loader) FindPlugin(name string) (*Info, error) {
	if info, ok := l.discovered[name]; ok {
		return info, nil
	}

	for _, basePath := range l.paths {
		// Directory plugin
		pluginPath := filepath.Join(basePath, name)
		if stat, err := os.Stat(pluginPath); err == nil && stat.IsDir() {
			info := l.inspectPlugin(name, pluginPath)
			if info.Err == nil {
				l.discovered[name] = info
				return info, nil
			}
		}

		// Single-file plugin
		luaPath := filepath.Join(basePath, name+".lua")
		if _, err := os.Stat(luaPath); err == nil {
			manifest := NewManifestMinimal(name, basePath)
			manifest.Main = name + ".lua"
			info := &Info{
				Name:     name,
				Path:     basePath,
				Manifest: manifest,
			}
			l.discovered[name] = info
			return info, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
}

// ValidatePlugin checks if a plugin at the given path is valid.
func (l *Loader) ValidatePlugin(path string) error {
	info := l.inspectPlugin(filepath.Base(path), path)
	if info.Err != nil {
		return info.Err
	}
	if info.Manifest == nil {
		return ErrNoEntryPoint
	}
	return info.Manifest.Validate()
}

// ListNames returns the names of all discovered plugins.
func (l *Loader) ListNames() []string {
	names := make([]string, 0, len(l.discovered))
	for name := range l.discovered {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of discovered plugins.
func (l *Loader) Count() int {
	return len(l.discovered)
}

// Errors returns all discovered plugins that failed inspection.
func (l *Loader) Errors() []*Info {
	var errored []*Info
	for _, info := range l.discovered {
		if info.Err != nil {
			errored = append(errored, info)
		}
	}
	return errored
}
