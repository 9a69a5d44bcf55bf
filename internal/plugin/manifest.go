package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Manifest describes a plugin's metadata, entry point, declared resources
// and settings schema. It is read from plugin.json in the plugin directory.
type Manifest struct {
	// Identity
	Name        string `json:"name"`        // Unique identifier (e.g., "sketch-tools")
	Version     string `json:"version"`     // Semver (e.g., "1.2.0")
	DisplayName string `json:"displayName"` // Human-readable name
	Description string `json:"description"` // Short description
	Author      string `json:"author"`      // Author name or org
	License     string `json:"license"`     // SPDX license identifier
	Homepage    string `json:"homepage"`    // URL to plugin homepage

	// Entry point
	Main string `json:"main"` // Relative path to main Lua file (default: "init.lua")

	// Resources applied while the plugin is enabled.
	Resources []ResourceDecl `json:"resources"`

	// SettingsSchema describes the plugin's host-managed settings.
	SettingsSchema map[string]SettingsProperty `json:"settingsSchema"`

	// Internal: path to the plugin directory
	path string
}

// ResourceDecl declares a side-effect resource in the manifest.
type ResourceDecl struct {
	ID   string `json:"id"`
	Kind string `json:"kind"` // stylesheet, asset
	URI  string `json:"uri"`
}

// SettingsProperty describes one settings option.
type SettingsProperty struct {
	Type        string   `json:"type"`        // string, number, boolean, array, object
	Default     any      `json:"default"`     // Default value
	Description string   `json:"description"` // Property description
	Enum        []string `json:"enum"`        // Allowed values for enum types
}

// Validation errors.
var (
	ErrMissingName           = errors.New("manifest: name is required")
	ErrInvalidName           = errors.New("manifest: name must be alphanumeric with hyphens")
	ErrMissingVersion        = errors.New("manifest: version is required")
	ErrInvalidVersion        = errors.New("manifest: version must be valid semver")
	ErrInvalidMain           = errors.New("manifest: main must be a .lua file")
	ErrInvalidResourceKind   = errors.New("manifest: invalid resource kind")
	ErrMissingResourceID     = errors.New("manifest: resource id is required")
	ErrInvalidSettingsType   = errors.New("manifest: invalid settings property type")
	ErrDuplicateResourceDecl = errors.New("manifest: duplicate resource id")
)

// namePattern validates plugin names.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

// semverPattern validates version strings (simplified semver).
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// validSettingsTypes are the allowed settings property types.
var validSettingsTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"boolean": true,
	"array":   true,
	"object":  true,
}

// validResourceKinds are the known resource kinds.
var validResourceKinds = map[string]bool{
	ResourceStylesheet: true,
	ResourceAsset:      true,
}

// LoadManifest loads and validates a plugin manifest from a file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	m.path = filepath.Dir(path)
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// LoadManifestFromDir loads a manifest from a plugin directory.
// Looks for plugin.json in the directory.
func LoadManifestFromDir(dir string) (*Manifest, error) {
	return LoadManifest(filepath.Join(dir, "plugin.json"))
}

// NewManifestMinimal creates a minimal manifest for single-file plugins.
func NewManifestMinimal(name, path string) *Manifest {
	return &Manifest{
		Name:    name,
		Version: "0.0.0",
		Main:    "init.lua",
		path:    path,
	}
}

// applyDefaults sets default values for optional fields.
func (m *Manifest) applyDefaults() {
	if m.Main == "" {
		m.Main = "init.lua"
	}
	if m.Version == "" {
		m.Version = "0.0.0"
	}
}

// Validate checks that the manifest is valid.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return ErrMissingName
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: %s", ErrInvalidName, m.Name)
	}

	if m.Version == "" {
		return ErrMissingVersion
	}
	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("%w: %s", ErrInvalidVersion, m.Version)
	}

	if m.Main != "" && filepath.Ext(m.Main) != ".lua" {
		return fmt.Errorf("%w: %s", ErrInvalidMain, m.Main)
	}

	seen := make(map[string]bool, len(m.Resources))
	for i, res := range m.Resources {
		if res.ID == "" {
			return fmt.Errorf("%w at index %d", ErrMissingResourceID, i)
		}
		if seen[res.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateResourceDecl, res.ID)
		}
		seen[res.ID] = true
		if res.Kind != "" && !validResourceKinds[res.Kind] {
			return fmt.Errorf("%w: %s has kind %q", ErrInvalidResourceKind, res.ID, res.Kind)
		}
	}

	for name, prop := range m.SettingsSchema {
		if prop.Type != "" && !validSettingsTypes[prop.Type] {
			return fmt.Errorf("%w: %s.%s has type %q", ErrInvalidSettingsType, m.Name, name, prop.Type)
		}
	}

	return nil
}

// Path returns the path to the plugin directory.
func (m *Manifest) Path() string {
	return m.path
}

// MainPath returns the full path to the main Lua file.
func (m *Manifest) MainPath() string {
	return filepath.Join(m.path, m.Main)
}

// DeclaredResources converts the manifest declarations to lifecycle
// resources, defaulting the kind to asset.
func (m *Manifest) DeclaredResources() []Resource {
	if len(m.Resources) == 0 {
		return nil
	}
	resources := make([]Resource, len(m.Resources))
	for i, decl := range m.Resources {
		kind := decl.Kind
		if kind == "" {
			kind = ResourceAsset
		}
		resources[i] = Resource{ID: decl.ID, Kind: kind, URI: decl.URI}
	}
	return resources
}

// SettingsDefault returns the default value for a settings property.
func (m *Manifest) SettingsDefault(key string) (any, bool) {
	if prop, ok := m.SettingsSchema[key]; ok && prop.Default != nil {
		return prop.Default, true
	}
	return nil, false
}

// SettingsDefaults returns all default settings values.
func (m *Manifest) SettingsDefaults() map[string]any {
	defaults := make(map[string]any)
	for key, prop := range m.SettingsSchema {
		if prop.Default != nil {
			defaults[key] = prop.Default
		}
	}
	return defaults
}

// String returns a short identification string.
func (m *Manifest) String() string {
	display := m.DisplayName
	if display == "" {
		display = m.Name
	}
	return fmt.Sprintf("%s v%s", display, m.Version)
}
