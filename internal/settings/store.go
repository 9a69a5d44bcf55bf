package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Store is a JSON-backed settings document. Paths use gjson syntax
// ("plugins.sketch-tools.gridSize"); writes persist immediately. An
// empty path keeps the document in memory only.
type Store struct {
	mu   sync.Mutex
	path string
	raw  []byte
}

// Open loads the settings document at path, creating an empty document
// if the file does not exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path, raw: []byte("{}")}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	if len(data) > 0 {
		if !gjson.ValidBytes(data) {
			return nil, fmt.Errorf("settings: %s is not valid JSON", path)
		}
		s.raw = data
	}
	return s, nil
}

// Get returns the value at a gjson path, or nil when unset.
func (s *Store) Get(path string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gjson.GetBytes(s.raw, path).Value()
}

// GetString returns the string at path, or fallback when unset.
func (s *Store) GetString(path, fallback string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := gjson.GetBytes(s.raw, path)
	if !res.Exists() {
		return fallback
	}
	return res.String()
}

// GetFloat returns the number at path, or fallback when unset.
func (s *Store) GetFloat(path string, fallback float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := gjson.GetBytes(s.raw, path)
	if !res.Exists() {
		return fallback
	}
	return res.Float()
}

// GetBool returns the boolean at path, or fallback when unset.
func (s *Store) GetBool(path string, fallback bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := gjson.GetBytes(s.raw, path)
	if !res.Exists() {
		return fallback
	}
	return res.Bool()
}

// Set writes a value at a gjson path and persists the document.
func (s *Store) Set(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := sjson.SetBytes(s.raw, path, value)
	if err != nil {
		return fmt.Errorf("settings: set %s: %w", path, err)
	}
	s.raw = raw
	return s.saveLocked()
}

// Delete removes a value at a gjson path and persists the document.
func (s *Store) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := sjson.DeleteBytes(s.raw, path)
	if err != nil {
		return fmt.Errorf("settings: delete %s: %w", path, err)
	}
	s.raw = raw
	return s.saveLocked()
}

// PluginSettings returns the stored settings map for a plugin. Missing
// subtrees return an empty map, never nil.
func (s *Store) PluginSettings(pluginID string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pluginSettingsLocked(pluginID)
}

func (s *Store) pluginSettingsLocked(pluginID string) map[string]any {
	res := gjson.GetBytes(s.raw, pluginPath(pluginID))
	if m, ok := res.Value().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// SetPluginSetting stores one plugin setting and returns the plugin's
// complete stored settings map after the write.
func (s *Store) SetPluginSetting(pluginID, key string, value any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := sjson.SetBytes(s.raw, pluginPath(pluginID)+"."+key, value)
	if err != nil {
		return nil, fmt.Errorf("settings: plugin %s: set %s: %w", pluginID, key, err)
	}
	s.raw = raw
	if err := s.saveLocked(); err != nil {
		return nil, err
	}
	return s.pluginSettingsLocked(pluginID), nil
}

// EffectiveSettings overlays a plugin's stored settings onto its declared
// defaults.
func (s *Store) EffectiveSettings(pluginID string, defaults map[string]any) map[string]any {
	effective := make(map[string]any, len(defaults))
	for k, v := range defaults {
		effective[k] = v
	}
	for k, v := range s.PluginSettings(pluginID) {
		effective[k] = v
	}
	return effective
}

// Raw returns the current JSON document.
func (s *Store) Raw() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.raw...)
}

// saveLocked persists the document. The caller must hold the mutex.
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if err := os.WriteFile(s.path, s.raw, 0o644); err != nil {
		return fmt.Errorf("settings: write %s: %w", s.path, err)
	}
	return nil
}

func pluginPath(pluginID string) string {
	return "plugins." + pluginID
}
