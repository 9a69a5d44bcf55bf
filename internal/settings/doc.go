// Package settings persists host and plugin settings as a single JSON
// document. Plugin settings live under the "plugins.<id>" subtree; the
// host overlays stored values onto the defaults a plugin's manifest
// declares, so a plugin always sees a complete settings map.
package settings
