// Package surface resolves registered extensions into the concrete
// controls and panels a presentation backend draws.
//
// The resolver is a read-side component: it never mutates the registry.
// Controls answers the toolbar-style question (grouped, activatable
// controls); Panels answers the panel-style question (rendered content
// for sidebars, modals and context menus). Both resolve against a live
// registry snapshot, so plugin enable/disable is reflected on the next
// call.
package surface
