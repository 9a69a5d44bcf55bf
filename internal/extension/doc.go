// Package extension defines the data model for plugin UI contributions and
// the registry that indexes them.
//
// An extension is a single contribution to one of the host's fixed UI
// surfaces (toolbar, sidebar, modal, context menu). The registry is an
// explicitly constructed instance owned by the host; it only indexes
// definitions, ownership stays with the contributing plugin. Only the plugin
// lifecycle manager mutates the registry; renderers read from it.
package extension
