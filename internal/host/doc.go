// Package host assembles the workbench: one extension registry, one
// activation bus, one plugin lifecycle manager, one surface resolver and
// one settings store, explicitly constructed and wired. Nothing here is
// global; tests and embedders can run several isolated hosts in one
// process.
//
// External concerns the workbench consumes but does not implement
// (document persistence, auth, object storage, organization notification)
// enter as narrow collaborator interfaces.
package host
