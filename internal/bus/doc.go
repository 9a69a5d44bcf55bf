// Package bus implements the tool activation bus: a typed, many-to-many
// broadcast channel connecting plugin-contributed controls and host tool
// state.
//
// Two channels are defined: "tool-activate", published whenever an
// activation control is engaged, and "tool-result", published by a tool's
// execution logic once it completes. The channel names and payload field
// names are the stable compatibility surface.
//
// Delivery is fire-and-forget. Each subscription owns a bounded queue and a
// delivery goroutine, so a slow or panicking subscriber never blocks the
// publisher or other subscribers. Messages from a single publisher are
// delivered to each subscriber in publish order; ordering between different
// publishers is not guaranteed.
//
// A Bus is an explicitly constructed object, not ambient global state, so
// multiple isolated hosts can coexist (e.g., in tests).
package bus
