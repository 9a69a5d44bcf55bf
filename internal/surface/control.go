package surface

import (
	"go.uber.org/zap"

	"github.com/openfab/forgebench/internal/bus"
	"github.com/openfab/forgebench/internal/extension"
)

// ControlKind distinguishes standalone controls from group disclosures.
type ControlKind int

const (
	// ControlStandalone is a single directly-activatable control.
	ControlStandalone ControlKind = iota

	// ControlGroup is a disclosure control holding two or more members
	// that share a group name.
	ControlGroup
)

// String returns a string representation of the kind.
func (k ControlKind) String() string {
	switch k {
	case ControlStandalone:
		return "standalone"
	case ControlGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Item is one activatable entry resolved from a definition.
type Item struct {
	// ID is the definition's registry id and the tool id published on
	// activation.
	ID string

	Label   string
	Tooltip string
	Icon    string

	// Active marks the item whose id matches the resolver's active tool.
	Active bool

	definition extension.Definition
	bus        *bus.Bus
	logger     *zap.Logger
}

// Definition returns the underlying definition.
func (it Item) Definition() extension.Definition {
	return it.definition
}

// Activate runs the definition's handler, if any, and always publishes a
// tool activation for the item's id. Listeners on the activation channel
// see every activation regardless of whether a direct handler exists.
func (it Item) Activate() {
	if it.definition.Handler != nil {
		it.definition.Handler()
	}
	if it.bus == nil {
		return
	}
	if err := it.bus.PublishActivation(bus.Activation{ToolID: it.ID}); err != nil {
		it.logger.Warn("activation publish failed",
			zap.String("tool", it.ID),
			zap.Error(err))
	}
}

// Control is one drawable toolbar entry: either a standalone item or a
// disclosure over a group of items.
type Control struct {
	Kind ControlKind

	// Group is the shared group name; set for ControlGroup only.
	Group string

	// Items holds exactly one entry for standalone controls and every
	// member, in registration order, for groups.
	Items []Item
}

// Panel is rendered content resolved for a panel-style surface.
type Panel struct {
	ID       string
	Content  extension.Content
	Metadata extension.Metadata
}
