package extension

// Surface identifies one of the fixed UI locations extensions can target.
type Surface string

// Surface values form a closed set. Anything else is unknown to the
// resolver and yields no matches.
const (
	SurfaceToolbar     Surface = "toolbar"
	SurfaceSidebar     Surface = "sidebar"
	SurfaceModal       Surface = "modal"
	SurfaceContextMenu Surface = "contextMenu"
)

// Valid returns true if s is one of the known surfaces.
func (s Surface) Valid() bool {
	switch s {
	case SurfaceToolbar, SurfaceSidebar, SurfaceModal, SurfaceContextMenu:
		return true
	default:
		return false
	}
}

// Position places a toolbar contribution in a toolbar section.
// The zero value means "no preference" and matches every position filter.
type Position string

const (
	PositionLeft   Position = "left"
	PositionCenter Position = "center"
	PositionRight  Position = "right"
)

// DefaultGroup is the group used when a definition declares none.
const DefaultGroup = "default"

// Content is the unit a Renderable produces. The active presentation
// backend decides how to display it.
type Content struct {
	Title string
	Lines []string
}

// Renderable produces visible content from a definition's metadata.
// The registry treats it as opaque.
type Renderable interface {
	Render(meta Metadata) (Content, error)
}

// RenderFunc adapts a function to the Renderable interface.
type RenderFunc func(meta Metadata) (Content, error)

// Render implements Renderable.
func (f RenderFunc) Render(meta Metadata) (Content, error) {
	return f(meta)
}

// Handler is an optional zero-argument callback invoked on direct
// activation of a contribution.
type Handler func()

// Metadata is the recognized configuration for a contribution.
type Metadata struct {
	Tooltip string
	Label   string
	Name    string

	// Icon is an icon identifier. IconRender, when set, takes precedence
	// and produces the icon content instead.
	Icon       string
	IconRender Renderable

	// Position is optional; unset matches any position filter.
	Position Position

	// Group clusters multiple toolbar contributions into one disclosure
	// control. Empty means DefaultGroup.
	Group string
}

// Definition is one contribution to a UI surface.
type Definition struct {
	// ID is globally unique across the registry.
	ID string

	Surface    Surface
	Renderable Renderable
	Metadata   Metadata

	// Handler is optional.
	Handler Handler
}

// GroupName returns the definition's group, defaulting when unset.
func (d Definition) GroupName() string {
	if d.Metadata.Group == "" {
		return DefaultGroup
	}
	return d.Metadata.Group
}

// DisplayLabel returns the label to show for the definition:
// Label, falling back to Name, falling back to the empty string.
func (d Definition) DisplayLabel() string {
	if d.Metadata.Label != "" {
		return d.Metadata.Label
	}
	return d.Metadata.Name
}

// MatchesPosition reports whether the definition is visible under the
// given position filter. An unset position matches every filter.
func (d Definition) MatchesPosition(pos Position) bool {
	return d.Metadata.Position == "" || d.Metadata.Position == pos
}
