package surface

import (
	"go.uber.org/zap"

	"github.com/openfab/forgebench/internal/bus"
	"github.com/openfab/forgebench/internal/extension"
)

// Filter is a predicate over definitions. Nil means "keep everything".
type Filter func(def extension.Definition) bool

// Options narrow and annotate a resolution pass.
type Options struct {
	filter      Filter
	position    extension.Position
	hasPosition bool
	activeTool  string
}

// Option configures one resolution call.
type Option func(*Options)

// WithFilter keeps only definitions the predicate accepts.
func WithFilter(f Filter) Option {
	return func(o *Options) {
		o.filter = f
	}
}

// WithPosition keeps only definitions matching the toolbar position.
// Definitions with no declared position match every filter.
func WithPosition(pos extension.Position) Option {
	return func(o *Options) {
		o.position = pos
		o.hasPosition = true
	}
}

// WithActiveTool marks the item with the given id as active. Read-only
// presentation state; it never changes what resolves.
func WithActiveTool(toolID string) Option {
	return func(o *Options) {
		o.activeTool = toolID
	}
}

func (o *Options) keep(def extension.Definition) bool {
	if o.hasPosition && !def.MatchesPosition(o.position) {
		return false
	}
	if o.filter != nil && !o.filter(def) {
		return false
	}
	return true
}

// Resolver turns registry state into drawable controls and panels.
type Resolver struct {
	registry *extension.Registry
	bus      *bus.Bus
	logger   *zap.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the resolver's logger.
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver over the given registry. The bus may be
// nil; activations then run handlers only.
func NewResolver(registry *extension.Registry, b *bus.Bus, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		registry: registry,
		bus:      b,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Controls resolves a surface into toolbar-style controls. Definitions
// sharing a group collapse into one disclosure control holding every
// member; single-member groups stay standalone. Control order follows
// first appearance in registration order, and members keep registration
// order within their group.
func (r *Resolver) Controls(s extension.Surface, opts ...Option) []Control {
	options := applyOptions(opts)

	defs := r.matching(s, options)
	if len(defs) == 0 {
		return nil
	}

	groups := make(map[string][]Item, len(defs))
	groupOrder := make([]string, 0, len(defs))
	for _, def := range defs {
		name := def.GroupName()
		if _, seen := groups[name]; !seen {
			groupOrder = append(groupOrder, name)
		}
		groups[name] = append(groups[name], r.item(def, options))
	}

	controls := make([]Control, 0, len(groupOrder))
	for _, name := range groupOrder {
		items := groups[name]
		if len(items) == 1 {
			controls = append(controls, Control{
				Kind:  ControlStandalone,
				Items: items,
			})
			continue
		}
		controls = append(controls, Control{
			Kind:  ControlGroup,
			Group: name,
			Items: items,
		})
	}
	return controls
}

// Panels resolves a surface into rendered content, in registration order.
// Definitions without a renderable are skipped; a failing render drops
// that entry and is logged, never failing the whole pass.
func (r *Resolver) Panels(s extension.Surface, opts ...Option) []Panel {
	options := applyOptions(opts)

	var panels []Panel
	for _, def := range r.matching(s, options) {
		if def.Renderable == nil {
			continue
		}
		content, err := def.Renderable.Render(def.Metadata)
		if err != nil {
			r.logger.Warn("panel render failed",
				zap.String("extension", def.ID),
				zap.Error(err))
			continue
		}
		panels = append(panels, Panel{
			ID:       def.ID,
			Content:  content,
			Metadata: def.Metadata,
		})
	}
	return panels
}

// matching returns the surface's definitions that pass the options, in
// registration order.
func (r *Resolver) matching(s extension.Surface, options *Options) []extension.Definition {
	all := r.registry.QueryBySurface(s)
	kept := make([]extension.Definition, 0, len(all))
	for _, def := range all {
		if options.keep(def) {
			kept = append(kept, def)
		}
	}
	return kept
}

// item builds the activatable item for a definition.
func (r *Resolver) item(def extension.Definition, options *Options) Item {
	return Item{
		ID:         def.ID,
		Label:      def.DisplayLabel(),
		Tooltip:    def.Metadata.Tooltip,
		Icon:       def.Metadata.Icon,
		Active:     options.activeTool != "" && options.activeTool == def.ID,
		definition: def,
		bus:        r.bus,
		logger:     r.logger,
	}
}

func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
