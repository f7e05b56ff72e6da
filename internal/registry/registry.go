package registry

import (
	"github.com/vk/keygrid/internal/layout"
	"github.com/vk/keygrid/internal/profile"
)

// Kind identifies where a definition comes from and how it is rendered.
type Kind string

const (
	KindSystem  Kind = "system"
	KindMacro   Kind = Kind(layout.KindMacro)
	KindHoldTap Kind = Kind(layout.KindHoldTap)
	KindCombo   Kind = Kind(layout.KindCombo)
)

// Definition is one entry of the resolution table.
type Definition struct {
	ID          string
	Kind        Kind
	Code        string
	Description string
	Params      []layout.ParamSlot

	// Custom is set for document-local definitions.
	Custom *layout.CustomBehavior
}

// Syntax is the display form used in generated keymaps.
func (d *Definition) Syntax() string {
	if d.Code != "" {
		return d.Code
	}
	return "&" + d.ID
}

// Bindable reports whether a key binding may reference the definition.
// Combos are triggered by key positions and cannot be bound.
func (d *Definition) Bindable() bool {
	return d.Kind != KindCombo
}

// Registry is the resolution table for a single validation or generation
// pass.
type Registry struct {
	profile *profile.Profile
	system  map[string]*Definition
	defs    map[string]*Definition
}

// New creates a registry holding the profile's system behaviors.
func New(p *profile.Profile) *Registry {
	r := &Registry{
		profile: p,
		system:  make(map[string]*Definition, len(p.Behaviors)),
	}
	for _, b := range p.Behaviors {
		r.system[b.ID] = &Definition{
			ID:          b.ID,
			Kind:        KindSystem,
			Code:        b.Code,
			Description: b.Description,
			Params:      b.Params,
		}
	}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.defs = make(map[string]*Definition, len(r.system))
	for id, def := range r.system {
		r.defs[id] = def
	}
}

// Populate replaces any previously inserted custom behaviors with those of
// doc. Custom behaviors shadow system behaviors with the same id.
func (r *Registry) Populate(doc *layout.Document) {
	r.reset()
	for _, name := range doc.CustomBehaviors.Names() {
		b := doc.CustomBehaviors[name]
		r.defs[name] = &Definition{
			ID:          name,
			Kind:        Kind(b.Kind),
			Description: b.Description,
			Params:      b.Schema(),
			Custom:      b,
		}
	}
}

// Resolve looks up a behavior by id, with or without the leading '&'.
func (r *Registry) Resolve(id string) (*Definition, bool) {
	def, ok := r.defs[layout.BehaviorName(id)]
	return def, ok
}

// Profile returns the profile the registry was built from.
func (r *Registry) Profile() *profile.Profile {
	return r.profile
}
