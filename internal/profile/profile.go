package profile

import (
	"fmt"
	"sort"

	"github.com/vk/keygrid/internal/layout"
)

// Option is a single Kconfig key/value pair. Keys are kept as written, with
// or without the CONFIG_ prefix.
type Option struct {
	Key   string
	Value string
}

// SystemBehavior is a behavior provided by the firmware itself.
type SystemBehavior struct {
	ID          string
	Code        string
	Description string
	Params      []layout.ParamSlot
}

// Syntax is the display form used in generated keymaps, e.g. "&kp".
func (b SystemBehavior) Syntax() string {
	if b.Code != "" {
		return b.Code
	}
	return "&" + b.ID
}

// Templates holds the template text used by the generator. An empty field
// selects the built-in default.
type Templates struct {
	Keymap  string
	Kconfig string
}

// Limits caps document sizes. Zero means unlimited.
type Limits struct {
	MaxLayers    int
	MaxBehaviors int
	MaxCombos    int
	MaxMacros    int
}

// Variant is a firmware variant with its own Kconfig options.
type Variant struct {
	ID      string
	Kconfig []Option
}

// Profile is a fully loaded keyboard profile.
type Profile struct {
	Keyboard        string
	KeyCount        int
	RowSize         int
	Includes        []string
	Behaviors       []SystemBehavior
	Templates       Templates
	KconfigDefaults []Option
	Variants        map[string]*Variant
	Limits          Limits

	// Source is the file the profile was loaded from, if any.
	Source string
}

// Behavior looks up a system behavior by id.
func (p *Profile) Behavior(id string) (SystemBehavior, bool) {
	for _, b := range p.Behaviors {
		if b.ID == id {
			return b, true
		}
	}
	return SystemBehavior{}, false
}

// Variant returns the named firmware variant.
func (p *Profile) Variant(id string) (*Variant, error) {
	if v, ok := p.Variants[id]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("keyboard %q has no firmware variant %q (available: %v)", p.Keyboard, id, p.VariantIDs())
}

// VariantIDs returns the firmware variant ids in sorted order.
func (p *Profile) VariantIDs() []string {
	ids := make([]string, 0, len(p.Variants))
	for id := range p.Variants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
