package layout

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/goccy/go-json"
)

// ParamType is the declared type of a behavior parameter slot.
type ParamType string

const (
	TypeInt      ParamType = "int"
	TypeKeycode  ParamType = "keycode"
	TypeLayer    ParamType = "layer"
	TypeBehavior ParamType = "behavior"
	TypeAny      ParamType = "any"
)

// Valid reports whether t is one of the known parameter types.
func (t ParamType) Valid() bool {
	switch t {
	case TypeInt, TypeKeycode, TypeLayer, TypeBehavior, TypeAny:
		return true
	}
	return false
}

// ParamSlot is one entry in a behavior's parameter schema.
type ParamSlot struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
}

// BehaviorKind selects the variant of a CustomBehavior.
type BehaviorKind string

const (
	KindMacro   BehaviorKind = "macro"
	KindHoldTap BehaviorKind = "hold_tap"
	KindCombo   BehaviorKind = "combo"
)

// Macro emits an ordered sequence of bindings.
type Macro struct {
	Bindings []Binding
	WaitMs   int
	TapMs    int
}

// HoldTap selects between a hold and a tap behavior based on timing.
type HoldTap struct {
	Hold          string
	Tap           string
	TappingTermMs int
	QuickTapMs    int
	Flavor        string
}

// Combo triggers a bound behavior when several key positions are pressed
// together.
type Combo struct {
	KeyPositions []int
	TimeoutMs    int
	Binding      Binding
	Layers       []string
}

// CustomBehavior is a document-local behavior. Exactly one of Macro, HoldTap
// or Combo is set, matching Kind.
type CustomBehavior struct {
	Name        string
	Kind        BehaviorKind
	Description string
	Params      []ParamSlot

	Macro   *Macro
	HoldTap *HoldTap
	Combo   *Combo
}

// Schema returns the declared parameter schema, or the kind's default when
// none was declared.
func (b *CustomBehavior) Schema() []ParamSlot {
	if len(b.Params) > 0 {
		return b.Params
	}
	if b.Kind == KindHoldTap {
		return []ParamSlot{{Name: "hold", Type: TypeAny}, {Name: "tap", Type: TypeAny}}
	}
	return nil
}

// References returns the behavior ids the custom behavior depends on.
func (b *CustomBehavior) References() []string {
	var refs []string
	switch {
	case b.Macro != nil:
		for _, mb := range b.Macro.Bindings {
			refs = append(refs, mb.References()...)
		}
	case b.HoldTap != nil:
		refs = append(refs, b.HoldTap.Hold, b.HoldTap.Tap)
	case b.Combo != nil:
		refs = append(refs, b.Combo.Binding.References()...)
	}
	return refs
}

// ReferencesLayer reports whether a combo is tied to the named layer, either
// through its active-layer list or through a symbol in its bound behavior.
func (b *CustomBehavior) ReferencesLayer(name string) bool {
	if b.Combo == nil {
		return false
	}
	if slices.Contains(b.Combo.Layers, name) {
		return true
	}
	return bindingHasSymbol(b.Combo.Binding, name)
}

func bindingHasSymbol(b Binding, sym string) bool {
	for _, p := range b.Params {
		switch p.Kind {
		case ParamSymbol:
			if p.Symbol == sym {
				return true
			}
		case ParamBehavior:
			if p.Ref != nil && bindingHasSymbol(*p.Ref, sym) {
				return true
			}
		}
	}
	return false
}

// Clone returns a deep copy of the behavior.
func (b *CustomBehavior) Clone() *CustomBehavior {
	if b == nil {
		return nil
	}
	out := &CustomBehavior{
		Name:        b.Name,
		Kind:        b.Kind,
		Description: b.Description,
		Params:      slices.Clone(b.Params),
	}
	if b.Macro != nil {
		m := *b.Macro
		m.Bindings = cloneBindings(b.Macro.Bindings)
		out.Macro = &m
	}
	if b.HoldTap != nil {
		ht := *b.HoldTap
		out.HoldTap = &ht
	}
	if b.Combo != nil {
		c := *b.Combo
		c.KeyPositions = slices.Clone(b.Combo.KeyPositions)
		c.Layers = slices.Clone(b.Combo.Layers)
		c.Binding = b.Combo.Binding.Clone()
		out.Combo = &c
	}
	return out
}

type behaviorWire struct {
	Type        BehaviorKind `json:"type"`
	Description string       `json:"description,omitempty"`
	Params      []ParamSlot  `json:"params,omitempty"`

	Bindings []Binding `json:"bindings,omitempty"`
	WaitMs   int       `json:"wait_ms,omitempty"`
	TapMs    int       `json:"tap_ms,omitempty"`

	Hold          string `json:"hold,omitempty"`
	Tap           string `json:"tap,omitempty"`
	TappingTermMs int    `json:"tapping_term_ms,omitempty"`
	QuickTapMs    int    `json:"quick_tap_ms,omitempty"`
	Flavor        string `json:"flavor,omitempty"`

	KeyPositions []int    `json:"key_positions,omitempty"`
	TimeoutMs    int      `json:"timeout_ms,omitempty"`
	Binding      *Binding `json:"binding,omitempty"`
	Layers       []string `json:"layers,omitempty"`
}

// MarshalJSON flattens the variant fields into a single object tagged by
// "type".
func (b CustomBehavior) MarshalJSON() ([]byte, error) {
	w := behaviorWire{Type: b.Kind, Description: b.Description, Params: b.Params}
	switch b.Kind {
	case KindMacro:
		if b.Macro != nil {
			w.Bindings, w.WaitMs, w.TapMs = b.Macro.Bindings, b.Macro.WaitMs, b.Macro.TapMs
		}
	case KindHoldTap:
		if b.HoldTap != nil {
			w.Hold, w.Tap, w.Flavor = b.HoldTap.Hold, b.HoldTap.Tap, b.HoldTap.Flavor
			w.TappingTermMs, w.QuickTapMs = b.HoldTap.TappingTermMs, b.HoldTap.QuickTapMs
		}
	case KindCombo:
		if b.Combo != nil {
			binding := b.Combo.Binding
			w.KeyPositions, w.TimeoutMs, w.Layers = b.Combo.KeyPositions, b.Combo.TimeoutMs, b.Combo.Layers
			w.Binding = &binding
		}
	default:
		return nil, fmt.Errorf("behavior %q: unknown type %q", b.Name, b.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the flattened form produced by MarshalJSON. The
// behavior name is assigned by the enclosing Behaviors mapping.
func (b *CustomBehavior) UnmarshalJSON(data []byte) error {
	var w behaviorWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := CustomBehavior{Kind: w.Type, Description: w.Description, Params: w.Params}
	switch w.Type {
	case KindMacro:
		out.Macro = &Macro{Bindings: w.Bindings, WaitMs: w.WaitMs, TapMs: w.TapMs}
	case KindHoldTap:
		if w.Hold == "" || w.Tap == "" {
			return errors.New("hold_tap behavior requires both hold and tap")
		}
		out.HoldTap = &HoldTap{
			Hold:          w.Hold,
			Tap:           w.Tap,
			TappingTermMs: w.TappingTermMs,
			QuickTapMs:    w.QuickTapMs,
			Flavor:        w.Flavor,
		}
	case KindCombo:
		if w.Binding == nil {
			return errors.New("combo behavior requires a binding")
		}
		out.Combo = &Combo{KeyPositions: w.KeyPositions, TimeoutMs: w.TimeoutMs, Binding: *w.Binding, Layers: w.Layers}
	case "":
		return errors.New("behavior is missing its type")
	default:
		return fmt.Errorf("unknown behavior type %q", w.Type)
	}
	for _, slot := range out.Params {
		if !slot.Type.Valid() {
			return fmt.Errorf("parameter %q has unknown type %q", slot.Name, slot.Type)
		}
	}
	*b = out
	return nil
}

// Behaviors maps custom behavior names to their definitions.
type Behaviors map[string]*CustomBehavior

// Names returns the behavior names in ascending order, the canonical
// iteration order for queries, generation and diffs.
func (bs Behaviors) Names() []string {
	names := make([]string, 0, len(bs))
	for name := range bs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns how many behaviors are of the given kind.
func (bs Behaviors) Count(kind BehaviorKind) int {
	n := 0
	for _, b := range bs {
		if b.Kind == kind {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the mapping.
func (bs Behaviors) Clone() Behaviors {
	if bs == nil {
		return nil
	}
	out := make(Behaviors, len(bs))
	for name, b := range bs {
		out[name] = b.Clone()
	}
	return out
}

// UnmarshalJSON decodes the mapping and stamps each behavior with its key.
func (bs *Behaviors) UnmarshalJSON(data []byte) error {
	var raw map[string]*CustomBehavior
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*bs = nil
		return nil
	}
	for name, b := range raw {
		if b == nil {
			return fmt.Errorf("custom behavior %q is null", name)
		}
		b.Name = name
	}
	*bs = raw
	return nil
}
