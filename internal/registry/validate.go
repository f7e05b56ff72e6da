package registry

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vk/keygrid/internal/ctxlog"
	"github.com/vk/keygrid/internal/layout"
	"github.com/vk/keygrid/internal/profile"
	"github.com/vk/keygrid/internal/query"
)

// Validate builds a registry for doc and validates it.
func Validate(ctx context.Context, p *profile.Profile, doc *layout.Document) error {
	r := New(p)
	r.Populate(doc)
	return r.Validate(ctx, doc)
}

// Validate checks doc against the structural invariants, the profile's
// limits and the resolution table. The registry must have been populated
// from doc. It returns nil or a ValidationErrors.
func (r *Registry) Validate(ctx context.Context, doc *layout.Document) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Validating document.", "keyboard", r.profile.Keyboard, "layers", len(doc.Layers), "behaviors", len(doc.CustomBehaviors))

	v := &validator{reg: r, doc: doc}
	if err := doc.Check(r.profile.KeyCount); err != nil {
		v.errs = append(v.errs, err)
	}
	v.checkLimits()

	for i, layer := range doc.Layers {
		base := query.Path{query.NewPathSegmentWithIndex("layers", i), query.NewPathSegment("bindings")}
		for j, b := range layer.Bindings {
			v.checkBinding(b, base.At(j))
		}
	}
	for _, name := range doc.CustomBehaviors.Names() {
		v.checkBehavior(doc.CustomBehaviors[name])
	}

	if len(v.errs) > 0 {
		logger.Debug("Validation failed.", "problems", len(v.errs))
		return v.errs
	}
	logger.Debug("Validation passed.")
	return nil
}

type validator struct {
	reg  *Registry
	doc  *layout.Document
	errs ValidationErrors
}

func (v *validator) checkLimits() {
	limits := v.reg.profile.Limits
	var breaches []Breach
	check := func(name string, max, observed int) {
		if max > 0 && observed > max {
			breaches = append(breaches, Breach{Limit: name, Max: max, Observed: observed})
		}
	}
	check("max_layers", limits.MaxLayers, len(v.doc.Layers))
	check("max_behaviors", limits.MaxBehaviors, len(v.doc.CustomBehaviors))
	check("max_combos", limits.MaxCombos, v.doc.CustomBehaviors.Count(layout.KindCombo))
	check("max_macros", limits.MaxMacros, v.doc.CustomBehaviors.Count(layout.KindMacro))
	if len(breaches) > 0 {
		v.errs = append(v.errs, &LimitExceededError{Breaches: breaches})
	}
}

func (v *validator) checkBehavior(b *layout.CustomBehavior) {
	base := query.BehaviorPath(b.Name)
	switch {
	case b.Macro != nil:
		p := base.Field("bindings")
		for i, mb := range b.Macro.Bindings {
			v.checkBinding(mb, p.At(i))
		}
	case b.HoldTap != nil:
		v.checkReference(b.HoldTap.Hold, base.Field("hold"))
		v.checkReference(b.HoldTap.Tap, base.Field("tap"))
	case b.Combo != nil:
		keyCount := v.reg.profile.KeyCount
		p := base.Field("key_positions")
		for i, pos := range b.Combo.KeyPositions {
			if pos < 0 || pos >= keyCount {
				v.errs = append(v.errs, &layout.InvariantViolation{
					Rule:   layout.RuleComboPosition,
					Detail: fmt.Sprintf("%s: key position %d outside [0, %d)", p.At(i), pos, keyCount),
				})
			}
		}
		p = base.Field("layers")
		for i, name := range b.Combo.Layers {
			if _, idx := v.doc.Layer(name); idx < 0 {
				v.errs = append(v.errs, &UnknownLayerError{Where: p.At(i).String(), Layer: name})
			}
		}
		v.checkBinding(b.Combo.Binding, base.Field("binding"))
	}
}

// checkReference validates a bare behavior id such as a hold-tap's "&kp".
func (v *validator) checkReference(id string, where query.Path) {
	def, ok := v.reg.Resolve(id)
	switch {
	case !ok:
		v.errs = append(v.errs, &UnknownBehaviorError{Behavior: id, Where: where.String()})
	case !def.Bindable():
		v.errs = append(v.errs, &UnknownBehaviorError{Behavior: id, Where: where.String(), Reason: "combos cannot be bound"})
	}
}

func (v *validator) checkBinding(b layout.Binding, where query.Path) {
	def, ok := v.reg.Resolve(b.Behavior)
	if !ok {
		v.errs = append(v.errs, &UnknownBehaviorError{Behavior: b.Behavior, Where: where.String()})
		return
	}
	if !def.Bindable() {
		v.errs = append(v.errs, &UnknownBehaviorError{Behavior: b.Behavior, Where: where.String(), Reason: "combos cannot be bound"})
		return
	}
	if len(b.Params) != len(def.Params) {
		v.errs = append(v.errs, &ArityError{Behavior: b.Behavior, Where: where.String(), Want: len(def.Params), Got: len(b.Params)})
		return
	}

	params := where.Field("params")
	for i, p := range b.Params {
		v.checkParam(b.Behavior, def.Params[i], p, params.At(i))
	}
}

func (v *validator) checkParam(behavior string, slot layout.ParamSlot, p layout.Param, where query.Path) {
	mismatch := func() {
		v.errs = append(v.errs, &ParamTypeError{
			Behavior: behavior,
			Where:    where.String(),
			Param:    slot.Name,
			Want:     slot.Type,
			Got:      p.Kind.String() + " " + p.String(),
		})
	}

	switch slot.Type {
	case layout.TypeInt:
		if p.Kind != layout.ParamInt {
			mismatch()
		}
	case layout.TypeKeycode:
		if p.Kind == layout.ParamBehavior {
			mismatch()
		}
	case layout.TypeLayer:
		switch p.Kind {
		case layout.ParamInt:
			if p.Int < 0 || p.Int >= len(v.doc.Layers) {
				v.errs = append(v.errs, &UnknownLayerError{Where: where.String(), Layer: strconv.Itoa(p.Int)})
			}
		case layout.ParamSymbol:
			if _, idx := v.doc.Layer(p.Symbol); idx < 0 {
				v.errs = append(v.errs, &UnknownLayerError{Where: where.String(), Layer: p.Symbol})
			}
		default:
			mismatch()
		}
	case layout.TypeBehavior:
		if p.Kind != layout.ParamBehavior {
			mismatch()
			return
		}
		v.checkBinding(*p.Ref, where)
	case layout.TypeAny:
		if p.Kind == layout.ParamBehavior {
			v.checkBinding(*p.Ref, where)
		}
	}
}
