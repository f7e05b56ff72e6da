package edit

import (
	"context"
	"fmt"
	"slices"

	"github.com/vk/keygrid/internal/layout"
	"github.com/vk/keygrid/internal/query"
)

var noneBinding = layout.Bind("&none")

func duplicateLayer(name string) error {
	return &layout.InvariantViolation{
		Rule:   layout.RuleDuplicateLayer,
		Detail: fmt.Sprintf("layer name %q is already in use", name),
	}
}

func missingLayer(name string) error {
	return &query.ResolutionError{Query: query.LayerPath(name).String(), Reason: "no such layer"}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func (tx *txn) addLayer(ctx context.Context, op Operation) error {
	if op.Name == "" {
		return &layout.InvariantViolation{Rule: layout.RuleLayerName, Detail: "new layer has an empty name"}
	}
	if _, idx := tx.work.Layer(op.Name); idx >= 0 {
		return duplicateLayer(op.Name)
	}

	keyCount := tx.keyCount()
	var bindings []layout.Binding
	switch {
	case op.Source != "":
		matches, err := tx.sources.resolve(ctx, op.Source, tx.work)
		if err != nil {
			return err
		}
		if bindings, err = bindingsOf(op.Source, matches); err != nil {
			return err
		}
		if len(tx.work.Layers) > 0 || tx.engine.profile != nil {
			if len(bindings) != keyCount {
				return &layout.InvariantViolation{
					Rule:   layout.RuleBindingCount,
					Detail: fmt.Sprintf("source %s has %d bindings, layer %q needs %d", op.Source, len(bindings), op.Name, keyCount),
				}
			}
		}
	case op.Bindings != nil:
		bindings = make([]layout.Binding, len(op.Bindings))
		for i, b := range op.Bindings {
			bindings[i] = b.Clone()
		}
	default:
		bindings = make([]layout.Binding, keyCount)
		for i := range bindings {
			bindings[i] = noneBinding.Clone()
		}
	}

	pos := len(tx.work.Layers)
	if op.Position != nil {
		pos = clamp(*op.Position, 0, len(tx.work.Layers))
	}
	tx.work.Layers = slices.Insert(tx.work.Layers, pos, layout.Layer{Name: op.Name, Bindings: bindings})
	return nil
}

// bindingsOf flattens source matches into a binding list: a single layer,
// a single binding list, or any number of individual bindings.
func bindingsOf(ref string, matches []query.Match) ([]layout.Binding, error) {
	if len(matches) == 1 {
		switch v := matches[0].Value.(type) {
		case layout.Layer:
			return v.Bindings, nil
		case []layout.Binding:
			return v, nil
		}
	}
	out := make([]layout.Binding, 0, len(matches))
	for _, m := range matches {
		b, ok := m.Value.(layout.Binding)
		if !ok {
			return nil, &query.ResolutionError{Query: ref, Reason: fmt.Sprintf("%s is a %s, not a layer or binding", m.Path, m.Type)}
		}
		out = append(out, b)
	}
	return out, nil
}

func (tx *txn) removeLayer(index int, op Operation) error {
	_, idx := tx.work.Layer(op.Name)
	if idx < 0 {
		return missingLayer(op.Name)
	}
	tx.work.Layers = slices.Delete(tx.work.Layers, idx, idx+1)
	if _, seen := tx.removed[op.Name]; !seen {
		tx.removed[op.Name] = index
	}
	return nil
}

func (tx *txn) moveLayer(op Operation) error {
	_, idx := tx.work.Layer(op.Name)
	if idx < 0 {
		return missingLayer(op.Name)
	}
	if op.Position == nil {
		return fmt.Errorf("move-layer %s: missing target position", op.Name)
	}
	layer := tx.work.Layers[idx]
	layers := slices.Delete(tx.work.Layers, idx, idx+1)
	pos := clamp(*op.Position, 0, len(layers))
	tx.work.Layers = slices.Insert(layers, pos, layer)
	return nil
}

func (tx *txn) copyLayer(op Operation) error {
	src, idx := tx.work.Layer(op.Name)
	if idx < 0 {
		return missingLayer(op.Name)
	}
	if op.As == "" {
		return &layout.InvariantViolation{Rule: layout.RuleLayerName, Detail: "layer copy has an empty name"}
	}
	if _, dup := tx.work.Layer(op.As); dup >= 0 {
		return duplicateLayer(op.As)
	}
	layer := src.Clone()
	layer.Name = op.As
	tx.work.Layers = append(tx.work.Layers, layer)
	return nil
}

func (tx *txn) addLayers(ctx context.Context, op Operation) error {
	matches, err := tx.sources.resolve(ctx, op.Source, tx.work)
	if err != nil {
		return err
	}

	var layers []layout.Layer
	for _, m := range matches {
		switch v := m.Value.(type) {
		case layout.Layer:
			layers = append(layers, v)
		case []layout.Layer:
			layers = append(layers, v...)
		default:
			return &query.ResolutionError{Query: op.Source, Reason: fmt.Sprintf("%s is a %s, not a layer", m.Path, m.Type)}
		}
	}

	for _, l := range layers {
		if _, idx := tx.work.Layer(l.Name); idx >= 0 {
			return duplicateLayer(l.Name)
		}
		tx.work.Layers = append(tx.work.Layers, l.Clone())
	}
	return nil
}
