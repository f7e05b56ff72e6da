package diff

import (
	"bytes"
	"slices"

	"github.com/goccy/go-json"

	"github.com/vk/keygrid/internal/layout"
	"github.com/vk/keygrid/internal/query"
)

// Diff returns the ordered changes that turn a into b. Behaviors are added
// and changed before any binding uses them, bindings are rewritten before
// the layers they used to reference are removed, and behaviors are removed
// last.
func Diff(a, b *layout.Document) []Change {
	behaviorRemoves, behaviorAdds, behaviorChanges := diffBehaviors(a, b)
	layerRemoves, layerAdds, layerMoves, bindings := diffLayers(a, b)
	return slices.Concat(
		diffMetadata(a, b),
		behaviorAdds,
		behaviorChanges,
		bindings,
		layerRemoves,
		layerAdds,
		layerMoves,
		behaviorRemoves,
	)
}

func diffMetadata(a, b *layout.Document) []Change {
	var out []Change
	str := func(field, av, bv string) {
		if av != bv {
			out = append(out, Change{Kind: KindMetadata, Path: "$." + field, OldValue: av, NewValue: bv})
		}
	}
	list := func(field string, av, bv []string) {
		if !slices.Equal(av, bv) {
			out = append(out, Change{Kind: KindMetadata, Path: "$." + field, OldValue: plain(av), NewValue: plain(bv)})
		}
	}
	str("title", a.Title, b.Title)
	str("author", a.Author, b.Author)
	str("description", a.Description, b.Description)
	str("keyboard", a.Keyboard, b.Keyboard)
	str("firmware_version", a.FirmwareVersion, b.FirmwareVersion)
	list("kconfig", a.Kconfig, b.Kconfig)
	list("includes", a.Includes, b.Includes)
	return out
}

// pairedLayer reports whether a layer can be diffed binding by binding: it
// exists in both documents with the same binding count.
func pairedLayer(a, b *layout.Document, name string) bool {
	la, ia := a.Layer(name)
	lb, ib := b.Layer(name)
	return ia >= 0 && ib >= 0 && len(la.Bindings) == len(lb.Bindings)
}

func diffLayers(a, b *layout.Document) (removes, adds, moves, bindings []Change) {

	// order simulates the layer order of a while the changes are replayed.
	var order []string
	for _, l := range a.Layers {
		if pairedLayer(a, b, l.Name) {
			order = append(order, l.Name)
			continue
		}
		removes = append(removes, Change{Kind: KindLayerRemove, Path: query.LayerPath(l.Name).String(), OldValue: plain(l)})
	}

	for i, l := range b.Layers {
		if pairedLayer(a, b, l.Name) {
			continue
		}
		index := i
		adds = append(adds, Change{Kind: KindLayerAdd, Path: query.LayerPath(l.Name).String(), NewValue: plain(l), Index: &index})
		order = slices.Insert(order, min(i, len(order)), l.Name)
	}

	for i, l := range b.Layers {
		from := slices.Index(order, l.Name)
		if from == i {
			continue
		}
		moves = append(moves, Change{Kind: KindLayerMove, Path: query.LayerPath(l.Name).String(), OldValue: float64(from), NewValue: float64(i)})
		order = slices.Delete(order, from, from+1)
		order = slices.Insert(order, i, l.Name)
	}

	for _, lb := range b.Layers {
		if !pairedLayer(a, b, lb.Name) {
			continue
		}
		la, _ := a.Layer(lb.Name)
		base := query.LayerPath(lb.Name).Field("bindings")
		for j := range lb.Bindings {
			if la.Bindings[j].Equal(lb.Bindings[j]) {
				continue
			}
			bindings = append(bindings, Change{
				Kind:     KindBindingChange,
				Path:     base.At(j).String(),
				OldValue: plain(la.Bindings[j]),
				NewValue: plain(lb.Bindings[j]),
			})
		}
	}

	return removes, adds, moves, bindings
}

func diffBehaviors(a, b *layout.Document) (removes, adds, changes []Change) {
	for _, name := range a.CustomBehaviors.Names() {
		if _, ok := b.CustomBehaviors[name]; !ok {
			removes = append(removes, Change{Kind: KindBehaviorRemove, Path: query.BehaviorPath(name).String(), OldValue: plain(a.CustomBehaviors[name])})
		}
	}
	for _, name := range b.CustomBehaviors.Names() {
		nb := b.CustomBehaviors[name]
		ob, ok := a.CustomBehaviors[name]
		if !ok {
			adds = append(adds, Change{Kind: KindBehaviorAdd, Path: query.BehaviorPath(name).String(), NewValue: plain(nb)})
			continue
		}
		if !sameJSON(ob, nb) {
			changes = append(changes, Change{Kind: KindBehaviorChange, Path: query.BehaviorPath(name).String(), OldValue: plain(ob), NewValue: plain(nb)})
		}
	}
	return removes, adds, changes
}

func sameJSON(a, b any) bool {
	da, errA := json.Marshal(a)
	db, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(da, db)
}
