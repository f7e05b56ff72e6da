package layout

// Check verifies the structural invariants that do not depend on a keyboard
// profile. When keyCount is positive every layer must hold exactly that many
// bindings; otherwise all layers must agree with the first one.
func (d *Document) Check(keyCount int) error {
	want := keyCount
	if want <= 0 && len(d.Layers) > 0 {
		want = len(d.Layers[0].Bindings)
	}

	seen := make(map[string]struct{}, len(d.Layers))
	for i, l := range d.Layers {
		if l.Name == "" {
			return violation(RuleLayerName, "layer at index %d has an empty name", i)
		}
		if _, dup := seen[l.Name]; dup {
			return violation(RuleDuplicateLayer, "layer name %q is used more than once", l.Name)
		}
		seen[l.Name] = struct{}{}
		if len(l.Bindings) != want {
			return violation(RuleBindingCount, "layer %q has %d bindings, expected %d", l.Name, len(l.Bindings), want)
		}
	}

	for _, name := range d.CustomBehaviors.Names() {
		b := d.CustomBehaviors[name]
		if name == "" || b == nil || b.Name != name {
			return violation(RuleBehaviorName, "custom behavior %q is not keyed by its own name", name)
		}
		ok := false
		switch b.Kind {
		case KindMacro:
			ok = b.Macro != nil && b.HoldTap == nil && b.Combo == nil
		case KindHoldTap:
			ok = b.HoldTap != nil && b.Macro == nil && b.Combo == nil
		case KindCombo:
			ok = b.Combo != nil && b.Macro == nil && b.HoldTap == nil
		}
		if !ok {
			return violation(RuleBehaviorShape, "custom behavior %q does not match its type %q", name, b.Kind)
		}
	}

	return d.checkCycles()
}

// checkCycles rejects custom behaviors that reach themselves through the
// behaviors they bind.
func (d *Document) checkCycles() error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		visiting[name] = true
		for _, ref := range d.CustomBehaviors[name].References() {
			dep := BehaviorName(ref)
			if _, custom := d.CustomBehaviors[dep]; !custom {
				continue
			}
			if visiting[dep] {
				return violation(RuleBehaviorCycle, "custom behavior %q references itself through %q", dep, name)
			}
			if !visited[dep] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(visiting, name)
		visited[name] = true
		return nil
	}

	for _, name := range d.CustomBehaviors.Names() {
		if !visited[name] {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}
