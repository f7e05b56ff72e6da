package query

import (
	"fmt"

	"github.com/vk/keygrid/internal/layout"
)

// Locate resolves a canonical path to a pointer into doc, so the caller can
// replace the addressed value in place. Layer and behavior segments may be
// given by name or by index. A param's "value" field addresses the param
// itself.
func Locate(doc *layout.Document, path Path) (any, error) {
	var cur any = doc
	for i, seg := range path {
		next, err := locateField(cur, seg.Name)
		if err != nil {
			return nil, &ResolutionError{Query: path[:i+1].String(), Reason: err.Error()}
		}
		if seg.HasIndex() {
			next, err = locateIndex(next, seg.Index)
			if err != nil {
				return nil, &ResolutionError{Query: path[:i+1].String(), Reason: err.Error()}
			}
		}
		cur = next
	}
	return cur, nil
}

func locateField(cur any, name string) (any, error) {
	switch v := cur.(type) {
	case *layout.Document:
		switch name {
		case "title":
			return &v.Title, nil
		case "author":
			return &v.Author, nil
		case "description":
			return &v.Description, nil
		case "keyboard":
			return &v.Keyboard, nil
		case "firmware_version":
			return &v.FirmwareVersion, nil
		case "layers":
			return &v.Layers, nil
		case "custom_behaviors":
			if v.CustomBehaviors == nil {
				v.CustomBehaviors = layout.Behaviors{}
			}
			return &v.CustomBehaviors, nil
		case "kconfig":
			return &v.Kconfig, nil
		case "includes":
			return &v.Includes, nil
		}
	case *[]layout.Layer:
		for i := range *v {
			if (*v)[i].Name == name {
				return &(*v)[i], nil
			}
		}
		return nil, fmt.Errorf("no layer named %q", name)
	case *layout.Layer:
		switch name {
		case "name":
			return &v.Name, nil
		case "bindings":
			return &v.Bindings, nil
		}
	case *layout.Binding:
		switch name {
		case "behavior":
			return &v.Behavior, nil
		case "params":
			return &v.Params, nil
		}
	case *layout.Param:
		switch name {
		case "value":
			return v, nil
		case "behavior":
			if v.Kind == layout.ParamBehavior {
				return &v.Ref.Behavior, nil
			}
		case "params":
			if v.Kind == layout.ParamBehavior {
				return &v.Ref.Params, nil
			}
		}
	case *layout.Behaviors:
		if b, ok := (*v)[name]; ok {
			return b, nil
		}
		return nil, fmt.Errorf("no custom behavior named %q", name)
	case *layout.CustomBehavior:
		return locateBehaviorField(v, name)
	case *layout.ParamSlot:
		switch name {
		case "name":
			return &v.Name, nil
		case "type":
			return &v.Type, nil
		case "description":
			return &v.Description, nil
		}
	}
	return nil, fmt.Errorf("field %q is not addressable here", name)
}

func locateBehaviorField(b *layout.CustomBehavior, name string) (any, error) {
	switch name {
	case "name", "type":
		return nil, fmt.Errorf("behavior %s is read-only", name)
	case "description":
		return &b.Description, nil
	case "params":
		return &b.Params, nil
	}
	switch {
	case b.Macro != nil:
		switch name {
		case "bindings":
			return &b.Macro.Bindings, nil
		case "wait_ms":
			return &b.Macro.WaitMs, nil
		case "tap_ms":
			return &b.Macro.TapMs, nil
		}
	case b.HoldTap != nil:
		switch name {
		case "hold":
			return &b.HoldTap.Hold, nil
		case "tap":
			return &b.HoldTap.Tap, nil
		case "tapping_term_ms":
			return &b.HoldTap.TappingTermMs, nil
		case "quick_tap_ms":
			return &b.HoldTap.QuickTapMs, nil
		case "flavor":
			return &b.HoldTap.Flavor, nil
		}
	case b.Combo != nil:
		switch name {
		case "key_positions":
			return &b.Combo.KeyPositions, nil
		case "timeout_ms":
			return &b.Combo.TimeoutMs, nil
		case "binding":
			return &b.Combo.Binding, nil
		case "layers":
			return &b.Combo.Layers, nil
		}
	}
	return nil, fmt.Errorf("behavior %q has no field %q", b.Name, name)
}

func locateIndex(cur any, i int) (any, error) {
	check := func(n int) error {
		if i < 0 || i >= n {
			return fmt.Errorf("index %d out of range [0,%d)", i, n)
		}
		return nil
	}
	switch v := cur.(type) {
	case *[]layout.Layer:
		if err := check(len(*v)); err != nil {
			return nil, err
		}
		return &(*v)[i], nil
	case *[]layout.Binding:
		if err := check(len(*v)); err != nil {
			return nil, err
		}
		return &(*v)[i], nil
	case *[]layout.Param:
		if err := check(len(*v)); err != nil {
			return nil, err
		}
		return &(*v)[i], nil
	case *[]layout.ParamSlot:
		if err := check(len(*v)); err != nil {
			return nil, err
		}
		return &(*v)[i], nil
	case *[]string:
		if err := check(len(*v)); err != nil {
			return nil, err
		}
		return &(*v)[i], nil
	case *[]int:
		if err := check(len(*v)); err != nil {
			return nil, err
		}
		return &(*v)[i], nil
	case *layout.Behaviors:
		names := v.Names()
		if err := check(len(names)); err != nil {
			return nil, err
		}
		return (*v)[names[i]], nil
	}
	return nil, fmt.Errorf("value is not indexable")
}
