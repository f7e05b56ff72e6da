package query

import (
	"slices"

	"github.com/vk/keygrid/internal/layout"
)

// node is a value reached during evaluation together with its path.
type node struct {
	value any
	path  Path
}

// Eval evaluates the query against doc and returns the matches in query
// order. It never mutates doc and never fails; an unmatched query yields an
// empty result.
func (q *Query) Eval(doc *layout.Document) []Match {
	if doc == nil {
		return nil
	}
	var out []Match
	for _, segs := range q.paths {
		nodes := []node{{value: doc, path: Path{}}}
		for _, seg := range segs {
			nodes = step(nodes, seg)
			if len(nodes) == 0 {
				break
			}
		}
		for _, n := range nodes {
			out = append(out, toMatch(n))
		}
	}
	return out
}

// Eval parses expr and evaluates it against doc.
func Eval(doc *layout.Document, expr string) ([]Match, error) {
	q, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return q.Eval(doc), nil
}

func step(nodes []node, seg Segment) []node {
	var out []node
	for _, n := range nodes {
		switch seg.Kind {
		case SegmentField:
			if child, ok := field(n, seg.Name); ok {
				out = append(out, child)
			}
		case SegmentIndex:
			elems := elements(n)
			idx := seg.Index
			if idx < 0 {
				idx += len(elems)
			}
			if idx >= 0 && idx < len(elems) {
				out = append(out, elems[idx])
			}
		case SegmentSlice:
			elems := elements(n)
			lo, hi := sliceBounds(seg, len(elems))
			out = append(out, elems[lo:hi]...)
		case SegmentFilter:
			for _, e := range elements(n) {
				if seg.Filter.matches(e) {
					out = append(out, e)
				}
			}
		}
	}
	return out
}

func sliceBounds(seg Segment, n int) (int, int) {
	norm := func(p *int, def int) int {
		if p == nil {
			return def
		}
		v := *p
		if v < 0 {
			v += n
		}
		return max(0, min(v, n))
	}
	lo, hi := norm(seg.Start, 0), norm(seg.End, n)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// matches projects the predicate field of e to a primitive and compares it
// with the literal. Mismatched types never match, for either operator.
func (pr *Predicate) matches(e node) bool {
	child, ok := field(e, pr.Field)
	if !ok {
		return false
	}
	var equal bool
	switch lit := pr.Value.(type) {
	case string:
		v, ok := child.value.(string)
		if !ok {
			return false
		}
		equal = v == lit
	case int:
		v, ok := child.value.(int)
		if !ok {
			return false
		}
		equal = v == lit
	case bool:
		v, ok := child.value.(bool)
		if !ok {
			return false
		}
		equal = v == lit
	default:
		return false
	}
	if pr.Op == OpNotEqual {
		return !equal
	}
	return equal
}

// elements enumerates the children of a collection node. A layer enumerates
// its bindings and a binding its params.
func elements(n node) []node {
	var out []node
	switch v := n.value.(type) {
	case []layout.Layer:
		for i := range v {
			out = append(out, node{value: v[i], path: n.path.At(i)})
		}
	case layout.Layer:
		p := n.path.Field("bindings")
		for i := range v.Bindings {
			out = append(out, node{value: v.Bindings[i], path: p.At(i)})
		}
	case []layout.Binding:
		for i := range v {
			out = append(out, node{value: v[i], path: n.path.At(i)})
		}
	case layout.Binding:
		p := n.path.Field("params")
		for i := range v.Params {
			out = append(out, node{value: v.Params[i], path: p.At(i)})
		}
	case []layout.Param:
		for i := range v {
			out = append(out, node{value: v[i], path: n.path.At(i)})
		}
	case layout.Behaviors:
		for _, name := range v.Names() {
			out = append(out, node{value: v[name], path: n.path.Field(name)})
		}
	case []layout.ParamSlot:
		for i := range v {
			out = append(out, node{value: v[i], path: n.path.At(i)})
		}
	case []string:
		for i := range v {
			out = append(out, node{value: v[i], path: n.path.At(i)})
		}
	case []int:
		for i := range v {
			out = append(out, node{value: v[i], path: n.path.At(i)})
		}
	}
	return out
}

// field resolves a named child of n.
func field(n node, name string) (node, bool) {
	child := func(v any) (node, bool) {
		return node{value: v, path: n.path.Field(name)}, true
	}

	switch v := n.value.(type) {
	case *layout.Document:
		switch name {
		case "title":
			return child(v.Title)
		case "author":
			return child(v.Author)
		case "description":
			return child(v.Description)
		case "keyboard":
			return child(v.Keyboard)
		case "firmware_version":
			return child(v.FirmwareVersion)
		case "layers":
			return child(v.Layers)
		case "custom_behaviors":
			return child(v.CustomBehaviors)
		case "kconfig":
			return child(v.Kconfig)
		case "includes":
			return child(v.Includes)
		}
	case []layout.Layer:
		for i := range v {
			if v[i].Name == name {
				return node{value: v[i], path: n.path.At(i)}, true
			}
		}
	case layout.Layer:
		switch name {
		case "name":
			return child(v.Name)
		case "bindings":
			return child(v.Bindings)
		}
	case layout.Binding:
		switch name {
		case "behavior":
			return child(v.Behavior)
		case "params":
			return child(v.Params)
		}
	case layout.Param:
		return paramField(n, v, name)
	case layout.Behaviors:
		if b, ok := v[name]; ok {
			return child(b)
		}
	case *layout.CustomBehavior:
		return behaviorField(n, v, name)
	case layout.ParamSlot:
		switch name {
		case "name":
			return child(v.Name)
		case "type":
			return child(string(v.Type))
		case "description":
			return child(v.Description)
		}
	}
	return node{}, false
}

func paramField(n node, p layout.Param, name string) (node, bool) {
	child := func(v any) (node, bool) {
		return node{value: v, path: n.path.Field(name)}, true
	}
	switch name {
	case "value":
		switch p.Kind {
		case layout.ParamInt:
			return child(p.Int)
		case layout.ParamSymbol:
			return child(p.Symbol)
		case layout.ParamBehavior:
			return child(p.Ref.Behavior)
		}
	case "kind":
		return child(p.Kind.String())
	case "behavior":
		if p.Kind == layout.ParamBehavior {
			return child(p.Ref.Behavior)
		}
	case "params":
		if p.Kind == layout.ParamBehavior {
			return child(p.Ref.Params)
		}
	}
	return node{}, false
}

func behaviorField(n node, b *layout.CustomBehavior, name string) (node, bool) {
	child := func(v any) (node, bool) {
		return node{value: v, path: n.path.Field(name)}, true
	}
	switch name {
	case "name":
		return child(b.Name)
	case "type":
		return child(string(b.Kind))
	case "description":
		return child(b.Description)
	case "params":
		return child(b.Params)
	}
	switch {
	case b.Macro != nil:
		switch name {
		case "bindings":
			return child(b.Macro.Bindings)
		case "wait_ms":
			return child(b.Macro.WaitMs)
		case "tap_ms":
			return child(b.Macro.TapMs)
		}
	case b.HoldTap != nil:
		switch name {
		case "hold":
			return child(b.HoldTap.Hold)
		case "tap":
			return child(b.HoldTap.Tap)
		case "tapping_term_ms":
			return child(b.HoldTap.TappingTermMs)
		case "quick_tap_ms":
			return child(b.HoldTap.QuickTapMs)
		case "flavor":
			return child(b.HoldTap.Flavor)
		}
	case b.Combo != nil:
		switch name {
		case "key_positions":
			return child(b.Combo.KeyPositions)
		case "timeout_ms":
			return child(b.Combo.TimeoutMs)
		case "binding":
			return child(b.Combo.Binding)
		case "layers":
			return child(b.Combo.Layers)
		}
	}
	return node{}, false
}

// toMatch classifies a node and detaches its value from the document.
func toMatch(n node) Match {
	m := Match{Path: n.path, Type: TypeList}
	switch v := n.value.(type) {
	case *layout.Document:
		m.Type, m.Value = TypeDocument, v.Clone()
	case []layout.Layer:
		out := make([]layout.Layer, len(v))
		for i := range v {
			out[i] = v[i].Clone()
		}
		m.Value = out
	case layout.Layer:
		m.Type, m.Value = TypeLayer, v.Clone()
	case []layout.Binding:
		out := make([]layout.Binding, len(v))
		for i := range v {
			out[i] = v[i].Clone()
		}
		m.Value = out
	case layout.Binding:
		m.Type, m.Value = TypeBinding, v.Clone()
	case []layout.Param:
		out := make([]layout.Param, len(v))
		for i := range v {
			out[i] = v[i].Clone()
		}
		m.Value = out
	case layout.Param:
		m.Type, m.Value = TypeScalar, v.Clone()
		if v.Kind == layout.ParamBehavior {
			m.Type = TypeBinding
		}
	case layout.Behaviors:
		m.Value = v.Clone()
	case *layout.CustomBehavior:
		m.Type, m.Value = TypeBehavior, v.Clone()
	case []layout.ParamSlot:
		m.Value = slices.Clone(v)
	case []string:
		m.Value = slices.Clone(v)
	case []int:
		m.Value = slices.Clone(v)
	default:
		m.Type, m.Value = TypeScalar, v
	}
	return m
}
