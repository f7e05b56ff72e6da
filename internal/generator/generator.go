package generator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/vk/keygrid/internal/ctxlog"
	"github.com/vk/keygrid/internal/layout"
	"github.com/vk/keygrid/internal/profile"
	"github.com/vk/keygrid/internal/registry"
)

// Output is the generated firmware source text.
type Output struct {
	Keymap  string
	Kconfig string
}

// Compile validates doc against p and generates its output. A document that
// fails validation is never rendered.
func Compile(ctx context.Context, p *profile.Profile, doc *layout.Document, variant string) (*Output, error) {
	if _, err := p.Variant(variant); err != nil {
		return nil, err
	}
	if err := registry.Validate(ctx, p, doc); err != nil {
		return nil, err
	}
	return Generate(ctx, p, doc, variant)
}

// Generate renders the keymap and Kconfig text for doc. doc must already be
// valid for p; Compile is the checked entry point.
func Generate(ctx context.Context, p *profile.Profile, doc *layout.Document, variant string) (*Output, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Generating firmware source.", "keyboard", p.Keyboard, "firmware", variant)

	v, err := p.Variant(variant)
	if err != nil {
		return nil, err
	}

	reg := registry.New(p)
	reg.Populate(doc)
	g := &gen{reg: reg, doc: doc, layers: make(map[string]int, len(doc.Layers))}
	for i, l := range doc.Layers {
		g.layers[l.Name] = i
	}
	g.assignLabels()

	keymap, err := g.keymap(p)
	if err != nil {
		return nil, err
	}
	kconfig, err := kconfigText(p, v, doc)
	if err != nil {
		return nil, err
	}

	logger.Debug("Generated firmware source.", "keymap_bytes", len(keymap), "kconfig_bytes", len(kconfig))
	return &Output{Keymap: keymap, Kconfig: kconfig}, nil
}

func kconfigText(p *profile.Profile, v *profile.Variant, doc *layout.Document) (string, error) {
	overrides, err := ParseDirectives(doc.Kconfig)
	if err != nil {
		return "", err
	}
	merged := MergeKconfig(p.KconfigDefaults, v.Kconfig, overrides)

	tpl := p.Templates.Kconfig
	if tpl == "" {
		tpl = defaultKconfigTemplate
	}
	return render("kconfig", tpl, map[string]string{
		"keyboard": p.Keyboard,
		"firmware": v.ID,
		"kconfig":  formatKconfig(merged),
	})
}

type gen struct {
	reg    *registry.Registry
	doc    *layout.Document
	layers map[string]int

	// Devicetree identifiers, unique within their namespace even when
	// distinct names sanitize to the same label.
	layerNode     []string
	behaviorLabel map[string]string
	comboNode     map[string]string
}

// assignLabels derives the layer node names, the hold-tap and macro labels
// and the combo node names. Hold-taps and macros share one label namespace.
func (g *gen) assignLabels() {
	nodes := labels{}
	g.layerNode = make([]string, len(g.doc.Layers))
	for i, l := range g.doc.Layers {
		g.layerNode[i] = nodes.unique("layer_"+label(l.Name), i)
	}

	behaviors, combos := labels{}, labels{}
	g.behaviorLabel = make(map[string]string)
	g.comboNode = make(map[string]string)
	for i, name := range g.doc.CustomBehaviors.Names() {
		if g.doc.CustomBehaviors[name].Kind == layout.KindCombo {
			g.comboNode[name] = combos.unique("combo_"+label(name), i)
			continue
		}
		g.behaviorLabel[name] = behaviors.unique(label(name), i)
	}
}

func (g *gen) keymap(p *profile.Profile) (string, error) {
	layerNodes := g.layerNodes(p.RowSize)

	var keymap dtWriter
	keymap.depth = 1
	keymap.open("keymap")
	keymap.line(`compatible = "zmk,keymap";`)
	keymap.line("")
	keymap.sb.WriteString(layerNodes)
	keymap.close()

	tpl := p.Templates.Keymap
	if tpl == "" {
		tpl = defaultKeymapTemplate
	}
	return render("keymap", tpl, map[string]string{
		"keyboard":      p.Keyboard,
		"title":         g.doc.Title,
		"includes":      g.includes(p),
		"layer_defines": g.layerDefines(),
		"behaviors":     g.behaviors(),
		"combos":        g.combos(),
		"keymap":        keymap.String(),
		"layers":        layerNodes,
	})
}

// includes lists the profile's includes followed by the document's, without
// duplicates.
func (g *gen) includes(p *profile.Profile) string {
	var sb strings.Builder
	seen := make(map[string]struct{})
	for _, inc := range append(append([]string(nil), p.Includes...), g.doc.Includes...) {
		inc = strings.TrimSpace(inc)
		if _, dup := seen[inc]; dup || inc == "" {
			continue
		}
		seen[inc] = struct{}{}
		switch {
		case strings.HasPrefix(inc, "#include"):
			sb.WriteString(inc)
		case strings.HasPrefix(inc, `"`), strings.HasPrefix(inc, "<"):
			sb.WriteString("#include " + inc)
		default:
			sb.WriteString("#include <" + inc + ">")
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (g *gen) layerDefines() string {
	var sb strings.Builder
	used := labels{}
	for i, l := range g.doc.Layers {
		fmt.Fprintf(&sb, "#define %s %d\n", used.unique(strings.ToUpper(label(l.Name)), i), i)
	}
	return sb.String()
}

func (g *gen) layerNodes(rowSize int) string {
	var w dtWriter
	w.depth = 2
	for i, l := range g.doc.Layers {
		if i > 0 {
			w.line("")
		}
		cells := make([]string, len(l.Bindings))
		for j, b := range l.Bindings {
			cells[j] = g.binding(b)
		}

		w.open(g.layerNode[i])
		w.line("display-name = %s;", quote(l.Name))
		w.line("bindings = <")
		w.depth++
		for _, row := range align(cells, rowSize) {
			w.line("%s", row)
		}
		w.depth--
		w.line(">;")
		w.close()
	}
	return w.String()
}

// behaviors renders hold-taps under a behaviors node and macros under a
// macros node, each in name order.
func (g *gen) behaviors() string {
	var w dtWriter
	w.depth = 1
	names := g.doc.CustomBehaviors.Names()

	if g.doc.CustomBehaviors.Count(layout.KindHoldTap) > 0 {
		w.open("behaviors")
		first := true
		for _, name := range names {
			b := g.doc.CustomBehaviors[name]
			if b.Kind != layout.KindHoldTap || b.HoldTap == nil {
				continue
			}
			if !first {
				w.line("")
			}
			first = false
			g.holdTap(&w, b)
		}
		w.close()
		w.line("")
	}

	if g.doc.CustomBehaviors.Count(layout.KindMacro) > 0 {
		w.open("macros")
		first := true
		for _, name := range names {
			b := g.doc.CustomBehaviors[name]
			if b.Kind != layout.KindMacro || b.Macro == nil {
				continue
			}
			if !first {
				w.line("")
			}
			first = false
			g.macro(&w, b)
		}
		w.close()
		w.line("")
	}
	return w.String()
}

func (g *gen) holdTap(w *dtWriter, b *layout.CustomBehavior) {
	ht := b.HoldTap
	l := g.behaviorLabel[b.Name]
	w.open(l + ": " + l)
	w.line(`compatible = "zmk,behavior-hold-tap";`)
	if b.Description != "" {
		w.line("label = %s;", quote(b.Description))
	}
	w.line("#binding-cells = <2>;")
	w.cells("tapping-term-ms", ht.TappingTermMs)
	w.cells("quick-tap-ms", ht.QuickTapMs)
	if ht.Flavor != "" {
		w.line("flavor = %s;", quote(ht.Flavor))
	}
	w.line("bindings = <%s>, <%s>;", g.syntax(ht.Hold), g.syntax(ht.Tap))
	w.close()
}

func (g *gen) macro(w *dtWriter, b *layout.CustomBehavior) {
	m := b.Macro
	l := g.behaviorLabel[b.Name]
	cells := min(len(b.Schema()), 2)
	compatible := [...]string{"zmk,behavior-macro", "zmk,behavior-macro-one-param", "zmk,behavior-macro-two-param"}[cells]

	steps := make([]string, len(m.Bindings))
	for i, step := range m.Bindings {
		steps[i] = g.binding(step)
	}

	w.open(l + ": " + l)
	w.line("compatible = %s;", quote(compatible))
	if b.Description != "" {
		w.line("label = %s;", quote(b.Description))
	}
	w.line("#binding-cells = <%d>;", cells)
	w.cells("wait-ms", m.WaitMs)
	w.cells("tap-ms", m.TapMs)
	w.line("bindings = <&macro_tap %s>;", strings.Join(steps, " "))
	w.close()
}

func (g *gen) combos() string {
	if g.doc.CustomBehaviors.Count(layout.KindCombo) == 0 {
		return ""
	}
	var w dtWriter
	w.depth = 1
	w.open("combos")
	w.line(`compatible = "zmk,combos";`)
	for _, name := range g.doc.CustomBehaviors.Names() {
		b := g.doc.CustomBehaviors[name]
		if b.Kind != layout.KindCombo || b.Combo == nil {
			continue
		}
		c := b.Combo
		w.line("")
		w.open(g.comboNode[name])
		w.cells("timeout-ms", c.TimeoutMs)
		w.line("key-positions = <%s>;", intList(c.KeyPositions))
		w.line("bindings = <%s>;", g.binding(c.Binding))
		if len(c.Layers) > 0 {
			w.line("layers = <%s>;", intList(g.layerIndexes(c.Layers)))
		}
		w.close()
	}
	w.close()
	w.line("")
	return w.String()
}

func (g *gen) layerIndexes(refs []string) []int {
	out := make([]int, 0, len(refs))
	for _, ref := range refs {
		if i, ok := g.layers[ref]; ok {
			out = append(out, i)
		} else if i, err := strconv.Atoi(ref); err == nil {
			out = append(out, i)
		}
	}
	return out
}

// syntax is the display form of a behavior id: the profile's code for
// system behaviors, the devicetree label for custom ones.
func (g *gen) syntax(id string) string {
	def, ok := g.reg.Resolve(id)
	if ok && def.Custom == nil {
		return def.Syntax()
	}
	name := layout.BehaviorName(id)
	if l, ok := g.behaviorLabel[name]; ok {
		return "&" + l
	}
	return "&" + label(name)
}

func (g *gen) binding(b layout.Binding) string {
	var slots []layout.ParamSlot
	if def, ok := g.reg.Resolve(b.Behavior); ok {
		slots = def.Params
	}

	parts := make([]string, 0, len(b.Params)+1)
	parts = append(parts, g.syntax(b.Behavior))
	for i, p := range b.Params {
		var typ layout.ParamType
		if i < len(slots) {
			typ = slots[i].Type
		}
		parts = append(parts, g.param(p, typ))
	}
	return strings.Join(parts, " ")
}

// param renders one binding parameter. Layer names become layer indexes.
func (g *gen) param(p layout.Param, typ layout.ParamType) string {
	switch p.Kind {
	case layout.ParamInt:
		return strconv.Itoa(p.Int)
	case layout.ParamSymbol:
		if typ == layout.TypeLayer {
			if i, ok := g.layers[p.Symbol]; ok {
				return strconv.Itoa(i)
			}
		}
		return p.Symbol
	case layout.ParamBehavior:
		if p.Ref == nil {
			return ""
		}
		if len(p.Ref.Params) == 0 {
			return g.binding(*p.Ref)
		}
		return "(" + g.binding(*p.Ref) + ")"
	}
	return ""
}
