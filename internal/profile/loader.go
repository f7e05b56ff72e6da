package profile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/keygrid/internal/ctxlog"
	"github.com/vk/keygrid/internal/layout"
)

// LoadFile parses every keyboard block in the HCL file at path.
func LoadFile(ctx context.Context, path string) ([]*Profile, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	return Parse(ctx, src, path)
}

// Parse decodes profile HCL source. Template paths are resolved relative to
// the directory of filename.
func Parse(ctx context.Context, src []byte, filename string) ([]*Profile, error) {
	logger := ctxlog.FromContext(ctx).With("file", filename)
	logger.Debug("Parsing profile file.")

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	profiles := make([]*Profile, 0, len(root.Keyboards))
	for _, kb := range root.Keyboards {
		p, err := translateKeyboard(ctx, kb, filename)
		if err != nil {
			return nil, fmt.Errorf("in %s: keyboard %q: %w", filename, kb.ID, err)
		}
		profiles = append(profiles, p)
	}
	logger.Debug("Profile file parsed.", "keyboards", len(profiles))
	return profiles, nil
}

func translateKeyboard(ctx context.Context, kb *keyboardBlock, filename string) (*Profile, error) {
	if kb.KeyCount <= 0 {
		return nil, fmt.Errorf("key_count must be positive, got %d", kb.KeyCount)
	}
	if kb.RowSize < 0 {
		return nil, fmt.Errorf("row_size must not be negative, got %d", kb.RowSize)
	}

	p := &Profile{
		Keyboard: kb.ID,
		KeyCount: kb.KeyCount,
		RowSize:  kb.RowSize,
		Includes: kb.Includes,
		Variants: make(map[string]*Variant, len(kb.Firmware)),
		Source:   filename,
	}

	seen := make(map[string]struct{}, len(kb.Behaviors))
	for _, b := range kb.Behaviors {
		if _, dup := seen[b.ID]; dup {
			return nil, fmt.Errorf("duplicate behavior %q", b.ID)
		}
		seen[b.ID] = struct{}{}

		sb, err := translateBehavior(b)
		if err != nil {
			return nil, err
		}
		p.Behaviors = append(p.Behaviors, sb)
	}

	if kb.Templates != nil {
		var err error
		dir := filepath.Dir(filename)
		if p.Templates.Keymap, err = readTemplate(dir, kb.Templates.Keymap); err != nil {
			return nil, err
		}
		if p.Templates.Kconfig, err = readTemplate(dir, kb.Templates.Kconfig); err != nil {
			return nil, err
		}
	}

	defaults, err := decodeOptions(ctx, kb.KconfigDefaults, "kconfig_defaults")
	if err != nil {
		return nil, err
	}
	p.KconfigDefaults = defaults

	for _, fw := range kb.Firmware {
		if _, dup := p.Variants[fw.ID]; dup {
			return nil, fmt.Errorf("duplicate firmware variant %q", fw.ID)
		}
		opts, err := decodeOptions(ctx, fw.Kconfig, "firmware "+fw.ID)
		if err != nil {
			return nil, err
		}
		p.Variants[fw.ID] = &Variant{ID: fw.ID, Kconfig: opts}
	}

	if v := kb.Validation; v != nil {
		p.Limits = Limits{
			MaxLayers:    v.MaxLayers,
			MaxBehaviors: v.MaxBehaviors,
			MaxCombos:    v.MaxCombos,
			MaxMacros:    v.MaxMacros,
		}
	}
	return p, nil
}

func translateBehavior(b *behaviorBlock) (SystemBehavior, error) {
	sb := SystemBehavior{ID: b.ID, Code: b.Code, Description: b.Description}
	for _, param := range b.Params {
		typ, err := paramType(param.Type)
		if err != nil {
			return SystemBehavior{}, fmt.Errorf("behavior %q, param %q: %w", b.ID, param.Name, err)
		}
		sb.Params = append(sb.Params, layout.ParamSlot{
			Name:        param.Name,
			Type:        typ,
			Description: param.Description,
		})
	}
	return sb, nil
}

// paramType reads a parameter type written as a bare keyword, e.g.
// `type = keycode`. A quoted string is accepted too.
func paramType(expr hcl.Expression) (layout.ParamType, error) {
	name := hcl.ExprAsKeyword(expr)
	if name == "" {
		val, diags := expr.Value(nil)
		if diags.HasErrors() || val.IsNull() || !val.IsKnown() || !val.Type().Equals(cty.String) {
			return "", fmt.Errorf("type must be one of int, keycode, layer, behavior, any")
		}
		name = val.AsString()
	}
	typ := layout.ParamType(name)
	if !typ.Valid() {
		return "", fmt.Errorf("unknown param type %q", name)
	}
	return typ, nil
}

func readTemplate(dir, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	return string(data), nil
}

// isExprDefined reports whether an optional attribute was actually written.
// gohcl fills omitted expressions with a zero-width placeholder.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

// decodeOptions evaluates a Kconfig mapping into options sorted by key.
// Booleans become y/n and numbers their decimal text.
func decodeOptions(ctx context.Context, expr hcl.Expression, where string) ([]Option, error) {
	if !isExprDefined(expr) {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: %w", where, diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("%s: expected a mapping of options, got %s", where, val.Type().FriendlyName())
	}

	var opts []Option
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		s, err := optionValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: option %s: %w", where, k.AsString(), err)
		}
		opts = append(opts, Option{Key: k.AsString(), Value: s})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Key < opts[j].Key })

	ctxlog.FromContext(ctx).Debug("Decoded Kconfig options.", "where", where, "count", len(opts))
	return opts, nil
}

func optionValue(v cty.Value) (string, error) {
	if v.IsNull() || !v.IsKnown() {
		return "", fmt.Errorf("value must be known and not null")
	}
	if v.Type().Equals(cty.Bool) {
		if v.True() {
			return "y", nil
		}
		return "n", nil
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("value must be a string, number or bool: %w", err)
	}
	return s.AsString(), nil
}
