package generator

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

const defaultKeymapTemplate = `${includes}
${layer_defines}
/ {
${behaviors}${combos}${keymap}};
`

const defaultKconfigTemplate = `# ${keyboard} (${firmware})
${kconfig}`

// render substitutes vars into an HCL template. The evaluation context has
// no functions, so templates are limited to interpolation and directives
// over the given strings.
func render(name, text string, vars map[string]string) (string, error) {
	expr, diags := hclsyntax.ParseTemplate([]byte(text), name, hcl.InitialPos)
	if diags.HasErrors() {
		return "", fmt.Errorf("failed to parse template %s: %w", name, diags)
	}

	values := make(map[string]cty.Value, len(vars))
	for k, v := range vars {
		values[k] = cty.StringVal(v)
	}
	val, diags := expr.Value(&hcl.EvalContext{Variables: values})
	if diags.HasErrors() {
		return "", fmt.Errorf("failed to render template %s: %w", name, diags)
	}

	val, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("template %s does not produce text: %w", name, err)
	}
	if val.IsNull() || !val.IsKnown() {
		return "", fmt.Errorf("template %s produced no value", name)
	}
	return val.AsString(), nil
}
