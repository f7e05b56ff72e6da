package profile

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block of a profile file.
type fileRoot struct {
	Keyboards []*keyboardBlock `hcl:"keyboard,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type keyboardBlock struct {
	ID              string           `hcl:"id,label"`
	KeyCount        int              `hcl:"key_count"`
	RowSize         int              `hcl:"row_size,optional"`
	Includes        []string         `hcl:"includes,optional"`
	Behaviors       []*behaviorBlock `hcl:"behavior,block"`
	Templates       *templatesBlock  `hcl:"templates,block"`
	KconfigDefaults hcl.Expression   `hcl:"kconfig_defaults,optional"`
	Firmware        []*firmwareBlock `hcl:"firmware,block"`
	Validation      *validationBlock `hcl:"validation,block"`
}

type behaviorBlock struct {
	ID          string        `hcl:"id,label"`
	Code        string        `hcl:"code,optional"`
	Description string        `hcl:"description,optional"`
	Params      []*paramBlock `hcl:"param,block"`
}

type paramBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
}

type templatesBlock struct {
	Keymap  string `hcl:"keymap,optional"`
	Kconfig string `hcl:"kconfig,optional"`
}

type firmwareBlock struct {
	ID      string         `hcl:"id,label"`
	Kconfig hcl.Expression `hcl:"kconfig,optional"`
}

type validationBlock struct {
	MaxLayers    int `hcl:"max_layers,optional"`
	MaxBehaviors int `hcl:"max_behaviors,optional"`
	MaxCombos    int `hcl:"max_combos,optional"`
	MaxMacros    int `hcl:"max_macros,optional"`
}
