package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/keygrid/internal/layout"
	"github.com/vk/keygrid/internal/profile"
)

// Keyboard is the keyboard id used by the shared fixtures.
const Keyboard = "tiny"

// ProfileHCL describes the same keyboard as Profile(3) in HCL form.
const ProfileHCL = `
keyboard "tiny" {
  key_count = 3
  row_size  = 3
  includes  = ["behaviors.dtsi", "dt-bindings/zmk/keys.h"]

  behavior "kp" {
    description = "Key press"
    param "keycode" { type = keycode }
  }
  behavior "mt" {
    param "hold" { type = keycode }
    param "tap" { type = keycode }
  }
  behavior "mo" {
    param "layer" { type = layer }
  }
  behavior "lt" {
    param "layer" { type = layer }
    param "tap" { type = keycode }
  }
  behavior "to" {
    param "layer" { type = layer }
  }
  behavior "trans" {}
  behavior "none" {}

  kconfig_defaults = { ZMK_SLEEP = false, ZMK_IDLE_TIMEOUT = 30000 }

  firmware "zmk_main" {
    kconfig = { ZMK_SLEEP = true, ZMK_USB = "y" }
  }

  validation {
    max_layers    = 4
    max_behaviors = 4
    max_combos    = 2
    max_macros    = 2
  }
}
`

// Profile returns an in-memory profile with a small behavior catalog and
// the given key count.
func Profile(keyCount int) *profile.Profile {
	slot := func(name string, typ layout.ParamType) layout.ParamSlot {
		return layout.ParamSlot{Name: name, Type: typ}
	}
	return &profile.Profile{
		Keyboard: Keyboard,
		KeyCount: keyCount,
		RowSize:  keyCount,
		Includes: []string{"behaviors.dtsi", "dt-bindings/zmk/keys.h"},
		Behaviors: []profile.SystemBehavior{
			{ID: "kp", Description: "Key press", Params: []layout.ParamSlot{slot("keycode", layout.TypeKeycode)}},
			{ID: "mt", Params: []layout.ParamSlot{slot("hold", layout.TypeKeycode), slot("tap", layout.TypeKeycode)}},
			{ID: "mo", Params: []layout.ParamSlot{slot("layer", layout.TypeLayer)}},
			{ID: "lt", Params: []layout.ParamSlot{slot("layer", layout.TypeLayer), slot("tap", layout.TypeKeycode)}},
			{ID: "to", Params: []layout.ParamSlot{slot("layer", layout.TypeLayer)}},
			{ID: "trans"},
			{ID: "none"},
		},
		KconfigDefaults: []profile.Option{
			{Key: "ZMK_IDLE_TIMEOUT", Value: "30000"},
			{Key: "ZMK_SLEEP", Value: "n"},
		},
		Variants: map[string]*profile.Variant{
			"zmk_main": {ID: "zmk_main", Kconfig: []profile.Option{
				{Key: "ZMK_SLEEP", Value: "y"},
				{Key: "ZMK_USB", Value: "y"},
			}},
		},
		Limits: profile.Limits{MaxLayers: 4, MaxBehaviors: 4, MaxCombos: 2, MaxMacros: 2},
	}
}

// Doc builds a document from "Name: &b1, &b2, ..." layer descriptions.
func Doc(t *testing.T, layers ...string) *layout.Document {
	t.Helper()
	doc := layout.New(Keyboard)
	for _, line := range layers {
		name, bindings, ok := strings.Cut(line, ":")
		require.True(t, ok, "layer %q must look like Name: &b, &b", line)

		layer := layout.Layer{Name: strings.TrimSpace(name)}
		for _, raw := range strings.Split(bindings, ",") {
			b, err := layout.ParseBinding(raw)
			require.NoError(t, err)
			layer.Bindings = append(layer.Bindings, b)
		}
		doc.Layers = append(doc.Layers, layer)
	}
	return doc
}

// Decode parses a JSON layout fixture.
func Decode(t *testing.T, src string) *layout.Document {
	t.Helper()
	doc, err := layout.Decode(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

// Sample is a valid document for Profile(3): two layers plus one behavior
// of each kind.
const Sample = `{
  "title": "Sample",
  "author": "tester",
  "description": "three keys",
  "keyboard": "tiny",
  "layers": [
    {"name": "Base", "bindings": ["&kp A", "&hm LSHIFT B", "&mo 1"]},
    {"name": "Symbol", "bindings": ["&kp EXCL", "&trans", "&hi"]}
  ],
  "custom_behaviors": {
    "hm": {"type": "hold_tap", "hold": "&kp", "tap": "&kp", "tapping_term_ms": 200, "flavor": "balanced"},
    "hi": {"type": "macro", "bindings": ["&kp H", "&kp I"], "wait_ms": 10},
    "esc": {"type": "combo", "key_positions": [0, 1], "timeout_ms": 50, "binding": "&kp ESC", "layers": ["Base"]}
  },
  "kconfig": ["CONFIG_ZMK_SLEEP=y"]
}`
