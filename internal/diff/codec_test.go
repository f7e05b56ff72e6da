package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_JSON(t *testing.T) {
	index := 1
	changes := []Change{
		{Kind: KindMetadata, Path: "$.title", OldValue: "a", NewValue: "b"},
		{Kind: KindLayerAdd, Path: "$.layers.Nav", NewValue: map[string]any{"name": "Nav", "bindings": []any{"&none"}}, Index: &index},
	}

	data, err := Marshal(changes, FormatJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `[
  {"kind": "metadata", "path": "$.title", "old_value": "a", "new_value": "b"},
  {"kind": "layer_add", "path": "$.layers.Nav", "new_value": {"name": "Nav", "bindings": ["&none"]}, "index": 1}
]`, string(data))
}

func TestMarshal_YAML(t *testing.T) {
	changes := []Change{{Kind: KindLayerRemove, Path: "$.layers.Old", OldValue: map[string]any{"name": "Old"}}}

	data, err := Marshal(changes, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "- kind: layer_remove\n  path: $.layers.Old\n  old_value:\n    name: Old\n  new_value: null\n", string(data))
}

func TestMarshal_Empty(t *testing.T) {
	data, err := Marshal(nil, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestUnmarshal_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		data   string
		format Format
	}{
		{name: "bad json", data: `{`, format: FormatJSON},
		{name: "unknown kind", data: `[{"kind": "rename", "path": "$.x"}]`, format: FormatJSON},
		{name: "missing path", data: "- kind: metadata\n", format: FormatYAML},
		{name: "unknown format", data: `[]`, format: "toml"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tc.data), tc.format)
			assert.Error(t, err)
		})
	}
}

func TestFormats(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("patch.YML"))
	assert.Equal(t, FormatYAML, FormatFromPath("patch.yaml"))
	assert.Equal(t, FormatJSON, FormatFromPath("patch.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("patch"))

	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
