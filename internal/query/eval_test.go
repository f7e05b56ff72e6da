package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/keygrid/internal/layout"
)

const sampleLayout = `{
  "title": "Sample",
  "author": "tester",
  "description": "three keys",
  "keyboard": "tiny",
  "layers": [
    {"name": "Base", "bindings": ["&kp A", "&mt LSHIFT B", "&mo 1"]},
    {"name": "Symbol", "bindings": ["&kp EXCL", "&trans", "&none"]},
    {"name": "My Layer", "bindings": ["&kp N1", "&kp N2", "&kp N3"]}
  ],
  "custom_behaviors": {
    "hm": {"type": "hold_tap", "hold": "&kp", "tap": "&kp", "tapping_term_ms": 200, "flavor": "balanced"},
    "hi": {"type": "macro", "bindings": ["&kp H", "&kp I"], "wait_ms": 10},
    "esc": {"type": "combo", "key_positions": [0, 1], "timeout_ms": 50, "binding": "&kp ESC", "layers": ["Base"]}
  }
}`

func sampleDoc(t *testing.T) *layout.Document {
	t.Helper()
	doc, err := layout.Decode(strings.NewReader(sampleLayout))
	require.NoError(t, err)
	return doc
}

func paths(ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Path.String()
	}
	return out
}

func TestEval_Paths(t *testing.T) {
	testCases := []struct {
		name     string
		expr     string
		expected []string
	}{
		{name: "root", expr: "$", expected: []string{"$"}},
		{name: "scalar field", expr: "$.title", expected: []string{"$.title"}},
		{name: "layer by name", expr: "$.layers.Symbol", expected: []string{"$.layers[1]"}},
		{name: "layer alias", expr: ":Symbol", expected: []string{"$.layers[1]"}},
		{name: "quoted layer", expr: `:"My Layer"[0]`, expected: []string{"$.layers[2].bindings[0]"}},
		{name: "binding by layer index", expr: "$.layers[0][1]", expected: []string{"$.layers[0].bindings[1]"}},
		{name: "negative index", expr: "$.layers[-1].name", expected: []string{"$.layers[2].name"}},
		{name: "out of range index", expr: "$.layers[7]", expected: []string{}},
		{name: "slice clamps", expr: "$.layers.Base[1:10]", expected: []string{"$.layers[0].bindings[1]", "$.layers[0].bindings[2]"}},
		{name: "negative slice", expr: "$.layers[-2:]", expected: []string{"$.layers[1]", "$.layers[2]"}},
		{name: "inverted slice", expr: "$.layers[2:1]", expected: []string{}},
		{name: "wildcard names", expr: "$.layers[*].name", expected: []string{"$.layers[0].name", "$.layers[1].name", "$.layers[2].name"}},
		{name: "behaviors sorted", expr: ":behaviors[*]", expected: []string{"$.custom_behaviors.esc", "$.custom_behaviors.hi", "$.custom_behaviors.hm"}},
		{name: "filter equal", expr: `$.layers[?(@.name=="Symbol")]`, expected: []string{"$.layers[1]"}},
		{name: "filter not equal", expr: `$.layers[?(@.name!="Symbol")].name`, expected: []string{"$.layers[0].name", "$.layers[2].name"}},
		{name: "filter on bindings", expr: `:Base[?(@.behavior=="&mo")]`, expected: []string{"$.layers[0].bindings[2]"}},
		{name: "filter on behavior type", expr: `:behaviors[?(@.type=="macro")]`, expected: []string{"$.custom_behaviors.hi"}},
		{name: "filter type mismatch", expr: `$.layers[?(@.name!=3)]`, expected: []string{}},
		{name: "filter integer", expr: `:behaviors[?(@.tapping_term_ms==200)]`, expected: []string{"$.custom_behaviors.hm"}},
		{name: "param value", expr: ":Base[1].params[0].value", expected: []string{"$.layers[0].bindings[1].params[0].value"}},
		{name: "meta", expr: ":meta", expected: []string{"$.title", "$.author", "$.description"}},
		{name: "union keeps order", expr: "$.layers[1], $.title, $.layers[1]", expected: []string{"$.layers[1]", "$.title", "$.layers[1]"}},
		{name: "missing layer", expr: "$.layers.Nav", expected: []string{}},
		{name: "variant field absent", expr: ":behaviors.hi.tapping_term_ms", expected: []string{}},
	}

	doc := sampleDoc(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ms, err := Eval(doc, tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, paths(ms))
		})
	}
}

func TestEval_Values(t *testing.T) {
	doc := sampleDoc(t)

	ms := MustParse(":Base[0]").Eval(doc)
	require.Len(t, ms, 1)
	assert.Equal(t, TypeBinding, ms[0].Type)
	assert.Equal(t, layout.MustParseBinding("&kp A"), ms[0].Value)

	ms = MustParse(":Symbol").Eval(doc)
	require.Len(t, ms, 1)
	assert.Equal(t, TypeLayer, ms[0].Type)
	assert.Equal(t, "Symbol", ms[0].Value.(layout.Layer).Name)

	ms = MustParse(":behaviors.hm").Eval(doc)
	require.Len(t, ms, 1)
	assert.Equal(t, TypeBehavior, ms[0].Type)

	ms = MustParse("$.layers").Eval(doc)
	require.Len(t, ms, 1)
	assert.Equal(t, TypeList, ms[0].Type)
	assert.Len(t, ms[0].Value, 3)

	ms = MustParse(":Base[1].params[1].value").Eval(doc)
	require.Len(t, ms, 1)
	assert.Equal(t, TypeScalar, ms[0].Type)
	assert.Equal(t, "B", ms[0].Value)

	ms = MustParse("$").Eval(doc)
	require.Len(t, ms, 1)
	assert.Equal(t, TypeDocument, ms[0].Type)
	assert.Equal(t, doc, ms[0].Value)
}

func TestEval_DoesNotAlias(t *testing.T) {
	doc := sampleDoc(t)
	before := doc.Clone()

	ms := MustParse(":Base, :behaviors.hi").Eval(doc)
	require.Len(t, ms, 2)

	layer := ms[0].Value.(layout.Layer)
	layer.Bindings[0] = layout.MustParseBinding("&kp Z")
	hi := ms[1].Value.(*layout.CustomBehavior)
	hi.Macro.Bindings[0] = layout.MustParseBinding("&kp Z")

	assert.Equal(t, before, doc)
}

func TestEval_Deterministic(t *testing.T) {
	doc := sampleDoc(t)
	q := MustParse(":behaviors[*], $.layers[*][0]")

	first := q.Eval(doc)
	for range 5 {
		assert.Equal(t, first, q.Eval(doc))
	}
}

func TestEval_NilDocument(t *testing.T) {
	assert.Empty(t, MustParse("$.title").Eval(nil))
}
