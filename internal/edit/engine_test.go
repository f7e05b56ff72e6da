package edit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/keygrid/internal/layout"
	"github.com/vk/keygrid/internal/query"
	"github.com/vk/keygrid/internal/registry"
	"github.com/vk/keygrid/internal/testutil"
)

// memSources serves source documents from memory and counts loads.
type memSources struct {
	docs  map[string]*layout.Document
	loads map[string]int
}

func (m *memSources) load(_ context.Context, path string) (*layout.Document, error) {
	if m.loads == nil {
		m.loads = make(map[string]int)
	}
	m.loads[path]++
	doc, ok := m.docs[path]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", path)
	}
	return doc.Clone(), nil
}

func baseSymbol(t *testing.T) *layout.Document {
	return testutil.Doc(t, "Base: &kp A, &kp B, &kp C", "Symbol: &kp N1, &kp N2, &kp N3")
}

func TestApply_AddLayerDefaults(t *testing.T) {
	ctx := testutil.Context(t)
	for name, engine := range map[string]*Engine{
		"structural": New(),
		"profile":    New(WithProfile(testutil.Profile(3))),
	} {
		t.Run(name, func(t *testing.T) {
			doc := baseSymbol(t)

			res, err := engine.Apply(ctx, doc, []Operation{AddLayer("Nav").At(1)})
			require.NoError(t, err)
			assert.True(t, res.Changed)
			assert.Equal(t, []string{"Base", "Nav", "Symbol"}, res.Document.LayerNames())

			nav, _ := res.Document.Layer("Nav")
			require.Len(t, nav.Bindings, 3)
			for _, b := range nav.Bindings {
				assert.Equal(t, "&none", b.String())
			}
			assert.Equal(t, []string{"Base", "Symbol"}, doc.LayerNames(), "input must not change")
		})
	}
}

func TestApply_GetOnly(t *testing.T) {
	doc := baseSymbol(t)
	before := doc.Clone()

	res, err := New().Apply(testutil.Context(t), doc, []Operation{
		Get("$.layers.Symbol"),
		Get("$.layers.Nav"),
		Get(":meta"),
	})
	require.NoError(t, err)
	assert.Same(t, doc, res.Document)
	assert.False(t, res.Changed)
	assert.Equal(t, before, doc)

	require.Len(t, res.Gets, 3)
	assert.Len(t, res.Gets[0], 1)
	assert.Empty(t, res.Gets[1])
	assert.Len(t, res.Gets[2], 3)
}

func TestApply_GetSeesEarlierOperations(t *testing.T) {
	res, err := New().Apply(testutil.Context(t), baseSymbol(t), []Operation{
		Set("$.title", "Renamed"),
		Get("$.title"),
	})
	require.NoError(t, err)
	require.Len(t, res.Gets, 1)
	require.Len(t, res.Gets[0], 1)
	assert.Equal(t, "Renamed", res.Gets[0][0].Value)
}

func TestApply_DanglingCombo(t *testing.T) {
	ctx := testutil.Context(t)
	engine := New(WithProfile(testutil.Profile(3)))

	t.Run("combo kept", func(t *testing.T) {
		doc := testutil.Decode(t, testutil.Sample)
		before := doc.Clone()

		_, err := engine.Apply(ctx, doc, []Operation{
			RemoveLayer("Base"),
			Set("$.title", "after"),
		})
		require.Error(t, err)

		var batchErr *BatchError
		require.True(t, errors.As(err, &batchErr))
		assert.Equal(t, 1, batchErr.Index)

		var dangling *DanglingReferenceError
		require.True(t, errors.As(err, &dangling))
		assert.Equal(t, "Base", dangling.Layer)
		assert.Equal(t, "esc", dangling.Behavior)
		assert.Equal(t, before, doc)
	})

	t.Run("combo removed in the same batch", func(t *testing.T) {
		res, err := engine.Apply(ctx, testutil.Decode(t, testutil.Sample), []Operation{
			RemoveLayer("Base"),
			RemoveBehavior("esc"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Symbol"}, res.Document.LayerNames())
		assert.NotContains(t, res.Document.CustomBehaviors, "esc")
	})

	t.Run("without profile", func(t *testing.T) {
		_, err := New().Apply(ctx, testutil.Decode(t, testutil.Sample), []Operation{RemoveLayer("Base")})
		var dangling *DanglingReferenceError
		require.True(t, errors.As(err, &dangling))
	})
}

func TestApply_Atomicity(t *testing.T) {
	testCases := []struct {
		name  string
		ops   []Operation
		index int
		check func(t *testing.T, err error)
	}{
		{
			name:  "duplicate layer",
			ops:   []Operation{Set("$.title", "changed"), AddLayer("Symbol")},
			index: 2,
			check: func(t *testing.T, err error) {
				var v *layout.InvariantViolation
				require.True(t, errors.As(err, &v))
				assert.Equal(t, layout.RuleDuplicateLayer, v.Rule)
			},
		},
		{
			name:  "unknown behavior",
			ops:   []Operation{CopyLayer("Base", "Copy"), Set(":Copy[0]", "&bogus X")},
			index: 2,
			check: func(t *testing.T, err error) {
				var v *registry.UnknownBehaviorError
				require.True(t, errors.As(err, &v))
			},
		},
		{
			name:  "query syntax",
			ops:   []Operation{Set("$.title", "x"), Get("$.layers[")},
			index: 2,
			check: func(t *testing.T, err error) {
				var v *query.SyntaxError
				require.True(t, errors.As(err, &v))
			},
		},
		{
			name:  "set without matches",
			ops:   []Operation{Set("$.layers.Nav[0]", "&kp A")},
			index: 1,
			check: func(t *testing.T, err error) {
				var v *query.ResolutionError
				require.True(t, errors.As(err, &v))
			},
		},
		{
			name:  "binding count",
			ops:   []Operation{AddLayer("Short").WithBindings([]layout.Binding{layout.MustParseBinding("&kp A")})},
			index: 1,
			check: func(t *testing.T, err error) {
				var v *layout.InvariantViolation
				require.True(t, errors.As(err, &v))
				assert.Equal(t, layout.RuleBindingCount, v.Rule)
			},
		},
		{
			name:  "remove missing layer",
			ops:   []Operation{RemoveLayer("Nav")},
			index: 1,
			check: func(t *testing.T, err error) {
				var v *query.ResolutionError
				require.True(t, errors.As(err, &v))
			},
		},
		{
			name:  "wrong value type",
			ops:   []Operation{Set("$.title", "42")},
			index: 1,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "set $.title")
			},
		},
	}

	ctx := testutil.Context(t)
	engine := New(WithProfile(testutil.Profile(3)))
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := testutil.Decode(t, testutil.Sample)
			before := doc.Clone()

			res, err := engine.Apply(ctx, doc, tc.ops)
			require.Error(t, err)
			assert.Nil(t, res)

			var batchErr *BatchError
			require.True(t, errors.As(err, &batchErr))
			assert.Equal(t, tc.index, batchErr.Index)
			assert.Equal(t, tc.ops[tc.index-1].String(), batchErr.Op)
			tc.check(t, err)

			assert.Equal(t, before, doc)
		})
	}
}

func TestApply_Idempotent(t *testing.T) {
	ctx := testutil.Context(t)
	engine := New(WithProfile(testutil.Profile(3)))
	ops := []Operation{Set(":Symbol[1]", "&kp AT"), Set("$.title", `"Same"`)}

	first, err := engine.Apply(ctx, testutil.Decode(t, testutil.Sample), ops)
	require.NoError(t, err)
	assert.True(t, first.Changed)

	second, err := engine.Apply(ctx, first.Document, ops)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, first.Document, second.Document)
}

func TestApply_LayerOperations(t *testing.T) {
	testCases := []struct {
		name     string
		ops      []Operation
		expected []string
	}{
		{name: "move to end", ops: []Operation{MoveLayer("Base", 1)}, expected: []string{"Symbol", "Base"}},
		{name: "move clamps high", ops: []Operation{MoveLayer("Base", 99)}, expected: []string{"Symbol", "Base"}},
		{name: "move clamps low", ops: []Operation{MoveLayer("Symbol", -3)}, expected: []string{"Symbol", "Base"}},
		{name: "copy appends", ops: []Operation{CopyLayer("Base", "Base2")}, expected: []string{"Base", "Symbol", "Base2"}},
		{name: "add at clamped position", ops: []Operation{AddLayer("Nav").At(-1)}, expected: []string{"Nav", "Base", "Symbol"}},
		{name: "add appends by default", ops: []Operation{AddLayer("Nav")}, expected: []string{"Base", "Symbol", "Nav"}},
		{name: "remove", ops: []Operation{RemoveLayer("Symbol")}, expected: []string{"Base"}},
		{name: "remove then re-add", ops: []Operation{RemoveLayer("Symbol"), AddLayer("Symbol")}, expected: []string{"Base", "Symbol"}},
		{name: "add from working copy", ops: []Operation{AddLayer("Again").From(":Symbol")}, expected: []string{"Base", "Symbol", "Again"}},
		{name: "rename by set", ops: []Operation{Set("$.layers[1].name", "Sym")}, expected: []string{"Base", "Sym"}},
	}

	ctx := testutil.Context(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := New().Apply(ctx, baseSymbol(t), tc.ops)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res.Document.LayerNames())
		})
	}
}

func TestApply_CopyIsIndependent(t *testing.T) {
	res, err := New().Apply(testutil.Context(t), baseSymbol(t), []Operation{
		CopyLayer("Base", "Copy"),
		Set(":Copy[0]", "&kp Z"),
	})
	require.NoError(t, err)

	base, _ := res.Document.Layer("Base")
	cp, _ := res.Document.Layer("Copy")
	assert.Equal(t, "&kp A", base.Bindings[0].String())
	assert.Equal(t, "&kp Z", cp.Bindings[0].String())
}

func TestApply_ExternalSources(t *testing.T) {
	other := testutil.Doc(t,
		"Nav: &kp LEFT, &kp DOWN, &kp RIGHT",
		"Num: &kp N7, &kp N8, &kp N9",
		"Fn: &kp F1, &kp F2, &kp F3",
	)
	other.Title = "Other"
	other.CustomBehaviors["dbl"] = &layout.CustomBehavior{
		Name:  "dbl",
		Kind:  layout.KindMacro,
		Macro: &layout.Macro{Bindings: []layout.Binding{layout.MustParseBinding("&kp A"), layout.MustParseBinding("&kp A")}},
	}
	src := &memSources{docs: map[string]*layout.Document{"other.json": other}}
	engine := New(WithSource(src.load))
	ctx := testutil.Context(t)

	res, err := engine.Apply(ctx, baseSymbol(t), []Operation{
		AddLayer("Nav").At(1).From("other.json:Nav"),
		AddLayers(`other.json$.layers[?(@.name!="Nav")]`),
		SetFrom("$.title", "other.json$.title"),
		SetFrom(":Base[0:2]", "other.json$.layers.Fn[1:3]"),
		AddBehaviors("other.json$.custom_behaviors"),
	})
	require.NoError(t, err)

	doc := res.Document
	assert.Equal(t, []string{"Base", "Nav", "Symbol", "Num", "Fn"}, doc.LayerNames())
	assert.Equal(t, "Other", doc.Title)
	base, _ := doc.Layer("Base")
	assert.Equal(t, "&kp F2", base.Bindings[0].String())
	assert.Equal(t, "&kp F3", base.Bindings[1].String())
	assert.Equal(t, "&kp C", base.Bindings[2].String())
	assert.Contains(t, doc.CustomBehaviors, "dbl")

	assert.Equal(t, map[string]int{"other.json": 1}, src.loads, "each source is loaded once per batch")

	_, err = engine.Apply(ctx, baseSymbol(t), []Operation{Get("$.title"), SetFrom("$.title", "other.json$.title")})
	require.NoError(t, err)
	assert.Equal(t, 2, src.loads["other.json"], "the cache does not outlive a batch")
}

func TestApply_SourceErrors(t *testing.T) {
	src := &memSources{docs: map[string]*layout.Document{
		"short.json": testutil.Doc(t, "Tiny: &kp A"),
		"other.json": baseSymbol(t),
	}}
	engine := New(WithSource(src.load))

	testCases := []struct {
		name  string
		op    Operation
		check func(t *testing.T, err error)
	}{
		{
			name: "missing file",
			op:   AddLayers("missing.json$.layers"),
			check: func(t *testing.T, err error) {
				var v *query.ResolutionError
				require.True(t, errors.As(err, &v))
				assert.Contains(t, v.Reason, "no such file")
			},
		},
		{
			name: "no padding",
			op:   AddLayer("Tiny").From("short.json:Tiny"),
			check: func(t *testing.T, err error) {
				var v *layout.InvariantViolation
				require.True(t, errors.As(err, &v))
				assert.Equal(t, layout.RuleBindingCount, v.Rule)
			},
		},
		{
			name: "arity mismatch",
			op:   SetFrom("$.layers[*].name", "other.json$.layers[*].name, $.title"),
			check: func(t *testing.T, err error) {
				var v *ArityMismatchError
				require.True(t, errors.As(err, &v))
				assert.Equal(t, 2, v.Targets)
				assert.Equal(t, 3, v.Values)
			},
		},
		{
			name: "single source value with several targets",
			op:   SetFrom("$.layers[*].name", "other.json$.title"),
			check: func(t *testing.T, err error) {
				var v *ArityMismatchError
				require.True(t, errors.As(err, &v))
				assert.Equal(t, 2, v.Targets)
				assert.Equal(t, 1, v.Values)
			},
		},
		{
			name: "bad reference",
			op:   AddLayers("other.json"),
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "expected PATH$QUERY or PATH:LAYER")
			},
		},
		{
			name: "not a layer",
			op:   AddLayers("other.json$.title"),
			check: func(t *testing.T, err error) {
				var v *query.ResolutionError
				require.True(t, errors.As(err, &v))
			},
		},
		{
			name: "duplicate import",
			op:   AddLayers("other.json$.layers[0]"),
			check: func(t *testing.T, err error) {
				var v *layout.InvariantViolation
				require.True(t, errors.As(err, &v))
				assert.Equal(t, layout.RuleDuplicateLayer, v.Rule)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Apply(testutil.Context(t), baseSymbol(t), []Operation{tc.op})
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestApply_SetPairsValues(t *testing.T) {
	src := &memSources{docs: map[string]*layout.Document{
		"names.json": testutil.Doc(t, "Alpha: &none, &none, &none", "Beta: &none, &none, &none"),
	}}
	res, err := New(WithSource(src.load)).Apply(testutil.Context(t), baseSymbol(t), []Operation{
		SetFrom("$.layers[*].name", "names.json$.layers[*].name"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta"}, res.Document.LayerNames())
}

func TestApply_SetBroadcastsLiteral(t *testing.T) {
	res, err := New().Apply(testutil.Context(t), baseSymbol(t), []Operation{Set(":Base[*]", "&kp X")})
	require.NoError(t, err)

	base, _ := res.Document.Layer("Base")
	for _, b := range base.Bindings {
		assert.Equal(t, "&kp X", b.String())
	}
}

func TestApply_SourceAliases(t *testing.T) {
	other := testutil.Doc(t, "Base: &kp Q, &kp W, &kp E", "Nav: &kp LEFT, &kp DOWN, &kp RIGHT")
	other.Title = "Other"
	other.Author = "someone"
	other.Description = "imported"
	other.CustomBehaviors["dbl"] = &layout.CustomBehavior{
		Name:  "dbl",
		Kind:  layout.KindMacro,
		Macro: &layout.Macro{Bindings: []layout.Binding{layout.MustParseBinding("&kp A"), layout.MustParseBinding("&kp A")}},
	}
	src := &memSources{docs: map[string]*layout.Document{"other.json": other}}

	var ops []Operation
	for _, line := range []string{
		"add-behaviors other.json:behaviors",
		"set :meta=@other.json:meta",
		"set :Base[0]=@other.json:Base[0]",
		"set :Symbol[1:3]=@other.json:Nav[1:3]",
	} {
		op, err := ParseOperation(line)
		require.NoError(t, err)
		ops = append(ops, op)
	}

	res, err := New(WithSource(src.load)).Apply(testutil.Context(t), baseSymbol(t), ops)
	require.NoError(t, err)

	doc := res.Document
	assert.Contains(t, doc.CustomBehaviors, "dbl")
	assert.Equal(t, "Other", doc.Title)
	assert.Equal(t, "someone", doc.Author)
	assert.Equal(t, "imported", doc.Description)
	base, _ := doc.Layer("Base")
	assert.Equal(t, "&kp Q", base.Bindings[0].String())
	assert.Equal(t, "&kp B", base.Bindings[1].String())
	sym, _ := doc.Layer("Symbol")
	assert.Equal(t, "&kp N1", sym.Bindings[0].String())
	assert.Equal(t, "&kp DOWN", sym.Bindings[1].String())
	assert.Equal(t, "&kp RIGHT", sym.Bindings[2].String())
}

func TestApply_DeferredValidation(t *testing.T) {
	ctx := testutil.Context(t)
	ops := []Operation{Set(":Base[2]", "&mo 2"), AddLayer("Nav")}

	_, err := New(WithProfile(testutil.Profile(3))).Apply(ctx, baseSymbol(t), ops)
	var batchErr *BatchError
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, 1, batchErr.Index)

	res, err := New(WithProfile(testutil.Profile(3)), WithDeferredValidation()).Apply(ctx, baseSymbol(t), ops)
	require.NoError(t, err)
	assert.Equal(t, []string{"Base", "Symbol", "Nav"}, res.Document.LayerNames())

	_, err = New(WithProfile(testutil.Profile(3)), WithDeferredValidation()).Apply(ctx, baseSymbol(t), []Operation{
		Set(":Base[2]", "&mo 5"),
		Set("$.title", "x"),
	})
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, 2, batchErr.Index)
}
