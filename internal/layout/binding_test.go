package layout

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBinding(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expectErr bool
		expected  Binding
	}{
		{
			name:     "key press",
			raw:      "&kp A",
			expected: Bind("&kp", Sym("A")),
		},
		{
			name:     "no params",
			raw:      "&trans",
			expected: Bind("&trans"),
		},
		{
			name:     "integer param",
			raw:      "&mo 1",
			expected: Bind("&mo", Int(1)),
		},
		{
			name:     "modifier function stays a symbol",
			raw:      "&kp LS(A)",
			expected: Bind("&kp", Sym("LS(A)")),
		},
		{
			name:     "bare nested reference",
			raw:      "&ht &kp A",
			expected: Bind("&ht", Ref(Bind("&kp")), Sym("A")),
		},
		{
			name:     "parenthesized nested reference",
			raw:      "&ht (&kp LSHIFT) 2",
			expected: Bind("&ht", Ref(Bind("&kp", Sym("LSHIFT"))), Int(2)),
		},
		{
			name:      "error - empty",
			raw:       "   ",
			expectErr: true,
		},
		{
			name:      "error - missing ampersand",
			raw:       "kp A",
			expectErr: true,
		},
		{
			name:      "error - unbalanced parens",
			raw:       "&kp (&kp A",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := ParseBinding(tc.raw)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(b), "got %s", b)
		})
	}
}

func TestBinding_StringRoundTrip(t *testing.T) {
	for _, raw := range []string{"&kp A", "&mt LSHIFT B", "&ht (&kp LSHIFT) 2", "&kp LC(LS(Z))", "&none"} {
		t.Run(raw, func(t *testing.T) {
			b, err := ParseBinding(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, b.String())
		})
	}
}

func TestBinding_JSON(t *testing.T) {
	t.Run("compact string", func(t *testing.T) {
		data, err := json.Marshal(Bind("&kp", Sym("A")))
		require.NoError(t, err)
		assert.JSONEq(t, `"&kp A"`, string(data))
	})

	t.Run("numeric symbol falls back to object form", func(t *testing.T) {
		b := Bind("&kp", Sym("1"))
		data, err := json.Marshal(b)
		require.NoError(t, err)
		assert.JSONEq(t, `{"behavior":"&kp","params":["1"]}`, string(data))

		var back Binding
		require.NoError(t, json.Unmarshal(data, &back))
		assert.True(t, b.Equal(back))
	})

	t.Run("object form with nested reference", func(t *testing.T) {
		var b Binding
		require.NoError(t, json.Unmarshal([]byte(`{"behavior":"&hm","params":["LSHIFT",{"behavior":"&kp","params":["A"]}]}`), &b))
		assert.True(t, Bind("&hm", Sym("LSHIFT"), Ref(Bind("&kp", Sym("A")))).Equal(b))
	})

	t.Run("rejects non-integer numbers", func(t *testing.T) {
		var b Binding
		err := json.Unmarshal([]byte(`{"behavior":"&mo","params":[1.5]}`), &b)
		require.Error(t, err)
	})
}

func TestBinding_References(t *testing.T) {
	b := Bind("&hm", Ref(Bind("&mac")), Ref(Bind("&kp", Sym("A"))))
	assert.Equal(t, []string{"&hm", "&mac", "&kp"}, b.References())
}
