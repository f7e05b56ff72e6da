package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/keygrid/internal/profile"
)

func opts(kv ...string) []profile.Option {
	out := make([]profile.Option, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, profile.Option{Key: kv[i], Value: kv[i+1]})
	}
	return out
}

func TestMergeKconfig(t *testing.T) {
	testCases := []struct {
		name     string
		layers   [][]profile.Option
		expected []profile.Option
	}{
		{
			name:     "later layers win",
			layers:   [][]profile.Option{opts("A", "n"), opts("A", "y", "B", "y"), opts("B", "n")},
			expected: opts("A", "y", "B", "n"),
		},
		{
			name:     "prefix is ignored when comparing keys",
			layers:   [][]profile.Option{opts("CONFIG_A", "n"), opts("A", "y")},
			expected: opts("A", "y"),
		},
		{
			name:     "first seen order",
			layers:   [][]profile.Option{opts("Z", "1", "A", "1"), opts("M", "2", "Z", "2")},
			expected: opts("Z", "2", "A", "1", "M", "2"),
		},
		{
			name:     "key-wise union within one layer",
			layers:   [][]profile.Option{opts("A", "1", "A", "2")},
			expected: opts("A", "2"),
		},
		{
			name: "empty",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MergeKconfig(tc.layers...))
		})
	}
}

func TestParseDirectives(t *testing.T) {
	got, err := ParseDirectives([]string{"CONFIG_A=y", "", "# comment", " B = \"text\" ", "C="})
	require.NoError(t, err)
	assert.Equal(t, opts("A", "y", "B", `"text"`, "C", ""), got)

	_, err = ParseDirectives([]string{"=y"})
	assert.ErrorContains(t, err, "directive 1")
}

func TestFormatKconfig(t *testing.T) {
	assert.Equal(t, "CONFIG_A=y\nCONFIG_B=n\n", formatKconfig(opts("A", "y", "B", "n")))
	assert.Empty(t, formatKconfig(nil))
}
