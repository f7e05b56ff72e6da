package query

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		expr     string
		expected [][]Segment
	}{
		{
			name:     "root",
			expr:     "$",
			expected: [][]Segment{nil},
		},
		{
			name: "fields and index",
			expr: "$.layers[1].bindings",
			expected: [][]Segment{{
				{Kind: SegmentField, Name: "layers", Offset: 1},
				{Kind: SegmentIndex, Index: 1, Offset: 8},
				{Kind: SegmentField, Name: "bindings", Offset: 11},
			}},
		},
		{
			name: "negative index",
			expr: "$.layers[-1]",
			expected: [][]Segment{{
				{Kind: SegmentField, Name: "layers", Offset: 1},
				{Kind: SegmentIndex, Index: -1, Offset: 8},
			}},
		},
		{
			name: "slice",
			expr: "$.layers[0:2]",
			expected: [][]Segment{{
				{Kind: SegmentField, Name: "layers", Offset: 1},
				{Kind: SegmentSlice, Start: intPtr(0), End: intPtr(2), Offset: 8},
			}},
		},
		{
			name: "open slice and wildcard",
			expr: "$.layers[:1][*]",
			expected: [][]Segment{{
				{Kind: SegmentField, Name: "layers", Offset: 1},
				{Kind: SegmentSlice, End: intPtr(1), Offset: 8},
				{Kind: SegmentSlice, Offset: 12},
			}},
		},
		{
			name: "quoted name",
			expr: `$.layers["My Layer"]`,
			expected: [][]Segment{{
				{Kind: SegmentField, Name: "layers", Offset: 1},
				{Kind: SegmentField, Name: "My Layer", Offset: 8},
			}},
		},
		{
			name: "filter",
			expr: `$.layers[?(@.name != "Base")]`,
			expected: [][]Segment{{
				{Kind: SegmentField, Name: "layers", Offset: 1},
				{Kind: SegmentFilter, Offset: 8, Filter: &Predicate{Field: "name", Op: OpNotEqual, Value: "Base"}},
			}},
		},
		{
			name: "filter on integer",
			expr: `$.custom_behaviors[?(@.tapping_term_ms==200)]`,
			expected: [][]Segment{{
				{Kind: SegmentField, Name: "custom_behaviors", Offset: 1},
				{Kind: SegmentFilter, Offset: 18, Filter: &Predicate{Field: "tapping_term_ms", Op: OpEqual, Value: 200}},
			}},
		},
		{
			name: "layer alias",
			expr: ":Base[0]",
			expected: [][]Segment{{
				{Kind: SegmentField, Name: "layers", Offset: 0},
				{Kind: SegmentField, Name: "Base", Offset: 0},
				{Kind: SegmentIndex, Index: 0, Offset: 5},
			}},
		},
		{
			name: "behaviors alias",
			expr: ":behaviors.hm",
			expected: [][]Segment{{
				{Kind: SegmentField, Name: "custom_behaviors", Offset: 0},
				{Kind: SegmentField, Name: "hm", Offset: 10},
			}},
		},
		{
			name: "meta alias",
			expr: ":meta",
			expected: [][]Segment{
				{{Kind: SegmentField, Name: "title"}},
				{{Kind: SegmentField, Name: "author"}},
				{{Kind: SegmentField, Name: "description"}},
			},
		},
		{
			name: "union",
			expr: "$.title, $.layers[0]",
			expected: [][]Segment{
				{{Kind: SegmentField, Name: "title", Offset: 1}},
				{
					{Kind: SegmentField, Name: "layers", Offset: 10},
					{Kind: SegmentIndex, Index: 0, Offset: 17},
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Parse(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.expr, q.String())
			if diff := cmp.Diff(tc.expected, q.Paths()); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		expr   string
		offset int
	}{
		{name: "empty", expr: "", offset: 0},
		{name: "missing root", expr: "layers", offset: 0},
		{name: "double dot", expr: "$..x", offset: 2},
		{name: "unterminated bracket", expr: "$.layers[", offset: 9},
		{name: "unterminated string", expr: `$.layers["Base`, offset: 14},
		{name: "bad filter operator", expr: `$.layers[?(@.name ~ "x")]`, offset: 18},
		{name: "bad index", expr: "$.layers[x]", offset: 9},
		{name: "empty union member", expr: "$.title,", offset: 8},
		{name: "stray character", expr: "$.title!", offset: 7},
		{name: "meta with segments", expr: ":meta.x", offset: 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.expr)
			require.Error(t, err)

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr), "expected *SyntaxError, got %T", err)
			assert.Equal(t, tc.offset, syntaxErr.Offset)
			assert.Equal(t, tc.expr, syntaxErr.Expr)
		})
	}
}

func TestPath_RoundTrip(t *testing.T) {
	paths := []Path{
		{},
		{NewPathSegment("title")},
		{NewPathSegmentWithIndex("layers", 1), NewPathSegmentWithIndex("bindings", 3)},
		{NewPathSegment("custom_behaviors"), NewPathSegment("hm"), NewPathSegment("tapping_term_ms")},
		{NewPathSegment("layers"), NewPathSegment("My Layer")},
	}

	for _, path := range paths {
		t.Run(path.String(), func(t *testing.T) {
			q, err := Parse(path.String())
			require.NoError(t, err)
			require.Len(t, q.Paths(), 1)

			var rebuilt Path
			for _, seg := range q.Paths()[0] {
				switch seg.Kind {
				case SegmentField:
					rebuilt = rebuilt.Field(seg.Name)
				case SegmentIndex:
					rebuilt = rebuilt.At(seg.Index)
				default:
					t.Fatalf("unexpected segment kind %v", seg.Kind)
				}
			}
			assert.True(t, path.Equal(rebuilt), "want %s, got %s", path, rebuilt)
		})
	}
}
