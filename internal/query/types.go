package query

// SegmentKind tags the variant held by a Segment.
type SegmentKind int

const (
	// SegmentField selects a named field, or an element by name.
	SegmentField SegmentKind = iota
	// SegmentIndex selects one element by position.
	SegmentIndex
	// SegmentSlice selects a half-open range of elements.
	SegmentSlice
	// SegmentFilter selects the elements matching a predicate.
	SegmentFilter
)

// Segment is one parsed step of a query path.
type Segment struct {
	Kind   SegmentKind
	Offset int // byte offset of the segment within the expression

	Name   string
	Index  int
	Start  *int
	End    *int
	Filter *Predicate
}

// Operator is a filter comparison operator.
type Operator string

const (
	OpEqual    Operator = "=="
	OpNotEqual Operator = "!="
)

// Predicate compares a field of each candidate element against a literal.
// Value holds a string, int or bool.
type Predicate struct {
	Field string
	Op    Operator
	Value any
}

// MatchType is the structural type of a matched node.
type MatchType string

const (
	TypeScalar   MatchType = "scalar"
	TypeLayer    MatchType = "layer"
	TypeBinding  MatchType = "binding"
	TypeBehavior MatchType = "behavior"
	TypeList     MatchType = "list"
	TypeDocument MatchType = "document"
)

// Match is one node selected by a query. Value is a copy that shares no
// mutable state with the evaluated document.
type Match struct {
	Value any
	Type  MatchType
	Path  Path
}
