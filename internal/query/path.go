package query

import (
	"slices"
	"strconv"
	"strings"
)

// PathSegment is one step of a resolved path: a field or key name with an
// optional element index, e.g. `bindings[3]`.
type PathSegment struct {
	Name  string
	Index int // -1 indicates no index is present.
}

// NewPathSegment creates a new path segment without an index.
func NewPathSegment(name string) PathSegment {
	return PathSegment{Name: name, Index: -1}
}

// NewPathSegmentWithIndex creates a new path segment that includes an index.
func NewPathSegmentWithIndex(name string, index int) PathSegment {
	return PathSegment{Name: name, Index: index}
}

// HasIndex returns true if the path segment has an explicit index.
func (ps PathSegment) HasIndex() bool {
	return ps.Index != -1
}

// Path is the canonical location of a match inside a document, such as
// `$.layers[1].bindings[3]`. An empty path is the document root.
type Path []PathSegment

// String serializes the path into query syntax that evaluates back to the
// same location.
func (p Path) String() string {
	var sb strings.Builder
	sb.WriteByte('$')
	for _, segment := range p {
		if isIdent(segment.Name) {
			sb.WriteByte('.')
			sb.WriteString(segment.Name)
		} else {
			sb.WriteByte('[')
			sb.WriteString(strconv.Quote(segment.Name))
			sb.WriteByte(']')
		}
		if segment.HasIndex() {
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(segment.Index))
			sb.WriteByte(']')
		}
	}
	return sb.String()
}

// Equal checks two paths for equality.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p, other)
}

// Field returns a copy of p extended with a named segment.
func (p Path) Field(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, NewPathSegment(name))
}

// At returns a copy of p whose last segment carries index i.
func (p Path) At(i int) Path {
	out := slices.Clone(p)
	out[len(out)-1].Index = i
	return out
}

// LayerPath is the by-name path of a layer, e.g. `$.layers.Base`.
func LayerPath(name string) Path {
	return Path{NewPathSegment("layers"), NewPathSegment(name)}
}

// BehaviorPath is the path of a custom behavior, e.g. `$.custom_behaviors.hm`.
func BehaviorPath(name string) Path {
	return Path{NewPathSegment("custom_behaviors"), NewPathSegment(name)}
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}
