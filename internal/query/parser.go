package query

import (
	"strconv"
	"strings"
)

// Query is a parsed path expression. It may hold several independent paths
// (a comma union or a multi-target alias).
type Query struct {
	expr  string
	paths [][]Segment
}

// String returns the original expression.
func (q *Query) String() string {
	return q.expr
}

// Paths returns the parsed segment lists, one per union member.
func (q *Query) Paths() [][]Segment {
	return q.paths
}

// MustParse is like Parse but panics on error.
func MustParse(expr string) *Query {
	q, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return q
}

// Parse parses a query expression into typed segments.
func Parse(expr string) (*Query, error) {
	p := &parser{expr: expr}
	q := &Query{expr: expr}

	parts, err := p.splitUnion()
	if err != nil {
		return nil, err
	}
	for _, part := range parts {
		paths, err := p.parsePath(part.text, part.offset)
		if err != nil {
			return nil, err
		}
		q.paths = append(q.paths, paths...)
	}
	return q, nil
}

type parser struct {
	expr string
}

type unionPart struct {
	text   string
	offset int
}

func (p *parser) errorf(offset int, msg string) *SyntaxError {
	return &SyntaxError{Expr: p.expr, Offset: offset, Msg: msg}
}

// splitUnion splits the expression on commas that are outside brackets and
// quoted strings.
func (p *parser) splitUnion() ([]unionPart, error) {
	var parts []unionPart
	depth, start := 0, 0
	var quote byte

	emit := func(end int) error {
		raw := p.expr[start:end]
		trimmed := strings.TrimLeft(raw, " \t")
		offset := start + len(raw) - len(trimmed)
		trimmed = strings.TrimRight(trimmed, " \t")
		if trimmed == "" {
			return p.errorf(offset, "empty path")
		}
		parts = append(parts, unionPart{text: trimmed, offset: offset})
		return nil
	}

	for i := 0; i < len(p.expr); i++ {
		c := p.expr[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth < 0 {
				return nil, p.errorf(i, "unexpected ']'")
			}
		case c == ',' && depth == 0:
			if err := emit(i); err != nil {
				return nil, err
			}
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, p.errorf(len(p.expr), "unterminated string")
	}
	if depth != 0 {
		return nil, p.errorf(len(p.expr), "unterminated bracket")
	}
	if err := emit(len(p.expr)); err != nil {
		return nil, err
	}
	return parts, nil
}

func (p *parser) parsePath(s string, base int) ([][]Segment, error) {
	switch s[0] {
	case '$':
		segs, err := p.parseSegments(s, 1, base)
		if err != nil {
			return nil, err
		}
		return [][]Segment{segs}, nil
	case ':':
		return p.parseAlias(s, base)
	default:
		return nil, p.errorf(base, "query must start with '$' or ':'")
	}
}

func (p *parser) parseAlias(s string, base int) ([][]Segment, error) {
	var name string
	i := 1
	if i < len(s) && (s[i] == '"' || s[i] == '\'') {
		str, next, err := p.readQuoted(s, i, base)
		if err != nil {
			return nil, err
		}
		name, i = str, next
	} else {
		name, i = readIdent(s, i)
	}
	if name == "" {
		return nil, p.errorf(base+1, "expected alias or layer name after ':'")
	}

	rest, err := p.parseSegments(s, i, base)
	if err != nil {
		return nil, err
	}

	switch name {
	case "meta":
		if len(rest) > 0 {
			return nil, p.errorf(base+i, "alias :meta cannot be followed by segments")
		}
		return [][]Segment{
			{fieldSegment("title", base)},
			{fieldSegment("author", base)},
			{fieldSegment("description", base)},
		}, nil
	case "behaviors":
		return [][]Segment{append([]Segment{fieldSegment("custom_behaviors", base)}, rest...)}, nil
	default:
		return [][]Segment{append([]Segment{fieldSegment("layers", base), fieldSegment(name, base)}, rest...)}, nil
	}
}

func fieldSegment(name string, offset int) Segment {
	return Segment{Kind: SegmentField, Name: name, Offset: offset}
}

func (p *parser) parseSegments(s string, i, base int) ([]Segment, error) {
	var segs []Segment
	for i < len(s) {
		switch s[i] {
		case '.':
			name, next := readIdent(s, i+1)
			if name == "" {
				return nil, p.errorf(base+i+1, "expected field name after '.'")
			}
			segs = append(segs, fieldSegment(name, base+i))
			i = next
		case '[':
			seg, next, err := p.parseBracket(s, i, base)
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg)
			i = next
		default:
			return nil, p.errorf(base+i, "unexpected character "+strconv.Quote(string(s[i])))
		}
	}
	return segs, nil
}

// parseBracket parses the segment starting at the '[' at s[i] and returns the
// offset just past its closing ']'.
func (p *parser) parseBracket(s string, i, base int) (Segment, int, error) {
	open := i
	i++
	if i >= len(s) {
		return Segment{}, 0, p.errorf(base+i, "unterminated bracket")
	}

	switch c := s[i]; {
	case c == '?':
		return p.parseFilter(s, open, base)
	case c == '"' || c == '\'':
		name, next, err := p.readQuoted(s, i, base)
		if err != nil {
			return Segment{}, 0, err
		}
		next, err = p.expect(s, next, "]", base)
		if err != nil {
			return Segment{}, 0, err
		}
		return fieldSegment(name, base+open), next, nil
	case c == '*':
		next, err := p.expect(s, i+1, "]", base)
		if err != nil {
			return Segment{}, 0, err
		}
		return Segment{Kind: SegmentSlice, Offset: base + open}, next, nil
	}

	start, next, hasStart, err := p.readInt(s, i, base)
	if err != nil {
		return Segment{}, 0, err
	}
	if next < len(s) && s[next] == ':' {
		end, after, hasEnd, err := p.readInt(s, next+1, base)
		if err != nil {
			return Segment{}, 0, err
		}
		after, err = p.expect(s, after, "]", base)
		if err != nil {
			return Segment{}, 0, err
		}
		seg := Segment{Kind: SegmentSlice, Offset: base + open}
		if hasStart {
			seg.Start = &start
		}
		if hasEnd {
			seg.End = &end
		}
		return seg, after, nil
	}
	if !hasStart {
		return Segment{}, 0, p.errorf(base+i, "expected index, slice, quoted name or filter")
	}
	next, err = p.expect(s, next, "]", base)
	if err != nil {
		return Segment{}, 0, err
	}
	return Segment{Kind: SegmentIndex, Index: start, Offset: base + open}, next, nil
}

func (p *parser) parseFilter(s string, open, base int) (Segment, int, error) {
	i, err := p.expect(s, open+1, "?(@.", base)
	if err != nil {
		return Segment{}, 0, err
	}
	field, i := readIdent(s, i)
	if field == "" {
		return Segment{}, 0, p.errorf(base+i, "expected field name in filter")
	}
	i = skipSpaces(s, i)

	var op Operator
	switch {
	case strings.HasPrefix(s[i:], "=="):
		op = OpEqual
	case strings.HasPrefix(s[i:], "!="):
		op = OpNotEqual
	default:
		return Segment{}, 0, p.errorf(base+i, "expected '==' or '!=' in filter")
	}
	i = skipSpaces(s, i+2)

	value, i, err := p.readLiteral(s, i, base)
	if err != nil {
		return Segment{}, 0, err
	}
	i = skipSpaces(s, i)
	if i, err = p.expect(s, i, ")]", base); err != nil {
		return Segment{}, 0, err
	}
	return Segment{
		Kind:   SegmentFilter,
		Offset: base + open,
		Filter: &Predicate{Field: field, Op: op, Value: value},
	}, i, nil
}

func (p *parser) readLiteral(s string, i, base int) (any, int, error) {
	if i >= len(s) {
		return nil, 0, p.errorf(base+i, "expected literal")
	}
	if s[i] == '"' || s[i] == '\'' {
		return p.readQuoted(s, i, base)
	}
	for _, kw := range []string{"true", "false"} {
		if strings.HasPrefix(s[i:], kw) {
			return kw == "true", i + len(kw), nil
		}
	}
	n, next, ok, err := p.readInt(s, i, base)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, p.errorf(base+i, "expected string, integer or boolean literal")
	}
	return n, next, nil
}

// readInt reads an optional signed integer. ok is false when no digits are
// present at s[i].
func (p *parser) readInt(s string, i, base int) (n, next int, ok bool, err error) {
	j := i
	if j < len(s) && s[j] == '-' {
		j++
	}
	k := j
	for k < len(s) && s[k] >= '0' && s[k] <= '9' {
		k++
	}
	if k == j {
		if j != i {
			return 0, 0, false, p.errorf(base+i, "expected digits after '-'")
		}
		return 0, i, false, nil
	}
	n, convErr := strconv.Atoi(s[i:k])
	if convErr != nil {
		return 0, 0, false, p.errorf(base+i, "integer out of range")
	}
	return n, k, true, nil
}

func (p *parser) readQuoted(s string, i, base int) (string, int, error) {
	quote := s[i]
	var sb strings.Builder
	for j := i + 1; j < len(s); j++ {
		c := s[j]
		switch {
		case c == '\\' && j+1 < len(s):
			j++
			sb.WriteByte(s[j])
		case c == quote:
			return sb.String(), j + 1, nil
		default:
			sb.WriteByte(c)
		}
	}
	return "", 0, p.errorf(base+i, "unterminated string")
}

func (p *parser) expect(s string, i int, tok string, base int) (int, error) {
	if !strings.HasPrefix(s[i:], tok) {
		return 0, p.errorf(base+i, "expected "+strconv.Quote(tok))
	}
	return i + len(tok), nil
}

func readIdent(s string, i int) (string, int) {
	j := i
	for j < len(s) && isIdentByte(s[j]) {
		j++
	}
	return s[i:j], j
}

func skipSpaces(s string, i int) int {
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return i
}

// Compile is Parse under the name used by callers that keep compiled
// queries around for reuse.
func Compile(expr string) (*Query, error) {
	return Parse(expr)
}
