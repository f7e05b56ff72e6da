package edit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidOperation is wrapped by every ParseOperation failure.
var ErrInvalidOperation = errors.New("invalid operation")

// ParseOperation parses the textual form of an operation:
//
//	get QUERY
//	set QUERY=VALUE
//	set QUERY=@SOURCE
//	add-layer NAME[@POS][=SOURCE]
//	remove-layer NAME
//	move-layer NAME@POS
//	copy-layer NAME=AS
//	add-layers SOURCE
//	remove-behavior NAME
//	add-behaviors SOURCE
func ParseOperation(s string) (Operation, error) {
	s = strings.TrimSpace(s)
	verb, rest, _ := strings.Cut(s, " ")
	rest = strings.TrimSpace(rest)

	fail := func(format string, args ...any) (Operation, error) {
		return Operation{}, fmt.Errorf("%w %q: %s", ErrInvalidOperation, s, fmt.Sprintf(format, args...))
	}
	if rest == "" {
		return fail("missing argument")
	}

	switch OpKind(verb) {
	case OpGet:
		return Get(rest), nil

	case OpSet:
		i := assignIndex(rest)
		if i < 0 {
			return fail("expected QUERY=VALUE")
		}
		target := strings.TrimSpace(rest[:i])
		value := rest[i+1:]
		if target == "" {
			return fail("missing query")
		}
		if src, ok := strings.CutPrefix(value, "@"); ok {
			return SetFrom(target, src), nil
		}
		return Set(target, value), nil

	case OpAddLayer:
		head, src, hasSrc := strings.Cut(rest, "=")
		name, pos, hasPos := strings.Cut(head, "@")
		op := AddLayer(strings.TrimSpace(name))
		if op.Name == "" {
			return fail("missing layer name")
		}
		if hasPos {
			n, err := strconv.Atoi(strings.TrimSpace(pos))
			if err != nil {
				return fail("position %q is not an integer", pos)
			}
			op = op.At(n)
		}
		if hasSrc {
			op = op.From(strings.TrimSpace(src))
		}
		return op, nil

	case OpMoveLayer:
		name, pos, ok := strings.Cut(rest, "@")
		if !ok {
			return fail("expected NAME@POS")
		}
		n, err := strconv.Atoi(strings.TrimSpace(pos))
		if err != nil {
			return fail("position %q is not an integer", pos)
		}
		return MoveLayer(strings.TrimSpace(name), n), nil

	case OpCopyLayer:
		name, as, ok := strings.Cut(rest, "=")
		if !ok || strings.TrimSpace(as) == "" {
			return fail("expected NAME=AS")
		}
		return CopyLayer(strings.TrimSpace(name), strings.TrimSpace(as)), nil

	case OpRemoveLayer:
		return RemoveLayer(rest), nil
	case OpAddLayers:
		return AddLayers(rest), nil
	case OpRemoveBehavior:
		return RemoveBehavior(rest), nil
	case OpAddBehaviors:
		return AddBehaviors(rest), nil
	}
	return fail("unknown verb %q", verb)
}

// assignIndex finds the '=' separating a query from its value, skipping
// any inside brackets or quotes (filters use "==").
func assignIndex(s string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
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
		case c == '=' && depth == 0:
			return i
		}
	}
	return -1
}
