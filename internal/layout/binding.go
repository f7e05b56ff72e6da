package layout

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ParamKind tags the variant held by a Param.
type ParamKind int

const (
	// ParamInt is a literal integer parameter.
	ParamInt ParamKind = iota
	// ParamSymbol is a key-code or layer-name symbol.
	ParamSymbol
	// ParamBehavior is a nested behavior reference.
	ParamBehavior
)

// String returns the lowercase name of the kind.
func (k ParamKind) String() string {
	switch k {
	case ParamInt:
		return "int"
	case ParamSymbol:
		return "symbol"
	case ParamBehavior:
		return "behavior"
	default:
		return fmt.Sprintf("ParamKind(%d)", int(k))
	}
}

// Param is a single binding parameter. Exactly one of Int, Symbol or Ref is
// meaningful, selected by Kind.
type Param struct {
	Kind   ParamKind
	Int    int
	Symbol string
	Ref    *Binding
}

// Int returns an integer literal parameter.
func Int(n int) Param { return Param{Kind: ParamInt, Int: n} }

// Sym returns a symbol parameter.
func Sym(s string) Param { return Param{Kind: ParamSymbol, Symbol: s} }

// Ref returns a nested behavior reference parameter.
func Ref(b Binding) Param { return Param{Kind: ParamBehavior, Ref: &b} }

// Binding is a single key's behavior reference plus its parameters.
type Binding struct {
	Behavior string
	Params   []Param
}

// Bind builds a binding from a behavior id and parameters.
func Bind(behavior string, params ...Param) Binding {
	return Binding{Behavior: behavior, Params: params}
}

// BehaviorName strips the leading '&' from a behavior id.
func BehaviorName(id string) string {
	return strings.TrimPrefix(id, "&")
}

// ParseBinding parses the compact textual form of a binding, e.g. "&kp A",
// "&mt LSHIFT B" or "&ht (&kp A) 2". Parenthesized groups starting with '&'
// are nested behavior references; other parentheses belong to the symbol
// (as in "LS(A)").
func ParseBinding(s string) (Binding, error) {
	toks, err := splitTokens(strings.TrimSpace(s))
	if err != nil {
		return Binding{}, fmt.Errorf("binding %q: %w", s, err)
	}
	if len(toks) == 0 {
		return Binding{}, errors.New("binding is empty")
	}
	if !strings.HasPrefix(toks[0], "&") || len(toks[0]) == 1 {
		return Binding{}, fmt.Errorf("binding %q: must start with a behavior reference like &kp", s)
	}

	b := Binding{Behavior: toks[0]}
	for _, tok := range toks[1:] {
		p, err := parseParamToken(tok)
		if err != nil {
			return Binding{}, fmt.Errorf("binding %q: %w", s, err)
		}
		b.Params = append(b.Params, p)
	}
	return b, nil
}

// MustParseBinding is like ParseBinding but panics on error. It is intended
// for fixtures and package-level defaults.
func MustParseBinding(s string) Binding {
	b, err := ParseBinding(s)
	if err != nil {
		panic(err)
	}
	return b
}

func splitTokens(s string) ([]string, error) {
	var toks []string
	depth, start := 0, -1
	for i, r := range s {
		switch {
		case r == '(':
			if start < 0 {
				start = i
			}
			depth++
		case r == ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced ')' at offset %d", i)
			}
		case r == ' ' || r == '\t' || r == '\n':
			if depth == 0 && start >= 0 {
				toks = append(toks, s[start:i])
				start = -1
			}
			continue
		default:
			if start < 0 {
				start = i
			}
		}
	}
	if depth != 0 {
		return nil, errors.New("unbalanced '('")
	}
	if start >= 0 {
		toks = append(toks, s[start:])
	}
	return toks, nil
}

func parseParamToken(tok string) (Param, error) {
	if strings.HasPrefix(tok, "(&") && strings.HasSuffix(tok, ")") {
		inner, err := ParseBinding(tok[1 : len(tok)-1])
		if err != nil {
			return Param{}, err
		}
		return Ref(inner), nil
	}
	if strings.HasPrefix(tok, "&") {
		if len(tok) == 1 {
			return Param{}, errors.New("empty behavior reference")
		}
		return Ref(Binding{Behavior: tok}), nil
	}
	if n, err := strconv.Atoi(tok); err == nil {
		return Int(n), nil
	}
	return Sym(tok), nil
}

// String renders the compact textual form accepted by ParseBinding.
func (b Binding) String() string {
	var sb strings.Builder
	sb.WriteString(b.Behavior)
	for _, p := range b.Params {
		sb.WriteByte(' ')
		sb.WriteString(p.String())
	}
	return sb.String()
}

// String renders the parameter as it appears inside a compact binding.
func (p Param) String() string {
	switch p.Kind {
	case ParamInt:
		return strconv.Itoa(p.Int)
	case ParamSymbol:
		return p.Symbol
	case ParamBehavior:
		if p.Ref == nil {
			return ""
		}
		if len(p.Ref.Params) == 0 {
			return p.Ref.Behavior
		}
		return "(" + p.Ref.String() + ")"
	}
	return ""
}

// Equal reports whether two bindings are structurally identical.
func (b Binding) Equal(o Binding) bool {
	if b.Behavior != o.Behavior || len(b.Params) != len(o.Params) {
		return false
	}
	for i := range b.Params {
		if !b.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether two params are structurally identical.
func (p Param) Equal(o Param) bool {
	if p.Kind != o.Kind {
		return false
	}
	switch p.Kind {
	case ParamInt:
		return p.Int == o.Int
	case ParamSymbol:
		return p.Symbol == o.Symbol
	default:
		if p.Ref == nil || o.Ref == nil {
			return p.Ref == o.Ref
		}
		return p.Ref.Equal(*o.Ref)
	}
}

// Clone returns a deep copy of the binding.
func (b Binding) Clone() Binding {
	out := Binding{Behavior: b.Behavior}
	if b.Params != nil {
		out.Params = make([]Param, len(b.Params))
		for i, p := range b.Params {
			out.Params[i] = p.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the param.
func (p Param) Clone() Param {
	if p.Ref != nil {
		ref := p.Ref.Clone()
		p.Ref = &ref
	}
	return p
}

// References returns every behavior id used by the binding, including those
// of nested references, in depth-first order.
func (b Binding) References() []string {
	refs := []string{b.Behavior}
	for _, p := range b.Params {
		if p.Kind == ParamBehavior && p.Ref != nil {
			refs = append(refs, p.Ref.References()...)
		}
	}
	return refs
}

// compact reports whether the binding survives a String/ParseBinding round
// trip unchanged.
func (b Binding) compact() bool {
	for _, p := range b.Params {
		switch p.Kind {
		case ParamSymbol:
			if p.Symbol == "" || strings.ContainsAny(p.Symbol, " \t\n") || strings.HasPrefix(p.Symbol, "&") {
				return false
			}
			if _, err := strconv.Atoi(p.Symbol); err == nil {
				return false
			}
			if strings.HasPrefix(p.Symbol, "(&") {
				return false
			}
		case ParamBehavior:
			if p.Ref == nil || !p.Ref.compact() {
				return false
			}
		}
	}
	return true
}

type bindingWire struct {
	Behavior string  `json:"behavior"`
	Params   []Param `json:"params,omitempty"`
}

// MarshalJSON encodes the binding as its compact string when that is
// lossless, and as an object otherwise.
func (b Binding) MarshalJSON() ([]byte, error) {
	if b.compact() {
		return json.Marshal(b.String())
	}
	return json.Marshal(bindingWire{Behavior: b.Behavior, Params: b.Params})
}

// UnmarshalJSON accepts either the compact string form or the object form.
func (b *Binding) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("binding: empty input")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseBinding(s)
		if err != nil {
			return err
		}
		*b = parsed
		return nil
	case '{':
		var w bindingWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		if w.Behavior == "" {
			return errors.New("binding: missing behavior")
		}
		*b = Binding{Behavior: w.Behavior, Params: w.Params}
		return nil
	default:
		return fmt.Errorf("binding: expected string or object, got %s", data)
	}
}

// MarshalJSON encodes integers as numbers, symbols as strings and nested
// references as binding strings.
func (p Param) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case ParamInt:
		return json.Marshal(p.Int)
	case ParamSymbol:
		return json.Marshal(p.Symbol)
	case ParamBehavior:
		if p.Ref == nil {
			return nil, errors.New("param: nil behavior reference")
		}
		return p.Ref.MarshalJSON()
	}
	return nil, fmt.Errorf("param: unknown kind %d", p.Kind)
}

// UnmarshalJSON decodes a number, a symbol string, or a behavior reference
// (an object, or a string starting with '&').
func (p *Param) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("param: empty input")
	}
	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.HasPrefix(s, "&") {
			ref, err := ParseBinding(s)
			if err != nil {
				return err
			}
			*p = Ref(ref)
			return nil
		}
		*p = Sym(s)
		return nil
	case c == '{':
		var ref Binding
		if err := ref.UnmarshalJSON(data); err != nil {
			return err
		}
		*p = Ref(ref)
		return nil
	case c == '-' || (c >= '0' && c <= '9'):
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("param: %s is not an integer", data)
		}
		*p = Int(n)
		return nil
	default:
		return fmt.Errorf("param: unsupported value %s", data)
	}
}
