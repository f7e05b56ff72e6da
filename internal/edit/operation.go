package edit

import (
	"strconv"
	"strings"

	"github.com/vk/keygrid/internal/layout"
)

// OpKind names an edit operation.
type OpKind string

const (
	OpGet            OpKind = "get"
	OpSet            OpKind = "set"
	OpAddLayer       OpKind = "add-layer"
	OpRemoveLayer    OpKind = "remove-layer"
	OpMoveLayer      OpKind = "move-layer"
	OpCopyLayer      OpKind = "copy-layer"
	OpAddLayers      OpKind = "add-layers"
	OpRemoveBehavior OpKind = "remove-behavior"
	OpAddBehaviors   OpKind = "add-behaviors"
)

// Operation is one step of a batch. Which fields are used depends on Kind.
type Operation struct {
	Kind OpKind

	// Query is the target of get and set.
	Query string
	// Value is a literal for set: JSON, or bare text taken as a string.
	Value string
	// Source is a source reference for set, add-layer, add-layers and
	// add-behaviors.
	Source string

	// Name is the layer or behavior the operation acts on.
	Name string
	// As is the name of the copy made by copy-layer.
	As string
	// Position is the target index for add-layer and move-layer. Nil means
	// the end for add-layer.
	Position *int
	// Bindings are inline bindings for add-layer.
	Bindings []layout.Binding
	// Behaviors are inline custom behaviors for add-behaviors.
	Behaviors []*layout.CustomBehavior
}

// Get reads the matches of a query.
func Get(query string) Operation {
	return Operation{Kind: OpGet, Query: query}
}

// Set overwrites every match of query with a literal value.
func Set(query, value string) Operation {
	return Operation{Kind: OpSet, Query: query, Value: value}
}

// SetFrom overwrites every match of query with the values of a source
// reference.
func SetFrom(query, source string) Operation {
	return Operation{Kind: OpSet, Query: query, Source: source}
}

// AddLayer appends a layer of default bindings.
func AddLayer(name string) Operation {
	return Operation{Kind: OpAddLayer, Name: name}
}

// RemoveLayer removes a layer by name.
func RemoveLayer(name string) Operation {
	return Operation{Kind: OpRemoveLayer, Name: name}
}

// MoveLayer moves a layer to position, clamped to the valid range.
func MoveLayer(name string, position int) Operation {
	return Operation{Kind: OpMoveLayer, Name: name, Position: &position}
}

// CopyLayer appends a copy of a layer under a new name.
func CopyLayer(name, as string) Operation {
	return Operation{Kind: OpCopyLayer, Name: name, As: as}
}

// AddLayers appends every layer matched by a source reference.
func AddLayers(source string) Operation {
	return Operation{Kind: OpAddLayers, Source: source}
}

// RemoveBehavior removes a custom behavior by name.
func RemoveBehavior(name string) Operation {
	return Operation{Kind: OpRemoveBehavior, Name: name}
}

// AddBehaviors imports every custom behavior matched by a source reference.
func AddBehaviors(source string) Operation {
	return Operation{Kind: OpAddBehaviors, Source: source}
}

// At returns a copy of op targeting position.
func (op Operation) At(position int) Operation {
	op.Position = &position
	return op
}

// From returns a copy of op reading from a source reference.
func (op Operation) From(source string) Operation {
	op.Source = source
	return op
}

// WithBindings returns a copy of op carrying inline bindings.
func (op Operation) WithBindings(bindings []layout.Binding) Operation {
	op.Bindings = bindings
	return op
}

// WithBehaviors returns a copy of op carrying inline custom behaviors.
func (op Operation) WithBehaviors(behaviors ...*layout.CustomBehavior) Operation {
	op.Behaviors = behaviors
	return op
}

// Mutates reports whether the operation can change the document.
func (op Operation) Mutates() bool {
	return op.Kind != OpGet
}

// String renders the textual form accepted by ParseOperation. Inline
// bindings have no textual form and are summarized.
func (op Operation) String() string {
	var sb strings.Builder
	sb.WriteString(string(op.Kind))
	sb.WriteByte(' ')
	switch op.Kind {
	case OpGet:
		sb.WriteString(op.Query)
	case OpSet:
		sb.WriteString(op.Query)
		sb.WriteByte('=')
		if op.Source != "" {
			sb.WriteByte('@')
			sb.WriteString(op.Source)
		} else {
			sb.WriteString(op.Value)
		}
	case OpAddLayer:
		sb.WriteString(op.Name)
		if op.Position != nil {
			sb.WriteByte('@')
			sb.WriteString(strconv.Itoa(*op.Position))
		}
		if op.Source != "" {
			sb.WriteByte('=')
			sb.WriteString(op.Source)
		} else if op.Bindings != nil {
			sb.WriteString(" <" + strconv.Itoa(len(op.Bindings)) + " bindings>")
		}
	case OpMoveLayer:
		sb.WriteString(op.Name)
		if op.Position != nil {
			sb.WriteByte('@')
			sb.WriteString(strconv.Itoa(*op.Position))
		}
	case OpCopyLayer:
		sb.WriteString(op.Name)
		sb.WriteByte('=')
		sb.WriteString(op.As)
	case OpAddLayers:
		sb.WriteString(op.Source)
	case OpAddBehaviors:
		if op.Source == "" && op.Behaviors != nil {
			sb.WriteString("<" + strconv.Itoa(len(op.Behaviors)) + " behaviors>")
		} else {
			sb.WriteString(op.Source)
		}
	default:
		sb.WriteString(op.Name)
	}
	return sb.String()
}
