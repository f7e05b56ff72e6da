package edit

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/vk/keygrid/internal/layout"
	"github.com/vk/keygrid/internal/query"
)

// set overwrites every target. A literal value is broadcast to all targets;
// values read from a source pair with targets one to one.
func (tx *txn) set(ctx context.Context, op Operation) error {
	q, err := query.Compile(op.Query)
	if err != nil {
		return err
	}
	targets := q.Eval(tx.work)
	if len(targets) == 0 {
		return &query.ResolutionError{Query: op.Query, Reason: "no matches"}
	}

	var values [][]byte
	if op.Source != "" {
		matches, err := tx.sources.resolve(ctx, op.Source, tx.work)
		if err != nil {
			return err
		}
		for _, m := range matches {
			data, err := json.Marshal(m.Value)
			if err != nil {
				return fmt.Errorf("encode %s: %w", m.Path, err)
			}
			values = append(values, data)
		}
	} else {
		values = [][]byte{literal(op.Value)}
	}

	if len(values) != len(targets) && (op.Source != "" || len(values) != 1) {
		return &ArityMismatchError{Query: op.Query, Targets: len(targets), Values: len(values)}
	}

	for i, target := range targets {
		value := values[0]
		if len(values) > 1 {
			value = values[i]
		}
		ptr, err := query.Locate(tx.work, target.Path)
		if err != nil {
			return err
		}
		if err := assign(ptr, value); err != nil {
			return fmt.Errorf("set %s: %w", target.Path, err)
		}
	}
	return nil
}

// literal turns a set value into JSON. Text that is not valid JSON is
// taken as a string, so `set $.title=My layout` works unquoted.
func literal(v string) []byte {
	if json.Valid([]byte(v)) {
		return []byte(v)
	}
	data, _ := json.Marshal(v)
	return data
}

func replace[T any](dst *T, data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*dst = v
	return nil
}

// assign decodes data into the location ptr. Layers and custom behaviors
// keep their names, which are their identity.
func assign(ptr any, data []byte) error {
	switch p := ptr.(type) {
	case *string:
		return replace(p, data)
	case *int:
		return replace(p, data)
	case *[]string:
		return replace(p, data)
	case *[]int:
		return replace(p, data)
	case *layout.Binding:
		return replace(p, data)
	case *[]layout.Binding:
		return replace(p, data)
	case *layout.Param:
		return replace(p, data)
	case *[]layout.Param:
		return replace(p, data)
	case *layout.ParamType:
		return replace(p, data)
	case *layout.ParamSlot:
		return replace(p, data)
	case *[]layout.ParamSlot:
		return replace(p, data)
	case *[]layout.Layer:
		return replace(p, data)
	case *layout.Behaviors:
		return replace(p, data)
	case *layout.Layer:
		name := p.Name
		if err := replace(p, data); err != nil {
			return err
		}
		p.Name = name
		return nil
	case *layout.CustomBehavior:
		name := p.Name
		var v layout.CustomBehavior
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*p = v
		p.Name = name
		return nil
	case *layout.Document:
		var v layout.Document
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*p = v
		return nil
	}
	return fmt.Errorf("location of type %T cannot be set", ptr)
}
