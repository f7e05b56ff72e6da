package diff

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Kind is the type of a change record.
type Kind string

const (
	KindMetadata       Kind = "metadata"
	KindLayerAdd       Kind = "layer_add"
	KindLayerRemove    Kind = "layer_remove"
	KindLayerMove      Kind = "layer_move"
	KindBindingChange  Kind = "binding_change"
	KindBehaviorAdd    Kind = "behavior_add"
	KindBehaviorRemove Kind = "behavior_remove"
	KindBehaviorChange Kind = "behavior_change"
)

func (k Kind) valid() bool {
	switch k {
	case KindMetadata, KindLayerAdd, KindLayerRemove, KindLayerMove, KindBindingChange,
		KindBehaviorAdd, KindBehaviorRemove, KindBehaviorChange:
		return true
	}
	return false
}

// Change is one structural difference. Values are plain JSON-shaped data
// (strings, numbers, lists and maps) so a change set survives any codec.
type Change struct {
	Kind     Kind   `json:"kind" yaml:"kind"`
	Path     string `json:"path" yaml:"path"`
	OldValue any    `json:"old_value,omitempty" yaml:"old_value,omitempty"`
	NewValue any    `json:"new_value" yaml:"new_value"`
	// Index is the target position of an added layer.
	Index *int `json:"index,omitempty" yaml:"index,omitempty"`
}

// String is a one-line summary for logs and error messages.
func (c Change) String() string {
	return fmt.Sprintf("%s %s", c.Kind, c.Path)
}

// plain converts a model value into its JSON-shaped form.
func plain(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("diff: model value %T does not encode: %v", v, err))
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("diff: model value %T does not decode: %v", v, err))
	}
	return out
}

// decode converts a JSON-shaped value back into a model type.
func decode[T any](v any) (T, error) {
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}
