package diff

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/goccy/go-json"

	"github.com/vk/keygrid/internal/ctxlog"
	"github.com/vk/keygrid/internal/edit"
	"github.com/vk/keygrid/internal/layout"
	"github.com/vk/keygrid/internal/query"
)

// PatchError reports the change that could not be applied.
type PatchError struct {
	Index  int // 1-based position in the change set
	Change Change
	Err    error
}

// Error implements the error interface.
func (e *PatchError) Error() string {
	return fmt.Sprintf("change %d (%s): %v", e.Index, e.Change, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PatchError) Unwrap() error {
	return e.Err
}

// Patch applies changes to doc as one edit batch. doc is never modified; on
// success the patched copy is returned. Options are passed to the edit
// engine, e.g. to validate against a profile. The document is validated
// once all changes have applied.
func Patch(ctx context.Context, doc *layout.Document, changes []Change, opts ...edit.Option) (*layout.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Applying patch.", "changes", len(changes))

	ops := make([]edit.Operation, len(changes))
	for i, c := range changes {
		op, err := operation(c)
		if err != nil {
			return nil, &PatchError{Index: i + 1, Change: c, Err: err}
		}
		ops[i] = op
	}

	opts = append(slices.Clip(opts), edit.WithDeferredValidation())
	res, err := edit.New(opts...).Apply(ctx, doc, ops)
	if err != nil {
		var batchErr *edit.BatchError
		if errors.As(err, &batchErr) {
			return nil, &PatchError{Index: batchErr.Index, Change: changes[batchErr.Index-1], Err: batchErr.Err}
		}
		return nil, err
	}
	if len(ops) == 0 {
		return doc.Clone(), nil
	}
	return res.Document, nil
}

// operation translates one change into the edit operation that replays it.
func operation(c Change) (edit.Operation, error) {
	if !c.Kind.valid() {
		return edit.Operation{}, fmt.Errorf("unknown change kind %q", c.Kind)
	}

	switch c.Kind {
	case KindMetadata, KindBindingChange, KindBehaviorChange:
		data, err := json.Marshal(c.NewValue)
		if err != nil {
			return edit.Operation{}, err
		}
		return edit.Set(c.Path, string(data)), nil

	case KindLayerRemove:
		name, err := layerName(c.Path)
		if err != nil {
			return edit.Operation{}, err
		}
		return edit.RemoveLayer(name), nil

	case KindLayerAdd:
		name, err := layerName(c.Path)
		if err != nil {
			return edit.Operation{}, err
		}
		layer, err := decode[layout.Layer](c.NewValue)
		if err != nil {
			return edit.Operation{}, fmt.Errorf("layer value: %w", err)
		}
		op := edit.AddLayer(name).WithBindings(layer.Bindings)
		if op.Bindings == nil {
			op.Bindings = []layout.Binding{}
		}
		if c.Index != nil {
			op = op.At(*c.Index)
		}
		return op, nil

	case KindLayerMove:
		name, err := layerName(c.Path)
		if err != nil {
			return edit.Operation{}, err
		}
		to, err := asInt(c.NewValue)
		if err != nil {
			return edit.Operation{}, fmt.Errorf("move target: %w", err)
		}
		return edit.MoveLayer(name, to), nil

	case KindBehaviorRemove:
		name, err := behaviorName(c.Path)
		if err != nil {
			return edit.Operation{}, err
		}
		return edit.RemoveBehavior(name), nil

	case KindBehaviorAdd:
		name, err := behaviorName(c.Path)
		if err != nil {
			return edit.Operation{}, err
		}
		b, err := decode[layout.CustomBehavior](c.NewValue)
		if err != nil {
			return edit.Operation{}, fmt.Errorf("behavior value: %w", err)
		}
		b.Name = name
		return edit.AddBehaviors("").WithBehaviors(&b), nil
	}
	return edit.Operation{}, fmt.Errorf("unsupported change kind %q", c.Kind)
}

func layerName(path string) (string, error) {
	return namedChild(path, "layers")
}

func behaviorName(path string) (string, error) {
	return namedChild(path, "custom_behaviors")
}

// namedChild extracts NAME from a path of the form `$.<parent>.NAME`.
func namedChild(path, parent string) (string, error) {
	q, err := query.Parse(path)
	if err != nil {
		return "", err
	}
	paths := q.Paths()
	if len(paths) == 1 && len(paths[0]) == 2 {
		first, second := paths[0][0], paths[0][1]
		if first.Kind == query.SegmentField && first.Name == parent && second.Kind == query.SegmentField {
			return second.Name, nil
		}
	}
	return "", fmt.Errorf("path %s does not name an element of %s", path, parent)
}
