package edit

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/vk/keygrid/internal/ctxlog"
	"github.com/vk/keygrid/internal/layout"
	"github.com/vk/keygrid/internal/profile"
	"github.com/vk/keygrid/internal/query"
	"github.com/vk/keygrid/internal/registry"
)

// Engine applies operation batches. It holds no per-batch state and may be
// reused; batches against the same document must be serialized by the
// caller.
type Engine struct {
	profile  *profile.Profile
	load     SourceLoader
	deferred bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithProfile enables registry validation after every mutation and fixes
// the key count used for new layers.
func WithProfile(p *profile.Profile) Option {
	return func(e *Engine) { e.profile = p }
}

// WithSource replaces the loader used for external source documents.
func WithSource(load SourceLoader) Option {
	return func(e *Engine) { e.load = load }
}

// WithDeferredValidation checks the document once, after the last
// operation, instead of after every mutation. A batch that passes through
// invalid intermediate states, such as a replayed diff, still commits only
// if its final document is valid.
func WithDeferredValidation() Option {
	return func(e *Engine) { e.deferred = true }
}

// New creates an engine. Without a profile only structural invariants are
// checked.
func New(opts ...Option) *Engine {
	e := &Engine{load: loadFile}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of a successful batch.
type Result struct {
	// Document is the new document, or the input itself when the batch
	// held only get operations.
	Document *layout.Document
	// Gets holds the matches of each get operation, in batch order.
	Gets [][]query.Match
	// Changed reports whether Document differs from the input.
	Changed bool
}

// Apply runs ops against a copy of doc. On failure doc is untouched and the
// error is a *BatchError naming the first failing operation.
func (e *Engine) Apply(ctx context.Context, doc *layout.Document, ops []Operation) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Applying edit batch.", "operations", len(ops))

	tx := &txn{
		engine:  e,
		work:    doc.Clone(),
		sources: newSources(e.load),
		removed: make(map[string]int),
	}
	res := &Result{}
	lastMutation := 0

	for i, op := range ops {
		index := i + 1
		opCtx, opLogger := ctxlog.With(ctx, "op_index", index, "op", string(op.Kind))

		if !op.Mutates() {
			matches, err := tx.get(op)
			if err != nil {
				return nil, &BatchError{Index: index, Op: op.String(), Err: err}
			}
			res.Gets = append(res.Gets, matches)
			opLogger.Debug("Get evaluated.", "matches", len(matches))
			continue
		}

		if err := tx.apply(opCtx, index, op); err != nil {
			opLogger.Debug("Operation failed.", "error", err)
			return nil, &BatchError{Index: index, Op: op.String(), Err: err}
		}
		if !e.deferred {
			if err := tx.check(opCtx, false); err != nil {
				opLogger.Debug("Operation left the document invalid.", "error", err)
				return nil, &BatchError{Index: index, Op: op.String(), Err: err}
			}
		}
		lastMutation = index
		opLogger.Debug("Operation applied.")
	}

	if lastMutation == 0 {
		res.Document = doc
		return res, nil
	}

	if index, err := tx.checkDangling(); err != nil {
		return nil, &BatchError{Index: index, Op: ops[index-1].String(), Err: err}
	}
	if err := tx.check(ctx, true); err != nil {
		return nil, &BatchError{Index: lastMutation, Op: ops[lastMutation-1].String(), Err: err}
	}

	res.Document = tx.work
	res.Changed = !reflect.DeepEqual(doc, tx.work)
	logger.Debug("Edit batch committed.", "changed", res.Changed)
	return res, nil
}

// txn is the working state of one batch.
type txn struct {
	engine  *Engine
	work    *layout.Document
	sources *sources
	// removed maps a removed layer name to the index of the first
	// operation that removed it.
	removed map[string]int
}

func (tx *txn) apply(ctx context.Context, index int, op Operation) error {
	switch op.Kind {
	case OpSet:
		return tx.set(ctx, op)
	case OpAddLayer:
		return tx.addLayer(ctx, op)
	case OpRemoveLayer:
		return tx.removeLayer(index, op)
	case OpMoveLayer:
		return tx.moveLayer(op)
	case OpCopyLayer:
		return tx.copyLayer(op)
	case OpAddLayers:
		return tx.addLayers(ctx, op)
	case OpRemoveBehavior:
		return tx.removeBehavior(op)
	case OpAddBehaviors:
		return tx.addBehaviors(ctx, op)
	}
	return errors.New("unknown operation kind " + string(op.Kind))
}

func (tx *txn) get(op Operation) ([]query.Match, error) {
	q, err := query.Compile(op.Query)
	if err != nil {
		return nil, err
	}
	return q.Eval(tx.work), nil
}

// keyCount is the binding count of new layers: the profile's key count, or
// that of the existing layers.
func (tx *txn) keyCount() int {
	if tx.engine.profile != nil {
		return tx.engine.profile.KeyCount
	}
	if len(tx.work.Layers) > 0 {
		return len(tx.work.Layers[0].Bindings)
	}
	return 0
}

// check validates the working copy. Mid-batch, unknown-layer problems in
// custom behaviors that name a layer removed earlier in the batch are left
// for checkDangling.
func (tx *txn) check(ctx context.Context, final bool) error {
	p := tx.engine.profile
	if p == nil {
		return tx.work.Check(0)
	}

	err := registry.Validate(ctx, p, tx.work)
	if err == nil || final {
		return err
	}
	var verrs registry.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var kept registry.ValidationErrors
	for _, e := range verrs {
		var unknown *registry.UnknownLayerError
		if errors.As(e, &unknown) && strings.HasPrefix(unknown.Where, "$.custom_behaviors.") {
			if _, removed := tx.removed[unknown.Layer]; removed {
				continue
			}
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// checkDangling reports a removed layer that a surviving combo still
// references, along with the index of the operation that removed it.
func (tx *txn) checkDangling() (int, error) {
	first, firstIndex := error(nil), 0
	for name, index := range tx.removed {
		if _, idx := tx.work.Layer(name); idx >= 0 {
			continue
		}
		for _, bname := range tx.work.CustomBehaviors.Names() {
			b := tx.work.CustomBehaviors[bname]
			if b.Kind != layout.KindCombo || !b.ReferencesLayer(name) {
				continue
			}
			if first == nil || index < firstIndex {
				first, firstIndex = &DanglingReferenceError{Layer: name, Behavior: bname}, index
			}
			break
		}
	}
	return firstIndex, first
}
