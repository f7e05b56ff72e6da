package edit

import (
	"context"
	"fmt"

	"github.com/vk/keygrid/internal/layout"
	"github.com/vk/keygrid/internal/query"
)

func (tx *txn) removeBehavior(op Operation) error {
	if _, ok := tx.work.CustomBehaviors[op.Name]; !ok {
		return &query.ResolutionError{Query: query.BehaviorPath(op.Name).String(), Reason: "no such custom behavior"}
	}
	delete(tx.work.CustomBehaviors, op.Name)
	return nil
}

func (tx *txn) addBehaviors(ctx context.Context, op Operation) error {
	imported := op.Behaviors
	if op.Source != "" {
		var err error
		if imported, err = tx.importBehaviors(ctx, op.Source); err != nil {
			return err
		}
	}

	if tx.work.CustomBehaviors == nil {
		tx.work.CustomBehaviors = layout.Behaviors{}
	}
	for _, b := range imported {
		if b == nil || b.Name == "" {
			return &layout.InvariantViolation{Rule: layout.RuleBehaviorName, Detail: "custom behavior has no name"}
		}
		if _, dup := tx.work.CustomBehaviors[b.Name]; dup {
			return &layout.InvariantViolation{
				Rule:   layout.RuleBehaviorName,
				Detail: fmt.Sprintf("custom behavior %q is already defined", b.Name),
			}
		}
		tx.work.CustomBehaviors[b.Name] = b.Clone()
	}
	return nil
}

func (tx *txn) importBehaviors(ctx context.Context, ref string) ([]*layout.CustomBehavior, error) {
	matches, err := tx.sources.resolve(ctx, ref, tx.work)
	if err != nil {
		return nil, err
	}

	var imported []*layout.CustomBehavior
	for _, m := range matches {
		switch v := m.Value.(type) {
		case *layout.CustomBehavior:
			imported = append(imported, v)
		case layout.Behaviors:
			for _, name := range v.Names() {
				imported = append(imported, v[name])
			}
		default:
			return nil, &query.ResolutionError{Query: ref, Reason: fmt.Sprintf("%s is a %s, not a custom behavior", m.Path, m.Type)}
		}
	}
	return imported, nil
}
