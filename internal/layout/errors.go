package layout

import "fmt"

// Invariant rule identifiers reported by Check.
const (
	RuleLayerName      = "layer_name"
	RuleDuplicateLayer = "duplicate_layer"
	RuleBindingCount   = "binding_count"
	RuleBehaviorName   = "behavior_name"
	RuleBehaviorShape  = "behavior_shape"
	RuleBehaviorCycle  = "behavior_cycle"
	RuleComboPosition  = "combo_position"
)

// InvariantViolation reports a document that breaks one of its structural
// invariants.
type InvariantViolation struct {
	Rule   string
	Detail string
}

// Error implements the error interface.
func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation (%s): %s", e.Rule, e.Detail)
}

func violation(rule, format string, args ...any) *InvariantViolation {
	return &InvariantViolation{Rule: rule, Detail: fmt.Sprintf(format, args...)}
}
