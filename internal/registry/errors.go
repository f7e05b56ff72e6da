package registry

import (
	"fmt"
	"strings"

	"github.com/vk/keygrid/internal/layout"
)

// UnknownBehaviorError reports a reference that does not resolve to a
// bindable behavior.
type UnknownBehaviorError struct {
	Behavior string
	Where    string
	Reason   string
}

// Error implements the error interface.
func (e *UnknownBehaviorError) Error() string {
	msg := fmt.Sprintf("unknown behavior %q at %s", e.Behavior, e.Where)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ArityError reports a binding whose parameter count does not match the
// resolved behavior's schema.
type ArityError struct {
	Behavior string
	Where    string
	Want     int
	Got      int
}

// Error implements the error interface.
func (e *ArityError) Error() string {
	return fmt.Sprintf("behavior %q at %s takes %d param(s), got %d", e.Behavior, e.Where, e.Want, e.Got)
}

// ParamTypeError reports a parameter of the wrong kind for its slot.
type ParamTypeError struct {
	Behavior string
	Where    string
	Param    string
	Want     layout.ParamType
	Got      string
}

// Error implements the error interface.
func (e *ParamTypeError) Error() string {
	return fmt.Sprintf("behavior %q at %s: param %q must be %s, got %s", e.Behavior, e.Where, e.Param, e.Want, e.Got)
}

// UnknownLayerError reports a reference to a layer that does not exist.
// Layer holds the name, or the decimal index for index references.
type UnknownLayerError struct {
	Where string
	Layer string
}

// Error implements the error interface.
func (e *UnknownLayerError) Error() string {
	return fmt.Sprintf("unknown layer %q at %s", e.Layer, e.Where)
}

// Breach is one exceeded validation limit.
type Breach struct {
	Limit    string
	Max      int
	Observed int
}

// LimitExceededError aggregates every exceeded validation limit.
type LimitExceededError struct {
	Breaches []Breach
}

// Error implements the error interface.
func (e *LimitExceededError) Error() string {
	parts := make([]string, len(e.Breaches))
	for i, b := range e.Breaches {
		parts[i] = fmt.Sprintf("%s is %d, observed %d", b.Limit, b.Max, b.Observed)
	}
	return "validation limits exceeded: " + strings.Join(parts, "; ")
}

// ValidationErrors collects every problem found in one validation pass.
type ValidationErrors []error

// Error leads with the first problem.
func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return "validation failed"
	case 1:
		return e[0].Error()
	}
	return fmt.Sprintf("%s (and %d more problem(s))", e[0].Error(), len(e)-1)
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e ValidationErrors) Unwrap() []error {
	return e
}
