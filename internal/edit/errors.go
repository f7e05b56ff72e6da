package edit

import "fmt"

// BatchError reports the operation that aborted a batch.
type BatchError struct {
	Index int // 1-based position of the operation in the batch
	Op    string
	Err   error
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	return fmt.Sprintf("operation %d (%s): %v", e.Index, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *BatchError) Unwrap() error {
	return e.Err
}

// DanglingReferenceError reports a layer removal that would orphan a
// reference held by a custom behavior.
type DanglingReferenceError struct {
	Layer    string
	Behavior string
}

// Error implements the error interface.
func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("layer %q is still referenced by combo %q", e.Layer, e.Behavior)
}

// ArityMismatchError reports a set whose source and target counts cannot be
// paired.
type ArityMismatchError struct {
	Query   string
	Targets int
	Values  int
}

// Error implements the error interface.
func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("set %s: %d target(s) cannot take %d value(s)", e.Query, e.Targets, e.Values)
}
