package query

import "fmt"

// SyntaxError reports a malformed query expression.
type SyntaxError struct {
	Expr   string
	Offset int
	Msg    string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("query syntax error at offset %d in %q: %s", e.Offset, e.Expr, e.Msg)
}

// ResolutionError reports a well-formed query whose target document or
// fragment is missing.
type ResolutionError struct {
	Query  string
	Reason string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("query %q could not be resolved: %s", e.Query, e.Reason)
}
