package executor

import "errors"

// Sentinel errors surfaced by runner Validate implementations, for static
// misconfiguration that predates any Outcome.
var (
	ErrInvalidExpression = errors.New("invalid expression")
	ErrMaxLoopIterations  = errors.New("maximum loop iterations exceeded")
	ErrNotAnArray         = errors.New("value is not an array")
)
