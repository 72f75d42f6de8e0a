package middleware

import (
	"fmt"

	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/types"
)

// ValidationMiddleware re-validates node configuration before execution.
// It uses the registry's Validate method, the runner-specific check that
// goes beyond the JSON-schema check graph.Validate runs; graph.Validate
// does not call it, so this middleware is where it runs, immediately
// before each Execute.
type ValidationMiddleware struct {
	registry interface {
		Validate(node types.Node) error
	}
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware(registry interface{ Validate(node types.Node) error }) *ValidationMiddleware {
	return &ValidationMiddleware{
		registry: registry,
	}
}

// Process validates node before execution
func (m *ValidationMiddleware) Process(rc executor.RunContext, next Handler) *types.Outcome {
	if m.registry != nil {
		if err := m.registry.Validate(rc.Node()); err != nil {
			return types.OutcomeFailure(types.ErrorKindInvalidConfiguration, fmt.Sprintf("node validation failed: %v", err), "")
		}
	}

	return next(rc)
}

// Name returns the middleware name
func (m *ValidationMiddleware) Name() string {
	return "Validation"
}
