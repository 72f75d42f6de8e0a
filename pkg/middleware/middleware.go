// Package middleware provides the Chain of Responsibility pattern implementation
// for node execution middleware. This enables cross-cutting concerns like
// rate limiting, size limits, and validation to be added without modifying
// individual runners.
package middleware

import (
	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/types"
)

// Handler runs a node invocation and returns its outcome. A registered
// runner's Execute method, and the chain's own Process methods, both share
// this signature.
type Handler func(rc executor.RunContext) *types.Outcome

// Middleware defines the interface for execution middleware.
// Middleware can inspect, modify, or short-circuit node execution.
//
// Example middleware implementations:
//   - RateLimitMiddleware: rejects invocations past a token-bucket budget
//   - SizeLimitMiddleware: rejects oversized inputs/outputs
//   - ValidationMiddleware: re-validates node configuration before execution
type Middleware interface {
	// Process handles the node execution, optionally calling next() to continue the chain.
	// The middleware can:
	//   - Pre-process: inspect the context before calling next
	//   - Execute: call next to continue the chain
	//   - Post-process: inspect the outcome after next returns
	//   - Short-circuit: return a Failure outcome without calling next
	Process(rc executor.RunContext, next Handler) *types.Outcome

	// Name returns the middleware name for logging and debugging
	Name() string
}

// Chain represents an ordered chain of middleware.
// Middleware are executed in the order they were added.
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a new, empty middleware chain.
func NewChain() *Chain {
	return &Chain{}
}

// Use adds middleware to the chain.
// Middleware are executed in the order they are added.
func (c *Chain) Use(m Middleware) *Chain {
	c.middlewares = append(c.middlewares, m)
	return c
}

// Execute runs the middleware chain followed by the final handler.
//
// Example execution flow with 2 middleware:
//
//	M1.Process(pre) -> M2.Process(pre) -> handler() -> M2.Process(post) -> M1.Process(post) -> return
func (c *Chain) Execute(rc executor.RunContext, handler Handler) *types.Outcome {
	if len(c.middlewares) == 0 {
		return handler(rc)
	}

	index := 0
	var next Handler
	next = func(rc executor.RunContext) *types.Outcome {
		if index >= len(c.middlewares) {
			return handler(rc)
		}
		m := c.middlewares[index]
		index++
		return m.Process(rc, next)
	}

	return next(rc)
}

// Len returns the number of middleware in the chain
func (c *Chain) Len() int {
	return len(c.middlewares)
}

// Middlewares returns all middleware in the chain
func (c *Chain) Middlewares() []Middleware {
	result := make([]Middleware, len(c.middlewares))
	copy(result, c.middlewares)
	return result
}
