// Package middleware implements a Chain of Responsibility around node
// execution, wrapping the runner registry's Execute call with cross-cutting
// guards that don't belong in any single runner.
//
// The engine's dispatch loop already owns retry-with-backoff, per-node
// timeouts, structured logging, and observer notifications directly (see
// pkg/engine/dispatch.go), so this package only carries concerns a runner
// registry call needs guarded from the outside:
//
//   - RateLimitMiddleware: token-bucket throttling, global and per-node-type
//   - SizeLimitMiddleware: input/output size, string length and array length limits
//   - ValidationMiddleware: runs a runner's Validate method immediately
//     before Execute (graph.Validate checks only the JSON schema)
//
// # Usage
//
//	chain := middleware.NewChain().
//	    Use(middleware.NewValidationMiddleware(registry)).
//	    Use(middleware.NewRateLimitMiddleware()).
//	    Use(middleware.NewSizeLimitMiddleware())
//
//	outcome := chain.Execute(rc, registry.Execute)
//
// Middleware run in registration order on the way in and unwind in reverse
// on the way out, same as the runner chain any net/http server builds.
package middleware
