// Package executor provides the Strategy Pattern implementation for node
// execution: a registry of per-(type, subtype) NodeRunner implementations
// invoked by pkg/engine's dispatch loop.
package executor

import (
	"context"
	"time"

	"github.com/flowcore/engine/pkg/adapters"
	"github.com/flowcore/engine/pkg/types"
)

// RunContext bundles the engine handle, the node's static configuration,
// its aggregated inputs, the trigger event, and the external adapters,
// passed fresh to every runner invocation so runners never touch global
// state.
type RunContext interface {
	// Context returns the per-invocation cancellation context.
	Context() context.Context

	// Node identity and static configuration.
	Node() types.Node
	Config() map[string]interface{}

	// Inputs returns the aggregated input map this invocation resolved
	//: port name -> value, or port name -> []value when more
	// than one edge targeted the same port.
	Inputs() map[string]interface{}

	// TriggerEvent returns the execution's original trigger payload.
	TriggerEvent() map[string]interface{}

	// Adapters exposes the narrow external collaborators (pkg/adapters).
	Adapters() adapters.Bundle

	// Logger returns a structured logger scoped to this execution/node.
	Logger() Logger

	// EngineConfig returns the engine-wide tuning knobs.
	EngineConfig() types.Config

	// Attempt returns the 1-based attempt count for this invocation
	// (set by the engine's retry loop, executeWithRetry in pkg/engine).
	Attempt() int
}

// Logger is the narrow logging surface runners use; satisfied by
// pkg/logging.Logger.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// NodeRunner is the contract every node family implements.
// Execute returns exactly one populated field on the Outcome: Result, Wait
// or Failure — never an error alongside a result, which is why the method
// itself cannot fail: a runner that hits a problem reports it as an
// Outcome.Failure, not a Go error.
type NodeRunner interface {
	// Execute runs the node with the given context, returning its outcome.
	Execute(rc RunContext) *types.Outcome

	// Key returns the (type, subtype) this runner handles.
	Key() types.SubtypeKey

	// Validate performs any runner-specific static validation beyond the
	// subtype's JSON-schema check (e.g. cross-field constraints).
	Validate(node types.Node) error
}

// DefaultNodeTimeout is used when a node does not override its wall-time budget.
const DefaultNodeTimeout = 30 * time.Second
