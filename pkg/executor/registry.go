package executor

import (
	"fmt"
	"sync"

	"github.com/flowcore/engine/pkg/types"
)

// Registry manages NodeRunner registration and lookup, keyed by the
// (NodeType, Subtype) composite key spec.md's Design Notes call for in
// place of a deep class hierarchy of node executors.
type Registry struct {
	runners map[types.SubtypeKey]NodeRunner
	mu      sync.RWMutex
}

// NewRegistry creates a new, empty runner registry.
func NewRegistry() *Registry {
	return &Registry{runners: make(map[types.SubtypeKey]NodeRunner)}
}

// Register adds a runner to the registry. Returns an error if a runner is
// already registered for this (type, subtype).
func (r *Registry) Register(runner NodeRunner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := runner.Key()
	if _, exists := r.runners[key]; exists {
		return fmt.Errorf("runner already registered for %s", key)
	}
	r.runners[key] = runner
	return nil
}

// MustRegister registers a runner and panics on error, for use during
// package-level registry construction.
func (r *Registry) MustRegister(runner NodeRunner) {
	if err := r.Register(runner); err != nil {
		panic(err)
	}
}

// Execute dispatches to the runner registered for node.Type/node.Subtype.
// Returns an Outcome.Failure (not a Go error) when no runner is registered,
// since by the time the engine calls Execute the graph validator has
// already checked this invariant — reaching this path means an internal
// invariant was violated.
func (r *Registry) Execute(rc RunContext) *types.Outcome {
	node := rc.Node()
	key := types.SubtypeKey{Type: node.Type, Subtype: node.Subtype}

	r.mu.RLock()
	runner, exists := r.runners[key]
	r.mu.RUnlock()

	if !exists {
		return types.OutcomeFailure(types.ErrorKindInternal, fmt.Sprintf("no runner registered for %s", key), "")
	}
	return runner.Execute(rc)
}

// Validate runs the runner-specific static validation for node's (type,
// subtype) beyond the JSON-schema check graph.Validate already performed.
// Returns an error if no runner is registered.
func (r *Registry) Validate(node types.Node) error {
	key := types.SubtypeKey{Type: node.Type, Subtype: node.Subtype}
	r.mu.RLock()
	runner, exists := r.runners[key]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("no runner registered for %s", key)
	}
	return runner.Validate(node)
}

// Get returns the runner for a given (type, subtype), or nil.
func (r *Registry) Get(key types.SubtypeKey) NodeRunner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runners[key]
}

// ListRegisteredKeys returns every registered (type, subtype) key.
func (r *Registry) ListRegisteredKeys() []types.SubtypeKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]types.SubtypeKey, 0, len(r.runners))
	for k := range r.runners {
		keys = append(keys, k)
	}
	return keys
}
