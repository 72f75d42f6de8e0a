// Package executor implements the per-(type, subtype) NodeRunner contract
// pkg/engine dispatches every node through.
//
// # Registry
//
// Runners register into a Registry keyed by types.SubtypeKey{Type, Subtype}:
//
//	registry := executor.NewRegistry()
//	registry.MustRegister(&CodeRunner{})
//	outcome := registry.Execute(runContext)
//
// DefaultRegistry wires every runner named in the node family table —
// ACTION, EXTERNAL_ACTION, AI_AGENT, FLOW, HUMAN_IN_THE_LOOP, TOOL, MEMORY.
// TRIGGER is absent from the registry: the engine materializes a trigger
// node's output directly from the execution's TriggerEvent rather than
// invoking a runner for it.
//
// # Outcome, not exceptions
//
// Execute never returns a Go error. It returns a *types.Outcome with
// exactly one of Result, Wait or Failure set — a runner that hits trouble
// reports an Outcome.Failure carrying a types.ErrorKind, not a panic or an
// error return, so the engine's dispatch loop has one branch to handle
// instead of two.
//
// # RunContext
//
// Every invocation gets a fresh RunContext: node identity and static
// config, the aggregated inputs the router resolved, the trigger event,
// and the adapters.Bundle of external collaborators (AI, HTTP, vault,
// per-provider services, memory, response classifier). Runners never reach
// for a global client or credential store — only what RunContext hands them.
package executor
