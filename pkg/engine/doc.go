// Package engine implements the scheduler: the single logical loop that
// drives one workflow execution from its TRIGGER
// node to a terminal status, dispatching ready nodes through pkg/executor,
// routing their outputs through pkg/router, and suspending on pkg/pause
// wait signals until an external resume or pkg/timeoutmonitor scan re-enters
// the loop.
//
// # Overview
//
// An Engine owns no workflow state between calls: everything durable lives
// behind pkg/repository (workflows, executions, logs) and pkg/pause (pause
// records). What it does hold, only for the lifetime of an in-flight
// ExecuteWorkflow/ResumeExecution call, is the in-memory dispatch state for
// that execution — the readiness counters and accumulated deliveries a
// wave-based scheduler needs moment to moment. This reference engine
// schedules a single process's in-memory executions and does not attempt
// cluster-wide distributed scheduling or leader election across restarts.
//
// # Architecture
//
// Validate (pkg/graph) turns a Workflow into an acyclic Graph annotated
// with a topological order. ExecuteWorkflow then repeatedly:
//
//  1. collects every currently-ready node (all required inbound edges
//     delivered, or no inbound edges at all);
//  2. dispatches the whole wave concurrently, bounded by a worker pool,
//     using a live readiness frontier rather than fixed levels so
//     FLOW.MERGE's wait_any and pause/resume can both re-trigger dispatch;
//  3. routes each outcome (pkg/router) to its outgoing edges, which may
//     bring the next wave's nodes to readiness;
//  4. repeats until the ready set and the set of paused nodes are both
//     empty.
//
// A runner's WaitSignal suspends its node: the engine persists a
// PauseRecord (pkg/pause) and returns a "paused" status without blocking
// the caller's goroutine. ResumeExecution and the timeout monitor's
// onResolved callback both re-enter the same loop for that execution's
// retained dispatch state.
//
// # Error handling
//
// A runner never returns a bare Go error; it returns an Outcome whose
// Failure field, when set, carries a uniform ErrorKind (pkg/types). The
// engine applies the workflow's ErrorPolicy (stop / continue-regular /
// continue-error-branch) to decide whether the failure ends the execution
// or is absorbed and routed onward. Transient kinds (rate_limited,
// provider_error) are retried with exponential backoff before either
// outcome is reached.
//
// # Concurrency
//
// Every wave's nodes run in their own goroutine under a semaphore sized by
// Config.WorkerPoolSize; shared dispatch state (readiness counters,
// accumulated deliveries, node outputs) is guarded by one mutex per
// execution. Node invocation itself races the runner against its context's
// cancellation with a grace window (Config.CancelGrace) before the engine
// gives up waiting and records the node as cancelled, so a slow or
// non-cooperative runner can never wedge the scheduler indefinitely.
package engine
