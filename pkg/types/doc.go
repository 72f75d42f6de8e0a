// Package types provides shared type definitions for the workflow execution engine.
//
// # Overview
//
// This package contains the core data structures shared across pkg/graph,
// pkg/executor, pkg/router, pkg/pause, pkg/timeoutmonitor and pkg/engine. It
// exists to avoid circular imports between those packages.
//
// # Node families
//
// A workflow is built from eight node families (types.NodeType): TRIGGER,
// AI_AGENT, ACTION, EXTERNAL_ACTION, FLOW, HUMAN_IN_THE_LOOP, TOOL and
// MEMORY. Each family has one or more subtypes; the pair (type, subtype) is
// the key a runner is registered under (see pkg/executor.Registry) and the
// key a SubtypeSpec's port/config-schema is declared under (see schema.go).
//
// # Execution records
//
// Execution, NodeRun, PauseRecord and LogEntry (execution.go) are the
// mutable records one workflow run produces. Execution owns its NodeRuns
// behind a mutex rather than exposing them as a bare map.
//
// # Outcomes
//
// A runner returns exactly one of Result, WaitSignal or RunError, wrapped in
// an Outcome (outcome.go) — an explicit sum type in place of exceptions as
// control flow.
package types
