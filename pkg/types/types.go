// Package types provides shared type definitions for the workflow engine.
// All core data structures used across packages are defined here to avoid
// circular dependencies between pkg/graph, pkg/engine, pkg/executor and
// pkg/router.
package types

import (
	"context"
	"time"

	"github.com/flowcore/engine/pkg/config"
)

// ============================================================================
// Context Keys
// ============================================================================

type contextKey string

const (
	// ContextKeyExecutionID is the context key for the unique execution ID
	ContextKeyExecutionID contextKey = "execution_id"

	// ContextKeyWorkflowID is the context key for the workflow ID
	ContextKeyWorkflowID contextKey = "workflow_id"
)

// GetExecutionID extracts the execution ID from context.
func GetExecutionID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyExecutionID).(string); ok {
		return id
	}
	return ""
}

// GetWorkflowID extracts the workflow ID from context.
func GetWorkflowID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyWorkflowID).(string); ok {
		return id
	}
	return ""
}

// ============================================================================
// Node families
// ============================================================================

// NodeType is one of the eight node families a workflow may be built from.
type NodeType string

const (
	NodeTypeTrigger        NodeType = "TRIGGER"
	NodeTypeAIAgent        NodeType = "AI_AGENT"
	NodeTypeAction         NodeType = "ACTION"
	NodeTypeExternalAction NodeType = "EXTERNAL_ACTION"
	NodeTypeFlow           NodeType = "FLOW"
	NodeTypeHIL            NodeType = "HUMAN_IN_THE_LOOP"
	NodeTypeTool           NodeType = "TOOL"
	NodeTypeMemory         NodeType = "MEMORY"
)

// ConnectionCategory informs how the router aggregates multiple inputs
// targeting the same node.
type ConnectionCategory string

const (
	CategoryMain     ConnectionCategory = "MAIN"
	CategoryAITool   ConnectionCategory = "AI_TOOL"
	CategoryAIMemory ConnectionCategory = "AI_MEMORY"
)

// InputPort describes one named input slot a node's runner reads.
type InputPort struct {
	Name     string             `json:"name"`
	Category ConnectionCategory `json:"category"`
	Required bool               `json:"required"`
}

// OutputPort describes one named output slot a node's runner may produce.
type OutputPort struct {
	Name string `json:"name"`
}

// ============================================================================
// Workflow / Node / Edge
// ============================================================================

// ErrorPolicy controls how a failed node affects the rest of the execution.
type ErrorPolicy string

const (
	ErrorPolicyStop              ErrorPolicy = "stop"
	ErrorPolicyContinueRegular   ErrorPolicy = "continue-regular"
	ErrorPolicyContinueErrorPath ErrorPolicy = "continue-error-branch"
)

// RetryPolicy bounds runner-level retries for transient failures.
type RetryPolicy struct {
	MaxAttempts     int           `json:"max_attempts,omitempty"`
	InitialBackoff  time.Duration `json:"initial_backoff,omitempty"`
	MaxBackoff      time.Duration `json:"max_backoff,omitempty"`
}

// WorkflowSettings are the optional per-workflow tuning knobs.
type WorkflowSettings struct {
	Timeout     time.Duration `json:"timeout,omitempty"`
	RetryPolicy RetryPolicy   `json:"retry_policy,omitempty"`
	ErrorPolicy ErrorPolicy   `json:"error_policy,omitempty"`
}

// Node is one vertex of a workflow graph.
type Node struct {
	ID      string                 `json:"id"`
	Name    string                 `json:"name,omitempty"`
	Type    NodeType               `json:"type"`
	Subtype string                 `json:"subtype"`
	// Position is opaque to the engine; it exists for authoring tools only.
	Position map[string]interface{} `json:"position,omitempty"`
	// Config holds the node's static parameters, validated against the
	// (Type, Subtype) schema before the workflow ever runs. See pkg/types/schema.go.
	Config map[string]interface{} `json:"config,omitempty"`
}

// Edge connects a source node's output port to a target node's input port,
// with an optional pure conversion expression applied to the value in flight.
type Edge struct {
	ID           string              `json:"id"`
	Source       string              `json:"source"`
	Target       string              `json:"target"`
	OutputKey    string              `json:"output_key,omitempty"` // default "result"
	InputKey     string              `json:"input_key,omitempty"`  // default "input"
	Category     ConnectionCategory  `json:"category,omitempty"`   // empty is treated as MAIN by the router
	Conversion   string              `json:"conversion,omitempty"` // expr-lang expression, identity if empty
	// LoopBack marks an edge that closes a FLOW.LOOP sub-subgraph; such
	// edges are excluded from the acyclicity check.
	LoopBack bool `json:"loop_back,omitempty"`
}

// OutputKeyOrDefault returns the edge's configured output key, defaulting to
// the conventional "result" port .
func (e Edge) OutputKeyOrDefault() string {
	if e.OutputKey == "" {
		return "result"
	}
	return e.OutputKey
}

// InputKeyOrDefault returns the edge's configured input key, defaulting to "input".
func (e Edge) InputKeyOrDefault() string {
	if e.InputKey == "" {
		return "input"
	}
	return e.InputKey
}

// Workflow is the immutable (during one execution) workflow definition.
type Workflow struct {
	ID       string           `json:"id"`
	Version  string           `json:"version,omitempty"`
	Nodes    []Node           `json:"nodes"`
	Edges    []Edge           `json:"edges"`
	Settings WorkflowSettings `json:"settings,omitempty"`
}

// Config is a type alias so callers can refer to types.Config; the actual
// definition lives in the config package.
type Config = config.Config
