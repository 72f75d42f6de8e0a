package middleware

import (
	"encoding/json"
	"fmt"

	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/types"
)

// SizeLimitMiddleware enforces size limits to prevent memory exhaustion
// from a single node's inputs or outputs.
type SizeLimitMiddleware struct {
	maxInputSize      int64
	maxResultSize     int64
	maxStringLength   int
	maxArrayLength    int
	enforceInputSize  bool
	enforceResultSize bool
}

// SizeLimitConfig configures size limit enforcement
type SizeLimitConfig struct {
	MaxInputSize    int64 // Maximum input size per node (default: 10MB)
	MaxResultSize   int64 // Maximum result size per node (default: 50MB)
	MaxStringLength int   // Maximum string length (default: 1MB)
	MaxArrayLength  int   // Maximum array length (default: 10000)

	// Workflow limits, checked by ValidateWorkflowSize; Process does not use them.
	MaxWorkflowSize int64
	MaxNodeCount    int
	MaxEdgeCount    int

	EnforceInputSize  bool
	EnforceResultSize bool
}

// DefaultSizeLimitConfig returns default size limit configuration
func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		MaxInputSize:      10 * 1024 * 1024,
		MaxResultSize:     50 * 1024 * 1024,
		MaxStringLength:   1 * 1024 * 1024,
		MaxArrayLength:    10000,
		MaxWorkflowSize:   100 * 1024 * 1024,
		MaxNodeCount:      1000,
		MaxEdgeCount:      5000,
		EnforceInputSize:  true,
		EnforceResultSize: true,
	}
}

// NewSizeLimitMiddleware creates a new size limit middleware with default config
func NewSizeLimitMiddleware() *SizeLimitMiddleware {
	return NewSizeLimitMiddlewareWithConfig(DefaultSizeLimitConfig())
}

// NewSizeLimitMiddlewareWithConfig creates a new size limit middleware with custom config
func NewSizeLimitMiddlewareWithConfig(config SizeLimitConfig) *SizeLimitMiddleware {
	return &SizeLimitMiddleware{
		maxInputSize:      config.MaxInputSize,
		maxResultSize:     config.MaxResultSize,
		maxStringLength:   config.MaxStringLength,
		maxArrayLength:    config.MaxArrayLength,
		enforceInputSize:  config.EnforceInputSize,
		enforceResultSize: config.EnforceResultSize,
	}
}

// Process enforces size limits on inputs and results
func (m *SizeLimitMiddleware) Process(rc executor.RunContext, next Handler) *types.Outcome {
	if m.enforceInputSize {
		if err := m.validateValueMap(rc.Inputs(), m.maxInputSize); err != nil {
			return types.OutcomeFailure(types.ErrorKindInvalidConfiguration, fmt.Sprintf("input size limit exceeded: %v", err), "")
		}
	}

	outcome := next(rc)

	if m.enforceResultSize && outcome != nil && outcome.Result != nil {
		if err := m.validateValueMap(outcome.Result.Outputs, m.maxResultSize); err != nil {
			return types.OutcomeFailure(types.ErrorKindInvalidConfiguration, fmt.Sprintf("result size limit exceeded: %v", err), "")
		}
	}

	return outcome
}

// Name returns the middleware name
func (m *SizeLimitMiddleware) Name() string {
	return "SizeLimit"
}

func (m *SizeLimitMiddleware) validateValueMap(values map[string]interface{}, maxBytes int64) error {
	size, err := estimateSize(values)
	if err != nil {
		return fmt.Errorf("failed to estimate size: %w", err)
	}
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%d bytes exceeds limit %d bytes", size, maxBytes)
	}
	return m.validateValue(values)
}

// validateValue validates type-specific limits
func (m *SizeLimitMiddleware) validateValue(value interface{}) error {
	switch v := value.(type) {
	case string:
		if m.maxStringLength > 0 && len(v) > m.maxStringLength {
			return fmt.Errorf("string length %d exceeds limit %d", len(v), m.maxStringLength)
		}
	case []interface{}:
		if m.maxArrayLength > 0 && len(v) > m.maxArrayLength {
			return fmt.Errorf("array length %d exceeds limit %d", len(v), m.maxArrayLength)
		}
		for i, elem := range v {
			if err := m.validateValue(elem); err != nil {
				return fmt.Errorf("array element %d: %w", i, err)
			}
		}
	case map[string]interface{}:
		for key, val := range v {
			if err := m.validateValue(val); err != nil {
				return fmt.Errorf("map key %s: %w", key, err)
			}
		}
	}

	return nil
}

// estimateSize estimates the size of a value in bytes using JSON marshaling
// as a rough approximation.
func estimateSize(value interface{}) (int64, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// ValidateWorkflowSize checks a workflow's node/edge counts and total
// marshaled size against config, ahead of execution.
func ValidateWorkflowSize(nodes []types.Node, edges []types.Edge, config SizeLimitConfig) error {
	if config.MaxNodeCount > 0 && len(nodes) > config.MaxNodeCount {
		return fmt.Errorf("workflow has %d nodes, exceeds limit of %d", len(nodes), config.MaxNodeCount)
	}

	if config.MaxEdgeCount > 0 && len(edges) > config.MaxEdgeCount {
		return fmt.Errorf("workflow has %d edges, exceeds limit of %d", len(edges), config.MaxEdgeCount)
	}

	if config.MaxWorkflowSize > 0 {
		type workflow struct {
			Nodes []types.Node `json:"nodes"`
			Edges []types.Edge `json:"edges"`
		}

		wf := workflow{Nodes: nodes, Edges: edges}
		data, err := json.Marshal(wf)
		if err != nil {
			return fmt.Errorf("failed to marshal workflow for size check: %w", err)
		}

		size := int64(len(data))
		if size > config.MaxWorkflowSize {
			return fmt.Errorf("workflow size %d bytes exceeds limit %d bytes", size, config.MaxWorkflowSize)
		}
	}

	return nil
}
