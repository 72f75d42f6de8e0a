package executor

import (
	"fmt"

	"github.com/flowcore/engine/pkg/adapters"
	"github.com/flowcore/engine/pkg/types"
)

// HTTPToolRunner is TOOL.http_tool: the same mechanics as ACTION.http, but
// registered as a distinct subtype so it can be offered to an AI_AGENT as a
// callable tool via the AI_TOOL port category rather than
// wired directly into the main data path.
type HTTPToolRunner struct{}

func (r *HTTPToolRunner) Key() types.SubtypeKey {
	return types.SubtypeKey{Type: types.NodeTypeTool, Subtype: "http_tool"}
}

func (r *HTTPToolRunner) Validate(node types.Node) error {
	if _, ok := node.Config["url"].(string); !ok {
		return fmt.Errorf("tool.http_tool: missing url")
	}
	if _, ok := node.Config["method"].(string); !ok {
		return fmt.Errorf("tool.http_tool: missing method")
	}
	return nil
}

func (r *HTTPToolRunner) Execute(rc RunContext) *types.Outcome {
	bundle := rc.Adapters()
	if bundle.HTTP == nil {
		return types.OutcomeFailure(types.ErrorKindInternal, "no HTTPInvoker configured", "")
	}
	cfg := rc.Config()

	var body []byte
	if input, ok := rc.Inputs()["input"].(string); ok {
		body = []byte(input)
	}

	resp, err := bundle.HTTP.Request(rc.Context(), adapters.HTTPRequest{
		Method: cfgString(cfg, "method", "GET"),
		URL:    cfgString(cfg, "url", ""),
		Body:   body,
	})
	if err != nil {
		return types.OutcomeFailure(types.ErrorKindProviderError, err.Error(), "")
	}
	return types.OutcomeResult(map[string]interface{}{
		"result": map[string]interface{}{"status": resp.Status, "body": string(resp.Body)},
	})
}

// CodeToolRunner is TOOL.code_tool: an expression evaluated on demand as an
// AI_AGENT tool call rather than inline in the main data path.
type CodeToolRunner struct{}

func (r *CodeToolRunner) Key() types.SubtypeKey {
	return types.SubtypeKey{Type: types.NodeTypeTool, Subtype: "code_tool"}
}

func (r *CodeToolRunner) Validate(node types.Node) error {
	if _, ok := node.Config["expression"].(string); !ok {
		return fmt.Errorf("tool.code_tool: %w", ErrInvalidExpression)
	}
	return nil
}

func (r *CodeToolRunner) Execute(rc RunContext) *types.Outcome {
	expr := cfgString(rc.Config(), "expression", "")
	value, err := evalValue(expr, rc)
	if err != nil {
		return types.OutcomeFailure(types.ErrorKindInvalidConfiguration, fmt.Sprintf("evaluating expression: %v", err), "")
	}
	return types.OutcomeResult(map[string]interface{}{"result": value})
}
