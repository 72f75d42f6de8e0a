package executor

import (
	"fmt"

	"github.com/flowcore/engine/pkg/adapters"
	"github.com/flowcore/engine/pkg/types"
)

// CodeRunner evaluates an expr-lang expression against the node's input
// and returns the result on the "result" port, generalized from a
// boolean-only condition evaluator to a value-returning one.
type CodeRunner struct{}

func (r *CodeRunner) Key() types.SubtypeKey {
	return types.SubtypeKey{Type: types.NodeTypeAction, Subtype: "code"}
}

func (r *CodeRunner) Validate(node types.Node) error {
	if _, ok := node.Config["expression"].(string); !ok {
		return fmt.Errorf("action.code: %w", ErrInvalidExpression)
	}
	return nil
}

func (r *CodeRunner) Execute(rc RunContext) *types.Outcome {
	expr := cfgString(rc.Config(), "expression", "")
	value, err := evalValue(expr, rc)
	if err != nil {
		return types.OutcomeFailure(types.ErrorKindInvalidConfiguration, fmt.Sprintf("evaluating expression: %v", err), "check the expression syntax")
	}
	return types.OutcomeResult(map[string]interface{}{"result": value})
}

// TransformRunner is identical to CodeRunner in mechanism; it exists as a
// distinct subtype so workflow authors can express intent (shape data vs.
// run logic) even though both compile down to one expression evaluation.
type TransformRunner struct{}

func (r *TransformRunner) Key() types.SubtypeKey {
	return types.SubtypeKey{Type: types.NodeTypeAction, Subtype: "transform"}
}

func (r *TransformRunner) Validate(node types.Node) error {
	if _, ok := node.Config["expression"].(string); !ok {
		return fmt.Errorf("action.transform: %w", ErrInvalidExpression)
	}
	return nil
}

func (r *TransformRunner) Execute(rc RunContext) *types.Outcome {
	expr := cfgString(rc.Config(), "expression", "")
	value, err := evalValue(expr, rc)
	if err != nil {
		return types.OutcomeFailure(types.ErrorKindInvalidConfiguration, fmt.Sprintf("evaluating expression: %v", err), "check the expression syntax")
	}
	return types.OutcomeResult(map[string]interface{}{"result": value})
}

// HTTPRunner issues one outbound request through the engine's HTTPInvoker
// adapter, reporting transport/status failures through the
// uniform ErrorKind taxonomy instead of a bare Go error.
type HTTPRunner struct{}

func (r *HTTPRunner) Key() types.SubtypeKey {
	return types.SubtypeKey{Type: types.NodeTypeAction, Subtype: "http"}
}

func (r *HTTPRunner) Validate(node types.Node) error {
	if _, ok := node.Config["url"].(string); !ok {
		return fmt.Errorf("action.http: missing url")
	}
	if _, ok := node.Config["method"].(string); !ok {
		return fmt.Errorf("action.http: missing method")
	}
	return nil
}

func (r *HTTPRunner) Execute(rc RunContext) *types.Outcome {
	bundle := rc.Adapters()
	if bundle.HTTP == nil {
		return types.OutcomeFailure(types.ErrorKindInternal, "no HTTPInvoker configured", "")
	}

	cfg := rc.Config()
	url := cfgString(cfg, "url", "")
	method := cfgString(cfg, "method", "GET")

	var body []byte
	if input, ok := rc.Inputs()["input"]; ok {
		if s, ok := input.(string); ok {
			body = []byte(s)
		}
	}

	resp, err := bundle.HTTP.Request(rc.Context(), adapters.HTTPRequest{
		Method: method,
		URL:    url,
		Body:   body,
	})
	if err != nil {
		return types.OutcomeFailure(types.ErrorKindProviderError, err.Error(), "check connectivity and SSRF policy")
	}
	if resp.Status >= 500 {
		return types.OutcomeFailure(types.ErrorKindRateLimited, fmt.Sprintf("upstream returned %d", resp.Status), "retryable")
	}
	if resp.Status >= 400 {
		return types.OutcomeFailure(types.ErrorKindProviderError, fmt.Sprintf("upstream returned %d", resp.Status), "")
	}

	return types.OutcomeResult(map[string]interface{}{
		"result": map[string]interface{}{
			"status": resp.Status,
			"body":   string(resp.Body),
		},
	})
}
