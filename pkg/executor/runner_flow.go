package executor

import (
	"fmt"

	"github.com/flowcore/engine/pkg/types"
)

// IfRunner evaluates a boolean condition and branches to "true" or "false".
type IfRunner struct{}

func (r *IfRunner) Key() types.SubtypeKey {
	return types.SubtypeKey{Type: types.NodeTypeFlow, Subtype: "if"}
}

func (r *IfRunner) Validate(node types.Node) error {
	if _, ok := node.Config["condition"].(string); !ok {
		return fmt.Errorf("flow.if: %w", ErrInvalidExpression)
	}
	return nil
}

func (r *IfRunner) Execute(rc RunContext) *types.Outcome {
	cond := cfgString(rc.Config(), "condition", "")
	result, err := evalBool(cond, rc)
	if err != nil {
		return types.OutcomeFailure(types.ErrorKindInvalidConfiguration, fmt.Sprintf("evaluating condition: %v", err), "check the condition syntax")
	}
	branch := "false"
	if result {
		branch = "true"
	}
	return types.OutcomeBranch(map[string]interface{}{branch: rc.Inputs()["input"]}, branch)
}

// SwitchRunner matches the input against a list of {value, branch} cases,
// falling through to "default" when nothing matches.
type SwitchRunner struct{}

func (r *SwitchRunner) Key() types.SubtypeKey {
	return types.SubtypeKey{Type: types.NodeTypeFlow, Subtype: "switch"}
}

func (r *SwitchRunner) Validate(node types.Node) error {
	cases, ok := node.Config["cases"].([]interface{})
	if !ok || len(cases) == 0 {
		return fmt.Errorf("flow.switch: missing or empty cases")
	}
	return nil
}

func (r *SwitchRunner) Execute(rc RunContext) *types.Outcome {
	input := rc.Inputs()["input"]
	cases := cfgSlice(rc.Config(), "cases")
	for _, c := range cases {
		m, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		if compareValues(input, m["value"]) {
			branch := cfgString(m, "branch", "default")
			return types.OutcomeBranch(map[string]interface{}{branch: input}, branch)
		}
	}
	return types.OutcomeBranch(map[string]interface{}{"default": input}, "default")
}

// FilterRunner keeps only the input-array elements matching predicate.
type FilterRunner struct{}

func (r *FilterRunner) Key() types.SubtypeKey {
	return types.SubtypeKey{Type: types.NodeTypeFlow, Subtype: "filter"}
}

func (r *FilterRunner) Validate(node types.Node) error {
	if _, ok := node.Config["predicate"].(string); !ok {
		return fmt.Errorf("flow.filter: %w", ErrInvalidExpression)
	}
	return nil
}

func (r *FilterRunner) Execute(rc RunContext) *types.Outcome {
	predicate := cfgString(rc.Config(), "predicate", "")
	input, ok := rc.Inputs()["input"].([]interface{})
	if !ok {
		return types.OutcomeFailure(types.ErrorKindInvalidConfiguration, "flow.filter: input is not an array", "")
	}

	kept := make([]interface{}, 0, len(input))
	for _, item := range input {
		match, err := exprEngine().EvaluateBoolean(predicate, item, exprContext(rc))
		if err != nil {
			return types.OutcomeFailure(types.ErrorKindInvalidConfiguration, fmt.Sprintf("evaluating predicate: %v", err), "")
		}
		if match {
			kept = append(kept, item)
		}
	}
	return types.OutcomeResult(map[string]interface{}{"result": kept})
}

// LoopRunner validates and caps the items array a FLOW.LOOP node iterates
// over. The LOOP node owns its sub-subgraph by reference: the actual
// re-dispatch of the connected downstream nodes,
// once per element on port "item", is performed by pkg/engine's dispatch
// loop, which special-cases FLOW.LOOP nodes rather than invoking them like
// an ordinary runner. This runner's Execute is only reached for the
// initial validation/capping pass. The cap is the node's max_iterations
// config, else the runner's DefaultMaxIterations, else
// DefaultMaxLoopIterations; the engine Config is not consulted.
type LoopRunner struct {
	DefaultMaxIterations int
}

func (r *LoopRunner) Key() types.SubtypeKey {
	return types.SubtypeKey{Type: types.NodeTypeFlow, Subtype: "loop"}
}

func (r *LoopRunner) Validate(node types.Node) error {
	return nil
}

func (r *LoopRunner) Execute(rc RunContext) *types.Outcome {
	items, ok := rc.Inputs()["items"].([]interface{})
	if !ok {
		return types.OutcomeFailure(types.ErrorKindInvalidConfiguration, "flow.loop: items input is not an array", "")
	}

	maxIterations := cfgInt(rc.Config(), "max_iterations", r.DefaultMaxIterations)
	if maxIterations <= 0 {
		maxIterations = DefaultMaxLoopIterations
	}

	truncated := false
	if len(items) > maxIterations {
		items = items[:maxIterations]
		truncated = true
		rc.Logger().Warn(fmt.Sprintf("flow.loop: truncated to %d iterations (cap reached)", maxIterations))
	}

	return types.OutcomeResult(map[string]interface{}{
		"result":    items,
		"truncated": truncated,
	})
}

// DefaultMaxLoopIterations is used when neither the node config nor the
// runner's DefaultMaxIterations supplies a positive bound.
const DefaultMaxLoopIterations = 1000

// MergeRunner combines multiple MAIN-category inputs per its strategy.
type MergeRunner struct{}

func (r *MergeRunner) Key() types.SubtypeKey {
	return types.SubtypeKey{Type: types.NodeTypeFlow, Subtype: "merge"}
}

func (r *MergeRunner) Validate(node types.Node) error {
	strategy, _ := node.Config["strategy"].(string)
	switch strategy {
	case "wait_all", "wait_any", "merge_objects":
		return nil
	default:
		return fmt.Errorf("flow.merge: invalid strategy %q", strategy)
	}
}

func (r *MergeRunner) Execute(rc RunContext) *types.Outcome {
	strategy := cfgString(rc.Config(), "strategy", "wait_all")
	values, ok := rc.Inputs()["main"].([]interface{})
	if !ok {
		if single, present := rc.Inputs()["main"]; present {
			values = []interface{}{single}
		}
	}

	switch strategy {
	case "merge_objects":
		merged := make(map[string]interface{})
		for _, v := range values {
			if m, ok := v.(map[string]interface{}); ok {
				for k, val := range m {
					merged[k] = val
				}
			}
		}
		return types.OutcomeResult(map[string]interface{}{"result": merged})
	case "wait_any":
		if len(values) == 0 {
			return types.OutcomeFailure(types.ErrorKindInternal, "flow.merge: wait_any invoked with no inputs", "")
		}
		return types.OutcomeResult(map[string]interface{}{"result": values[0]})
	default: // wait_all
		return types.OutcomeResult(map[string]interface{}{"result": values})
	}
}

// WaitRunner yields a timer WaitSignal for N seconds.
type WaitRunner struct{}

func (r *WaitRunner) Key() types.SubtypeKey {
	return types.SubtypeKey{Type: types.NodeTypeFlow, Subtype: "wait"}
}

func (r *WaitRunner) Validate(node types.Node) error {
	seconds := cfgInt(node.Config, "seconds", 0)
	if seconds <= 0 {
		return fmt.Errorf("flow.wait: seconds must be positive")
	}
	return nil
}

func (r *WaitRunner) Execute(rc RunContext) *types.Outcome {
	seconds := cfgInt(rc.Config(), "seconds", 0)
	return types.OutcomeWait(&types.WaitSignal{
		Reason:         types.PauseReasonTimerWait,
		TimeoutSeconds: seconds,
		TimeoutAction:  types.TimeoutActionContinue,
	})
}
