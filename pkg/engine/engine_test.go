package engine

import (
	"context"
	"testing"
	"time"

	"github.com/flowcore/engine/pkg/adapters"
	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/pause"
	"github.com/flowcore/engine/pkg/types"
)

func newTestEngine() *Engine {
	return NewWithRegistry(executor.DefaultRegistry(), types.DefaultSchemaRegistry())
}

// Linear success: Trigger(manual) -> transform (merges x and x*2 into one
// object) -> http POST, verifying a straight three-node chain runs to
// completion and every node's output lands where expected.
func TestExecuteWorkflow_LinearSuccess(t *testing.T) {
	http := adapters.NewFakeHTTPInvoker()
	http.Responses["https://sink.example/ingest"] = adapters.HTTPResponse{Status: 200, Body: []byte(`{"ok":true}`)}

	wf := &types.Workflow{
		ID: "linear",
		Nodes: []types.Node{
			{ID: "trigger", Type: types.NodeTypeTrigger, Subtype: "manual"},
			{ID: "transform", Type: types.NodeTypeAction, Subtype: "transform",
				Config: map[string]interface{}{"expression": "{x: input.x, y: input.x*2}"}},
			{ID: "sink", Type: types.NodeTypeAction, Subtype: "http",
				Config: map[string]interface{}{"url": "https://sink.example/ingest", "method": "POST"}},
		},
		Edges: []types.Edge{
			{ID: "e1", Source: "trigger", Target: "transform"},
			{ID: "e2", Source: "transform", Target: "sink"},
		},
	}

	e := newTestEngine().WithAdapters(adapters.Bundle{HTTP: http})
	execID, status, err := e.ExecuteWorkflow(context.Background(), wf, map[string]interface{}{"x": float64(21)}, ExecuteOptions{})
	if err != nil {
		t.Fatalf("ExecuteWorkflow: %v", err)
	}
	if status != types.ExecutionSucceeded {
		t.Fatalf("status = %v, want succeeded", status)
	}

	view, err := e.GetExecution(context.Background(), execID)
	if err != nil {
		t.Fatalf("GetExecution: %v", err)
	}
	transformRun := view.Execution.GetNodeRun("transform")
	if transformRun == nil || transformRun.Status != types.NodeRunSucceeded {
		t.Fatalf("transform run = %+v", transformRun)
	}
	result, ok := transformRun.Output["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("transform output not a map: %#v", transformRun.Output)
	}
	if result["x"] != float64(21) || result["y"] != float64(42) {
		t.Fatalf("transform result = %#v, want {x:21, y:42}", result)
	}

	if len(http.Calls) != 1 {
		t.Fatalf("expected exactly one HTTP call, got %d", len(http.Calls))
	}
}

// IF branch selection: only the taken branch's downstream node runs; the
// other is marked skipped, never delivered a value.
func TestExecuteWorkflow_IfBranchSelection(t *testing.T) {
	wf := &types.Workflow{
		ID: "branch",
		Nodes: []types.Node{
			{ID: "trigger", Type: types.NodeTypeTrigger, Subtype: "manual"},
			{ID: "check", Type: types.NodeTypeFlow, Subtype: "if",
				Config: map[string]interface{}{"condition": "input.amount > 100"}},
			{ID: "high", Type: types.NodeTypeAction, Subtype: "code",
				Config: map[string]interface{}{"expression": `"high"`}},
			{ID: "low", Type: types.NodeTypeAction, Subtype: "code",
				Config: map[string]interface{}{"expression": `"low"`}},
		},
		Edges: []types.Edge{
			{ID: "e1", Source: "trigger", Target: "check"},
			{ID: "e2", Source: "check", Target: "high", OutputKey: "true"},
			{ID: "e3", Source: "check", Target: "low", OutputKey: "false"},
		},
	}

	e := newTestEngine()
	execID, status, err := e.ExecuteWorkflow(context.Background(), wf, map[string]interface{}{"amount": float64(250)}, ExecuteOptions{})
	if err != nil {
		t.Fatalf("ExecuteWorkflow: %v", err)
	}
	if status != types.ExecutionSucceeded {
		t.Fatalf("status = %v, want succeeded", status)
	}

	view, _ := e.GetExecution(context.Background(), execID)
	highRun := view.Execution.GetNodeRun("high")
	lowRun := view.Execution.GetNodeRun("low")
	if highRun == nil || highRun.Status != types.NodeRunSucceeded {
		t.Fatalf("high run = %+v, want succeeded", highRun)
	}
	if lowRun == nil || lowRun.Status != types.NodeRunSkipped {
		t.Fatalf("low run = %+v, want skipped", lowRun)
	}
}

// HIL approval, approved: the workflow pauses at the HUMAN_IN_THE_LOOP
// node, then an external resume carrying "approved" lets it finish.
func TestExecuteWorkflow_HILApprovalApproved(t *testing.T) {
	wf := &types.Workflow{
		ID: "approval",
		Nodes: []types.Node{
			{ID: "trigger", Type: types.NodeTypeTrigger, Subtype: "manual"},
			{ID: "gate", Type: types.NodeTypeHIL, Subtype: "approval",
				Config: map[string]interface{}{
					"channel":         "slack",
					"timeout_seconds": 3600,
					"timeout_action":  "fail",
				}},
			{ID: "after", Type: types.NodeTypeAction, Subtype: "code",
				Config: map[string]interface{}{"expression": `"done"`}},
		},
		Edges: []types.Edge{
			{ID: "e1", Source: "trigger", Target: "gate"},
			{ID: "e2", Source: "gate", Target: "after"},
		},
	}

	e := newTestEngine()
	execID, status, err := e.ExecuteWorkflow(context.Background(), wf, map[string]interface{}{"request": "spend $500"}, ExecuteOptions{})
	if err != nil {
		t.Fatalf("ExecuteWorkflow: %v", err)
	}
	if status != types.ExecutionPaused {
		t.Fatalf("status = %v, want paused", status)
	}

	status, err = e.ResumeExecution(context.Background(), pause.ResumeRequest{
		ExecutionID:    execID,
		NodeID:         "gate",
		Response:       "approved by manager",
		Classification: "approved",
	})
	if err != nil {
		t.Fatalf("ResumeExecution: %v", err)
	}
	if status != types.ExecutionSucceeded {
		t.Fatalf("status after resume = %v, want succeeded", status)
	}

	view, _ := e.GetExecution(context.Background(), execID)
	gateRun := view.Execution.GetNodeRun("gate")
	if gateRun == nil || gateRun.Status != types.NodeRunSucceeded {
		t.Fatalf("gate run = %+v, want succeeded", gateRun)
	}
	afterRun := view.Execution.GetNodeRun("after")
	if afterRun == nil || afterRun.Status != types.NodeRunSucceeded {
		t.Fatalf("after run = %+v, want succeeded", afterRun)
	}
}

// HIL timeout with fail: nobody resumes before the deadline, so the
// monitor's scan applies timeout_action=fail and the whole execution fails.
func TestExecuteWorkflow_HILTimeoutFails(t *testing.T) {
	wf := &types.Workflow{
		ID: "timeout-fail",
		Nodes: []types.Node{
			{ID: "trigger", Type: types.NodeTypeTrigger, Subtype: "manual"},
			{ID: "gate", Type: types.NodeTypeHIL, Subtype: "approval",
				Config: map[string]interface{}{
					"channel":         "email",
					"timeout_seconds": 60,
					"timeout_action":  "fail",
				}},
		},
		Edges: []types.Edge{
			{ID: "e1", Source: "trigger", Target: "gate"},
		},
	}

	e := newTestEngine()
	execID, status, err := e.ExecuteWorkflow(context.Background(), wf, map[string]interface{}{}, ExecuteOptions{})
	if err != nil {
		t.Fatalf("ExecuteWorkflow: %v", err)
	}
	if status != types.ExecutionPaused {
		t.Fatalf("status = %v, want paused", status)
	}

	rec, ok, err := e.pauseStore.Load(context.Background(), execID, "gate")
	if err != nil || !ok {
		t.Fatalf("expected a pending pause record, ok=%v err=%v", ok, err)
	}
	rec.Deadline = time.Now().Add(-time.Second)
	if err := e.pauseStore.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	e.TimeoutMonitor().ScanOnce(context.Background())

	view, err := e.GetExecution(context.Background(), execID)
	if err != nil {
		t.Fatalf("GetExecution: %v", err)
	}
	if view.Execution.GetStatus() != types.ExecutionFailed {
		t.Fatalf("status = %v, want failed", view.Execution.GetStatus())
	}
	gateRun := view.Execution.GetNodeRun("gate")
	if gateRun == nil || gateRun.Status != types.NodeRunTimedOut {
		t.Fatalf("gate run = %+v, want timed-out", gateRun)
	}
}

// MERGE wait_all: two parallel branches off the trigger both feed one
// merge node, which only becomes ready once both have delivered.
func TestExecuteWorkflow_MergeWaitAll(t *testing.T) {
	wf := &types.Workflow{
		ID: "merge",
		Nodes: []types.Node{
			{ID: "trigger", Type: types.NodeTypeTrigger, Subtype: "manual"},
			{ID: "left", Type: types.NodeTypeAction, Subtype: "code",
				Config: map[string]interface{}{"expression": `"left"`}},
			{ID: "right", Type: types.NodeTypeAction, Subtype: "code",
				Config: map[string]interface{}{"expression": `"right"`}},
			{ID: "join", Type: types.NodeTypeFlow, Subtype: "merge",
				Config: map[string]interface{}{"strategy": "wait_all"}},
		},
		Edges: []types.Edge{
			{ID: "e1", Source: "trigger", Target: "left"},
			{ID: "e2", Source: "trigger", Target: "right"},
			{ID: "e3", Source: "left", Target: "join", InputKey: "main"},
			{ID: "e4", Source: "right", Target: "join", InputKey: "main"},
		},
	}

	e := newTestEngine()
	execID, status, err := e.ExecuteWorkflow(context.Background(), wf, map[string]interface{}{}, ExecuteOptions{})
	if err != nil {
		t.Fatalf("ExecuteWorkflow: %v", err)
	}
	if status != types.ExecutionSucceeded {
		t.Fatalf("status = %v, want succeeded", status)
	}

	view, _ := e.GetExecution(context.Background(), execID)
	joinRun := view.Execution.GetNodeRun("join")
	if joinRun == nil || joinRun.Status != types.NodeRunSucceeded {
		t.Fatalf("join run = %+v, want succeeded", joinRun)
	}
	values, ok := joinRun.Output["result"].([]interface{})
	if !ok || len(values) != 2 {
		t.Fatalf("join result = %#v, want a 2-element list", joinRun.Output["result"])
	}
}

// FOR_EACH with cap: a FLOW.LOOP re-dispatches its body once per item, and
// truncates at max_iterations, reporting that it did.
func TestExecuteWorkflow_LoopWithCap(t *testing.T) {
	wf := &types.Workflow{
		ID: "loop",
		Nodes: []types.Node{
			{ID: "trigger", Type: types.NodeTypeTrigger, Subtype: "manual"},
			{ID: "items", Type: types.NodeTypeAction, Subtype: "code",
				Config: map[string]interface{}{"expression": "input.values"}},
			{ID: "each", Type: types.NodeTypeFlow, Subtype: "loop",
				Config: map[string]interface{}{"max_iterations": 2}},
			{ID: "double", Type: types.NodeTypeAction, Subtype: "code",
				Config: map[string]interface{}{"expression": "item * 2"}},
		},
		Edges: []types.Edge{
			{ID: "e1", Source: "trigger", Target: "items"},
			{ID: "e2", Source: "items", Target: "each", InputKey: "items"},
			{ID: "e3", Source: "each", Target: "double", OutputKey: "item"},
		},
	}

	e := newTestEngine()
	trigger := map[string]interface{}{"values": []interface{}{float64(1), float64(2), float64(3), float64(4)}}
	execID, status, err := e.ExecuteWorkflow(context.Background(), wf, trigger, ExecuteOptions{})
	if err != nil {
		t.Fatalf("ExecuteWorkflow: %v", err)
	}
	if status != types.ExecutionSucceeded {
		t.Fatalf("status = %v, want succeeded", status)
	}

	view, _ := e.GetExecution(context.Background(), execID)
	loopRun := view.Execution.GetNodeRun("each")
	if loopRun == nil || loopRun.Status != types.NodeRunSucceeded {
		t.Fatalf("loop run = %+v, want succeeded", loopRun)
	}
	if loopRun.Output["truncated"] != true {
		t.Fatalf("loop output = %#v, want truncated=true", loopRun.Output)
	}
	items, ok := loopRun.Output["result"].([]interface{})
	if !ok || len(items) != 2 {
		t.Fatalf("loop result = %#v, want 2 capped items", loopRun.Output["result"])
	}

	// The body node's run record reflects the final iteration only, since
	// Execution tracks one NodeRun per node id.
	doubleRun := view.Execution.GetNodeRun("double")
	if doubleRun == nil || doubleRun.Status != types.NodeRunSucceeded {
		t.Fatalf("double run = %+v, want succeeded", doubleRun)
	}
	if doubleRun.Output["result"] != float64(4) {
		t.Fatalf("double result = %#v, want 4 (2nd of the two capped items, doubled)", doubleRun.Output["result"])
	}
}

// CancelExecution on a paused execution transitions it to canceled.
func TestCancelExecution_Paused(t *testing.T) {
	wf := &types.Workflow{
		ID: "cancel",
		Nodes: []types.Node{
			{ID: "trigger", Type: types.NodeTypeTrigger, Subtype: "manual"},
			{ID: "gate", Type: types.NodeTypeHIL, Subtype: "approval",
				Config: map[string]interface{}{
					"channel":         "in_app",
					"timeout_seconds": 3600,
					"timeout_action":  "fail",
				}},
		},
		Edges: []types.Edge{{ID: "e1", Source: "trigger", Target: "gate"}},
	}

	e := newTestEngine()
	execID, status, err := e.ExecuteWorkflow(context.Background(), wf, map[string]interface{}{}, ExecuteOptions{})
	if err != nil {
		t.Fatalf("ExecuteWorkflow: %v", err)
	}
	if status != types.ExecutionPaused {
		t.Fatalf("status = %v, want paused", status)
	}

	status, err = e.CancelExecution(context.Background(), execID)
	if err != nil {
		t.Fatalf("CancelExecution: %v", err)
	}
	if status != types.ExecutionCanceled {
		t.Fatalf("status = %v, want canceled", status)
	}

	view, err := e.GetExecution(context.Background(), execID)
	if err != nil {
		t.Fatalf("GetExecution: %v", err)
	}
	if view.Execution.GetStatus() != types.ExecutionCanceled {
		t.Fatalf("persisted status = %v, want canceled", view.Execution.GetStatus())
	}

	_, err = e.ResumeExecution(context.Background(), pause.ResumeRequest{ExecutionID: execID, NodeID: "gate", Classification: "approved"})
	if err == nil {
		t.Fatalf("ResumeExecution on a canceled execution should fail")
	}
}

// start_from_node without a trigger event is rejected up front.
func TestExecuteWorkflow_StartFromNodeRequiresTrigger(t *testing.T) {
	wf := &types.Workflow{
		ID: "start-from",
		Nodes: []types.Node{
			{ID: "mid", Type: types.NodeTypeAction, Subtype: "code", Config: map[string]interface{}{"expression": "input"}},
		},
	}
	e := newTestEngine()
	_, _, err := e.ExecuteWorkflow(context.Background(), wf, nil, ExecuteOptions{StartFromNode: "mid"})
	if err != ErrTriggerNotApplicable {
		t.Fatalf("err = %v, want ErrTriggerNotApplicable", err)
	}
}
