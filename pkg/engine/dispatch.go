package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/flowcore/engine/pkg/adapters"
	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/graph"
	"github.com/flowcore/engine/pkg/observer"
	"github.com/flowcore/engine/pkg/pause"
	"github.com/flowcore/engine/pkg/router"
	"github.com/flowcore/engine/pkg/types"
)

// dispatchState is the in-memory readiness/delivery tracking for one
// execution's dispatch loop, retained across a pause/resume boundary.
type dispatchState struct {
	exec   *types.Execution
	g      *graph.Graph
	wf     *types.Workflow
	router *router.Router

	mu             sync.Mutex
	remaining      map[string]int
	deliveries     map[string][]router.Delivery
	nodeOutputs    map[string]map[string]interface{}
	ready          []string
	dispatchedOnce map[string]bool
	pausedNodes    map[string]*types.PauseRecord
	stopRequested  bool
}

// isMergeWaitAny reports whether n is a FLOW.MERGE node configured with the
// wait_any strategy, which is satisfied by its first delivery rather than
// every inbound edge.
func isMergeWaitAny(n types.Node) bool {
	if n.Type != types.NodeTypeFlow || n.Subtype != "merge" {
		return false
	}
	strategy, _ := n.Config["strategy"].(string)
	return strategy == "wait_any"
}

func newDispatchState(exec *types.Execution, g *graph.Graph, wf *types.Workflow, rtr *router.Router) *dispatchState {
	ds := &dispatchState{
		exec:           exec,
		g:              g,
		wf:             wf,
		router:         rtr,
		remaining:      make(map[string]int),
		deliveries:     make(map[string][]router.Delivery),
		nodeOutputs:    make(map[string]map[string]interface{}),
		dispatchedOnce: make(map[string]bool),
		pausedNodes:    make(map[string]*types.PauseRecord),
	}

	for _, n := range g.Nodes() {
		count := 0
		for _, edge := range g.GetNodeInputEdges(n.ID) {
			if edge.LoopBack {
				continue
			}
			count++
		}
		if isMergeWaitAny(n) && count > 0 {
			count = 1
		}
		ds.remaining[n.ID] = count
	}

	for _, n := range g.Nodes() {
		if ds.remaining[n.ID] == 0 {
			ds.dispatchedOnce[n.ID] = true
			ds.ready = append(ds.ready, n.ID)
		}
	}
	return ds
}

func (ds *dispatchState) removeFromReady(nodeID string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	out := ds.ready[:0]
	for _, id := range ds.ready {
		if id != nodeID {
			out = append(out, id)
		}
	}
	ds.ready = out
}

func (ds *dispatchState) markDispatchedOnce(nodeID string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.dispatchedOnce[nodeID] = true
}

func (ds *dispatchState) markPaused(nodeID string, rec *types.PauseRecord) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.pausedNodes[nodeID] = rec
}

func (ds *dispatchState) clearPaused(nodeID string) *types.PauseRecord {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	rec := ds.pausedNodes[nodeID]
	delete(ds.pausedNodes, nodeID)
	return rec
}

func (ds *dispatchState) hasPaused() bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return len(ds.pausedNodes) > 0
}

func (ds *dispatchState) requestStop() {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.stopRequested = true
}

func (ds *dispatchState) stopRequestedVal() bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.stopRequested
}

func (ds *dispatchState) takeReady() []string {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	r := ds.ready
	ds.ready = nil
	return r
}

func (ds *dispatchState) takeDeliveries(nodeID string) []router.Delivery {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.deliveries[nodeID]
}

func (ds *dispatchState) setOutput(nodeID string, out map[string]interface{}) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.nodeOutputs[nodeID] = out
}

func (ds *dispatchState) getOutput(nodeID string) map[string]interface{} {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.nodeOutputs[nodeID]
}

// deliver resolves one edge against its producer's output and, if this
// brings the target's remaining count to zero for the first time, adds it
// to the ready set.
func (ds *dispatchState) deliver(rtr *router.Router, edge types.Edge, producerOutput map[string]interface{}) {
	d := rtr.Deliver(edge, producerOutput)
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.deliveries[edge.Target] = append(ds.deliveries[edge.Target], d)
	ds.remaining[edge.Target]--
	if ds.remaining[edge.Target] <= 0 && !ds.dispatchedOnce[edge.Target] {
		ds.dispatchedOnce[edge.Target] = true
		ds.ready = append(ds.ready, edge.Target)
	}
}

// portDelivers reports whether an edge's output port actually produced a
// value this invocation. The conventional "result" port always delivers
// (possibly the whole output object, or an explicit empty map); any other
// named port — e.g. FLOW.IF's "true"/"false" — only delivers when that key
// is present, so the branch not taken is never delivered at all and its
// downstream nodes simply never become ready.
func portDelivers(edge types.Edge, outputs map[string]interface{}) bool {
	key := edge.OutputKeyOrDefault()
	if key == "result" {
		return true
	}
	_, present := outputs[key]
	return present
}

func sortNodeIDs(g *graph.Graph, ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := g.TopoIndex(ids[i]), g.TopoIndex(ids[j])
		if ti != tj {
			return ti < tj
		}
		return ids[i] < ids[j]
	})
}

// runDispatch drives the wave loop until the execution pauses or reaches a
// terminal status.
func (e *Engine) runDispatch(ctx context.Context, ds *dispatchState) types.ExecutionStatus {
	for {
		if ds.stopRequestedVal() {
			return e.finalize(ctx, ds, types.ExecutionFailed)
		}

		readyNow := ds.takeReady()
		if len(readyNow) == 0 {
			if ds.hasPaused() {
				ds.exec.SetStatus(types.ExecutionPaused)
				return types.ExecutionPaused
			}
			status := types.ExecutionSucceeded
			if ds.exec.HasFailedNode() {
				status = types.ExecutionFailed
			}
			return e.finalize(ctx, ds, status)
		}

		sortNodeIDs(ds.g, readyNow)

		sem := make(chan struct{}, e.workerPoolSize())
		var wg sync.WaitGroup
		for _, id := range readyNow {
			nodeID := id
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				e.dispatchNode(ctx, ds, nodeID)
			}()
		}
		wg.Wait()
	}
}

// finalize marks every node that never ran as skipped and transitions the
// execution to its terminal status.
func (e *Engine) finalize(ctx context.Context, ds *dispatchState, status types.ExecutionStatus) types.ExecutionStatus {
	for _, n := range ds.g.Nodes() {
		if ds.exec.GetNodeRun(n.ID) == nil {
			ds.exec.PutNodeRun(&types.NodeRun{NodeID: n.ID, Status: types.NodeRunSkipped})
		}
	}
	ds.exec.SetStatus(status)
	return status
}

func (e *Engine) dispatchNode(ctx context.Context, ds *dispatchState, nodeID string) {
	nodePtr := ds.g.GetNode(nodeID)
	if nodePtr == nil {
		return
	}
	node := *nodePtr
	inputs := router.Aggregate(ds.takeDeliveries(nodeID))

	if node.Type == types.NodeTypeFlow && node.Subtype == "loop" {
		e.dispatchLoop(ctx, ds, node, inputs)
		return
	}

	outputs, outcome := e.invoke(ctx, ds, node, inputs)
	switch {
	case outcome.Result != nil:
		ds.setOutput(node.ID, outputs)
		e.deliverEdges(ds, node, outputs, nil)
	case outcome.Wait != nil:
		e.persistPause(ctx, ds, node, outcome.Wait)
	case outcome.Failure != nil:
		e.applyFailurePolicy(ctx, ds, node, outcome.Failure)
	}
}

// deliverEdges routes a node's output map across its outgoing edges,
// excluding loop-back edges and any the caller's filter rejects.
func (e *Engine) deliverEdges(ds *dispatchState, node types.Node, outputs map[string]interface{}, filter func(types.Edge) bool) {
	for _, edge := range ds.g.GetNodeOutputEdges(node.ID) {
		if edge.LoopBack {
			continue
		}
		if filter != nil && !filter(edge) {
			continue
		}
		if !portDelivers(edge, outputs) {
			continue
		}
		ds.deliver(e.router, edge, outputs)
	}
}

// shapeFailureOutput builds the synthetic output a failed node's error
// policy delivers: continue-error-branch carries a
// structured error object on "error"-keyed edges only; continue-regular
// carries an empty result, routed through the same portDelivers check as a
// normal output, so it reaches the "result"-keyed outgoing edges and not
// edges on named ports the empty output lacks.
func shapeFailureOutput(policy types.ErrorPolicy, runErr *types.RunError) (out map[string]interface{}, onlyErrorEdges bool) {
	if policy == types.ErrorPolicyContinueErrorPath {
		return map[string]interface{}{
			"error": map[string]interface{}{"kind": string(runErr.Kind), "message": runErr.Message, "advice": runErr.Advice},
		}, true
	}
	return map[string]interface{}{}, false
}

func (e *Engine) errorPolicy(wf *types.Workflow) types.ErrorPolicy {
	if wf.Settings.ErrorPolicy == "" {
		return types.ErrorPolicyStop
	}
	return wf.Settings.ErrorPolicy
}

// applyFailurePolicy applies the workflow's error policy to a failed node:
// stop ends the execution;
// the other two policies shape a synthetic output and route it onward.
func (e *Engine) applyFailurePolicy(ctx context.Context, ds *dispatchState, node types.Node, runErr *types.RunError) {
	policy := e.errorPolicy(ds.wf)
	if policy == types.ErrorPolicyStop {
		ds.requestStop()
		return
	}

	out, onlyError := shapeFailureOutput(policy, runErr)
	ds.setOutput(node.ID, out)
	if onlyError {
		e.deliverEdges(ds, node, out, func(edge types.Edge) bool { return edge.OutputKeyOrDefault() == "error" })
	} else {
		e.deliverEdges(ds, node, out, nil)
	}
}

func (e *Engine) workerPoolSize() int {
	if e.config.WorkerPoolSize > 0 {
		return e.config.WorkerPoolSize
	}
	return 4
}

func (e *Engine) nodeTimeout(node types.Node) time.Duration {
	switch v := node.Config["timeout_seconds"].(type) {
	case float64:
		if v > 0 {
			return time.Duration(v) * time.Second
		}
	case int:
		if v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	if e.config.DefaultNodeTimeout > 0 {
		return e.config.DefaultNodeTimeout
	}
	return executor.DefaultNodeTimeout
}

func waitingStatus(reason types.PauseReason) types.NodeRunStatus {
	if reason == types.PauseReasonTimerWait {
		return types.NodeRunWaitingTimer
	}
	return types.NodeRunWaitingHuman
}

// invoke runs one node to completion (trigger materialization or a
// registered runner, through the retry/cancellation wrapper), recording its
// NodeRun and emitting logs/observer events along the way.
func (e *Engine) invoke(ctx context.Context, ds *dispatchState, node types.Node, inputs map[string]interface{}) (map[string]interface{}, *types.Outcome) {
	exec := ds.exec
	start := time.Now()
	run := &types.NodeRun{NodeID: node.ID, Status: types.NodeRunRunning, Input: inputs, StartedAt: &start}
	exec.PutNodeRun(run)
	exec.AppendPath(node.ID)
	e.emitLog(ctx, exec.ID, node.ID, types.LogLevelInfo, types.EventStepStarted, fmt.Sprintf("starting %s", node.Name), nil, false)
	e.notifyNode(ctx, observer.EventNodeStart, exec, node, nil, nil)

	var outcome *types.Outcome
	var rc *runContext
	if node.Type == types.NodeTypeTrigger {
		outcome = types.OutcomeResult(map[string]interface{}{"result": exec.TriggerEvent})
	} else {
		nodeCtx, cancel := context.WithTimeout(ctx, e.nodeTimeout(node))
		rc = &runContext{
			ctx: nodeCtx, node: node, inputs: inputs, trigger: exec.TriggerEvent,
			adapters: e.adapters, logger: e.scopedLogger(exec.ID, node.ID), cfg: e.config,
		}
		outcome = e.executeWithRetry(rc)
		cancel()
	}

	end := time.Now()
	run.EndedAt = &end
	run.ExecutionMS = end.Sub(start).Milliseconds()
	run.AttemptCount = 1
	if rc != nil && rc.attempt > run.AttemptCount {
		run.AttemptCount = rc.attempt
	}

	var outputs map[string]interface{}
	switch {
	case outcome.Result != nil:
		outputs = outcome.Result.Outputs
		run.Status = types.NodeRunSucceeded
		run.Output = outputs
		e.emitLog(ctx, exec.ID, node.ID, types.LogLevelInfo, types.EventStepCompleted, fmt.Sprintf("%s completed", node.Name), nil, false)
		e.notifyNode(ctx, observer.EventNodeSuccess, exec, node, outputs, nil)
	case outcome.Wait != nil:
		run.Status = waitingStatus(outcome.Wait.Reason)
		e.notifyNode(ctx, observer.EventNodeEnd, exec, node, nil, nil)
	case outcome.Failure != nil:
		run.Status = types.NodeRunFailed
		run.Error = outcome.Failure
		e.emitLog(ctx, exec.ID, node.ID, types.LogLevelError, types.EventStepError,
			fmt.Sprintf("%s failed: %s", node.Name, outcome.Failure.Message),
			map[string]interface{}{"kind": outcome.Failure.Kind, "advice": outcome.Failure.Advice}, true)
		e.notifyNode(ctx, observer.EventNodeFailure, exec, node, nil, outcome.Failure)
	}
	exec.PutNodeRun(run)
	return outputs, outcome
}

// executeWithRetry retries a runner invocation on retryable failures with
// exponential backoff, bounded by Config.DefaultMaxAttempts.
func (e *Engine) executeWithRetry(rc *runContext) *types.Outcome {
	attempts := e.config.DefaultMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := e.config.DefaultBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	maxBackoff := e.config.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}

	var outcome *types.Outcome
	for attempt := 1; attempt <= attempts; attempt++ {
		rc.attempt = attempt
		outcome = e.callRunner(rc)
		if outcome.Failure == nil || !outcome.Failure.Kind.Retryable() || attempt == attempts {
			return outcome
		}
		select {
		case <-rc.ctx.Done():
			return types.OutcomeFailure(types.ErrorKindCancelled, "cancelled during retry backoff", "")
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return outcome
}

// callRunner invokes the registry, racing the runner against its context's
// cancellation with a grace window.
func (e *Engine) callRunner(rc *runContext) *types.Outcome {
	resultCh := make(chan *types.Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- types.OutcomeFailure(types.ErrorKindInternal, fmt.Sprintf("runner panicked: %v", r), "")
			}
		}()
		resultCh <- e.chain.Execute(rc, e.registry.Execute)
	}()

	select {
	case out := <-resultCh:
		return out
	case <-rc.ctx.Done():
		grace := e.config.CancelGrace
		if grace <= 0 {
			grace = 5 * time.Second
		}
		select {
		case out := <-resultCh:
			return out
		case <-time.After(grace):
			rc.logger.Warn("cancel_timeout: node did not return within the cancellation grace window")
			return types.OutcomeFailure(types.ErrorKindCancelled, "node exceeded the cancellation grace window", "")
		}
	}
}

func (e *Engine) scopedLogger(execID, nodeID string) executor.Logger {
	return e.logger.WithExecutionID(execID).WithNodeID(nodeID)
}

func (e *Engine) notifyNode(ctx context.Context, evt observer.EventType, exec *types.Execution, node types.Node, result interface{}, err error) {
	if !e.observers.HasObservers() {
		return
	}
	status := observer.StatusStarted
	switch evt {
	case observer.EventNodeSuccess:
		status = observer.StatusSuccess
	case observer.EventNodeFailure:
		status = observer.StatusFailure
	case observer.EventNodeEnd:
		status = observer.StatusCompleted
	}
	e.observers.Notify(ctx, observer.Event{
		Type: evt, Status: status, Timestamp: time.Now(),
		ExecutionID: exec.ID, WorkflowID: exec.WorkflowID,
		NodeID: node.ID, NodeType: node.Type, Result: result, Error: err,
	})
}

// persistPause records a suspended node's PauseRecord and marks it paused
// in the dispatch state.
func (e *Engine) persistPause(ctx context.Context, ds *dispatchState, node types.Node, wait *types.WaitSignal) {
	seconds := wait.TimeoutSeconds
	if seconds <= 0 {
		seconds = 3600
	}
	rec := &types.PauseRecord{
		ExecutionID:      ds.exec.ID,
		NodeID:           node.ID,
		Reason:           wait.Reason,
		ResumeConditions: wait.ResumeConditions,
		Deadline:         time.Now().Add(time.Duration(seconds) * time.Second),
		TimeoutAction:    wait.TimeoutAction,
		DefaultResponse:  wait.DefaultResponse,
		InteractionID:    wait.InteractionID,
		Version:          1,
	}
	ds.markPaused(node.ID, rec)
	if err := e.pauseStore.Save(ctx, rec); err != nil {
		e.logger.Error(fmt.Sprintf("failed to persist pause record for %s: %v", node.ID, err))
	}
	if err := e.pauses.SavePause(ctx, rec); err != nil {
		e.logger.Error(fmt.Sprintf("failed to persist pause record for %s: %v", node.ID, err))
	}

	e.emitLog(ctx, ds.exec.ID, node.ID, types.LogLevelInfo, types.EventHumanInteraction,
		fmt.Sprintf("%s waiting (%s)", node.Name, wait.Reason),
		map[string]interface{}{"channel": wait.Channel, "deadline": rec.Deadline}, true)
}

// applyResolution applies a resume or timeout Resolved to its paused node,
// recovering the original pause context (isTimeout) to label the NodeRun
// correctly, then either routes the node's output onward or applies the
// workflow's error policy.
func (e *Engine) applyResolution(ctx context.Context, ds *dispatchState, nodeID string, resolved *pause.Resolved, isTimeout bool) {
	nodePtr := ds.g.GetNode(nodeID)
	if nodePtr == nil {
		return
	}
	node := *nodePtr
	ds.clearPaused(nodeID)
	if err := e.pauses.DeletePause(ctx, ds.exec.ID, nodeID); err != nil {
		e.logger.Error(fmt.Sprintf("failed to clear pause record for %s: %v", nodeID, err))
	}

	run := ds.exec.GetNodeRun(nodeID)
	if run == nil {
		run = &types.NodeRun{NodeID: nodeID}
	}
	now := time.Now()
	run.EndedAt = &now

	if resolved.Succeed {
		run.Status = types.NodeRunSucceeded
		run.Output = resolved.Output
		ds.exec.PutNodeRun(run)
		e.emitLog(ctx, ds.exec.ID, nodeID, types.LogLevelInfo, types.EventStepCompleted, fmt.Sprintf("%s resumed", node.Name), nil, true)
		ds.setOutput(nodeID, resolved.Output)
		e.deliverEdges(ds, node, resolved.Output, nil)
		return
	}

	if isTimeout {
		run.Status = types.NodeRunTimedOut
		run.Error = types.NewRunError(types.ErrorKindTimeout, fmt.Sprintf("%s timed out waiting for a response", node.Name), "")
		e.emitLog(ctx, ds.exec.ID, nodeID, types.LogLevelError, types.EventTimedOut, fmt.Sprintf("%s timed out", node.Name), nil, true)
	} else {
		run.Status = types.NodeRunFailed
		run.Error = types.NewRunError(types.ErrorKindProviderError, fmt.Sprintf("%s response rejected", node.Name), "")
		e.emitLog(ctx, ds.exec.ID, nodeID, types.LogLevelError, types.EventStepError, fmt.Sprintf("%s rejected", node.Name), nil, true)
	}
	ds.exec.PutNodeRun(run)
	e.applyFailurePolicy(ctx, ds, node, run.Error)
}

// seedStartFromNode materializes the start_from_node's output directly
// from the supplied trigger event, bypassing its runner entirely.
func (e *Engine) seedStartFromNode(ds *dispatchState, startID string, trigger map[string]interface{}) {
	nodePtr := ds.g.GetNode(startID)
	if nodePtr == nil {
		return
	}
	node := *nodePtr
	out := map[string]interface{}{"result": trigger}
	now := time.Now()
	ds.exec.PutNodeRun(&types.NodeRun{NodeID: startID, Status: types.NodeRunSucceeded, Output: out, StartedAt: &now, EndedAt: &now})
	ds.exec.AppendPath(startID)
	ds.setOutput(startID, out)
	e.deliverEdges(ds, node, out, nil)
}

// runContext implements executor.RunContext for one node invocation.
type runContext struct {
	ctx      context.Context
	node     types.Node
	inputs   map[string]interface{}
	trigger  map[string]interface{}
	adapters adapters.Bundle
	logger   executor.Logger
	cfg      types.Config
	attempt  int
}

func (r *runContext) Context() context.Context            { return r.ctx }
func (r *runContext) Node() types.Node                     { return r.node }
func (r *runContext) Config() map[string]interface{}       { return r.node.Config }
func (r *runContext) Inputs() map[string]interface{}       { return r.inputs }
func (r *runContext) TriggerEvent() map[string]interface{} { return r.trigger }
func (r *runContext) Adapters() adapters.Bundle            { return r.adapters }
func (r *runContext) Logger() executor.Logger              { return r.logger }
func (r *runContext) EngineConfig() types.Config            { return r.cfg }
func (r *runContext) Attempt() int                          { return r.attempt }

var _ executor.RunContext = (*runContext)(nil)
