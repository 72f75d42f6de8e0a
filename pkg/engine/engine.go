package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowcore/engine/pkg/adapters"
	"github.com/flowcore/engine/pkg/config"
	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/graph"
	"github.com/flowcore/engine/pkg/logging"
	"github.com/flowcore/engine/pkg/middleware"
	"github.com/flowcore/engine/pkg/observer"
	"github.com/flowcore/engine/pkg/pause"
	"github.com/flowcore/engine/pkg/repository"
	"github.com/flowcore/engine/pkg/router"
	"github.com/flowcore/engine/pkg/timeoutmonitor"
	"github.com/flowcore/engine/pkg/types"
)

// Engine is the scheduler that drives workflow executions to completion. It is safe for
// concurrent use: ExecuteWorkflow, ResumeExecution and CancelExecution may
// all be called from different goroutines, including concurrently against
// different executions.
type Engine struct {
	registry *executor.Registry
	schemas  *types.SchemaRegistry
	config   types.Config
	adapters adapters.Bundle

	workflows  repository.WorkflowRepository
	executions repository.ExecutionRepository
	pauses     repository.PauseRepository
	logs       repository.LogRepository

	pauseStore pause.Store
	pauseCtrl  *pause.Controller
	router     *router.Router

	observers *observer.Manager
	logger    *logging.Logger
	chain     *middleware.Chain

	mu      sync.Mutex
	active  map[string]*dispatchState
	cancels map[string]context.CancelFunc
}

// ExecuteOptions carries ExecuteWorkflow's optional parameters.
type ExecuteOptions struct {
	// StartFromNode, when set, begins dispatch at this node instead of at
	// a TRIGGER node, feeding it the supplied trigger event directly.
	StartFromNode string
}

// New builds an Engine wired with the default runner and schema registries
// (every node subtype the engine knows how to run) and an in-memory
// repository/pause store, suitable for tests and single-process deployments.
func New() *Engine {
	return NewWithRegistry(executor.DefaultRegistry(), types.DefaultSchemaRegistry())
}

// NewWithRegistry builds an Engine around a caller-supplied runner registry
// and schema registry, e.g. to register additional or test-only subtypes.
func NewWithRegistry(registry *executor.Registry, schemas *types.SchemaRegistry) *Engine {
	repo := repository.NewInMemory()
	pauseStore := pause.NewInMemoryStore()
	cfg := *config.Default()

	chain := middleware.NewChain().
		Use(middleware.NewValidationMiddleware(registry)).
		Use(middleware.NewRateLimitMiddleware()).
		Use(middleware.NewSizeLimitMiddleware())

	return &Engine{
		registry:   registry,
		schemas:    schemas,
		config:     cfg,
		workflows:  repo,
		executions: repo,
		pauses:     repo,
		logs:       repo,
		pauseStore: pauseStore,
		pauseCtrl:  pause.New(pauseStore, nil, cfg.ResponseClassifierThreshold),
		router:     router.New(),
		observers:  observer.NewManager(),
		logger:     logging.New(logging.DefaultConfig()),
		chain:      chain,
		active:     make(map[string]*dispatchState),
		cancels:    make(map[string]context.CancelFunc),
	}
}

// WithConfig overrides the engine's tuning knobs.
func (e *Engine) WithConfig(cfg types.Config) *Engine {
	e.config = cfg
	e.pauseCtrl = pause.New(e.pauseStore, e.adapters.Classifier, e.config.ResponseClassifierThreshold)
	return e
}

// WithAdapters wires the external collaborators every non-FLOW runner
// needs.
func (e *Engine) WithAdapters(bundle adapters.Bundle) *Engine {
	e.adapters = bundle
	e.pauseCtrl = pause.New(e.pauseStore, bundle.Classifier, e.config.ResponseClassifierThreshold)
	return e
}

// WithObserver registers an additional execution observer (pkg/observer).
func (e *Engine) WithObserver(o observer.Observer) *Engine {
	e.observers.Register(o)
	return e
}

// WithLogger overrides the engine's structured logger.
func (e *Engine) WithLogger(l *logging.Logger) *Engine {
	e.logger = l
	return e
}

// SaveWorkflow persists a workflow snapshot through the repository boundary,
// returning its assigned id.
func (e *Engine) SaveWorkflow(ctx context.Context, wf *types.Workflow) (string, error) {
	return e.workflows.Save(ctx, wf)
}

// LoadWorkflow retrieves a previously saved workflow snapshot.
func (e *Engine) LoadWorkflow(ctx context.Context, id string) (*types.Workflow, error) {
	return e.workflows.Load(ctx, id)
}

// ListWorkflows returns every saved workflow snapshot.
func (e *Engine) ListWorkflows(ctx context.Context) ([]types.Workflow, error) {
	return e.workflows.List(ctx)
}

// TimeoutMonitor builds a timeoutmonitor.Monitor wired to this engine's
// pause store and controller, re-entering the dispatch loop for whichever
// execution a scan resolves.
func (e *Engine) TimeoutMonitor() *timeoutmonitor.Monitor {
	cfg := timeoutmonitor.Config{
		ScanInterval: e.config.TimeoutMonitorInterval,
		WarnWindow:   e.config.TimeoutMonitorWarnWindow,
	}
	return timeoutmonitor.New(e.pauseStore, e.pauseCtrl, cfg, e.handleTimeoutResolved, e.handleTimeoutWarning)
}

// ExecuteWorkflow validates wf, begins a new execution, and drives it
// synchronously until it either completes (succeeded/failed) or suspends
// (paused) on a HUMAN_IN_THE_LOOP or FLOW.WAIT node.
func (e *Engine) ExecuteWorkflow(ctx context.Context, wf *types.Workflow, triggerEvent map[string]interface{}, opts ExecuteOptions) (string, types.ExecutionStatus, error) {
	if opts.StartFromNode != "" && triggerEvent == nil {
		return "", "", ErrTriggerNotApplicable
	}

	g, err := graph.Validate(wf, e.schemas, graph.ValidateOptions{StartFromNode: opts.StartFromNode})
	if err != nil {
		return "", "", err
	}

	execID := uuid.New().String()
	exec := types.NewExecution(execID, wf.ID, triggerEvent)
	exec.SetStatus(types.ExecutionRunning)
	if err := e.executions.SaveExecution(ctx, exec); err != nil {
		return "", "", err
	}

	ds := newDispatchState(exec, g, wf, e.router)
	if opts.StartFromNode != "" {
		ds.removeFromReady(opts.StartFromNode)
		ds.markDispatchedOnce(opts.StartFromNode)
		e.seedStartFromNode(ds, opts.StartFromNode, triggerEvent)
	}

	execCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.active[execID] = ds
	e.cancels[execID] = cancel
	e.mu.Unlock()

	e.emitLog(ctx, execID, "", types.LogLevelInfo, types.EventWorkflowStarted, fmt.Sprintf("workflow %s started", wf.ID), nil, true)
	e.notifyWorkflow(ctx, observer.EventWorkflowStart, exec, observer.StatusStarted)

	status := e.runDispatch(execCtx, ds)
	if status != types.ExecutionPaused {
		e.finishExecution(ctx, execID, status)
	} else {
		_ = e.executions.SaveExecution(ctx, exec)
	}
	return execID, status, nil
}

// ResumeExecution applies an external resume to a paused node and drives
// the execution's dispatch loop forward from there. It returns
// pause.ErrNoPendingPause or pause.ErrResponseFiltered unchanged.
func (e *Engine) ResumeExecution(ctx context.Context, req pause.ResumeRequest) (types.ExecutionStatus, error) {
	e.mu.Lock()
	ds := e.active[req.ExecutionID]
	e.mu.Unlock()
	if ds == nil {
		return "", ErrNotFound
	}

	resolved, err := e.pauseCtrl.Resume(ctx, req)
	if err != nil {
		return "", err
	}
	e.applyResolution(ctx, ds, resolved.NodeID, resolved, false)

	status := e.runDispatch(ctx, ds)
	if status != types.ExecutionPaused {
		e.finishExecution(ctx, req.ExecutionID, status)
	}
	return status, nil
}

// CancelExecution requests cancellation of an in-flight or paused
// execution, returning its final status.
func (e *Engine) CancelExecution(ctx context.Context, id string) (types.ExecutionStatus, error) {
	exec, err := e.executions.LoadExecution(ctx, id)
	if err != nil {
		return "", ErrNotFound
	}

	e.mu.Lock()
	cancel := e.cancels[id]
	delete(e.cancels, id)
	delete(e.active, id)
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	exec.SetStatus(types.ExecutionCanceled)
	_ = e.executions.SaveExecution(ctx, exec)
	return exec.GetStatus(), nil
}

// ExecutionView bundles an execution record with its log history and any
// outstanding pauses, the shape GetExecution hands back.
type ExecutionView struct {
	Execution     *types.Execution
	Logs          []types.LogEntry
	PendingPauses []*types.PauseRecord
}

// GetExecution retrieves an execution record, its log history, and any
// pauses still awaiting a response or timeout resolution.
func (e *Engine) GetExecution(ctx context.Context, id string) (*ExecutionView, error) {
	exec, err := e.executions.LoadExecution(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	logs, _ := e.logs.ListLogs(ctx, id)
	pauses, _ := e.pauses.ListPauses(ctx, id)
	return &ExecutionView{Execution: exec, Logs: logs, PendingPauses: pauses}, nil
}

func (e *Engine) finishExecution(ctx context.Context, execID string, status types.ExecutionStatus) {
	e.mu.Lock()
	if cancel := e.cancels[execID]; cancel != nil {
		cancel()
	}
	delete(e.cancels, execID)
	delete(e.active, execID)
	e.mu.Unlock()

	e.emitLog(ctx, execID, "", types.LogLevelInfo, types.EventWorkflowCompleted, fmt.Sprintf("workflow finished: %s", status), nil, true)
	if exec, err := e.executions.LoadExecution(ctx, execID); err == nil {
		evtStatus := observer.StatusCompleted
		if status == types.ExecutionFailed {
			evtStatus = observer.StatusFailure
		} else if status == types.ExecutionSucceeded {
			evtStatus = observer.StatusSuccess
		}
		e.notifyWorkflow(ctx, observer.EventWorkflowEnd, exec, evtStatus)
	}
}

func (e *Engine) handleTimeoutResolved(ctx context.Context, resolved *pause.Resolved, rec *types.PauseRecord) {
	e.mu.Lock()
	ds := e.active[rec.ExecutionID]
	e.mu.Unlock()
	if ds == nil {
		return
	}

	e.applyResolution(ctx, ds, rec.NodeID, resolved, true)

	status := e.runDispatch(ctx, ds)
	if status != types.ExecutionPaused {
		e.finishExecution(ctx, rec.ExecutionID, status)
	}
}

func (e *Engine) handleTimeoutWarning(rec *types.PauseRecord) {
	e.emitLog(context.Background(), rec.ExecutionID, rec.NodeID, types.LogLevelWarn, types.EventTimeoutWarning,
		fmt.Sprintf("node %s is nearing its pause deadline", rec.NodeID), nil, true)
}

func (e *Engine) notifyWorkflow(ctx context.Context, evt observer.EventType, exec *types.Execution, status observer.ExecutionStatus) {
	if !e.observers.HasObservers() {
		return
	}
	e.observers.Notify(ctx, observer.Event{
		Type:        evt,
		Status:      status,
		Timestamp:   time.Now(),
		ExecutionID: exec.ID,
		WorkflowID:  exec.WorkflowID,
	})
}

func (e *Engine) emitLog(ctx context.Context, execID, nodeID string, level types.LogLevel, evt types.LogEventType, msg string, data map[string]interface{}, milestone bool) {
	entry := &types.LogEntry{
		ExecutionID: execID,
		NodeID:      nodeID,
		Level:       level,
		EventType:   evt,
		Message:     msg,
		Data:        data,
		Milestone:   milestone,
		Timestamp:   time.Now(),
	}
	_ = e.logs.AppendLog(ctx, entry)

	switch level {
	case types.LogLevelError:
		e.logger.Error(msg)
	case types.LogLevelWarn:
		e.logger.Warn(msg)
	case types.LogLevelDebug:
		e.logger.Debug(msg)
	default:
		e.logger.Info(msg)
	}
}
