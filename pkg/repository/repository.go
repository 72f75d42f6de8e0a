// Package repository is the persistence boundary: narrow CRUD interfaces
// for workflows, executions, pause records, and logs, plus an in-memory
// reference implementation. Transactions span at most a single execution's
// updates.
//
// Uses the same google/uuid + sync.RWMutex discipline (copy-on-read,
// validate-before-write) as a single in-memory store, generalized from
// "one workflow JSON blob" to the four repositories this engine's external
// interfaces require.
package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowcore/engine/pkg/types"
)

// ErrNotFound is returned by every repository when a lookup misses.
var ErrNotFound = fmt.Errorf("not_found")

// WorkflowRepository stores immutable workflow snapshots, one per version.
type WorkflowRepository interface {
	Save(ctx context.Context, wf *types.Workflow) (string, error)
	Load(ctx context.Context, id string) (*types.Workflow, error)
	List(ctx context.Context) ([]types.Workflow, error)
}

// ExecutionRepository stores mutable execution records.
type ExecutionRepository interface {
	SaveExecution(ctx context.Context, exec *types.Execution) error
	LoadExecution(ctx context.Context, id string) (*types.Execution, error)
	ListExecutions(ctx context.Context, workflowID string) ([]*types.Execution, error)
}

// PauseRepository stores pause records. Its method names mirror
// pkg/pause.Store's Save/Load so the in-memory implementation below can
// back both without a naming collision on the same struct.
type PauseRepository interface {
	SavePause(ctx context.Context, rec *types.PauseRecord) error
	LoadPause(ctx context.Context, executionID, nodeID string) (*types.PauseRecord, bool, error)
	// ListPauses returns every outstanding pause recorded for an execution,
	// the read side GetExecution surfaces to callers.
	ListPauses(ctx context.Context, executionID string) ([]*types.PauseRecord, error)
	// DeletePause removes a pause record once it resolves (by response or
	// timeout), so this repository doesn't drift from pkg/pause.Store's
	// live state forever.
	DeletePause(ctx context.Context, executionID, nodeID string) error
}

// LogRepository stores LogEntry records, applying a two-tier retention:
// every entry is available to the hot path, but only milestone entries
// cross into the persistent repository.
type LogRepository interface {
	AppendLog(ctx context.Context, entry *types.LogEntry) error
	ListLogs(ctx context.Context, executionID string) ([]types.LogEntry, error)
}

// InMemory implements all four repositories with a copy-before-return
// discipline: callers can never mutate stored state through a returned
// pointer or slice.
type InMemory struct {
	mu         sync.RWMutex
	workflows  map[string]*types.Workflow
	executions map[string]*types.Execution
	pauses     map[string]*types.PauseRecord
	logs       map[string][]types.LogEntry
}

var (
	_ WorkflowRepository  = (*InMemory)(nil)
	_ ExecutionRepository = (*InMemory)(nil)
	_ PauseRepository     = (*InMemory)(nil)
	_ LogRepository       = (*InMemory)(nil)
)

// NewInMemory creates an empty in-memory repository.
func NewInMemory() *InMemory {
	return &InMemory{
		workflows:  make(map[string]*types.Workflow),
		executions: make(map[string]*types.Execution),
		pauses:     make(map[string]*types.PauseRecord),
		logs:       make(map[string][]types.LogEntry),
	}
}

// SaveWorkflow stores a workflow snapshot, assigning an id if absent.
func (r *InMemory) Save(ctx context.Context, wf *types.Workflow) (string, error) {
	if wf == nil {
		return "", fmt.Errorf("workflow is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := wf.ID
	if id == "" {
		id = uuid.New().String()
	}
	cp := *wf
	cp.ID = id
	r.workflows[id] = &cp
	return id, nil
}

// Load returns a copy of a stored workflow.
func (r *InMemory) Load(ctx context.Context, id string) (*types.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wf, ok := r.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *wf
	return &cp, nil
}

// List returns every stored workflow.
func (r *InMemory) List(ctx context.Context) ([]types.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Workflow, 0, len(r.workflows))
	for _, wf := range r.workflows {
		out = append(out, *wf)
	}
	return out, nil
}

// SaveExecution upserts an execution record by id.
func (r *InMemory) SaveExecution(ctx context.Context, exec *types.Execution) error {
	if exec == nil || exec.ID == "" {
		return fmt.Errorf("execution id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executions[exec.ID] = exec
	return nil
}

// LoadExecution returns the execution record (not a deep copy: Execution
// already guards its own mutable fields behind a mutex, per pkg/types).
func (r *InMemory) LoadExecution(ctx context.Context, id string) (*types.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.executions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return exec, nil
}

// ListExecutions returns every execution for a workflow id ("" for all).
func (r *InMemory) ListExecutions(ctx context.Context, workflowID string) ([]*types.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.Execution, 0)
	for _, exec := range r.executions {
		if workflowID == "" || exec.WorkflowID == workflowID {
			out = append(out, exec)
		}
	}
	return out, nil
}

func pauseKey(executionID, nodeID string) string { return executionID + "/" + nodeID }

// SavePause upserts a pause record.
func (r *InMemory) SavePause(ctx context.Context, rec *types.PauseRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.pauses[pauseKey(rec.ExecutionID, rec.NodeID)] = &cp
	return nil
}

// LoadPause returns a copy of a stored pause record.
func (r *InMemory) LoadPause(ctx context.Context, executionID, nodeID string) (*types.PauseRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.pauses[pauseKey(executionID, nodeID)]
	if !ok {
		return nil, false, nil
	}
	cp := *rec
	return &cp, true, nil
}

// ListPauses returns every outstanding pause recorded for an execution.
func (r *InMemory) ListPauses(ctx context.Context, executionID string) ([]*types.PauseRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.PauseRecord, 0)
	for _, rec := range r.pauses {
		if rec.ExecutionID == executionID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

// DeletePause removes a resolved pause record.
func (r *InMemory) DeletePause(ctx context.Context, executionID, nodeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pauses, pauseKey(executionID, nodeID))
	return nil
}

// AppendLog appends a log entry under its execution id (hot cache); only
// milestone entries would cross into an external, durable log sink in a
// production deployment — this reference store keeps all of them, since
// it has no other tier.
func (r *InMemory) AppendLog(ctx context.Context, entry *types.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	r.logs[entry.ExecutionID] = append(r.logs[entry.ExecutionID], *entry)
	return nil
}

// ListLogs returns every log entry recorded for an execution, in emission order.
func (r *InMemory) ListLogs(ctx context.Context, executionID string) ([]types.LogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.logs[executionID]
	out := make([]types.LogEntry, len(entries))
	copy(out, entries)
	return out, nil
}
