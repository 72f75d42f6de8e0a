// Package pause implements the Pause/Resume Controller: a
// Store for PauseRecords with compare-and-set (version) semantics, and a
// Controller that linearizes resume-vs-timeout races on the record's
// deletion — whichever side deletes the record first wins, the other
// observes no_pending_pause.
//
// Grounded on itsneelabh-gomind's CheckpointStore (SaveCheckpoint /
// LoadCheckpoint / UpdateCheckpointStatus / expiry processor) narrowed to
// this engine's vocabulary, and on a plain mutex-guarded map for the
// in-memory reference Store.
package pause

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowcore/engine/pkg/adapters"
	"github.com/flowcore/engine/pkg/types"
)

// ErrNoPendingPause is returned when a resume or timeout targets a pause
// record that doesn't exist (already resolved, or never existed).
var ErrNoPendingPause = fmt.Errorf("no_pending_pause")

// ErrResponseFiltered is returned when a resume response fails the
// resume-conditions classification.
var ErrResponseFiltered = fmt.Errorf("response_filtered")

// Store is the persistence boundary for pause records.
// CompareAndDelete is the linearization point: only one caller observing a
// given Version ever succeeds in deleting it.
type Store interface {
	Save(ctx context.Context, rec *types.PauseRecord) error
	Load(ctx context.Context, executionID, nodeID string) (*types.PauseRecord, bool, error)
	// CompareAndDelete deletes the record if and only if its current
	// Version still matches expectedVersion. Returns (true, nil) if this
	// call performed the delete, (false, nil) if the version had already
	// moved (another actor won the race), or (false, ErrNoPendingPause) if
	// the record didn't exist at all.
	CompareAndDelete(ctx context.Context, executionID, nodeID string, expectedVersion int) (bool, error)
	// BumpWarned marks a record as having emitted its pre-deadline warning,
	// idempotently.
	BumpWarned(ctx context.Context, executionID, nodeID string) error
	// ListDue returns every pause record whose deadline is at or before
	// `asOf`, for the timeout monitor's scan (pkg/timeoutmonitor).
	ListDue(ctx context.Context, asOf func(types.PauseRecord) bool) ([]*types.PauseRecord, error)
}

// InMemoryStore is the reference Store implementation. Callers are never
// handed the map directly, same guarded-copy discipline the rest of this
// module uses for shared state.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*types.PauseRecord // keyed by executionID+"/"+nodeID
}

// NewInMemoryStore creates an empty in-memory pause store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*types.PauseRecord)}
}

func key(executionID, nodeID string) string {
	return executionID + "/" + nodeID
}

func (s *InMemoryStore) Save(ctx context.Context, rec *types.PauseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[key(rec.ExecutionID, rec.NodeID)] = &cp
	return nil
}

func (s *InMemoryStore) Load(ctx context.Context, executionID, nodeID string) (*types.PauseRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key(executionID, nodeID)]
	if !ok {
		return nil, false, nil
	}
	cp := *rec
	return &cp, true, nil
}

func (s *InMemoryStore) CompareAndDelete(ctx context.Context, executionID, nodeID string, expectedVersion int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(executionID, nodeID)
	rec, ok := s.records[k]
	if !ok {
		return false, ErrNoPendingPause
	}
	if rec.Version != expectedVersion {
		return false, nil
	}
	delete(s.records, k)
	return true, nil
}

func (s *InMemoryStore) BumpWarned(ctx context.Context, executionID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(executionID, nodeID)
	rec, ok := s.records[k]
	if !ok {
		return ErrNoPendingPause
	}
	if rec.WarnedAt != nil {
		return nil
	}
	now := time.Now()
	rec.WarnedAt = &now
	rec.Version++
	return nil
}

func (s *InMemoryStore) ListDue(ctx context.Context, matches func(types.PauseRecord) bool) ([]*types.PauseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.PauseRecord, 0)
	for _, rec := range s.records {
		if matches(*rec) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ResumeRequest is what an external resumer presents.
type ResumeRequest struct {
	ExecutionID    string
	NodeID         string
	Response       interface{}
	Classification string // "approved" | "rejected" | "timed_out" | "other"
	Incoming       map[string]interface{}
}

// Controller implements the resume/timeout linearization, on top of a
// Store and an optional response classifier.
type Controller struct {
	store      Store
	classifier adapters.ResponseClassifier
	threshold  float64
}

// New creates a Controller. threshold is the minimum relevance score a
// heuristic/AI classification must clear to accept a response.
func New(store Store, classifier adapters.ResponseClassifier, threshold float64) *Controller {
	if threshold <= 0 {
		threshold = 0.7
	}
	return &Controller{store: store, classifier: classifier, threshold: threshold}
}

// Resolved is the materialized outcome of a successful resume or timeout
// action, ready for the engine to feed back into the dispatch loop.
type Resolved struct {
	NodeID  string
	Output  map[string]interface{}
	Succeed bool
}

// Resume validates and applies an external resume request. It returns ErrNoPendingPause or ErrResponseFiltered on
// rejection, leaving the pause record in place on the latter.
func (c *Controller) Resume(ctx context.Context, req ResumeRequest) (*Resolved, error) {
	rec, ok, err := c.store.Load(ctx, req.ExecutionID, req.NodeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoPendingPause
	}

	if rec.Reason == types.PauseReasonHumanInteraction {
		verdict, err := c.classify(ctx, rec, req.Incoming)
		if err != nil {
			return nil, err
		}
		if verdict == adapters.VerdictFiltered {
			return nil, ErrResponseFiltered
		}
	}

	deleted, err := c.store.CompareAndDelete(ctx, req.ExecutionID, req.NodeID, rec.Version)
	if err != nil {
		return nil, err
	}
	if !deleted {
		// Lost the race to a concurrent timeout/resume.
		return nil, ErrNoPendingPause
	}

	succeed := req.Classification != "rejected"
	return &Resolved{
		NodeID:  req.NodeID,
		Output:  map[string]interface{}{"result": req.Response, "classification": req.Classification},
		Succeed: succeed,
	}, nil
}

// classify runs the configured classifier (or a heuristic fallback) over an
// incoming response against the pause's resume conditions.
func (c *Controller) classify(ctx context.Context, rec *types.PauseRecord, incoming map[string]interface{}) (adapters.ClassificationVerdict, error) {
	if incoming == nil {
		return adapters.VerdictRelevant, nil
	}
	classifier := c.classifier
	if classifier == nil {
		classifier = &adapters.HeuristicClassifier{Threshold: c.threshold}
	}
	result, err := classifier.Classify(ctx, rec.ResumeConditions, incoming)
	if err != nil {
		return "", err
	}
	return result.Verdict, nil
}

// ApplyTimeout applies a pause record's timeout_action, 
// "Timeout monitor". It is safe to call concurrently with Resume: only one
// of the two will win the CompareAndDelete race.
func (c *Controller) ApplyTimeout(ctx context.Context, rec *types.PauseRecord) (*Resolved, error) {
	deleted, err := c.store.CompareAndDelete(ctx, rec.ExecutionID, rec.NodeID, rec.Version)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ErrNoPendingPause
	}

	switch rec.TimeoutAction {
	case types.TimeoutActionFail:
		return &Resolved{NodeID: rec.NodeID, Output: nil, Succeed: false}, nil
	case types.TimeoutActionContinue:
		return &Resolved{NodeID: rec.NodeID, Output: map[string]interface{}{}, Succeed: true}, nil
	case types.TimeoutActionInjectDefault:
		return &Resolved{NodeID: rec.NodeID, Output: map[string]interface{}{"result": rec.DefaultResponse}, Succeed: true}, nil
	default:
		return &Resolved{NodeID: rec.NodeID, Output: nil, Succeed: false}, nil
	}
}
