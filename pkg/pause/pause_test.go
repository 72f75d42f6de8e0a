package pause

import (
	"context"
	"testing"
	"time"

	"github.com/flowcore/engine/pkg/types"
)

func newRecord(executionID, nodeID string) *types.PauseRecord {
	return &types.PauseRecord{
		ExecutionID:   executionID,
		NodeID:        nodeID,
		Reason:        types.PauseReasonTimerWait,
		Deadline:      time.Now().Add(time.Hour),
		TimeoutAction: types.TimeoutActionFail,
		Version:       1,
	}
}

func TestInMemoryStore_SaveLoadDelete(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	rec := newRecord("exec-1", "node-1")

	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, ok, err := s.Load(ctx, "exec-1", "node-1")
	if err != nil || !ok {
		t.Fatalf("expected to load record, got ok=%v err=%v", ok, err)
	}
	if loaded.NodeID != "node-1" {
		t.Fatalf("unexpected record: %+v", loaded)
	}

	deleted, err := s.CompareAndDelete(ctx, "exec-1", "node-1", 1)
	if err != nil || !deleted {
		t.Fatalf("expected successful delete, got %v, %v", deleted, err)
	}

	_, ok, _ = s.Load(ctx, "exec-1", "node-1")
	if ok {
		t.Fatal("expected record to be gone after delete")
	}
}

func TestInMemoryStore_CompareAndDelete_VersionMismatchLoses(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	rec := newRecord("exec-1", "node-1")
	_ = s.Save(ctx, rec)

	deleted, err := s.CompareAndDelete(ctx, "exec-1", "node-1", 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted {
		t.Fatal("expected version mismatch to lose the race")
	}
}

func TestInMemoryStore_CompareAndDelete_MissingRecord(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.CompareAndDelete(context.Background(), "nope", "nope", 1)
	if err != ErrNoPendingPause {
		t.Fatalf("expected ErrNoPendingPause, got %v", err)
	}
}

func TestController_Resume_TimerWaitSucceeds(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	rec := newRecord("exec-1", "node-1")
	_ = s.Save(ctx, rec)

	c := New(s, nil, 0.7)
	resolved, err := c.Resume(ctx, ResumeRequest{
		ExecutionID:    "exec-1",
		NodeID:         "node-1",
		Response:       "ok",
		Classification: "approved",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resolved.Succeed {
		t.Fatal("expected resolved.Succeed")
	}

	if _, ok, _ := s.Load(ctx, "exec-1", "node-1"); ok {
		t.Fatal("expected pause record deleted after resume")
	}
}

func TestController_Resume_MissingRecordReturnsNoPendingPause(t *testing.T) {
	c := New(NewInMemoryStore(), nil, 0.7)
	_, err := c.Resume(context.Background(), ResumeRequest{ExecutionID: "nope", NodeID: "nope"})
	if err != ErrNoPendingPause {
		t.Fatalf("expected ErrNoPendingPause, got %v", err)
	}
}

func TestController_Resume_HILFilteredLeavesRecordOpen(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	rec := newRecord("exec-1", "node-1")
	rec.Reason = types.PauseReasonHumanInteraction
	rec.ResumeConditions = map[string]interface{}{"sender": "alice"}
	_ = s.Save(ctx, rec)

	c := New(s, nil, 0.9)
	_, err := c.Resume(ctx, ResumeRequest{
		ExecutionID:    "exec-1",
		NodeID:         "node-1",
		Classification: "approved",
		Incoming:       map[string]interface{}{"sender": "mallory"},
	})
	if err != ErrResponseFiltered {
		t.Fatalf("expected ErrResponseFiltered, got %v", err)
	}
	if _, ok, _ := s.Load(ctx, "exec-1", "node-1"); !ok {
		t.Fatal("expected pause record to remain after a filtered response")
	}
}

func TestController_ApplyTimeout_InjectDefault(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	rec := newRecord("exec-1", "node-1")
	rec.TimeoutAction = types.TimeoutActionInjectDefault
	rec.DefaultResponse = "fallback"
	_ = s.Save(ctx, rec)

	c := New(s, nil, 0.7)
	resolved, err := c.ApplyTimeout(ctx, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resolved.Succeed || resolved.Output["result"] != "fallback" {
		t.Fatalf("expected injected default, got %+v", resolved)
	}
}

func TestController_ApplyTimeout_LosesRaceToPriorResume(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	rec := newRecord("exec-1", "node-1")
	_ = s.Save(ctx, rec)

	c := New(s, nil, 0.7)
	if _, err := c.Resume(ctx, ResumeRequest{ExecutionID: "exec-1", NodeID: "node-1", Classification: "approved"}); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	if _, err := c.ApplyTimeout(ctx, rec); err != ErrNoPendingPause {
		t.Fatalf("expected timeout to lose the race, got %v", err)
	}
}
