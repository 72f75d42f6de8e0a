package middleware

import (
	"testing"
	"time"

	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/types"
)

func TestTokenBucket_Allow(t *testing.T) {
	tb := NewTokenBucket(10, 10)

	for i := 0; i < 10; i++ {
		if !tb.Allow("test") {
			t.Errorf("request %d should be allowed", i)
		}
	}

	if tb.Allow("test") {
		t.Error("request 11 should be denied (bucket empty)")
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	tb := NewTokenBucket(10, 10)

	for i := 0; i < 10; i++ {
		tb.Allow("test")
	}

	if tb.Allow("test") {
		t.Error("should be denied immediately after draining")
	}

	time.Sleep(200 * time.Millisecond)

	if !tb.Allow("test") {
		t.Error("should allow request after refill (1)")
	}
	if !tb.Allow("test") {
		t.Error("should allow request after refill (2)")
	}
	if tb.Allow("test") {
		t.Error("should deny 3rd request after partial refill")
	}
}

func TestTokenBucket_Reset(t *testing.T) {
	tb := NewTokenBucket(10, 10)

	for i := 0; i < 10; i++ {
		tb.Allow("test")
	}
	if tb.Allow("test") {
		t.Error("should be denied after draining")
	}

	tb.Reset()

	if !tb.Allow("test") {
		t.Error("should allow request after reset")
	}
}

func callRateLimit(m *RateLimitMiddleware, node types.Node, count *int) *types.Outcome {
	rc := &fakeRunContext{node: node}
	handler := func(rc executor.RunContext) *types.Outcome {
		*count++
		return types.OutcomeResult(map[string]interface{}{"result": "ok"})
	}
	return m.Process(rc, handler)
}

func TestRateLimitMiddleware_GlobalLimit(t *testing.T) {
	config := RateLimitConfig{
		GlobalRPS:    5,
		EnableGlobal: true,
	}

	m := NewRateLimitMiddlewareWithConfig(config)
	node := types.Node{ID: "test", Type: types.NodeTypeAction}
	executionCount := 0

	for i := 0; i < 5; i++ {
		outcome := callRateLimit(m, node, &executionCount)
		if outcome.Failure != nil {
			t.Errorf("request %d should be allowed: %v", i, outcome.Failure)
		}
	}

	if executionCount != 5 {
		t.Errorf("expected 5 executions, got %d", executionCount)
	}

	outcome := callRateLimit(m, node, &executionCount)
	if outcome.Failure == nil {
		t.Error("request 6 should be denied (global limit)")
	}
	if outcome.Failure.Kind != types.ErrorKindRateLimited {
		t.Errorf("expected ErrorKindRateLimited, got %v", outcome.Failure.Kind)
	}

	if m.GetRejectedCount() != 1 {
		t.Errorf("expected 1 rejected request, got %d", m.GetRejectedCount())
	}
	if executionCount != 5 {
		t.Errorf("handler should not be called when rate limited, got %d executions", executionCount)
	}
}

func TestRateLimitMiddleware_NodeTypeLimit(t *testing.T) {
	config := RateLimitConfig{
		EnablePerNodeType: true,
		NodeTypeRPS: map[types.NodeType]float64{
			types.NodeTypeExternalAction: 3,
		},
	}

	m := NewRateLimitMiddlewareWithConfig(config)
	extNode := types.Node{ID: "ext1", Type: types.NodeTypeExternalAction}
	actionNode := types.Node{ID: "act1", Type: types.NodeTypeAction}

	executionCount := 0

	for i := 0; i < 3; i++ {
		outcome := callRateLimit(m, extNode, &executionCount)
		if outcome.Failure != nil {
			t.Errorf("external-action request %d should be allowed: %v", i, outcome.Failure)
		}
	}

	outcome := callRateLimit(m, extNode, &executionCount)
	if outcome.Failure == nil {
		t.Error("4th external-action request should be denied (node type limit)")
	}

	outcome = callRateLimit(m, actionNode, &executionCount)
	if outcome.Failure != nil {
		t.Errorf("action node should be allowed (no limit set): %v", outcome.Failure)
	}

	if executionCount != 4 {
		t.Errorf("expected 4 successful executions, got %d", executionCount)
	}
}

func TestRateLimitMiddleware_DisabledLimits(t *testing.T) {
	config := RateLimitConfig{
		EnableGlobal:      false,
		EnablePerNodeType: false,
	}

	m := NewRateLimitMiddlewareWithConfig(config)
	node := types.Node{ID: "test", Type: types.NodeTypeAction}
	executionCount := 0

	for i := 0; i < 100; i++ {
		outcome := callRateLimit(m, node, &executionCount)
		if outcome.Failure != nil {
			t.Errorf("request %d should be allowed (no limits): %v", i, outcome.Failure)
		}
	}

	if executionCount != 100 {
		t.Errorf("expected 100 executions, got %d", executionCount)
	}
	if m.GetRejectedCount() != 0 {
		t.Errorf("expected 0 rejected requests, got %d", m.GetRejectedCount())
	}
}

func TestRateLimitMiddleware_DefaultConfig(t *testing.T) {
	m := NewRateLimitMiddleware()
	node := types.Node{ID: "test", Type: types.NodeTypeAction}
	executionCount := 0

	for i := 0; i < 100; i++ {
		outcome := callRateLimit(m, node, &executionCount)
		if outcome.Failure != nil {
			t.Errorf("request %d should be allowed with default config: %v", i, outcome.Failure)
		}
	}

	outcome := callRateLimit(m, node, &executionCount)
	if outcome.Failure == nil {
		t.Error("request 101 should be denied (default global limit)")
	}
}

func TestRateLimitMiddleware_ConcurrentAccess(t *testing.T) {
	config := RateLimitConfig{
		GlobalRPS:    50,
		EnableGlobal: true,
	}

	m := NewRateLimitMiddlewareWithConfig(config)
	node := types.Node{ID: "test", Type: types.NodeTypeAction}

	concurrency := 100
	done := make(chan bool, concurrency)

	for i := 0; i < concurrency; i++ {
		go func() {
			defer func() { done <- true }()
			count := 0
			callRateLimit(m, node, &count)
		}()
	}

	for i := 0; i < concurrency; i++ {
		<-done
	}

	rejectedCount := m.GetRejectedCount()
	if rejectedCount < 40 {
		t.Errorf("expected significant rejections with concurrent access, got %d", rejectedCount)
	}
}

func TestRateLimitMiddleware_Name(t *testing.T) {
	m := NewRateLimitMiddleware()
	if m.Name() != "RateLimit" {
		t.Errorf("expected 'RateLimit', got %s", m.Name())
	}
}

func BenchmarkRateLimitMiddleware_GlobalLimit(b *testing.B) {
	config := RateLimitConfig{
		GlobalRPS:    1000000,
		EnableGlobal: true,
	}

	m := NewRateLimitMiddlewareWithConfig(config)
	rc := &fakeRunContext{node: types.Node{ID: "test", Type: types.NodeTypeAction}}
	handler := func(rc executor.RunContext) *types.Outcome { return types.OutcomeResult(nil) }

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m.Process(rc, handler)
	}
}

func BenchmarkTokenBucket_Allow(b *testing.B) {
	tb := NewTokenBucket(1000000, 1000000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		tb.Allow("test")
	}
}
