package middleware

import (
	"context"
	"fmt"
	"testing"

	"github.com/flowcore/engine/pkg/adapters"
	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/types"
)

// fakeRunContext is a minimal executor.RunContext for middleware tests.
type fakeRunContext struct {
	node types.Node
}

func (f *fakeRunContext) Context() context.Context            { return context.Background() }
func (f *fakeRunContext) Node() types.Node                     { return f.node }
func (f *fakeRunContext) Config() map[string]interface{}       { return f.node.Config }
func (f *fakeRunContext) Inputs() map[string]interface{}       { return nil }
func (f *fakeRunContext) TriggerEvent() map[string]interface{} { return nil }
func (f *fakeRunContext) Adapters() adapters.Bundle             { return adapters.Bundle{} }
func (f *fakeRunContext) Logger() executor.Logger               { return noopLogger{} }
func (f *fakeRunContext) EngineConfig() types.Config             { return types.Config{} }
func (f *fakeRunContext) Attempt() int                           { return 1 }

type noopLogger struct{}

func (noopLogger) Debug(string) {}
func (noopLogger) Info(string)  {}
func (noopLogger) Warn(string)  {}
func (noopLogger) Error(string) {}

var _ executor.RunContext = (*fakeRunContext)(nil)

func newFakeRC() executor.RunContext {
	return &fakeRunContext{node: types.Node{ID: "test", Type: types.NodeTypeAction}}
}

// mockMiddleware records execution order for testing
type mockMiddleware struct {
	name       string
	order      *[]string
	shouldFail bool
}

func (m *mockMiddleware) Process(rc executor.RunContext, next Handler) *types.Outcome {
	*m.order = append(*m.order, m.name+":pre")

	if m.shouldFail {
		return types.OutcomeFailure(types.ErrorKindInternal, m.name+" failed", "")
	}

	outcome := next(rc)

	*m.order = append(*m.order, m.name+":post")
	return outcome
}

func (m *mockMiddleware) Name() string {
	return m.name
}

func TestChain_SingleMiddleware(t *testing.T) {
	order := []string{}

	chain := NewChain()
	chain.Use(&mockMiddleware{name: "M1", order: &order})

	handler := func(rc executor.RunContext) *types.Outcome {
		order = append(order, "handler")
		return types.OutcomeResult(map[string]interface{}{"result": "ok"})
	}

	outcome := chain.Execute(newFakeRC(), handler)

	if outcome.Failure != nil {
		t.Fatalf("unexpected failure: %v", outcome.Failure)
	}

	expected := []string{"M1:pre", "handler", "M1:post"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d executions, got %d", len(expected), len(order))
	}
	for i, exp := range expected {
		if order[i] != exp {
			t.Errorf("execution %d: expected %s, got %s", i, exp, order[i])
		}
	}
}

func TestChain_MultipleMiddleware(t *testing.T) {
	order := []string{}

	chain := NewChain()
	chain.Use(&mockMiddleware{name: "M1", order: &order})
	chain.Use(&mockMiddleware{name: "M2", order: &order})
	chain.Use(&mockMiddleware{name: "M3", order: &order})

	handler := func(rc executor.RunContext) *types.Outcome {
		order = append(order, "handler")
		return types.OutcomeResult(nil)
	}

	chain.Execute(newFakeRC(), handler)

	expected := []string{
		"M1:pre", "M2:pre", "M3:pre", "handler", "M3:post", "M2:post", "M1:post",
	}
	if len(order) != len(expected) {
		t.Fatalf("expected %d executions, got %d: %v", len(expected), len(order), order)
	}
	for i, exp := range expected {
		if order[i] != exp {
			t.Errorf("execution %d: expected %s, got %s", i, exp, order[i])
		}
	}
}

func TestChain_EmptyChain(t *testing.T) {
	called := false
	chain := NewChain()

	handler := func(rc executor.RunContext) *types.Outcome {
		called = true
		return types.OutcomeResult(nil)
	}

	outcome := chain.Execute(newFakeRC(), handler)
	if !called {
		t.Fatal("handler was not called")
	}
	if outcome.Failure != nil {
		t.Fatalf("unexpected failure: %v", outcome.Failure)
	}
}

func TestChain_FailurePropagation(t *testing.T) {
	order := []string{}

	chain := NewChain()
	chain.Use(&mockMiddleware{name: "M1", order: &order})
	chain.Use(&mockMiddleware{name: "M2", order: &order, shouldFail: true})
	chain.Use(&mockMiddleware{name: "M3", order: &order})

	handler := func(rc executor.RunContext) *types.Outcome {
		order = append(order, "handler")
		return types.OutcomeResult(nil)
	}

	outcome := chain.Execute(newFakeRC(), handler)

	if outcome.Failure == nil {
		t.Fatal("expected a failure outcome")
	}
	if outcome.Failure.Message != "M2 failed" {
		t.Errorf("expected 'M2 failed', got %v", outcome.Failure.Message)
	}

	// M2 fails before calling M3 or handler, but M1's post step still runs.
	expected := []string{"M1:pre", "M2:pre", "M1:post"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d executions, got %d: %v", len(expected), len(order), order)
	}
	for i, exp := range expected {
		if order[i] != exp {
			t.Errorf("execution %d: expected %s, got %s", i, exp, order[i])
		}
	}
}

func TestChain_Len(t *testing.T) {
	chain := NewChain()

	if chain.Len() != 0 {
		t.Errorf("expected length 0, got %d", chain.Len())
	}

	chain.Use(&mockMiddleware{name: "M1", order: &[]string{}})
	if chain.Len() != 1 {
		t.Errorf("expected length 1, got %d", chain.Len())
	}

	chain.Use(&mockMiddleware{name: "M2", order: &[]string{}})
	chain.Use(&mockMiddleware{name: "M3", order: &[]string{}})
	if chain.Len() != 3 {
		t.Errorf("expected length 3, got %d", chain.Len())
	}
}

func TestChain_Middlewares(t *testing.T) {
	chain := NewChain()

	m1 := &mockMiddleware{name: "M1", order: &[]string{}}
	m2 := &mockMiddleware{name: "M2", order: &[]string{}}

	chain.Use(m1).Use(m2)

	middlewares := chain.Middlewares()
	if len(middlewares) != 2 {
		t.Fatalf("expected 2 middleware, got %d", len(middlewares))
	}
	if middlewares[0].Name() != "M1" || middlewares[1].Name() != "M2" {
		t.Errorf("unexpected middleware order: %v", middlewares)
	}
}

// shortCircuitMiddleware demonstrates middleware that short-circuits execution
type shortCircuitMiddleware struct {
	outcome *types.Outcome
}

func (m *shortCircuitMiddleware) Process(rc executor.RunContext, next Handler) *types.Outcome {
	return m.outcome
}

func (m *shortCircuitMiddleware) Name() string {
	return "ShortCircuit"
}

func TestChain_ShortCircuit(t *testing.T) {
	order := []string{}
	cached := types.OutcomeResult(map[string]interface{}{"result": "cached"})

	chain := NewChain()
	chain.Use(&mockMiddleware{name: "M1", order: &order})
	chain.Use(&shortCircuitMiddleware{outcome: cached})
	chain.Use(&mockMiddleware{name: "M3", order: &order})

	handler := func(rc executor.RunContext) *types.Outcome {
		order = append(order, "handler")
		return types.OutcomeResult(map[string]interface{}{"result": "fresh"})
	}

	outcome := chain.Execute(newFakeRC(), handler)

	if outcome.Result.Outputs["result"] != "cached" {
		t.Errorf("expected cached result, got %v", outcome.Result.Outputs)
	}

	expected := []string{"M1:pre", "M1:post"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d executions, got %d: %v", len(expected), len(order), order)
	}
}

func BenchmarkChain_NoMiddleware(b *testing.B) {
	chain := NewChain()
	handler := func(rc executor.RunContext) *types.Outcome { return types.OutcomeResult(nil) }
	rc := newFakeRC()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		chain.Execute(rc, handler)
	}
}

func BenchmarkChain_FiveMiddleware(b *testing.B) {
	order := []string{}
	chain := NewChain()
	for i := 0; i < 5; i++ {
		chain.Use(&mockMiddleware{name: fmt.Sprintf("M%d", i), order: &order})
	}
	handler := func(rc executor.RunContext) *types.Outcome { return types.OutcomeResult(nil) }
	rc := newFakeRC()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		chain.Execute(rc, handler)
	}
}
