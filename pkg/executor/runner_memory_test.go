package executor

import (
	"testing"

	"github.com/flowcore/engine/pkg/adapters"
	"github.com/flowcore/engine/pkg/types"
)

func TestMemoryRunner_PutThenGet(t *testing.T) {
	store := adapters.NewFakeMemoryStore()
	r := NewMemoryRunner("kv")

	putNode := types.Node{Config: map[string]interface{}{"operation": "put", "collection": "sessions", "key": "s1"}}
	putRC := newFakeRunContext(putNode)
	putRC.bundle.Memory = store
	putRC.inputs["input"] = "hello"

	if outcome := r.Execute(putRC); outcome.Failure != nil {
		t.Fatalf("put failed: %v", outcome.Failure)
	}

	getNode := types.Node{Config: map[string]interface{}{"operation": "get", "collection": "sessions", "key": "s1"}}
	getRC := newFakeRunContext(getNode)
	getRC.bundle.Memory = store

	outcome := r.Execute(getRC)
	if outcome.Failure != nil {
		t.Fatalf("get failed: %v", outcome.Failure)
	}
	if outcome.Result.Outputs["result"] != "hello" {
		t.Fatalf("expected 'hello', got %v", outcome.Result.Outputs["result"])
	}
	if outcome.Result.Outputs["found"] != true {
		t.Fatal("expected found=true")
	}
}

func TestMemoryRunner_GetMissingKey(t *testing.T) {
	store := adapters.NewFakeMemoryStore()
	r := NewMemoryRunner("kv")
	node := types.Node{Config: map[string]interface{}{"operation": "get", "collection": "sessions", "key": "missing"}}
	rc := newFakeRunContext(node)
	rc.bundle.Memory = store

	outcome := r.Execute(rc)
	if outcome.Failure != nil {
		t.Fatalf("unexpected failure: %v", outcome.Failure)
	}
	if outcome.Result.Outputs["found"] != false {
		t.Fatal("expected found=false for missing key")
	}
}

func TestMemoryRunner_Validate(t *testing.T) {
	r := NewMemoryRunner("vector")
	if err := r.Validate(types.Node{Config: map[string]interface{}{"operation": "bogus", "collection": "c"}}); err == nil {
		t.Fatal("expected error for invalid operation")
	}
	if err := r.Validate(types.Node{Config: map[string]interface{}{"operation": "search", "collection": "c"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
