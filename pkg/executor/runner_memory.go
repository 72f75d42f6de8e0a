package executor

import (
	"fmt"

	"github.com/flowcore/engine/pkg/types"
)

// MemoryRunner dispatches put/get/search operations to the engine's
// MemoryStore adapter. One instance serves all four MEMORY subtypes
// (buffer, kv, vector, document); the subtype only names the collection's
// semantic shape to authoring tools, not a mechanical difference here —
// the store implementation behind the adapter is what actually
// differentiates a buffer from a vector index.
type MemoryRunner struct {
	subtype string
}

// NewMemoryRunner builds the runner for one MEMORY subtype.
func NewMemoryRunner(subtype string) *MemoryRunner {
	return &MemoryRunner{subtype: subtype}
}

func (r *MemoryRunner) Key() types.SubtypeKey {
	return types.SubtypeKey{Type: types.NodeTypeMemory, Subtype: r.subtype}
}

func (r *MemoryRunner) Validate(node types.Node) error {
	op, _ := node.Config["operation"].(string)
	switch op {
	case "put", "get", "search":
	default:
		return fmt.Errorf("memory.%s: invalid operation %q", r.subtype, op)
	}
	if _, ok := node.Config["collection"].(string); !ok {
		return fmt.Errorf("memory.%s: missing collection", r.subtype)
	}
	return nil
}

func (r *MemoryRunner) Execute(rc RunContext) *types.Outcome {
	bundle := rc.Adapters()
	if bundle.Memory == nil {
		return types.OutcomeFailure(types.ErrorKindInternal, "no MemoryStore configured", "")
	}

	cfg := rc.Config()
	collection := cfgString(cfg, "collection", "")
	key := cfgString(cfg, "key", "")
	operation := cfgString(cfg, "operation", "")

	switch operation {
	case "put":
		value := rc.Inputs()["input"]
		if err := bundle.Memory.Put(rc.Context(), collection, key, value); err != nil {
			return types.OutcomeFailure(types.ErrorKindProviderError, err.Error(), "")
		}
		return types.OutcomeResult(map[string]interface{}{"result": value})

	case "get":
		value, found, err := bundle.Memory.Get(rc.Context(), collection, key)
		if err != nil {
			return types.OutcomeFailure(types.ErrorKindProviderError, err.Error(), "")
		}
		return types.OutcomeResult(map[string]interface{}{"result": value, "found": found})

	case "search":
		query := fmt.Sprintf("%v", rc.Inputs()["input"])
		limit := cfgInt(cfg, "limit", 10)
		results, err := bundle.Memory.Search(rc.Context(), collection, query, limit)
		if err != nil {
			return types.OutcomeFailure(types.ErrorKindProviderError, err.Error(), "")
		}
		return types.OutcomeResult(map[string]interface{}{"result": results})

	default:
		return types.OutcomeFailure(types.ErrorKindInvalidConfiguration, fmt.Sprintf("unknown operation %q", operation), "")
	}
}
