package types

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// SubtypeKey identifies one runner implementation, the (type, subtype)
// composite key spec.md's Design Notes call for in place of a class hierarchy.
type SubtypeKey struct {
	Type    NodeType
	Subtype string
}

func (k SubtypeKey) String() string {
	return string(k.Type) + "." + k.Subtype
}

// SubtypeSpec declares a runner's port shape and the JSON schema its static
// configuration must validate against: a schema-validated, per-subtype
// contract in place of an open, untyped configuration blob.
type SubtypeSpec struct {
	Key         SubtypeKey
	InputPorts  []InputPort
	OutputPorts []OutputPort
	// ConfigSchema is a JSON Schema document (draft-07) describing Config.
	// Empty means "no static configuration required".
	ConfigSchema string

	schema     *gojsonschema.Schema
	schemaOnce sync.Once
	schemaErr  error
}

func (s *SubtypeSpec) compiled() (*gojsonschema.Schema, error) {
	s.schemaOnce.Do(func() {
		if s.ConfigSchema == "" {
			return
		}
		loader := gojsonschema.NewStringLoader(s.ConfigSchema)
		s.schema, s.schemaErr = gojsonschema.NewSchema(loader)
	})
	return s.schema, s.schemaErr
}

// Validate checks a node's static configuration against this subtype's schema.
func (s *SubtypeSpec) Validate(config map[string]interface{}) error {
	schema, err := s.compiled()
	if err != nil {
		return fmt.Errorf("subtype %s: invalid schema: %w", s.Key, err)
	}
	if schema == nil {
		return nil
	}
	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("subtype %s: config not serializable: %w", s.Key, err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("subtype %s: %w", s.Key, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("subtype %s: %v", s.Key, msgs)
	}
	return nil
}

// InputPortNamed returns the declared input port by name, or false.
func (s *SubtypeSpec) InputPortNamed(name string) (InputPort, bool) {
	for _, p := range s.InputPorts {
		if p.Name == name {
			return p, true
		}
	}
	return InputPort{}, false
}

// OutputPortNamed reports whether this subtype declares the given output port.
func (s *SubtypeSpec) OutputPortNamed(name string) bool {
	for _, p := range s.OutputPorts {
		if p.Name == name {
			return true
		}
	}
	return false
}

// SchemaRegistry maps (type, subtype) to its SubtypeSpec.
type SchemaRegistry struct {
	mu    sync.RWMutex
	specs map[SubtypeKey]*SubtypeSpec
}

// NewSchemaRegistry creates an empty registry.
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{specs: make(map[SubtypeKey]*SubtypeSpec)}
}

// Register adds a SubtypeSpec, keyed by its own Key field.
func (r *SchemaRegistry) Register(spec *SubtypeSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.Key] = spec
}

// Lookup returns the spec for (type, subtype), or false if unregistered —
// the graph validator's invariant 4 ("(type, subtype) must have a registered runner").
func (r *SchemaRegistry) Lookup(t NodeType, subtype string) (*SubtypeSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[SubtypeKey{Type: t, Subtype: subtype}]
	return spec, ok
}

// DefaultSchemaRegistry returns the registry describing every node subtype
// the engine ships a runner for.
func DefaultSchemaRegistry() *SchemaRegistry {
	r := NewSchemaRegistry()

	mainIn := []InputPort{{Name: "input", Category: CategoryMain, Required: false}}
	mainOut := []OutputPort{{Name: "result"}}

	// TRIGGER — no inputs; the engine materializes the trigger event directly
	// into the node's outputs without invoking a runner.
	for _, sub := range []string{"manual", "webhook", "schedule", "event"} {
		r.Register(&SubtypeSpec{
			Key:         SubtypeKey{Type: NodeTypeTrigger, Subtype: sub},
			OutputPorts: []OutputPort{{Name: "result"}},
		})
	}

	// ACTION
	r.Register(&SubtypeSpec{
		Key:          SubtypeKey{Type: NodeTypeAction, Subtype: "code"},
		InputPorts:   mainIn,
		OutputPorts:  mainOut,
		ConfigSchema: `{"type":"object","required":["expression"],"properties":{"expression":{"type":"string","minLength":1},"timeout_ms":{"type":"integer","minimum":1}}}`,
	})
	r.Register(&SubtypeSpec{
		Key:          SubtypeKey{Type: NodeTypeAction, Subtype: "http"},
		InputPorts:   mainIn,
		OutputPorts:  []OutputPort{{Name: "result"}, {Name: "error"}},
		ConfigSchema: `{"type":"object","required":["url","method"],"properties":{"url":{"type":"string","minLength":1},"method":{"type":"string","enum":["GET","POST","PUT","PATCH","DELETE"]},"retries":{"type":"integer","minimum":0,"maximum":10}}}`,
	})
	r.Register(&SubtypeSpec{
		Key:          SubtypeKey{Type: NodeTypeAction, Subtype: "transform"},
		InputPorts:   mainIn,
		OutputPorts:  mainOut,
		ConfigSchema: `{"type":"object","required":["expression"],"properties":{"expression":{"type":"string","minLength":1}}}`,
	})

	// EXTERNAL_ACTION
	for _, sub := range []string{"slack", "github", "calendar", "notion", "generic"} {
		r.Register(&SubtypeSpec{
			Key:          SubtypeKey{Type: NodeTypeExternalAction, Subtype: sub},
			InputPorts:   mainIn,
			OutputPorts:  []OutputPort{{Name: "result"}, {Name: "error"}},
			ConfigSchema: `{"type":"object","required":["operation"],"properties":{"operation":{"type":"string","minLength":1},"provider_user_id":{"type":"string"}}}`,
		})
	}

	// AI_AGENT
	r.Register(&SubtypeSpec{
		Key: SubtypeKey{Type: NodeTypeAIAgent, Subtype: "chat"},
		InputPorts: []InputPort{
			{Name: "main", Category: CategoryMain, Required: false},
			{Name: "tools", Category: CategoryAITool, Required: false},
			{Name: "memory", Category: CategoryAIMemory, Required: false},
		},
		OutputPorts:  []OutputPort{{Name: "result"}, {Name: "tool_calls"}},
		ConfigSchema: `{"type":"object","required":["system_prompt"],"properties":{"system_prompt":{"type":"string"},"model":{"type":"string"}}}`,
	})

	// FLOW
	r.Register(&SubtypeSpec{
		Key:          SubtypeKey{Type: NodeTypeFlow, Subtype: "if"},
		InputPorts:   mainIn,
		OutputPorts:  []OutputPort{{Name: "true"}, {Name: "false"}},
		ConfigSchema: `{"type":"object","required":["condition"],"properties":{"condition":{"type":"string","minLength":1}}}`,
	})
	r.Register(&SubtypeSpec{
		Key:          SubtypeKey{Type: NodeTypeFlow, Subtype: "switch"},
		InputPorts:   mainIn,
		OutputPorts:  []OutputPort{{Name: "default"}},
		ConfigSchema: `{"type":"object","required":["cases"],"properties":{"cases":{"type":"array","minItems":1}}}`,
	})
	r.Register(&SubtypeSpec{
		Key:          SubtypeKey{Type: NodeTypeFlow, Subtype: "filter"},
		InputPorts:   mainIn,
		OutputPorts:  mainOut,
		ConfigSchema: `{"type":"object","required":["predicate"],"properties":{"predicate":{"type":"string","minLength":1}}}`,
	})
	r.Register(&SubtypeSpec{
		Key:          SubtypeKey{Type: NodeTypeFlow, Subtype: "loop"},
		InputPorts:   []InputPort{{Name: "items", Category: CategoryMain, Required: true}},
		OutputPorts:  []OutputPort{{Name: "result"}, {Name: "item"}},
		ConfigSchema: `{"type":"object","properties":{"max_iterations":{"type":"integer","minimum":1,"maximum":1000000}}}`,
	})
	r.Register(&SubtypeSpec{
		Key:          SubtypeKey{Type: NodeTypeFlow, Subtype: "merge"},
		InputPorts:   []InputPort{{Name: "main", Category: CategoryMain, Required: false}},
		OutputPorts:  mainOut,
		ConfigSchema: `{"type":"object","required":["strategy"],"properties":{"strategy":{"type":"string","enum":["wait_all","wait_any","merge_objects"]}}}`,
	})
	r.Register(&SubtypeSpec{
		Key:          SubtypeKey{Type: NodeTypeFlow, Subtype: "wait"},
		InputPorts:   mainIn,
		OutputPorts:  mainOut,
		ConfigSchema: `{"type":"object","required":["seconds"],"properties":{"seconds":{"type":"integer","minimum":1}}}`,
	})

	// HUMAN_IN_THE_LOOP
	for _, sub := range []string{"approval", "input", "selection", "review"} {
		r.Register(&SubtypeSpec{
			Key:         SubtypeKey{Type: NodeTypeHIL, Subtype: sub},
			InputPorts:  mainIn,
			OutputPorts: []OutputPort{{Name: "result"}},
			// HIL timeout bound [60s, 86400s]  invariant 4. default_response
			// is required once timeout_action is inject_default, so a timeout
			// never silently resolves to a nil result; HILRunner.Validate
			// re-checks this too, ahead of graph-validation time.
			ConfigSchema: `{"type":"object","required":["channel","timeout_seconds","timeout_action"],"properties":{"channel":{"type":"string","enum":["slack","email","webhook","in_app"]},"timeout_seconds":{"type":"integer","minimum":60,"maximum":86400},"timeout_action":{"type":"string","enum":["fail","continue","inject_default"]},"options":{"type":"array"}},"if":{"properties":{"timeout_action":{"const":"inject_default"}}},"then":{"required":["default_response"]}}`,
		})
	}

	// TOOL
	r.Register(&SubtypeSpec{
		Key:          SubtypeKey{Type: NodeTypeTool, Subtype: "http_tool"},
		InputPorts:   mainIn,
		OutputPorts:  mainOut,
		ConfigSchema: `{"type":"object","required":["url","method"],"properties":{"url":{"type":"string"},"method":{"type":"string"}}}`,
	})
	r.Register(&SubtypeSpec{
		Key:          SubtypeKey{Type: NodeTypeTool, Subtype: "code_tool"},
		InputPorts:   mainIn,
		OutputPorts:  mainOut,
		ConfigSchema: `{"type":"object","required":["expression"],"properties":{"expression":{"type":"string"}}}`,
	})

	// MEMORY
	for _, sub := range []string{"buffer", "kv", "vector", "document"} {
		r.Register(&SubtypeSpec{
			Key:          SubtypeKey{Type: NodeTypeMemory, Subtype: sub},
			InputPorts:   []InputPort{{Name: "input", Category: CategoryMain, Required: false}},
			OutputPorts:  []OutputPort{{Name: "result"}},
			ConfigSchema: `{"type":"object","required":["operation","collection"],"properties":{"operation":{"type":"string","enum":["put","get","search"]},"collection":{"type":"string","minLength":1},"key":{"type":"string"}}}`,
		})
	}

	return r
}
