package executor

import (
	"fmt"

	"github.com/flowcore/engine/pkg/adapters"
	"github.com/flowcore/engine/pkg/types"
)

// ChatRunner drives one AI_AGENT.chat completion, assembling the prompt
// from MAIN-category inputs, tool specs from AI_TOOL-category inputs, and
// prior turns from AI_MEMORY-category inputs — the three port categories
//  for this node family.
type ChatRunner struct{}

func (r *ChatRunner) Key() types.SubtypeKey {
	return types.SubtypeKey{Type: types.NodeTypeAIAgent, Subtype: "chat"}
}

func (r *ChatRunner) Validate(node types.Node) error {
	if _, ok := node.Config["system_prompt"].(string); !ok {
		return fmt.Errorf("ai_agent.chat: missing system_prompt")
	}
	return nil
}

func (r *ChatRunner) Execute(rc RunContext) *types.Outcome {
	bundle := rc.Adapters()
	if bundle.AI == nil {
		return types.OutcomeFailure(types.ErrorKindInternal, "no AIProvider configured", "")
	}

	cfg := rc.Config()
	systemPrompt := cfgString(cfg, "system_prompt", "")
	model := cfgString(cfg, "model", "")

	inputs := rc.Inputs()
	messages := []adapters.AIMessage{}
	if mainInput, ok := inputs["main"]; ok {
		messages = append(messages, adapters.AIMessage{Role: "user", Content: fmt.Sprintf("%v", mainInput)})
	} else if input, ok := inputs["input"]; ok {
		messages = append(messages, adapters.AIMessage{Role: "user", Content: fmt.Sprintf("%v", input)})
	}
	memIn, ok := inputs[string(types.CategoryAIMemory)]
	if !ok {
		memIn = inputs["memory"]
	}
	if memTurns, ok := memIn.([]interface{}); ok {
		prior := make([]adapters.AIMessage, 0, len(memTurns))
		for _, t := range memTurns {
			if m, ok := t.(map[string]interface{}); ok {
				prior = append(prior, adapters.AIMessage{
					Role:    cfgString(m, "role", "user"),
					Content: cfgString(m, "content", ""),
				})
			}
		}
		messages = append(prior, messages...)
	}

	var tools []adapters.AIToolSpec
	toolsIn, ok := inputs[string(types.CategoryAITool)]
	if !ok {
		toolsIn = inputs["tools"]
	}
	if toolDefs, ok := toolsIn.([]interface{}); ok {
		for _, t := range toolDefs {
			if m, ok := t.(map[string]interface{}); ok {
				tools = append(tools, adapters.AIToolSpec{
					Name:        cfgString(m, "name", ""),
					Description: cfgString(m, "description", ""),
					Parameters:  cfgMap(m, "parameters"),
				})
			}
		}
	}

	completion, err := bundle.AI.Complete(rc.Context(), systemPrompt, messages, tools, adapters.AIConfig{
		Model:       model,
		Temperature: cfgFloat(cfg, "temperature", 0),
		MaxTokens:   cfgInt(cfg, "max_tokens", 0),
	})
	if err != nil {
		return types.OutcomeFailure(types.ErrorKindProviderError, err.Error(), "")
	}

	outputs := map[string]interface{}{
		"result": completion.Text,
	}
	if len(completion.ToolCalls) > 0 {
		calls := make([]interface{}, len(completion.ToolCalls))
		for i, c := range completion.ToolCalls {
			calls[i] = map[string]interface{}{"id": c.ID, "name": c.Name, "arguments": c.Arguments}
		}
		outputs["tool_calls"] = calls
	}
	return types.OutcomeResult(outputs)
}
