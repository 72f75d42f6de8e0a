package executor

import (
	"fmt"

	"github.com/flowcore/engine/pkg/types"
)

// validHILChannels mirrors the schema's channel enum; kept here too so
// Validate can give a precise error message ahead of the generic schema check.
var validHILChannels = map[string]bool{"slack": true, "email": true, "webhook": true, "in_app": true}

// HILRunner yields a human-interaction WaitSignal. One instance serves all
// four HUMAN_IN_THE_LOOP subtypes (approval, input, selection, review); the
// subtype only affects how the pause controller presents the interaction,
// not the runner's mechanics.
type HILRunner struct {
	interactionKind string
}

// NewHILRunner builds the runner for one HUMAN_IN_THE_LOOP subtype.
func NewHILRunner(interactionKind string) *HILRunner {
	return &HILRunner{interactionKind: interactionKind}
}

func (r *HILRunner) Key() types.SubtypeKey {
	return types.SubtypeKey{Type: types.NodeTypeHIL, Subtype: r.interactionKind}
}

func (r *HILRunner) Validate(node types.Node) error {
	channel, _ := node.Config["channel"].(string)
	if !validHILChannels[channel] {
		return fmt.Errorf("human_in_the_loop.%s: invalid channel %q", r.interactionKind, channel)
	}
	seconds := cfgInt(node.Config, "timeout_seconds", 0)
	if seconds < 60 || seconds > 86400 {
		return fmt.Errorf("human_in_the_loop.%s: timeout_seconds %d out of range [60, 86400]", r.interactionKind, seconds)
	}
	action, _ := node.Config["timeout_action"].(string)
	switch types.TimeoutAction(action) {
	case types.TimeoutActionFail, types.TimeoutActionContinue, types.TimeoutActionInjectDefault:
	default:
		return fmt.Errorf("human_in_the_loop.%s: invalid timeout_action %q", r.interactionKind, action)
	}
	if types.TimeoutAction(action) == types.TimeoutActionInjectDefault {
		if _, ok := node.Config["default_response"]; !ok {
			return fmt.Errorf("human_in_the_loop.%s: default_response is required when timeout_action is inject_default", r.interactionKind)
		}
	}
	return nil
}

func (r *HILRunner) Execute(rc RunContext) *types.Outcome {
	cfg := rc.Config()
	channel := cfgString(cfg, "channel", "")
	timeoutSeconds := cfgInt(cfg, "timeout_seconds", 0)
	timeoutAction := types.TimeoutAction(cfgString(cfg, "timeout_action", string(types.TimeoutActionFail)))

	resumeConditions := map[string]interface{}{
		"node_id":          rc.Node().ID,
		"interaction_kind": r.interactionKind,
	}
	if options := cfgSlice(cfg, "options"); options != nil {
		resumeConditions["options"] = options
	}

	return types.OutcomeWait(&types.WaitSignal{
		Reason:           types.PauseReasonHumanInteraction,
		InteractionKind:  r.interactionKind,
		Channel:          channel,
		TimeoutSeconds:   timeoutSeconds,
		TimeoutAction:    timeoutAction,
		ResumeConditions: resumeConditions,
		DefaultResponse:  cfg["default_response"],
	})
}
