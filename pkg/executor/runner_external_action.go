package executor

import (
	"fmt"

	"github.com/flowcore/engine/pkg/adapters"
	"github.com/flowcore/engine/pkg/types"
)

// ExternalActionRunner dispatches to the one-per-provider ExternalService
// adapter keyed by the node's subtype (slack, github, calendar, notion,
// generic), fetching credentials from the CredentialVault first.
// One runner instance serves every EXTERNAL_ACTION subtype; the provider
// name IS the subtype, so a single generic implementation covers all five
// without per-provider Go code.
type ExternalActionRunner struct {
	provider string
}

// NewExternalActionRunner builds the runner for one EXTERNAL_ACTION subtype.
func NewExternalActionRunner(provider string) *ExternalActionRunner {
	return &ExternalActionRunner{provider: provider}
}

func (r *ExternalActionRunner) Key() types.SubtypeKey {
	return types.SubtypeKey{Type: types.NodeTypeExternalAction, Subtype: r.provider}
}

func (r *ExternalActionRunner) Validate(node types.Node) error {
	if _, ok := node.Config["operation"].(string); !ok {
		return fmt.Errorf("external_action.%s: missing operation", r.provider)
	}
	return nil
}

func (r *ExternalActionRunner) Execute(rc RunContext) *types.Outcome {
	bundle := rc.Adapters()
	svc, ok := bundle.External[r.provider]
	if !ok || svc == nil {
		return types.OutcomeFailure(types.ErrorKindInvalidConfiguration, fmt.Sprintf("no ExternalService wired for provider %q", r.provider), "register an adapter for this provider")
	}

	cfg := rc.Config()
	operation := cfgString(cfg, "operation", "")
	userID := cfgString(cfg, "provider_user_id", "")

	var cred adapters.Credential
	if bundle.Vault != nil && userID != "" {
		fetched, err := bundle.Vault.Fetch(rc.Context(), userID, r.provider)
		if err != nil {
			return types.OutcomeFailure(types.ErrorKindProviderError, fmt.Sprintf("fetching credential: %v", err), "")
		}
		cred = fetched
		switch cred.Status {
		case adapters.CredentialMissing:
			return types.OutcomeFailure(types.ErrorKindCredentialsMissing, fmt.Sprintf("no %s credential for user %q", r.provider, userID), "connect this provider before running the workflow")
		case adapters.CredentialExpired:
			return types.OutcomeFailure(types.ErrorKindCredentialsExpired, fmt.Sprintf("%s credential for user %q has expired", r.provider, userID), "re-authenticate and retry")
		}
	}

	params := rc.Inputs()
	result, err := svc.Invoke(rc.Context(), operation, params, cred)
	if err != nil {
		return types.OutcomeFailure(types.ErrorKindProviderError, err.Error(), "")
	}
	if !result.Success {
		kind := types.ErrorKind(result.ErrorKind)
		if kind == "" {
			kind = types.ErrorKindProviderError
		}
		return types.OutcomeFailure(kind, result.Message, "")
	}

	return types.OutcomeResult(map[string]interface{}{"result": result.Data})
}
