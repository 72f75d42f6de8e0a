package types

// ErrorKind is the uniform error taxonomy runners report through, .
type ErrorKind string

const (
	ErrorKindInvalidConfiguration ErrorKind = "invalid_configuration"
	ErrorKindCredentialsMissing   ErrorKind = "credentials_missing"
	ErrorKindCredentialsExpired   ErrorKind = "credentials_expired"
	ErrorKindProviderError        ErrorKind = "provider_error"
	ErrorKindRateLimited          ErrorKind = "rate_limited"
	ErrorKindTimeout              ErrorKind = "timeout"
	ErrorKindCancelled            ErrorKind = "cancelled"
	ErrorKindInternal             ErrorKind = "internal"
)

// Retryable reports whether the engine's retry loop should reattempt
// a runner invocation that failed with this kind.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrorKindRateLimited, ErrorKindProviderError:
		return true
	default:
		return false
	}
}

// RunError is a structured, user-actionable failure carried on a NodeRun.
type RunError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Advice  string    `json:"advice,omitempty"`
}

func (e *RunError) Error() string {
	if e == nil {
		return ""
	}
	if e.Advice != "" {
		return e.Message + " (" + e.Advice + ")"
	}
	return e.Message
}

// NewRunError constructs a RunError, the uniform failure shape every runner returns.
func NewRunError(kind ErrorKind, message, advice string) *RunError {
	return &RunError{Kind: kind, Message: message, Advice: advice}
}

// Result is the successful-completion shape a runner returns: values keyed
// by output port name, plus an optional branch hint for FLOW runners that
// must tell the engine which single outgoing port carries data this time.
type Result struct {
	Outputs map[string]interface{} `json:"outputs"`
	Branch  string                 `json:"branch,omitempty"`
}

// WaitSignal is the pause shape a runner returns in place of Result.
type WaitSignal struct {
	Reason           PauseReason            `json:"reason"`
	InteractionKind  string                 `json:"interaction_kind,omitempty"`
	Channel          string                 `json:"channel,omitempty"`
	TimeoutSeconds   int                    `json:"timeout_seconds"`
	TimeoutAction    TimeoutAction          `json:"timeout_action"`
	ResumeConditions map[string]interface{} `json:"resume_conditions,omitempty"`
	DefaultResponse  interface{}            `json:"default_response,omitempty"`
	InteractionID    string                 `json:"interaction_id,omitempty"`
}

// Outcome is the sum type every NodeRunner returns: exactly one of Result,
// Wait or Failure is set.
type Outcome struct {
	Result  *Result
	Wait    *WaitSignal
	Failure *RunError
}

// OutcomeResult wraps a successful Result into an Outcome.
func OutcomeResult(outputs map[string]interface{}) *Outcome {
	return &Outcome{Result: &Result{Outputs: outputs}}
}

// OutcomeBranch wraps a Result that also declares which outgoing port to route on.
func OutcomeBranch(outputs map[string]interface{}, branch string) *Outcome {
	return &Outcome{Result: &Result{Outputs: outputs, Branch: branch}}
}

// OutcomeWait wraps a WaitSignal into an Outcome.
func OutcomeWait(wait *WaitSignal) *Outcome {
	return &Outcome{Wait: wait}
}

// OutcomeFailure wraps a RunError into an Outcome.
func OutcomeFailure(kind ErrorKind, message, advice string) *Outcome {
	return &Outcome{Failure: NewRunError(kind, message, advice)}
}
