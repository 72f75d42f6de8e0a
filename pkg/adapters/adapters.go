// Package adapters declares the narrow interfaces the engine calls out to
// for AI, HTTP, credentials, external integrations, and memory. Runners are
// never handed the host environment directly — only these interfaces — so
// the engine and its runners can be exercised in tests with the in-memory
// fakes this package also provides.
//
// Grounded on itsneelabh-gomind's narrow orchestration-adapter shapes
// (invoke(op, params, creds), CheckpointStore) and pkg/httpclient's
// connection-pooling for the HTTP invoker's transport concerns.
package adapters

import "context"

// AIMessage is one turn in a conversation handed to an AIProvider.
type AIMessage struct {
	Role    string // "system" | "user" | "assistant" | "tool"
	Content string
}

// AIToolSpec describes one tool an AIProvider may call.
type AIToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]interface{} // JSON schema
}

// AIToolCall is one tool invocation request the model produced.
type AIToolCall struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// AIUsage reports token accounting for a completion.
type AIUsage struct {
	InputTokens  int
	OutputTokens int
}

// AICompletion is the result of one AIProvider.Complete call.
type AICompletion struct {
	Text      string
	ToolCalls []AIToolCall
	Usage     AIUsage
}

// AIConfig tunes one completion call (model, temperature, max tokens...).
type AIConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// AIProvider is the narrow AI adapter :
// complete(system_prompt, messages, tools, config) -> {text, tool_calls, usage}.
type AIProvider interface {
	Complete(ctx context.Context, systemPrompt string, messages []AIMessage, tools []AIToolSpec, cfg AIConfig) (*AICompletion, error)
}

// HTTPRequest is one outbound call issued through the HTTPInvoker adapter.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout int // seconds
}

// HTTPResponse is the result of one HTTPInvoker.Request call.
type HTTPResponse struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// HTTPInvoker is the narrow HTTP adapter :
// request(method, url, headers, body, timeout) -> {status, headers, body}.
type HTTPInvoker interface {
	Request(ctx context.Context, req HTTPRequest) (*HTTPResponse, error)
}

// CredentialStatus reports the outcome of a vault lookup.
type CredentialStatus string

const (
	CredentialOK      CredentialStatus = "ok"
	CredentialMissing CredentialStatus = "missing"
	CredentialExpired CredentialStatus = "expired"
)

// Credential is one vault-held secret for a (user, provider) pair.
type Credential struct {
	Status       CredentialStatus
	Token        string
	RefreshToken string
}

// CredentialVault is the narrow vault adapter :
// fetch(user_id, provider) -> token|missing|expired; refresh(provider, refresh_token).
type CredentialVault interface {
	Fetch(ctx context.Context, userID, provider string) (Credential, error)
	Refresh(ctx context.Context, provider, refreshToken string) (Credential, error)
}

// ExternalResult is the outcome of one ExternalService.Invoke call.
type ExternalResult struct {
	Success   bool
	Data      map[string]interface{}
	ErrorKind string // mirrors types.ErrorKind values for provider-side failures
	Message   string
}

// ExternalService is the one-per-integration adapter :
// invoke(operation, params, credentials) -> {success, data, error_kind}.
type ExternalService interface {
	Invoke(ctx context.Context, operation string, params map[string]interface{}, creds Credential) (*ExternalResult, error)
}

// MemoryStore is the narrow memory adapter :
// put/get/search(collection, key, value|query).
type MemoryStore interface {
	Put(ctx context.Context, collection, key string, value interface{}) error
	Get(ctx context.Context, collection, key string) (interface{}, bool, error)
	Search(ctx context.Context, collection, query string, limit int) ([]interface{}, error)
}

// ClassificationVerdict is the outcome of a ResponseClassifier.Classify call.
type ClassificationVerdict string

const (
	VerdictRelevant  ClassificationVerdict = "relevant"
	VerdictFiltered  ClassificationVerdict = "filtered"
	VerdictUncertain ClassificationVerdict = "uncertain"
)

// Classification is the scored result of one classify call.
type Classification struct {
	Relevance float64
	Verdict   ClassificationVerdict
}

// ResponseClassifier is the optional HIL-response adapter :
// classify(interaction, incoming) -> {relevance, verdict}. When no AIProvider
// is configured, pkg/pause falls back to a heuristic classifier.
type ResponseClassifier interface {
	Classify(ctx context.Context, interaction map[string]interface{}, incoming map[string]interface{}) (Classification, error)
}

// Bundle groups every adapter a RunContext exposes to a runner. Any field
// may be nil; runners that don't need an adapter never dereference it.
type Bundle struct {
	AI         AIProvider
	HTTP       HTTPInvoker
	Vault      CredentialVault
	External   map[string]ExternalService // keyed by provider name (slack, github, ...)
	Memory     MemoryStore
	Classifier ResponseClassifier
}
