package adapters

import (
	"context"
	"strings"
	"sync"
)

// FakeAIProvider is a scripted AIProvider for engine tests: it returns the
// same completion (or, if keyed by prompt prefix, a specific one) without
// calling a real model.
type FakeAIProvider struct {
	Default   AICompletion
	ByPrompt  map[string]AICompletion
}

func (f *FakeAIProvider) Complete(_ context.Context, systemPrompt string, _ []AIMessage, _ []AIToolSpec, _ AIConfig) (*AICompletion, error) {
	for prefix, completion := range f.ByPrompt {
		if strings.HasPrefix(systemPrompt, prefix) {
			c := completion
			return &c, nil
		}
	}
	c := f.Default
	return &c, nil
}

// FakeHTTPInvoker is a scripted HTTPInvoker keyed by exact URL match.
type FakeHTTPInvoker struct {
	mu        sync.Mutex
	Responses map[string]HTTPResponse
	Calls     []HTTPRequest
}

func NewFakeHTTPInvoker() *FakeHTTPInvoker {
	return &FakeHTTPInvoker{Responses: make(map[string]HTTPResponse)}
}

func (f *FakeHTTPInvoker) Request(_ context.Context, req HTTPRequest) (*HTTPResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, req)
	if resp, ok := f.Responses[req.URL]; ok {
		r := resp
		return &r, nil
	}
	return &HTTPResponse{Status: 200, Body: []byte("{}")}, nil
}

// FakeCredentialVault is an in-memory CredentialVault for tests.
type FakeCredentialVault struct {
	mu          sync.Mutex
	Credentials map[string]Credential // key: userID+"/"+provider
}

func NewFakeCredentialVault() *FakeCredentialVault {
	return &FakeCredentialVault{Credentials: make(map[string]Credential)}
}

func (f *FakeCredentialVault) key(userID, provider string) string { return userID + "/" + provider }

func (f *FakeCredentialVault) Set(userID, provider string, cred Credential) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Credentials[f.key(userID, provider)] = cred
}

func (f *FakeCredentialVault) Fetch(_ context.Context, userID, provider string) (Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cred, ok := f.Credentials[f.key(userID, provider)]
	if !ok {
		return Credential{Status: CredentialMissing}, nil
	}
	return cred, nil
}

func (f *FakeCredentialVault) Refresh(_ context.Context, provider, refreshToken string) (Credential, error) {
	return Credential{Status: CredentialOK, Token: "refreshed-" + refreshToken}, nil
}

// FakeExternalService is a scripted ExternalService for tests.
type FakeExternalService struct {
	Result *ExternalResult
	Err    error
	Calls  []string
}

func (f *FakeExternalService) Invoke(_ context.Context, operation string, _ map[string]interface{}, _ Credential) (*ExternalResult, error) {
	f.Calls = append(f.Calls, operation)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Result != nil {
		return f.Result, nil
	}
	return &ExternalResult{Success: true, Data: map[string]interface{}{}}, nil
}

// FakeMemoryStore is an in-memory MemoryStore for tests.
type FakeMemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]interface{}
}

func NewFakeMemoryStore() *FakeMemoryStore {
	return &FakeMemoryStore{data: make(map[string]map[string]interface{})}
}

func (f *FakeMemoryStore) Put(_ context.Context, collection, key string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data[collection] == nil {
		f.data[collection] = make(map[string]interface{})
	}
	f.data[collection][key] = value
	return nil
}

func (f *FakeMemoryStore) Get(_ context.Context, collection, key string) (interface{}, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.data[collection]
	if !ok {
		return nil, false, nil
	}
	v, ok := c[key]
	return v, ok, nil
}

func (f *FakeMemoryStore) Search(_ context.Context, collection, query string, limit int) ([]interface{}, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []interface{}
	for k, v := range f.data[collection] {
		if strings.Contains(k, query) {
			out = append(out, v)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// HeuristicClassifier is the fallback ResponseClassifier used when no
// AIProvider-backed classifier is configured. It scores relevance by keyword/sender match against the stored
// resume-conditions.
type HeuristicClassifier struct {
	Threshold float64
}

func (h *HeuristicClassifier) Classify(_ context.Context, interaction map[string]interface{}, incoming map[string]interface{}) (Classification, error) {
	threshold := h.Threshold
	if threshold <= 0 {
		threshold = 0.7
	}

	score := 0.5
	if expectedSender, ok := interaction["sender"].(string); ok {
		if sender, ok := incoming["sender"].(string); ok && sender == expectedSender {
			score += 0.3
		} else {
			score -= 0.3
		}
	}
	if keywords, ok := interaction["keywords"].([]string); ok {
		text, _ := incoming["text"].(string)
		for _, kw := range keywords {
			if strings.Contains(strings.ToLower(text), strings.ToLower(kw)) {
				score += 0.2
				break
			}
		}
	}
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}

	verdict := VerdictUncertain
	if score >= threshold {
		verdict = VerdictRelevant
	} else if score < threshold/2 {
		verdict = VerdictFiltered
	}
	return Classification{Relevance: score, Verdict: verdict}, nil
}
