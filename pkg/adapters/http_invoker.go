package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/flowcore/engine/pkg/security"
	"github.com/flowcore/engine/pkg/types"
)

// DefaultHTTPInvoker is the production HTTPInvoker: a pooled *http.Client
// guarded by the security package's SSRF protection, zero-trust by default
// per the engine config's Allow* fields.
//
// Connection-pooling and SSRF-validation logic adapted to the narrower
// adapters.HTTPInvoker interface.
type DefaultHTTPInvoker struct {
	cfg types.Config

	mu     sync.RWMutex
	client *http.Client
}

// NewDefaultHTTPInvoker builds an invoker bound to one engine configuration.
func NewDefaultHTTPInvoker(cfg types.Config) *DefaultHTTPInvoker {
	return &DefaultHTTPInvoker{cfg: cfg}
}

func (h *DefaultHTTPInvoker) ssrfConfig() security.SSRFConfig {
	return security.SSRFConfig{
		AllowedSchemes:     []string{"http", "https"},
		BlockPrivateIPs:    !h.cfg.AllowPrivateIPs,
		BlockLocalhost:     !h.cfg.AllowLocalhost,
		BlockLinkLocal:     !h.cfg.AllowLinkLocal,
		BlockCloudMetadata: !h.cfg.AllowCloudMetadata,
		AllowedDomains:     h.cfg.AllowedDomains,
	}
}

func (h *DefaultHTTPInvoker) validateURL(url string) error {
	return security.NewSSRFProtectionWithConfig(h.ssrfConfig()).ValidateURL(url)
}

func (h *DefaultHTTPInvoker) httpClient() *http.Client {
	h.mu.RLock()
	if h.client != nil {
		defer h.mu.RUnlock()
		return h.client
	}
	h.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client != nil {
		return h.client
	}

	h.client = &http.Client{
		Timeout: h.cfg.HTTPTimeout,
		Transport: &http.Transport{
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			MaxConnsPerHost:       100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= h.cfg.MaxHTTPRedirects {
				return fmt.Errorf("too many redirects (max %d)", h.cfg.MaxHTTPRedirects)
			}
			return h.validateURL(req.URL.String())
		},
	}
	return h.client
}

// Request issues one outbound HTTP call, enforcing the engine's zero-trust
// network policy before dialing.
func (h *DefaultHTTPInvoker) Request(ctx context.Context, req HTTPRequest) (*HTTPResponse, error) {
	if !h.cfg.AllowHTTP {
		return nil, fmt.Errorf("outbound HTTP is disabled (AllowHTTP=false)")
	}
	if err := h.validateURL(req.URL); err != nil {
		return nil, fmt.Errorf("url rejected: %w", err)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	timeout := h.cfg.HTTPTimeout
	if req.Timeout > 0 {
		timeout = time.Duration(req.Timeout) * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := h.httpClient().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	limit := h.cfg.MaxResponseSize
	if limit <= 0 {
		limit = 10 * 1024 * 1024
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return &HTTPResponse{Status: resp.StatusCode, Headers: headers, Body: respBody}, nil
}
