// Package httpclient provides a configurable HTTP client builder for the workflow engine.
//
// This package allows SDK consumers to define named HTTP clients with custom authentication,
// headers, timeouts, and other options via configuration, and keep them in a Registry under
// their names. No node runner reads client names or the Registry: the engine's ACTION/http
// runner sends requests through adapters.HTTPInvoker.
//
// # Features
//
//   - Multiple named HTTP clients with independent configurations
//   - Authentication: None (default), Basic Auth, Bearer Token
//   - Configurable timeouts, connection pooling, and network settings
//   - Default headers and query parameters
//   - Redirect targets checked against the engine's SSRF settings
//   - Thread-safe client registry
//
// # Authentication Types
//
// The package supports three authentication types:
//
//   - None: No authentication (default)
//   - Basic: HTTP Basic Authentication with username and password
//   - Bearer: Bearer Token authentication
//
// Future extensions may include OAuth2 and other authentication mechanisms.
//
// # Example Usage
//
//	// Create client configuration
//	config := &httpclient.ClientConfig{
//	    Name:     "api-client",
//	    AuthType: httpclient.AuthTypeBearer,
//	    Token:    "your-api-token",
//	    Timeout:  60 * time.Second,
//	    DefaultHeaders: map[string]string{
//	        "Content-Type": "application/json",
//	    },
//	}
//
//	// Build the client
//	builder := httpclient.NewBuilder(engineConfig)
//	client, err := builder.Build(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Register in registry
//	registry := httpclient.NewRegistry()
//	registry.Register("api-client", client)
//
//	// Look it up by name
//	c, err := registry.Get("api-client")
//
// # Configuration File Format
//
// HTTP clients can be configured via YAML or JSON:
//
//	http_clients:
//	  - name: "github-api"
//	    description: "GitHub API client"
//	    auth_type: "bearer"
//	    token: "${GITHUB_TOKEN}"
//	    base_url: "https://api.github.com"
//	    timeout: "30s"
//	    default_headers:
//	      Accept: "application/vnd.github.v3+json"
//	      User-Agent: "Flowcore Engine"
//
//	  - name: "internal-api"
//	    description: "Internal service API"
//	    auth_type: "basic"
//	    username: "service-account"
//	    password: "${API_PASSWORD}"
//	    timeout: "10s"
//	    max_redirects: 5
//
// # Security Considerations
//
//   - Redirect targets are validated against the engine configuration's Allow*
//     network settings and AllowedDomains; the initial request URL is not
//     validated by the client
//   - Credentials should be passed via environment variables, not hardcoded
//   - MaxResponseSize is carried in the configuration and returned by
//     Registry.GetHTTPClient; the client itself does not limit response bodies
//   - Redirect validation prevents redirect-based SSRF attacks
//   - Connection pooling limits prevent resource exhaustion
package httpclient
