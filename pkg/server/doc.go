// Package server provides an HTTP API server fronting one pkg/engine.Engine.
// It enables programmatic access to the workflow engine with support for:
//   - workflow CRUD (/api/v1/workflows)
//   - execution lifecycle: execute, resume, cancel, inspect
//     (/api/v1/workflows/{id}/execute, /api/v1/executions/{id}/...)
//   - HTTP client registration for the HTTP adapter (/api/v1/httpclients)
//   - health check and readiness endpoints
//   - Prometheus metrics endpoint
//   - request/response logging and tracing
//   - graceful shutdown
package server
