// Package logging provides structured logging capabilities for the workflow engine.
//
// # Overview
//
// The logging package implements a structured logging system with support for
// multiple output formats, log levels, contextual information, and integration
// with the workflow execution lifecycle.
//
// # Features
//
//   - Structured logging: JSON and text formats
//   - Log levels: DEBUG, INFO, WARN, ERROR
//   - Context propagation: Execution ID, workflow ID, node ID
//   - Level filtering: messages below the configured level are dropped
//   - Performance: Minimal overhead for disabled log levels
//   - Thread-safe: Safe for concurrent use
//   - Flexible output: Write to any io.Writer
//
// # Log Levels
//
// The package supports standard log levels:
//
//   - DEBUG: Detailed diagnostic information
//   - INFO: General informational messages
//   - WARN: Warning messages for potential issues
//   - ERROR: Error messages for failures
//
// # Basic Usage
//
//	import "github.com/flowcore/engine/pkg/logging"
//
//	// Create logger
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Output: os.Stdout,
//	})
//
//	// Log messages; fields are attached with the With* methods
//	logger.WithFields(map[string]interface{}{
//	    "workflow_id": "wf-123",
//	    "node_count":  42,
//	}).Info("Workflow started")
//
//	logger.WithError(err).WithNodeID("node-5").Error("Execution failed")
//
// # Context Integration
//
// WithContext stores the logger in a context; FromContext returns it, or a
// new logger built from DefaultConfig when the context holds none:
//
//	ctx = logger.WithContext(ctx)
//	logging.FromContext(ctx).WithNodeType(node.Type).Info("Node executing")
//
// # Structured Fields
//
// Fields are added with WithWorkflowID, WithExecutionID, WithNodeID,
// WithNodeType, WithField, WithFields and WithError, each of which returns a
// new *Logger:
//
//	logger.WithFields(map[string]interface{}{
//	    "method":      "GET",
//	    "url":         "https://api.example.com",
//	    "status":      200,
//	    "duration_ms": 145,
//	}).Info("HTTP request completed")
//
// # Output Formats
//
// JSON (default, Pretty false), one object per line as written by slog:
//
//	{"time":"2024-01-15T10:30:00Z","level":"INFO","msg":"Workflow started","workflow_id":"wf-123","execution_id":"exec-456"}
//
// Text (Pretty true):
//
//	time=2024-01-15T10:30:00.000Z level=INFO msg="Workflow started" workflow_id=wf-123 execution_id=exec-456
//
// # Configuration
//
// Logger configuration options:
//
//	config := logging.Config{
//	    Level:         "debug",   // debug, info, warn/warning, error; anything else means info
//	    Output:        os.Stdout, // nil means os.Stdout
//	    Pretty:        true,      // text output instead of JSON
//	    IncludeCaller: true,      // include source file:line
//	}
//
// # Performance Considerations
//
//   - Messages below the configured level are discarded by the slog handler
//   - The *f variants format their message before the level check
//   - Output is written directly to the configured io.Writer, unbuffered
//
// # Common Logging Patterns
//
// Workflow execution:
//
//	logger.WithWorkflowID(workflow.ID).
//	    WithField("node_count", len(workflow.Nodes)).
//	    Info("Workflow execution started")
//
// Node execution:
//
//	logger.WithNodeID(node.ID).WithNodeType(node.Type).Debug("Node executing")
//
// Error logging:
//
//	logger.WithNodeID(node.ID).WithError(err).
//	    WithField("retry_count", retries).
//	    Error("Node execution failed")
//
// # Integration with Observability
//
// This package does not implement observer.Observer. The engine uses a
// *Logger (set with Engine.WithLogger) for its own messages; execution
// events go to observers registered with Engine.WithObserver (pkg/observer).
//
// # Best Practices
//
//   - Use structured fields instead of string formatting
//   - Include execution context (workflow_id, node_id, etc.)
//   - Log at appropriate levels (avoid debug in production)
//   - Add timing information for performance analysis
//   - Include error context (not just error message)
//   - Use consistent field names across the codebase
//
// # Thread Safety
//
// All logger operations are thread-safe and can be used concurrently
// from multiple goroutines without additional synchronization.
//
// # Testing
//
// For testing, use a logger with a buffer:
//
//	buf := &bytes.Buffer{}
//	logger := logging.New(logging.Config{
//	    Level:  "debug",
//	    Output: buf,
//	})
//
//	// Execute code
//	// Verify log output
//	if !strings.Contains(buf.String(), "expected message") { ... }
package logging
