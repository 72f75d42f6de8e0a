// Package observer provides an event-driven observer pattern for workflow execution.
//
// # Overview
//
// The observer package implements the observer pattern to enable monitoring,
// logging, and reacting to workflow execution events. Observers can track
// workflow lifecycle, node execution, state changes, and errors without
// coupling to the engine implementation.
//
// # Features
//
//   - Event-driven: one OnEvent callback receives workflow and node events
//   - Multiple observers: a Manager fans each event out to every observer
//   - Error events: node failures carry the failure in Event.Error
//   - Timing: events carry Timestamp, StartTime and ElapsedTime fields
//   - Non-blocking: each delivery runs in its own goroutine
//
// # Observer Interface
//
//	type Observer interface {
//	    OnEvent(ctx context.Context, event Event)
//	}
//
// Event.Type says what happened and Event.Status how it ended; node events
// also carry NodeID and NodeType.
//
// # Workflow Events
//
// EventWorkflowStart (status started):
//   - Emitted when an execution starts, after graph validation
//
// EventWorkflowEnd:
//   - Emitted when an execution finishes
//   - Status success, failure, or completed for any other final state
//
// # Node Events
//
// EventNodeStart (status started):
//   - Emitted before each node runs, trigger nodes included
//
// EventNodeSuccess (status success):
//   - Emitted when the node produced a result; Event.Result holds its outputs
//
// EventNodeFailure (status failure):
//   - Emitted when the node failed after any retries; Event.Error holds the failure
//
// EventNodeEnd (status completed):
//   - Emitted when the node paused (human-in-the-loop or timer wait)
//
// # Basic Usage
//
//	import "github.com/flowcore/engine/pkg/observer"
//
//	// Register with the engine
//	eng := engine.New().WithObserver(observer.NewConsoleObserver())
//
//	// Executions run by eng now send events to the observer
//
// # Custom Observer Example
//
//	type MetricsObserver struct {
//	    metrics MetricsCollector
//	}
//
//	func (o *MetricsObserver) OnEvent(ctx context.Context, event observer.Event) {
//	    switch event.Type {
//	    case observer.EventWorkflowStart:
//	        o.metrics.Increment("workflow.started")
//	    case observer.EventWorkflowEnd:
//	        o.metrics.Increment("workflow." + string(event.Status))
//	    case observer.EventNodeSuccess:
//	        o.metrics.Increment("node.completed", map[string]string{"type": string(event.NodeType)})
//	    case observer.EventNodeFailure:
//	        o.metrics.Increment("node.failed", map[string]string{"type": string(event.NodeType)})
//	    }
//	}
//
// # Built-in Observers
//
// NoOpObserver:
//   - Ignores all events
//
// ConsoleObserver:
//   - Writes each event through an observer.Logger (DefaultLogger unless
//     one is given to NewConsoleObserverWithLogger)
//   - Info for workflow events (Error when a workflow end carries an error),
//     Debug for node start/success/end, Warn for node failures
//
// pkg/telemetry provides TelemetryObserver, which records traces and metrics.
//
// # Observer Composition
//
// Multiple observers can be registered:
//
//	eng := engine.New().
//	    WithObserver(consoleObserver).
//	    WithObserver(metricsObserver)
//
// Every observer receives every event. Each delivery runs in its own
// goroutine, so the order in which observers are called, and the order in
// which one observer sees consecutive events, is not guaranteed.
//
// # Event Timing
//
// Events are emitted at specific points in execution:
//
//	Workflow Lifecycle:
//	  EventWorkflowStart
//	    → Node Execution (for each node)
//	       EventNodeStart
//	         → Execute Node
//	       EventNodeSuccess, EventNodeFailure or EventNodeEnd (paused)
//	  EventWorkflowEnd
//
// # Context Propagation
//
// OnEvent receives the context the engine was running with when it emitted
// the event; it may already be cancelled by the time a goroutine delivers
// it. The engine does not store execution or workflow IDs in that context:
// read them from the event instead:
//
//	executionID := event.ExecutionID
//	workflowID := event.WorkflowID
//
// # Performance Considerations
//
//   - Observers should not block
//   - Use buffered channels for async processing
//   - Minimize allocations in hot paths
//   - Consider observer overhead for high-throughput
//
// # Error Handling
//
// Observers cannot stop execution:
//
//   - OnEvent returns nothing
//   - Observer panics are recovered by Manager.Notify and discarded, not logged
//   - Execution continues normally
//   - Other observers still receive events
//
// # Use Cases
//
//   - Logging and auditing
//   - Metrics collection and monitoring
//   - Real-time dashboards
//   - Debugging and troubleshooting
//   - Performance profiling
//   - Event streaming to external systems
//   - Workflow analytics
//   - Alerting and notifications
//
// # Testing
//
// For testing, use a mock observer; since Manager.Notify delivers
// asynchronously, guard its state and wait for the expected events:
//
//	type MockObserver struct {
//	    mu     sync.Mutex
//	    events []observer.Event
//	}
//
//	func (o *MockObserver) OnEvent(ctx context.Context, event observer.Event) {
//	    o.mu.Lock()
//	    defer o.mu.Unlock()
//	    o.events = append(o.events, event)
//	}
//
// # Best Practices
//
//   - Keep observer logic simple and fast
//   - Use async processing for expensive operations
//   - Don't modify workflow or node state
//   - Handle errors gracefully (don't panic)
//   - Use structured logging for consistency
//   - Consider observer overhead in production
//
// # Thread Safety
//
// Observer methods may be called concurrently from multiple goroutines.
// Implementations must be thread-safe using appropriate synchronization.
package observer
