package orchestrator

import (
	"log"
	"sync/atomic"
	"time"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventPlanReady indicates the task was analyzed into a plan.
	EventPlanReady EventType = "plan_ready"
	// EventStepStarted indicates a step was routed to an agent.
	EventStepStarted EventType = "step_started"
	// EventStepCompleted indicates a step finished successfully.
	EventStepCompleted EventType = "step_completed"
	// EventStepFailed indicates a step failed, ending the session.
	EventStepFailed EventType = "step_failed"
	// EventSynthesisStarted indicates the final synthesis call began.
	EventSynthesisStarted EventType = "synthesis_started"
	// EventCancelRequested indicates a cancel signal was observed.
	EventCancelRequested EventType = "cancel_requested"
	// EventSessionCompleted indicates the session reached Complete.
	EventSessionCompleted EventType = "session_completed"
	// EventSessionFailed indicates the session reached Failed.
	EventSessionFailed EventType = "session_failed"
)

// Event is emitted by the orchestrator as a session progresses. The
// progress printer and the TUI consume these to render state.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// SessionID identifies the session the event belongs to.
	SessionID string
	// StepIndex is the index of the related step, if applicable.
	StepIndex int
	// StepName is the name of the related step, if applicable.
	StepName string
	// AgentID is the agent handling the related step, if applicable.
	AgentID string
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Tokens is the token count of the related step result.
	Tokens int
	// RecordPath is the session record file, set on terminal events.
	RecordPath string
}

// EventEmitter provides a simple, thread-safe way to emit events to a
// single subscriber.
type EventEmitter struct {
	events       chan Event
	droppedCount atomic.Uint64
}

// NewEventEmitter creates a new EventEmitter with the given buffer size.
func NewEventEmitter(bufferSize int) *EventEmitter {
	return &EventEmitter{
		events: make(chan Event, bufferSize),
	}
}

// Emit sends an event to the events channel.
// If the channel is full, it tries with a timeout before dropping the event.
func (e *EventEmitter) Emit(event Event) {
	event.Timestamp = time.Now()

	// Try immediate send first
	select {
	case e.events <- event:
		return
	default:
		// Channel full, try with timeout
	}

	// Give the receiver 100ms to drain before dropping.
	select {
	case e.events <- event:
		return
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 { // Log every 10th drop to avoid spam
			log.Printf("[orchestrator] WARNING: event channel full, dropped event (total dropped: %d): type=%s", count, event.Type)
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the events channel. Call once the session is terminal
// and no further emits can happen.
func (e *EventEmitter) Close() {
	close(e.events)
}
