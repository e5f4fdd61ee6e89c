package agent

import "fmt"

// ErrorKind classifies invocation failures so the orchestrator can
// record a stable cause without inspecting provider error types.
type ErrorKind string

const (
	// ErrTimeout means the call exceeded its deadline.
	ErrTimeout ErrorKind = "timeout"
	// ErrRateLimit means the provider rejected the call for quota reasons.
	ErrRateLimit ErrorKind = "rate_limit"
	// ErrMalformedResponse means the provider answered with content the
	// invoker could not use.
	ErrMalformedResponse ErrorKind = "malformed_response"
	// ErrProvider covers other provider-reported failures.
	ErrProvider ErrorKind = "provider"
	// ErrUnavailable means the provider could not be reached or returned
	// a server error.
	ErrUnavailable ErrorKind = "unavailable"
)

// Error is the typed failure returned by invokers.
type Error struct {
	Kind    ErrorKind
	AgentID string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("agent %s: %s", e.AgentID, e.Kind)
	}
	return fmt.Sprintf("agent %s: %s: %v", e.AgentID, e.Kind, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds a typed invocation error.
func NewError(kind ErrorKind, agentID string, cause error) *Error {
	return &Error{Kind: kind, AgentID: agentID, Cause: cause}
}
