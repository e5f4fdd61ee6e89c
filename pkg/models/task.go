package models

import (
	"fmt"
	"time"
)

// Status represents the lifecycle state of an orchestration session.
type Status string

const (
	// StatusPlanning indicates the task is being analyzed into a plan.
	StatusPlanning Status = "planning"
	// StatusExecuting indicates plan steps are running.
	StatusExecuting Status = "executing"
	// StatusFinalizing indicates the synthesis call is in flight.
	StatusFinalizing Status = "finalizing"
	// StatusComplete indicates the session finished successfully.
	StatusComplete Status = "complete"
	// StatusFailed indicates a step or the synthesis call failed.
	StatusFailed Status = "failed"
)

// Valid returns true if the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanning, StatusExecuting, StatusFinalizing, StatusComplete, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the session can no longer change state.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Task is the immutable user request that seeds a session.
type Task struct {
	// Description is the raw task text as entered by the user.
	Description string `json:"description"`
}

// Step is one unit of work within an execution plan.
type Step struct {
	// Index is the zero-based position of the step in the plan.
	Index int `json:"index"`
	// Name is the template label for the step (architecture, fix, review, ...).
	Name string `json:"name"`
	// Description is the prompt-ready instruction for the step.
	Description string `json:"description"`
	// Required lists the capabilities an agent needs to take this step.
	Required []Capability `json:"required"`
}

// ExecutionPlan is an ordered sequence of steps derived from a task.
type ExecutionPlan struct {
	// Intent is the category the task was classified into.
	Intent Intent `json:"intent"`
	// MatchedKeyword is the keyword that decided the intent, if any.
	MatchedKeyword string `json:"matched_keyword,omitempty"`
	// Steps are executed strictly in order.
	Steps []Step `json:"steps"`
}

// Validate checks the plan invariants: at least one step, and step
// indices contiguous starting at zero.
func (p *ExecutionPlan) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("plan has no steps")
	}
	for i, s := range p.Steps {
		if s.Index != i {
			return fmt.Errorf("step %d has index %d, want %d", i, s.Index, i)
		}
	}
	return nil
}

// StepResult captures the outcome of one executed step.
// A result is created once and never mutated.
type StepResult struct {
	// StepIndex is the index of the plan step this result belongs to.
	StepIndex int `json:"step_index"`
	// AgentID identifies the agent that produced the output.
	AgentID string `json:"agent_id"`
	// OutputText is the agent's full response.
	OutputText string `json:"output_text"`
	// TokenCount is the number of tokens the agent reported using.
	TokenCount int `json:"token_count"`
	// Timestamp is when the result was recorded, RFC3339.
	Timestamp string `json:"timestamp"`
}

// SessionState holds everything one orchestration run accumulates.
// It is owned exclusively by the loop that created it and grows
// append-only as steps complete.
type SessionState struct {
	// SessionID uniquely identifies this run. Assigned at planning
	// entry and immutable thereafter.
	SessionID string `json:"session_id"`
	// Task is the originating request.
	Task Task `json:"task"`
	// Plan is the analyzed execution plan.
	Plan *ExecutionPlan `json:"plan,omitempty"`
	// Results holds one entry per completed step, in order.
	Results []StepResult `json:"results"`
	// Synthesis is the combined final result produced while finalizing.
	// Its StepIndex is len(Plan.Steps).
	Synthesis *StepResult `json:"synthesis,omitempty"`
	// Status is the current lifecycle state.
	Status Status `json:"status"`
	// FailedStep is the step index the run failed at, when Status is failed.
	FailedStep int `json:"failed_step,omitempty"`
	// FailureCause describes why the run failed, when Status is failed.
	FailureCause string `json:"failure_cause,omitempty"`
	// CreatedAt is when the session started.
	CreatedAt time.Time `json:"created_at"`
}

// LastAgentID returns the agent that produced the most recent result,
// or the empty string when no step has completed.
func (s *SessionState) LastAgentID() string {
	if len(s.Results) == 0 {
		return ""
	}
	return s.Results[len(s.Results)-1].AgentID
}
