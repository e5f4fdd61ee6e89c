// Package aicf implements the AI Context Format: a pipe-delimited,
// escape-safe text format for passing compressed conversation memory
// between agents and persisting it to flat session files.
package aicf

// RecordVersion is the format version written by this encoder.
const RecordVersion = "1.0"

// Dominant roles allowed in a flow summary.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleBalanced  = "balanced"
)

// Record is the compressed, textual projection of a conversation or an
// orchestration session. A record is immutable once encoded; decoding
// always produces a fresh value.
type Record struct {
	// Version is the format version, e.g. "1.0".
	Version string
	// Timestamp is when the record was produced, RFC3339 UTC.
	Timestamp string
	// ConversationID identifies the conversation or session.
	ConversationID string
	// UserIntents summarizes what the user asked for.
	UserIntents []IntentEntry
	// AIActions summarizes what each agent did, one entry per turn.
	AIActions []ActionEntry
	// TechnicalWork lists the concrete work items touched.
	TechnicalWork []WorkEntry
	// Decisions lists choices made during the conversation.
	Decisions []DecisionEntry
	// Flow summarizes the conversational shape.
	Flow FlowSummary
	// WorkingState captures where the work stands right now.
	WorkingState WorkingState
}

// IntentEntry is one user intent with its classified category.
type IntentEntry struct {
	// Text is the intent as stated by the user.
	Text string
	// Category is the classification label (build, debug, ...).
	Category string
}

// ActionEntry is one agent turn: who acted, a truncated summary of the
// output, and the tokens spent producing it.
type ActionEntry struct {
	// AgentID identifies the acting agent.
	AgentID string
	// Summary is a truncated description of the output.
	Summary string
	// Tokens is the token count the agent reported.
	Tokens int
}

// WorkEntry is one item of technical work.
type WorkEntry struct {
	// Action names the work performed or planned.
	Action string
	// Detail carries supporting information for the action.
	Detail string
}

// DecisionEntry is one decision with its rationale.
type DecisionEntry struct {
	// Decision is the choice that was made.
	Decision string
	// Rationale explains what drove the choice.
	Rationale string
}

// FlowSummary describes the conversational shape of the session.
type FlowSummary struct {
	// TurnCount is the number of turns so far.
	TurnCount int
	// DominantRole is who drove the conversation: user, assistant or balanced.
	DominantRole string
	// Sequence labels the turns in order.
	Sequence []string
}

// WorkingState captures the live position of the work.
type WorkingState struct {
	// CurrentTask is what is being worked on right now.
	CurrentTask string
	// Blockers lists anything preventing progress.
	Blockers []string
	// NextAction is the expected next move.
	NextAction string
}
