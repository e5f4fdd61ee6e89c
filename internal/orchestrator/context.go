package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/batonlabs/baton/internal/aicf"
	"github.com/batonlabs/baton/pkg/models"
)

// defaultSummaryChars caps action summaries when the caller passes no
// explicit limit. Mirrors the context.summary_chars config default.
const defaultSummaryChars = 100

// synthesisDescription returns the prompt-ready instruction for the
// final synthesis call.
func synthesisDescription(task string) string {
	return fmt.Sprintf("Synthesize the step results into a final answer for: %s", task)
}

// ProjectRecord projects a session onto a memory record. The same
// projection serves two purposes: compressed context handed to agents
// mid-run, and the persisted record appended to the session file. The
// record shape depends only on the session state, so replaying a
// session file reconstructs what every agent saw.
func ProjectRecord(state *models.SessionState, summaryChars int) *aicf.Record {
	if summaryChars <= 0 {
		summaryChars = defaultSummaryChars
	}

	rec := &aicf.Record{
		Version:        aicf.RecordVersion,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		ConversationID: state.SessionID,
	}

	task := state.Task.Description
	var steps []models.Step
	intent := ""
	if state.Plan != nil {
		steps = state.Plan.Steps
		intent = string(state.Plan.Intent)
	}

	rec.UserIntents = []aicf.IntentEntry{{
		Text:     aicf.SanitizeLeaf(task),
		Category: intent,
	}}

	for _, r := range state.Results {
		rec.AIActions = append(rec.AIActions, aicf.ActionEntry{
			AgentID: r.AgentID,
			Summary: aicf.SanitizeLeaf(summarize(r.OutputText, summaryChars)),
			Tokens:  r.TokenCount,
		})
	}
	if state.Synthesis != nil {
		rec.AIActions = append(rec.AIActions, aicf.ActionEntry{
			AgentID: state.Synthesis.AgentID,
			Summary: aicf.SanitizeLeaf(summarize(state.Synthesis.OutputText, summaryChars)),
			Tokens:  state.Synthesis.TokenCount,
		})
	}

	for _, s := range steps {
		rec.TechnicalWork = append(rec.TechnicalWork, aicf.WorkEntry{
			Action: aicf.SanitizeLeaf(s.Name),
			Detail: aicf.SanitizeLeaf(capabilityCSV(s.Required)),
		})
	}

	if state.Plan != nil {
		rec.Decisions = []aicf.DecisionEntry{{
			Decision:  "plan:" + intent,
			Rationale: planRationale(state.Plan),
		}}
	}

	rec.Flow = projectFlow(state, steps)
	rec.WorkingState = projectWorkingState(state, task, steps)

	return rec
}

// planRationale explains how the analyzer arrived at the plan's intent.
func planRationale(plan *models.ExecutionPlan) string {
	switch {
	case plan.Intent == models.IntentClarify:
		return "empty input"
	case plan.MatchedKeyword != "":
		return fmt.Sprintf("matched keyword %q", plan.MatchedKeyword)
	default:
		return "default"
	}
}

func projectFlow(state *models.SessionState, steps []models.Step) aicf.FlowSummary {
	turns := len(state.Results)
	if state.Synthesis != nil {
		turns++
	}

	role := aicf.RoleUser
	switch {
	case turns == 1:
		role = aicf.RoleBalanced
	case turns > 1:
		role = aicf.RoleAssistant
	}

	sequence := []string{"task"}
	for i := range state.Results {
		if i < len(steps) {
			sequence = append(sequence, aicf.SanitizeLabel(steps[i].Name))
		}
	}
	if state.Synthesis != nil {
		sequence = append(sequence, "synthesis")
	}

	return aicf.FlowSummary{
		TurnCount:    1 + turns,
		DominantRole: role,
		Sequence:     sequence,
	}
}

func projectWorkingState(state *models.SessionState, task string, steps []models.Step) aicf.WorkingState {
	switch state.Status {
	case models.StatusComplete:
		return aicf.WorkingState{
			CurrentTask: aicf.SanitizeLeaf(task),
			NextAction:  "none",
		}

	case models.StatusFailed:
		current := aicf.SanitizeLeaf(synthesisDescription(task))
		retry := "retry:synthesis"
		if state.FailedStep < len(steps) {
			current = aicf.SanitizeLeaf(steps[state.FailedStep].Description)
			retry = "retry:" + aicf.SanitizeLeaf(steps[state.FailedStep].Name)
		}
		var blockers []string
		if cause := aicf.SanitizeLabel(state.FailureCause); strings.TrimSpace(cause) != "" {
			blockers = []string{cause}
		}
		return aicf.WorkingState{
			CurrentTask: current,
			Blockers:    blockers,
			NextAction:  retry,
		}

	default:
		// Mid-run: the current step is the one about to execute.
		i := len(state.Results)
		if i < len(steps) {
			next := "synthesize"
			if i+1 < len(steps) {
				next = aicf.SanitizeLeaf(steps[i+1].Name)
			}
			return aicf.WorkingState{
				CurrentTask: aicf.SanitizeLeaf(steps[i].Description),
				NextAction:  next,
			}
		}
		// All steps done, synthesis pending.
		return aicf.WorkingState{
			CurrentTask: aicf.SanitizeLeaf(task),
			NextAction:  "synthesize",
		}
	}
}

// summarize truncates text to at most n runes.
func summarize(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

// capabilityCSV renders a capability list for a technicalWork detail.
func capabilityCSV(caps []models.Capability) string {
	parts := make([]string, len(caps))
	for i, c := range caps {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
