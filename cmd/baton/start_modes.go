package main

import (
	"context"
	"fmt"

	"github.com/batonlabs/baton/internal/orchestrator"
	"github.com/batonlabs/baton/pkg/models"
)

// runHeadless executes the session printing plain progress lines.
func runHeadless(ctx context.Context, orch *orchestrator.Orchestrator, task string) error {
	printerDone := make(chan struct{})
	go func() {
		defer close(printerDone)
		for ev := range orch.Events() {
			fmt.Println(formatEvent(ev))
		}
	}()

	fmt.Printf("Starting task: %s\n\n", task)

	state, err := orch.Run(ctx, task)
	orch.Close()
	<-printerDone

	return report(state, err)
}

// report prints the synthesized answer and converts a failed session
// into a command error.
func report(state *models.SessionState, err error) error {
	if err != nil {
		if state == nil {
			return err
		}
		return fmt.Errorf("session %s: %w", state.SessionID, err)
	}
	if state.Synthesis != nil {
		fmt.Println()
		fmt.Println(state.Synthesis.OutputText)
	}
	return nil
}

// formatEvent renders one orchestrator event as a progress line.
func formatEvent(ev orchestrator.Event) string {
	switch ev.Type {
	case orchestrator.EventPlanReady:
		return fmt.Sprintf("[PLAN] %s (session %s)", ev.Message, ev.SessionID)
	case orchestrator.EventStepStarted:
		return fmt.Sprintf("[STEP] %s (agent: %s)", ev.StepName, ev.AgentID)
	case orchestrator.EventStepCompleted:
		return fmt.Sprintf("[DONE] %s: %d tokens", ev.StepName, ev.Tokens)
	case orchestrator.EventStepFailed:
		return fmt.Sprintf("[FAILED] %s: %v", ev.StepName, ev.Error)
	case orchestrator.EventSynthesisStarted:
		return fmt.Sprintf("[SYNTH] synthesizing final answer (agent: %s)", ev.AgentID)
	case orchestrator.EventCancelRequested:
		return fmt.Sprintf("[CANCEL] %s", ev.Message)
	case orchestrator.EventSessionCompleted:
		line := fmt.Sprintf("[SESSION] complete: %s", ev.Message)
		if ev.RecordPath != "" {
			line += " -> " + ev.RecordPath
		}
		return line
	case orchestrator.EventSessionFailed:
		line := fmt.Sprintf("[SESSION] failed: %v", ev.Error)
		if ev.RecordPath != "" {
			line += " -> " + ev.RecordPath
		}
		return line
	default:
		return fmt.Sprintf("[%s] %s", ev.Type, ev.Message)
	}
}
