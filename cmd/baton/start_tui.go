package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/batonlabs/baton/internal/orchestrator"
	"github.com/batonlabs/baton/internal/tui"
	"github.com/batonlabs/baton/pkg/models"
)

type sessionResult struct {
	state *models.SessionState
	err   error
}

// runWithTUI executes the session behind the progress view. The
// orchestrator runs in the background; the TUI consumes its events and
// exits on the terminal event or when the user quits.
func runWithTUI(ctx context.Context, orch *orchestrator.Orchestrator, task string) error {
	// Log lines corrupt the bubbletea display.
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan sessionResult, 1)
	go func() {
		state, err := orch.Run(runCtx, task)
		done <- sessionResult{state: state, err: err}
	}()

	tuiErr := tui.Run(task, orch.Events(), cancel)
	if tuiErr != nil {
		// The view is gone; stop the session and wait it out.
		cancel()
	}

	res := <-done
	orch.Close()
	log.SetOutput(originalOutput)

	if tuiErr != nil {
		return fmt.Errorf("progress view: %w", tuiErr)
	}
	return report(res.state, res.err)
}
