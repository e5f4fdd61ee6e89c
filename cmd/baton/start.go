package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/batonlabs/baton/internal/agent"
	"github.com/batonlabs/baton/internal/aicf"
	"github.com/batonlabs/baton/internal/config"
	"github.com/batonlabs/baton/internal/orchestrator"
)

var (
	startHeadless bool
	startMock     bool
	startDebug    bool
)

var startCmd = &cobra.Command{
	Use:   "start <task>",
	Short: "Run a task through the agent pipeline",
	Long: `Run one orchestration session for the given task.

The task is classified into an intent (build, debug, analyze, or
clarify) and planned into steps. Each step goes to the registered
agent whose capabilities match best, together with a compressed AICF
record of the work completed so far. A final synthesis step produces
the answer.

The session record is appended under the session directory (default
.baton/sessions) on success and on failure. A running session can be
stopped with Ctrl+C, by pressing q in the TUI, or from another
terminal with 'baton cancel'; the stop takes effect at the next step
boundary.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVar(&startHeadless, "headless", false, "Print progress lines instead of the TUI")
	startCmd.Flags().BoolVar(&startMock, "mock", false, "Use offline mock agents (no API calls)")
	startCmd.Flags().BoolVar(&startDebug, "debug", false, "Write a debug log under .baton/logs")
}

func runStart(cmd *cobra.Command, args []string) error {
	task := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	var invokers map[string]agent.Invoker
	var tracker *agent.TokenTracker
	if startMock {
		invokers = mockInvokers(reg, 0)
	} else {
		invokers, tracker, err = buildInvokers(cfg, reg)
		if err != nil {
			return err
		}
	}

	var logger *orchestrator.DebugLogger
	if startDebug {
		logger = orchestrator.NewDebugLoggerInDir(config.LogsDir())
		defer logger.Close()
	}

	signals, err := orchestrator.NewSignalWatcher(config.SignalsDir())
	if err != nil {
		return fmt.Errorf("watch cancel signals: %w", err)
	}
	defer signals.Close()
	// A signal left over from an earlier run must not stop this one.
	signals.Clear()

	orch := orchestrator.New(orchestrator.Config{
		Registry:         reg,
		Invokers:         invokers,
		Store:            aicf.NewStore(cfg.Session.Dir),
		SummaryChars:     cfg.Context.SummaryChars,
		StepTimeout:      cfg.Timeouts.Step,
		SynthesisTimeout: cfg.Timeouts.Synthesis,
		Logger:           logger,
		Signals:          signals,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupt received, stopping at the next step boundary...")
		cancel()
	}()

	if startHeadless {
		err = runHeadless(ctx, orch, task)
	} else {
		err = runWithTUI(ctx, orch, task)
	}

	if tracker != nil && tracker.Calls() > 0 {
		in, out := tracker.Total()
		fmt.Printf("\nAPI usage: %d call(s), %d input + %d output tokens, $%.4f estimated\n",
			tracker.Calls(), in, out, tracker.Cost())
	}
	return err
}
