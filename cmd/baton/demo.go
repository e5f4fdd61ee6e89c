package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/batonlabs/baton/internal/aicf"
	"github.com/batonlabs/baton/internal/config"
	"github.com/batonlabs/baton/internal/orchestrator"
	"github.com/batonlabs/baton/pkg/models"
)

var demoDelay time.Duration

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted session with offline mock agents",
	Long: `Run a fixed three-step plan with deterministic mock agents.

No API key is needed. The demo exercises the whole pipeline:
capability-based agent selection, compressed AICF context hand-off
between steps, synthesis, and the session record appended under the
session directory.`,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().DurationVar(&demoDelay, "delay", 400*time.Millisecond, "Simulated agent latency per call")
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	reg := orchestrator.DefaultRegistry()
	orch := orchestrator.New(orchestrator.Config{
		Registry:     reg,
		Invokers:     mockInvokers(reg, demoDelay),
		Store:        aicf.NewStore(cfg.Session.Dir),
		SummaryChars: cfg.Context.SummaryChars,
	})

	printerDone := make(chan struct{})
	go func() {
		defer close(printerDone)
		for ev := range orch.Events() {
			fmt.Println(formatEvent(ev))
		}
	}()

	task := "build a rate limiter for the ingest API"
	fmt.Printf("Demo task: %s\n\n", task)

	state, err := orch.RunPlan(context.Background(), task, demoPlan(task))
	orch.Close()
	<-printerDone

	return report(state, err)
}

// demoPlan is the fixed build plan the demo runs. It routes one step
// to each of the architect, builder, and reviewer default agents.
func demoPlan(task string) *models.ExecutionPlan {
	return &models.ExecutionPlan{
		Intent:         models.IntentBuild,
		MatchedKeyword: "build",
		Steps: []models.Step{
			{
				Index:       0,
				Name:        "architecture",
				Description: "Design the architecture and plan the work for: " + task,
				Required:    []models.Capability{models.CapabilityArchitecture, models.CapabilityPlanning},
			},
			{
				Index:       1,
				Name:        "implementation",
				Description: "Implement the solution for: " + task,
				Required:    []models.Capability{models.CapabilityCoding, models.CapabilityImplementation},
			},
			{
				Index:       2,
				Name:        "review",
				Description: "Review the implementation of: " + task,
				Required:    []models.Capability{models.CapabilityReasoning, models.CapabilityAnalysis},
			},
		},
	}
}
