package main

import (
	"fmt"
	"os"
	"time"

	"github.com/batonlabs/baton/internal/agent"
	"github.com/batonlabs/baton/internal/config"
	"github.com/batonlabs/baton/internal/orchestrator"
)

// buildInvokers creates one Anthropic invoker per registered agent.
// All invokers share a token tracker so the session total lands in one
// place.
func buildInvokers(cfg *config.Config, reg *orchestrator.AgentRegistry) (map[string]agent.Invoker, *agent.TokenTracker, error) {
	apiKey := ""
	if config.RequiresAPIKey(cfg) {
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("%w (export ANTHROPIC_API_KEY or run 'baton config anthropic.api_key <key>')", err)
		}
		apiKey = key
	}

	tracker := agent.NewTokenTracker(cfg.Anthropic.Model)
	invokers := make(map[string]agent.Invoker, reg.Count())
	for _, profile := range reg.All() {
		inv, err := agent.NewAnthropicInvoker(agent.ClientConfig{
			Profile:    profile,
			Model:      cfg.Anthropic.Model,
			APIKey:     apiKey,
			UseBedrock: cfg.Anthropic.UseBedrock,
			AWSRegion:  cfg.Anthropic.AWSRegion,
			AWSProfile: cfg.Anthropic.AWSProfile,
			Tracker:    tracker,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create invoker for agent %q: %w", profile.ID, err)
		}
		invokers[profile.ID] = inv
	}
	return invokers, tracker, nil
}

// mockInvokers creates deterministic offline invokers for every
// registered agent. Used by the demo command and --mock runs.
func mockInvokers(reg *orchestrator.AgentRegistry, delay time.Duration) map[string]agent.Invoker {
	invokers := make(map[string]agent.Invoker, reg.Count())
	for _, profile := range reg.All() {
		invokers[profile.ID] = &agent.MockInvoker{AgentID: profile.ID, Delay: delay}
	}
	return invokers
}

// loadRegistry loads the project agent roster when one exists,
// otherwise the built-in profiles.
func loadRegistry() (*orchestrator.AgentRegistry, error) {
	path := config.AgentsPath()
	if _, err := os.Stat(path); err == nil {
		return orchestrator.LoadProfiles(path)
	}
	return orchestrator.DefaultRegistry(), nil
}
