package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/batonlabs/baton/internal/aicf"
	"github.com/batonlabs/baton/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, agents, and recent session records",
	Long: `Display the effective Baton setup for this project.

Shows:
  - Config file locations and the effective model/provider
  - Where the API key comes from (masked)
  - The agent roster with declared capabilities
  - Recent session record files and their record counts`,
	RunE: runStatus,
}

// recentSessionFiles caps how many record files status lists.
const recentSessionFiles = 5

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Configuration:")
	fmt.Printf("  User config: %s%s\n", config.GetUserConfigPath(), existsMarker(config.GetUserConfigPath()))
	if p := config.GetProjectConfigPath(); p != "" {
		fmt.Printf("  Project config: %s\n", p)
	}
	fmt.Printf("  Model: %s\n", cfg.Anthropic.Model)
	if cfg.Anthropic.UseBedrock {
		region := cfg.Anthropic.AWSRegion
		if region == "" {
			region = "(default)"
		}
		fmt.Printf("  Provider: AWS Bedrock, region %s\n", region)
	} else {
		fmt.Println("  Provider: Anthropic API")
	}
	printKeyStatus(cfg)

	fmt.Println()
	fmt.Println("Agents:")
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	for _, p := range reg.All() {
		fmt.Printf("  %-12s %s\n", p.ID, p.CapabilityList())
	}

	fmt.Println()
	return printRecentSessions(aicf.NewStore(cfg.Session.Dir))
}

// printKeyStatus reports where credentials come from, with the key masked.
func printKeyStatus(cfg *config.Config) {
	switch source := config.GetAPIKeySource(cfg); source {
	case config.KeySourceBedrock:
		fmt.Printf("  Credentials: %s\n", color.GreenString("AWS credential chain"))
	case config.KeySourceNone:
		fmt.Printf("  API key: %s\n", color.YellowString("not set (export ANTHROPIC_API_KEY or run 'baton config anthropic.api_key <key>')"))
	default:
		key, _ := config.GetAPIKey(cfg)
		fmt.Printf("  API key: %s (from %s)\n", config.MaskAPIKey(key), source)
	}
}

// printRecentSessions lists the newest record files with their counts.
func printRecentSessions(store *aicf.Store) error {
	files, err := store.ListFiles()
	if err != nil {
		return fmt.Errorf("list session records: %w", err)
	}
	if len(files) == 0 {
		fmt.Printf("Sessions: none recorded under %s\n", store.Dir())
		return nil
	}

	fmt.Printf("Sessions (%s):\n", store.Dir())
	if len(files) > recentSessionFiles {
		files = files[:recentSessionFiles]
	}
	for _, name := range files {
		records, err := store.ReadFile(filepath.Join(store.Dir(), name))
		if err != nil {
			fmt.Printf("  %s %s (unreadable: %v)\n", color.RedString("✗"), name, err)
			continue
		}
		fmt.Printf("  %s %s: %d record(s)\n", color.GreenString("✓"), name, len(records))
	}
	return nil
}

// existsMarker annotates a path that has not been created yet.
func existsMarker(path string) string {
	if _, err := os.Stat(path); err != nil {
		return " (not created)"
	}
	return ""
}
