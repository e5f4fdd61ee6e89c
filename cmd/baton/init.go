package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/batonlabs/baton/internal/config"
	"github.com/batonlabs/baton/internal/orchestrator"
	"github.com/batonlabs/baton/pkg/models"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a project for Baton",
	Long: `Set up a directory for Baton sessions.

Creates the .baton workspace (sessions, signals, logs), a starter
agent roster at .baton/agents.yaml you can edit to change the team,
and a .baton.yaml project config template when one does not exist.

The directory argument is optional and defaults to the current
directory.

Examples:
  baton init              # Initialize current directory
  baton init ./myproject  # Initialize specific directory
  baton init --force      # Reinitialize even if already set up`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if already set up")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing Baton in %s...\n\n", absPath)

	batonDir := filepath.Join(absPath, config.DefaultWorkspaceDir)
	if _, err := os.Stat(batonDir); err == nil && !initForce {
		fmt.Println("Directory already initialized. Use --force to reinitialize.")
		return nil
	}

	for _, dir := range []string{
		filepath.Join(batonDir, "sessions"),
		filepath.Join(batonDir, "signals"),
		filepath.Join(batonDir, "logs"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	printStatus("✓", "Created .baton directory structure", color.FgGreen)

	rosterPath := filepath.Join(batonDir, "agents.yaml")
	if err := writeStarterRoster(rosterPath); err != nil {
		return fmt.Errorf("writing agent roster: %w", err)
	}
	printStatus("✓", "Wrote starter agent roster to .baton/agents.yaml", color.FgGreen)

	configPath := filepath.Join(absPath, ".baton.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeProjectConfig(configPath); err != nil {
			return fmt.Errorf("creating project config: %w", err)
		}
		printStatus("✓", "Created .baton.yaml template", color.FgGreen)
	} else {
		printStatus("✓", ".baton.yaml already exists, left untouched", color.FgGreen)
	}

	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		printStatus("⚠", "ANTHROPIC_API_KEY not set (you can set it later)", color.FgYellow)
	} else {
		printStatus("✓", "ANTHROPIC_API_KEY is set", color.FgGreen)
	}

	fmt.Printf("\n%s Baton initialization complete!\n\n", color.GreenString("✓"))
	fmt.Println("Next steps:")
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		fmt.Println("  1. Set your API key:")
		fmt.Println("     export ANTHROPIC_API_KEY=your-key-here")
		fmt.Println()
	}
	fmt.Println("  2. Try the offline demo:")
	fmt.Println("     baton demo")
	fmt.Println()
	fmt.Println("  3. Run a real session:")
	fmt.Println("     baton start \"your task here\"")
	fmt.Println()
	fmt.Println("  4. Learn more:")
	fmt.Println("     baton --help")

	return nil
}

// writeStarterRoster marshals the built-in profiles so the roster file
// is ready to edit.
func writeStarterRoster(path string) error {
	roster := struct {
		Agents []models.AgentProfile `yaml:"agents"`
	}{Agents: orchestrator.DefaultProfiles()}

	data, err := yaml.Marshal(roster)
	if err != nil {
		return err
	}

	header := "# Baton agent roster. Every agent needs a unique id and at least one\n" +
		"# capability; steps go to the agent with the best capability overlap.\n"
	return os.WriteFile(path, []byte(header+string(data)), 0644)
}

// writeProjectConfig writes a commented .baton.yaml template.
func writeProjectConfig(path string) error {
	template := `# Baton project configuration. Values here override the user config
# at ~/.config/baton/config.yaml.
#
# anthropic:
#   model: ` + config.DefaultModel + `
#   use_bedrock: false
#   aws_region: us-west-2
#
# session:
#   dir: .baton/sessions
#
# context:
#   summary_chars: 100
#
# timeouts:
#   step: 2m
#   synthesis: 2m
`
	return os.WriteFile(path, []byte(template), 0644)
}

// printStatus prints a colored status symbol followed by a message.
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
