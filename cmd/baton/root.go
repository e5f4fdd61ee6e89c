package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "baton",
	Short: "Multi-agent session orchestrator with AI-native session records",
	Long: `Baton routes one task through a pipeline of specialist agents and
records the whole session as an AICF file other tools (and later
sessions) can read without replaying transcripts.

A session classifies the task into an intent, plans it into steps,
hands each step to the registered agent whose capabilities match best,
and carries a compressed record of the work so far into every call.
A final synthesis step produces the answer, and the session record is
appended under .baton/sessions whether the run succeeded or failed.

Core pipeline:
- Classifies the task: build, debug, analyze, or clarify
- Selects agents by capability overlap, preferring continuity
- Compresses completed steps into AICF context for the next call
- Synthesizes step results into a single final answer
- Appends the session record, including partial failures, to disk`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
