package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/batonlabs/baton/internal/config"
	"github.com/batonlabs/baton/internal/orchestrator"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Signal the running session to stop",
	Long: `Write a cancel signal for the session running in this project.

The orchestrator checks for the signal between steps and fails the
session with a canceled cause, persisting the work completed so far.
In-flight agent calls are not interrupted; the stop happens at the
next step boundary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := orchestrator.SendCancel(config.SignalsDir()); err != nil {
			return fmt.Errorf("write cancel signal: %w", err)
		}
		fmt.Printf("Cancel signal written under %s\n", config.SignalsDir())
		return nil
	},
}
