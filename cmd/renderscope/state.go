package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdState)
}

var cmdState = &cobra.Command{
	Use:   "state",
	Short: "Show the agent's recording state",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := controller().State(cmd.Context(), timeout())
		if err != nil {
			return err
		}

		status := "stopped"
		if state.Recording {
			status = "recording"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s events=%d batches=%d cap=%d\n",
			status, state.EventCount, state.BatchCount, state.Cap)
		if state.StartedAt != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "started at %s (%.1fms elapsed)\n", *state.StartedAt, state.ElapsedMs)
		}
		return nil
	},
}
