package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdSessions)
}

var cmdSessions = &cobra.Command{
	Use:   "sessions",
	Short: "List the agent's registered sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := controller().Sessions(cmd.Context(), timeout())
		if err != nil {
			return err
		}

		if len(sessions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions registered")
			return nil
		}
		for _, s := range sessions {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}
