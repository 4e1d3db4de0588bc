package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"renderscope/internal/app"
	"renderscope/internal/tui"
)

func init() {
	rootCmd.AddCommand(cmdTUI)
}

var cmdTUI = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := app.New(app.Options{ConfigPath: configPath, Addr: agentAddr})
		if err := tui.Run(ctrl); err != nil {
			return fmt.Errorf("tui exited with error: %w", err)
		}
		return nil
	},
}
