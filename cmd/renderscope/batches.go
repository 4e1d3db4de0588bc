package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdBatches)
}

var cmdBatches = &cobra.Command{
	Use:   "batches",
	Short: "List recorded render batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		batches, err := controller().Batches(cmd.Context(), timeout())
		if err != nil {
			return err
		}

		if len(batches) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No batches recorded")
			return nil
		}
		for _, b := range batches {
			state := "closed"
			if b.Open {
				state = "open"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "batch %d [%s] %.2fms..%.2fms trigger=%s members=%v\n",
				b.ID, state, b.StartMs, b.EndMs, b.Trigger, b.Members)
		}
		return nil
	},
}
