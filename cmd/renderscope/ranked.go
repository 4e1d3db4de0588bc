package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdRanked)
}

var cmdRanked = &cobra.Command{
	Use:   "ranked",
	Short: "Rank components by total render time",
	RunE: func(cmd *cobra.Command, args []string) error {
		ranked, err := controller().Ranked(cmd.Context(), timeout())
		if err != nil {
			return err
		}

		if len(ranked) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No render events recorded")
			return nil
		}
		for i, r := range ranked {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d. [%d] %-20s renders=%d total=%.2fms\n",
				i+1, r.ComponentID, r.TypeName, r.Renders, r.TotalRenderMs)
		}
		return nil
	},
}
