package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdLimit)
}

var cmdLimit = &cobra.Command{
	Use:   "limit <max-events>",
	Short: "Set the recorder's event cap",
	Long:  `Sets the maximum number of retained events. The agent clamps the value to its supported range and the applied cap is printed.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid event limit: %s", args[0])
		}
		applied, err := controller().SetLimit(cmd.Context(), n, timeout())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "event cap set to %d\n", applied)
		return nil
	},
}
