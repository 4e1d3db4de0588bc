package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdAgent)
}

var cmdAgent = &cobra.Command{
	Use:   "agent",
	Short: "Start the agent in the foreground",
	Long:  `The agent hosts the demo component runtime, records its telemetry and serves the inspector API. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := controller()
		if status, err := ctrl.Status(); err == nil && status.Running {
			fmt.Fprintf(os.Stdout, "Agent is already running at %s.\n", status.Addr)
			return nil
		}

		handle, err := ctrl.StartAgent()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Agent started at %s\n", handle.Addr())
		runSpin := spinner.New(spinner.CharSets[21], 120*time.Millisecond, spinner.WithWriter(os.Stdout))
		runSpin.Suffix = " Running..."
		runSpin.Start()

		sigc := make(chan os.Signal, 2)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		<-sigc
		runSpin.Stop()
		return handle.Close()
	},
}
