package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"renderscope/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdRecord)
	cmdRecord.AddCommand(cmdRecordStart, cmdRecordStop, cmdRecordClear)
}

var cmdRecord = &cobra.Command{
	Use:   "record",
	Short: "Control the agent's recorder",
}

var cmdRecordStart = &cobra.Command{
	Use:   "start",
	Short: "Start a fresh recording",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := controller().StartRecording(cmd.Context(), timeout())
		if err != nil {
			return err
		}
		printRecordingState(cmd, state)
		return nil
	},
}

var cmdRecordStop = &cobra.Command{
	Use:   "stop",
	Short: "Stop recording, keeping the buffer for inspection",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := controller().StopRecording(cmd.Context(), timeout())
		if err != nil {
			return err
		}
		printRecordingState(cmd, state)
		return nil
	},
}

var cmdRecordClear = &cobra.Command{
	Use:   "clear",
	Short: "Drop all recorded events and batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := controller().ClearEvents(cmd.Context(), timeout())
		if err != nil {
			return err
		}
		printRecordingState(cmd, state)
		return nil
	},
}

func printRecordingState(cmd *cobra.Command, state app.RecordingState) {
	status := "stopped"
	if state.Recording {
		status = "recording"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s events=%d batches=%d cap=%d\n",
		status, state.EventCount, state.BatchCount, state.Cap)
}
