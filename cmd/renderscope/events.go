package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"renderscope/internal/app"
)

var (
	eventsSince     int64
	eventsComponent int64
	eventsFromMs    float64
	eventsToMs      float64
)

func init() {
	rootCmd.AddCommand(cmdEvents)

	cmdEvents.Flags().Int64Var(&eventsSince, "since", -1, "Only events after this sequence id")
	cmdEvents.Flags().Int64Var(&eventsComponent, "component", -1, "Only events for this component id")
	cmdEvents.Flags().Float64Var(&eventsFromMs, "from-ms", -1, "Range start in ms since recording origin")
	cmdEvents.Flags().Float64Var(&eventsToMs, "to-ms", -1, "Range end in ms since recording origin")
}

var cmdEvents = &cobra.Command{
	Use:   "events",
	Short: "Print the recorded event timeline",
	Long:  `Fetches timeline events from the agent. The since, component and time range filters are mutually exclusive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		params := app.EventsParams{Timeout: timeout()}
		if cmd.Flags().Changed("since") {
			params.Since = &eventsSince
		}
		if cmd.Flags().Changed("component") {
			params.Component = &eventsComponent
		}
		if cmd.Flags().Changed("from-ms") {
			params.FromMs = &eventsFromMs
		}
		if cmd.Flags().Changed("to-ms") {
			params.ToMs = &eventsToMs
		}

		events, err := controller().Events(cmd.Context(), params)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No events recorded")
			return nil
		}
		for _, ev := range events {
			fmt.Fprintln(cmd.OutOrStdout(), formatEvent(ev))
		}
		return nil
	},
}

func formatEvent(ev app.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %8.2fms %-22s", ev.Seq, ev.AtMs, ev.Kind)
	if ev.ComponentID >= 0 {
		fmt.Fprintf(&b, " [%d]%s", ev.ComponentID, ev.TypeName)
	}
	if ev.DurationMs != nil {
		fmt.Fprintf(&b, " %.2fms", *ev.DurationMs)
	}
	if ev.Detail != "" {
		fmt.Fprintf(&b, " %s", ev.Detail)
	}
	if ev.Trigger != "" && ev.Trigger != "unknown" {
		fmt.Fprintf(&b, " trigger=%s", ev.Trigger)
		if ev.TriggerSeq != nil {
			fmt.Fprintf(&b, "(#%d)", *ev.TriggerSeq)
		}
	}
	var flags []string
	if ev.FirstRender {
		flags = append(flags, "first")
	}
	if ev.Async {
		flags = append(flags, "async")
	}
	if ev.Suppressed {
		flags = append(flags, "suppressed")
	}
	if len(flags) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(flags, ","))
	}
	return b.String()
}
