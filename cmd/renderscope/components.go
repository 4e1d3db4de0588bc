package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"renderscope/internal/app"
)

var (
	componentsSession string
	componentsSubtree int64
	componentsCounts  bool
)

func init() {
	rootCmd.AddCommand(cmdComponents)

	cmdComponents.Flags().StringVar(&componentsSession, "session", "", "Session id (defaults to the agent's only session)")
	cmdComponents.Flags().Int64Var(&componentsSubtree, "subtree", -1, "Restrict to a component id and its descendants")
	cmdComponents.Flags().BoolVar(&componentsCounts, "counts", false, "Print occupancy counts instead of the component list")
}

var cmdComponents = &cobra.Command{
	Use:   "components [id]",
	Short: "List tracked components, or show one with full metrics",
	Long:  `Fetches the component registry from the agent. With an id argument, prints that component's full metrics view.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if componentsCounts {
			counts, err := controller().Counts(cmd.Context(), componentsSession, timeout())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "resolved=%d pending=%d total=%d\n",
				counts.Resolved, counts.Pending, counts.Total)
			return nil
		}

		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid component id: %s", args[0])
			}
			c, err := controller().Component(cmd.Context(), componentsSession, id, timeout())
			if err != nil {
				return err
			}
			printComponent(cmd, c)
			return nil
		}

		params := app.ComponentsParams{Session: componentsSession, Timeout: timeout()}
		if componentsSubtree >= 0 {
			params.Subtree = &componentsSubtree
		}
		comps, err := controller().Components(cmd.Context(), params)
		if err != nil {
			return err
		}

		if len(comps) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No components tracked")
			return nil
		}
		for _, c := range comps {
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s mode=%s parent=%s renders=%s\n",
				idOrPending(c.ID), c.Type.Name, c.Mode, idOrDash(c.ParentID), renderCount(c.Metrics))
		}
		return nil
	},
}

func printComponent(cmd *cobra.Command, c app.Component) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id=%s type=%s mode=%s parent=%s\n",
		idOrPending(c.ID), c.Type.FullName, c.Mode, idOrDash(c.ParentID))
	m := c.Metrics
	if m == nil {
		fmt.Fprintln(out, "metrics: unavailable")
		return
	}
	fmt.Fprintf(out, "renders=%d min=%s max=%s avg=%s ttfr=%s\n",
		m.Render.Count, nsOrDash(m.RenderMin), nsOrDash(m.RenderMax),
		nsOrDash(m.Render.Average), nsOrDash(m.TimeToFirstRender))
	fmt.Fprintf(out, "init avg=%s params avg=%s post avg=%s callback avg=%s\n",
		nsOrDash(m.Init.Average), nsOrDash(m.Parameters.Average),
		nsOrDash(m.PostRender.Average), nsOrDash(m.Callback.Average))
	fmt.Fprintf(out, "invalidations=%d suppressed_queued=%d suppressed_declined=%d efficiency=%s suppression=%s rpm=%s\n",
		m.Invalidations, m.SuppressedQueued, m.SuppressedDeclined,
		floatOrDash(m.InvalidationEfficiency), floatOrDash(m.SuppressionRatio), floatOrDash(m.RendersPerMinute))
	fmt.Fprintf(out, "lifetime=%s\n", time.Duration(m.Lifetime).Round(time.Millisecond))
}

func idOrPending(id *int64) string {
	if id == nil {
		return "pending"
	}
	return "id=" + strconv.FormatInt(*id, 10)
}

func idOrDash(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}

func renderCount(m *app.ComponentMetrics) string {
	if m == nil {
		return "-"
	}
	return strconv.FormatUint(m.Render.Count, 10)
}

func nsOrDash(ns *int64) string {
	if ns == nil {
		return "-"
	}
	return time.Duration(*ns).Round(time.Microsecond).String()
}

func floatOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
