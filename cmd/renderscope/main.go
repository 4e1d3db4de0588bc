package main

import (
	"context"
	"log"
	"time"

	"github.com/spf13/cobra"

	"renderscope/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "renderscope [command]",
	Short: "renderscope: component render telemetry inspector",
	Long:  `renderscope tracks component lifecycles in a running agent and exposes render timings, invalidation outcomes and the event timeline.`,
}

var (
	configPath     string
	agentAddr      string
	timeoutSeconds int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON config file")
	rootCmd.PersistentFlags().StringVar(&agentAddr, "addr", "", "Agent address (overrides config)")
	rootCmd.PersistentFlags().IntVarP(&timeoutSeconds, "timeout", "t", 2, "Timeout in seconds for agent requests")
}

// controllerAPI is the subset of app.App the commands call; tests swap the
// factory for a stub.
type controllerAPI interface {
	Status() (app.AgentStatus, error)
	StartAgent() (*app.AgentHandle, error)
	State(ctx context.Context, timeout time.Duration) (app.RecordingState, error)
	StartRecording(ctx context.Context, timeout time.Duration) (app.RecordingState, error)
	StopRecording(ctx context.Context, timeout time.Duration) (app.RecordingState, error)
	ClearEvents(ctx context.Context, timeout time.Duration) (app.RecordingState, error)
	SetLimit(ctx context.Context, n int, timeout time.Duration) (int, error)
	Components(ctx context.Context, params app.ComponentsParams) ([]app.Component, error)
	Component(ctx context.Context, session string, id int64, timeout time.Duration) (app.Component, error)
	Counts(ctx context.Context, session string, timeout time.Duration) (app.Counts, error)
	Sessions(ctx context.Context, timeout time.Duration) ([]string, error)
	Events(ctx context.Context, params app.EventsParams) ([]app.Event, error)
	Batches(ctx context.Context, timeout time.Duration) ([]app.Batch, error)
	Ranked(ctx context.Context, timeout time.Duration) ([]app.Ranked, error)
}

var controllerFactory = func() controllerAPI {
	return app.New(app.Options{ConfigPath: configPath, Addr: agentAddr})
}

func controller() controllerAPI {
	return controllerFactory()
}

func timeout() time.Duration {
	return time.Duration(timeoutSeconds) * time.Second
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
