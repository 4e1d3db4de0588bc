// Package app exposes high-level operations the CLI and TUI share: a typed
// client over the agent's inspector API.
package app

import (
	"renderscope/internal/config"
)

// Options configures the top-level controller.
type Options struct {
	// ConfigPath points to the optional agent config file.
	ConfigPath string
	// Addr overrides the agent address from config.
	Addr string
}

// App exposes high-level operations that the CLI/TUI can reuse.
type App struct {
	cfgPath string
	addr    string
}

// New constructs the shared controller facade.
func New(opts Options) *App {
	addr := opts.Addr
	if addr == "" {
		cfg, err := config.Load(opts.ConfigPath)
		if err == nil {
			addr = cfg.ListenAddr
		}
	}
	return &App{
		cfgPath: opts.ConfigPath,
		addr:    addr,
	}
}

// ConfigPath returns the configured config file path (if any).
func (a *App) ConfigPath() string {
	return a.cfgPath
}

// Addr returns the agent address this controller talks to.
func (a *App) Addr() string {
	return a.addr
}
