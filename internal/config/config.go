package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

const (
	defaultListenAddr        = "127.0.0.1:7321"
	defaultReconcileInterval = 1 * time.Second
	defaultSimTick           = 500 * time.Millisecond

	envListenAddr        = "RENDERSCOPE_ADDR"
	envReconcileInterval = "RENDERSCOPE_RECONCILE_INTERVAL"
	envEventLimit        = "RENDERSCOPE_EVENT_LIMIT"
	envSimTick           = "RENDERSCOPE_SIM_TICK"
)

// Config aggregates tunables for the agent.
type Config struct {
	// ListenAddr is where the inspector API binds.
	ListenAddr string
	// ReconcileInterval throttles reconciliation passes per session.
	ReconcileInterval time.Duration
	// EventLimit caps the timeline ring buffer. Zero means the recorder's
	// default.
	EventLimit int
	// SimTick is the demo runtime's render-pass interval.
	SimTick time.Duration
}

// Load builds a Config from an optional JSON file path plus environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddr:        defaultListenAddr,
		ReconcileInterval: defaultReconcileInterval,
		SimTick:           defaultSimTick,
	}

	if path != "" {
		fileCfg, err := loadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		if fileCfg.ListenAddr != "" {
			cfg.ListenAddr = fileCfg.ListenAddr
		}
		if fileCfg.ReconcileInterval != 0 {
			cfg.ReconcileInterval = fileCfg.ReconcileInterval
		}
		if fileCfg.EventLimit != 0 {
			cfg.EventLimit = fileCfg.EventLimit
		}
		if fileCfg.SimTick != 0 {
			cfg.SimTick = fileCfg.SimTick
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envReconcileInterval); v != "" {
		if dur, err := time.ParseDuration(v); err == nil && dur > 0 {
			cfg.ReconcileInterval = dur
		} else if err != nil {
			log.Printf("invalid %s value %q: %v", envReconcileInterval, v, err)
		}
	}
	if v := os.Getenv(envEventLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EventLimit = n
		} else if err != nil {
			log.Printf("invalid %s value %q: %v", envEventLimit, v, err)
		}
	}
	if v := os.Getenv(envSimTick); v != "" {
		if dur, err := time.ParseDuration(v); err == nil && dur > 0 {
			cfg.SimTick = dur
		} else if err != nil {
			log.Printf("invalid %s value %q: %v", envSimTick, v, err)
		}
	}
}

type fileConfig struct {
	ListenAddr        string        `json:"listen_addr"`
	ReconcileInterval time.Duration `json:"-"`
	EventLimit        int           `json:"event_limit"`
	SimTick           time.Duration `json:"-"`

	RawReconcileInterval string `json:"reconcile_interval"`
	RawSimTick           string `json:"sim_tick"`
}

func loadFromFile(path string) (fileConfig, error) {
	var cfg fileConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	if cfg.RawReconcileInterval != "" {
		dur, err := time.ParseDuration(cfg.RawReconcileInterval)
		if err != nil {
			return cfg, fmt.Errorf("parse reconcile_interval: %w", err)
		}
		if dur <= 0 {
			return cfg, errors.New("reconcile_interval must be > 0")
		}
		cfg.ReconcileInterval = dur
	}
	if cfg.RawSimTick != "" {
		dur, err := time.ParseDuration(cfg.RawSimTick)
		if err != nil {
			return cfg, fmt.Errorf("parse sim_tick: %w", err)
		}
		if dur <= 0 {
			return cfg, errors.New("sim_tick must be > 0")
		}
		cfg.SimTick = dur
	}
	if cfg.EventLimit < 0 {
		return cfg, errors.New("event_limit must be >= 0")
	}
	return cfg, nil
}
