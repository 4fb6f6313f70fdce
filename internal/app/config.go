package app

import (
	"errors"
	"fmt"
)

// Meta operations handled by the app instead of the executor.
const (
	OpList   = "list"
	OpPlan   = "plan"
	OpParams = "params"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ConfigPath is a pipeline file or directory. Empty selects the
	// embedded default pipeline.
	ConfigPath string
	// Operation is the stage to run, or a meta operation.
	Operation string
	// Target is the stage a meta operation such as plan applies to.
	Target string
	// Overrides are `-p name=value` assignments.
	Overrides map[string]string
	WorkDir   string

	LogFormat string
	LogLevel  string

	EventsURL       string
	EventsNamespace string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Operation == "" {
		return nil, errors.New("an operation is required")
	}
	if cfg.Operation == OpPlan && cfg.Target == "" {
		return nil, errors.New("plan requires a stage name")
	}
	if cfg.Operation != OpPlan && cfg.Target != "" {
		return nil, fmt.Errorf("unexpected argument %q after operation %q", cfg.Target, cfg.Operation)
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	return &cfg, nil
}
