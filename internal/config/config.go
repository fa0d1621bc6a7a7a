// Package config holds the process-wide tunables of the pfor runtime and
// its demo CLI, validated eagerly before anything else starts.
package config

import "fmt"

// LogFormat selects how the ambient logger renders records.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Config is the validated set of runtime tunables: the GRAIN threshold
// passed to every loop's scheduler, the concurrency bound of the Task
// Engine's throttle, and the ambient logger's verbosity and encoding.
type Config struct {
	GrainVolume       uint64
	WorkerConcurrency int
	LogLevel          string
	LogFormat         LogFormat
}

// Default returns a Config matching the runtime's own zero-configuration
// defaults: a grain of 1 (recurse to single points) and GOMAXPROCS-many
// concurrent task bodies.
func Default() *Config {
	return &Config{
		GrainVolume:       1,
		WorkerConcurrency: 0,
		LogLevel:          "info",
		LogFormat:         LogFormatText,
	}
}

// New validates cfg and returns it: invalid combinations fail fast at
// startup rather than surfacing as a confusing runtime error later.
func New(cfg Config) (*Config, error) {
	if cfg.GrainVolume == 0 {
		return nil, fmt.Errorf("config: grain volume must be >= 1")
	}
	if cfg.WorkerConcurrency < 0 {
		return nil, fmt.Errorf("config: worker concurrency must be >= 0 (0 means GOMAXPROCS)")
	}
	switch cfg.LogFormat {
	case LogFormatText, LogFormatJSON, "":
	default:
		return nil, fmt.Errorf("config: unknown log format %q", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "":
	default:
		return nil, fmt.Errorf("config: unknown log level %q", cfg.LogLevel)
	}
	c := cfg
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return &c, nil
}
