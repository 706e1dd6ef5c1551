package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GridPath  string // hcl file or directory
	StartTask string
	// Parameter is handed to the start task as a string when not empty.
	Parameter string

	InvocationHandler string
	SystemHandler     string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int
	// Teams maps worker team names to their worker counts.
	Teams   map[string]int
	Timeout time.Duration
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if cfg.GridPath == "" {
		errs = append(errs, errors.New("GridPath is a required configuration field and cannot be empty"))
	}
	if cfg.StartTask == "" {
		errs = append(errs, errors.New("StartTask is a required configuration field and cannot be empty"))
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("invalid log format '%s': must be 'text' or 'json'", cfg.LogFormat))
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 10
	}
	for team, n := range cfg.Teams {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("team '%s' must have at least one worker", team))
		}
	}
	if cfg.HealthcheckPort < 0 {
		errs = append(errs, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort))
	}
	if cfg.Timeout < 0 {
		errs = append(errs, fmt.Errorf("invalid timeout %s", cfg.Timeout))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &cfg, nil
}
