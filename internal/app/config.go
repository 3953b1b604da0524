package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SpecPath string // .hcl or .yaml build specification

	LogFormat   string
	LogLevel    string
	WorkerCount int

	// Offline skips ref resolution and source fetching; the workspace must
	// already hold the source tree.
	Offline bool

	// Token authenticates GitHub requests. Empty falls back to the
	// environment variable, then the stored token file.
	Token string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.SpecPath == "" {
		return nil, errors.New("SpecPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	return &cfg, nil
}
