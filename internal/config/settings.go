package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Settings are process-level knobs resolved from the environment. Queue
// behavior tunables live in the config table instead (see Values).
type Settings struct {
	DBPath        string        `env:"QUEUECTL_DB,default=queue.db"`
	LogFile       string        `env:"QUEUECTL_LOG,default=.queuectl.log"`
	PIDFile       string        `env:"QUEUECTL_PID_FILE,default=.queuectl.pid"`
	PollInterval  time.Duration `env:"QUEUECTL_POLL_INTERVAL,default=1s"`
	SweepInterval time.Duration `env:"QUEUECTL_SWEEP_INTERVAL,default=10s"`
	LogLevel      string        `env:"QUEUECTL_LOG_LEVEL,default=info"`
	ServeAddr     string        `env:"QUEUECTL_SERVE_ADDR,default=127.0.0.1:8080"`
}

// to help with testing
var envProcess = envconfig.Process

func LoadSettings(ctx context.Context) (*Settings, error) {
	var s Settings
	if err := envProcess(ctx, &s); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := validateSettings(&s); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}
	return &s, nil
}

func validateSettings(s *Settings) error {
	var errs []string

	if strings.TrimSpace(s.DBPath) == "" {
		errs = append(errs, "QUEUECTL_DB is required")
	}
	if strings.TrimSpace(s.PIDFile) == "" {
		errs = append(errs, "QUEUECTL_PID_FILE is required")
	}
	if s.PollInterval <= 0 {
		errs = append(errs, "QUEUECTL_POLL_INTERVAL must be positive")
	}
	if s.PollInterval > time.Minute {
		errs = append(errs, "QUEUECTL_POLL_INTERVAL must not exceed 1 minute")
	}
	if s.SweepInterval <= 0 {
		errs = append(errs, "QUEUECTL_SWEEP_INTERVAL must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
