// Package worker holds configuration and health endpoints for the scheduled
// catch-up worker.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"blog-agent/internal/pkg/config"
)

// Config controls the worker's schedule and operational limits.
type Config struct {
	// CronSchedule is the 5-field cron expression for catch-up runs.
	CronSchedule string

	// Timezone is the IANA timezone the schedule is evaluated in.
	Timezone string

	// RunTimeout bounds a single catch-up run.
	RunTimeout time.Duration

	// HealthPort serves the liveness and readiness probes.
	HealthPort int

	// WithDigest enables AI digest generation on scheduled runs.
	WithDigest bool

	// WithDiscover enables blog discovery on scheduled runs.
	WithDiscover bool
}

// DefaultConfig returns the production defaults: one run every morning,
// digest on, discovery off (it hammers third-party sites).
func DefaultConfig() Config {
	return Config{
		CronSchedule: "30 6 * * *",
		Timezone:     "UTC",
		RunTimeout:   10 * time.Minute,
		HealthPort:   9091,
		WithDigest:   true,
		WithDiscover: false,
	}
}

// Validate checks all fields and aggregates the failures.
func (c *Config) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.DurationRange(time.Minute, 4*time.Hour)(c.RunTimeout); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.IntRange(1024, 65535)(c.HealthPort); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables.
// Loading is fail-open: invalid values fall back to defaults with a warning,
// and the returned configuration is always valid.
//
// Environment variables:
//   - CRON_SCHEDULE: cron expression (default: "30 6 * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "UTC")
//   - RUN_TIMEOUT: duration string, e.g. "10m"
//   - WORKER_HEALTH_PORT: integer 1024-65535 (default: 9091)
//   - WORKER_WITH_DIGEST: boolean (default: true)
//   - WORKER_WITH_DISCOVER: boolean (default: false)
func LoadConfigFromEnv(logger *slog.Logger) Config {
	cfg := DefaultConfig()

	schedule := config.StringWithValidator("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	timezone := config.StringWithValidator("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	timeout := config.Duration("RUN_TIMEOUT", cfg.RunTimeout, config.DurationRange(time.Minute, 4*time.Hour))
	port := config.Int("WORKER_HEALTH_PORT", cfg.HealthPort, config.IntRange(1024, 65535))
	digest := config.Bool("WORKER_WITH_DIGEST", cfg.WithDigest)
	discover := config.Bool("WORKER_WITH_DISCOVER", cfg.WithDiscover)

	cfg.CronSchedule = schedule.Value
	cfg.Timezone = timezone.Value
	cfg.RunTimeout = timeout.Value
	cfg.HealthPort = port.Value
	cfg.WithDigest = digest.Value
	cfg.WithDiscover = discover.Value

	for _, warnings := range [][]string{
		schedule.Warnings, timezone.Warnings, timeout.Warnings,
		port.Warnings, digest.Warnings, discover.Warnings,
	} {
		for _, w := range warnings {
			logger.Warn("worker configuration fallback applied", slog.String("detail", w))
		}
	}

	return cfg
}
