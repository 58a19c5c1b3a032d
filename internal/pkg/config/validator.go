package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// IntRange returns a validator that accepts values in [min, max].
func IntRange(min, max int) func(int) error {
	return func(v int) error {
		if v < min || v > max {
			return fmt.Errorf("value %d outside range [%d, %d]", v, min, max)
		}
		return nil
	}
}

// DurationRange returns a validator that accepts durations in [min, max].
func DurationRange(min, max time.Duration) func(time.Duration) error {
	return func(v time.Duration) error {
		if v < min || v > max {
			return fmt.Errorf("duration %v outside range [%v, %v]", v, min, max)
		}
		return nil
	}
}

// ValidateCronSchedule checks a standard 5-field cron expression.
func ValidateCronSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// ValidateTimezone checks an IANA timezone name.
func ValidateTimezone(tz string) error {
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return nil
}
