// Package config provides environment variable loading with validation and
// fallback-to-default behavior. Loading never fails: invalid values produce
// warnings and the default is used instead.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LoadResult carries a loaded value together with any fallback warnings.
type LoadResult[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

func fallback[T any](envKey string, def T, reason string) LoadResult[T] {
	return LoadResult[T]{
		Value:           def,
		Warnings:        []string{fmt.Sprintf("%s: %s, using default %v", envKey, reason, def)},
		FallbackApplied: true,
	}
}

// String reads a string environment variable. Unset or empty returns the
// default; no validation is applied.
func String(envKey, def string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return def
}

// StringWithValidator reads a string environment variable and falls back to
// the default when the validator rejects the value.
func StringWithValidator(envKey, def string, validate func(string) error) LoadResult[string] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[string]{Value: def}
	}
	if err := validate(raw); err != nil {
		return fallback(envKey, def, err.Error())
	}
	return LoadResult[string]{Value: raw}
}

// Int reads an integer environment variable with optional validation.
func Int(envKey string, def int, validate func(int) error) LoadResult[int] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[int]{Value: def}
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback(envKey, def, fmt.Sprintf("invalid integer %q", raw))
	}
	if validate != nil {
		if err := validate(parsed); err != nil {
			return fallback(envKey, def, err.Error())
		}
	}
	return LoadResult[int]{Value: parsed}
}

// Bool reads a boolean environment variable. Accepts the strconv.ParseBool
// forms (1/0, t/f, true/false, TRUE/FALSE, ...).
func Bool(envKey string, def bool) LoadResult[bool] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[bool]{Value: def}
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback(envKey, def, fmt.Sprintf("invalid boolean %q", raw))
	}
	return LoadResult[bool]{Value: parsed}
}

// Duration reads a duration environment variable in time.ParseDuration
// syntax ("15s", "2m") with optional validation.
func Duration(envKey string, def time.Duration, validate func(time.Duration) error) LoadResult[time.Duration] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[time.Duration]{Value: def}
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallback(envKey, def, fmt.Sprintf("invalid duration %q", raw))
	}
	if validate != nil {
		if err := validate(parsed); err != nil {
			return fallback(envKey, def, err.Error())
		}
	}
	return LoadResult[time.Duration]{Value: parsed}
}
