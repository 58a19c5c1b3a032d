package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"blog-agent/internal/pkg/config"
)

func TestStringUsesDefaultWhenUnset(t *testing.T) {
	assert.Equal(t, "fallback", config.String("TEST_UNSET_STRING", "fallback"))

	t.Setenv("TEST_SET_STRING", "explicit")
	assert.Equal(t, "explicit", config.String("TEST_SET_STRING", "fallback"))
}

func TestIntValidatesAndFallsBack(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         int
		wantFallback bool
	}{
		{name: "unset uses default", value: "", want: 3, wantFallback: false},
		{name: "valid value", value: "7", want: 7, wantFallback: false},
		{name: "not a number", value: "seven", want: 3, wantFallback: true},
		{name: "out of range", value: "500", want: 3, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_INT", tt.value)
			}
			result := config.Int("TEST_INT", 3, config.IntRange(1, 90))
			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
			if tt.wantFallback {
				assert.NotEmpty(t, result.Warnings)
			}
		})
	}
}

func TestBoolParsesCommonForms(t *testing.T) {
	t.Setenv("TEST_BOOL", "false")
	assert.False(t, config.Bool("TEST_BOOL", true).Value)

	t.Setenv("TEST_BOOL", "1")
	assert.True(t, config.Bool("TEST_BOOL", false).Value)

	t.Setenv("TEST_BOOL", "not-a-bool")
	result := config.Bool("TEST_BOOL", true)
	assert.True(t, result.Value)
	assert.True(t, result.FallbackApplied)
}

func TestDurationValidatesRange(t *testing.T) {
	t.Setenv("TEST_DURATION", "30s")
	result := config.Duration("TEST_DURATION", 15*time.Second, config.DurationRange(time.Second, 2*time.Minute))
	assert.Equal(t, 30*time.Second, result.Value)

	t.Setenv("TEST_DURATION", "10m")
	result = config.Duration("TEST_DURATION", 15*time.Second, config.DurationRange(time.Second, 2*time.Minute))
	assert.Equal(t, 15*time.Second, result.Value)
	assert.True(t, result.FallbackApplied)
}

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, config.ValidateCronSchedule("30 5 * * *"))
	assert.Error(t, config.ValidateCronSchedule("not a schedule"))
	assert.Error(t, config.ValidateCronSchedule("99 99 * * *"))
}

func TestValidateTimezone(t *testing.T) {
	assert.NoError(t, config.ValidateTimezone("UTC"))
	assert.NoError(t, config.ValidateTimezone("Asia/Tokyo"))
	assert.Error(t, config.ValidateTimezone("Mars/Olympus"))
}
