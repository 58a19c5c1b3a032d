package summarizer

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds tuning parameters shared by the Claude and OpenAI writers.
type Config struct {
	// Model is the API model identifier used for digest and reason generation.
	Model string

	// MaxTokens is the maximum number of tokens for the API response.
	MaxTokens int

	// Timeout is the maximum duration for a single API call.
	Timeout time.Duration

	// MaxDigestPosts caps how many posts are included in the digest prompt.
	MaxDigestPosts int

	// MaxCandidates caps how many suggestions are explained per request.
	MaxCandidates int
}

// LoadConfig loads writer configuration from environment variables with
// fallback to defaults. Invalid values fall back with a warning log.
//
// Environment variables:
//   - DIGEST_MODEL: model identifier (default depends on provider)
//   - DIGEST_MAX_TOKENS: response token cap (default: 1024)
func LoadConfig(defaultModel string) Config {
	const (
		defaultMaxTokens = 1024
		minMaxTokens     = 64
		maxMaxTokens     = 8192
	)

	model := defaultModel
	if envModel := os.Getenv("DIGEST_MODEL"); envModel != "" {
		model = envModel
	}

	maxTokens := defaultMaxTokens
	if envTokens := os.Getenv("DIGEST_MAX_TOKENS"); envTokens != "" {
		parsed, err := strconv.Atoi(envTokens)
		if err != nil {
			slog.Warn("Invalid DIGEST_MAX_TOKENS format, using default",
				slog.String("value", envTokens),
				slog.Int("default", defaultMaxTokens),
				slog.String("error", err.Error()))
		} else if parsed < minMaxTokens || parsed > maxMaxTokens {
			slog.Warn("DIGEST_MAX_TOKENS out of valid range, using default",
				slog.Int("value", parsed),
				slog.Int("min", minMaxTokens),
				slog.Int("max", maxMaxTokens),
				slog.Int("default", defaultMaxTokens))
		} else {
			maxTokens = parsed
		}
	}

	return Config{
		Model:          model,
		MaxTokens:      maxTokens,
		Timeout:        60 * time.Second,
		MaxDigestPosts: 50,
		MaxCandidates:  15,
	}
}
