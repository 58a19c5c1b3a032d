// Package summarizer provides AI-backed digest and recommendation-reason
// writers. It includes adapters for Claude (Anthropic) and OpenAI APIs with
// retry and circuit breaker reliability patterns. AI features are optional
// and callers degrade gracefully when no writer is configured.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"blog-agent/internal/domain/entity"
	"blog-agent/internal/resilience/circuitbreaker"
	"blog-agent/internal/resilience/retry"
)

// Claude generates digests and suggestion reasons using Anthropic's API.
// It includes circuit breaker and retry logic for improved reliability.
type Claude struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         Config
}

// NewClaude creates a Claude writer with the given API key. Circuit breaker,
// retry policy, and model configuration are set up automatically.
func NewClaude(apiKey string) *Claude {
	config := LoadConfig(string(anthropic.ModelClaudeSonnet4_5_20250929))

	slog.Info("Initialized Claude digest writer",
		slog.String("model", config.Model),
		slog.Int("max_tokens", config.MaxTokens))

	return &Claude{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		config:         config,
	}
}

// Digest writes a multi-paragraph digest of the given posts.
func (c *Claude) Digest(ctx context.Context, posts []*entity.BlogPost, lookbackDays int) (string, error) {
	if len(posts) == 0 {
		return "", nil
	}
	prompt := buildDigestPrompt(posts, lookbackDays, c.config.MaxDigestPosts)
	text, err := c.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate digest: %w", err)
	}
	return text, nil
}

// SuggestionReasons writes a one-line "why you'd like this" reason per
// candidate, keyed by candidate URL. Candidates the model did not address
// are absent from the result.
func (c *Claude) SuggestionReasons(ctx context.Context, candidates, liked, existing []entity.FeedSource) (map[string]string, error) {
	if len(candidates) == 0 {
		return map[string]string{}, nil
	}
	prompt := buildReasonsPrompt(candidates, liked, existing, c.config.MaxCandidates)
	text, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate suggestion reasons: %w", err)
	}
	return parseReasons(text, candidates), nil
}

// complete runs one prompt through retry and circuit breaker layers.
func (c *Claude) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var result string

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doComplete(ctx, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("service", "claude-api"),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})

	if retryErr != nil {
		return "", fmt.Errorf("claude completion failed after retries: %w", retryErr)
	}
	return result, nil
}

// doComplete performs the actual API call without retry or circuit breaker.
func (c *Claude) doComplete(ctx context.Context, prompt string) (string, error) {
	requestID := uuid.New().String()

	slog.InfoContext(ctx, "Starting Claude completion",
		slog.String("request_id", requestID),
		slog.Int("prompt_length", len(prompt)))

	start := time.Now()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})

	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "Claude completion failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		slog.ErrorContext(ctx, "Claude API returned empty response",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration))
		return "", fmt.Errorf("claude api returned empty response")
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		slog.ErrorContext(ctx, "Claude API returned unexpected response type",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration))
		return "", fmt.Errorf("claude api returned unexpected response type")
	}

	slog.InfoContext(ctx, "Claude completion finished",
		slog.String("request_id", requestID),
		slog.Int("response_length", len(textBlock.Text)),
		slog.Duration("duration", duration))

	return textBlock.Text, nil
}
