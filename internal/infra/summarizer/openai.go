package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"blog-agent/internal/domain/entity"
	"blog-agent/internal/resilience/circuitbreaker"
	"blog-agent/internal/resilience/retry"
)

// OpenAI generates digests and suggestion reasons using OpenAI's chat API.
// It is the fallback writer when only an OpenAI key is configured.
type OpenAI struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         Config
}

// NewOpenAI creates an OpenAI writer with the given API key.
func NewOpenAI(apiKey string) *OpenAI {
	config := LoadConfig(openai.GPT4oMini)

	slog.Info("Initialized OpenAI digest writer",
		slog.String("model", config.Model),
		slog.Int("max_tokens", config.MaxTokens))

	return &OpenAI{
		client:         openai.NewClient(apiKey),
		circuitBreaker: circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		config:         config,
	}
}

// Digest writes a multi-paragraph digest of the given posts.
func (o *OpenAI) Digest(ctx context.Context, posts []*entity.BlogPost, lookbackDays int) (string, error) {
	if len(posts) == 0 {
		return "", nil
	}
	prompt := buildDigestPrompt(posts, lookbackDays, o.config.MaxDigestPosts)
	text, err := o.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate digest: %w", err)
	}
	return text, nil
}

// SuggestionReasons writes a one-line reason per candidate, keyed by URL.
func (o *OpenAI) SuggestionReasons(ctx context.Context, candidates, liked, existing []entity.FeedSource) (map[string]string, error) {
	if len(candidates) == 0 {
		return map[string]string{}, nil
	}
	prompt := buildReasonsPrompt(candidates, liked, existing, o.config.MaxCandidates)
	text, err := o.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate suggestion reasons: %w", err)
	}
	return parseReasons(text, candidates), nil
}

func (o *OpenAI) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	var result string

	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doComplete(ctx, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai api circuit breaker open, request rejected",
					slog.String("service", "openai-api"),
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openai api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})

	if retryErr != nil {
		return "", fmt.Errorf("openai completion failed after retries: %w", retryErr)
	}
	return result, nil
}

func (o *OpenAI) doComplete(ctx context.Context, prompt string) (string, error) {
	slog.InfoContext(ctx, "Starting OpenAI completion",
		slog.Int("prompt_length", len(prompt)))

	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.config.Model,
		MaxTokens: o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})

	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "OpenAI completion failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.ErrorContext(ctx, "OpenAI API returned empty response",
			slog.Duration("duration", duration))
		return "", fmt.Errorf("openai api returned empty response")
	}

	slog.InfoContext(ctx, "OpenAI completion finished",
		slog.Int("response_length", len(resp.Choices[0].Message.Content)),
		slog.Duration("duration", duration))

	return resp.Choices[0].Message.Content, nil
}
