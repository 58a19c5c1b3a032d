// Package digest turns a batch of fresh posts into an AI-written briefing.
// Digest output is strictly optional: when no writer is configured or the
// API call fails, the pipeline continues without a digest.
package digest

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"blog-agent/internal/domain/entity"
	"blog-agent/internal/observability/metrics"
	"blog-agent/internal/repository"
)

// Writer produces AI-generated text. Implementations live in
// internal/infra/summarizer.
type Writer interface {
	Digest(ctx context.Context, posts []*entity.BlogPost, lookbackDays int) (string, error)
	SuggestionReasons(ctx context.Context, candidates, liked, existing []entity.FeedSource) (map[string]string, error)
}

// ContentFetcher retrieves the full article text for a post URL.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// thinSummaryThreshold marks feed summaries too short to be useful digest
// input. Posts below it get their article body fetched before prompting.
const thinSummaryThreshold = 120

// enrichedSummaryLimit caps fetched article text used in place of a summary.
const enrichedSummaryLimit = 1500

// maxEnrichConcurrent bounds parallel article fetches during enrichment.
const maxEnrichConcurrent = 4

// Service orchestrates digest generation and persistence.
type Service struct {
	writer  Writer
	repo    repository.DigestRepository
	content ContentFetcher
	logger  *slog.Logger
}

// NewService creates a digest service. writer, repo, and content may each be
// nil; a nil writer disables generation, a nil repo skips persistence, and a
// nil content fetcher skips enrichment.
func NewService(writer Writer, repo repository.DigestRepository, content ContentFetcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{writer: writer, repo: repo, content: content, logger: logger}
}

// Generate produces a digest of the given posts. The second return value
// reports whether a digest was produced; it is false when generation is
// disabled, there are no posts, or the writer fails.
func (s *Service) Generate(ctx context.Context, posts []*entity.BlogPost, lookbackDays int) (string, bool) {
	if s.writer == nil || len(posts) == 0 {
		return "", false
	}

	start := time.Now()
	enriched := s.enrich(ctx, posts)

	text, err := s.writer.Digest(ctx, enriched, lookbackDays)
	if err != nil {
		s.logger.Warn("digest generation failed, continuing without digest",
			slog.Int("posts", len(posts)),
			slog.String("error", err.Error()))
		metrics.RecordDigestGenerated(false, time.Since(start))
		return "", false
	}
	if text == "" {
		return "", false
	}

	metrics.RecordDigestGenerated(true, time.Since(start))

	if s.repo != nil {
		if err := s.repo.SaveDigest(ctx, text, lookbackDays); err != nil {
			s.logger.Warn("failed to persist digest",
				slog.String("error", err.Error()))
		}
	}

	return text, true
}

// ExplainSuggestions asks the writer for a per-candidate reason and persists
// the result. Failures degrade to an empty map.
func (s *Service) ExplainSuggestions(ctx context.Context, candidates, liked, existing []entity.FeedSource) map[string]string {
	if s.writer == nil || len(candidates) == 0 {
		return map[string]string{}
	}

	reasons, err := s.writer.SuggestionReasons(ctx, candidates, liked, existing)
	if err != nil {
		s.logger.Warn("suggestion reason generation failed",
			slog.Int("candidates", len(candidates)),
			slog.String("error", err.Error()))
		return map[string]string{}
	}

	if s.repo != nil && len(reasons) > 0 {
		if err := s.repo.SaveSuggestionReasons(ctx, reasons); err != nil {
			s.logger.Warn("failed to persist suggestion reasons",
				slog.String("error", err.Error()))
		}
	}

	return reasons
}

// enrich replaces thin feed summaries with fetched article text. Posts are
// copied so the originals, already persisted, keep their feed summaries.
// Fetch failures leave the original summary in place.
func (s *Service) enrich(ctx context.Context, posts []*entity.BlogPost) []*entity.BlogPost {
	enriched := make([]*entity.BlogPost, len(posts))
	for i, p := range posts {
		cp := *p
		enriched[i] = &cp
	}
	if s.content == nil {
		return enriched
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxEnrichConcurrent)

	for _, p := range enriched {
		if len(p.Summary) >= thinSummaryThreshold || p.URL == "" {
			continue
		}
		eg.Go(func() error {
			content, err := s.content.FetchContent(ctx, p.URL)
			if err != nil {
				s.logger.Debug("article fetch for digest enrichment failed",
					slog.String("url", p.URL),
					slog.String("error", err.Error()))
				return nil
			}
			runes := []rune(content)
			if len(runes) > enrichedSummaryLimit {
				content = string(runes[:enrichedSummaryLimit])
			}
			if content != "" {
				p.Summary = content
			}
			return nil
		})
	}

	_ = eg.Wait()
	return enriched
}
