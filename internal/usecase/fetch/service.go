// Package fetch provides the feed fetching and aggregation use cases.
// It orchestrates per-source fetching, recency/engagement filtering, and
// the merged, globally sorted post list handed to reconciliation.
package fetch

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"blog-agent/internal/domain/entity"
	"blog-agent/internal/observability/metrics"

	"golang.org/x/sync/errgroup"
)

// FeedItem represents a single normalized entry from an RSS/Atom feed.
// Dialect differences (date fields, summary vs. content, comment-count
// extensions) are resolved by the scraper before items reach this layer.
type FeedItem struct {
	Title     string
	URL       string
	Author    string
	Summary   string
	Published *time.Time
	Likes     *int
	Comments  *int
}

// FeedScraper is an interface for fetching and normalizing a feed.
type FeedScraper interface {
	Fetch(ctx context.Context, feedURL string) ([]FeedItem, error)
}

// Config holds fetch behavior settings resolved by the configuration layer.
type Config struct {
	// LookbackDays is the freshness window: dated posts older than
	// now - LookbackDays are dropped. Undated posts are never dropped
	// on this basis.
	LookbackDays int

	// Timeout bounds a single feed fetch.
	Timeout time.Duration

	// MaxConcurrent caps in-flight feed fetches during aggregation.
	MaxConcurrent int
}

// Service provides the feed fetching use cases.
type Service struct {
	Scraper FeedScraper
	Config  Config
}

// NewService creates a fetch Service.
func NewService(scraper FeedScraper, cfg Config) *Service {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	return &Service{Scraper: scraper, Config: cfg}
}

// FetchSource fetches and filters a single source's feed.
//
// Failures never propagate: transport errors, timeouts, and parse
// failures all degrade to an empty slice with a logged warning so one
// misbehaving feed cannot abort aggregation of the others.
func (s *Service) FetchSource(ctx context.Context, src *entity.FeedSource) []*entity.BlogPost {
	logger := slog.Default()
	feedURL := src.ResolveFeedURL()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.Config.Timeout)
	defer cancel()

	items, err := s.Scraper.Fetch(ctx, feedURL)
	if err != nil {
		logger.Warn("failed to fetch feed",
			slog.String("source", src.Name),
			slog.String("feed_url", feedURL),
			slog.Any("error", err))
		metrics.RecordFeedFetchError(src.Name, "fetch_failed")
		return nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -s.Config.LookbackDays)

	posts := make([]*entity.BlogPost, 0, len(items))
	for _, item := range items {
		// Recency filter: only entries with a known date can be too old.
		if item.Published != nil && item.Published.Before(cutoff) {
			continue
		}

		// Engagement floor: absent comment counts never qualify.
		if src.MinComments != nil {
			if item.Comments == nil || *item.Comments < *src.MinComments {
				continue
			}
		}

		title := item.Title
		if title == "" {
			title = "Untitled"
		}
		author := item.Author
		if author == "" {
			author = src.Name
		}

		posts = append(posts, &entity.BlogPost{
			Title:      title,
			Author:     author,
			URL:        item.URL,
			Published:  item.Published,
			Summary:    item.Summary,
			Likes:      item.Likes,
			Comments:   item.Comments,
			SourceName: src.Name,
		})
	}

	// Count cap applies after the engagement floor and keeps the newest.
	if src.MaxPosts != nil && len(posts) > *src.MaxPosts {
		sortByDateDesc(posts)
		posts = posts[:*src.MaxPosts]
	}

	duration := time.Since(start)
	metrics.RecordFeedFetch(src.Name, duration)
	metrics.RecordPostsFetched(src.Name, len(posts))

	logger.Info("fetched recent posts",
		slog.String("source", src.Name),
		slog.Int("posts", len(posts)),
		slog.Duration("duration", duration))

	return posts
}

// FetchAll fetches every source concurrently, bounded by MaxConcurrent,
// and returns the union sorted by publish date descending with undated
// posts last. Per-source results are collected in source order before
// the final stable sort, so output is deterministic regardless of fetch
// completion order.
func (s *Service) FetchAll(ctx context.Context, sources []*entity.FeedSource) []*entity.BlogPost {
	results := make([][]*entity.BlogPost, len(sources))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.Config.MaxConcurrent)

	for i, src := range sources {
		i, src := i, src
		eg.Go(func() error {
			results[i] = s.FetchSource(egCtx, src)
			return nil
		})
	}

	// FetchSource never returns an error, so Wait only reflects
	// context cancellation of the group itself.
	_ = eg.Wait()

	var all []*entity.BlogPost
	for _, posts := range results {
		all = append(all, posts...)
	}

	sortByDateDesc(all)

	slog.Default().Info("all feeds fetched",
		slog.Int("sources", len(sources)),
		slog.Int("posts", len(all)))

	return all
}

// sortByDateDesc sorts posts newest-first in place. Undated posts sort
// as the oldest possible value. The sort is stable so posts sharing a
// date keep their relative order.
func sortByDateDesc(posts []*entity.BlogPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishedOrZero().After(posts[j].PublishedOrZero())
	})
}
