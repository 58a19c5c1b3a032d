// Package catchup runs the full check cycle: fetch every followed feed,
// reconcile read state against browser history, persist the results, and
// optionally append an AI digest and blog discovery.
package catchup

import (
	"context"
	"log/slog"
	"time"

	"blog-agent/internal/domain/entity"
	"blog-agent/internal/observability/metrics"
	"blog-agent/internal/repository"
)

// minHistoryLookbackDays widens the history window beyond the feed window.
// A post fetched today may have been read well before the feed lookback.
const minHistoryLookbackDays = 30

// Fetcher pulls posts for a set of sources.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []*entity.FeedSource) []*entity.BlogPost
}

// Reconciler flags already-visited posts as read.
type Reconciler interface {
	MarkRead(ctx context.Context, posts []*entity.BlogPost, lookbackDays int) (marked, visited int)
}

// DigestWriter produces an optional digest of the run's posts.
type DigestWriter interface {
	Generate(ctx context.Context, posts []*entity.BlogPost, lookbackDays int) (string, bool)
}

// Discoverer finds related blogs not yet followed.
type Discoverer interface {
	DiscoverRelated(ctx context.Context, sources []entity.FeedSource) []entity.FeedSource
}

// Options selects optional stages of a run.
type Options struct {
	LookbackDays int
	WithDigest   bool
	WithDiscover bool
}

// Result reports everything a run produced.
type Result struct {
	Posts      []*entity.BlogPost
	NewPosts   int
	MarkedRead int
	Visited    int

	Digest    string
	HasDigest bool

	Discovered      []entity.FeedSource
	DiscoveredPosts []*entity.BlogPost
}

// Service wires the pipeline stages together. The repo, digests, and
// discoverer fields may be nil, disabling the corresponding stage.
type Service struct {
	fetcher    Fetcher
	reconciler Reconciler
	repo       repository.PostRepository
	digests    DigestWriter
	discoverer Discoverer
	logger     *slog.Logger
}

// NewService creates a catch-up service.
func NewService(
	fetcher Fetcher,
	reconciler Reconciler,
	repo repository.PostRepository,
	digests DigestWriter,
	discoverer Discoverer,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:    fetcher,
		reconciler: reconciler,
		repo:       repo,
		digests:    digests,
		discoverer: discoverer,
		logger:     logger,
	}
}

// Run executes one catch-up cycle over the given sources. Fetch failures for
// individual sources and persistence failures never abort the run; the only
// hard failure is context cancellation.
func (s *Service) Run(ctx context.Context, sources []entity.FeedSource, opts Options) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.RecordCatchupRun(time.Since(start))
	}()

	result := &Result{}

	result.Posts = s.fetcher.FetchAll(ctx, sourcePtrs(sources))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.reconciler != nil && len(result.Posts) > 0 {
		result.MarkedRead, result.Visited = s.reconciler.MarkRead(
			ctx, result.Posts, historyLookback(opts.LookbackDays))
	}

	result.NewPosts = s.persist(ctx, result.Posts)

	if opts.WithDigest && s.digests != nil {
		result.Digest, result.HasDigest = s.digests.Generate(ctx, result.Posts, opts.LookbackDays)
	}

	if opts.WithDiscover && s.discoverer != nil {
		result.Discovered = s.discoverer.DiscoverRelated(ctx, sources)
		if len(result.Discovered) > 0 {
			result.DiscoveredPosts = s.fetcher.FetchAll(ctx, sourcePtrs(result.Discovered))
			if s.reconciler != nil && len(result.DiscoveredPosts) > 0 {
				s.reconciler.MarkRead(ctx, result.DiscoveredPosts, historyLookback(opts.LookbackDays))
			}
		}
	}

	s.logger.Info("catch-up run finished",
		slog.Int("sources", len(sources)),
		slog.Int("posts", len(result.Posts)),
		slog.Int("new_posts", result.NewPosts),
		slog.Int("marked_read", result.MarkedRead),
		slog.Bool("digest", result.HasDigest),
		slog.Int("discovered", len(result.Discovered)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// persist upserts posts best-effort. A storage failure logs a warning and
// reports zero new posts; the fetched posts are still returned to the caller.
func (s *Service) persist(ctx context.Context, posts []*entity.BlogPost) int {
	if s.repo == nil || len(posts) == 0 {
		return 0
	}

	newCount, err := s.repo.Upsert(ctx, posts)
	if err != nil {
		s.logger.Warn("failed to persist posts, continuing without storage",
			slog.Int("posts", len(posts)),
			slog.String("error", err.Error()))
		return 0
	}

	if total, err := s.repo.Count(ctx); err == nil {
		metrics.UpdatePostsTotal(total)
	}

	return newCount
}

func historyLookback(lookbackDays int) int {
	if lookbackDays > minHistoryLookbackDays {
		return lookbackDays
	}
	return minHistoryLookbackDays
}

func sourcePtrs(sources []entity.FeedSource) []*entity.FeedSource {
	ptrs := make([]*entity.FeedSource, len(sources))
	for i := range sources {
		ptrs[i] = &sources[i]
	}
	return ptrs
}
