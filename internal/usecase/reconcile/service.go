// Package reconcile marks fetched posts as read by cross-referencing a
// snapshot of the user's browsing history.
package reconcile

import (
	"context"
	"log/slog"

	"blog-agent/internal/domain/entity"
	"blog-agent/internal/observability/metrics"
	"blog-agent/internal/pkg/urlutil"
)

// HistoryStore supplies the set of normalized URLs visited within a
// lookback window. Implementations own platform-specific discovery of
// the underlying history database; see internal/infra/history.
type HistoryStore interface {
	VisitedURLs(ctx context.Context, lookbackDays int) (map[string]struct{}, error)
}

// Service provides the read-state reconciliation use case.
type Service struct {
	Store HistoryStore
}

// NewService creates a reconcile Service. A nil store disables
// reconciliation: posts simply stay unread.
func NewService(store HistoryStore) *Service {
	return &Service{Store: store}
}

// MarkRead flags posts whose normalized URL appears in the visited-URL
// snapshot, in place, touching no other fields. It returns the number
// of posts marked and the snapshot size.
//
// Any failure to read history degrades to an empty visited set, never
// an error: read state simply stays unset for this run.
func (s *Service) MarkRead(ctx context.Context, posts []*entity.BlogPost, lookbackDays int) (marked, visited int) {
	logger := slog.Default()

	if s.Store == nil {
		logger.Debug("history store not configured, skipping reconciliation")
		return 0, 0
	}

	visitedSet, err := s.Store.VisitedURLs(ctx, lookbackDays)
	if err != nil {
		logger.Warn("failed to read browser history, posts stay unread",
			slog.Any("error", err))
		return 0, 0
	}

	for _, post := range posts {
		if _, ok := visitedSet[urlutil.Normalize(post.URL)]; ok {
			if !post.IsRead {
				marked++
			}
			post.IsRead = true
		}
	}

	metrics.RecordReconciliation(len(visitedSet), marked)
	logger.Info("reconciled read state",
		slog.Int("visited_urls", len(visitedSet)),
		slog.Int("marked_read", marked),
		slog.Int("posts", len(posts)))

	return marked, len(visitedSet)
}
