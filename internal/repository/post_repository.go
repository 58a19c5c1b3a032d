// Package repository defines the persistence interfaces consumed by the
// use case layer. Concrete implementations live under
// internal/infra/adapter/persistence.
package repository

import (
	"context"

	"blog-agent/internal/domain/entity"
)

// PostFilter contains optional filters for post queries.
type PostFilter struct {
	// LookbackDays limits results to posts published within the window.
	// Undated posts are always included.
	LookbackDays *int

	// SourceName filters posts to a single source when non-empty.
	SourceName string
}

// PostRepository stores blog posts keyed by URL.
//
// Upsert semantics: content fields (title, author, summary, counts) are
// overwritten on every fetch, while is_read merges via logical OR so a
// post never reverts from read to unread. first_seen is set once on
// insert; last_seen advances on every upsert.
type PostRepository interface {
	// Upsert inserts or merges the given posts and returns the number
	// of genuinely new URLs.
	Upsert(ctx context.Context, posts []*entity.BlogPost) (int, error)

	// List retrieves stored posts newest-first, undated posts last.
	List(ctx context.Context, filter PostFilter) ([]*entity.BlogPost, error)

	// Count returns the total number of stored posts.
	Count(ctx context.Context) (int64, error)
}
