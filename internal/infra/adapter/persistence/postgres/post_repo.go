// Package postgres provides PostgreSQL implementations of repository
// interfaces, used when the agent runs against a shared database
// instead of the default local SQLite file. The pgx stdlib driver is
// registered by the binary that opens the connection.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"blog-agent/internal/domain/entity"
	"blog-agent/internal/repository"
)

// PostRepo implements the PostRepository interface using PostgreSQL.
type PostRepo struct{ db *sql.DB }

// NewPostRepo creates a new PostgreSQL-backed post repository.
func NewPostRepo(db *sql.DB) repository.PostRepository {
	return &PostRepo{db: db}
}

// Schema returns the DDL for the posts table. Exposed so operators can
// apply it with their migration tooling of choice.
func Schema() string {
	return `
CREATE TABLE IF NOT EXISTS posts (
    url TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    author TEXT NOT NULL DEFAULT '',
    published TIMESTAMPTZ,
    summary TEXT NOT NULL DEFAULT '',
    likes INTEGER,
    comments INTEGER,
    source_name TEXT NOT NULL DEFAULT '',
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    first_seen TIMESTAMPTZ NOT NULL,
    last_seen TIMESTAMPTZ NOT NULL
);`
}

// Upsert inserts or merges posts keyed by URL. ON CONFLICT keeps
// first_seen, advances last_seen, overwrites content fields, and
// OR-merges is_read. "(xmax = 0)" distinguishes a fresh insert from a
// conflict update so genuinely new URLs can be counted.
func (repo *PostRepo) Upsert(ctx context.Context, posts []*entity.BlogPost) (int, error) {
	const query = `
INSERT INTO posts (url, title, author, published, summary, likes, comments, source_name, is_read, first_seen, last_seen)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
ON CONFLICT (url) DO UPDATE SET
    title = EXCLUDED.title,
    author = EXCLUDED.author,
    published = EXCLUDED.published,
    summary = EXCLUDED.summary,
    likes = EXCLUDED.likes,
    comments = EXCLUDED.comments,
    source_name = EXCLUDED.source_name,
    is_read = posts.is_read OR EXCLUDED.is_read,
    last_seen = EXCLUDED.last_seen
RETURNING (xmax = 0) AS inserted
`

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("Upsert: BeginTx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	newCount := 0

	for _, post := range posts {
		var published sql.NullTime
		if post.Published != nil {
			published = sql.NullTime{Time: post.Published.UTC(), Valid: true}
		}

		var inserted bool
		err := tx.QueryRowContext(ctx, query,
			post.URL, post.Title, post.Author, published, post.Summary,
			nullableInt(post.Likes), nullableInt(post.Comments),
			post.SourceName, post.IsRead, now,
		).Scan(&inserted)
		if err != nil {
			return 0, fmt.Errorf("Upsert: QueryRowContext: %w", err)
		}
		if inserted {
			newCount++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("Upsert: Commit: %w", err)
	}
	return newCount, nil
}

// List retrieves stored posts newest-first, undated posts last.
func (repo *PostRepo) List(ctx context.Context, filter repository.PostFilter) ([]*entity.BlogPost, error) {
	query := `
SELECT url, title, author, published, summary, likes, comments, source_name, is_read
FROM posts`

	var conditions []string
	var params []any

	if filter.LookbackDays != nil {
		cutoff := time.Now().UTC().AddDate(0, 0, -*filter.LookbackDays)
		params = append(params, cutoff)
		conditions = append(conditions, fmt.Sprintf("(published >= $%d OR published IS NULL)", len(params)))
	}
	if filter.SourceName != "" {
		params = append(params, filter.SourceName)
		conditions = append(conditions, fmt.Sprintf("source_name = $%d", len(params)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY published DESC NULLS LAST"

	rows, err := repo.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("List: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts := make([]*entity.BlogPost, 0, 100)
	for rows.Next() {
		var post entity.BlogPost
		var published sql.NullTime
		var likes, comments sql.NullInt64

		err := rows.Scan(&post.URL, &post.Title, &post.Author, &published,
			&post.Summary, &likes, &comments, &post.SourceName, &post.IsRead)
		if err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}

		if published.Valid {
			t := published.Time
			post.Published = &t
		}
		if likes.Valid {
			v := int(likes.Int64)
			post.Likes = &v
		}
		if comments.Valid {
			v := int(comments.Int64)
			post.Comments = &v
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows.Err: %w", err)
	}

	return posts, nil
}

// Count returns the total number of stored posts.
func (repo *PostRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("Count: QueryRowContext: %w", err)
	}
	return count, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
