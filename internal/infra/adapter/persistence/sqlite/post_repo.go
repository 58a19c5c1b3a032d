package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"blog-agent/internal/domain/entity"
	"blog-agent/internal/repository"
)

// PostRepo implements the PostRepository interface using SQLite.
type PostRepo struct{ db *sql.DB }

// NewPostRepo creates a new SQLite-backed post repository.
func NewPostRepo(db *sql.DB) repository.PostRepository {
	return &PostRepo{db: db}
}

// Upsert inserts or merges posts keyed by URL and returns the number of
// genuinely new URLs. Content fields overwrite existing rows; is_read
// merges via logical OR so a read post never reverts to unread.
func (repo *PostRepo) Upsert(ctx context.Context, posts []*entity.BlogPost) (int, error) {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("Upsert: BeginTx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	newCount := 0

	for _, post := range posts {
		var published sql.NullString
		if post.Published != nil {
			published = sql.NullString{String: post.Published.UTC().Format(time.RFC3339), Valid: true}
		}

		var existingRead int
		err := tx.QueryRowContext(ctx,
			`SELECT is_read FROM posts WHERE url = ?`, post.URL,
		).Scan(&existingRead)

		switch {
		case err == sql.ErrNoRows:
			_, err = tx.ExecContext(ctx, `
INSERT INTO posts (url, title, author, published, summary, likes, comments, source_name, is_read, first_seen, last_seen)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				post.URL, post.Title, post.Author, published, post.Summary,
				nullableInt(post.Likes), nullableInt(post.Comments),
				post.SourceName, boolToInt(post.IsRead), now, now)
			if err != nil {
				return 0, fmt.Errorf("Upsert: insert: %w", err)
			}
			newCount++

		case err != nil:
			return 0, fmt.Errorf("Upsert: query existing: %w", err)

		default:
			// 既読フラグはORマージ: 一度trueになったら戻さない
			isRead := existingRead != 0 || post.IsRead
			_, err = tx.ExecContext(ctx, `
UPDATE posts SET title=?, author=?, published=?, summary=?, likes=?, comments=?, source_name=?, is_read=?, last_seen=?
WHERE url=?`,
				post.Title, post.Author, published, post.Summary,
				nullableInt(post.Likes), nullableInt(post.Comments),
				post.SourceName, boolToInt(isRead), now, post.URL)
			if err != nil {
				return 0, fmt.Errorf("Upsert: update: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("Upsert: Commit: %w", err)
	}
	return newCount, nil
}

// List retrieves stored posts newest-first. SQLite lacks NULLS LAST, so
// a CASE expression pushes undated posts to the end.
func (repo *PostRepo) List(ctx context.Context, filter repository.PostFilter) ([]*entity.BlogPost, error) {
	query := `
SELECT url, title, author, published, summary, likes, comments, source_name, is_read
FROM posts`

	var conditions []string
	var params []any

	if filter.LookbackDays != nil {
		cutoff := time.Now().UTC().AddDate(0, 0, -*filter.LookbackDays).Format(time.RFC3339)
		conditions = append(conditions, "(published >= ? OR published IS NULL)")
		params = append(params, cutoff)
	}
	if filter.SourceName != "" {
		conditions = append(conditions, "source_name = ?")
		params = append(params, filter.SourceName)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY CASE WHEN published IS NULL THEN 1 ELSE 0 END, published DESC"

	rows, err := repo.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("List: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts := make([]*entity.BlogPost, 0, 100)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		posts = append(posts, post)
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

func scanPost(rows *sql.Rows) (*entity.BlogPost, error) {
	var post entity.BlogPost
	var published sql.NullString
	var likes, comments sql.NullInt64
	var isRead int

	err := rows.Scan(&post.URL, &post.Title, &post.Author, &published,
		&post.Summary, &likes, &comments, &post.SourceName, &isRead)
	if err != nil {
		return nil, fmt.Errorf("Scan: %w", err)
	}

	if published.Valid {
		t, err := time.Parse(time.RFC3339, published.String)
		if err != nil {
			return nil, fmt.Errorf("parse published: %w", err)
		}
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
	post.IsRead = isRead != 0

	return &post, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
