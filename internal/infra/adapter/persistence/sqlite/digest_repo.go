package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"blog-agent/internal/repository"
)

// DigestRepo implements the DigestRepository interface using SQLite.
type DigestRepo struct{ db *sql.DB }

// NewDigestRepo creates a new SQLite-backed digest repository.
func NewDigestRepo(db *sql.DB) repository.DigestRepository {
	return &DigestRepo{db: db}
}

// SaveDigest stores a generated digest.
func (repo *DigestRepo) SaveDigest(ctx context.Context, content string, lookbackDays int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO digests (created_at, content, lookback_days) VALUES (?, ?, ?)`,
		now, content, lookbackDays)
	if err != nil {
		return fmt.Errorf("SaveDigest: ExecContext: %w", err)
	}
	return nil
}

// LatestDigest returns the most recent digest, or nil when none exists.
func (repo *DigestRepo) LatestDigest(ctx context.Context) (*repository.Digest, error) {
	var digest repository.Digest
	var createdAt string

	err := repo.db.QueryRowContext(ctx, `
SELECT id, created_at, content, lookback_days
FROM digests
ORDER BY created_at DESC, id DESC
LIMIT 1`).Scan(&digest.ID, &createdAt, &digest.Content, &digest.LookbackDays)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LatestDigest: QueryRowContext: %w", err)
	}

	digest.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("LatestDigest: parse created_at: %w", err)
	}
	return &digest, nil
}

// SaveSuggestionReasons stores suggestion reasons keyed by blog URL,
// replacing any existing reason for the same URL.
func (repo *DigestRepo) SaveSuggestionReasons(ctx context.Context, reasons map[string]string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	for url, reason := range reasons {
		_, err := repo.db.ExecContext(ctx, `
INSERT OR REPLACE INTO suggestion_reasons (url, reason, created_at)
VALUES (?, ?, ?)`,
			url, reason, now)
		if err != nil {
			return fmt.Errorf("SaveSuggestionReasons: ExecContext: %w", err)
		}
	}
	return nil
}

// SuggestionReasons returns all cached suggestion reasons as url -> reason.
func (repo *DigestRepo) SuggestionReasons(ctx context.Context) (map[string]string, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT url, reason FROM suggestion_reasons`)
	if err != nil {
		return nil, fmt.Errorf("SuggestionReasons: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	reasons := make(map[string]string)
	for rows.Next() {
		var url, reason string
		if err := rows.Scan(&url, &reason); err != nil {
			return nil, fmt.Errorf("SuggestionReasons: Scan: %w", err)
		}
		reasons[url] = reason
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SuggestionReasons: rows.Err: %w", err)
	}
	return reasons, nil
}
