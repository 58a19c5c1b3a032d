package repository

import (
	"context"
	"time"
)

// Digest is a stored AI-generated digest of recent posts.
type Digest struct {
	ID           int64
	CreatedAt    time.Time
	Content      string
	LookbackDays int
}

// DigestRepository stores generated digests and cached suggestion reasons.
type DigestRepository interface {
	// SaveDigest stores a generated digest.
	SaveDigest(ctx context.Context, content string, lookbackDays int) error

	// LatestDigest returns the most recent digest, or nil when none exists.
	LatestDigest(ctx context.Context) (*Digest, error)

	// SaveSuggestionReasons stores generated suggestion reasons keyed by
	// blog URL, replacing any existing reason for the same URL.
	SaveSuggestionReasons(ctx context.Context, reasons map[string]string) error

	// SuggestionReasons returns all cached suggestion reasons.
	SuggestionReasons(ctx context.Context) (map[string]string, error)
}
