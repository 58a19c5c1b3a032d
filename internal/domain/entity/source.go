// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as FeedSource and BlogPost, along with
// their validation rules and domain-specific errors.
package entity

import (
	"fmt"
	"strings"
)

// FeedType identifies the declared dialect of a feed source.
// The value is informational only: the feed parser auto-detects the
// actual dialect from the document, so a wrong declaration never
// changes fetch behavior.
type FeedType string

const (
	FeedTypeRSS        FeedType = "rss"
	FeedTypeAtom       FeedType = "atom"
	FeedTypeHTMLScrape FeedType = "html_scrape"
)

// FeedSource represents a blog or feed the user follows.
// It is read-only configuration: instances are built once per run and
// never mutated afterwards.
type FeedSource struct {
	Name    string   `yaml:"name" json:"name"`
	URL     string   `yaml:"url" json:"url"`
	FeedURL string   `yaml:"feed_url,omitempty" json:"feed_url,omitempty"`
	Type    FeedType `yaml:"feed_type,omitempty" json:"feed_type,omitempty"`
	Tags    []string `yaml:"tags,omitempty" json:"tags,omitempty"`

	// Per-source limits for prolific authors.
	// MaxPosts caps the number of surviving posts, keeping the newest.
	// MinComments is the engagement floor: posts below it (or with no
	// comment count at all) are dropped.
	MaxPosts    *int `yaml:"max_posts,omitempty" json:"max_posts,omitempty"`
	MinComments *int `yaml:"min_comments,omitempty" json:"min_comments,omitempty"`
}

// ResolveFeedURL returns the explicit feed URL when set, otherwise the
// conventional "<site-root>/feed" endpoint.
func (s *FeedSource) ResolveFeedURL() string {
	if s.FeedURL != "" {
		return s.FeedURL
	}
	return strings.TrimRight(s.URL, "/") + "/feed"
}

// Validate checks the FeedSource fields.
func (s *FeedSource) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSource)
	}
	if s.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidSource)
	}
	if s.Type == "" {
		s.Type = FeedTypeRSS
	}
	switch s.Type {
	case FeedTypeRSS, FeedTypeAtom, FeedTypeHTMLScrape:
	default:
		return fmt.Errorf("%w: unknown feed_type %q", ErrInvalidSource, s.Type)
	}
	if s.MaxPosts != nil && *s.MaxPosts < 0 {
		return fmt.Errorf("%w: max_posts must not be negative", ErrInvalidSource)
	}
	if s.MinComments != nil && *s.MinComments < 0 {
		return fmt.Errorf("%w: min_comments must not be negative", ErrInvalidSource)
	}
	return nil
}
