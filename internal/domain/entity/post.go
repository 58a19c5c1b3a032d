package entity

import "time"

// BlogPost represents a single blog post fetched from a feed.
// The URL is the only stable identity across fetch cycles: two posts
// with the same URL are the same logical post, and re-fetched titles
// and summaries overwrite stored ones.
type BlogPost struct {
	Title      string
	Author     string
	URL        string
	Published  *time.Time
	Summary    string
	Likes      *int
	Comments   *int
	SourceName string

	// IsRead is monotonic: once a post has been marked read it never
	// reverts. Persistence merges the flag with a logical OR.
	IsRead bool
}

// AgeDays returns the age of the post in whole days, or nil when the
// post has no publish date.
func (p *BlogPost) AgeDays() *int {
	if p.Published == nil {
		return nil
	}
	days := int(time.Since(*p.Published).Hours() / 24)
	return &days
}

// ShortSummary returns the summary truncated to maxLen runes, with a
// trailing ellipsis when truncation occurred.
func (p *BlogPost) ShortSummary(maxLen int) string {
	runes := []rune(p.Summary)
	if len(runes) <= maxLen {
		return p.Summary
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// PublishedOrZero returns the publish date, or the zero time for
// undated posts so that they sort as the oldest possible value.
func (p *BlogPost) PublishedOrZero() time.Time {
	if p.Published == nil {
		return time.Time{}
	}
	return *p.Published
}
