// Package urlutil provides URL normalization helpers used for read-state
// matching and de-duplication across the system.
package urlutil

import (
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL for comparison: the scheme and host are
// lowercased, the path is kept, the query string and fragment are
// discarded, and a single trailing slash is stripped. Two URLs normalize
// equal iff they denote the same page ignoring tracking parameters and
// case. Normalize is idempotent.
//
// Unparseable input falls back to a best-effort string normalization so
// matching still has a chance to work on malformed history entries.
func Normalize(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return strings.TrimSuffix(rawURL, "/")
	}

	normalized := strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host) + parsed.Path
	return strings.TrimSuffix(normalized, "/")
}
