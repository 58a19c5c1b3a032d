// Package discover finds new blogs related to the ones already followed.
// It reads Substack recommendation pages and WordPress-style blogroll pages,
// then filters the links through homepage heuristics.
package discover

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"blog-agent/internal/domain/entity"
	"blog-agent/internal/pkg/urlutil"
	"blog-agent/internal/resilience/circuitbreaker"
)

const userAgent = "BlogAgentBot/0.1 (+https://github.com/blog-agent)"

// blogrollPaths are the common WordPress blogroll page locations.
var blogrollPaths = []string{"/blogroll", "/links", "/recommended", "/friends"}

// nonBlogDomains are hosts that never count as blog homepages.
var nonBlogDomains = map[string]struct{}{
	"twitter.com":   {},
	"x.com":         {},
	"facebook.com":  {},
	"youtube.com":   {},
	"instagram.com": {},
	"linkedin.com":  {},
	"amazon.com":    {},
	"wikipedia.org": {},
	"github.com":    {},
}

// Service crawls followed sources for related blogs. Requests to third-party
// sites are paced by a shared rate limiter.
type Service struct {
	client         *http.Client
	limiter        *rate.Limiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	logger         *slog.Logger
}

// NewService creates a discovery service. A nil client falls back to a
// default with a 15 second timeout.
func NewService(client *http.Client, logger *slog.Logger) *Service {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:         client,
		limiter:        rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
		circuitBreaker: circuitbreaker.New(circuitbreaker.DiscoveryConfig()),
		logger:         logger,
	}
}

// DiscoverRelated runs all discovery methods across the given sources and
// returns blogs not already followed, deduplicated by normalized URL.
func (s *Service) DiscoverRelated(ctx context.Context, sources []entity.FeedSource) []entity.FeedSource {
	seen := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		seen[urlutil.Normalize(src.URL)] = struct{}{}
	}

	var unique []entity.FeedSource
	for _, src := range sources {
		discovered := s.substackRecommendations(ctx, src)
		discovered = append(discovered, s.blogrollLinks(ctx, src)...)

		for _, d := range discovered {
			key := urlutil.Normalize(d.URL)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			unique = append(unique, d)
		}
	}

	s.logger.Info("discovery finished",
		slog.Int("sources", len(sources)),
		slog.Int("discovered", len(unique)))
	return unique
}

// substackRecommendations reads a publication's /recommendations page.
// Non-Substack sources are skipped unless their homepage carries Substack
// markers (custom-domain publications).
func (s *Service) substackRecommendations(ctx context.Context, src entity.FeedSource) []entity.FeedSource {
	base := strings.TrimRight(src.URL, "/")

	if !strings.Contains(base, "substack.com") && !s.isCustomSubstack(ctx, base) {
		return nil
	}

	doc, err := s.get(ctx, base+"/recommendations")
	if err != nil {
		s.logger.Debug("could not fetch recommendations",
			slog.String("source", src.Name),
			slog.String("error", err.Error()))
		return nil
	}

	var recs []entity.FeedSource
	seen := make(map[string]struct{})
	doc.Find("a[href*='substack.com']").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		name := strings.TrimSpace(sel.Text())
		if !isValidSubstackURL(href) || name == "" {
			return
		}
		trimmed := strings.TrimRight(href, "/")
		key := urlutil.Normalize(trimmed)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		recs = append(recs, entity.FeedSource{
			Name:    name,
			URL:     trimmed,
			FeedURL: trimmed + "/feed",
			Tags:    []string{"discovered"},
		})
	})

	s.logger.Info("discovered substack recommendations",
		slog.String("source", src.Name),
		slog.Int("count", len(recs)))
	return recs
}

// blogrollLinks probes the common blogroll paths on a source and collects
// outbound links from its content area.
func (s *Service) blogrollLinks(ctx context.Context, src entity.FeedSource) []entity.FeedSource {
	base := strings.TrimRight(src.URL, "/")

	var discovered []entity.FeedSource
	for _, path := range blogrollPaths {
		doc, err := s.get(ctx, base+path)
		if err != nil {
			continue
		}

		doc.Find("article a[href], .entry-content a[href]").Each(func(_ int, sel *goquery.Selection) {
			href, _ := sel.Attr("href")
			name := strings.TrimSpace(sel.Text())
			if !strings.HasPrefix(href, "http") || len(name) <= 2 || !looksLikeBlog(href) {
				return
			}
			discovered = append(discovered, entity.FeedSource{
				Name: name,
				URL:  strings.TrimRight(href, "/"),
				Tags: []string{"discovered", "blogroll"},
			})
		})
	}

	s.logger.Info("discovered blogroll links",
		slog.String("source", src.Name),
		slog.Int("count", len(discovered)))
	return discovered
}

// isCustomSubstack detects Substack publications hosted on their own domain
// by looking for Substack asset markers in the homepage HTML.
func (s *Service) isCustomSubstack(ctx context.Context, pageURL string) bool {
	body, err := s.getBody(ctx, pageURL)
	if err != nil {
		return false
	}
	return strings.Contains(body, "substackcdn.com") || strings.Contains(body, "substack-post")
}

// isValidSubstackURL reports whether a URL looks like a publication root
// rather than an individual post or section page.
func isValidSubstackURL(u string) bool {
	if u == "" || !strings.HasPrefix(u, "http") {
		return false
	}
	if strings.Contains(u, "/p/") || strings.Contains(u, "/s/") {
		return false
	}
	return strings.Contains(u, "substack.com")
}

// looksLikeBlog reports whether a URL plausibly points at a blog homepage.
func looksLikeBlog(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	domain := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	if _, ok := nonBlogDomains[domain]; ok {
		return false
	}
	// homepages have short paths
	return strings.Count(parsed.Path, "/") <= 2
}

func (s *Service) get(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, nil
}

func (s *Service) getBody(ctx context.Context, pageURL string) (string, error) {
	resp, err := s.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var b strings.Builder
	if _, err := io.Copy(&b, io.LimitReader(resp.Body, maxDiscoveryBody)); err != nil {
		return "", fmt.Errorf("read %s: %w", pageURL, err)
	}
	return b.String(), nil
}

const maxDiscoveryBody = 2 << 20

func (s *Service) fetch(ctx context.Context, pageURL string) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// Missing blogroll pages are routine, so only transport failures
	// count against the breaker. Status codes are checked afterwards.
	result, err := s.circuitBreaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	resp := result.(*http.Response)
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: HTTP %d", pageURL, resp.StatusCode)
	}
	return resp, nil
}
