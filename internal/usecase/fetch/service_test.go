package fetch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"blog-agent/internal/domain/entity"
	fetchUC "blog-agent/internal/usecase/fetch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubScraper returns canned items per feed URL.
type stubScraper struct {
	mu       sync.Mutex
	items    map[string][]fetchUC.FeedItem
	err      error
	inFlight int
	maxSeen  int
}

func (s *stubScraper) Fetch(_ context.Context, feedURL string) ([]fetchUC.FeedItem, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	s.mu.Unlock()

	time.Sleep(time.Millisecond)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	return s.items[feedURL], nil
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func hoursAgo(h int) *time.Time {
	t := time.Now().UTC().Add(-time.Duration(h) * time.Hour)
	return &t
}

func testConfig() fetchUC.Config {
	return fetchUC.Config{LookbackDays: 3, Timeout: 5 * time.Second, MaxConcurrent: 3}
}

func TestFetchSourceReturnsEmptyOnError(t *testing.T) {
	scraper := &stubScraper{err: errors.New("connection refused")}
	svc := fetchUC.NewService(scraper, testConfig())

	src := &entity.FeedSource{Name: "Broken", URL: "https://broken.example"}
	posts := svc.FetchSource(context.Background(), src)
	assert.Empty(t, posts)
}

func TestFetchSourceDropsStalePosts(t *testing.T) {
	scraper := &stubScraper{items: map[string][]fetchUC.FeedItem{
		"https://blog.example/feed": {
			{Title: "fresh", URL: "https://blog.example/fresh", Published: hoursAgo(2)},
			{Title: "stale", URL: "https://blog.example/stale", Published: hoursAgo(24 * 10)},
			{Title: "undated", URL: "https://blog.example/undated"},
		},
	}}
	svc := fetchUC.NewService(scraper, testConfig())

	src := &entity.FeedSource{Name: "Blog", URL: "https://blog.example"}
	posts := svc.FetchSource(context.Background(), src)

	require.Len(t, posts, 2)
	urls := []string{posts[0].URL, posts[1].URL}
	assert.Contains(t, urls, "https://blog.example/fresh")
	assert.Contains(t, urls, "https://blog.example/undated", "posts without a date must never be dropped by the recency filter")
}

func TestFetchSourceEngagementFloor(t *testing.T) {
	scraper := &stubScraper{items: map[string][]fetchUC.FeedItem{
		"https://busy.example/feed": {
			{Title: "popular", URL: "https://busy.example/a", Published: hoursAgo(1), Comments: intPtr(120)},
			{Title: "quiet", URL: "https://busy.example/b", Published: hoursAgo(2), Comments: intPtr(30)},
			{Title: "dead", URL: "https://busy.example/c", Published: hoursAgo(3), Comments: intPtr(5)},
			{Title: "uncounted", URL: "https://busy.example/d", Published: hoursAgo(4)},
		},
	}}
	svc := fetchUC.NewService(scraper, testConfig())

	src := &entity.FeedSource{Name: "Busy", URL: "https://busy.example", MinComments: intPtr(50)}
	posts := svc.FetchSource(context.Background(), src)

	require.Len(t, posts, 1)
	assert.Equal(t, "https://busy.example/a", posts[0].URL)
}

func TestFetchSourceMaxPostsKeepsNewest(t *testing.T) {
	scraper := &stubScraper{items: map[string][]fetchUC.FeedItem{
		"https://busy.example/feed": {
			{Title: "oldest", URL: "https://busy.example/1", Published: hoursAgo(30)},
			{Title: "newest", URL: "https://busy.example/2", Published: hoursAgo(1)},
			{Title: "middle", URL: "https://busy.example/3", Published: hoursAgo(10)},
		},
	}}
	svc := fetchUC.NewService(scraper, testConfig())

	src := &entity.FeedSource{Name: "Busy", URL: "https://busy.example", MaxPosts: intPtr(2)}
	posts := svc.FetchSource(context.Background(), src)

	require.Len(t, posts, 2)
	assert.Equal(t, "newest", posts[0].Title)
	assert.Equal(t, "middle", posts[1].Title)
}

func TestFetchSourceFiltersComposeFloorThenCap(t *testing.T) {
	scraper := &stubScraper{items: map[string][]fetchUC.FeedItem{
		"https://busy.example/feed": {
			{Title: "a", URL: "https://busy.example/a", Published: hoursAgo(1), Comments: intPtr(10)},
			{Title: "b", URL: "https://busy.example/b", Published: hoursAgo(2), Comments: intPtr(80)},
			{Title: "c", URL: "https://busy.example/c", Published: hoursAgo(3), Comments: intPtr(60)},
			{Title: "d", URL: "https://busy.example/d", Published: hoursAgo(4), Comments: intPtr(90)},
		},
	}}
	svc := fetchUC.NewService(scraper, testConfig())

	src := &entity.FeedSource{
		Name:        "Busy",
		URL:         "https://busy.example",
		MinComments: intPtr(50),
		MaxPosts:    intPtr(2),
	}
	posts := svc.FetchSource(context.Background(), src)

	// Engagement floor removes "a"; the cap then keeps the 2 newest of b/c/d.
	require.Len(t, posts, 2)
	assert.Equal(t, "b", posts[0].Title)
	assert.Equal(t, "c", posts[1].Title)
}

func TestFetchSourceFallbacks(t *testing.T) {
	scraper := &stubScraper{items: map[string][]fetchUC.FeedItem{
		"https://blog.example/feed": {
			{URL: "https://blog.example/x", Published: hoursAgo(1)},
		},
	}}
	svc := fetchUC.NewService(scraper, testConfig())

	src := &entity.FeedSource{Name: "My Blog", URL: "https://blog.example"}
	posts := svc.FetchSource(context.Background(), src)

	require.Len(t, posts, 1)
	assert.Equal(t, "Untitled", posts[0].Title)
	assert.Equal(t, "My Blog", posts[0].Author, "author falls back to the source display name")
	assert.Equal(t, "My Blog", posts[0].SourceName)
}

func TestFetchAllSortsNewestFirstUndatedLast(t *testing.T) {
	scraper := &stubScraper{items: map[string][]fetchUC.FeedItem{
		"https://one.example/feed": {
			{Title: "one hour ago", URL: "https://one.example/p", Published: hoursAgo(1)},
		},
		"https://two.example/feed": {
			{Title: "two hours ago", URL: "https://two.example/p", Published: hoursAgo(2)},
			{Title: "undated", URL: "https://two.example/u"},
		},
	}}
	svc := fetchUC.NewService(scraper, testConfig())

	sources := []*entity.FeedSource{
		{Name: "One", URL: "https://one.example"},
		{Name: "Two", URL: "https://two.example"},
	}
	posts := svc.FetchAll(context.Background(), sources)

	require.Len(t, posts, 3)
	assert.Equal(t, "one hour ago", posts[0].Title)
	assert.Equal(t, "two hours ago", posts[1].Title)
	assert.Equal(t, "undated", posts[2].Title)
}

func TestFetchAllStableOrderForEqualDates(t *testing.T) {
	shared := hoursAgo(2)
	scraper := &stubScraper{items: map[string][]fetchUC.FeedItem{
		"https://one.example/feed": {
			{Title: "first", URL: "https://one.example/p", Published: shared},
		},
		"https://two.example/feed": {
			{Title: "second", URL: "https://two.example/p", Published: shared},
		},
	}}
	svc := fetchUC.NewService(scraper, testConfig())

	sources := []*entity.FeedSource{
		{Name: "One", URL: "https://one.example"},
		{Name: "Two", URL: "https://two.example"},
	}

	// Source order must be preserved for equal dates on every run.
	for i := 0; i < 5; i++ {
		posts := svc.FetchAll(context.Background(), sources)
		require.Len(t, posts, 2)
		assert.Equal(t, "first", posts[0].Title)
		assert.Equal(t, "second", posts[1].Title)
	}
}

func TestFetchAllRespectsConcurrencyLimit(t *testing.T) {
	items := map[string][]fetchUC.FeedItem{}
	var sources []*entity.FeedSource
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		url := "https://" + name + ".example"
		items[url+"/feed"] = []fetchUC.FeedItem{{Title: name, URL: url + "/p", Published: hoursAgo(1)}}
		sources = append(sources, &entity.FeedSource{Name: name, URL: url})
	}

	scraper := &stubScraper{items: items}
	cfg := testConfig()
	cfg.MaxConcurrent = 2
	svc := fetchUC.NewService(scraper, cfg)

	posts := svc.FetchAll(context.Background(), sources)
	require.Len(t, posts, 6)
	assert.LessOrEqual(t, scraper.maxSeen, 2, "no more than MaxConcurrent fetches may be in flight")
}

func TestFetchAllOneBadSourceDoesNotAbortOthers(t *testing.T) {
	// The scraper errors for every source here; FetchAll must still
	// return cleanly with zero posts rather than failing.
	scraper := &stubScraper{err: errors.New("boom")}
	svc := fetchUC.NewService(scraper, testConfig())

	posts := svc.FetchAll(context.Background(), []*entity.FeedSource{
		{Name: "One", URL: "https://one.example"},
		{Name: "Two", URL: "https://two.example"},
	})
	assert.Empty(t, posts)
}
