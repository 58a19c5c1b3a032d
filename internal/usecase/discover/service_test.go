package discover_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-agent/internal/domain/entity"
	"blog-agent/internal/usecase/discover"
)

func newService() *discover.Service {
	return discover.NewService(&http.Client{}, nil)
}

func TestDiscoverSubstackRecommendations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		// custom-domain publication, detected via asset marker
		fmt.Fprint(w, `<html><head><script src="https://substackcdn.com/bundle.js"></script></head><body></body></html>`)
	})
	mux.HandleFunc("/recommendations", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="https://alpha.substack.com/">Alpha Letters</a>
			<a href="https://alpha.substack.com">Alpha Letters Again</a>
			<a href="https://beta.substack.com/p/some-post">A Single Post</a>
			<a href="https://gamma.substack.com/s/section">A Section</a>
			<a href="https://delta.substack.com/">  </a>
			<a href="https://omega.substack.com/">Omega Weekly</a>
		</body></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc := newService()
	source := entity.FeedSource{Name: "My Blog", URL: server.URL}

	found := svc.DiscoverRelated(context.Background(), []entity.FeedSource{source})

	require.Len(t, found, 2)
	assert.Equal(t, "Alpha Letters", found[0].Name)
	assert.Equal(t, "https://alpha.substack.com", found[0].URL)
	assert.Equal(t, "https://alpha.substack.com/feed", found[0].FeedURL)
	assert.Equal(t, []string{"discovered"}, found[0].Tags)
	assert.Equal(t, "Omega Weekly", found[1].Name)
}

func TestDiscoverSkipsNonSubstackSources(t *testing.T) {
	recommendationsHit := false
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>a plain wordpress blog</body></html>`)
	})
	mux.HandleFunc("/recommendations", func(w http.ResponseWriter, _ *http.Request) {
		recommendationsHit = true
		fmt.Fprint(w, `<html><body><a href="https://alpha.substack.com/">Alpha</a></body></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc := newService()
	source := entity.FeedSource{Name: "Plain Blog", URL: server.URL}

	found := svc.DiscoverRelated(context.Background(), []entity.FeedSource{source})

	assert.Empty(t, found)
	assert.False(t, recommendationsHit)
}

func TestDiscoverBlogrollLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>not a substack</body></html>`)
	})
	mux.HandleFunc("/blogroll", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><article>
			<a href="https://goodblog.example/">A Good Blog</a>
			<a href="https://twitter.com/someone">Follow Me</a>
			<a href="https://deep.example/a/b/c/d">Too Deep A Path</a>
			<a href="https://tiny.example/">ab</a>
			<a href="/relative">Relative Link</a>
		</article></body></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc := newService()
	source := entity.FeedSource{Name: "WP Blog", URL: server.URL}

	found := svc.DiscoverRelated(context.Background(), []entity.FeedSource{source})

	require.Len(t, found, 1)
	assert.Equal(t, "A Good Blog", found[0].Name)
	assert.Equal(t, "https://goodblog.example", found[0].URL)
	assert.Equal(t, []string{"discovered", "blogroll"}, found[0].Tags)
}

func TestDiscoverExcludesAlreadyFollowedBlogs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>not a substack</body></html>`)
	})
	mux.HandleFunc("/links", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><div class="entry-content">
			<a href="https://known.example/">Already Followed</a>
			<a href="https://fresh.example/">Brand New</a>
		</div></body></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc := newService()
	sources := []entity.FeedSource{
		{Name: "WP Blog", URL: server.URL},
		{Name: "Known", URL: "https://known.example"},
	}

	found := svc.DiscoverRelated(context.Background(), sources)

	require.Len(t, found, 1)
	assert.Equal(t, "Brand New", found[0].Name)
}

func TestDiscoverToleratesUnreachableSources(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := newService()
	source := entity.FeedSource{Name: "Broken", URL: server.URL}

	found := svc.DiscoverRelated(context.Background(), []entity.FeedSource{source})

	assert.Empty(t, found)
}
