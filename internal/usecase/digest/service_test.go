package digest_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-agent/internal/domain/entity"
	"blog-agent/internal/repository"
	"blog-agent/internal/usecase/digest"
)

type stubWriter struct {
	digestText   string
	digestErr    error
	gotPosts     []*entity.BlogPost
	gotLookback  int
	reasons      map[string]string
	reasonsErr   error
	gotCandidate []entity.FeedSource
}

func (w *stubWriter) Digest(_ context.Context, posts []*entity.BlogPost, lookbackDays int) (string, error) {
	w.gotPosts = posts
	w.gotLookback = lookbackDays
	return w.digestText, w.digestErr
}

func (w *stubWriter) SuggestionReasons(_ context.Context, candidates, _, _ []entity.FeedSource) (map[string]string, error) {
	w.gotCandidate = candidates
	return w.reasons, w.reasonsErr
}

type stubRepo struct {
	savedContent  string
	savedLookback int
	saveErr       error
	savedReasons  map[string]string
}

func (r *stubRepo) SaveDigest(_ context.Context, content string, lookbackDays int) error {
	r.savedContent = content
	r.savedLookback = lookbackDays
	return r.saveErr
}

func (r *stubRepo) LatestDigest(_ context.Context) (*repository.Digest, error) {
	return nil, entity.ErrNotFound
}

func (r *stubRepo) SaveSuggestionReasons(_ context.Context, reasons map[string]string) error {
	r.savedReasons = reasons
	return nil
}

func (r *stubRepo) SuggestionReasons(_ context.Context) (map[string]string, error) {
	return r.savedReasons, nil
}

type stubContent struct {
	pages   map[string]string
	err     error
	fetched []string
}

func (c *stubContent) FetchContent(_ context.Context, url string) (string, error) {
	c.fetched = append(c.fetched, url)
	if c.err != nil {
		return "", c.err
	}
	return c.pages[url], nil
}

func somePosts() []*entity.BlogPost {
	return []*entity.BlogPost{
		{Title: "Post A", URL: "https://a.example/post", SourceName: "A"},
		{Title: "Post B", URL: "https://b.example/post", SourceName: "B"},
	}
}

func TestGenerateWithoutWriterIsAbsent(t *testing.T) {
	svc := digest.NewService(nil, &stubRepo{}, nil, nil)

	text, ok := svc.Generate(context.Background(), somePosts(), 3)

	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestGenerateWithNoPostsIsAbsent(t *testing.T) {
	writer := &stubWriter{digestText: "should not be called"}
	svc := digest.NewService(writer, &stubRepo{}, nil, nil)

	_, ok := svc.Generate(context.Background(), nil, 3)

	assert.False(t, ok)
	assert.Nil(t, writer.gotPosts)
}

func TestGenerateWriterFailureDegradesToAbsent(t *testing.T) {
	writer := &stubWriter{digestErr: errors.New("api down")}
	repo := &stubRepo{}
	svc := digest.NewService(writer, repo, nil, nil)

	text, ok := svc.Generate(context.Background(), somePosts(), 3)

	assert.False(t, ok)
	assert.Empty(t, text)
	assert.Empty(t, repo.savedContent)
}

func TestGeneratePersistsDigest(t *testing.T) {
	writer := &stubWriter{digestText: "the weekly roundup"}
	repo := &stubRepo{}
	svc := digest.NewService(writer, repo, nil, nil)

	text, ok := svc.Generate(context.Background(), somePosts(), 7)

	require.True(t, ok)
	assert.Equal(t, "the weekly roundup", text)
	assert.Equal(t, "the weekly roundup", repo.savedContent)
	assert.Equal(t, 7, repo.savedLookback)
	assert.Equal(t, 7, writer.gotLookback)
}

func TestGenerateSurvivesPersistenceFailure(t *testing.T) {
	writer := &stubWriter{digestText: "still delivered"}
	repo := &stubRepo{saveErr: errors.New("disk full")}
	svc := digest.NewService(writer, repo, nil, nil)

	text, ok := svc.Generate(context.Background(), somePosts(), 3)

	require.True(t, ok)
	assert.Equal(t, "still delivered", text)
}

func TestGenerateEnrichesThinSummaries(t *testing.T) {
	longSummary := strings.Repeat("already detailed feed summary. ", 10)
	posts := []*entity.BlogPost{
		{Title: "Thin", URL: "https://thin.example/post", Summary: "short"},
		{Title: "Rich", URL: "https://rich.example/post", Summary: longSummary},
	}
	content := &stubContent{pages: map[string]string{
		"https://thin.example/post": "full article body recovered from the page",
	}}
	writer := &stubWriter{digestText: "digest"}
	svc := digest.NewService(writer, &stubRepo{}, content, nil)

	_, ok := svc.Generate(context.Background(), posts, 3)

	require.True(t, ok)
	assert.Equal(t, []string{"https://thin.example/post"}, content.fetched)

	require.Len(t, writer.gotPosts, 2)
	assert.Equal(t, "full article body recovered from the page", writer.gotPosts[0].Summary)
	assert.Equal(t, longSummary, writer.gotPosts[1].Summary)

	// originals stay untouched so the persisted rows keep the feed summary
	assert.Equal(t, "short", posts[0].Summary)
}

func TestGenerateEnrichmentFailureKeepsFeedSummary(t *testing.T) {
	posts := []*entity.BlogPost{
		{Title: "Thin", URL: "https://thin.example/post", Summary: "short"},
	}
	content := &stubContent{err: errors.New("timeout")}
	writer := &stubWriter{digestText: "digest"}
	svc := digest.NewService(writer, &stubRepo{}, content, nil)

	_, ok := svc.Generate(context.Background(), posts, 3)

	require.True(t, ok)
	require.Len(t, writer.gotPosts, 1)
	assert.Equal(t, "short", writer.gotPosts[0].Summary)
}

func TestExplainSuggestionsPersistsReasons(t *testing.T) {
	candidates := []entity.FeedSource{{Name: "New Blog", URL: "https://newblog.example"}}
	writer := &stubWriter{reasons: map[string]string{"https://newblog.example": "fits your interests"}}
	repo := &stubRepo{}
	svc := digest.NewService(writer, repo, nil, nil)

	reasons := svc.ExplainSuggestions(context.Background(), candidates, nil, nil)

	assert.Equal(t, "fits your interests", reasons["https://newblog.example"])
	assert.Equal(t, reasons, repo.savedReasons)
}

func TestExplainSuggestionsDegradesToEmpty(t *testing.T) {
	candidates := []entity.FeedSource{{Name: "New Blog", URL: "https://newblog.example"}}

	t.Run("no writer", func(t *testing.T) {
		svc := digest.NewService(nil, &stubRepo{}, nil, nil)
		assert.Empty(t, svc.ExplainSuggestions(context.Background(), candidates, nil, nil))
	})

	t.Run("writer error", func(t *testing.T) {
		writer := &stubWriter{reasonsErr: errors.New("api down")}
		svc := digest.NewService(writer, &stubRepo{}, nil, nil)
		assert.Empty(t, svc.ExplainSuggestions(context.Background(), candidates, nil, nil))
	})
}
