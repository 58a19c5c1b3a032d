package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-agent/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	settings := config.Load()

	assert.Equal(t, 3, settings.LookbackDays)
	assert.Equal(t, 15*time.Second, settings.RequestTimeout)
	assert.Equal(t, 5, settings.MaxConcurrent)
	assert.True(t, settings.CheckFirefoxHistory)
	assert.NotEmpty(t, settings.FirefoxProfileDir)
	assert.Contains(t, settings.DatabasePath, "blog-agent")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BLOG_AGENT_LOOKBACK_DAYS", "7")
	t.Setenv("BLOG_AGENT_REQUEST_TIMEOUT", "30s")
	t.Setenv("BLOG_AGENT_MAX_CONCURRENT", "10")
	t.Setenv("BLOG_AGENT_CHECK_FIREFOX_HISTORY", "false")
	t.Setenv("BLOG_AGENT_FIREFOX_PROFILE_DIR", "/custom/profiles")
	t.Setenv("BLOG_AGENT_DATABASE_PATH", "/custom/posts.db")

	settings := config.Load()

	assert.Equal(t, 7, settings.LookbackDays)
	assert.Equal(t, 30*time.Second, settings.RequestTimeout)
	assert.Equal(t, 10, settings.MaxConcurrent)
	assert.False(t, settings.CheckFirefoxHistory)
	assert.Equal(t, "/custom/profiles", settings.FirefoxProfileDir)
	assert.Equal(t, "/custom/posts.db", settings.DatabasePath)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("BLOG_AGENT_LOOKBACK_DAYS", "100")
	t.Setenv("BLOG_AGENT_MAX_CONCURRENT", "many")

	settings := config.Load()

	assert.Equal(t, 3, settings.LookbackDays)
	assert.Equal(t, 5, settings.MaxConcurrent)
}

func TestDefaultFeedsCarryPerSourceLimits(t *testing.T) {
	feeds := config.DefaultFeeds()
	require.NotEmpty(t, feeds)

	mr := feeds[0]
	assert.Equal(t, "Marginal Revolution", mr.Name)
	require.NotNil(t, mr.MaxPosts)
	require.NotNil(t, mr.MinComments)
	assert.Equal(t, 5, *mr.MaxPosts)
	assert.Equal(t, 50, *mr.MinComments)

	for _, f := range feeds[1:] {
		assert.Nil(t, f.MaxPosts, f.Name)
		assert.Nil(t, f.MinComments, f.Name)
	}
}

func TestFeedsLoadsCustomJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.json")
	content := `[
		{"name": "Custom Blog", "url": "https://custom.example", "tags": ["misc"], "min_comments": 10}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("BLOG_AGENT_FEEDS_FILE", path)
	settings := config.Load()

	feeds, err := settings.Feeds()
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, "Custom Blog", feeds[0].Name)
	assert.Equal(t, "https://custom.example/feed", feeds[0].ResolveFeedURL())
	require.NotNil(t, feeds[0].MinComments)
	assert.Equal(t, 10, *feeds[0].MinComments)
}

func TestFeedsLoadsCustomYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	content := `
- name: Custom Blog
  url: https://custom.example
  feed_url: https://custom.example/rss
  tags: [misc]
  max_posts: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	feeds, err := config.LoadFeedsFile(path)
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, "https://custom.example/rss", feeds[0].ResolveFeedURL())
	require.NotNil(t, feeds[0].MaxPosts)
	assert.Equal(t, 3, *feeds[0].MaxPosts)
}

func TestFeedsErrorsOnBadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	t.Setenv("BLOG_AGENT_FEEDS_FILE", path)
	settings := config.Load()

	_, err := settings.Feeds()
	assert.Error(t, err)

	t.Setenv("BLOG_AGENT_FEEDS_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = config.Load().Feeds()
	assert.Error(t, err)
}

func TestFeedsWithoutFileUsesDefaults(t *testing.T) {
	settings := config.Load()
	settings.FeedsFile = ""

	feeds, err := settings.Feeds()
	require.NoError(t, err)
	assert.Equal(t, len(config.DefaultFeeds()), len(feeds))
}

func TestLoadFeedsFileRejectsInvalidSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"url": "https://nameless.example"}]`), 0o600))

	_, err := config.LoadFeedsFile(path)
	assert.Error(t, err)
}
