package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"blog-agent/internal/domain/entity"
)

// DefaultFeeds returns the built-in list of followed blogs, used when no
// feeds file is configured.
func DefaultFeeds() []entity.FeedSource {
	maxPosts := 5
	minComments := 50
	return []entity.FeedSource{
		{
			Name:        "Marginal Revolution",
			URL:         "https://marginalrevolution.com/",
			FeedURL:     "https://marginalrevolution.com/feed",
			Tags:        []string{"economics", "culture"},
			MaxPosts:    &maxPosts,
			MinComments: &minComments,
		},
		{
			Name:    "Bet On It (Bryan Caplan)",
			URL:     "https://www.betonit.ai/",
			FeedURL: "https://www.betonit.ai/feed",
			Tags:    []string{"economics", "prediction"},
		},
		{
			Name:    "Cremieux Recueil",
			URL:     "https://www.cremieux.xyz/",
			FeedURL: "https://www.cremieux.xyz/feed",
			Tags:    []string{"data", "science", "statistics"},
		},
		{
			Name:    "Astral Codex Ten",
			URL:     "https://www.astralcodexten.com/",
			FeedURL: "https://www.astralcodexten.com/feed",
			Tags:    []string{"rationality", "science", "culture"},
		},
		{
			Name:    "A Collection of Unmitigated Pedantry",
			URL:     "https://acoup.blog/",
			FeedURL: "https://acoup.blog/feed/",
			Tags:    []string{"history", "military", "culture"},
		},
		{
			Name:    "The Zvi",
			URL:     "https://thezvi.substack.com/",
			FeedURL: "https://thezvi.substack.com/feed",
			Tags:    []string{"rationality", "AI", "culture"},
		},
		{
			Name:    "Derek Thompson",
			URL:     "https://www.derekthompson.org/",
			FeedURL: "https://www.derekthompson.org/feed",
			Tags:    []string{"culture", "economics", "media"},
		},
	}
}

// LoadFeedsFile reads feed sources from a YAML or JSON file (picked by
// extension, YAML by default). Every source is validated; the first invalid
// entry aborts the load.
func LoadFeedsFile(path string) ([]entity.FeedSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	var sources []entity.FeedSource
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, &sources); err != nil {
			return nil, fmt.Errorf("parse feeds file %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &sources); err != nil {
			return nil, fmt.Errorf("parse feeds file %s: %w", path, err)
		}
	}

	for i := range sources {
		if err := sources[i].Validate(); err != nil {
			return nil, fmt.Errorf("feeds file %s entry %d: %w", path, i, err)
		}
	}
	return sources, nil
}

// Feeds resolves the feed list: the configured feeds file when set, the
// built-in defaults otherwise. An explicitly configured file that cannot be
// loaded is an error; callers treat it as fatal.
func (s Settings) Feeds() ([]entity.FeedSource, error) {
	if s.FeedsFile == "" {
		return DefaultFeeds(), nil
	}
	return LoadFeedsFile(s.FeedsFile)
}
