// Package config assembles application settings from the environment and
// loads the followed-feeds list.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	pkgconfig "blog-agent/internal/pkg/config"
)

// Settings holds runtime configuration for the agent. All fields can be set
// through BLOG_AGENT_* environment variables; invalid values fall back to
// defaults with a warning.
type Settings struct {
	// LookbackDays is how many days back to look for new posts.
	LookbackDays int

	// FirefoxProfileDir is the directory holding Firefox profiles.
	FirefoxProfileDir string

	// CheckFirefoxHistory toggles read-state reconciliation.
	CheckFirefoxHistory bool

	// FeedsFile optionally points at a JSON file with custom feed sources.
	FeedsFile string

	// RequestTimeout bounds each feed or page fetch.
	RequestTimeout time.Duration

	// MaxConcurrent bounds parallel feed fetches.
	MaxConcurrent int

	// DatabasePath is the SQLite database location.
	DatabasePath string

	// DatabaseURL, when set, selects PostgreSQL instead of SQLite.
	DatabaseURL string

	// AnthropicAPIKey enables the Claude digest writer.
	AnthropicAPIKey string

	// OpenAIAPIKey enables the OpenAI digest writer when no Anthropic key
	// is present.
	OpenAIAPIKey string
}

// Load reads settings from the environment, logging a warning for every
// value that fell back to its default.
func Load() Settings {
	lookback := pkgconfig.Int("BLOG_AGENT_LOOKBACK_DAYS", 3, pkgconfig.IntRange(1, 90))
	timeout := pkgconfig.Duration("BLOG_AGENT_REQUEST_TIMEOUT", 15*time.Second,
		pkgconfig.DurationRange(time.Second, 2*time.Minute))
	concurrent := pkgconfig.Int("BLOG_AGENT_MAX_CONCURRENT", 5, pkgconfig.IntRange(1, 20))
	checkHistory := pkgconfig.Bool("BLOG_AGENT_CHECK_FIREFOX_HISTORY", true)

	for _, result := range [][]string{lookback.Warnings, timeout.Warnings, concurrent.Warnings, checkHistory.Warnings} {
		for _, warning := range result {
			slog.Warn("configuration fallback applied", slog.String("detail", warning))
		}
	}

	return Settings{
		LookbackDays:        lookback.Value,
		FirefoxProfileDir:   pkgconfig.String("BLOG_AGENT_FIREFOX_PROFILE_DIR", defaultFirefoxProfileDir()),
		CheckFirefoxHistory: checkHistory.Value,
		FeedsFile:           pkgconfig.String("BLOG_AGENT_FEEDS_FILE", ""),
		RequestTimeout:      timeout.Value,
		MaxConcurrent:       concurrent.Value,
		DatabasePath:        pkgconfig.String("BLOG_AGENT_DATABASE_PATH", defaultDatabasePath()),
		DatabaseURL:         pkgconfig.String("DATABASE_URL", ""),
		AnthropicAPIKey:     os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
	}
}

// defaultFirefoxProfileDir returns the platform's Firefox profile root.
func defaultFirefoxProfileDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Firefox", "Profiles")
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "Mozilla", "Firefox", "Profiles")
	default:
		return filepath.Join(home, ".mozilla", "firefox")
	}
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "posts.db"
	}
	return filepath.Join(home, ".config", "blog-agent", "posts.db")
}
