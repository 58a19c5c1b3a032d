// The agent is the interactive CLI: it runs one catch-up pass and prints the
// results to the terminal, optionally with an AI digest and blog discovery.
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"blog-agent/internal/config"
	"blog-agent/internal/domain/entity"
	"blog-agent/internal/infra/adapter/persistence/sqlite"
	"blog-agent/internal/infra/fetcher"
	"blog-agent/internal/infra/history"
	"blog-agent/internal/infra/scraper"
	"blog-agent/internal/infra/summarizer"
	"blog-agent/internal/repository"
	"blog-agent/internal/usecase/catchup"
	digestUC "blog-agent/internal/usecase/digest"
	"blog-agent/internal/usecase/discover"
	fetchUC "blog-agent/internal/usecase/fetch"
	"blog-agent/internal/usecase/reconcile"
)

func main() {
	days := flag.Int("days", 0, "days to look back (default from BLOG_AGENT_LOOKBACK_DAYS or 3)")
	noHistory := flag.Bool("no-history", false, "skip the Firefox history check")
	withDigest := flag.Bool("digest", false, "generate an AI digest of the posts")
	withDiscover := flag.Bool("discover", false, "also discover related blogs")
	feedsFile := flag.String("feeds-file", "", "YAML or JSON file with custom feed sources")
	unreadOnly := flag.Bool("unread-only", false, "show only unread posts")
	verbose := flag.Bool("verbose", false, "verbose logging")
	flag.Parse()

	logger := initLogger(*verbose)

	settings := config.Load()
	if *days > 0 {
		settings.LookbackDays = *days
	}
	if *feedsFile != "" {
		settings.FeedsFile = *feedsFile
	}
	if *noHistory {
		settings.CheckFirefoxHistory = false
	}

	sources, err := settings.Feeds()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load feeds file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nBlog Discovery Agent: checking %d feeds (last %d days)\n\n",
		len(sources), settings.LookbackDays)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postRepo, digestRepo, cleanup := openStorage(logger, settings)
	defer cleanup()

	svc := buildService(logger, settings, postRepo, digestRepo, *withDigest)

	result, err := svc.Run(ctx, sources, catchup.Options{
		LookbackDays: settings.LookbackDays,
		WithDigest:   *withDigest,
		WithDiscover: *withDiscover,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "catch-up run failed: %v\n", err)
		os.Exit(1)
	}

	renderPosts(filterUnread(result.Posts, *unreadOnly), "Your Blog Posts")

	if *withDigest {
		if result.HasDigest {
			fmt.Printf("\n%s\n\n", result.Digest)
		} else {
			fmt.Println("\nCould not generate digest. Make sure ANTHROPIC_API_KEY or OPENAI_API_KEY is set.")
		}
	}

	if *withDiscover {
		renderDiscovered(result.Discovered)
		if len(result.DiscoveredPosts) > 0 {
			renderPosts(filterUnread(result.DiscoveredPosts, *unreadOnly), "Posts from Discovered Blogs")
		}
	}
}

func initLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// openStorage opens the SQLite database. Storage is best-effort for the CLI:
// on failure the run continues without persistence.
func openStorage(logger *slog.Logger, settings config.Settings) (repository.PostRepository, repository.DigestRepository, func()) {
	db, err := sqlite.Open(settings.DatabasePath)
	if err != nil {
		logger.Warn("could not open database, persistence disabled",
			slog.String("path", settings.DatabasePath),
			slog.String("error", err.Error()))
		return nil, nil, func() {}
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", slog.String("error", err.Error()))
		}
	}
	return sqlite.NewPostRepo(db), sqlite.NewDigestRepo(db), cleanup
}

func buildService(
	logger *slog.Logger,
	settings config.Settings,
	postRepo repository.PostRepository,
	digestRepo repository.DigestRepository,
	withDigest bool,
) *catchup.Service {
	httpClient := &http.Client{
		Timeout: settings.RequestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}

	fetchService := fetchUC.NewService(scraper.NewRSSFetcher(httpClient), fetchUC.Config{
		LookbackDays:  settings.LookbackDays,
		Timeout:       settings.RequestTimeout,
		MaxConcurrent: settings.MaxConcurrent,
	})

	var historyStore reconcile.HistoryStore
	if settings.CheckFirefoxHistory && settings.FirefoxProfileDir != "" {
		historyStore = history.NewFirefox(settings.FirefoxProfileDir)
	}
	reconciler := reconcile.NewService(historyStore)

	var writer digestUC.Writer
	var content digestUC.ContentFetcher
	if withDigest {
		switch {
		case settings.AnthropicAPIKey != "":
			writer = summarizer.NewClaude(settings.AnthropicAPIKey)
		case settings.OpenAIAPIKey != "":
			writer = summarizer.NewOpenAI(settings.OpenAIAPIKey)
		}
		if writer != nil {
			content = fetcher.NewReadability(fetcher.DefaultConfig())
		}
	}
	digestService := digestUC.NewService(writer, digestRepo, content, logger)

	discoverer := discover.NewService(httpClient, logger)

	return catchup.NewService(fetchService, reconciler, postRepo, digestService, discoverer, logger)
}

func filterUnread(posts []*entity.BlogPost, unreadOnly bool) []*entity.BlogPost {
	if !unreadOnly {
		return posts
	}
	var unread []*entity.BlogPost
	for _, p := range posts {
		if !p.IsRead {
			unread = append(unread, p)
		}
	}
	return unread
}

func renderPosts(posts []*entity.BlogPost, title string) {
	if len(posts) == 0 {
		fmt.Println("No new posts found.")
		return
	}

	fmt.Printf("%s\n\n", title)
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTITLE\tAUTHOR / SOURCE\tPUBLISHED\tCOMMENTS\tREAD\tLINK")

	unread := 0
	for i, post := range posts {
		if !post.IsRead {
			unread++
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			truncate(post.Title, 55),
			truncate(post.Author, 25),
			formatDate(post.Published),
			formatComments(post.Comments),
			formatRead(post.IsRead),
			post.URL,
		)
	}
	_ = w.Flush()

	fmt.Printf("\n%d posts found, %d unread\n", len(posts), unread)
}

func renderDiscovered(feeds []entity.FeedSource) {
	if len(feeds) == 0 {
		fmt.Println("\nNo new blogs discovered.")
		return
	}

	fmt.Printf("\nFound %d new blogs to explore:\n\n", len(feeds))
	for i, feed := range feeds {
		fmt.Printf("%3d. %s\n     %s\n", i+1, feed.Name, feed.URL)
		if len(feed.Tags) > 0 {
			fmt.Printf("     tags: %v\n", feed.Tags)
		}
	}
}

func formatDate(published *time.Time) string {
	if published == nil {
		return "-"
	}
	delta := time.Now().UTC().Sub(*published)
	days := int(delta.Hours() / 24)
	switch {
	case days == 0 && delta < time.Hour:
		return "just now"
	case days == 0:
		return fmt.Sprintf("%dh ago", int(delta.Hours()))
	case days == 1:
		return "yesterday"
	default:
		return fmt.Sprintf("%dd ago", days)
	}
}

func formatComments(comments *int) string {
	if comments == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *comments)
}

func formatRead(isRead bool) string {
	if isRead {
		return "yes"
	}
	return "no"
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
