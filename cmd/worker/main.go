// The worker runs the catch-up pipeline on a cron schedule and exposes
// Prometheus metrics and health probes.
package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	"blog-agent/internal/config"
	"blog-agent/internal/domain/entity"
	"blog-agent/internal/infra/adapter/persistence/postgres"
	"blog-agent/internal/infra/adapter/persistence/sqlite"
	"blog-agent/internal/infra/fetcher"
	"blog-agent/internal/infra/history"
	"blog-agent/internal/infra/scraper"
	"blog-agent/internal/infra/summarizer"
	workerPkg "blog-agent/internal/infra/worker"
	"blog-agent/internal/observability/logging"
	"blog-agent/internal/repository"
	"blog-agent/internal/usecase/catchup"
	digestUC "blog-agent/internal/usecase/digest"
	"blog-agent/internal/usecase/discover"
	fetchUC "blog-agent/internal/usecase/fetch"
	"blog-agent/internal/usecase/reconcile"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	settings := config.Load()
	workerConfig := workerPkg.LoadConfigFromEnv(logger)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("run_timeout", workerConfig.RunTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Bool("with_digest", workerConfig.WithDigest),
		slog.Bool("with_discover", workerConfig.WithDiscover))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, postRepo, digestRepo, err := openStorage(logger, settings)
	if err != nil {
		logger.Error("failed to open storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	svc := buildCatchupService(logger, settings, postRepo, digestRepo)
	sources, err := settings.Feeds()
	if err != nil {
		logger.Error("failed to load feeds file", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("feed sources loaded", slog.Int("count", len(sources)))

	runCatchup(ctx, logger, svc, sources, settings, workerConfig)
	startCronWorker(ctx, logger, svc, sources, settings, workerConfig, healthServer)
}

// openStorage selects PostgreSQL when DATABASE_URL is set, SQLite otherwise.
func openStorage(logger *slog.Logger, settings config.Settings) (*sql.DB, repository.PostRepository, repository.DigestRepository, error) {
	if settings.DatabaseURL != "" {
		db, err := sql.Open("pgx", settings.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if _, err := db.Exec(postgres.Schema()); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("apply postgres schema: %w", err)
		}
		logger.Info("using PostgreSQL storage")
		return db, postgres.NewPostRepo(db), nil, nil
	}

	db, err := sqlite.Open(settings.DatabasePath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	logger.Info("using SQLite storage", slog.String("path", settings.DatabasePath))
	return db, sqlite.NewPostRepo(db), sqlite.NewDigestRepo(db), nil
}

// buildCatchupService wires the full pipeline from configuration.
func buildCatchupService(
	logger *slog.Logger,
	settings config.Settings,
	postRepo repository.PostRepository,
	digestRepo repository.DigestRepository,
) *catchup.Service {
	httpClient := newHTTPClient(settings.RequestTimeout)

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

	writer := buildDigestWriter(logger, settings)
	var content digestUC.ContentFetcher
	if writer != nil {
		content = fetcher.NewReadability(fetcher.DefaultConfig())
	}
	digestService := digestUC.NewService(writer, digestRepo, content, logger)

	discoverer := discover.NewService(httpClient, logger)

	return catchup.NewService(fetchService, reconciler, postRepo, digestService, discoverer, logger)
}

// buildDigestWriter picks the AI backend by available API key. Anthropic
// wins when both are set; no key means no digest.
func buildDigestWriter(logger *slog.Logger, settings config.Settings) digestUC.Writer {
	switch {
	case settings.AnthropicAPIKey != "":
		return summarizer.NewClaude(settings.AnthropicAPIKey)
	case settings.OpenAIAPIKey != "":
		return summarizer.NewOpenAI(settings.OpenAIAPIKey)
	default:
		logger.Info("no AI API key configured, digest generation disabled")
		return nil
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// startCronWorker schedules catch-up runs and blocks until shutdown.
func startCronWorker(
	ctx context.Context,
	logger *slog.Logger,
	svc *catchup.Service,
	sources []entity.FeedSource,
	settings config.Settings,
	cfg workerPkg.Config,
	healthServer *workerPkg.HealthServer,
) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC",
			slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.CronSchedule, func() {
		runCatchup(ctx, logger, svc, sources, settings, cfg)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	logger.Info("shutdown signal received")

	cronCtx := c.Stop()
	<-cronCtx.Done()
	logger.Info("worker stopped")
}

// runCatchup executes one pipeline run under the configured timeout.
func runCatchup(
	ctx context.Context,
	logger *slog.Logger,
	svc *catchup.Service,
	sources []entity.FeedSource,
	settings config.Settings,
	cfg workerPkg.Config,
) {
	runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	logger.Info("catch-up run started", slog.Int("sources", len(sources)))

	result, err := svc.Run(runCtx, sources, catchup.Options{
		LookbackDays: settings.LookbackDays,
		WithDigest:   cfg.WithDigest,
		WithDiscover: cfg.WithDiscover,
	})
	if err != nil {
		logger.Error("catch-up run failed", slog.Any("error", err))
		return
	}

	logger.Info("catch-up run completed",
		slog.Int("posts", len(result.Posts)),
		slog.Int("new_posts", result.NewPosts),
		slog.Int("marked_read", result.MarkedRead),
		slog.Bool("digest", result.HasDigest),
		slog.Int("discovered", len(result.Discovered)))
}
