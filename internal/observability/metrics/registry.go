// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Business metrics track application-specific operations
var (
	// PostsTotal tracks total number of posts in the store
	PostsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blog_posts_total",
			Help: "Total number of posts in the store",
		},
	)

	// PostsFetchedTotal counts posts fetched from each source
	PostsFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_posts_fetched_total",
			Help: "Total number of posts fetched from sources",
		},
		[]string{"source"},
	)

	// FeedFetchDuration measures time to fetch and filter one feed
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Duration of a single feed fetch in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// FeedFetchErrors counts feed fetch failures by source and type
	FeedFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_errors_total",
			Help: "Total number of feed fetch errors",
		},
		[]string{"source", "error_type"},
	)

	// PostsMarkedRead counts posts marked read by history reconciliation
	PostsMarkedRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blog_posts_marked_read_total",
			Help: "Total number of posts marked read from browser history",
		},
	)

	// HistoryVisitedURLs tracks the size of the last visited-URL snapshot
	HistoryVisitedURLs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "history_visited_urls",
			Help: "Number of visited URLs in the last history snapshot",
		},
	)

	// DigestsGeneratedTotal counts digest generations by status
	DigestsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digests_generated_total",
			Help: "Total number of digest generations",
		},
		[]string{"status"},
	)

	// DigestDuration measures time to generate a digest
	DigestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_duration_seconds",
			Help:    "Duration of digest generation in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	// CatchupRunDuration measures end-to-end catch-up run time
	CatchupRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catchup_run_duration_seconds",
			Help:    "Duration of a full catch-up run in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)
)
