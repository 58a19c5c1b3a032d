package metrics

import "time"

// RecordPostsFetched records the number of posts fetched from a source.
func RecordPostsFetched(sourceName string, count int) {
	PostsFetchedTotal.WithLabelValues(sourceName).Add(float64(count))
}

// RecordFeedFetch records the duration of a single feed fetch.
func RecordFeedFetch(sourceName string, duration time.Duration) {
	FeedFetchDuration.WithLabelValues(sourceName).Observe(duration.Seconds())
}

// RecordFeedFetchError records a feed fetch failure.
// errorType is a coarse classification such as "fetch_failed" or "parse_failed".
func RecordFeedFetchError(sourceName, errorType string) {
	FeedFetchErrors.WithLabelValues(sourceName, errorType).Inc()
}

// RecordReconciliation records the outcome of a history reconciliation pass.
func RecordReconciliation(visitedURLs, markedRead int) {
	HistoryVisitedURLs.Set(float64(visitedURLs))
	PostsMarkedRead.Add(float64(markedRead))
}

// RecordDigestGenerated records the result of a digest generation.
func RecordDigestGenerated(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	DigestsGeneratedTotal.WithLabelValues(status).Inc()
	DigestDuration.Observe(duration.Seconds())
}

// RecordCatchupRun records the duration of a full catch-up run.
func RecordCatchupRun(duration time.Duration) {
	CatchupRunDuration.Observe(duration.Seconds())
}

// UpdatePostsTotal updates the stored-post gauge.
func UpdatePostsTotal(count int64) {
	PostsTotal.Set(float64(count))
}
