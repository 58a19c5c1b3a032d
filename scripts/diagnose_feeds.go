// Standalone diagnostics for the configured feed list. It probes every feed
// URL, reports HTTP status, item counts, and freshness, and writes a JSON
// report alongside the console table.
//
// Usage:
//
//	go run scripts/diagnose_feeds.go [-feeds-file feeds.yaml] [-o report.json]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mmcdole/gofeed"

	"blog-agent/internal/config"
	"blog-agent/internal/domain/entity"
)

// FeedDiagnostic is the probe result for one feed source.
type FeedDiagnostic struct {
	Name           string `json:"name"`
	FeedURL        string `json:"feed_url"`
	Status         string `json:"status"` // OK, HTTP_ERROR, PARSE_ERROR, EMPTY, TIMEOUT
	HTTPStatus     int    `json:"http_status,omitempty"`
	ItemCount      int    `json:"item_count"`
	LatestDate     string `json:"latest_date,omitempty"`
	FeedType       string `json:"feed_type,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
	ResponseTimeMS int64  `json:"response_time_ms"`
}

func main() {
	feedsFile := flag.String("feeds-file", "", "YAML or JSON file with feed sources (default: built-in list)")
	output := flag.String("o", "feed_diagnostics.json", "JSON report output path")
	timeout := flag.Duration("timeout", 30*time.Second, "per-feed timeout")
	flag.Parse()

	sources := loadSources(*feedsFile)
	log.Printf("Diagnosing %d feed sources...", len(sources))

	diagnostics := make([]FeedDiagnostic, 0, len(sources))
	for i := range sources {
		log.Printf("[%d/%d] %s", i+1, len(sources), sources[i].Name)
		diagnostics = append(diagnostics, diagnoseFeed(&sources[i], *timeout))

		// be nice to the servers
		time.Sleep(500 * time.Millisecond)
	}

	printReport(diagnostics)
	writeJSONReport(diagnostics, *output)
}

func loadSources(feedsFile string) []entity.FeedSource {
	if feedsFile == "" {
		return config.DefaultFeeds()
	}
	sources, err := config.LoadFeedsFile(feedsFile)
	if err != nil {
		log.Fatalf("Failed to load feeds file: %v", err)
	}
	return sources
}

func diagnoseFeed(source *entity.FeedSource, timeout time.Duration) FeedDiagnostic {
	diag := FeedDiagnostic{
		Name:    source.Name,
		FeedURL: source.ResolveFeedURL(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.UserAgent = "BlogAgentBot/0.1 (+https://github.com/blog-agent)"
	parser.Client = &http.Client{Timeout: timeout}

	start := time.Now()
	feed, err := parser.ParseURLWithContext(diag.FeedURL, ctx)
	diag.ResponseTimeMS = time.Since(start).Milliseconds()

	if err != nil {
		diag.ErrorMessage = err.Error()
		var httpErr gofeed.HTTPError
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			diag.Status = "TIMEOUT"
		case errors.As(err, &httpErr):
			diag.Status = "HTTP_ERROR"
			diag.HTTPStatus = httpErr.StatusCode
		default:
			diag.Status = "PARSE_ERROR"
		}
		return diag
	}

	diag.HTTPStatus = http.StatusOK
	diag.FeedType = feed.FeedType
	diag.ItemCount = len(feed.Items)
	if diag.ItemCount == 0 {
		diag.Status = "EMPTY"
		return diag
	}

	diag.Status = "OK"
	for _, item := range feed.Items {
		when := item.PublishedParsed
		if when == nil {
			when = item.UpdatedParsed
		}
		if when == nil {
			continue
		}
		stamp := when.UTC().Format(time.RFC3339)
		if stamp > diag.LatestDate {
			diag.LatestDate = stamp
		}
	}
	return diag
}

func printReport(diagnostics []FeedDiagnostic) {
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tITEMS\tLATEST\tMS\tERROR")
	healthy := 0
	for _, d := range diagnostics {
		if d.Status == "OK" {
			healthy++
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\n",
			d.Name, d.Status, d.ItemCount, d.LatestDate, d.ResponseTimeMS, d.ErrorMessage)
	}
	_ = w.Flush()
	fmt.Printf("\n%d/%d feeds healthy\n", healthy, len(diagnostics))
}

func writeJSONReport(diagnostics []FeedDiagnostic, path string) {
	data, err := json.MarshalIndent(diagnostics, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal report: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	log.Printf("JSON report written to %s", path)
}
