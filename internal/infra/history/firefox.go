// Package history reads Firefox browsing history so already-visited
// blog posts can be marked read.
//
// Firefox holds a write lock on places.sqlite while running, so the
// database (plus any WAL/SHM companions) is copied to a temporary
// location and queried read-only there. The copy is removed on every
// exit path.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"blog-agent/internal/pkg/urlutil"

	_ "modernc.org/sqlite"
)

const placesDBName = "places.sqlite"

// Firefox implements the reconcile.HistoryStore interface against a
// local Firefox installation.
type Firefox struct {
	// Dir is the Firefox profiles root, e.g. ~/.mozilla/firefox.
	Dir string
}

// NewFirefox creates a history store rooted at the given profiles directory.
func NewFirefox(dir string) *Firefox {
	return &Firefox{Dir: dir}
}

// VisitedURLs returns the set of normalized URLs visited within the
// lookback window. A missing profile is not an error: reconciliation is
// simply skipped and an empty set returned.
func (f *Firefox) VisitedURLs(ctx context.Context, lookbackDays int) (map[string]struct{}, error) {
	logger := slog.Default()

	profileDir := f.findDefaultProfile()
	if profileDir == "" {
		logger.Info("no Firefox profile found, history check disabled",
			slog.String("dir", f.Dir))
		return map[string]struct{}{}, nil
	}

	tmpDB, cleanup, err := snapshotPlacesDB(profileDir)
	if err != nil {
		return nil, fmt.Errorf("snapshot places database: %w", err)
	}
	defer cleanup()

	visited, err := queryVisited(ctx, tmpDB, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	logger.Info("read visited URLs from Firefox history",
		slog.String("profile", profileDir),
		slog.Int("urls", len(visited)))
	return visited, nil
}

// findDefaultProfile locates the profile directory holding the history
// database. profiles.ini is consulted when present, preferring a profile
// explicitly marked default, then the Install section's default path,
// then the first profile whose directory exists. Without profiles.ini
// the immediate subdirectories are scanned for one containing
// places.sqlite.
func (f *Firefox) findDefaultProfile() string {
	iniPath := filepath.Join(f.Dir, "profiles.ini")
	sections, err := parseINI(iniPath)
	if err != nil {
		// Some layouts hold profile dirs directly without an ini file.
		entries, dirErr := os.ReadDir(f.Dir)
		if dirErr != nil {
			return ""
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			candidate := filepath.Join(f.Dir, entry.Name())
			if fileExists(filepath.Join(candidate, placesDBName)) {
				return candidate
			}
		}
		return ""
	}

	var firstExisting string
	for _, sec := range sections {
		if !strings.HasPrefix(sec.name, "Profile") {
			continue
		}
		path := sec.keys["Path"]
		if path == "" {
			continue
		}
		profilePath := path
		if sec.keys["IsRelative"] != "0" {
			profilePath = filepath.Join(f.Dir, path)
		}
		if !dirExists(profilePath) {
			continue
		}
		if firstExisting == "" {
			firstExisting = profilePath
		}
		if sec.keys["Default"] == "1" {
			return profilePath
		}
	}

	// Install sections designate the default profile on newer Firefox.
	for _, sec := range sections {
		if !strings.HasPrefix(sec.name, "Install") {
			continue
		}
		if path := sec.keys["Default"]; path != "" {
			candidate := filepath.Join(f.Dir, path)
			if dirExists(candidate) {
				return candidate
			}
		}
	}

	return firstExisting
}

// snapshotPlacesDB copies places.sqlite and any -wal/-shm companions to
// a temporary directory. The returned cleanup removes the whole copy
// and is safe to call on every exit path.
func snapshotPlacesDB(profileDir string) (string, func(), error) {
	src := filepath.Join(profileDir, placesDBName)
	if !fileExists(src) {
		return "", nil, fmt.Errorf("%s not found in %s", placesDBName, profileDir)
	}

	tmpDir, err := os.MkdirTemp("", "blog-agent-")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			slog.Warn("failed to remove history snapshot", slog.Any("error", err))
		}
	}

	dst := filepath.Join(tmpDir, placesDBName)
	if err := copyFile(src, dst); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("copy %s: %w", placesDBName, err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		companion := src + suffix
		if fileExists(companion) {
			if err := copyFile(companion, dst+suffix); err != nil {
				cleanup()
				return "", nil, fmt.Errorf("copy %s%s: %w", placesDBName, suffix, err)
			}
		}
	}

	return dst, cleanup, nil
}

// queryVisited queries the snapshot for distinct page URLs visited
// after the cutoff. Firefox stores visit timestamps as microseconds
// since the epoch.
func queryVisited(ctx context.Context, dbPath string, lookbackDays int) (map[string]struct{}, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = db.Close() }()

	cutoffMicros := time.Now().UTC().AddDate(0, 0, -lookbackDays).UnixMicro()

	const query = `
SELECT DISTINCT p.url
FROM moz_places p
JOIN moz_historyvisits v ON p.id = v.place_id
WHERE v.visit_date > ?
`
	rows, err := db.QueryContext(ctx, query, cutoffMicros)
	if err != nil {
		return nil, fmt.Errorf("QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	visited := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("Scan: %w", err)
		}
		visited[urlutil.Normalize(url)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return visited, nil
}

// iniSection is one [Name] block of an ini-style file, in file order.
type iniSection struct {
	name string
	keys map[string]string
}

// parseINI reads the minimal ini dialect profiles.ini uses: [sections]
// of key=value lines, with ; and # comments. Firefox never nests or
// quotes values, so nothing more is needed.
func parseINI(path string) ([]iniSection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sections []iniSection
	var current *iniSection
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			sections = append(sections, iniSection{
				name: line[1 : len(line)-1],
				keys: make(map[string]string),
			})
			current = &sections[len(sections)-1]
			continue
		}
		if current == nil {
			continue
		}
		if key, value, found := strings.Cut(line, "="); found {
			current.keys[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}

	return sections, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	_, err = io.Copy(out, in)
	return err
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
