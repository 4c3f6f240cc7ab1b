package index

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"devscope/internal/models"
)

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

// SkipDirName reports whether a directory of that name is never descended
// into. The watcher applies the same rule.
func SkipDirName(name string) bool {
	return skipDirs[name]
}

// Crawler walks a tree and streams one DocumentRecord per indexable file.
type Crawler struct {
	Root string
	// SkipDir is the index output directory; it is never descended into so
	// a build cannot index its own artifacts.
	SkipDir string
	Logger  *slog.Logger
}

// Crawl sends records on out and closes it when the walk finishes. DocIDs
// are assigned sequentially starting at 1. Unreadable entries are logged
// and skipped; an unreadable root aborts the crawl.
func (c *Crawler) Crawl(ctx context.Context, out chan<- models.DocumentRecord) error {
	defer close(out)

	skip := ""
	if c.SkipDir != "" {
		skip = filepath.Clean(c.SkipDir)
	}

	nextID := uint32(1)
	return filepath.WalkDir(c.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == c.Root {
				return err
			}
			c.Logger.Warn("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if SkipDirName(d.Name()) {
				return filepath.SkipDir
			}
			if skip != "" && filepath.Clean(path) == skip {
				return filepath.SkipDir
			}
			return nil
		}

		docType, ok := classify(path)
		if !ok {
			return nil
		}
		rec := models.DocumentRecord{DocID: nextID, Type: docType, Path: path}
		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
		nextID++
		return nil
	})
}

func classify(path string) (models.DocType, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go", ".py", ".js", ".ts", ".c", ".cpp", ".h", ".hpp",
		".java", ".rs", ".md", ".txt", ".json", ".yaml", ".yml":
		return models.DocTypeCode, true
	case ".log":
		return models.DocTypeLog, true
	}
	return 0, false
}
