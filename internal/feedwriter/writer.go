// Package feedwriter ties the feed generator to the filesystem and the
// optional archive sink, shared by the operator API's
// GET /catalog/generate handler and the worker's scheduled refresh task
// so both run the exact same write path.
package feedwriter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/retailsync/catalog-sync/internal/core/feed"
	"github.com/retailsync/catalog-sync/internal/storage"
)

// Writer generates one style's CSV, writes it under outputDir, and
// archives a timestamped copy when archiving is configured.
type Writer struct {
	gen       *feed.Generator
	archiver  *storage.Archiver
	outputDir string
	log       zerolog.Logger
}

func New(gen *feed.Generator, archiver *storage.Archiver, outputDir string, log zerolog.Logger) *Writer {
	return &Writer{gen: gen, archiver: archiver, outputDir: outputDir, log: log}
}

// Result is one style's write outcome.
type Result struct {
	Style     string
	Path      string
	Rows      int
	ArchiveURL string
}

// filename is the served path for a style's CSV, matching GET
// /catalog?style=<style>.
func filename(style string) string {
	return style + ".csv"
}

// WriteStyle runs the generator for one style and writes/archives its
// output.
func (w *Writer) WriteStyle(ctx context.Context, style string, refresh bool) (Result, error) {
	rows, err := w.gen.Rows(ctx, style, refresh)
	if err != nil {
		return Result{}, fmt.Errorf("feedwriter: generate %s: %w", style, err)
	}

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("feedwriter: create output dir: %w", err)
	}

	path := filepath.Join(w.outputDir, filename(style))
	f, err := os.Create(path)
	if err != nil {
		return Result{}, fmt.Errorf("feedwriter: create %s: %w", path, err)
	}
	defer f.Close()

	if err := feed.WriteCSV(f, rows); err != nil {
		return Result{}, fmt.Errorf("feedwriter: write %s: %w", path, err)
	}

	res := Result{Style: style, Path: path, Rows: len(rows) - 1}

	if w.archiver != nil {
		raw, err := os.ReadFile(path)
		if err != nil {
			return res, fmt.Errorf("feedwriter: read back %s for archival: %w", path, err)
		}
		key := fmt.Sprintf("%s/%s-%s.csv", style, style, time.Now().UTC().Format("20060102T150405Z"))
		url, err := w.archiver.Upload(ctx, key, raw)
		if err != nil {
			w.log.Error().Err(err).Str("style", style).Msg("feed archival upload failed")
		} else {
			res.ArchiveURL = url
		}
	}

	return res, nil
}

// WriteAll runs WriteStyle for every style feed.Generator supports,
// stopping at the first error.
func (w *Writer) WriteAll(ctx context.Context, refresh bool) ([]Result, error) {
	results := make([]Result, 0, len(feed.Styles))
	for _, style := range feed.Styles {
		res, err := w.WriteStyle(ctx, style, refresh)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
