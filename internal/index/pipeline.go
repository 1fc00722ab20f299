package index

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"reposcope/internal/chunker"
	"reposcope/internal/metrics"
	"reposcope/internal/outcome"
)

// Stats reports indexing results.
type Stats struct {
	FilesTotal      int
	FilesIndexed    int
	FilesSkipped    int
	ChunksTotal     int
	SummariesReused int
	SummariesFailed int
}

// ProgressFunc receives progress updates during Build.
type ProgressFunc func(stage string, current, total int)

// fileResult is what one worker produces for one file.
type fileResult struct {
	entry    FileEntry
	segments []chunker.Segment
	reused   bool
	failed   bool
	ok       bool
}

// Build replaces the index contents with chunks and summaries for files,
// reading content from src. Unreadable, binary and chunk-less files are
// logged and skipped; only context cancellation aborts the run.
func (idx *Index) Build(ctx context.Context, files []RepoFile, src fs.FS, onProgress ProgressFunc) (Stats, error) {
	results := make([]fileResult, len(files))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.opts.Workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = idx.processFile(gctx, f, src)
			if onProgress != nil {
				onProgress("Indexing files", int(done.Add(1)), len(files))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("build index: %w", err)
	}

	stats := Stats{FilesTotal: len(files)}
	var entries []FileEntry
	var chunks []CodeChunk
	for i, r := range results {
		if !r.ok {
			stats.FilesSkipped++
			continue
		}
		if r.reused {
			stats.SummariesReused++
		}
		if r.failed {
			stats.SummariesFailed++
		}
		for _, seg := range r.segments {
			chunks = append(chunks, CodeChunk{
				FilePath:  r.entry.Path,
				Content:   seg.Content,
				StartLine: seg.StartLine,
				EndLine:   seg.EndLine,
				Language:  LanguageOf(files[i].Path, files[i].Extension),
				ChunkType: seg.Kind,
				Name:      seg.Name,
			})
		}
		entries = append(entries, r.entry)
		stats.FilesIndexed++
	}
	stats.ChunksTotal = len(chunks)

	slices.SortFunc(entries, func(a, b FileEntry) int { return strings.Compare(a.Path, b.Path) })
	idx.Restore(entries, chunks)
	return stats, nil
}

func (idx *Index) processFile(ctx context.Context, f RepoFile, src fs.FS) (res fileResult) {
	defer func() {
		if v := recover(); v != nil {
			idx.logger.Warn("skipping file after panic", "file", f.Path, "error", outcome.Recovered(v))
			metrics.RecordIndexedFile("failed")
			res = fileResult{}
		}
	}()

	data, err := fs.ReadFile(src, f.Path)
	if err != nil {
		idx.logger.Warn("skipping unreadable file", "file", f.Path, "error", err)
		metrics.RecordIndexedFile("failed")
		return fileResult{}
	}
	if !isText(data) {
		idx.logger.Debug("skipping binary file", "file", f.Path)
		metrics.RecordIndexedFile("skipped")
		return fileResult{}
	}

	segments, err := idx.chunker.Chunk(f.Path, data)
	if err != nil {
		idx.logger.Warn("chunker failed", "file", f.Path, "error", err)
		metrics.RecordIndexedFile("failed")
		return fileResult{}
	}
	if len(segments) == 0 {
		metrics.RecordIndexedFile("skipped")
		return fileResult{}
	}

	sum := sha256.Sum256(data)
	entry := FileEntry{
		Path:     f.Path,
		Hash:     hex.EncodeToString(sum[:]),
		Language: LanguageOf(f.Path, f.Extension),
		Chunks:   len(segments),
		Lines:    bytes.Count(data, []byte("\n")) + 1,
	}

	res = fileResult{entry: entry, segments: segments, ok: true}
	if known := idx.opts.KnownSummary; known != nil {
		if s, ok := known(entry.Path, entry.Hash); ok && s != "" {
			res.entry.Summary = s
			res.reused = true
			metrics.RecordIndexedFile("reused")
			return res
		}
	}

	summary := idx.summarize(ctx, entry, string(data))
	if summary.IsError() {
		idx.logger.Warn("summary failed, using synthetic summary", "file", entry.Path, "error", summary.Error())
		res.entry.Summary = syntheticSummary(entry)
		res.failed = idx.completer != nil
	} else {
		res.entry.Summary = summary.MustGet()
	}
	metrics.RecordIndexedFile("indexed")
	return res
}

// isText rejects content with NUL bytes or invalid UTF-8.
func isText(data []byte) bool {
	return bytes.IndexByte(data, 0) < 0 && utf8.Valid(data)
}
