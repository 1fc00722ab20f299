// Package index holds the chunk arena and per-file summaries of one
// repository.
package index

import (
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"reposcope/internal/chunker"
	"reposcope/internal/llm"
	"reposcope/internal/logging"
)

// CodeChunk is a contiguous line range of one file. ID is the chunk's
// position in the arena and stays valid until the index is cleared or
// rebuilt. Lines are 1-based and inclusive.
type CodeChunk struct {
	ID        int    `json:"id"`
	FilePath  string `json:"file_path"`
	Content   string `json:"content"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Language  string `json:"language"`
	ChunkType string `json:"chunk_type"`
	Name      string `json:"name"`
}

// Signature identifies the chunk's location, e.g. "src/app.js:1-50".
func (c CodeChunk) Signature() string {
	return c.FilePath + ":" + itoa(c.StartLine) + "-" + itoa(c.EndLine)
}

// RepoFile is one file of the repository tree.
type RepoFile struct {
	Path      string
	Extension string
}

// FileEntry describes an indexed file.
type FileEntry struct {
	Path     string
	Hash     string
	Language string
	Summary  string
	Chunks   int
	Lines    int
}

// Options configures an Index.
type Options struct {
	// Workers bounds concurrent file processing. Zero uses NumCPU.
	Workers int
	// SummaryChars is how much of a file the summary prompt sees.
	SummaryChars int
	// KnownSummary returns a previously generated summary for a file whose
	// content hash is unchanged, skipping the completion call.
	KnownSummary func(path, hash string) (string, bool)
	Logger       *slog.Logger
}

// DefaultSummaryChars is the prompt truncation used for summaries.
const DefaultSummaryChars = 3000

// Index owns the chunk arena, file summaries and the rerank cache. Building
// and searching the same Index concurrently is not supported.
type Index struct {
	chunker   chunker.Chunker
	completer llm.Completer
	opts      Options
	logger    *slog.Logger

	mu     sync.RWMutex
	chunks []CodeChunk
	files  []FileEntry
	rerank *RerankCache
}

// New creates an empty index. completer may be nil, in which case every
// file gets a synthetic summary.
func New(c chunker.Chunker, completer llm.Completer, opts Options) *Index {
	if c == nil {
		c = chunker.NewLineChunker(chunker.DefaultWindow)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.SummaryChars <= 0 {
		opts.SummaryChars = DefaultSummaryChars
	}
	return &Index{
		chunker:   c,
		completer: completer,
		opts:      opts,
		logger:    logging.OrDiscard(opts.Logger),
		rerank:    NewRerankCache(),
	}
}

// Chunks returns the arena. Callers must not modify the returned chunks.
func (idx *Index) Chunks() []CodeChunk {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.chunks
}

// Files returns the indexed files in path order.
func (idx *Index) Files() []FileEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return slices.Clone(idx.files)
}

// Summaries returns file summaries keyed by path.
func (idx *Index) Summaries() map[string]string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[string]string, len(idx.files))
	for _, f := range idx.files {
		out[f.Path] = f.Summary
	}
	return out
}

// Summary returns the summary of one file.
func (idx *Index) Summary(path string) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	i, ok := slices.BinarySearchFunc(idx.files, path, func(f FileEntry, p string) int {
		return strings.Compare(f.Path, p)
	})
	if !ok {
		return "", false
	}
	return idx.files[i].Summary, true
}

// RerankCache returns the cache of rerank results for this index.
func (idx *Index) RerankCache() *RerankCache { return idx.rerank }

// Clear empties chunks, summaries and the rerank cache.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.chunks = nil
	idx.files = nil
	idx.rerank.Clear()
}

// Restore replaces the index contents with previously built state, e.g.
// loaded from disk. Chunk IDs are reassigned to arena positions.
func (idx *Index) Restore(files []FileEntry, chunks []CodeChunk) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.files = slices.Clone(files)
	slices.SortFunc(idx.files, func(a, b FileEntry) int { return strings.Compare(a.Path, b.Path) })
	idx.chunks = make([]CodeChunk, len(chunks))
	for i, c := range chunks {
		c.ID = i
		idx.chunks[i] = c
	}
	idx.rerank.Clear()
}

var extLanguages = map[string]string{
	"go": "go", "js": "javascript", "jsx": "javascript", "mjs": "javascript", "cjs": "javascript",
	"ts": "typescript", "tsx": "typescript", "py": "python", "rb": "ruby", "java": "java",
	"kt": "kotlin", "rs": "rust", "c": "c", "h": "c", "cpp": "cpp", "cc": "cpp", "hpp": "cpp",
	"cs": "csharp", "php": "php", "swift": "swift", "vue": "vue", "svelte": "svelte",
	"html": "html", "css": "css", "scss": "scss", "json": "json", "yaml": "yaml", "yml": "yaml",
	"toml": "toml", "md": "markdown", "sh": "shell", "sql": "sql",
}

// LanguageOf names the language of a file from its extension.
func LanguageOf(path, ext string) string {
	if ext == "" {
		ext = filepath.Ext(path)
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if lang, ok := extLanguages[ext]; ok {
		return lang
	}
	if ext == "" {
		return "text"
	}
	return ext
}
