package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"reposcope/internal/chunker"
	"reposcope/internal/llm"
)

func lines(n int, prefix string) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "%s %d\n", prefix, i)
	}
	return b.String()
}

type fakeCompleter struct {
	calls   atomic.Int64
	err     error
	prompts chan string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	f.calls.Add(1)
	if f.prompts != nil {
		f.prompts <- prompt
	}
	if f.err != nil {
		return "", f.err
	}
	return "  A summary.  ", nil
}

func testRepo() (fstest.MapFS, []RepoFile) {
	fsys := fstest.MapFS{
		"src/app.js":      {Data: []byte(lines(120, "const x ="))},
		"src/empty.js":    {Data: []byte("\n\n   \n")},
		"assets/logo.png": {Data: []byte{0x89, 'P', 'N', 'G', 0, 1, 2}},
	}
	files := []RepoFile{
		{Path: "src/app.js", Extension: ".js"},
		{Path: "src/empty.js", Extension: ".js"},
		{Path: "assets/logo.png", Extension: ".png"},
		{Path: "src/missing.js", Extension: ".js"},
	}
	return fsys, files
}

func TestBuild(t *testing.T) {
	fsys, files := testRepo()
	fc := &fakeCompleter{}
	idx := New(chunker.NewLineChunker(50), fc, Options{Workers: 2})

	stats, err := idx.Build(context.Background(), files, fsys, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if stats.FilesTotal != 4 || stats.FilesIndexed != 1 || stats.FilesSkipped != 3 || stats.ChunksTotal != 3 {
		t.Fatalf("stats = %+v", stats)
	}

	chunks := idx.Chunks()
	wantRanges := [][2]int{{1, 50}, {51, 100}, {101, 120}}
	for i, c := range chunks {
		if c.ID != i {
			t.Errorf("chunk %d has ID %d", i, c.ID)
		}
		if c.StartLine != wantRanges[i][0] || c.EndLine != wantRanges[i][1] {
			t.Errorf("chunk %d = %d-%d", i, c.StartLine, c.EndLine)
		}
		if c.Language != "javascript" || c.ChunkType != "block" || c.FilePath != "src/app.js" {
			t.Errorf("chunk %d = %+v", i, c)
		}
	}
	if got := chunks[1].Signature(); got != "src/app.js:51-100" {
		t.Errorf("Signature = %q", got)
	}

	if fc.calls.Load() != 1 {
		t.Fatalf("completer calls = %d, want 1", fc.calls.Load())
	}
	if s, ok := idx.Summary("src/app.js"); !ok || s != "A summary." {
		t.Fatalf("summary = %q, %v", s, ok)
	}
}

func TestBuildTruncatesSummaryInput(t *testing.T) {
	fsys := fstest.MapFS{"big.py": {Data: []byte(strings.Repeat("é", 5000))}}
	fc := &fakeCompleter{prompts: make(chan string, 1)}
	idx := New(nil, fc, Options{})
	if _, err := idx.Build(context.Background(), []RepoFile{{Path: "big.py"}}, fsys, nil); err != nil {
		t.Fatal(err)
	}
	prompt := <-fc.prompts
	if n := strings.Count(prompt, "é"); n != DefaultSummaryChars {
		t.Fatalf("prompt carries %d characters of content, want %d", n, DefaultSummaryChars)
	}
}

func TestBuildSummaryFailureUsesSynthetic(t *testing.T) {
	fsys, files := testRepo()
	idx := New(nil, &fakeCompleter{err: errors.New("provider down")}, Options{})
	stats, err := idx.Build(context.Background(), files, fsys, nil)
	if err != nil {
		t.Fatalf("Build must not fail on provider errors: %v", err)
	}
	if stats.SummariesFailed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	s, _ := idx.Summary("src/app.js")
	if !strings.Contains(s, "src/app.js") {
		t.Fatalf("synthetic summary %q does not name the file", s)
	}
}

func TestBuildReusesKnownSummaries(t *testing.T) {
	fsys, files := testRepo()
	fc := &fakeCompleter{}
	var seenHash string
	idx := New(nil, fc, Options{KnownSummary: func(path, hash string) (string, bool) {
		seenHash = hash
		return "cached", path == "src/app.js"
	}})
	stats, err := idx.Build(context.Background(), files, fsys, nil)
	if err != nil {
		t.Fatal(err)
	}
	if fc.calls.Load() != 0 || stats.SummariesReused != 1 {
		t.Fatalf("calls = %d, stats = %+v", fc.calls.Load(), stats)
	}
	if len(seenHash) != 64 {
		t.Fatalf("hash %q is not hex sha256", seenHash)
	}
	if files := idx.Files(); len(files) != 1 || files[0].Summary != "cached" {
		t.Fatalf("files = %+v", files)
	}
}

type panicChunker struct {
	next  chunker.Chunker
	failOn string
}

func (p panicChunker) Chunk(path string, src []byte) ([]chunker.Segment, error) {
	if path == p.failOn {
		panic("grammar exploded")
	}
	return p.next.Chunk(path, src)
}

func TestBuildSkipsFileWhenChunkerPanics(t *testing.T) {
	fsys := fstest.MapFS{
		"src/bad.js":  {Data: []byte(lines(10, "let y ="))},
		"src/good.js": {Data: []byte(lines(10, "let z ="))},
	}
	files := []RepoFile{{Path: "src/bad.js", Extension: ".js"}, {Path: "src/good.js", Extension: ".js"}}
	idx := New(panicChunker{next: chunker.NewLineChunker(50), failOn: "src/bad.js"}, nil, Options{Workers: 2})

	stats, err := idx.Build(context.Background(), files, fsys, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if stats.FilesIndexed != 1 || stats.FilesSkipped != 1 || stats.ChunksTotal != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if got := idx.Files(); len(got) != 1 || got[0].Path != "src/good.js" {
		t.Fatalf("files = %+v", got)
	}
}

func TestBuildProgressAndCancel(t *testing.T) {
	fsys, files := testRepo()
	var calls atomic.Int64
	idx := New(nil, nil, Options{Workers: 1})
	if _, err := idx.Build(context.Background(), files, fsys, func(stage string, cur, total int) {
		calls.Add(1)
		if total != len(files) {
			t.Errorf("total = %d", total)
		}
	}); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != int64(len(files)) {
		t.Fatalf("progress calls = %d", calls.Load())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := idx.Build(ctx, files, fsys, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestClearAndRestore(t *testing.T) {
	fsys, files := testRepo()
	idx := New(nil, nil, Options{})
	if _, err := idx.Build(context.Background(), files, fsys, nil); err != nil {
		t.Fatal(err)
	}
	idx.RerankCache().Put("k", map[int]float64{0: 90})

	idx.Clear()
	if len(idx.Chunks()) != 0 || len(idx.Summaries()) != 0 || idx.RerankCache().Len() != 0 {
		t.Fatal("Clear left state behind")
	}

	idx.Restore(
		[]FileEntry{{Path: "b.go", Summary: "b"}, {Path: "a.go", Summary: "a"}},
		[]CodeChunk{{ID: 7, FilePath: "a.go"}, {ID: 9, FilePath: "b.go"}},
	)
	if c := idx.Chunks(); c[0].ID != 0 || c[1].ID != 1 {
		t.Fatalf("IDs not reassigned: %+v", c)
	}
	if s, ok := idx.Summary("a.go"); !ok || s != "a" {
		t.Fatalf("Summary(a.go) = %q, %v", s, ok)
	}
}

func TestLanguageOf(t *testing.T) {
	tests := []struct{ path, ext, want string }{
		{"src/App.JSX", "", "javascript"},
		{"main.go", ".go", "go"},
		{"Makefile", "", "text"},
		{"x.weird", ".weird", "weird"},
	}
	for _, tt := range tests {
		if got := LanguageOf(tt.path, tt.ext); got != tt.want {
			t.Errorf("LanguageOf(%q, %q) = %q, want %q", tt.path, tt.ext, got, tt.want)
		}
	}
}
