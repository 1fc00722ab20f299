package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reposcope/internal/config"
	"reposcope/internal/explain"
	"reposcope/internal/index"
	"reposcope/internal/intent"
	"reposcope/internal/logging"
	"reposcope/internal/query"
	"reposcope/internal/rag"
	"reposcope/internal/retrieval"
)

var repoFiles = map[string]string{
	"vite.config.js": "import { defineConfig } from 'vite'\nexport default defineConfig({ plugins: [] })\n",
	"src/router.jsx": `import { createBrowserRouter } from "react-router-dom";
import Home from "./pages/Home";

const appRouter = createBrowserRouter([
  { path: "/", element: <Home /> },
  { path: "/restaurant/:resId", element: <Menu /> },
]);
export default appRouter;
`,
	"src/components/Shimmer.jsx": `const Shimmer = () => {
  return (
    <div className="shimmer-container">
      <div className="shimmer-card"></div>
    </div>
  );
};
export default Shimmer;
`,
	"src/pages/Home.jsx": `import { useState, useEffect } from "react";
import Shimmer from "../components/Shimmer";

const Home = () => {
  const [list, setList] = useState([]);
  useEffect(() => {
    fetch("/api/restaurants").then((r) => r.json()).then(setList);
  }, []);
  if (list.length === 0) return <Shimmer />;
  return <div className="body">{list.length}</div>;
};
export default Home;
`,
}

// testApp writes a small React project and returns an app for it that uses
// no completion provider.
func testApp(t *testing.T) *app {
	t.Helper()
	root := t.TempDir()
	for rel, content := range repoFiles {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.Default()
	cfg.Provider = config.ProviderNone
	cfg.DBPath = filepath.Join(root, config.DirName, "index.db")
	return &app{root: root, cfg: cfg, logger: logging.Discard()}
}

func TestBuildIndexThenSearch(t *testing.T) {
	a := testApp(t)
	var phases []string
	_, stats, err := a.buildIndex(context.Background(), "", func(phase string, cur, total int) {
		if len(phases) == 0 || phases[len(phases)-1] != phase {
			phases = append(phases, phase)
		}
	})
	if err != nil {
		t.Fatalf("buildIndex: %v", err)
	}
	if stats.FilesIndexed != len(repoFiles) || stats.ChunksTotal != len(repoFiles) {
		t.Fatalf("stats = %+v", stats)
	}
	if phases[0] != "Walking files..." || phases[len(phases)-1] != "Saving index..." {
		t.Errorf("phases = %v", phases)
	}

	eng, err := a.engine(engineOptions{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if st := eng.Status(); st.Files != len(repoFiles) || st.Chunks != len(repoFiles) {
		t.Fatalf("status = %+v", st)
	}
	sr := eng.Search(context.Background(), "where is the Shimmer component")
	if len(sr.Chunks) == 0 || sr.Chunks[0].Chunk.FilePath != "src/components/Shimmer.jsx" {
		t.Fatalf("top result = %v, want Shimmer.jsx", sr.Chunks)
	}
}

func TestOpenIndexMissing(t *testing.T) {
	a := testApp(t)
	if _, err := a.openIndex(nil); !errors.Is(err, errNoIndex) {
		t.Fatalf("err = %v, want errNoIndex", err)
	}
}

func TestStaleReason(t *testing.T) {
	a := testApp(t)
	if _, _, err := a.buildIndex(context.Background(), "", nil); err != nil {
		t.Fatal(err)
	}
	st, err := a.openStore()
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if r := a.staleReason(st); r != "" {
		t.Fatalf("fresh index reported stale: %q", r)
	}
	a.cfg.Retrieval.Chunking = config.ChunkingSyntax
	if r := a.staleReason(st); !strings.Contains(r, "chunking") {
		t.Fatalf("reason = %q, want chunking mismatch", r)
	}
}

func TestCompleterByProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantNil  bool
	}{
		{config.ProviderNone, true},
		{config.ProviderOllama, false},
		{config.ProviderOpenAI, false},
	}
	for _, tt := range tests {
		a := testApp(t)
		a.cfg.Provider = tt.provider
		a.cfg.OpenAI.APIKey = "sk-test"
		if got := a.completer() == nil; got != tt.wantNil {
			t.Errorf("%s: completer nil = %v, want %v", tt.provider, got, tt.wantNil)
		}
	}
}

func TestTUIBackend(t *testing.T) {
	a := testApp(t)
	b := &tuiBackend{app: a}
	ctx := context.Background()

	st, err := b.Status(ctx)
	if err != nil || st.Ready {
		t.Fatalf("status before indexing = %+v, %v", st, err)
	}
	if models, err := b.Models(ctx); models != nil || err != nil {
		t.Fatalf("models for provider none = %v, %v", models, err)
	}

	if _, err := b.Index(ctx, "", nil); err != nil {
		t.Fatalf("Index: %v", err)
	}
	st, err = b.Status(ctx)
	if err != nil || !st.Ready || st.Files != len(repoFiles) {
		t.Fatalf("status after indexing = %+v, %v", st, err)
	}

	answers, err := b.Ask(ctx, "where is the Shimmer component")
	if err != nil || len(answers) != 1 {
		t.Fatalf("Ask = %d answers, %v", len(answers), err)
	}
	refs := answers[0].Result.CodeReferences
	if len(refs) == 0 || refs[0].FilePath != "src/components/Shimmer.jsx" {
		t.Fatalf("references = %+v", refs)
	}
}

func TestProjectRoot(t *testing.T) {
	dir := t.TempDir()
	got, err := projectRoot([]string{dir})
	if err != nil || got != dir {
		t.Fatalf("projectRoot = %q, %v", got, err)
	}

	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := projectRoot([]string{file}); err == nil {
		t.Fatal("a file was accepted as project root")
	}
}

func TestAnswerMarkdown(t *testing.T) {
	a := rag.Answer{
		Intent: intent.New("where is Shimmer", 1),
		Search: rag.SearchResult{Mode: query.ModeLocation, Assessment: retrieval.Assessment{Reason: retrieval.ReasonOK}},
		Result: explain.Result{Explanation: "It is in `src/components/Shimmer.jsx`.", Confidence: explain.ConfidenceHigh},
	}
	single := answerMarkdown(0, 1, a)
	if !strings.HasPrefix(single, "## where is Shimmer\n") || !strings.Contains(single, "confidence: high") {
		t.Errorf("single answer = %q", single)
	}
	if multi := answerMarkdown(1, 2, a); !strings.HasPrefix(multi, "## 2/2: where is Shimmer") {
		t.Errorf("multi answer = %q", multi)
	}
}

func TestFileListMarkdown(t *testing.T) {
	files := []index.FileEntry{
		{Path: "main.go", Language: "go", Chunks: 2, Summary: "Entry point.\nMore."},
		{Path: "app.js", Language: "javascript", Chunks: 1},
	}
	all := fileListMarkdown(files, "")
	if !strings.Contains(all, "Indexed files (2)") || !strings.Contains(all, "(no summary)") {
		t.Errorf("all = %q", all)
	}
	goOnly := fileListMarkdown(files, "GO")
	if strings.Contains(goOnly, "app.js") || !strings.Contains(goOnly, "main.go** (go, 2 chunks): Entry point.\n") {
		t.Errorf("go only = %q", goOnly)
	}
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	rootCmd.SetArgs([]string{"config", "init", dir})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(config.Path(dir)); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	rootCmd.SetArgs([]string{"config", "init", dir})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("second init overwrote the existing file")
	}
}
