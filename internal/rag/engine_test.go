package rag

import (
	"context"
	"strings"
	"testing"

	"reposcope/internal/explain"
	"reposcope/internal/index"
	"reposcope/internal/llm"
	"reposcope/internal/retrieval"
)

const routerSource = `import { createBrowserRouter } from "react-router-dom";
import Home from "./pages/Home";

const appRouter = createBrowserRouter([
  { path: "/", element: <Home /> },
  { path: "/restaurant/:resId", element: <Menu /> },
]);
export default appRouter;`

const shimmerSource = `const Shimmer = () => {
  return (
    <div className="shimmer-container">
      <div className="shimmer-card"></div>
    </div>
  );
};
export default Shimmer;`

const homeSource = `import { useState, useEffect } from "react";
import Shimmer from "../components/Shimmer";

const Home = () => {
  const [list, setList] = useState([]);
  useEffect(() => {
    fetch("/api/restaurants").then((r) => r.json()).then(setList);
  }, []);
  if (list.length === 0) return <Shimmer />;
  return <div className="body">{list.length}</div>;
};
export default Home;`

func newIndex() *index.Index {
	idx := index.New(nil, nil, index.Options{})
	files := []index.FileEntry{
		{Path: "src/components/Shimmer.jsx", Language: "javascript", Chunks: 1},
		{Path: "src/pages/Home.jsx", Language: "javascript", Chunks: 1},
		{Path: "src/router.jsx", Language: "javascript", Chunks: 1},
		{Path: "vite.config.js", Language: "javascript", Chunks: 1},
	}
	chunks := []index.CodeChunk{
		{FilePath: "vite.config.js", Content: "import { defineConfig } from 'vite'\nexport default defineConfig({ plugins: [] })", StartLine: 1, EndLine: 2},
		{FilePath: "src/router.jsx", Content: routerSource, StartLine: 1, EndLine: 8},
		{FilePath: "src/components/Shimmer.jsx", Content: shimmerSource, StartLine: 1, EndLine: 8},
		{FilePath: "src/pages/Home.jsx", Content: homeSource, StartLine: 1, EndLine: 12},
	}
	idx.Restore(files, chunks)
	return idx
}

type countingCompleter struct {
	calls int
	reply string
}

func (c *countingCompleter) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	c.calls++
	return c.reply, nil
}

func TestSearchLocation(t *testing.T) {
	e := NewEngine(newIndex(), nil, Options{})
	sr := e.Search(context.Background(), "where is the Shimmer component")

	if sr.RequestID == "" {
		t.Error("missing request id")
	}
	if len(sr.Chunks) == 0 || sr.Chunks[0].Chunk.FilePath != "src/components/Shimmer.jsx" {
		t.Fatalf("top result = %v, want Shimmer.jsx first", sr.Chunks)
	}
	if !sr.Assessment.IsGrounded || sr.Assessment.Reason != retrieval.ReasonOK {
		t.Errorf("assessment = %+v, want grounded", sr.Assessment)
	}
}

func TestStrictNoMatchAnswersNotFound(t *testing.T) {
	c := &countingCompleter{reply: "Payments go through `PaymentGateway`."}
	e := NewEngine(newIndex(), c, Options{})
	answers := e.Ask(context.Background(), "where is payment gateway implemented?")

	if len(answers) != 1 {
		t.Fatalf("got %d answers, want 1", len(answers))
	}
	a := answers[0]
	if len(a.Search.Chunks) != 0 {
		t.Errorf("strict no-match returned %d chunks", len(a.Search.Chunks))
	}
	if a.Result.Confidence != explain.ConfidenceLow || !strings.Contains(a.Result.Explanation, explain.Message(explain.MsgNotFound, explain.English)) {
		t.Errorf("result = %+v, want low-confidence not found", a.Result)
	}
	if c.calls != 0 {
		t.Errorf("provider called %d times for an unanswerable question", c.calls)
	}
}

func TestAskFeatureOverview(t *testing.T) {
	e := NewEngine(newIndex(), nil, Options{Language: explain.Spanish})
	answers := e.Ask(context.Background(), "what are the key features in this codebase?")

	if len(answers) != 1 {
		t.Fatalf("got %d answers, want 1", len(answers))
	}
	res := answers[0].Result
	if !strings.Contains(res.Explanation, "Enrutamiento del lado del cliente") {
		t.Errorf("explanation lacks the Spanish routing label:\n%s", res.Explanation)
	}
	if strings.Contains(res.Explanation, "vite.config.js") {
		t.Errorf("explanation mentions vite.config.js:\n%s", res.Explanation)
	}
}

func TestAskCompoundQuestion(t *testing.T) {
	e := NewEngine(newIndex(), nil, Options{})
	answers := e.Ask(context.Background(), "what is shimmer in this repo and why we use that")
	if len(answers) != 1 {
		t.Fatalf("got %d answers, want 1", len(answers))
	}
	if got := answers[0].Intent.Text; !strings.Contains(got, "why we use shimmer") {
		t.Errorf("intent = %q, want pronoun resolved", got)
	}
	if answers[0].Result.Intent != answers[0].Intent.Text {
		t.Errorf("result intent %q differs from %q", answers[0].Result.Intent, answers[0].Intent.Text)
	}
}

func TestBlankQuestion(t *testing.T) {
	e := NewEngine(newIndex(), nil, Options{})
	if answers := e.Ask(context.Background(), "   "); len(answers) != 0 {
		t.Errorf("blank question produced %d answers", len(answers))
	}
}

func TestRerankCachedAcrossSearches(t *testing.T) {
	c := &countingCompleter{reply: "1|100|defines it\n2|0|only uses it"}
	e := NewEngine(newIndex(), c, Options{Rerank: true})
	q := "where is the Shimmer component"

	first := e.Search(context.Background(), q)
	if c.calls != 1 {
		t.Fatalf("first search made %d provider calls, want 1", c.calls)
	}
	second := e.Search(context.Background(), q)
	if c.calls != 1 {
		t.Errorf("second search made %d more calls, want a cache hit", c.calls-1)
	}
	if first.Chunks[0].Score != second.Chunks[0].Score {
		t.Errorf("cached rerank changed scores: %v vs %v", first.Chunks[0].Score, second.Chunks[0].Score)
	}
	if got := e.Status().RerankCached; got != 1 {
		t.Errorf("RerankCached = %d, want 1", got)
	}

	e.Index().Clear()
	if got := e.Status(); got.Chunks != 0 || got.RerankCached != 0 {
		t.Errorf("status after Clear = %+v", got)
	}
}

func TestStatus(t *testing.T) {
	got := NewEngine(newIndex(), nil, Options{}).Status()
	if got.Files != 4 || got.Chunks != 4 {
		t.Errorf("Status() = %+v, want 4 files and 4 chunks", got)
	}
}
