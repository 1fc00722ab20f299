package retrieval

import (
	"context"
	"reflect"
	"slices"
	"testing"

	"reposcope/internal/index"
	"reposcope/internal/query"
)

func TestScoreOverviewExcludesBuildConfig(t *testing.T) {
	s := NewScorer(Options{})
	got := paths(s.Score(context.Background(), "what are the key features in this codebase?", appChunks(), 3))
	if slices.Contains(got, "vite.config.js") {
		t.Fatalf("overview results %v include the build config", got)
	}
	for _, want := range []string{"src/router.jsx", "src/components/Shimmer.jsx"} {
		if !slices.Contains(got, want) {
			t.Errorf("overview results %v missing %s", got, want)
		}
	}
}

func TestScoreConfigRanksConfigFirst(t *testing.T) {
	s := NewScorer(Options{})
	got := s.Score(context.Background(), "explain the vite config and build setup", appChunks(), 5)
	if len(got) == 0 || got[0].Chunk.FilePath != "vite.config.js" {
		t.Fatalf("config results = %v", paths(got))
	}
}

func TestScoreStrictNoMatchIsEmpty(t *testing.T) {
	chunks := []index.CodeChunk{
		chunk(0, "src/router.jsx", routerSource),
		chunk(1, "src/components/Header.jsx", headerSource),
	}
	s := NewScorer(Options{})
	if got := s.Score(context.Background(), "where is payment gateway implemented?", chunks, 5); len(got) != 0 {
		t.Fatalf("expected no results, got %v", paths(got))
	}
}

func TestScoreLocationPrefersDefiningFile(t *testing.T) {
	s := NewScorer(Options{})
	got := s.Score(context.Background(), "where is the Shimmer component", appChunks(), 5)
	want := []string{"src/components/Shimmer.jsx", "src/pages/Home.jsx"}
	if !reflect.DeepEqual(paths(got), want) {
		t.Fatalf("got %v, want %v", paths(got), want)
	}
	for _, sc := range got {
		if sc.Score <= 0 {
			t.Errorf("non-positive score %v", sc.Score)
		}
	}
}

func TestScoreDoesNotMutateChunks(t *testing.T) {
	chunks := appChunks()
	before := slices.Clone(chunks)
	NewScorer(Options{}).Score(context.Background(), "how does routing work", chunks, 3)
	if !reflect.DeepEqual(chunks, before) {
		t.Fatal("Score modified the chunk arena")
	}
}

func TestScoreHeuristicFallback(t *testing.T) {
	chunks := appChunks()[1:] // no config files at all
	got := NewScorer(Options{}).Score(context.Background(), "explain eslint config", chunks, 5)
	if !reflect.DeepEqual(paths(got), []string{"src/router.jsx"}) {
		t.Fatalf("heuristic fallback = %v", paths(got))
	}
}

func TestScoreRespectsTopK(t *testing.T) {
	got := NewScorer(Options{}).Score(context.Background(), "what are the key features", appChunks(), 1)
	if len(got) != 1 {
		t.Fatalf("got %d results", len(got))
	}
	if got := NewScorer(Options{}).Score(context.Background(), "anything", appChunks(), 0); got != nil {
		t.Fatalf("topK 0 returned %v", got)
	}
}

func scored(file string, id int, score float64) ScoredChunk {
	c := chunk(id, file, "x")
	return ScoredChunk{Chunk: c, Score: score}
}

func TestApplyCutoff(t *testing.T) {
	relaxed := []ScoredChunk{scored("a", 0, 5), scored("b", 1, 1.2), scored("c", 2, 1.0)}
	if got := applyCutoff(relaxed, query.ModeOverview); len(got) != 2 {
		t.Fatalf("relaxed cutoff kept %d", len(got))
	}
	weak := []ScoredChunk{scored("a", 0, 1.1)}
	if got := applyCutoff(weak, query.ModeSpecific); got != nil {
		t.Fatalf("strict cutoff kept weak top: %v", got)
	}
	if got := applyCutoff(weak, query.ModeDebug); len(got) != 1 {
		t.Fatalf("relaxed cutoff dropped 1.1 top")
	}
}

func TestSelectDiverse(t *testing.T) {
	sorted := []ScoredChunk{
		scored("a.js", 0, 10), scored("a.js", 1, 9), scored("a.js", 2, 8),
		scored("a.js", 3, 7), scored("b.js", 4, 1),
	}
	ids := func(s []ScoredChunk) []int {
		var out []int
		for _, c := range s {
			out = append(out, c.Chunk.ID)
		}
		return out
	}
	if got := ids(SelectDiverse(sorted, query.ModeSpecific, 4)); !reflect.DeepEqual(got, []int{0, 1, 2, 4}) {
		t.Errorf("specific = %v", got)
	}
	if got := ids(SelectDiverse(sorted, query.ModeOverview, 3)); !reflect.DeepEqual(got, []int{0, 1, 4}) {
		t.Errorf("overview = %v", got)
	}
	if got := ids(SelectDiverse(sorted, query.ModeOverview, 2)); !reflect.DeepEqual(got, []int{0, 4}) {
		t.Errorf("overview top 2 = %v", got)
	}
}

func TestNoiseAndTestPaths(t *testing.T) {
	noise := []string{"vite.config.js", ".eslintrc.json", "package.json", "src/config/db.js", "tsconfig.json"}
	for _, p := range noise {
		if !IsNoisePath(p) {
			t.Errorf("IsNoisePath(%q) = false", p)
		}
	}
	if IsNoisePath("src/router.jsx") {
		t.Error("router.jsx flagged as noise")
	}
	tests := []string{"src/App.test.jsx", "__tests__/x.js", "pkg/store_test.go", "tests/test_api.py"}
	for _, p := range tests {
		if !IsTestPath(p) {
			t.Errorf("IsTestPath(%q) = false", p)
		}
	}
	if IsTestPath("src/latest.js") {
		t.Error("latest.js flagged as test")
	}
}
