package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func numberedLines(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	return b.String()
}

func TestLineChunkerWindows(t *testing.T) {
	segs, err := NewLineChunker(50).Chunk("src/app/main.go", []byte(numberedLines(120)))
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]int{{1, 50}, {51, 100}, {101, 120}}
	if len(segs) != len(want) {
		t.Fatalf("got %d segments, want %d", len(segs), len(want))
	}
	for i, s := range segs {
		if s.StartLine != want[i][0] || s.EndLine != want[i][1] {
			t.Errorf("segment %d = %d-%d, want %d-%d", i, s.StartLine, s.EndLine, want[i][0], want[i][1])
		}
		if s.Kind != KindBlock {
			t.Errorf("segment %d kind = %q", i, s.Kind)
		}
		if wantName := fmt.Sprintf("main.go[%d-%d]", want[i][0], want[i][1]); s.Name != wantName {
			t.Errorf("segment %d name = %q, want %q", i, s.Name, wantName)
		}
		if !strings.HasPrefix(s.Content, fmt.Sprintf("line %d\n", want[i][0])) {
			t.Errorf("segment %d starts with %q", i, s.Content[:10])
		}
	}
}

func TestLineChunkerSkipsBlankWindows(t *testing.T) {
	src := "a\nb\n" + strings.Repeat("   \n", 4) + "c\n"
	segs, _ := NewLineChunker(2).Chunk("x.txt", []byte(src))
	if len(segs) != 2 {
		t.Fatalf("got %d segments: %+v", len(segs), segs)
	}
	if segs[1].StartLine != 7 || segs[1].EndLine != 7 || segs[1].Content != "c" {
		t.Fatalf("last segment = %+v", segs[1])
	}
}

func TestLineChunkerEmptyAndCRLF(t *testing.T) {
	if segs, _ := NewLineChunker(0).Chunk("empty.js", nil); len(segs) != 0 {
		t.Fatalf("empty file produced %d segments", len(segs))
	}
	segs, _ := NewLineChunker(0).Chunk("w.js", []byte("a\r\nb\r\n"))
	if len(segs) != 1 || segs[0].Content != "a\nb" || segs[0].EndLine != 2 {
		t.Fatalf("got %+v", segs)
	}
}

func TestASTChunkerFallsBackWithoutGrammar(t *testing.T) {
	c := NewASTChunker(NewRegistry(), NewLineChunker(50))
	segs, err := c.Chunk("README.md", []byte(numberedLines(60)))
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 || segs[1].StartLine != 51 {
		t.Fatalf("got %+v", segs)
	}
}

func TestOutermost(t *testing.T) {
	defs := outermost([]definition{
		{name: "inner", startLine: 3, endLine: 4},
		{name: "outer", startLine: 2, endLine: 10},
		{name: "next", startLine: 11, endLine: 12},
	})
	if len(defs) != 2 || defs[0].name != "outer" || defs[1].name != "next" {
		t.Fatalf("got %+v", defs)
	}
}
