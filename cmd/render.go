package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"

	"reposcope/internal/rag"
	"reposcope/internal/retrieval"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// markdownPrinter writes markdown to w, styled with glamour when w is a
// terminal and as plain text otherwise.
func markdownPrinter(w io.Writer) func(md string) {
	if !isTerminal(w) {
		return func(md string) { fmt.Fprintln(w, strings.TrimRight(md, "\n")) }
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return func(md string) { fmt.Fprintln(w, strings.TrimRight(md, "\n")) }
	}
	return func(md string) {
		out, err := r.Render(md)
		if err != nil {
			out = md
		}
		fmt.Fprint(w, out)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// answerMarkdown renders one answer with its header line.
func answerMarkdown(i, n int, a rag.Answer) string {
	var b strings.Builder
	if n > 1 {
		fmt.Fprintf(&b, "## %d/%d: %s\n\n", i+1, n, a.Intent.Text)
	} else {
		fmt.Fprintf(&b, "## %s\n\n", a.Intent.Text)
	}
	fmt.Fprintf(&b, "_mode: %s · grounding: %s · confidence: %s_\n\n",
		a.Search.Mode, a.Search.Assessment.Reason, a.Result.Confidence)
	b.WriteString(a.Result.Explanation)
	b.WriteString("\n")
	return b.String()
}

// searchMarkdown lists ranked chunks with their scores.
func searchMarkdown(sr rag.SearchResult, withContent bool) string {
	var b strings.Builder
	as := sr.Assessment
	fmt.Fprintf(&b, "## Search results for %q\n\n", sr.Intent)
	fmt.Fprintf(&b, "Mode **%s**, grounded **%t** (%s), top score %.2f", sr.Mode, as.IsGrounded, as.Reason, as.TopScore)
	if len(as.AnchorTerms) > 0 {
		fmt.Fprintf(&b, ", anchors `%s` covered %.0f%%", strings.Join(as.AnchorTerms, "`, `"), as.AnchorCoverage*100)
	}
	b.WriteString("\n\n")
	if len(sr.Chunks) == 0 {
		b.WriteString("No matching code.\n")
		return b.String()
	}
	for i, sc := range sr.Chunks {
		writeScoredChunk(&b, i, sc, withContent)
	}
	return b.String()
}

func writeScoredChunk(b *strings.Builder, i int, sc retrieval.ScoredChunk, withContent bool) {
	c := sc.Chunk
	fmt.Fprintf(b, "%d. `%s` (lines %d-%d) score %.2f", i+1, c.FilePath, c.StartLine, c.EndLine, sc.Score)
	if c.Name != "" {
		fmt.Fprintf(b, " %s `%s`", c.ChunkType, c.Name)
	}
	b.WriteString("\n")
	if withContent {
		fmt.Fprintf(b, "\n```%s\n%s\n```\n\n", strings.ToLower(c.Language), c.Content)
	}
}
