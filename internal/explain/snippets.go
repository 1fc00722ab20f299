package explain

import (
	"strings"
	"unicode/utf8"

	"reposcope/internal/index"
)

const (
	maxSnippets     = 6
	maxSnippetChars = 900
	maxEvidence     = 4
	maxReferences   = 5
)

// GroundedSnippet is a bounded excerpt of one retrieved chunk.
type GroundedSnippet struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Snippet   string `json:"snippet"`
}

// Citation formats the snippet location as "path (lines s-e)".
func (s GroundedSnippet) Citation() string {
	return s.FilePath + " (lines " + itoa(s.StartLine) + "-" + itoa(s.EndLine) + ")"
}

// BuildSnippets converts up to six chunks into snippets with runs of blank
// lines collapsed and each body capped at 900 characters.
func BuildSnippets(chunks []index.CodeChunk) []GroundedSnippet {
	out := make([]GroundedSnippet, 0, min(len(chunks), maxSnippets))
	for _, c := range chunks {
		if len(out) == maxSnippets {
			break
		}
		body := truncateChars(collapseBlankRuns(c.Content), maxSnippetChars)
		if body == "" {
			continue
		}
		out = append(out, GroundedSnippet{
			FilePath:  c.FilePath,
			StartLine: c.StartLine,
			EndLine:   c.EndLine,
			Snippet:   body,
		})
	}
	return out
}

func collapseBlankRuns(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	kept := lines[:0]
	blank := true
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		kept = append(kept, l)
	}
	return strings.TrimRight(strings.Join(kept, "\n"), "\n")
}

func truncateChars(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// evidenceText joins snippet bodies for pattern checks.
func evidenceText(snippets []GroundedSnippet) string {
	var b strings.Builder
	for _, s := range snippets {
		b.WriteString(s.Snippet)
		b.WriteByte('\n')
	}
	return b.String()
}
