package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/mo"

	"reposcope/internal/llm"
	"reposcope/internal/outcome"
)

const fileSummaryPrompt = `Summarize this source file in 2-3 sentences. What does it define, and what is its role in the project? Be specific about the components, functions, or types it provides. Do not speculate about things not shown in the code.

File: %s
Language: %s

Content:
%s`

const overviewPrompt = `You are a senior software architect analyzing a codebase. Based ONLY on the file summaries and symbol names provided below, write a concise architectural overview in Markdown.

Rules:
- ONLY describe what you can directly observe in the provided summaries
- Do NOT guess or infer features that aren't shown
- Use the file summaries and symbol names to understand purpose

Cover:
1. What the project does (one paragraph)
2. Major components and how they connect (bullet points)
3. Key data flows through the system

Keep it under 300 words. Do not include code snippets.
`

// summarize asks the completer for a short summary of one file.
func (idx *Index) summarize(ctx context.Context, f FileEntry, content string) mo.Result[string] {
	if idx.completer == nil {
		return outcome.Fail[string](outcome.Unavailable, nil)
	}
	content = truncateRunes(content, idx.opts.SummaryChars)
	out, err := idx.completer.Complete(ctx, fmt.Sprintf(fileSummaryPrompt, f.Path, f.Language, content), llm.Options{
		MaxTokens:   200,
		Temperature: mo.Some(0.2),
	})
	if err != nil {
		return outcome.Fail[string](outcome.ProviderFailed, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return outcome.Fail[string](outcome.Empty, nil)
	}
	return mo.Ok(out)
}

func syntheticSummary(f FileEntry) string {
	return fmt.Sprintf("%s file %s (%d lines, %d chunks).", f.Language, f.Path, f.Lines, f.Chunks)
}

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Overview synthesizes a project-level architectural overview from file
// summaries and named chunks.
func (idx *Index) Overview(ctx context.Context) (string, error) {
	if idx.completer == nil {
		return "", errors.New("no completion provider configured")
	}
	files := idx.Files()
	if len(files) == 0 {
		return "", errors.New("no files indexed")
	}

	namesByFile := make(map[string][]CodeChunk)
	for _, c := range idx.Chunks() {
		if c.ChunkType != "block" && c.Name != "" {
			namesByFile[c.FilePath] = append(namesByFile[c.FilePath], c)
		}
	}

	var b strings.Builder
	b.WriteString(overviewPrompt)
	b.WriteString("\n## Project Structure\n\n")
	for _, f := range files {
		fmt.Fprintf(&b, "### %s  (%s, %d chunks)\n", f.Path, f.Language, f.Chunks)
		if f.Summary != "" {
			fmt.Fprintf(&b, "Summary: %s\n", f.Summary)
		}
		for _, c := range namesByFile[f.Path] {
			fmt.Fprintf(&b, "  - [%s] %s\n", c.ChunkType, c.Name)
		}
		b.WriteString("\n")
	}

	out, err := idx.completer.Complete(ctx, b.String(), llm.Options{MaxTokens: 600})
	if err != nil {
		return "", fmt.Errorf("generate overview: %w", err)
	}
	return strings.TrimSpace(out), nil
}
