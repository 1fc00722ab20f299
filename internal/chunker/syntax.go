package chunker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ASTChunker parses source files with tree-sitter and emits one segment per
// top-level definition. Lines between definitions, and files without a
// registered grammar, are windowed by the fallback chunker.
type ASTChunker struct {
	registry *Registry
	fallback *LineChunker
}

// NewASTChunker creates a chunker backed by the given registry.
func NewASTChunker(r *Registry, fallback *LineChunker) *ASTChunker {
	if fallback == nil {
		fallback = NewLineChunker(DefaultWindow)
	}
	return &ASTChunker{registry: r, fallback: fallback}
}

// Chunk returns definition segments and windowed gap segments in line order.
func (c *ASTChunker) Chunk(path string, src []byte) ([]Segment, error) {
	spec := c.registry.Lookup(path)
	if spec == nil {
		return c.fallback.Chunk(path, src)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(spec.Language)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	q, err := sitter.NewQuery([]byte(spec.Query), spec.Language)
	if err != nil {
		return nil, fmt.Errorf("compile query for %s: %w", spec.Name, err)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	var defs []definition
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		var node *sitter.Node
		var name string
		for _, capt := range m.Captures {
			switch q.CaptureNameForId(capt.Index) {
			case "chunk":
				node = capt.Node
			case "name":
				name = capt.Node.Content(src)
			}
		}
		if node == nil {
			continue
		}
		defs = append(defs, definition{
			name:      name,
			kind:      node.Type(),
			startLine: int(node.StartPoint().Row) + 1,
			endLine:   int(node.EndPoint().Row) + 1,
		})
	}

	lines := splitLines(src)
	defs = outermost(defs)
	if len(defs) == 0 {
		return c.fallback.chunkLines(path, lines, 1), nil
	}

	var out []Segment
	next := 1
	for _, d := range defs {
		if d.startLine < next {
			continue
		}
		if d.startLine > next {
			out = append(out, c.fallback.chunkLines(path, lines[next-1:d.startLine-1], next)...)
		}
		end := min(d.endLine, len(lines))
		out = append(out, c.definitionSegments(path, d, lines[d.startLine-1:end])...)
		next = end + 1
	}
	if next <= len(lines) {
		out = append(out, c.fallback.chunkLines(path, lines[next-1:], next)...)
	}
	return out, nil
}

// definitionSegments returns d as one segment, or several windows named
// after d when it is longer than the fallback window.
func (c *ASTChunker) definitionSegments(path string, d definition, lines []string) []Segment {
	if len(lines) <= c.fallback.window {
		return []Segment{{
			Name:      d.name,
			Kind:      d.kind,
			StartLine: d.startLine,
			EndLine:   d.startLine + len(lines) - 1,
			Content:   strings.Join(lines, "\n"),
		}}
	}
	parts := c.fallback.chunkLines(path, lines, d.startLine)
	for i := range parts {
		parts[i].Kind = d.kind
		if d.name != "" {
			parts[i].Name = fmt.Sprintf("%s[%d-%d]", d.name, parts[i].StartLine, parts[i].EndLine)
		}
	}
	return parts
}

type definition struct {
	name      string
	kind      string
	startLine int
	endLine   int
}

// outermost drops definitions nested inside an earlier, larger one.
func outermost(defs []definition) []definition {
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].startLine != defs[j].startLine {
			return defs[i].startLine < defs[j].startLine
		}
		return defs[i].endLine > defs[j].endLine
	})
	var out []definition
	lastEnd := 0
	for _, d := range defs {
		if d.startLine > lastEnd {
			out = append(out, d)
			lastEnd = d.endLine
		}
	}
	return out
}
