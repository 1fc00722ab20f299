// Package chunker splits source files into contiguous line ranges, the unit
// of retrieval.
package chunker

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultWindow is the number of lines per fixed-size chunk.
const DefaultWindow = 50

// KindBlock marks a fixed line window.
const KindBlock = "block"

// Segment is one chunk of a file before it enters the index. Lines are
// 1-based and inclusive.
type Segment struct {
	Name      string
	Kind      string
	StartLine int
	EndLine   int
	Content   string
}

// Chunker splits one file's content into segments.
type Chunker interface {
	Chunk(path string, src []byte) ([]Segment, error)
}

// LineChunker cuts files into non-overlapping windows of a fixed number of
// lines.
type LineChunker struct {
	window int
}

// NewLineChunker creates a chunker with the given window; values below 1 use
// DefaultWindow.
func NewLineChunker(window int) *LineChunker {
	if window < 1 {
		window = DefaultWindow
	}
	return &LineChunker{window: window}
}

// Window returns the configured window size.
func (c *LineChunker) Window() int { return c.window }

// Chunk returns one segment per window. Windows holding only whitespace are
// skipped.
func (c *LineChunker) Chunk(path string, src []byte) ([]Segment, error) {
	return c.chunkLines(path, splitLines(src), 1), nil
}

// chunkLines windows lines, numbering the first line firstLine.
func (c *LineChunker) chunkLines(path string, lines []string, firstLine int) []Segment {
	base := filepath.Base(path)
	var out []Segment
	for i := 0; i < len(lines); i += c.window {
		end := min(i+c.window, len(lines))
		content := strings.Join(lines[i:end], "\n")
		if strings.TrimSpace(content) == "" {
			continue
		}
		start, stop := firstLine+i, firstLine+end-1
		out = append(out, Segment{
			Name:      fmt.Sprintf("%s[%d-%d]", base, start, stop),
			Kind:      KindBlock,
			StartLine: start,
			EndLine:   stop,
			Content:   content,
		})
	}
	return out
}

func splitLines(src []byte) []string {
	text := strings.ReplaceAll(string(src), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
