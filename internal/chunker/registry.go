package chunker

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// LanguageSpec pairs a tree-sitter grammar with the query that finds
// top-level definitions. The query marks the whole definition with @chunk
// and may mark its identifier with @name.
type LanguageSpec struct {
	Name       string
	Language   *sitter.Language
	Query      string
	Extensions []string
}

// Registry resolves a file's grammar from its extension. It is built once
// and read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	byExt map[string]*LanguageSpec
}

// NewRegistry indexes specs by extension. A later spec wins when two claim
// the same extension.
func NewRegistry(specs ...*LanguageSpec) *Registry {
	r := &Registry{byExt: make(map[string]*LanguageSpec)}
	for _, spec := range specs {
		for _, ext := range spec.Extensions {
			r.byExt[strings.ToLower(ext)] = spec
		}
	}
	return r
}

// Lookup returns the spec for path, or nil when no grammar handles it.
func (r *Registry) Lookup(path string) *LanguageSpec {
	if r == nil {
		return nil
	}
	return r.byExt[strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))]
}

// Extensions lists the handled extensions, without the dot.
func (r *Registry) Extensions() map[string]bool {
	out := make(map[string]bool, len(r.byExt))
	for ext := range r.byExt {
		out[ext] = true
	}
	return out
}
