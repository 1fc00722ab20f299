// Package languages registers the tree-sitter grammars used for syntax-aware
// chunking.
package languages

import (
	"reposcope/internal/chunker"

	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

const jsQuery = `
	(function_declaration name: (identifier) @name) @chunk
	(class_declaration name: (identifier) @name) @chunk
	(export_statement (function_declaration name: (identifier) @name)) @chunk
	(export_statement (class_declaration name: (identifier) @name)) @chunk
	(lexical_declaration (variable_declarator name: (identifier) @name value: (arrow_function))) @chunk
	(export_statement (lexical_declaration (variable_declarator name: (identifier) @name value: (arrow_function)))) @chunk
`

const tsQuery = `
	(function_declaration name: (identifier) @name) @chunk
	(class_declaration name: (type_identifier) @name) @chunk
	(export_statement (function_declaration name: (identifier) @name)) @chunk
	(export_statement (class_declaration name: (type_identifier) @name)) @chunk
	(lexical_declaration (variable_declarator name: (identifier) @name value: (arrow_function))) @chunk
	(export_statement (lexical_declaration (variable_declarator name: (identifier) @name value: (arrow_function)))) @chunk
	(interface_declaration name: (type_identifier) @name) @chunk
	(type_alias_declaration name: (type_identifier) @name) @chunk
`

// Specs returns the built-in language specs.
func Specs() []*chunker.LanguageSpec {
	return []*chunker.LanguageSpec{
		{
			Name:     "go",
			Language: golang.GetLanguage(),
			Query: `
				(function_declaration name: (identifier) @name) @chunk
				(method_declaration name: (field_identifier) @name) @chunk
				(type_declaration (type_spec name: (type_identifier) @name)) @chunk
			`,
			Extensions: []string{"go"},
		},
		{
			Name:       "javascript",
			Language:   javascript.GetLanguage(),
			Query:      jsQuery,
			Extensions: []string{"js", "jsx", "mjs", "cjs"},
		},
		{
			Name:       "typescript",
			Language:   typescript.GetLanguage(),
			Query:      tsQuery,
			Extensions: []string{"ts", "mts", "cts"},
		},
		{
			Name:       "tsx",
			Language:   tsx.GetLanguage(),
			Query:      tsQuery,
			Extensions: []string{"tsx"},
		},
		{
			Name:     "python",
			Language: python.GetLanguage(),
			Query: `
				(function_definition name: (identifier) @name) @chunk
				(class_definition name: (identifier) @name) @chunk
				(decorated_definition definition: (function_definition name: (identifier) @name)) @chunk
				(decorated_definition definition: (class_definition name: (identifier) @name)) @chunk
			`,
			Extensions: []string{"py", "pyi"},
		},
	}
}

// NewRegistry returns a registry holding every built-in language.
func NewRegistry() *chunker.Registry {
	return chunker.NewRegistry(Specs()...)
}
