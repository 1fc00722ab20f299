// Package intent splits a raw user question into the discrete intents that
// retrieval answers one at a time.
package intent

import (
	"strings"

	"reposcope/internal/query"
)

// Type is the question shape of an intent.
type Type string

const (
	TypeHow     Type = "how"
	TypeWhat    Type = "what"
	TypeWhy     Type = "why"
	TypeWhere   Type = "where"
	TypeExplain Type = "explain"
	TypeShow    Type = "show"
	TypeGeneral Type = "general"
)

// MaxIntents caps how many intents one query yields.
const MaxIntents = 3

// Intent is one question extracted from a query. Priority runs from 1 (most
// important) to MaxIntents in order of appearance.
type Intent struct {
	Text     string   `json:"text"`
	Type     Type     `json:"type"`
	Keywords []string `json:"keywords"`
	Priority int      `json:"priority"`
}

// New builds an intent from text, deriving its type and keywords.
func New(text string, priority int) Intent {
	return Intent{
		Text:     text,
		Type:     typeOf(text),
		Keywords: query.ExtractKeywords(text),
		Priority: min(max(priority, 1), MaxIntents),
	}
}

func typeOf(text string) Type {
	words := query.Tokenize(text)
	if len(words) == 0 {
		return TypeGeneral
	}
	switch words[0] {
	case "how":
		return TypeHow
	case "what", "which", "define", "who":
		return TypeWhat
	case "why":
		return TypeWhy
	case "where":
		return TypeWhere
	case "explain", "describe":
		return TypeExplain
	case "show", "list":
		return TypeShow
	}
	return TypeGeneral
}

// ParseType maps a type name to a Type, falling back to TypeGeneral.
func ParseType(s string) Type {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeHow, TypeWhat, TypeWhy, TypeWhere, TypeExplain, TypeShow:
		return t
	}
	return TypeGeneral
}
