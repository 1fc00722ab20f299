package intent

import (
	"strings"

	"reposcope/internal/query"
)

// boilerplate words carry no subject of their own.
var boilerplate = map[string]bool{
	"this": true, "that": true, "repo": true, "repository": true, "codebase": true,
	"project": true, "code": true, "here": true, "it": true, "in": true, "the": true,
	"a": true, "an": true, "me": true, "we": true, "use": true, "about": true,
}

// Sanitize turns candidate texts into intents. It drops generic fragments,
// drops candidates that mention none of the original query's keywords (when
// it has any), removes case-insensitive duplicates and keeps at most
// MaxIntents, numbering priorities in the order kept.
func Sanitize(candidates []string, originalQuery string) []Intent {
	anchors := query.ExtractKeywords(originalQuery)
	seen := make(map[string]bool)
	var out []Intent
	for _, c := range candidates {
		text := strings.TrimSpace(strings.Trim(strings.TrimSpace(c), "?.!,;:"))
		if text == "" || isGeneric(text) {
			continue
		}
		if len(anchors) > 0 && !mentionsAny(text, anchors) {
			continue
		}
		key := strings.ToLower(text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, New(text, len(out)+1))
		if len(out) == MaxIntents {
			break
		}
	}
	return out
}

// isGeneric reports whether every word of text is a question word, stop word
// or boilerplate.
func isGeneric(text string) bool {
	for _, w := range query.Tokenize(text) {
		if !query.IsQuestionWord(w) && !query.IsStopWord(w) && !boilerplate[w] {
			return false
		}
	}
	return true
}

func mentionsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
