package query

import (
	"regexp"
	"strings"
)

var (
	internalCapRe = regexp.MustCompile(`[a-z0-9][A-Z]`)
	hookPrefixRe  = regexp.MustCompile(`^use[A-Z]`)
	rawTokenRe    = regexp.MustCompile(`[A-Za-z0-9_$@./:\-]+`)
)

// IsCodeLike reports whether tok looks like a code entity: it contains a
// path or member separator, an underscore, internal capitalization, or a
// hook-style use* prefix.
func IsCodeLike(tok string) bool {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return false
	}
	if strings.ContainsAny(tok, "/._:") {
		return true
	}
	return internalCapRe.MatchString(tok) || hookPrefixRe.MatchString(tok)
}

// CodeLikeTokens returns the code-like tokens written in text, normalized
// with NormalizeEntity.
func CodeLikeTokens(text string) []string {
	var out []string
	for _, raw := range rawTokenRe.FindAllString(text, -1) {
		tok := NormalizeEntity(raw)
		if tok != "" && IsCodeLike(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// NormalizeEntity strips call arguments, JSX brackets and trailing
// punctuation so `useState(0)` and `<Shimmer />` compare as identifiers.
func NormalizeEntity(tok string) string {
	tok = strings.TrimSpace(tok)
	if rest, ok := strings.CutPrefix(tok, "<"); ok {
		tok = strings.TrimPrefix(rest, "/")
	}
	tok = strings.TrimSuffix(tok, ">")
	tok = strings.TrimSpace(strings.TrimSuffix(tok, "/"))
	if open := strings.IndexByte(tok, '('); open > 0 && strings.HasSuffix(tok, ")") {
		tok = tok[:open]
	}
	return strings.TrimRight(tok, ".,;:!?")
}
