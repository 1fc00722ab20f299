package query

import (
	"regexp"
	"strings"
)

var (
	wordRe       = regexp.MustCompile(`[a-z0-9]+`)
	backtickRe   = regexp.MustCompile("`([^`]+)`")
	quotedRe     = regexp.MustCompile(`"([^"]{2,})"|(?:^|\s)'([^']{2,})'`)
	routeLikeRe  = regexp.MustCompile(`(?:^|\s)(/[A-Za-z0-9_:\-./]+)`)
	camelCaseRe  = regexp.MustCompile(`\b[a-z]+[A-Z][A-Za-z0-9]*\b|\b[A-Z][a-z0-9]+[A-Z][A-Za-z0-9]*\b`)
)

const (
	maxAnchors   = 10
	minAnchorLen = 3
)

// Tokenize lower-cases text and returns its alphanumeric words.
func Tokenize(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

// ExtractKeywords returns the distinct non-stop-word tokens of text in order
// of first appearance, with simple plurals singularized.
func ExtractKeywords(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range Tokenize(text) {
		if stopWords[tok] {
			continue
		}
		tok = singularize(tok)
		if stopWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

func singularize(tok string) string {
	if len(tok) > 4 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") {
		return tok[:len(tok)-1]
	}
	return tok
}

// ExtractAnchorTerms returns the high-signal terms of text: explicit
// identifiers written in the text (backticked, quoted, route-like or
// camelCase) followed by keywords that are not low-signal, at most ten,
// lower-cased and de-duplicated.
func ExtractAnchorTerms(text string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(term string) {
		term = strings.ToLower(strings.Trim(strings.TrimSpace(term), ".,;:!?()"))
		if len(term) < minAnchorLen || seen[term] || lowSignalWords[term] || stopWords[term] {
			return
		}
		if len(out) >= maxAnchors {
			return
		}
		seen[term] = true
		out = append(out, term)
	}

	for _, m := range backtickRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			add(m[1])
		} else {
			add(m[2])
		}
	}
	for _, m := range routeLikeRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range camelCaseRe.FindAllString(text, -1) {
		add(m)
	}
	for _, kw := range ExtractKeywords(text) {
		add(kw)
	}
	return out
}

// ExpandAnchor returns term together with its light stems and synonyms.
func ExpandAnchor(term string) []string {
	term = strings.ToLower(term)
	seen := map[string]bool{term: true}
	out := []string{term}
	add := func(s string) {
		if len(s) >= minAnchorLen && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, suffix := range []string{"ing", "ed"} {
		if stem, ok := strings.CutSuffix(term, suffix); ok && len(stem) >= minAnchorLen {
			add(stem)
		}
	}
	for _, base := range append([]string(nil), out...) {
		for _, syn := range synonymIndex[base] {
			add(syn)
		}
	}
	return out
}

// ExpandAnchors expands every anchor term; result[i] belongs to anchors[i].
func ExpandAnchors(anchors []string) [][]string {
	out := make([][]string, len(anchors))
	for i, a := range anchors {
		out[i] = ExpandAnchor(a)
	}
	return out
}
