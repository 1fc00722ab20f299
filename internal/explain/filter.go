package explain

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"reposcope/internal/query"
)

var (
	backtickSpanRe = regexp.MustCompile("`([^`\n]+)`")
	entityTokenRe  = regexp.MustCompile(`[A-Za-z0-9_$@./:\-]+`)
	barePathRe     = regexp.MustCompile(`(?i)(?:[A-Za-z0-9_@.\-]+/)*[A-Za-z0-9_@\-]+(?:\.[A-Za-z0-9_\-]+)*\.(?:jsx?|tsx?|mjs|cjs|json|go|py|css|scss|sass|less|html|vue|svelte|ya?ml|toml|md|sql|sh|rb|java|kt|rs|php|cs)\b`)
	routerTagRe    = regexp.MustCompile(`</?BrowserRouter\s*/?>`)
)

// genericEntities are ecosystem names allowed without evidence.
var genericEntities = []string{
	"node.js", "next.js", "vue.js", "react.js", "express.js", "react-router-dom",
	"react-router", "@reduxjs/toolkit", "npm", "yarn", "jsx", "tsx",
}

func itoa(n int) string { return strconv.Itoa(n) }

// StripCodeFences removes fenced code blocks entirely, whether opened with
// backticks or tildes. A fence closes only on the marker that opened it and
// an unterminated fence drops everything after it.
func StripCodeFences(text string) string {
	var kept []string
	open := ""
	for _, line := range strings.Split(text, "\n") {
		marker := fenceMarker(line)
		switch {
		case open == "" && marker != "":
			open = marker
			continue
		case open != "":
			if marker == open {
				open = ""
			}
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func fenceMarker(line string) string {
	trimmed := strings.TrimSpace(line)
	for _, m := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, m) {
			return m
		}
	}
	return ""
}

// CorrectRouterAPI rewrites mentions of createBrowserRouter and BrowserRouter
// when the evidence contains only the other one.
func CorrectRouterAPI(text, evidence string) string {
	hasCreate := strings.Contains(evidence, "createBrowserRouter")
	hasBare := bareBrowserRouterRe.MatchString(evidence)
	switch {
	case hasCreate && !hasBare:
		text = routerTagRe.ReplaceAllString(text, "createBrowserRouter")
		return bareBrowserRouterRe.ReplaceAllString(text, "createBrowserRouter")
	case hasBare && !hasCreate:
		return strings.ReplaceAll(text, "createBrowserRouter", "BrowserRouter")
	}
	return text
}

// EntitySet is the set of code entities an explanation may mention.
type EntitySet struct {
	tokens   map[string]bool
	paths    []string
	evidence string
}

// SupportedEntities builds the entity set from snippet paths and content,
// the code-like tokens of the query and a few generic ecosystem names.
func SupportedEntities(snippets []GroundedSnippet, q string) *EntitySet {
	set := &EntitySet{tokens: make(map[string]bool)}
	var ev strings.Builder
	for _, s := range snippets {
		p := strings.ToLower(s.FilePath)
		base := path.Base(p)
		set.add(p, strings.TrimSuffix(p, path.Ext(p)), base, strings.TrimSuffix(base, path.Ext(base)))
		set.add(p + ":" + itoa(s.StartLine) + "-" + itoa(s.EndLine))
		set.paths = append(set.paths, p)
		for _, raw := range entityTokenRe.FindAllString(s.Snippet, -1) {
			set.add(query.NormalizeEntity(raw))
		}
		for _, m := range backtickSpanRe.FindAllStringSubmatch(s.Snippet, -1) {
			set.add(collapseSpaces(m[1]))
		}
		ev.WriteString(strings.ToLower(s.Snippet))
		ev.WriteByte('\n')
	}
	set.evidence = ev.String()
	set.add(query.CodeLikeTokens(q)...)
	set.add(genericEntities...)
	return set
}

func (e *EntitySet) add(toks ...string) {
	for _, t := range toks {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			e.tokens[t] = true
		}
	}
}

// Has reports whether tok is supported, comparing case-insensitively after
// normalization.
func (e *EntitySet) Has(tok string) bool {
	n := strings.ToLower(query.NormalizeEntity(collapseSpaces(tok)))
	if n == "" || e.tokens[n] {
		return true
	}
	if strings.Contains(n, "/") && path.Ext(n) != "" && e.pathSuffix(n) {
		return true
	}
	return containsWord(e.evidence, n)
}

// pathSuffix reports whether p names an evidence file by a trailing run of
// its directories, so components/shimmer.jsx matches src/components/shimmer.jsx
// but old/shimmer.jsx does not.
func (e *EntitySet) pathSuffix(p string) bool {
	p = strings.TrimPrefix(p, "./")
	for _, ev := range e.paths {
		if ev == p || strings.HasSuffix(ev, "/"+p) {
			return true
		}
	}
	return false
}

// containsWord reports whether w occurs in s as a whole word. Edges of w
// that are not identifier characters match anything.
func containsWord(s, w string) bool {
	if w == "" {
		return false
	}
	checkLeft, checkRight := isIdentByte(w[0]), isIdentByte(w[len(w)-1])
	for from := 0; ; {
		i := strings.Index(s[from:], w)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(w)
		left := !checkLeft || i == 0 || !isIdentByte(s[i-1])
		right := !checkRight || end == len(s) || !isIdentByte(s[end])
		if left && right {
			return true
		}
		from = i + 1
	}
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// spanSupported accepts a backtick span when the whole span is known or
// every code-like token inside it is.
func (e *EntitySet) spanSupported(span string) bool {
	if e.tokens[strings.ToLower(collapseSpaces(span))] {
		return true
	}
	for _, tok := range entityTokenRe.FindAllString(span, -1) {
		n := query.NormalizeEntity(tok)
		if query.IsCodeLike(n) && !e.Has(n) {
			return false
		}
	}
	return true
}

// balanceBackticks drops the last backtick of a line with an odd count.
func balanceBackticks(line string) string {
	if strings.Count(line, "`")%2 == 0 {
		return line
	}
	i := strings.LastIndex(line, "`")
	return line[:i] + line[i+1:]
}

// FilterUnsupported removes every line that mentions a code entity or file
// path the evidence does not support, and reports how many lines it removed.
func FilterUnsupported(text string, snippets []GroundedSnippet, q string) (string, int) {
	set := SupportedEntities(snippets, q)
	var kept []string
	removed := 0
	for _, line := range strings.Split(text, "\n") {
		line = balanceBackticks(line)
		if lineSupported(set, line) {
			kept = append(kept, line)
		} else {
			removed++
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), removed
}

func lineSupported(set *EntitySet, line string) bool {
	for _, m := range backtickSpanRe.FindAllStringSubmatch(line, -1) {
		if !set.spanSupported(m[1]) {
			return false
		}
	}
	bare := backtickSpanRe.ReplaceAllString(line, " ")
	for _, p := range barePathRe.FindAllString(bare, -1) {
		if !set.Has(p) {
			return false
		}
	}
	return true
}
