package explain

import (
	"regexp"
	"strings"
)

type factCheck struct {
	match func(content string) bool
	text  string
}

var (
	bareBrowserRouterRe = regexp.MustCompile(`\bBrowserRouter\b`)
	dynamicRouteRe      = regexp.MustCompile(`(?:path:\s*|path=)["']([^"']*/:[A-Za-z_][^"']*)["']`)
)

func contains(sub string) func(string) bool {
	return func(s string) bool { return strings.Contains(s, sub) }
}

var factChecks = []factCheck{
	{contains("createBrowserRouter"), "Routes are created with `createBrowserRouter`"},
	{bareBrowserRouterRe.MatchString, "The app is wrapped in `BrowserRouter`"},
	{contains("RouterProvider"), "`RouterProvider` supplies the router to the component tree"},
	{contains("Suspense"), "`Suspense` renders a fallback while components load"},
	{contains("lazy("), "Components are loaded on demand with `lazy`"},
	{contains("useParams"), "Route parameters are read with `useParams`"},
	{contains("useState"), "Local component state is kept with `useState`"},
	{contains("useEffect"), "Side effects run in `useEffect`"},
	{contains("createContext"), "Shared state is provided through `createContext`"},
	{contains("fetch("), "Data is requested with `fetch`"},
}

// ObservedFacts lists deterministic observations about the evidence, each
// citing the files it was seen in.
func ObservedFacts(snippets []GroundedSnippet) []string {
	var facts []string
	for _, check := range factChecks {
		if files := filesMatching(snippets, check.match); len(files) > 0 {
			facts = append(facts, check.text+" in "+strings.Join(files, ", ")+".")
		}
	}

	var routes, files []string
	for _, s := range snippets {
		found := false
		for _, m := range dynamicRouteRe.FindAllStringSubmatch(s.Snippet, -1) {
			routes = appendUnique(routes, m[1])
			found = true
		}
		if found {
			files = appendUnique(files, s.FilePath)
		}
	}
	if len(routes) > 0 {
		quoted := make([]string, 0, len(routes))
		for _, r := range routes[:min(len(routes), 3)] {
			quoted = append(quoted, "`"+r+"`")
		}
		facts = append(facts, "Dynamic route parameters appear in "+strings.Join(quoted, ", ")+" in "+strings.Join(files, ", ")+".")
	}
	return facts
}

func filesMatching(snippets []GroundedSnippet, match func(string) bool) []string {
	var files []string
	for _, s := range snippets {
		if match(s.Snippet) {
			files = appendUnique(files, s.FilePath)
		}
	}
	return files[:min(len(files), 3)]
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
