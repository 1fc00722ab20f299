// Package query turns intent text into the signals retrieval runs on: the
// query mode, keywords, and anchor terms.
package query

import "strings"

// Mode is the retrieval mode assigned to one intent. It selects the scoring
// policy and whether strict (no-match-allowed) behaviour applies.
type Mode string

const (
	ModeSpecific   Mode = "specific"
	ModeLocation   Mode = "location"
	ModeConfig     Mode = "config"
	ModeOverview   Mode = "overview"
	ModeComparison Mode = "comparison"
	ModeDebug      Mode = "debug"
)

// Strict reports whether the mode prefers returning nothing over a
// low-confidence answer.
func (m Mode) Strict() bool {
	return m == ModeSpecific || m == ModeLocation
}

// Modes lists every mode in classification priority order, followed by the
// default.
var Modes = []Mode{ModeConfig, ModeLocation, ModeComparison, ModeDebug, ModeOverview, ModeSpecific}

var (
	configTerms = []string{
		"config", "configuration", "setting", ".env", "env var", "environment variable",
		"build setup", "build tool", "bundler", "webpack", "vite", "babel", "eslint",
		"tsconfig", "package.json", "dependencies", "dependency", "tooling",
	}
	locationTerms = []string{
		"where is", "where are", "where does", "where do", "where can", "which file",
		"what file", "in which", "locate", "location of", "find the file", "defined in",
		"file that", "path to",
	}
	comparisonTerms = []string{
		"compare", "comparison", "difference between", "differences between", "differ",
		" vs ", " vs.", "versus", "better than", "instead of",
	}
	debugTerms = []string{
		"error", "bug", "debug", "exception", "crash", "fails", "failing", "failure",
		"broken", "not working", "doesn't work", "does not work", "stack trace", "fix",
	}
	overviewTerms = []string{
		"overview", "architecture", "key feature", "main feature", "capabilities",
		"what does this codebase do", "what this codebase does", "what does this repo do",
		"what this repo does", "what does this project do", "what this project does",
		"summarize", "summary of", "high level", "high-level", "big picture",
		"structure of the", "project structure",
	}
)

// Classify assigns a Mode to intent text. Matching is a case-insensitive
// substring test against fixed term sets, tried in priority order; the first
// match wins.
func Classify(text string) Mode {
	t := " " + strings.ToLower(strings.TrimSpace(text)) + " "
	switch {
	case containsAny(t, configTerms):
		return ModeConfig
	case containsAny(t, locationTerms):
		return ModeLocation
	case containsAny(t, comparisonTerms):
		return ModeComparison
	case containsAny(t, debugTerms):
		return ModeDebug
	case containsAny(t, overviewTerms):
		return ModeOverview
	case strings.Contains(t, "feature") && (strings.Contains(t, "what") || strings.Contains(t, "which")):
		return ModeOverview
	}
	return ModeSpecific
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
