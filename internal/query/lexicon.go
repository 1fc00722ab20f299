package query

// stopWords are dropped from keyword extraction. Besides common English
// function words the list carries terms that name the question rather than
// the code ("code", "repo", "explain").
var stopWords = toSet(
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "of", "to", "in",
	"on", "at", "by", "for", "with", "from", "into", "about", "as", "is", "are",
	"was", "were", "be", "been", "being", "do", "does", "did", "done", "have",
	"has", "had", "it", "its", "this", "that", "these", "those", "them", "they",
	"we", "our", "you", "your", "i", "me", "my", "he", "she", "what", "which",
	"who", "whom", "why", "how", "where", "when", "can", "could", "would",
	"should", "will", "shall", "may", "might", "must", "there", "here", "so",
	"not", "no", "yes", "all", "any", "some", "also", "plus", "just", "than",
	"too", "very", "please", "tell", "explain", "describe", "show", "define",
	"give", "help", "want", "know", "use", "using", "used", "code", "codebase",
	"repo", "repository", "project", "source", "file", "files",
)

// lowSignalWords never become anchor terms: they appear in nearly every
// chunk or describe the shape of the question.
var lowSignalWords = toSet(
	"system", "feature", "overview", "work", "works", "working", "implement",
	"implemented", "implementation", "function", "functions", "logic", "handle",
	"handled", "handling", "component", "module", "app", "application", "main",
	"key", "part", "thing", "data", "flow", "detail", "details", "way", "make",
	"made", "need", "needed", "purpose", "role", "mean", "means", "happen",
	"happens", "setup", "inside", "whole", "list", "many", "much", "each",
	"every", "other", "new", "get", "set", "run", "runs", "call", "called",
)

// questionWords open a question or instruction.
var questionWords = toSet(
	"what", "why", "how", "where", "when", "which", "who", "whom", "whose",
	"explain", "describe", "show", "define", "list", "is", "are", "does", "do",
	"can", "could", "would", "should", "tell",
)

// synonymGroups are bidirectional: any member expands to the whole group.
var synonymGroups = [][]string{
	{"routing", "route", "routes", "router"},
	{"authentication", "auth", "login", "token"},
	{"state", "store", "context", "redux"},
	{"loading", "shimmer", "skeleton", "loader"},
}

var synonymIndex = func() map[string][]string {
	idx := make(map[string][]string)
	for _, group := range synonymGroups {
		for _, term := range group {
			idx[term] = group
		}
	}
	return idx
}()

func toSet(words ...string) map[string]bool {
	s := make(map[string]bool, len(words))
	for _, w := range words {
		s[w] = true
	}
	return s
}

// IsStopWord reports whether w (lower-case) is dropped from keywords.
func IsStopWord(w string) bool { return stopWords[w] }

// IsQuestionWord reports whether w (lower-case) opens a question.
func IsQuestionWord(w string) bool { return questionWords[w] }
