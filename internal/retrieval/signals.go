package retrieval

import (
	"path"
	"regexp"
	"strings"
)

// Scoring weights. The rerank nudge in particular can reorder closely
// scored candidates near the 0.5 model-score midpoint.
const (
	keywordContentWeight = 1.6
	keywordPathWeight    = 0.8
	anchorContentWeight  = 2.0
	anchorPathWeight     = 1.3
	missingAnchorPenalty = 1.8

	featureGroupWeight   = 0.7
	featurePathWeight    = 0.8
	maxFeatureSignal     = 3.0
	weakFeatureThreshold = 0.6
	weakFeaturePenalty   = 1.0
	entryFileBoost       = 1.2

	definitionBoost     = 1.0
	definingFileBoost   = 1.2
	comparisonFeature   = 0.5
	comparisonMultiHit  = 1.0
	debugContentBoost   = 1.2
	debugPathBoost      = 0.8
	noiseWeight         = 2.5
	testFilePenalty     = 1.5
	rerankSpread        = 1.6
	strictTopThreshold  = 1.2
	relaxedTopThreshold = 0.6
)

// featureIdioms are content markers of user-facing functionality, grouped so
// each group counts once.
var featureIdioms = [][]string{
	{"createbrowserrouter", "browserrouter", "routerprovider", "<route", "usenavigate", "useparams", "react-router", "<link", "path:"},
	{"usestate", "usereducer", "usecontext", "createcontext", "redux", "createslice", "zustand", "useselector"},
	{"useeffect", "fetch(", "axios", "usequery", "useswr", "await "},
	{"shimmer", "skeleton", "loading", "spinner", "suspense", "loader"},
	{"return (", "classname=", "<div", "props"},
	{"login", "logout", "auth", "signin", "signup", "password"},
	{"<form", "onsubmit", "onchange", "<input", "useform"},
}

var featurePathSegments = []string{
	"/pages/", "/components/", "/routes/", "/features/", "/views/", "/screens/",
	"/hooks/", "/store/", "/context/", "/utils/", "/services/", "/api/",
}

var entryPrefixes = []string{"app.", "main.", "index.", "router.", "routes."}

// noiseHints mark config, settings, lint and build files.
var noiseHints = []string{
	"config", "settings", ".env", "eslint", "prettier", "babel", "webpack", "vite.",
	"rollup", "tsconfig", "jsconfig", "package.json", "package-lock", "yarn.lock",
	"pnpm-lock", "postcss", "tailwind", "dockerfile", "makefile", ".gitignore",
	".editorconfig", "jest.config", "vitest", "go.sum", "go.mod", "requirements.txt",
	"setup.py", "pyproject",
}

var testPathRe = regexp.MustCompile(`(^|/)(__tests__|tests?|spec|__mocks__)/|[._-](test|spec)\.[a-z0-9]+$|_test\.go$|(^|/)test_[^/]+\.py$`)

var definitionRe = regexp.MustCompile(`(?m)^\s*(?:export\s+(?:default\s+)?)?(?:async\s+)?(?:function|class|const|let|var|def|func|type|interface|struct|module\.exports)\b`)

var errorIdioms = []string{
	"try {", "try{", "catch (", "catch(", ".catch(", "throw ", "error", "exception",
	"except ", "err != nil", "panic(", "raise ",
}

var errorPathHints = []string{"error", "exception", "fallback", "boundary", "errors", "fault"}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// featureSignal scores how much a chunk looks like user-facing feature code.
func featureSignal(lowContent, lowPath string) float64 {
	var s float64
	for _, group := range featureIdioms {
		if containsAny(lowContent, group) {
			s += featureGroupWeight
		}
	}
	if containsAny("/"+lowPath, featurePathSegments) {
		s += featurePathWeight
	}
	return min(s, maxFeatureSignal)
}

func isEntryFile(lowPath string) bool {
	base := path.Base(lowPath)
	for _, p := range entryPrefixes {
		if strings.HasPrefix(base, p) {
			return true
		}
	}
	return false
}

// IsNoisePath reports whether p names a config, settings, lint or build file.
func IsNoisePath(p string) bool {
	return containsAny(strings.ToLower(path.Base(p)), noiseHints) || containsAny(strings.ToLower(p), []string{"/config/", "/configs/", "/settings/"})
}

// IsTestPath reports whether p names a test file.
func IsTestPath(p string) bool {
	return testPathRe.MatchString(strings.ToLower(p))
}

func hasDefinition(content string) bool {
	return definitionRe.MatchString(content)
}
