package explain

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"reposcope/internal/index"
	"reposcope/internal/retrieval"
)

const (
	maxFeatures         = 6
	maxFeatureRoutes    = 5
	maxFeatureCitations = 3
	pathHintWeight      = 0.5
)

var overviewPhrases = []string{
	"key feature", "main feature", "core feature", "capabilities",
	"what this codebase does", "what does this codebase do",
	"what this app does", "what does this app do",
	"what this project does", "what does this project do",
	"high level overview", "high-level overview",
}

var routePathRe = regexp.MustCompile(`(?:\bpath:\s*|<Route\b[^>]*\bpath=)["']([^"']+)["']`)

// IsFeatureOverview reports whether text asks what the codebase does as a
// whole rather than about one piece of it.
func IsFeatureOverview(text string) bool {
	low := strings.ToLower(text)
	for _, p := range overviewPhrases {
		if strings.Contains(low, p) {
			return true
		}
	}
	return strings.Contains(low, "feature") && (strings.Contains(low, "what") || strings.Contains(low, "which"))
}

// withoutNoise drops config, build and test chunks, keeping the input when
// nothing else would remain.
func withoutNoise(chunks []index.CodeChunk) []index.CodeChunk {
	kept := make([]index.CodeChunk, 0, len(chunks))
	for _, c := range chunks {
		if retrieval.IsNoisePath(c.FilePath) || retrieval.IsTestPath(c.FilePath) {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return chunks
	}
	return kept
}

// FeatureCandidate is one detected feature with the evidence behind it.
type FeatureCandidate struct {
	ID            FeatureID
	Label         string
	Why           string
	Signals       []string
	Evidence      []string
	RouteExamples []string
	Score         float64
	order         int
}

// DetectFeatures matches the feature catalog against the snippets and
// returns candidates ranked by score.
func DetectFeatures(snippets []GroundedSnippet, lang Language) []FeatureCandidate {
	var out []FeatureCandidate
	for i, rule := range featureRules {
		fc := FeatureCandidate{
			ID:    rule.ID,
			Label: rule.Label[lang],
			Why:   rule.Why[lang],
			order: i,
		}
		for _, s := range snippets {
			low := strings.ToLower(s.Snippet)
			var hits int
			for _, sig := range rule.Signals {
				if containsWord(low, strings.ToLower(sig)) {
					hits++
					fc.Signals = appendUnique(fc.Signals, sig)
				}
			}
			if hits == 0 {
				continue
			}
			lowPath := "/" + strings.ToLower(s.FilePath)
			var pathHits int
			for _, h := range rule.PathHints {
				if strings.Contains(lowPath, h) {
					pathHits++
				}
			}
			fc.Score += rule.Weight * (float64(hits) + pathHintWeight*float64(pathHits))
			if len(fc.Evidence) < maxFeatureCitations {
				fc.Evidence = appendUnique(fc.Evidence, s.Citation())
			}
			if rule.ID == FeatureRouting {
				for _, m := range routePathRe.FindAllStringSubmatch(s.Snippet, -1) {
					if len(fc.RouteExamples) < maxFeatureRoutes {
						fc.RouteExamples = appendUnique(fc.RouteExamples, m[1])
					}
				}
			}
		}
		if fc.Score > 0 {
			out = append(out, fc)
		}
	}
	slices.SortStableFunc(out, func(a, b FeatureCandidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.order, b.order)
	})
	return out
}

func renderFeatures(features []FeatureCandidate, lang Language) string {
	if len(features) == 0 {
		return Message(MsgNoFeatures, lang)
	}
	var b strings.Builder
	b.WriteString(Message(MsgFeatureHeading, lang))
	b.WriteString("\n")
	for i, f := range features[:min(len(features), maxFeatures)] {
		fmt.Fprintf(&b, "\n%d. **%s**\n", i+1, f.Label)
		fmt.Fprintf(&b, "   - %s: %s\n", Message(MsgSignals, lang), backtickList(f.Signals))
		fmt.Fprintf(&b, "   - %s: %s\n", Message(MsgWhy, lang), f.Why)
		if len(f.RouteExamples) > 0 {
			fmt.Fprintf(&b, "   - %s: %s\n", Message(MsgRoutes, lang), backtickList(f.RouteExamples))
		}
		fmt.Fprintf(&b, "   - %s: %s\n", Message(MsgEvidence, lang), strings.Join(f.Evidence, "; "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func backtickList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "`" + s + "`"
	}
	return strings.Join(quoted, ", ")
}
