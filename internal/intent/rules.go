package intent

import (
	"regexp"
	"strings"

	"reposcope/internal/query"
)

var (
	spaceRe       = regexp.MustCompile(`[ \t\f\v]+`)
	leadInRe      = regexp.MustCompile(`(?i)^(?:please\s+)?(?:tell me|can you|could you|would you|help me)\b[\s,:]*(?:please\b\s*)?`)
	pleaseRe      = regexp.MustCompile(`(?i)^please\b[\s,]*`)
	sentenceRe    = regexp.MustCompile(`[?\n;]+`)
	subjectWhatRe = regexp.MustCompile(`(?i)^(?:what|who)\s+(?:is|are)\s+(?:an?\s+|the\s+)?(.+?)(?:\s+(?:in|inside|within|of|for)\s+(?:this|the|our|my)\s+(?:repo|repository|codebase|project|code|app|application))?[.!]*$`)
	subjectVerbRe = regexp.MustCompile(`(?i)^(?:explain|describe|define)\s+(?:an?\s+|the\s+)?(.+?)(?:\s+(?:in|inside|within|of|for)\s+(?:this|the|our|my)\s+(?:repo|repository|codebase|project|code|app|application))?[.!]*$`)
)

var (
	conjunctions = map[string]bool{"and": true, "also": true, "plus": true, "then": true}

	questionStarters = map[string]bool{
		"what": true, "why": true, "how": true, "where": true, "when": true,
		"which": true, "who": true, "explain": true, "describe": true,
		"show": true, "define": true, "list": true, "tell": true,
	}

	pronouns = map[string]bool{"that": true, "it": true, "them": true, "those": true, "these": true}

	mergeStarters = map[string]bool{
		"why": true, "how": true, "explain": true, "describe": true, "show": true, "where": true,
	}
)

// normalize collapses horizontal whitespace, unifies line endings and strips
// conversational lead-ins.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
	}
	return stripLeadIn(strings.TrimSpace(strings.Join(lines, "\n")))
}

func stripLeadIn(s string) string {
	for {
		next := strings.TrimSpace(leadInRe.ReplaceAllString(s, ""))
		next = strings.TrimSpace(pleaseRe.ReplaceAllString(next, ""))
		if next == s {
			return s
		}
		s = next
	}
}

// segment splits normalized text into clauses: first at sentence boundaries,
// then at conjunctions that introduce a new question.
func segment(text string) []string {
	var out []string
	for _, sentence := range sentenceRe.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		for _, part := range splitConjunctions(sentence) {
			if part = stripLeadIn(stripConjunction(strings.Trim(part, " ,.!"))); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func splitConjunctions(sentence string) []string {
	words := strings.Fields(sentence)
	var parts []string
	start := 0
	for i := 1; i < len(words)-1; i++ {
		if !conjunctions[bareLower(words[i])] || !questionStarters[bareLower(words[i+1])] {
			continue
		}
		if i > start {
			parts = append(parts, strings.Join(words[start:i], " "))
		}
		start = i + 1
	}
	return append(parts, strings.Join(words[start:], " "))
}

// stripConjunction drops a sentence-initial conjunction such as "Also," when
// something follows it.
func stripConjunction(part string) string {
	words := strings.Fields(part)
	if len(words) < 2 || !conjunctions[bareLower(words[0])] {
		return part
	}
	if !strings.HasSuffix(words[0], ",") && !questionStarters[bareLower(words[1])] {
		return part
	}
	return strings.Join(words[1:], " ")
}

func bareLower(w string) string {
	return strings.ToLower(strings.Trim(w, ",.!:"))
}

// primarySubject names what the first segment asks about.
func primarySubject(first string) string {
	first = strings.TrimSpace(first)
	for _, re := range []*regexp.Regexp{subjectWhatRe, subjectVerbRe} {
		if m := re.FindStringSubmatch(first); m != nil {
			if s := strings.TrimSpace(m[1]); s != "" {
				return s
			}
		}
	}
	if kw := query.ExtractKeywords(first); len(kw) > 0 {
		return kw[0]
	}
	return ""
}

// resolvePronouns substitutes subject for pronouns in every segment after
// the first.
func resolvePronouns(segments []string, subject string) []string {
	if subject == "" || len(segments) < 2 {
		return segments
	}
	out := append([]string{segments[0]}, segments[1:]...)
	for i := 1; i < len(out); i++ {
		words := strings.Fields(out[i])
		for j, w := range words {
			core := strings.TrimRight(w, ",.!:")
			if pronouns[strings.ToLower(core)] {
				words[j] = subject + w[len(core):]
			}
		}
		out[i] = strings.Join(words, " ")
	}
	return out
}

// mergeFollowUps folds a segment into its predecessor when it asks why/how
// about the same subject, so "what is X and why use X" stays one intent.
func mergeFollowUps(segments []string, subject string) []string {
	if subject == "" || len(segments) < 2 {
		return segments
	}
	lowSubject := strings.ToLower(subject)
	out := []string{segments[0]}
	for _, seg := range segments[1:] {
		words := strings.Fields(seg)
		if len(words) > 0 && mergeStarters[bareLower(words[0])] && strings.Contains(strings.ToLower(seg), lowSubject) {
			out[len(out)-1] += " and " + seg
			continue
		}
		out = append(out, seg)
	}
	return out
}
