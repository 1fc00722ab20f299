// Package explain turns retrieved chunks into explanations whose code
// entities all trace back to the retrieved evidence.
package explain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/mo"

	"reposcope/internal/index"
	"reposcope/internal/llm"
	"reposcope/internal/logging"
	"reposcope/internal/metrics"
	"reposcope/internal/outcome"
)

// EvidenceHeading introduces the quoted evidence appended to every
// explanation.
const EvidenceHeading = "### Evidence From Repository"

// Confidence grades how well an explanation is supported.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Request is the input of one explanation.
type Request struct {
	Intent       string
	Chunks       []index.CodeChunk
	RepoContext  string
	UseWebSearch bool
	Language     Language
}

// CodeReference points at a chunk the explanation drew on.
type CodeReference struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// Result is a finished explanation.
type Result struct {
	Intent          string          `json:"intent"`
	Explanation     string          `json:"explanation"`
	CodeReferences  []CodeReference `json:"code_references"`
	ExternalSources bool            `json:"external_sources"`
	Confidence      Confidence      `json:"confidence"`
}

// Generator writes explanations, using the completer for everything but
// feature overviews.
type Generator struct {
	completer llm.Completer
	logger    *slog.Logger
}

// NewGenerator creates a generator. A nil completer makes every non-overview
// explanation fall back to observed facts.
func NewGenerator(completer llm.Completer, logger *slog.Logger) *Generator {
	return &Generator{completer: completer, logger: logging.OrDiscard(logger)}
}

// Explain never fails: problems are reported through a low confidence and
// a message in the explanation.
func (g *Generator) Explain(ctx context.Context, req Request) (res Result) {
	lang := req.Language
	if lang == "" {
		lang = English
	}
	defer func() {
		if v := recover(); v != nil {
			err := outcome.Recovered(v)
			g.logger.Warn("explain recovered", "error", err)
			res = Result{
				Intent:         req.Intent,
				Explanation:    fmt.Sprintf(Message(MsgFailure, lang), err),
				CodeReferences: []CodeReference{},
				Confidence:     ConfidenceLow,
			}
		}
	}()

	if len(req.Chunks) == 0 {
		return Result{
			Intent:         req.Intent,
			Explanation:    Message(MsgNotFound, lang),
			CodeReferences: []CodeReference{},
			Confidence:     ConfidenceLow,
		}
	}
	if IsFeatureOverview(req.Intent) {
		return g.overview(req, lang)
	}
	return g.grounded(ctx, req, lang)
}

func (g *Generator) overview(req Request, lang Language) Result {
	chunks := withoutNoise(req.Chunks)
	snippets := BuildSnippets(chunks)
	body := renderFeatures(DetectFeatures(snippets, lang), lang)
	return Result{
		Intent:         req.Intent,
		Explanation:    g.finish(body, snippets, req.Intent, lang, true),
		CodeReferences: references(chunks),
		Confidence:     confidenceFor(chunks),
	}
}

func (g *Generator) grounded(ctx context.Context, req Request, lang Language) Result {
	snippets := BuildSnippets(req.Chunks)
	facts := ObservedFacts(snippets)
	res := Result{
		Intent:         req.Intent,
		CodeReferences: references(req.Chunks),
		Confidence:     confidenceFor(req.Chunks),
	}

	text := outcome.Guard(func() mo.Result[string] { return g.generate(ctx, req, lang, snippets, facts) })
	if text.IsError() {
		g.logger.Warn("explanation fell back to observed facts", "reason", outcome.ReasonOf(text.Error()), "error", text.Error())
		res.Explanation = g.finish(factsFallback(facts, lang), snippets, req.Intent, lang, false)
		res.Confidence = ConfidenceLow
		return res
	}
	body := CorrectRouterAPI(StripCodeFences(text.MustGet()), evidenceText(snippets))
	res.Explanation = g.finish(body, snippets, req.Intent, lang, false)
	res.ExternalSources = req.UseWebSearch
	return res
}

func (g *Generator) generate(ctx context.Context, req Request, lang Language, snippets []GroundedSnippet, facts []string) mo.Result[string] {
	if g.completer == nil {
		return outcome.Failf[string](outcome.Unavailable, "no completion provider configured")
	}
	raw, err := g.completer.Complete(ctx, buildPrompt(req, lang, snippets, facts), llm.Options{
		MaxTokens:   900,
		Temperature: mo.Some(0.2),
	})
	if err != nil {
		return outcome.Fail[string](outcome.ProviderFailed, err)
	}
	if strings.TrimSpace(raw) == "" {
		return outcome.Failf[string](outcome.Empty, "provider returned no text")
	}
	return mo.Ok(raw)
}

// finish filters body against the evidence and appends the evidence section.
func (g *Generator) finish(body string, snippets []GroundedSnippet, q string, lang Language, compact bool) string {
	filtered, removed := FilterUnsupported(body, snippets, q)
	if removed > 0 {
		metrics.RecordFilteredLines(removed)
		g.logger.Debug("removed unsupported lines", "count", removed)
	}
	if filtered == "" {
		filtered = Message(MsgCouldNotVerify, lang)
	}
	if removed > 0 {
		filtered += "\n\n" + Message(MsgFilteredNote, lang)
	}
	return filtered + "\n\n" + renderEvidence(snippets, compact)
}

func factsFallback(facts []string, lang Language) string {
	if len(facts) == 0 {
		return Message(MsgNotFound, lang)
	}
	var b strings.Builder
	b.WriteString(Message(MsgProviderFallback, lang))
	b.WriteString("\n")
	for _, f := range facts {
		b.WriteString("\n- ")
		b.WriteString(f)
	}
	return b.String()
}

func renderEvidence(snippets []GroundedSnippet, compact bool) string {
	var b strings.Builder
	b.WriteString(EvidenceHeading)
	b.WriteString("\n")
	for _, s := range snippets[:min(len(snippets), maxEvidence)] {
		b.WriteString("\n")
		b.WriteString(s.Citation())
		b.WriteString("\n")
		if compact {
			continue
		}
		b.WriteString("\n")
		for _, line := range strings.Split(s.Snippet, "\n") {
			line = balanceBackticks(strings.ReplaceAll(line, "```", "'''"))
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func references(chunks []index.CodeChunk) []CodeReference {
	refs := make([]CodeReference, 0, min(len(chunks), maxReferences))
	seen := make(map[string]bool)
	for _, c := range chunks {
		if len(refs) == maxReferences {
			break
		}
		if seen[c.Signature()] {
			continue
		}
		seen[c.Signature()] = true
		refs = append(refs, CodeReference{FilePath: c.FilePath, StartLine: c.StartLine, EndLine: c.EndLine})
	}
	return refs
}

func confidenceFor(chunks []index.CodeChunk) Confidence {
	if len(chunks) > 3 {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}

const explainPrompt = `You explain code from a repository to a developer.
Use ONLY the evidence and observed facts below. Never invent files, functions, APIs, or routes.
If the evidence is not enough to answer, say exactly: "Not found in retrieved snippets".
Do not write new code examples or code blocks.
Wrap every code entity (identifiers, file paths, routes) in single backticks, like ` + "`name`" + `.
Write the explanation in %s.
%s
Question: %s
%s
Observed facts:
%s

Evidence:
%s`

func buildPrompt(req Request, lang Language, snippets []GroundedSnippet, facts []string) string {
	web := ""
	if req.UseWebSearch {
		web = "You may add general background knowledge, but label it clearly as \"General knowledge:\" and keep it apart from repository facts.\n"
	}
	repo := ""
	if rc := strings.TrimSpace(req.RepoContext); rc != "" {
		repo = "\nRepository context:\n" + rc + "\n"
	}
	factText := "(none)"
	if len(facts) > 0 {
		factText = "- " + strings.Join(facts, "\n- ")
	}
	var ev strings.Builder
	for _, s := range snippets {
		fmt.Fprintf(&ev, "[%s]\n%s\n\n", s.Citation(), s.Snippet)
	}
	return fmt.Sprintf(explainPrompt, lang.Name(), web, req.Intent, repo, factText, strings.TrimRight(ev.String(), "\n"))
}
