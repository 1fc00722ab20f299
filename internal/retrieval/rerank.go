package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/mo"

	"reposcope/internal/index"
	"reposcope/internal/llm"
	"reposcope/internal/logging"
	"reposcope/internal/metrics"
	"reposcope/internal/outcome"
	"reposcope/internal/query"
)

const (
	minRerankCandidates = 6
	rerankExcerptChars  = 220
)

var rerankLineRe = regexp.MustCompile(`^\s*(\d+)\s*\|\s*(\d+(?:\.\d+)?)`)

const rerankPrompt = `You are ranking code snippets for how directly they answer a developer question.

Question: %s

Candidates (ID | file:lines | excerpt):
%s
Rules:
- Judge only from the excerpt shown. Do not infer code that is not visible.
- Generic config, build or setup files score low unless the question is about them.
- Output one line per candidate and nothing else, formatted exactly as ID|SCORE|REASON
- SCORE is an integer from 0 (irrelevant) to 100 (directly answers).
`

// Reranker asks a model to nudge the deterministic order of the top
// candidates. Model scores are cached per intent and candidate set.
type Reranker struct {
	completer llm.Completer
	cache     *index.RerankCache
	logger    *slog.Logger
}

// NewReranker creates a reranker. A nil cache disables caching.
func NewReranker(completer llm.Completer, cache *index.RerankCache, logger *slog.Logger) *Reranker {
	return &Reranker{completer: completer, cache: cache, logger: logging.OrDiscard(logger)}
}

func rerankApplies(mode query.Mode) bool {
	switch mode {
	case query.ModeSpecific, query.ModeLocation, query.ModeDebug, query.ModeComparison:
		return true
	}
	return false
}

// Rerank returns candidates re-sorted after adjusting the top
// max(6, 2*topK) scores by (modelScore/100 - 0.5) * 1.6, floored at 0. The
// input is returned unchanged when reranking does not apply or fails.
func (r *Reranker) Rerank(ctx context.Context, intentText string, mode query.Mode, candidates []ScoredChunk, topK int) []ScoredChunk {
	if r == nil || r.completer == nil || !rerankApplies(mode) || len(candidates) < 2 {
		return candidates
	}
	n := min(len(candidates), max(minRerankCandidates, 2*topK))
	head := candidates[:n]

	res := outcome.Guard(func() mo.Result[map[int]float64] {
		return r.modelScores(ctx, intentText, head)
	})
	if res.IsError() {
		r.logger.Warn("rerank skipped", "reason", outcome.ReasonOf(res.Error()), "error", res.Error())
		return candidates
	}
	scores := res.MustGet()

	out := make([]ScoredChunk, len(candidates))
	copy(out, candidates)
	for i, s := range scores {
		if i < 0 || i >= n {
			continue
		}
		norm := min(max(s/100, 0), 1)
		out[i].Score = max(out[i].Score+(norm-0.5)*rerankSpread, 0)
	}
	sortScored(out)
	return out
}

// modelScores returns model scores keyed by candidate position, from the
// cache when this intent and candidate set were seen before.
func (r *Reranker) modelScores(ctx context.Context, intentText string, head []ScoredChunk) mo.Result[map[int]float64] {
	key := RerankKey(intentText, head)
	if r.cache != nil {
		if scores, ok := r.cache.Get(key); ok {
			metrics.RecordRerankCache(true)
			return mo.Ok(scores)
		}
		metrics.RecordRerankCache(false)
	}

	raw, err := r.completer.Complete(ctx, buildRerankPrompt(intentText, head), llm.Options{
		MaxTokens:   400,
		Temperature: mo.Some(0.0),
	})
	if err != nil {
		return outcome.Fail[map[int]float64](outcome.ProviderFailed, err)
	}
	scores := ParseRerankLines(raw, len(head))
	if r.cache != nil {
		r.cache.Put(key, scores)
	}
	return mo.Ok(scores)
}

// RerankKey is the cache key: the normalized intent and the ordered
// candidate signature.
func RerankKey(intentText string, head []ScoredChunk) string {
	sigs := make([]string, len(head))
	for i, c := range head {
		sigs[i] = c.Chunk.Signature()
	}
	normalized := strings.ToLower(strings.Join(strings.Fields(intentText), " "))
	return normalized + "\x00" + strings.Join(sigs, "|")
}

func buildRerankPrompt(intentText string, head []ScoredChunk) string {
	var b strings.Builder
	for i, c := range head {
		fmt.Fprintf(&b, "%d | %s:%d-%d | %s\n", i+1, c.Chunk.FilePath, c.Chunk.StartLine, c.Chunk.EndLine, excerpt(c.Chunk.Content, rerankExcerptChars))
	}
	return fmt.Sprintf(rerankPrompt, strings.TrimSpace(intentText), b.String())
}

// excerpt flattens content to one line of at most n characters.
func excerpt(content string, n int) string {
	flat := strings.Join(strings.Fields(content), " ")
	if r := []rune(flat); len(r) > n {
		return string(r[:n])
	}
	return flat
}

// ParseRerankLines reads "ID|SCORE" lines, where ID is 1-based. Malformed
// lines and IDs outside 1..n are ignored. The result is keyed by 0-based
// candidate position.
func ParseRerankLines(raw string, n int) map[int]float64 {
	scores := make(map[int]float64)
	for _, line := range strings.Split(raw, "\n") {
		m := rerankLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || id < 1 || id > n {
			continue
		}
		s, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		scores[id-1] = s
	}
	return scores
}
