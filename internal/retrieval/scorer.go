// Package retrieval ranks indexed chunks against one intent and judges
// whether the ranked evidence is strong enough to answer it.
package retrieval

import (
	"cmp"
	"context"
	"log/slog"
	"path"
	"slices"
	"strings"

	"reposcope/internal/index"
	"reposcope/internal/logging"
	"reposcope/internal/metrics"
	"reposcope/internal/outcome"
	"reposcope/internal/query"
)

// ScoredChunk is a chunk with its relevance for one request. Scores live
// here, never on the shared chunk.
type ScoredChunk struct {
	Chunk index.CodeChunk `json:"chunk"`
	Score float64         `json:"score"`
}

// cutoff is the score threshold policy of a mode family.
type cutoff struct {
	floor float64
	ratio float64
}

var (
	strictCutoff  = cutoff{floor: 0.9, ratio: 0.32}
	relaxedCutoff = cutoff{floor: 0.35, ratio: 0.22}
)

// Options configures a Scorer.
type Options struct {
	// Reranker, when set, nudges scores for precision-sensitive modes.
	Reranker *Reranker
	Logger   *slog.Logger
}

// Scorer ranks chunks with deterministic lexical and structural signals.
type Scorer struct {
	reranker *Reranker
	logger   *slog.Logger
}

// NewScorer creates a scorer.
func NewScorer(opts Options) *Scorer {
	return &Scorer{reranker: opts.Reranker, logger: logging.OrDiscard(opts.Logger)}
}

// request is the per-call view of the query.
type request struct {
	text     string
	mode     query.Mode
	keywords []string
	anchors  []string
	expanded [][]string
}

func newRequest(text string) request {
	anchors := query.ExtractAnchorTerms(text)
	return request{
		text:     text,
		mode:     query.Classify(text),
		keywords: query.ExtractKeywords(text),
		anchors:  anchors,
		expanded: query.ExpandAnchors(anchors),
	}
}

// Score returns at most topK chunks relevant to intentText, best first, each
// with a positive score. Strict modes return nothing rather than a weak
// match.
func (s *Scorer) Score(ctx context.Context, intentText string, chunks []index.CodeChunk, topK int) (out []ScoredChunk) {
	defer func() {
		if v := recover(); v != nil {
			s.logger.Warn("scoring recovered", "error", outcome.Recovered(v))
			out = nil
		}
	}()
	if topK <= 0 || len(chunks) == 0 {
		return nil
	}

	req := newRequest(intentText)
	metrics.RecordQuery(string(req.mode))
	s.logger.Debug("scoring intent", "mode", req.mode, "keywords", req.keywords, "anchors", req.anchors)

	ranked := s.rank(req, chunks)
	if len(ranked) == 0 {
		switch req.mode {
		case query.ModeOverview, query.ModeComparison, query.ModeConfig:
			s.logger.Debug("no lexical match, using heuristic ranking", "mode", req.mode)
			return SelectDiverse(heuristicRank(req.mode, chunks), req.mode, topK)
		}
		return nil
	}

	if s.reranker != nil {
		ranked = s.reranker.Rerank(ctx, intentText, req.mode, ranked, topK)
	}

	ranked = applyCutoff(ranked, req.mode)
	if len(ranked) == 0 {
		return nil
	}
	return SelectDiverse(ranked, req.mode, topK)
}

// rank scores every chunk, applies the post-filter and sorts.
func (s *Scorer) rank(req request, chunks []index.CodeChunk) []ScoredChunk {
	strict := req.mode.Strict() && len(req.anchors) > 0
	var out []ScoredChunk
	for _, c := range chunks {
		score, anchorHits := scoreChunk(req, c)
		if score <= 0 {
			continue
		}
		if strict && anchorHits == 0 {
			continue
		}
		out = append(out, ScoredChunk{Chunk: c, Score: score})
	}
	sortScored(out)
	return out
}

// scoreChunk computes one chunk's score, floored at 0, and how many anchor
// terms it hit in content or path.
func scoreChunk(req request, c index.CodeChunk) (float64, int) {
	lowContent := strings.ToLower(c.Content)
	lowPath := strings.ToLower(c.FilePath)

	var score float64
	keywordHits := 0
	for _, kw := range req.keywords {
		if strings.Contains(lowContent, kw) {
			score += keywordContentWeight
			keywordHits++
		}
		if strings.Contains(lowPath, kw) {
			score += keywordPathWeight
		}
	}

	anchorHits := 0
	for _, forms := range req.expanded {
		inContent := containsAny(lowContent, forms)
		inPath := containsAny(lowPath, forms)
		if inContent {
			score += anchorContentWeight
		}
		if inPath {
			score += anchorPathWeight
		}
		if inContent || inPath {
			anchorHits++
		}
	}
	if req.mode.Strict() && len(req.anchors) > 0 && anchorHits == 0 {
		score -= missingAnchorPenalty
	}

	score += modeSignal(req, c.Content, lowContent, lowPath, keywordHits)
	score += noiseAdjustment(req.mode, lowPath)
	return max(score, 0), anchorHits
}

// modeSignal is the mode-specific structural adjustment.
func modeSignal(req request, content, lowContent, lowPath string, keywordHits int) float64 {
	var s float64
	switch req.mode {
	case query.ModeOverview:
		fs := featureSignal(lowContent, lowPath)
		s += fs
		if isEntryFile(lowPath) {
			s += entryFileBoost
		}
		if fs < weakFeatureThreshold {
			s -= weakFeaturePenalty
		}
	case query.ModeLocation:
		if hasDefinition(content) {
			s += definitionBoost
		}
		base := path.Base(lowPath)
		if containsAny(base, req.keywords) || containsAny(base, req.anchors) {
			s += definingFileBoost
		}
	case query.ModeComparison:
		s += comparisonFeature * featureSignal(lowContent, lowPath)
		if keywordHits >= 2 {
			s += comparisonMultiHit
		}
	case query.ModeDebug:
		if containsAny(lowContent, errorIdioms) {
			s += debugContentBoost
		}
		if containsAny(lowPath, errorPathHints) {
			s += debugPathBoost
		}
	}
	return s
}

// noiseAdjustment penalizes config and test files, except that config mode
// targets config files.
func noiseAdjustment(mode query.Mode, lowPath string) float64 {
	noise := IsNoisePath(lowPath)
	if mode == query.ModeConfig {
		if noise {
			return noiseWeight
		}
		return 0
	}
	var s float64
	if noise {
		s -= noiseWeight
	}
	if IsTestPath(lowPath) {
		s -= testFilePenalty
	}
	return s
}

// heuristicRank ranks chunks with structural signals only, ignoring keyword
// and anchor matches.
func heuristicRank(mode query.Mode, chunks []index.CodeChunk) []ScoredChunk {
	req := request{mode: mode}
	var out []ScoredChunk
	for _, c := range chunks {
		lowContent := strings.ToLower(c.Content)
		lowPath := strings.ToLower(c.FilePath)
		score := modeSignal(req, c.Content, lowContent, lowPath, 0) + noiseAdjustment(mode, lowPath)
		if mode != query.ModeOverview && isEntryFile(lowPath) {
			score += entryFileBoost
		}
		if score > 0 {
			out = append(out, ScoredChunk{Chunk: c, Score: score})
		}
	}
	sortScored(out)
	return out
}

// applyCutoff keeps chunks scoring at least max(floor, top*ratio). Strict
// modes return nothing when the top score itself is weak.
func applyCutoff(sorted []ScoredChunk, mode query.Mode) []ScoredChunk {
	if len(sorted) == 0 {
		return nil
	}
	policy := relaxedCutoff
	if mode.Strict() {
		policy = strictCutoff
	}
	top := sorted[0].Score
	if mode.Strict() && top < strictTopThreshold {
		return nil
	}
	threshold := max(policy.floor, top*policy.ratio)
	n := 0
	for n < len(sorted) && sorted[n].Score >= threshold {
		n++
	}
	return sorted[:n]
}

// sortScored orders by score descending, then arena position.
func sortScored(s []ScoredChunk) {
	slices.SortStableFunc(s, func(a, b ScoredChunk) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Chunk.ID, b.Chunk.ID)
	})
}

// SelectDiverse picks up to topK chunks from a sorted list, allowing each
// file a quota (1 in overview and comparison modes, 2 otherwise) and
// backfilling from the remainder when the quota leaves slots empty.
func SelectDiverse(sorted []ScoredChunk, mode query.Mode, topK int) []ScoredChunk {
	if topK <= 0 || len(sorted) == 0 {
		return nil
	}
	quota := 2
	if mode == query.ModeOverview || mode == query.ModeComparison {
		quota = 1
	}

	perFile := make(map[string]int)
	picked := make([]bool, len(sorted))
	var out []ScoredChunk
	for i, sc := range sorted {
		if len(out) == topK {
			break
		}
		if perFile[sc.Chunk.FilePath] >= quota {
			continue
		}
		perFile[sc.Chunk.FilePath]++
		picked[i] = true
		out = append(out, sc)
	}
	for i, sc := range sorted {
		if len(out) == topK {
			break
		}
		if !picked[i] {
			out = append(out, sc)
		}
	}
	sortScored(out)
	return out
}
