// Package rag runs questions through the retrieval pipeline: decompose into
// intents, rank chunks per intent, judge grounding and explain.
package rag

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"reposcope/internal/explain"
	"reposcope/internal/index"
	"reposcope/internal/intent"
	"reposcope/internal/llm"
	"reposcope/internal/logging"
	"reposcope/internal/outcome"
	"reposcope/internal/query"
	"reposcope/internal/retrieval"
)

// DefaultTopK is how many chunks a search returns when Options.TopK is unset.
const DefaultTopK = 5

// Options configures an Engine.
type Options struct {
	TopK         int
	Rerank       bool
	Language     explain.Language
	UseWebSearch bool
	// RepoContext is a project overview passed to explanations.
	RepoContext string
	Logger      *slog.Logger
}

// Engine answers questions against one index. Requests run one at a time;
// callers serialize access to the same Engine.
type Engine struct {
	idx        *index.Index
	decomposer *intent.Decomposer
	scorer     *retrieval.Scorer
	generator  *explain.Generator
	opts       Options
	logger     *slog.Logger
}

// NewEngine wires the pipeline stages around idx. completer may be nil, in
// which case every stage uses its deterministic path.
func NewEngine(idx *index.Index, completer llm.Completer, opts Options) *Engine {
	logger := logging.OrDiscard(opts.Logger)
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Language == "" {
		opts.Language = explain.English
	}
	var reranker *retrieval.Reranker
	if opts.Rerank && completer != nil {
		reranker = retrieval.NewReranker(completer, idx.RerankCache(), logger)
	}
	return &Engine{
		idx:        idx,
		decomposer: intent.NewDecomposer(completer, logger),
		scorer:     retrieval.NewScorer(retrieval.Options{Reranker: reranker, Logger: logger}),
		generator:  explain.NewGenerator(completer, logger),
		opts:       opts,
		logger:     logger,
	}
}

// SearchResult is the ranked evidence for one intent.
type SearchResult struct {
	RequestID  string                  `json:"request_id"`
	Intent     string                  `json:"intent"`
	Mode       query.Mode              `json:"mode"`
	Chunks     []retrieval.ScoredChunk `json:"chunks"`
	Assessment retrieval.Assessment    `json:"assessment"`
}

// Answer is the outcome of one intent of a question.
type Answer struct {
	Intent intent.Intent  `json:"intent"`
	Search SearchResult   `json:"search"`
	Result explain.Result `json:"result"`
}

// Decompose splits q into intents.
func (e *Engine) Decompose(ctx context.Context, q string) []intent.Intent {
	return e.decomposer.Decompose(ctx, q)
}

// Search ranks the indexed chunks against intentText and assesses the
// result. A failure inside yields an empty, ungrounded result.
func (e *Engine) Search(ctx context.Context, intentText string) (res SearchResult) {
	res = SearchResult{RequestID: uuid.NewString(), Intent: intentText, Mode: query.Classify(intentText)}
	logger := e.logger.With("request_id", res.RequestID)
	defer func() {
		if v := recover(); v != nil {
			logger.Warn("search recovered", "error", outcome.Recovered(v))
			res.Chunks = nil
			res.Assessment = retrieval.Assess(intentText, nil)
		}
	}()

	res.Chunks = e.scorer.Score(ctx, intentText, e.idx.Chunks(), e.opts.TopK)
	res.Assessment = retrieval.Assess(intentText, res.Chunks)
	logger.Debug("search",
		"mode", res.Mode,
		"results", len(res.Chunks),
		"grounded", res.Assessment.IsGrounded,
		"reason", res.Assessment.Reason,
		"anchors", res.Assessment.AnchorTerms,
	)
	return res
}

// Explain writes the explanation for a search result. Ungrounded results
// in strict modes get the not-found answer instead of a guess; in other
// modes the explanation is written but its confidence is capped at low.
func (e *Engine) Explain(ctx context.Context, sr SearchResult) explain.Result {
	chunks := make([]index.CodeChunk, len(sr.Chunks))
	for i, sc := range sr.Chunks {
		chunks[i] = sc.Chunk
	}
	if !sr.Assessment.IsGrounded && sr.Mode.Strict() {
		chunks = nil
	}
	res := e.generator.Explain(ctx, explain.Request{
		Intent:       sr.Intent,
		Chunks:       chunks,
		RepoContext:  e.opts.RepoContext,
		UseWebSearch: e.opts.UseWebSearch,
		Language:     e.opts.Language,
	})
	if !sr.Assessment.IsGrounded {
		res.Confidence = explain.ConfidenceLow
	}
	return res
}

// Ask answers q intent by intent, in priority order.
func (e *Engine) Ask(ctx context.Context, q string) (answers []Answer) {
	defer func() {
		if v := recover(); v != nil {
			e.logger.Warn("ask recovered", "error", outcome.Recovered(v))
		}
	}()
	for _, in := range e.Decompose(ctx, q) {
		if ctx.Err() != nil {
			break
		}
		sr := e.Search(ctx, in.Text)
		answers = append(answers, Answer{Intent: in, Search: sr, Result: e.Explain(ctx, sr)})
	}
	return answers
}

// Status describes what the engine is serving.
type Status struct {
	Files        int `json:"files"`
	Chunks       int `json:"chunks"`
	RerankCached int `json:"rerank_cached"`
}

// Status reports index and cache sizes.
func (e *Engine) Status() Status {
	return Status{
		Files:        len(e.idx.Files()),
		Chunks:       len(e.idx.Chunks()),
		RerankCached: e.idx.RerankCache().Len(),
	}
}

// Index returns the index the engine searches.
func (e *Engine) Index() *index.Index { return e.idx }
