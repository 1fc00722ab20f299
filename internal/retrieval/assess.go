package retrieval

import (
	"strings"

	"reposcope/internal/metrics"
	"reposcope/internal/query"
)

// Reason explains a grounding decision.
type Reason string

const (
	ReasonNoChunks      Reason = "no_chunks"
	ReasonLowScore      Reason = "low_score"
	ReasonMissingAnchor Reason = "missing_anchor"
	ReasonOK            Reason = "ok"
)

// Assessment is the verdict on whether ranked chunks can ground an answer.
type Assessment struct {
	IsGrounded     bool       `json:"is_grounded"`
	Mode           query.Mode `json:"query_mode"`
	TopScore       float64    `json:"top_score"`
	AnchorTerms    []string   `json:"anchor_terms"`
	AnchorCoverage float64    `json:"anchor_coverage"`
	Reason         Reason     `json:"reason"`
}

// Assess decides whether chunks are anchored strongly enough to answer
// intentText. The top score must reach 1.2 in strict modes (0.6 otherwise),
// and in strict modes with anchor terms at least one anchor must appear in
// some chunk's content or path. AnchorCoverage is the fraction of anchor
// terms found anywhere in the chunks, 1 when there are none.
func Assess(intentText string, chunks []ScoredChunk) Assessment {
	req := newRequest(intentText)
	a := Assessment{
		Mode:           req.mode,
		AnchorTerms:    req.anchors,
		AnchorCoverage: 1,
	}
	for _, c := range chunks {
		a.TopScore = max(a.TopScore, c.Score)
	}
	if len(req.anchors) > 0 {
		a.AnchorCoverage = anchorCoverage(req.expanded, chunks)
	}

	threshold := relaxedTopThreshold
	if req.mode.Strict() {
		threshold = strictTopThreshold
	}
	switch {
	case len(chunks) == 0:
		a.Reason = ReasonNoChunks
	case a.TopScore < threshold:
		a.Reason = ReasonLowScore
	case req.mode.Strict() && len(req.anchors) > 0 && a.AnchorCoverage == 0:
		a.Reason = ReasonMissingAnchor
	default:
		a.Reason = ReasonOK
		a.IsGrounded = true
	}
	metrics.RecordGrounding(string(a.Reason))
	return a
}

func anchorCoverage(expanded [][]string, chunks []ScoredChunk) float64 {
	found := 0
	for _, forms := range expanded {
		for _, c := range chunks {
			if containsAny(strings.ToLower(c.Chunk.Content), forms) || containsAny(strings.ToLower(c.Chunk.FilePath), forms) {
				found++
				break
			}
		}
	}
	return float64(found) / float64(len(expanded))
}
