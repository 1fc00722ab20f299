package intent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/mo"

	"reposcope/internal/llm"
	"reposcope/internal/logging"
	"reposcope/internal/outcome"
)

// Decomposer splits queries into intents with deterministic rules and, when
// the rules produce nothing usable, one completion call.
type Decomposer struct {
	completer llm.Completer
	logger    *slog.Logger
}

// NewDecomposer creates a decomposer. completer may be nil, which disables
// the model fallback.
func NewDecomposer(completer llm.Completer, logger *slog.Logger) *Decomposer {
	return &Decomposer{completer: completer, logger: logging.OrDiscard(logger)}
}

// Decompose returns the intents of q in order of importance. A query with
// any non-space content always yields at least one intent; a blank query
// yields none.
func (d *Decomposer) Decompose(ctx context.Context, q string) (intents []Intent) {
	fallback := strings.Join(strings.Fields(q), " ")
	if fallback == "" {
		return nil
	}
	if n := strings.Join(strings.Fields(normalize(q)), " "); strings.Trim(n, "?.!,;: ") != "" {
		fallback = n
	}
	defer func() {
		if v := recover(); v != nil {
			d.logger.Warn("decompose recovered", "error", outcome.Recovered(v))
			intents = []Intent{New(fallback, 1)}
		}
	}()

	res := outcome.Guard(func() mo.Result[[]Intent] { return d.byRules(q) })
	if res.IsError() {
		d.logger.Debug("rule decomposition produced nothing", "reason", outcome.ReasonOf(res.Error()))
		res = outcome.Guard(func() mo.Result[[]Intent] { return d.byModel(ctx, q) })
	}
	if res.IsError() {
		d.logger.Debug("using whole query as single intent", "reason", outcome.ReasonOf(res.Error()))
		return []Intent{New(fallback, 1)}
	}
	return res.MustGet()
}

func (d *Decomposer) byRules(q string) mo.Result[[]Intent] {
	segments := segment(normalize(q))
	if len(segments) > 1 {
		subject := primarySubject(segments[0])
		segments = mergeFollowUps(resolvePronouns(segments, subject), subject)
	}
	intents := Sanitize(segments, q)
	if len(intents) == 0 {
		return outcome.Failf[[]Intent](outcome.Empty, "no intents in %d segments", len(segments))
	}
	return mo.Ok(intents)
}

const decomposePrompt = `Break the developer question below into at most 3 separate questions about the repository.
Keep each question self-contained and use the same words as the original where possible.
Answer only with blocks in this exact format:

INTENT 1: <question>
TYPE: <how|what|why|where|explain|show|general>
KEYWORDS: <comma separated keywords>
PRIORITY: <1-3>

Question: %s`

func (d *Decomposer) byModel(ctx context.Context, q string) mo.Result[[]Intent] {
	if d.completer == nil {
		return outcome.Fail[[]Intent](outcome.Unavailable, nil)
	}
	raw, err := d.completer.Complete(ctx, fmt.Sprintf(decomposePrompt, strings.TrimSpace(q)), llm.Options{
		MaxTokens:   300,
		Temperature: mo.Some(0.0),
	})
	if err != nil {
		d.logger.Warn("intent decomposition call failed", "error", err)
		return outcome.Fail[[]Intent](outcome.ProviderFailed, err)
	}
	blocks := ParseIntentBlocks(raw)
	if len(blocks) == 0 {
		return outcome.Fail[[]Intent](outcome.MalformedOutput, nil)
	}
	texts := make([]string, len(blocks))
	for i, b := range blocks {
		texts[i] = b.Text
	}
	intents := Sanitize(texts, q)
	if len(intents) == 0 {
		return outcome.Fail[[]Intent](outcome.Empty, nil)
	}
	// Keep the model's type label where it named a valid one.
	for i := range intents {
		for _, b := range blocks {
			if strings.EqualFold(strings.Trim(b.Text, "?.!,;: "), intents[i].Text) && b.Type != TypeGeneral {
				intents[i].Type = b.Type
			}
		}
	}
	return mo.Ok(intents)
}

// Block is one parsed INTENT block of a model response.
type Block struct {
	Text     string
	Type     Type
	Keywords []string
	Priority int
}

var blockLineRe = regexp.MustCompile(`(?i)^\s*(INTENT\s*\d*|TYPE|KEYWORDS|PRIORITY)\s*:\s*(.*)$`)

// ParseIntentBlocks extracts INTENT blocks from a model response. Lines
// outside the format are ignored, and a block without question text is
// skipped.
func ParseIntentBlocks(raw string) []Block {
	var blocks []Block
	var cur *Block
	for _, line := range strings.Split(raw, "\n") {
		m := blockLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		field, value := strings.ToUpper(m[1]), strings.TrimSpace(m[2])
		if strings.HasPrefix(field, "INTENT") {
			if value == "" {
				cur = nil
				continue
			}
			blocks = append(blocks, Block{Text: value, Type: TypeGeneral})
			cur = &blocks[len(blocks)-1]
			continue
		}
		if cur == nil {
			continue
		}
		switch field {
		case "TYPE":
			cur.Type = ParseType(value)
		case "KEYWORDS":
			for _, kw := range strings.Split(value, ",") {
				if kw = strings.TrimSpace(kw); kw != "" {
					cur.Keywords = append(cur.Keywords, kw)
				}
			}
		case "PRIORITY":
			if p, err := strconv.Atoi(value); err == nil {
				cur.Priority = p
			}
		}
	}
	return blocks
}
