package intent

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"reposcope/internal/llm"
)

func countingCompleter(reply string, err error) (llm.Completer, *int) {
	calls := 0
	return llm.CompleterFunc(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		calls++
		return reply, err
	}), &calls
}

func TestDecomposeCompoundQuery(t *testing.T) {
	d := NewDecomposer(nil, nil)
	got := d.Decompose(context.Background(), "what is shimmer in this repo and why we use that")
	if len(got) != 1 {
		t.Fatalf("got %d intents %+v, want 1", len(got), got)
	}
	text := got[0].Text
	for _, want := range []string{"what is shimmer in this repo", "why we use shimmer"} {
		if !strings.Contains(text, want) {
			t.Errorf("intent %q missing %q", text, want)
		}
	}
	if strings.Contains(strings.ToLower(text), "tell") {
		t.Errorf("intent %q contains lead-in", text)
	}
	if got[0].Priority != 1 || got[0].Type != TypeWhat {
		t.Errorf("intent = %+v", got[0])
	}
}

func TestDecomposeStripsLeadIn(t *testing.T) {
	d := NewDecomposer(nil, nil)
	got := d.Decompose(context.Background(), "Please tell me   how routing works?")
	if len(got) != 1 || got[0].Text != "how routing works" {
		t.Fatalf("got %+v", got)
	}
	if got[0].Type != TypeHow {
		t.Fatalf("type = %q", got[0].Type)
	}
}

func TestDecomposeSplitsIndependentQuestions(t *testing.T) {
	d := NewDecomposer(nil, nil)
	got := d.Decompose(context.Background(), "how does routing work? where is the shimmer component; explain the redux store")
	var texts []string
	for _, in := range got {
		texts = append(texts, in.Text)
	}
	want := []string{"how does routing work", "where is the shimmer component", "explain the redux store"}
	if !reflect.DeepEqual(texts, want) {
		t.Fatalf("texts = %q, want %q", texts, want)
	}
	for i, in := range got {
		if in.Priority != i+1 {
			t.Errorf("intent %d priority = %d", i, in.Priority)
		}
	}
}

func TestDecomposeDropsSentenceConjunction(t *testing.T) {
	d := NewDecomposer(nil, nil)
	got := d.Decompose(context.Background(), "how does routing work with the router? Also, where is the shimmer?")
	if len(got) != 2 {
		t.Fatalf("got %d intents %+v, want 2", len(got), got)
	}
	if got[1].Text != "where is the shimmer" || got[1].Type != TypeWhere {
		t.Errorf("second intent = %+v", got[1])
	}
}

func TestDecomposeDoesNotSplitMidClause(t *testing.T) {
	d := NewDecomposer(nil, nil)
	got := d.Decompose(context.Background(), "how do header and footer share state")
	if len(got) != 1 || got[0].Text != "how do header and footer share state" {
		t.Fatalf("got %+v", got)
	}
}

func TestDecomposeCapsAtThree(t *testing.T) {
	d := NewDecomposer(nil, nil)
	got := d.Decompose(context.Background(), "what is cart? what is menu? what is header? what is footer?")
	if len(got) != MaxIntents {
		t.Fatalf("got %d intents, want %d", len(got), MaxIntents)
	}
}

func TestDecomposeBlankQuery(t *testing.T) {
	d := NewDecomposer(nil, nil)
	if got := d.Decompose(context.Background(), " \n\t "); len(got) != 0 {
		t.Fatalf("got %+v, want none", got)
	}
}

func TestDecomposeModelFallback(t *testing.T) {
	reply := "INTENT 1: what does this do\nTYPE: what\nKEYWORDS: this\nPRIORITY: 1\n"
	c, calls := countingCompleter(reply, nil)
	d := NewDecomposer(c, nil)

	// Only generic words: rules produce nothing, model output is generic too,
	// so the whole query comes back as one intent.
	got := d.Decompose(context.Background(), "what is this?")
	if *calls != 1 {
		t.Fatalf("completer calls = %d, want 1", *calls)
	}
	if len(got) != 1 || got[0].Text != "what is this?" || got[0].Priority != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestDecomposeModelBlocksUsed(t *testing.T) {
	reply := "Sure!\nINTENT 1: How are requests handled\nTYPE: how\nINTENT 2: Where are requests logged\nTYPE: where\nPRIORITY: 2"
	c, _ := countingCompleter(reply, nil)
	d := NewDecomposer(c, nil)
	res := d.byModel(context.Background(), "requests?")
	if res.IsError() {
		t.Fatalf("byModel: %v", res.Error())
	}
	got := res.MustGet()
	if len(got) != 2 || got[0].Type != TypeHow || got[1].Type != TypeWhere {
		t.Fatalf("got %+v", got)
	}
}

func TestDecomposeProviderFailure(t *testing.T) {
	c, _ := countingCompleter("", errors.New("connection refused"))
	d := NewDecomposer(c, nil)
	got := d.Decompose(context.Background(), "how?")
	if len(got) != 1 || got[0].Text != "how?" {
		t.Fatalf("got %+v", got)
	}
}

func TestDecomposeFallbackIsNormalized(t *testing.T) {
	c, _ := countingCompleter("", errors.New("connection refused"))
	d := NewDecomposer(c, nil)
	got := d.Decompose(context.Background(), "Can you   explain this ???")
	if len(got) != 1 || got[0].Text != "explain this ???" {
		t.Fatalf("got %+v", got)
	}
}

func TestDecomposeRecoversPanics(t *testing.T) {
	c := llm.CompleterFunc(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		panic("provider exploded")
	})
	d := NewDecomposer(c, nil)
	got := d.Decompose(context.Background(), "why?")
	if len(got) != 1 || got[0].Text != "why?" {
		t.Fatalf("got %+v", got)
	}
}
