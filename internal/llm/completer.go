// Package llm is the boundary to text-completion providers. Callers treat
// every response as untrusted text.
package llm

import (
	"context"

	"github.com/samber/mo"
)

// Options tunes a single completion call.
type Options struct {
	MaxTokens   int
	Temperature mo.Option[float64]
}

// Completer produces a completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string, opts Options) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
