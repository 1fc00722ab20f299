package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/mo"
	"golang.org/x/time/rate"
)

func TestOllamaChatComplete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(chatResponse{Message: Message{Role: "assistant", Content: "hello"}})
	}))
	defer srv.Close()

	c := NewOllamaChat(srv.URL, "qwen")
	out, err := c.Complete(context.Background(), "hi", Options{MaxTokens: 64, Temperature: mo.Some(0.2)})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "hello" {
		t.Fatalf("out = %q", out)
	}
	if got.Model != "qwen" || got.Stream || len(got.Messages) != 1 || got.Messages[0].Content != "hi" {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.Options == nil || got.Options.NumPredict != 64 || got.Options.Temperature == nil || *got.Options.Temperature != 0.2 {
		t.Fatalf("options not forwarded: %+v", got.Options)
	}
}

func TestOllamaChatStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaChat(srv.URL, "missing").Complete(context.Background(), "hi", Options{})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want StatusError 404", err)
	}
	if se.Temporary() {
		t.Fatal("404 should not be temporary")
	}
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"succeeds after transient", 2, &StatusError{Code: 503}, 3, false},
		{"permanent not retried", 5, &StatusError{Code: 400}, 1, true},
		{"gives up at attempts", 5, errors.New("conn reset"), 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			inner := CompleterFunc(func(ctx context.Context, prompt string, opts Options) (string, error) {
				calls++
				if calls <= tt.failures {
					return "", tt.err
				}
				return "ok", nil
			})
			out, err := WithRetry(inner, 3).Complete(context.Background(), "p", Options{})
			if calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && out != "ok" {
				t.Fatalf("out = %q", out)
			}
		})
	}
}

func TestWithRateLimitHonorsContext(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	inner := CompleterFunc(func(ctx context.Context, prompt string, opts Options) (string, error) {
		return "ok", nil
	})
	c := WithRateLimit(inner, limiter)
	if _, err := c.Complete(context.Background(), "p", Options{}); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Complete(ctx, "p", Options{}); err == nil {
		t.Fatal("expected error once the burst is spent and ctx is cancelled")
	}
}

func TestWithMetricsPassesThrough(t *testing.T) {
	inner := CompleterFunc(func(ctx context.Context, prompt string, opts Options) (string, error) {
		return prompt + "!", nil
	})
	out, err := WithMetrics(inner, "test").Complete(context.Background(), "hey", Options{})
	if err != nil || out != "hey!" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestWithTimeout(t *testing.T) {
	inner := CompleterFunc(func(ctx context.Context, prompt string, opts Options) (string, error) {
		if _, ok := ctx.Deadline(); !ok {
			return "", errors.New("no deadline")
		}
		<-ctx.Done()
		return "", ctx.Err()
	})
	_, err := WithTimeout(inner, 10*time.Millisecond).Complete(context.Background(), "p", Options{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestListOllamaModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(tagsResponse{Models: []OllamaModel{
			{Name: "qwen3:8b", Size: 5 << 30},
			{Name: "nomic-embed-text", Size: 270 << 20},
			{Name: "llama3.2:1b", Size: 800 << 20},
		}})
	}))
	defer srv.Close()

	models, err := ListOllamaModels(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("ListOllamaModels: %v", err)
	}
	if len(models) != 2 || models[0].Name != "qwen3:8b" || models[1].Name != "llama3.2:1b" {
		t.Fatalf("models = %+v, want the two chat models", models)
	}
	if got := models[0].HumanSize(); got != "5.0 GB" {
		t.Errorf("HumanSize() = %q", got)
	}
	if got := models[1].HumanSize(); got != "800 MB" {
		t.Errorf("HumanSize() = %q", got)
	}
}
