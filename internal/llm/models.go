package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OllamaModel is a locally installed model reported by /api/tags.
type OllamaModel struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// IsEmbedding reports whether the model only produces embeddings and cannot
// complete text.
func (m OllamaModel) IsEmbedding() bool {
	name := strings.ToLower(m.Name)
	return strings.Contains(name, "embed") || strings.Contains(name, "nomic") || strings.Contains(name, "bge")
}

// HumanSize formats the model size, e.g. "4.7 GB".
func (m OllamaModel) HumanSize() string {
	const gb = 1024 * 1024 * 1024
	const mb = 1024 * 1024
	if m.Size >= gb {
		return fmt.Sprintf("%.1f GB", float64(m.Size)/float64(gb))
	}
	return fmt.Sprintf("%.0f MB", float64(m.Size)/float64(mb))
}

type tagsResponse struct {
	Models []OllamaModel `json:"models"`
}

// ListOllamaModels returns the completion-capable models installed on the
// Ollama server at baseURL.
func ListOllamaModels(ctx context.Context, baseURL string) ([]OllamaModel, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect to ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: "ollama", Code: resp.StatusCode, Body: "GET /api/tags"}
	}
	var result tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}
	var out []OllamaModel
	for _, m := range result.Models {
		if !m.IsEmbedding() {
			out = append(out, m)
		}
	}
	return out, nil
}
