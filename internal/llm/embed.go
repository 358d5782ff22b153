package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Embedder generates a dense vector for a single text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OllamaEmbedder calls an Ollama-compatible /api/embed endpoint, trying a
// primary model and falling back to a secondary one on failure, grounded
// in legal-gateway/worker.go's generateEmbedding model-fallback loop.
type OllamaEmbedder struct {
	endpoint string
	models   []string
	http     *http.Client
}

// NewOllamaEmbedder constructs an OllamaEmbedder that tries models in
// order, keeping the first one that returns a non-empty vector.
func NewOllamaEmbedder(endpoint string, models ...string) *OllamaEmbedder {
	if len(models) == 0 {
		models = []string{"embeddinggemma:latest", "nomic-embed-text:latest"}
	}
	return &OllamaEmbedder{
		endpoint: endpoint,
		models:   models,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed tries each configured model in turn, returning the first
// successful non-empty embedding.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for _, model := range e.models {
		vec, err := e.embedWith(ctx, model, text)
		if err != nil {
			lastErr = err
			continue
		}
		if len(vec) > 0 {
			return vec, nil
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("llm: all embedding models returned empty vectors")
	}
	return nil, fmt.Errorf("llm: all embedding models failed: %w", lastErr)
}

// EmbedOne aliases Embed under the name internal/classify's Embedder
// interface expects, so a single OllamaEmbedder serves both C4's semantic
// fallback and C8's embedding indexer.
func (e *OllamaEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return e.Embed(ctx, text)
}

func (e *OllamaEmbedder) embedWith(ctx context.Context, model, text string) ([]float32, error) {
	reqBody := ollamaEmbedRequest{Model: model, Input: text}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/api/embed", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm: embed request failed for %s: %w", model, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm: embed status %d for %s: %s", resp.StatusCode, model, string(body))
	}

	var out ollamaEmbedResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("llm: invalid embed response from %s: %w", model, err)
	}
	if len(out.Embeddings) == 0 {
		return nil, fmt.Errorf("llm: %s returned no embeddings", model)
	}
	return out.Embeddings[0], nil
}
