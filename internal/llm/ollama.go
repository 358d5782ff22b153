package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"clausecompass/internal/retry"
)

// OllamaClient implements Client against an Ollama-compatible /api/generate
// endpoint, grounded in legal-gateway/worker.go's generateEmbedding model-
// fallback HTTP call shape, generalized here to text generation and to
// the spec's retry/backoff policy (internal/retry) instead of the
// teacher's inline loop.
type OllamaClient struct {
	endpoint string
	model    string
	http     *http.Client
}

// NewOllamaClient constructs an OllamaClient.
func NewOllamaClient(endpoint, model string) *OllamaClient {
	return &OllamaClient{
		endpoint: endpoint,
		model:    model,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type ollamaGenerateRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Stream  bool   `json:"stream"`
	Options struct {
		Temperature float64 `json:"temperature"`
		NumPredict  int     `json:"num_predict,omitempty"`
	} `json:"options"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate invokes Ollama's /api/generate with low temperature (closed-
// form generation per spec.md §4.13 step 8) and retries transient
// failures per the spec's backoff policy.
func (c *OllamaClient) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	var result string
	err := retry.Do(ctx, 3, func(ctx context.Context) error {
		resp, err := c.doGenerate(ctx, prompt, maxOutputTokens)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	return result, err
}

func (c *OllamaClient) doGenerate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	reqBody := ollamaGenerateRequest{Model: c.model, Prompt: prompt, Stream: false}
	reqBody.Options.Temperature = 0.1
	reqBody.Options.NumPredict = maxOutputTokens

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: status %d: %s", resp.StatusCode, string(body))
	}

	var out ollamaGenerateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("llm: invalid response: %w", err)
	}
	return out.Response, nil
}
