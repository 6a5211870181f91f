// Package llm implements confirmation text generators. Generators never
// return errors: failures come back as text prefixed with
// port.GenerationErrorPrefix.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rl1809/voice-pos/internal/common/logger"
	"github.com/rl1809/voice-pos/internal/port"
)

const defaultMaxRetries = 2

// OllamaGenerator calls a local Ollama server's /api/generate endpoint.
type OllamaGenerator struct {
	endpoint   string
	model      string
	maxRetries int
	client     *http.Client
	logger     logger.Logger
}

func NewOllamaGenerator(endpoint, model string, log logger.Logger) *OllamaGenerator {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "gemma3:1b"
	}
	return &OllamaGenerator{
		endpoint:   endpoint,
		model:      model,
		maxRetries: defaultMaxRetries,
		client:     &http.Client{},
		logger:     log.With(map[string]interface{}{"component": "ollama-generator", "model": model}),
	}
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) string {
	text, err := g.generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("generation failed", map[string]interface{}{"error": err.Error()})
		return fmt.Sprintf("%s %v", port.GenerationErrorPrefix, err)
	}
	return text
}

func (g *OllamaGenerator) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{Model: g.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, retry, err := g.post(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return "", lastErr
}

// post sends one request. retry reports whether the failure is transient.
func (g *OllamaGenerator) post(ctx context.Context, body []byte) (text string, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", resp.StatusCode >= 500, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}
	if result.Error != "" {
		return "", false, fmt.Errorf("ollama: %s", result.Error)
	}
	return strings.TrimSpace(result.Response), false, nil
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}
