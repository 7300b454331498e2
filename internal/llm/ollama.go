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
)

// OllamaProvider implements completion using a local or proxied Ollama server
type OllamaProvider struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

// NewOllamaProvider creates a new Ollama provider
// endpoint: Ollama API endpoint (default: http://localhost:11434)
// model: Model to use (e.g., "llama3.2", "mistral", "gemma2")
func NewOllamaProvider(endpoint, model string, timeout time.Duration) *OllamaProvider {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" || strings.HasPrefix(model, "gemini") {
		model = "llama3.2"
	}
	if timeout == 0 {
		timeout = 60 * time.Second // LLMs can be slow
	}

	return &OllamaProvider{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		model:    model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return fmt.Sprintf("ollama/%s", p.model)
}

// Complete calls /api/generate in JSON mode. The API key is forwarded as a
// bearer token for authenticating proxies in front of Ollama.
func (p *OllamaProvider) Complete(ctx context.Context, apiKey, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":  p.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]interface{}{
			"temperature": 0.2,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/generate", p.endpoint)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", transportError(p.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", transportError(p.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(p.Name(), err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", transportError(p.Name(), fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var ollamaResp struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(body, &ollamaResp); err != nil {
		return "", transportError(p.Name(), fmt.Errorf("decode envelope: %w", err))
	}

	return ollamaResp.Response, nil
}
