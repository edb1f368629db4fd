package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	anthropicAPIURL       = "https://api.anthropic.com/v1"
	anthropicAPIVersion   = "2023-06-01"
	anthropicDefaultModel = "claude-3-5-sonnet-20241022"
)

// AnthropicProvider implements Provider using the Anthropic Messages API.
type AnthropicProvider struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewAnthropicProvider creates an Anthropic provider.
func NewAnthropicProvider(cfg Config) *AnthropicProvider {
	model := cfg.Model
	if model == "" {
		model = anthropicDefaultModel
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = anthropicAPIURL
	}
	return &AnthropicProvider{
		apiKey:     cfg.APIKey,
		model:      model,
		endpoint:   base + "/messages",
		httpClient: &http.Client{Timeout: cfg.timeout()},
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Name returns "anthropic".
func (p *AnthropicProvider) Name() string { return ProviderAnthropic }

// Available returns true if the API key is present.
func (p *AnthropicProvider) Available() bool {
	return p.apiKey != ""
}

// GenerateText sends a single user message.
func (p *AnthropicProvider) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return p.sendRequest(ctx, anthropicRequest{
		Model:     p.model,
		MaxTokens: maxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})
}

// GenerateJSON asks for a JSON-only answer via the system prompt. The
// Messages API has no JSON mode, so fenced output is unwrapped.
func (p *AnthropicProvider) GenerateJSON(ctx context.Context, prompt string, schema map[string]any) (map[string]any, error) {
	suffix, err := schemaInstruction(schema)
	if err != nil {
		return nil, err
	}
	response, err := p.sendRequest(ctx, anthropicRequest{
		Model:     p.model,
		MaxTokens: DefaultMaxTokens,
		System:    jsonSystemPrompt + suffix,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}
	return decodeObject(response)
}

// sendRequest posts to the Messages API and returns the first text block.
func (p *AnthropicProvider) sendRequest(ctx context.Context, reqBody anthropicRequest) (string, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("parsing API response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("anthropic error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	for _, content := range apiResp.Content {
		if content.Type == "text" {
			return content.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in API response")
}
