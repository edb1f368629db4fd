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
	openAIEndpoint     = "https://api.openai.com/v1"
	openAIDefaultModel = "gpt-4o"
)

// OpenAIProvider implements Provider using the OpenAI chat completions API.
type OpenAIProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewOpenAIProvider creates an OpenAI provider. The model defaults to gpt-4o.
func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	model := cfg.Model
	if model == "" {
		model = openAIDefaultModel
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = openAIEndpoint
	}
	return &OpenAIProvider{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: base + "/chat/completions",
		client:   &http.Client{Timeout: cfg.timeout()},
	}
}

type openAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIChatMessage   `json:"messages"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Name returns "openai".
func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

// Available returns true if an API key is configured.
func (p *OpenAIProvider) Available() bool {
	return p.apiKey != ""
}

// GenerateText sends prompt with a generic assistant system message.
func (p *OpenAIProvider) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return p.callAPI(ctx, openAIChatRequest{
		Model: p.model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: "You are a helpful AI assistant."},
			{Role: "user", Content: prompt},
		},
		MaxTokens: maxTokens,
	})
}

// GenerateJSON requests a json_object response, embedding schema in the
// system message.
func (p *OpenAIProvider) GenerateJSON(ctx context.Context, prompt string, schema map[string]any) (map[string]any, error) {
	suffix, err := schemaInstruction(schema)
	if err != nil {
		return nil, err
	}
	response, err := p.callAPI(ctx, openAIChatRequest{
		Model: p.model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: jsonSystemPrompt + suffix},
			{Role: "user", Content: prompt},
		},
		MaxTokens:      DefaultMaxTokens,
		ResponseFormat: &openAIResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}
	return decodeObject(response)
}

// callAPI makes a request to the chat completions API.
func (p *OpenAIProvider) callAPI(ctx context.Context, reqBody openAIChatRequest) (string, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp openAIChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("parsing API response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("openai error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in API response")
	}
	return chatResp.Choices[0].Message.Content, nil
}
