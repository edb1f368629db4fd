package llm

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

const geminiDefaultModel = "gemini-2.0-flash"

// GeminiProvider implements Provider using the Google GenAI SDK. The SDK
// client is created on first use.
type GeminiProvider struct {
	cfg   Config
	model string

	once      sync.Once
	client    *genai.Client
	clientErr error
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(cfg Config) *GeminiProvider {
	model := cfg.Model
	if model == "" {
		model = geminiDefaultModel
	}
	return &GeminiProvider{cfg: cfg, model: model}
}

// Name returns "gemini".
func (p *GeminiProvider) Name() string { return ProviderGemini }

// Available returns true if an API key is configured.
func (p *GeminiProvider) Available() bool {
	return p.cfg.APIKey != ""
}

func (p *GeminiProvider) genaiClient(ctx context.Context) (*genai.Client, error) {
	p.once.Do(func() {
		timeout := p.cfg.timeout()
		cc := &genai.ClientConfig{
			APIKey:  p.cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
			HTTPOptions: genai.HTTPOptions{
				BaseURL: p.cfg.BaseURL,
				Timeout: &timeout,
			},
		}
		p.client, p.clientErr = genai.NewClient(ctx, cc)
		if p.clientErr != nil {
			p.clientErr = fmt.Errorf("failed to create GenAI client: %w", p.clientErr)
		}
	})
	return p.client, p.clientErr
}

// GenerateText returns the concatenated text parts of the first candidate.
func (p *GeminiProvider) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return p.generate(ctx, prompt, &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	})
}

// GenerateJSON uses the application/json response MIME type.
func (p *GeminiProvider) GenerateJSON(ctx context.Context, prompt string, schema map[string]any) (map[string]any, error) {
	suffix, err := schemaInstruction(schema)
	if err != nil {
		return nil, err
	}
	response, err := p.generate(ctx, prompt, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(jsonSystemPrompt+suffix, genai.RoleUser),
		MaxOutputTokens:   DefaultMaxTokens,
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return nil, err
	}
	return decodeObject(response)
}

func (p *GeminiProvider) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	client, err := p.genaiClient(ctx)
	if err != nil {
		return "", err
	}
	resp, err := client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from gemini")
	}
	return text, nil
}
