package llm

import (
	"context"
	"sync"
)

// MockProvider implements Provider for tests. It returns configured
// responses and records every prompt it receives.
type MockProvider struct {
	mu sync.Mutex

	name      string
	text      string
	object    map[string]any
	err       error
	available bool

	// Prompts holds every prompt passed to GenerateText or GenerateJSON.
	Prompts []string
}

// NewMockProvider creates an available mock with the given name.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{name: name, available: true}
}

// WithText configures the GenerateText response.
func (m *MockProvider) WithText(text string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return m
}

// WithJSON configures the GenerateJSON response.
func (m *MockProvider) WithJSON(obj map[string]any) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.object = obj
	return m
}

// WithError makes every generate call fail with err.
func (m *MockProvider) WithError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithAvailable configures Available.
func (m *MockProvider) WithAvailable(available bool) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
	return m
}

// Name implements Provider.
func (m *MockProvider) Name() string { return m.name }

// Available implements Provider.
func (m *MockProvider) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// GenerateText implements Provider.
func (m *MockProvider) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

// GenerateJSON implements Provider.
func (m *MockProvider) GenerateJSON(ctx context.Context, prompt string, schema map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if m.err != nil {
		return nil, m.err
	}
	if m.object == nil {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(m.object))
	for k, v := range m.object {
		out[k] = v
	}
	return out, nil
}

// CallCount returns how many generate calls were made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
