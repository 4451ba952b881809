package mock

import "github.com/lodeworks/lodestone/ai"

// MockProvider is a test double for ai.Provider.
type MockProvider struct {
	Suggester *MockTagSuggester
}

var _ ai.Provider = (*MockProvider)(nil)

// NewMockProvider creates a provider wrapping fresh mock services.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Suggester: NewMockTagSuggester(),
	}
}

// TagSuggester returns the mock tag suggester.
func (p *MockProvider) TagSuggester() ai.TagSuggester {
	return p.Suggester
}

// Close is a no-op.
func (p *MockProvider) Close() error {
	return nil
}
