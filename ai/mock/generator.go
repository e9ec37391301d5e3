package mock

import "context"

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateTextFunc is called by GenerateText if set.
	// If nil, uses default canned behavior.
	GenerateTextFunc func(ctx context.Context, prompt string) (string, error)

	callCount  int
	lastPrompt string
}

// NewMockGenerator creates a mock generator with default canned behavior.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// GenerateText returns a canned completion, or delegates to GenerateTextFunc.
func (m *MockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.callCount++
	m.lastPrompt = prompt

	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, prompt)
	}

	return "respuesta generada", nil
}

// CallCount returns the number of times GenerateText was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// LastPrompt returns the prompt of the most recent GenerateText call.
// Useful for asserting on prompt assembly.
func (m *MockGenerator) LastPrompt() string {
	return m.lastPrompt
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.lastPrompt = ""
	m.GenerateTextFunc = nil
}
