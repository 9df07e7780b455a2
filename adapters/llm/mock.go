package llm

import (
	"context"
	"fmt"

	"github.com/wicara-ai/wicara/domain/repositories"
)

// MockLLM is a canned-reply model for tests and keyless local runs.
type MockLLM struct {
	// Reply overrides the generated text when set.
	Reply string

	// Err makes Generate fail when set.
	Err error

	// Prompts records every prompt Generate received.
	Prompts []string
}

// Ensure MockLLM implements the LargeLanguageModel interface
var _ repositories.LargeLanguageModel = (*MockLLM)(nil)

// NewMockLLM creates a mock model.
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// Generate echoes the prompt back unless Reply or Err is scripted.
func (m *MockLLM) Generate(_ context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if m.Reply != "" {
		return m.Reply, nil
	}
	return fmt.Sprintf("You said: %s", prompt), nil
}
