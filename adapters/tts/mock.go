package tts

import (
	"context"
	"fmt"
	"strings"

	"github.com/wicara-ai/wicara/domain/repositories"
)

// MockTTS is a canned synthesizer for tests and keyless local runs. The
// payload it produces is not real MP3; pair it with a mock speaker.
type MockTTS struct {
	// Payload overrides the synthesized bytes when set.
	Payload []byte

	// Err makes Synthesize fail when set.
	Err error

	// Texts records every text Synthesize received.
	Texts []string
}

// Ensure MockTTS implements the TextToSpeech interface
var _ repositories.TextToSpeech = (*MockTTS)(nil)

// NewMockTTS creates a mock synthesizer.
func NewMockTTS() *MockTTS {
	return &MockTTS{}
}

// Synthesize returns a deterministic payload derived from the text.
func (m *MockTTS) Synthesize(_ context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	m.Texts = append(m.Texts, text)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Payload != nil {
		return m.Payload, nil
	}
	return []byte("mock-audio:" + text), nil
}
