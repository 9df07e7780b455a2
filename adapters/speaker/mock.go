package speaker

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wicara-ai/wicara/domain/repositories"
)

// MockSpeaker is a speaker for tests and headless runs. It records every
// prepared handle and lets callers fire completions by hand.
type MockSpeaker struct {
	logger *zap.Logger

	// FailPrepare makes Prepare reject every payload.
	FailPrepare bool

	// FailStart makes handles reject Start.
	FailStart bool

	handles []*MockHandle
}

// Ensure MockSpeaker implements the Speaker interface
var _ repositories.Speaker = (*MockSpeaker)(nil)

// NewMockSpeaker creates a mock speaker.
func NewMockSpeaker(logger *zap.Logger) *MockSpeaker {
	return &MockSpeaker{logger: logger}
}

// Prepare records the payload and returns a scripted handle.
func (s *MockSpeaker) Prepare(data []byte) (repositories.PlaybackHandle, error) {
	if s.FailPrepare {
		return nil, fmt.Errorf("mock speaker: unplayable payload (%d bytes)", len(data))
	}

	h := &MockHandle{
		Data:      append([]byte(nil), data...),
		failStart: s.FailStart,
	}
	s.handles = append(s.handles, h)
	s.logger.Debug("Mock speaker prepared payload", zap.Int("bytes", len(data)))
	return h, nil
}

// Handles returns every handle prepared so far, oldest first.
func (s *MockSpeaker) Handles() []*MockHandle {
	return s.handles
}

// LastHandle returns the most recently prepared handle, or nil.
func (s *MockSpeaker) LastHandle() *MockHandle {
	if len(s.handles) == 0 {
		return nil
	}
	return s.handles[len(s.handles)-1]
}

// MockHandle is a scripted playback handle.
type MockHandle struct {
	Data []byte

	failStart bool
	started   bool
	stopped   bool
	done      func()
}

func (h *MockHandle) Start(done func()) error {
	if h.failStart {
		return fmt.Errorf("mock speaker: start refused")
	}
	h.started = true
	h.done = done
	return nil
}

func (h *MockHandle) Stop() {
	h.stopped = true
}

// Started reports whether playback began.
func (h *MockHandle) Started() bool { return h.started }

// Stopped reports whether the handle was stopped.
func (h *MockHandle) Stopped() bool { return h.stopped }

// Finish fires the natural-completion callback captured by Start.
func (h *MockHandle) Finish() {
	if h.done != nil {
		h.done()
	}
}
