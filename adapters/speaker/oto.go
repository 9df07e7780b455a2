package speaker

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	mp3 "github.com/hajimehoshi/go-mp3"
	"go.uber.org/zap"

	"github.com/wicara-ai/wicara/domain/repositories"
)

// How often a started handle checks whether the device finished draining.
const completionPollInterval = 50 * time.Millisecond

// OtoSpeaker plays MP3 payloads through the system audio device using an
// oto context shared by all handles. The context is created lazily from the
// sample rate of the first decoded payload, because oto allows only one
// context per process.
type OtoSpeaker struct {
	logger *zap.Logger

	mu         sync.Mutex
	ctx        *oto.Context
	sampleRate int
}

// Ensure OtoSpeaker implements the Speaker interface
var _ repositories.Speaker = (*OtoSpeaker)(nil)

// NewOtoSpeaker creates a speaker backed by the system audio device.
func NewOtoSpeaker(logger *zap.Logger) *OtoSpeaker {
	return &OtoSpeaker{logger: logger}
}

// Prepare decodes the payload as MP3 and wraps it in a playback handle.
func (s *OtoSpeaker) Prepare(data []byte) (repositories.PlaybackHandle, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	ctx, err := s.context(decoder.SampleRate())
	if err != nil {
		return nil, err
	}

	return &otoHandle{
		player: ctx.NewPlayer(decoder),
		logger: s.logger,
	}, nil
}

func (s *OtoSpeaker) context(sampleRate int) (*oto.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx != nil {
		if sampleRate != s.sampleRate {
			// The context's rate is fixed for the process lifetime; a
			// mismatched stream plays at the wrong pitch rather than fail.
			s.logger.Warn("Sample rate differs from audio context",
				zap.Int("contextRate", s.sampleRate),
				zap.Int("streamRate", sampleRate))
		}
		return s.ctx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2, // go-mp3 always emits 16-bit stereo
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	<-ready

	s.logger.Info("Audio context ready", zap.Int("sampleRate", sampleRate))
	s.ctx = ctx
	s.sampleRate = sampleRate
	return ctx, nil
}

// otoHandle is one prepared MP3 stream on the shared context.
type otoHandle struct {
	player *oto.Player
	logger *zap.Logger

	stopOnce sync.Once
	stopped  chan struct{}
}

func (h *otoHandle) Start(done func()) error {
	h.stopped = make(chan struct{})
	h.player.Play()
	go h.watch(done)
	return nil
}

// watch polls the device until the stream drains, then reports completion.
// A Stop racing the final poll can still let done fire; the playback
// controller's generation check makes that harmless.
func (h *otoHandle) watch(done func()) {
	ticker := time.NewTicker(completionPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopped:
			return
		case <-ticker.C:
			if !h.player.IsPlaying() {
				select {
				case <-h.stopped:
				default:
					done()
				}
				return
			}
		}
	}
}

func (h *otoHandle) Stop() {
	h.stopOnce.Do(func() {
		if h.stopped != nil {
			close(h.stopped)
		}
		h.player.Pause()
		if _, err := h.player.Seek(0, io.SeekStart); err != nil {
			h.logger.Debug("Rewind failed", zap.Error(err))
		}
		if err := h.player.Close(); err != nil {
			h.logger.Debug("Player close failed", zap.Error(err))
		}
	})
}
