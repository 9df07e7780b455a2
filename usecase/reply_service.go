package usecase

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"

	"github.com/wicara-ai/wicara/domain"
	"github.com/wicara-ai/wicara/domain/repositories"
)

// ReplyService turns one user utterance into a combined text+audio reply:
// LLM for the text, TTS for the MP3, base64 for the wire.
type ReplyService struct {
	llm    repositories.LargeLanguageModel
	tts    repositories.TextToSpeech
	logger *zap.Logger
}

// NewReplyService creates a reply service.
func NewReplyService(llm repositories.LargeLanguageModel, tts repositories.TextToSpeech, logger *zap.Logger) *ReplyService {
	return &ReplyService{
		llm:    llm,
		tts:    tts,
		logger: logger,
	}
}

// Reply generates the audio response message for one user text.
func (s *ReplyService) Reply(ctx context.Context, text string) (domain.ServerMessage, error) {
	replyText, err := s.llm.Generate(ctx, text)
	if err != nil {
		return domain.ServerMessage{}, fmt.Errorf("llm generation failed: %w", err)
	}

	s.logger.Info("LLM reply generated",
		zap.Int("promptChars", len(text)),
		zap.Int("replyChars", len(replyText)))

	audio, err := s.tts.Synthesize(ctx, replyText)
	if err != nil {
		return domain.ServerMessage{}, fmt.Errorf("text-to-speech failed: %w", err)
	}

	s.logger.Info("TTS completed", zap.Int("audioBytes", len(audio)))

	return domain.ServerMessage{
		Type:      domain.MessageTypeAudio,
		LLMText:   replyText,
		AudioData: base64.StdEncoding.EncodeToString(audio),
	}, nil
}
