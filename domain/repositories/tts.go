package repositories

import "context"

// TextToSpeech renders assistant text as a complete MP3 payload.
type TextToSpeech interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
