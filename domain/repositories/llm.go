package repositories

import "context"

// LargeLanguageModel abstracts any chat completion provider.
type LargeLanguageModel interface {
	// Generate takes the user's prompt and returns the model's reply.
	Generate(ctx context.Context, prompt string) (string, error)
}
