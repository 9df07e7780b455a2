package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wicara-ai/wicara/domain/repositories"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultSystemPrompt  = "You are a helpful voice assistant. Keep replies short and conversational; they will be spoken aloud."
	defaultMaxTokens     = 150
	defaultTemperature   = 0.7
	defaultTimeout       = 30 * time.Second
)

// OpenAIConfig holds configuration for the OpenAI chat adapter.
// Required fields:
// - APIKey: Your OpenAI API key
// Optional fields with defaults:
// - BaseURL: API base URL (default: "https://api.openai.com/v1")
// - Model: chat model (default: "gpt-4o-mini")
// - SystemPrompt: assistant instructions prepended to every request
// - MaxTokens: reply token cap (default: 150)
// - Temperature: sampling temperature (default: 0.7)
// - Timeout: per-request timeout (default: 30s)
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
}

// NewOpenAIConfigFromEnv builds a config from OPENAI_* environment
// variables, leaving unset optionals at their zero values so defaults apply.
func NewOpenAIConfigFromEnv() OpenAIConfig {
	return OpenAIConfig{
		APIKey:       os.Getenv("OPENAI_API_KEY"),
		BaseURL:      os.Getenv("OPENAI_BASE_URL"),
		Model:        os.Getenv("LLM_MODEL"),
		SystemPrompt: os.Getenv("LLM_SYSTEM_PROMPT"),
	}
}

// OpenAIChat implements LargeLanguageModel using the OpenAI chat
// completions API over plain HTTP.
type OpenAIChat struct {
	apiKey       string
	baseURL      string
	model        string
	systemPrompt string
	maxTokens    int
	temperature  float64
	client       *http.Client
	logger       *zap.Logger
}

// Ensure OpenAIChat implements the LargeLanguageModel interface
var _ repositories.LargeLanguageModel = (*OpenAIChat)(nil)

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAIChat creates an OpenAI chat adapter.
func NewOpenAIChat(config OpenAIConfig, logger *zap.Logger) (*OpenAIChat, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	model := config.Model
	if model == "" {
		model = defaultOpenAIModel
		logger.Info("Using default chat model", zap.String("model", model))
	}

	systemPrompt := config.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &OpenAIChat{
		apiKey:       config.APIKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		model:        model,
		systemPrompt: systemPrompt,
		maxTokens:    maxTokens,
		temperature:  temperature,
		client:       &http.Client{Timeout: timeout},
		logger:       logger,
	}, nil
}

// Generate calls the chat completions endpoint with a system prompt plus
// the user's text and returns the first choice.
func (o *OpenAIChat) Generate(ctx context.Context, prompt string) (string, error) {
	request := chatCompletionRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: o.systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := o.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		o.logger.Error("OpenAI API returned error",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("response", string(errorBody)))
		return "", fmt.Errorf("openai API error: status %d", resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("invalid response format: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("invalid response format: no choices")
	}

	return completion.Choices[0].Message.Content, nil
}
