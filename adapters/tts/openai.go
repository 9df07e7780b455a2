package tts

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
	defaultOpenAIModel   = "tts-1"
	defaultOpenAIVoice   = "alloy"
	defaultOpenAITimeout = 30 * time.Second
)

// OpenAIConfig holds configuration for the OpenAI TTS adapter.
// Required fields:
// - APIKey: Your OpenAI API key
// Optional fields with defaults:
// - BaseURL: API base URL (default: "https://api.openai.com/v1")
// - Model: TTS model (default: "tts-1")
// - Voice: voice preset (default: "alloy")
// - Timeout: per-request timeout (default: 30s)
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
	Timeout time.Duration
}

// NewOpenAIConfigFromEnv builds a config from OPENAI_* / TTS_* environment
// variables.
func NewOpenAIConfigFromEnv() OpenAIConfig {
	return OpenAIConfig{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("TTS_MODEL"),
		Voice:   os.Getenv("TTS_VOICE"),
	}
}

// OpenAITTS implements TextToSpeech using the OpenAI speech endpoint. The
// response is a complete MP3 payload.
type OpenAITTS struct {
	apiKey  string
	baseURL string
	model   string
	voice   string
	client  *http.Client
	logger  *zap.Logger
}

// Ensure OpenAITTS implements the TextToSpeech interface
var _ repositories.TextToSpeech = (*OpenAITTS)(nil)

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// NewOpenAITTS creates an OpenAI TTS adapter.
func NewOpenAITTS(config OpenAIConfig, logger *zap.Logger) (*OpenAITTS, error) {
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
		logger.Info("Using default TTS model", zap.String("model", model))
	}

	voice := config.Voice
	if voice == "" {
		voice = defaultOpenAIVoice
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultOpenAITimeout
	}

	return &OpenAITTS{
		apiKey:  config.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		voice:   voice,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Synthesize renders text as MP3 audio bytes.
func (o *OpenAITTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	requestBody, err := json.Marshal(speechRequest{
		Model:          o.model,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := o.baseURL + "/audio/speech"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		o.logger.Error("OpenAI TTS returned error",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("response", string(errorBody)))
		return nil, fmt.Errorf("openai TTS error: status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	o.logger.Debug("Speech synthesized",
		zap.String("voice", o.voice),
		zap.Int("audioBytes", len(audio)))

	return audio, nil
}
