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
	defaultElevenBaseURL      = "https://api.elevenlabs.io/v1"
	defaultElevenVoiceID      = "21m00Tcm4TlvDq8ikWAM" // Rachel voice
	defaultElevenModelID      = "eleven_multilingual_v2"
	defaultElevenOutputFormat = "mp3_44100_128" // client-side decode expects MP3
	defaultStability          = 0.5
	defaultClarity            = 0.75
	defaultElevenTimeout      = 60 * time.Second
)

// ElevenLabsConfig holds configuration for the ElevenLabs TTS adapter.
// Required fields:
// - APIKey: Your Eleven Labs API key
// Optional fields with defaults:
// - BaseURL: API base URL (default: "https://api.elevenlabs.io/v1")
// - VoiceID: voice to use (default: "21m00Tcm4TlvDq8ikWAM" - Rachel voice)
// - ModelID: model to use (default: "eleven_multilingual_v2")
// - OutputFormat: rendered format (default: "mp3_44100_128")
// - Stability: voice stability between 0 and 1 (default: 0.5)
// - Clarity: similarity boost between 0 and 1 (default: 0.75)
type ElevenLabsConfig struct {
	APIKey       string
	BaseURL      string
	VoiceID      string
	ModelID      string
	OutputFormat string
	Stability    float64
	Clarity      float64
}

// NewElevenLabsConfigFromEnv builds a config from ELEVEN_LABS_* environment
// variables.
func NewElevenLabsConfigFromEnv() ElevenLabsConfig {
	return ElevenLabsConfig{
		APIKey:  os.Getenv("ELEVEN_LABS_API_KEY"),
		VoiceID: os.Getenv("ELEVEN_LABS_VOICE_ID"),
		ModelID: os.Getenv("ELEVEN_LABS_MODEL_ID"),
	}
}

// ValidateElevenLabsConfig validates the ElevenLabsConfig.
func ValidateElevenLabsConfig(config ElevenLabsConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("eleven labs API key is required")
	}
	if config.Stability != 0 && (config.Stability < 0 || config.Stability > 1) {
		return fmt.Errorf("stability must be between 0 and 1, got %f", config.Stability)
	}
	if config.Clarity != 0 && (config.Clarity < 0 || config.Clarity > 1) {
		return fmt.Errorf("clarity must be between 0 and 1, got %f", config.Clarity)
	}
	return nil
}

// ElevenLabsTTS implements TextToSpeech using the Eleven Labs API.
type ElevenLabsTTS struct {
	apiKey       string
	baseURL      string
	voiceID      string
	modelID      string
	outputFormat string
	stability    float64
	clarity      float64
	client       *http.Client
	logger       *zap.Logger
}

// Ensure ElevenLabsTTS implements the TextToSpeech interface
var _ repositories.TextToSpeech = (*ElevenLabsTTS)(nil)

// ElevenLabsVoiceSettings represents voice settings for Eleven Labs API.
type ElevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
}

// ElevenLabsRequest represents the request payload for Eleven Labs TTS API.
type ElevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings ElevenLabsVoiceSettings `json:"voice_settings"`
}

// NewElevenLabsTTS creates a new Eleven Labs TTS instance.
func NewElevenLabsTTS(config ElevenLabsConfig, logger *zap.Logger) (*ElevenLabsTTS, error) {
	if err := ValidateElevenLabsConfig(config); err != nil {
		return nil, err
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultElevenBaseURL
	}

	voiceID := config.VoiceID
	if voiceID == "" {
		voiceID = defaultElevenVoiceID
		logger.Info("Using default voice ID", zap.String("voiceID", voiceID))
	}

	modelID := config.ModelID
	if modelID == "" {
		modelID = defaultElevenModelID
	}

	outputFormat := config.OutputFormat
	if outputFormat == "" {
		outputFormat = defaultElevenOutputFormat
	}

	stability := config.Stability
	if stability == 0 {
		stability = defaultStability
	}

	clarity := config.Clarity
	if clarity == 0 {
		clarity = defaultClarity
	}

	return &ElevenLabsTTS{
		apiKey:       config.APIKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		voiceID:      voiceID,
		modelID:      modelID,
		outputFormat: outputFormat,
		stability:    stability,
		clarity:      clarity,
		client:       &http.Client{Timeout: defaultElevenTimeout},
		logger:       logger,
	}, nil
}

// Synthesize renders text as a complete MP3 payload.
func (e *ElevenLabsTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	request := ElevenLabsRequest{
		Text:    text,
		ModelID: e.modelID,
		VoiceSettings: ElevenLabsVoiceSettings{
			Stability:       e.stability,
			SimilarityBoost: e.clarity,
			UseSpeakerBoost: true,
		},
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s",
		e.baseURL, e.voiceID, e.outputFormat)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("eleven labs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		e.logger.Error("Eleven Labs API returned error",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("response", string(errorBody)))
		return nil, fmt.Errorf("eleven labs API error: status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	e.logger.Debug("Speech synthesized",
		zap.String("voiceID", e.voiceID),
		zap.Int("audioBytes", len(audio)))

	return audio, nil
}
