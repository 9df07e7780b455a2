package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/wicara-ai/wicara/adapters/llm"
	"github.com/wicara-ai/wicara/adapters/tts"
	"github.com/wicara-ai/wicara/domain/repositories"
	"github.com/wicara-ai/wicara/internal/api"
	"github.com/wicara-ai/wicara/internal/gateway"
	"github.com/wicara-ai/wicara/usecase"
)

func main() {
	godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize adapters
	model := newLanguageModel(logger)
	synthesizer := newSynthesizer(logger)

	// Initialize usecase services and the websocket gateway
	replies := usecase.NewReplyService(model, synthesizer, logger)
	handler := gateway.NewHandler(replies, logger)

	api.InitRoutes(e, handler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Gateway started", zap.String("port", port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Gateway is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Gateway forced to shutdown", zap.Error(err))
	}

	logger.Info("Gateway exited")
}

// newLanguageModel picks the chat provider by available credentials:
// OpenAI, then Gemini, then the canned mock.
func newLanguageModel(logger *zap.Logger) repositories.LargeLanguageModel {
	if os.Getenv("OPENAI_API_KEY") != "" {
		model, err := llm.NewOpenAIChat(llm.NewOpenAIConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize OpenAI chat", zap.Error(err))
		}
		logger.Info("Using OpenAI chat provider")
		return model
	}

	if os.Getenv("GEMINI_API_KEY") != "" {
		model, err := llm.NewGeminiLLM(logger)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini", zap.Error(err))
		}
		logger.Info("Using Gemini chat provider")
		return model
	}

	logger.Warn("No LLM credentials found, using mock replies")
	return llm.NewMockLLM()
}

// newSynthesizer picks the TTS provider: TTS_PROVIDER wins, otherwise the
// first provider with credentials, otherwise the mock.
func newSynthesizer(logger *zap.Logger) repositories.TextToSpeech {
	provider := os.Getenv("TTS_PROVIDER")

	if provider == "elevenlabs" || (provider == "" && os.Getenv("ELEVEN_LABS_API_KEY") != "") {
		synth, err := tts.NewElevenLabsTTS(tts.NewElevenLabsConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize Eleven Labs TTS", zap.Error(err))
		}
		logger.Info("Using Eleven Labs TTS provider")
		return synth
	}

	if provider == "openai" || (provider == "" && os.Getenv("OPENAI_API_KEY") != "") {
		synth, err := tts.NewOpenAITTS(tts.NewOpenAIConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize OpenAI TTS", zap.Error(err))
		}
		logger.Info("Using OpenAI TTS provider")
		return synth
	}

	logger.Warn("No TTS credentials found, using mock audio")
	return tts.NewMockTTS()
}
