package main

import (
	"context"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wicara-ai/wicara/adapters/speaker"
	"github.com/wicara-ai/wicara/domain/repositories"
	"github.com/wicara-ai/wicara/internal/websocket"
	"github.com/wicara-ai/wicara/usecase"
)

const defaultServerURL = "ws://localhost:8000/ws"

func main() {
	godotenv.Load()

	logger := newLogger()
	defer logger.Sync()

	serverURL := os.Getenv("WICARA_SERVER_URL")
	if serverURL == "" {
		serverURL = defaultServerURL
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptDisabled,
		InterruptPrompt: "^C",
	})
	if err != nil {
		logger.Fatal("Failed to initialize terminal", zap.Error(err))
	}
	defer rl.Close()

	view := newTerminalView(rl)

	manager := websocket.NewManager(serverURL, logger)
	coordinator := usecase.NewCoordinator(manager, newSpeaker(logger), view, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coordinator.Run(ctx)

	logger.Info("Connecting", zap.String("url", serverURL))
	manager.Connect()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			break
		}
		if err != nil {
			logger.Error("Terminal read failed", zap.Error(err))
			break
		}
		coordinator.Submit(line)
	}

	manager.Close()
}

func newLogger() *zap.Logger {
	if os.Getenv("WICARA_DEBUG") != "" {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	// Terminal output belongs to the transcript; keep logs quiet.
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, _ := config.Build()
	return logger
}

// newSpeaker returns the system audio device, or the mock when muted
// (WICARA_MUTE is handy on headless machines and in CI).
func newSpeaker(logger *zap.Logger) repositories.Speaker {
	if os.Getenv("WICARA_MUTE") != "" {
		return speaker.NewMockSpeaker(logger)
	}
	return speaker.NewOtoSpeaker(logger)
}
