package gateway

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/wicara-ai/wicara/adapters/llm"
	"github.com/wicara-ai/wicara/adapters/tts"
	"github.com/wicara-ai/wicara/domain"
	"github.com/wicara-ai/wicara/usecase"
)

func dialTestGateway(t *testing.T, model *llm.MockLLM, synth *tts.MockTTS) *websocket.Conn {
	t.Helper()
	logger := zaptest.NewLogger(t)

	e := echo.New()
	handler := NewHandler(usecase.NewReplyService(model, synth, logger), logger)
	e.GET("/ws", handler.HandleWebSocket)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial gateway: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) domain.ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	var msg domain.ServerMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("Malformed frame %q: %v", payload, err)
	}
	return msg
}

func sendText(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	if err := conn.WriteJSON(domain.ClientMessage{Text: text}); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}
}

func TestAudioRoundTrip(t *testing.T) {
	conn := dialTestGateway(t, llm.NewMockLLM(), tts.NewMockTTS())

	sendText(t, conn, "hi")
	msg := readFrame(t, conn)

	if msg.Type != domain.MessageTypeAudio {
		t.Fatalf("Expected audio reply, got type %q", msg.Type)
	}
	if msg.LLMText != "You said: hi" {
		t.Errorf("Expected llm_text 'You said: hi', got %q", msg.LLMText)
	}

	audio, err := base64.StdEncoding.DecodeString(msg.AudioData)
	if err != nil {
		t.Fatalf("audio_data is not valid base64: %v", err)
	}
	if string(audio) != "mock-audio:You said: hi" {
		t.Errorf("Unexpected audio payload %q", audio)
	}
}

func TestRepliesArriveInRequestOrder(t *testing.T) {
	conn := dialTestGateway(t, llm.NewMockLLM(), tts.NewMockTTS())

	sendText(t, conn, "first")
	sendText(t, conn, "second")

	if msg := readFrame(t, conn); msg.LLMText != "You said: first" {
		t.Errorf("Expected reply to 'first', got %q", msg.LLMText)
	}
	if msg := readFrame(t, conn); msg.LLMText != "You said: second" {
		t.Errorf("Expected reply to 'second', got %q", msg.LLMText)
	}
}

func TestInvalidJSONGetsErrorFrame(t *testing.T) {
	conn := dialTestGateway(t, llm.NewMockLLM(), tts.NewMockTTS())

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("Failed to send frame: %v", err)
	}

	msg := readFrame(t, conn)
	if msg.Type != domain.MessageTypeError {
		t.Fatalf("Expected error frame, got type %q", msg.Type)
	}
	if msg.ErrorMessage != "Invalid message format" {
		t.Errorf("Unexpected error message %q", msg.ErrorMessage)
	}

	// The connection survives the bad frame.
	sendText(t, conn, "still here")
	if msg := readFrame(t, conn); msg.Type != domain.MessageTypeAudio {
		t.Errorf("Expected audio reply after error, got type %q", msg.Type)
	}
}

func TestErrorFrameCarriesEmptyLLMText(t *testing.T) {
	conn := dialTestGateway(t, llm.NewMockLLM(), tts.NewMockTTS())

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("Failed to send frame: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("Malformed frame %q: %v", payload, err)
	}
	text, present := raw["llm_text"]
	if !present {
		t.Fatalf("Expected llm_text field on error frames, got %q", payload)
	}
	if text != "" {
		t.Errorf("Expected empty llm_text on error frames, got %v", text)
	}
}

func TestTextLengthBounds(t *testing.T) {
	conn := dialTestGateway(t, llm.NewMockLLM(), tts.NewMockTTS())

	sendText(t, conn, "")
	if msg := readFrame(t, conn); msg.Type != domain.MessageTypeError {
		t.Errorf("Expected error frame for empty text, got type %q", msg.Type)
	}

	sendText(t, conn, strings.Repeat("a", 2001))
	if msg := readFrame(t, conn); msg.Type != domain.MessageTypeError {
		t.Errorf("Expected error frame for oversize text, got type %q", msg.Type)
	}

	// 2000 characters is the inclusive maximum.
	sendText(t, conn, strings.Repeat("a", 2000))
	if msg := readFrame(t, conn); msg.Type != domain.MessageTypeAudio {
		t.Errorf("Expected audio reply at the length limit, got type %q", msg.Type)
	}
}

func TestPipelineFailureGetsErrorFrame(t *testing.T) {
	model := llm.NewMockLLM()
	model.Err = errors.New("model unavailable")
	conn := dialTestGateway(t, model, tts.NewMockTTS())

	sendText(t, conn, "hi")

	msg := readFrame(t, conn)
	if msg.Type != domain.MessageTypeError {
		t.Fatalf("Expected error frame, got type %q", msg.Type)
	}
	if !strings.HasPrefix(msg.ErrorMessage, "Processing error: ") {
		t.Errorf("Unexpected error message %q", msg.ErrorMessage)
	}

	// Still usable once the model recovers.
	model.Err = nil
	sendText(t, conn, "hi again")
	if msg := readFrame(t, conn); msg.Type != domain.MessageTypeAudio {
		t.Errorf("Expected audio reply after recovery, got type %q", msg.Type)
	}
}
