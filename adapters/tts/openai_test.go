package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestOpenAISynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got %q", got)
		}

		var req speechRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		if req.Input != "hello world" {
			t.Errorf("Expected input 'hello world', got %q", req.Input)
		}
		if req.Model != defaultOpenAIModel || req.Voice != defaultOpenAIVoice {
			t.Errorf("Expected default model and voice, got %q/%q", req.Model, req.Voice)
		}
		if req.ResponseFormat != "mp3" {
			t.Errorf("Expected mp3 response format, got %q", req.ResponseFormat)
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	o, err := NewOpenAITTS(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}

	audio, err := o.Synthesize(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Errorf("Unexpected audio payload %q", audio)
	}
}

func TestOpenAISynthesizeRequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAITTS(OpenAIConfig{}, zaptest.NewLogger(t)); err == nil {
		t.Error("Expected an error without an API key")
	}
}

func TestOpenAISynthesizeEmptyText(t *testing.T) {
	o, err := NewOpenAITTS(OpenAIConfig{APIKey: "test-key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}

	if _, err := o.Synthesize(context.Background(), ""); err == nil {
		t.Error("Expected an error for empty text")
	}
}

func TestOpenAISynthesizeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	o, err := NewOpenAITTS(OpenAIConfig{APIKey: "bad-key", BaseURL: srv.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}

	if _, err := o.Synthesize(context.Background(), "hello"); err == nil {
		t.Error("Expected an error for a non-200 response")
	}
}
