package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	"github.com/wicara-ai/wicara/domain"
	"github.com/wicara-ai/wicara/domain/entities"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// startGateway runs an in-process websocket endpoint and hands each accepted
// connection to serve. It returns the ws:// URL and a dial counter.
func startGateway(t *testing.T, serve func(conn *websocket.Conn)) (string, *atomic.Int64) {
	t.Helper()
	var dials atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serve(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), &dials
}

// holdOpen keeps the server side of a connection alive until the peer closes.
func holdOpen(conn *websocket.Conn) {
	defer conn.Close()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func nextEvent(t *testing.T, m *Manager) Event {
	t.Helper()
	select {
	case ev, ok := <-m.Events():
		if !ok {
			t.Fatal("Event stream closed unexpectedly")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for an event")
	}
	return Event{}
}

func expectStatus(t *testing.T, m *Manager, want entities.ConnectionState) {
	t.Helper()
	ev := nextEvent(t, m)
	if ev.Type != EventStatus {
		t.Fatalf("Expected a status event, got %+v", ev)
	}
	if ev.State != want {
		t.Fatalf("Expected state %q, got %q", want, ev.State)
	}
}

func TestConnectEmitsConnectingThenConnected(t *testing.T) {
	url, _ := startGateway(t, holdOpen)
	m := NewManager(url, zaptest.NewLogger(t))
	defer m.Close()

	m.Connect()

	expectStatus(t, m, entities.ConnectionConnecting)
	expectStatus(t, m, entities.ConnectionConnected)
	if m.State() != entities.ConnectionConnected {
		t.Errorf("Expected state %q, got %q", entities.ConnectionConnected, m.State())
	}
}

func TestSendDeliversSingleFrame(t *testing.T) {
	received := make(chan []byte, 8)
	url, _ := startGateway(t, func(conn *websocket.Conn) {
		defer conn.Close()
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- payload
		}
	})
	m := NewManager(url, zaptest.NewLogger(t))
	defer m.Close()

	m.Connect()
	expectStatus(t, m, entities.ConnectionConnecting)
	expectStatus(t, m, entities.ConnectionConnected)

	if err := m.Send(domain.ClientMessage{Text: "hello"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case payload := <-received:
		var msg domain.ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("Server received malformed frame %q: %v", payload, err)
		}
		if msg.Text != "hello" {
			t.Errorf("Expected text 'hello', got %q", msg.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Server never received the frame")
	}

	select {
	case payload := <-received:
		t.Fatalf("Expected exactly one frame, also got %q", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSendWhileDisconnectedDropsAndReconnectsOnce(t *testing.T) {
	received := make(chan []byte, 8)
	url, dials := startGateway(t, func(conn *websocket.Conn) {
		defer conn.Close()
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- payload
		}
	})
	m := NewManager(url, zaptest.NewLogger(t))
	defer m.Close()

	err := m.Send(domain.ClientMessage{Text: "hello"})
	if err != ErrNotConnected {
		t.Fatalf("Expected ErrNotConnected, got %v", err)
	}

	// The dropped send kicks off a single reconnect attempt.
	expectStatus(t, m, entities.ConnectionConnecting)
	expectStatus(t, m, entities.ConnectionConnected)
	if got := dials.Load(); got != 1 {
		t.Errorf("Expected exactly 1 dial, got %d", got)
	}

	// The message itself is gone, not queued for retransmission.
	select {
	case payload := <-received:
		t.Fatalf("Dropped message was transmitted anyway: %q", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestInboundFramesArriveInOrder(t *testing.T) {
	url, _ := startGateway(t, func(conn *websocket.Conn) {
		defer conn.Close()
		for _, frame := range []string{"one", "two", "three"} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		holdOpen(conn)
	})
	m := NewManager(url, zaptest.NewLogger(t))
	defer m.Close()

	m.Connect()
	expectStatus(t, m, entities.ConnectionConnecting)
	expectStatus(t, m, entities.ConnectionConnected)

	for _, want := range []string{"one", "two", "three"} {
		ev := nextEvent(t, m)
		if ev.Type != EventMessage {
			t.Fatalf("Expected a message event, got %+v", ev)
		}
		if string(ev.Payload) != want {
			t.Errorf("Expected payload %q, got %q", want, ev.Payload)
		}
	}
}

func TestReconnectSilencesReplacedConnection(t *testing.T) {
	url, dials := startGateway(t, holdOpen)
	m := NewManager(url, zaptest.NewLogger(t))
	defer m.Close()

	m.Connect()
	expectStatus(t, m, entities.ConnectionConnecting)
	expectStatus(t, m, entities.ConnectionConnected)

	m.Connect()
	expectStatus(t, m, entities.ConnectionConnecting)
	expectStatus(t, m, entities.ConnectionConnected)
	if got := dials.Load(); got != 2 {
		t.Errorf("Expected 2 dials, got %d", got)
	}

	// The replaced connection's teardown must not surface as events or
	// disturb the state of its successor.
	select {
	case ev := <-m.Events():
		t.Fatalf("Unexpected event from the replaced connection: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
	if m.State() != entities.ConnectionConnected {
		t.Errorf("Expected state %q, got %q", entities.ConnectionConnected, m.State())
	}
}

func TestStatusEventsSurviveBacklog(t *testing.T) {
	const frames = eventBuffer + 50
	url, _ := startGateway(t, func(conn *websocket.Conn) {
		for i := 0; i < frames; i++ {
			if err := conn.WriteMessage(websocket.TextMessage, []byte("frame")); err != nil {
				return
			}
		}
		conn.UnderlyingConn().Close()
	})
	m := NewManager(url, zaptest.NewLogger(t))
	defer m.Close()

	m.Connect()
	expectStatus(t, m, entities.ConnectionConnecting)
	expectStatus(t, m, entities.ConnectionConnected)

	// Let the pump overflow the event buffer before consuming anything.
	// State() tracks transitions regardless of the buffer.
	deadline := time.Now().Add(2 * time.Second)
	for m.State() != entities.ConnectionDisconnected {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for the connection to settle")
		}
		time.Sleep(10 * time.Millisecond)
	}

	sawErrored, sawDisconnected := false, false
	draining := true
	for draining {
		select {
		case ev := <-m.Events():
			if ev.Type != EventStatus {
				continue
			}
			switch ev.State {
			case entities.ConnectionErrored:
				sawErrored = true
			case entities.ConnectionDisconnected:
				sawDisconnected = true
			}
		default:
			draining = false
		}
	}
	if !sawErrored || !sawDisconnected {
		t.Errorf("Expected status transitions to survive the backlog (errored=%v, disconnected=%v)",
			sawErrored, sawDisconnected)
	}
}

func TestDialFailureEmitsErrored(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	m := NewManager(url, zaptest.NewLogger(t))
	defer m.Close()

	m.Connect()
	expectStatus(t, m, entities.ConnectionConnecting)
	expectStatus(t, m, entities.ConnectionErrored)
}

func TestAbruptCloseEmitsErroredThenDisconnected(t *testing.T) {
	url, _ := startGateway(t, func(conn *websocket.Conn) {
		// Tear down the TCP stream without a close handshake.
		conn.UnderlyingConn().Close()
	})
	m := NewManager(url, zaptest.NewLogger(t))
	defer m.Close()

	m.Connect()
	expectStatus(t, m, entities.ConnectionConnecting)
	expectStatus(t, m, entities.ConnectionConnected)
	expectStatus(t, m, entities.ConnectionErrored)
	expectStatus(t, m, entities.ConnectionDisconnected)
}

func TestNormalCloseEmitsDisconnectedOnly(t *testing.T) {
	url, _ := startGateway(t, func(conn *websocket.Conn) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	m := NewManager(url, zaptest.NewLogger(t))
	defer m.Close()

	m.Connect()
	expectStatus(t, m, entities.ConnectionConnecting)
	expectStatus(t, m, entities.ConnectionConnected)
	expectStatus(t, m, entities.ConnectionDisconnected)
}

func TestCloseIsFinal(t *testing.T) {
	url, _ := startGateway(t, holdOpen)
	m := NewManager(url, zaptest.NewLogger(t))

	m.Connect()
	expectStatus(t, m, entities.ConnectionConnecting)
	expectStatus(t, m, entities.ConnectionConnected)

	m.Close()
	m.Close() // idempotent

	for ev := range m.Events() {
		_ = ev // drain whatever was buffered; the channel must end
	}

	if err := m.Send(domain.ClientMessage{Text: "hello"}); err != ErrNotConnected {
		t.Errorf("Expected ErrNotConnected after Close, got %v", err)
	}
}
