package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wicara-ai/wicara/domain"
	"github.com/wicara-ai/wicara/domain/entities"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed for the opening handshake to complete.
	handshakeTimeout = 10 * time.Second

	// Maximum message size allowed from the peer. Audio replies arrive as
	// base64 MP3 inside a single text frame, so this is generous.
	maxMessageSize = 4 * 1024 * 1024

	// Buffered events between the transport and the control loop.
	eventBuffer = 256
)

// ErrNotConnected is returned by Send when no connection is open. The
// message is dropped, not queued; the caller must resubmit once connected.
var ErrNotConnected = errors.New("websocket: not connected")

// EventType discriminates manager events.
type EventType string

const (
	// EventStatus reports a connection state transition.
	EventStatus EventType = "status"

	// EventMessage carries one inbound text frame, in arrival order.
	EventMessage EventType = "message"
)

// Event is a single item on the manager's event stream. Events are emitted
// in the order the underlying transport produced them and are meant to be
// consumed by one control loop.
type Event struct {
	Type    EventType
	State   entities.ConnectionState
	Payload []byte
}

// Manager owns the single logical connection to the gateway. Connect and
// Send never block on the network longer than the write deadline; results
// are delivered through the event stream.
//
// Reconnecting replaces the physical connection. Goroutines serving a
// replaced connection are fenced off by a generation counter so their late
// errors never show up as events for the current connection.
type Manager struct {
	url    string
	logger *zap.Logger
	events chan Event

	mu     sync.Mutex
	conn   *websocket.Conn
	state  entities.ConnectionState
	gen    int
	closed bool
}

// NewManager creates a manager for the given ws:// or wss:// endpoint.
// The manager starts Disconnected; nothing is dialed until Connect.
func NewManager(url string, logger *zap.Logger) *Manager {
	return &Manager{
		url:    url,
		logger: logger,
		events: make(chan Event, eventBuffer),
		state:  entities.ConnectionDisconnected,
	}
}

// Events returns the manager's event stream. The channel is closed by Close.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// State returns the current connection state.
func (m *Manager) State() entities.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect establishes a fresh connection, closing any existing one first.
// It returns immediately; the Connected or Errored transition arrives as a
// status event once the dial settles.
func (m *Manager) Connect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.connectLocked()
}

// Send transmits one outbound message. If no connection is open the message
// is dropped, a single reconnect attempt starts, and ErrNotConnected is
// returned.
func (m *Manager) Send(msg domain.ClientMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrNotConnected
	}

	if m.state != entities.ConnectionConnected || m.conn == nil {
		m.logger.Warn("Send while not connected, dropping message and reconnecting",
			zap.String("state", string(m.state)))
		m.connectLocked()
		return ErrNotConnected
	}

	m.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := m.conn.WriteJSON(msg); err != nil {
		m.logger.Error("Failed to write message", zap.Error(err))
		m.closeConnLocked()
		m.setStateLocked(entities.ConnectionErrored)
		return err
	}
	return nil
}

// Close shuts the manager down for good and closes the event stream.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	if m.conn != nil {
		m.closeConnLocked()
	}
	close(m.events)
}

func (m *Manager) connectLocked() {
	if m.conn != nil {
		m.closeConnLocked()
	}
	m.gen++
	m.setStateLocked(entities.ConnectionConnecting)
	go m.dial(m.gen)
}

// closeConnLocked closes the physical connection and bumps the generation
// so its pump goroutine stops emitting. Closing an already torn down
// connection is a no-op.
func (m *Manager) closeConnLocked() {
	m.gen++
	m.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	m.conn.Close()
	m.conn = nil
}

func (m *Manager) dial(gen int) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.Dial(m.url, nil)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.closed {
		if err == nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		m.logger.Error("Dial failed", zap.String("url", m.url), zap.Error(err))
		m.setStateLocked(entities.ConnectionErrored)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	m.conn = conn
	m.setStateLocked(entities.ConnectionConnected)
	go m.readPump(gen, conn)
}

// readPump pumps inbound frames from the connection onto the event stream.
func (m *Manager) readPump(gen int, conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			if gen != m.gen || m.closed {
				// Superseded by a newer connection; its teardown already
				// produced the relevant transitions.
				m.mu.Unlock()
				return
			}
			m.conn = nil
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				m.logger.Error("Connection dropped", zap.Error(err))
				m.setStateLocked(entities.ConnectionErrored)
			}
			m.setStateLocked(entities.ConnectionDisconnected)
			m.mu.Unlock()
			return
		}

		m.mu.Lock()
		if gen != m.gen || m.closed {
			m.mu.Unlock()
			return
		}
		m.emitLocked(Event{Type: EventMessage, Payload: payload})
		m.mu.Unlock()
	}
}

func (m *Manager) setStateLocked(state entities.ConnectionState) {
	m.state = state
	m.emitLocked(Event{Type: EventStatus, State: state})
}

// emitLocked enqueues an event without blocking. Under backlog, message
// events are dropped; status events instead evict the oldest buffered event,
// so the control loop never misses a state transition.
func (m *Manager) emitLocked(ev Event) {
	select {
	case m.events <- ev:
		return
	default:
	}

	if ev.Type != EventStatus {
		m.logger.Warn("Event buffer full, dropping message event")
		return
	}

	select {
	case dropped := <-m.events:
		m.logger.Warn("Event buffer full, evicting buffered event",
			zap.String("evicted", string(dropped.Type)))
	default:
	}
	select {
	case m.events <- ev:
	default:
	}
}
