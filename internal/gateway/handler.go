package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wicara-ai/wicara/domain"
	"github.com/wicara-ai/wicara/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Inbound frames are short
	// JSON text messages.
	maxMessageSize = 16 * 1024

	// Text length bounds enforced on inbound messages, in characters.
	minTextLen = 1
	maxTextLen = 2000

	// Per-message budget for the LLM+TTS pipeline.
	replyTimeout = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The gateway is open to any origin, matching its permissive CORS.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades websocket requests and serves the text-in, audio-out
// conversation protocol. The gateway keeps no state between frames: each
// connection is independent and each frame produces exactly one reply.
type Handler struct {
	replies *usecase.ReplyService
	logger  *zap.Logger
}

// NewHandler creates a gateway handler.
func NewHandler(replies *usecase.ReplyService, logger *zap.Logger) *Handler {
	return &Handler{
		replies: replies,
		logger:  logger,
	}
}

// HandleWebSocket upgrades the request and starts the connection's pumps.
func (h *Handler) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &client{
		handler: h,
		conn:    conn,
		send:    make(chan []byte, 16),
		connID:  uuid.NewString(),
		logger:  h.logger,
	}

	client.logger.Info("Connection accepted", zap.String("connID", client.connID))

	go client.writePump()
	go client.readPump()

	return nil
}

// client is one websocket connection served by the gateway.
type client struct {
	handler *Handler
	conn    *websocket.Conn

	// Buffered channel of outbound frames.
	send chan []byte

	connID string
	logger *zap.Logger
}

// readPump reads inbound frames and processes them serially, so replies go
// out in the order the questions came in.
func (c *client) readPump() {
	defer func() {
		close(c.send)
		c.conn.Close()
		c.logger.Info("Connection closed", zap.String("connID", c.connID))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", zap.String("connID", c.connID), zap.Error(err))
			}
			return
		}

		if messageType != websocket.TextMessage {
			c.logger.Warn("Ignoring non-text frame",
				zap.String("connID", c.connID), zap.Int("type", messageType))
			continue
		}

		c.processMessage(message)
	}
}

// writePump writes outbound frames and keeps the connection alive with
// pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Error("Failed to write message",
					zap.String("connID", c.connID), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage validates one inbound frame and replies with either the
// audio response or an error frame. The connection stays open either way.
func (c *client) processMessage(message []byte) {
	var msg domain.ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("Failed to parse message",
			zap.String("connID", c.connID), zap.Error(err))
		c.sendError("Invalid message format")
		return
	}

	if n := utf8.RuneCountInString(msg.Text); n < minTextLen || n > maxTextLen {
		c.logger.Warn("Message text out of bounds",
			zap.String("connID", c.connID), zap.Int("chars", n))
		c.sendError("Invalid message format")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()

	response, err := c.handler.replies.Reply(ctx, msg.Text)
	if err != nil {
		c.logger.Error("Reply pipeline failed",
			zap.String("connID", c.connID), zap.Error(err))
		c.sendError("Processing error: " + err.Error())
		return
	}

	c.enqueue(response)
	c.logger.Info("Audio reply sent", zap.String("connID", c.connID))
}

func (c *client) sendError(errorMessage string) {
	c.enqueue(domain.ServerMessage{
		Type:         domain.MessageTypeError,
		ErrorMessage: errorMessage,
	})
}

func (c *client) enqueue(msg domain.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal response",
			zap.String("connID", c.connID), zap.Error(err))
		return
	}

	select {
	case c.send <- payload:
	default:
		c.logger.Warn("Send buffer full, dropping frame", zap.String("connID", c.connID))
	}
}
