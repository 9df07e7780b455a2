package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/wicara-ai/wicara/domain"
	"github.com/wicara-ai/wicara/domain/entities"
	"github.com/wicara-ai/wicara/domain/repositories"
	"github.com/wicara-ai/wicara/internal/playback"
	ws "github.com/wicara-ai/wicara/internal/websocket"
)

// Connection is the slice of the connection manager the coordinator drives.
// Reconnection on a failed send is the manager's job, so the coordinator
// only ever sends and consumes events.
type Connection interface {
	Send(msg domain.ClientMessage) error
	Events() <-chan ws.Event
}

// View receives transcript and UI state changes. Calls arrive on the
// coordinator's control loop, one at a time.
type View interface {
	TranscriptChanged(entries []entities.TranscriptEntry)
	UIStateChanged(state entities.UIState)
}

// Coordinator orchestrates user submissions, connection events, and audio
// playback, and derives the UI-facing state.
//
// Everything runs on one control loop: connection events, completion
// callbacks, and submissions are delivered as discrete non-overlapping
// tasks, so the fields below need no locking.
type Coordinator struct {
	conn   Connection
	player *playback.Controller
	view   View
	logger *zap.Logger

	tasks chan func()

	transcript entities.Transcript
	status     string

	// controlsEnabled latches on Connected and unlatches on Connecting or
	// Disconnected. An Errored transition alone leaves it untouched; that
	// mirrors the original client, quirk and all.
	controlsEnabled bool

	// awaitingReply is true between an accepted submit and the next
	// inbound frame of any kind.
	awaitingReply bool
}

// NewCoordinator wires a coordinator to a connection, a speaker, and a view.
func NewCoordinator(conn Connection, speaker repositories.Speaker, view View, logger *zap.Logger) *Coordinator {
	c := &Coordinator{
		conn:   conn,
		view:   view,
		logger: logger,
		tasks:  make(chan func(), 64),
		status: entities.StatusDisconnected,
	}
	c.player = playback.NewController(speaker, c.dispatch, logger)
	return c
}

// Run drives the control loop until ctx is cancelled or the connection's
// event stream closes.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-c.tasks:
			fn()
		case ev, ok := <-c.conn.Events():
			if !ok {
				return
			}
			c.handleEvent(ev)
		}
	}
}

// Submit hands a line of user input to the control loop. Fire and forget:
// acceptance, transmission, and failure all surface through the view.
func (c *Coordinator) Submit(text string) {
	c.dispatch(func() { c.submit(text) })
}

func (c *Coordinator) dispatch(fn func()) {
	c.tasks <- fn
}

// submit implements the send path: a new user utterance always interrupts
// assistant speech, appends a transcript row plus an awaiting-reply
// placeholder, and transmits exactly one frame. Blank input is a no-op.
func (c *Coordinator) submit(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	c.player.Stop()

	c.transcript.Append(entities.UserEntry(text))
	c.transcript.Append(entities.PlaceholderEntry())
	c.awaitingReply = true
	c.notifyTranscript()
	c.notifyUI()

	if err := c.conn.Send(domain.ClientMessage{Text: text}); err != nil {
		// The message is gone; the manager already kicked off a reconnect.
		// Placeholder and disabled send stay until the next inbound frame
		// or a fresh submit.
		c.logger.Warn("Message not delivered", zap.Error(err))
		c.status = entities.StatusReconnecting
		c.notifyUI()
	}
}

func (c *Coordinator) handleEvent(ev ws.Event) {
	switch ev.Type {
	case ws.EventStatus:
		c.projectState(ev.State)
	case ws.EventMessage:
		c.handleInbound(ev.Payload)
	}
}

// projectState folds a connection transition into the UI state. Errored
// updates only the status text; control enablement is governed solely by
// the other transitions.
func (c *Coordinator) projectState(state entities.ConnectionState) {
	c.status = state.StatusText()
	switch state {
	case entities.ConnectionConnecting, entities.ConnectionDisconnected:
		c.controlsEnabled = false
	case entities.ConnectionConnected:
		c.controlsEnabled = true
	}
	c.notifyUI()
}

// handleInbound processes one inbound frame. Placeholder cleanup and send
// re-enablement happen for every frame, malformed ones included; only the
// audio variant adds a transcript row and starts playback.
func (c *Coordinator) handleInbound(raw []byte) {
	c.transcript.RemoveLastPlaceholder()
	c.awaitingReply = false

	var msg domain.ServerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Warn("Discarding malformed inbound frame", zap.Error(err))
		c.notifyTranscript()
		c.notifyUI()
		return
	}

	if msg.Type != domain.MessageTypeAudio {
		c.logger.Debug("Ignoring inbound frame", zap.String("type", msg.Type))
		c.notifyTranscript()
		c.notifyUI()
		return
	}

	c.transcript.Append(entities.AssistantEntry(msg.LLMText))

	audio, err := base64.StdEncoding.DecodeString(msg.AudioData)
	if err != nil {
		c.logger.Warn("Audio payload is not valid base64", zap.Error(err))
		audio = nil
	}
	// Play interrupts the previous playback even when the payload is
	// unplayable, so the interruption contract holds either way.
	c.player.Play(audio)

	c.notifyTranscript()
	c.notifyUI()
}

func (c *Coordinator) uiState() entities.UIState {
	return entities.UIState{
		StatusText:   c.status,
		InputEnabled: c.controlsEnabled,
		SendEnabled:  c.controlsEnabled && !c.awaitingReply,
	}
}

func (c *Coordinator) notifyTranscript() {
	if c.view != nil {
		c.view.TranscriptChanged(c.transcript.Entries())
	}
}

func (c *Coordinator) notifyUI() {
	if c.view != nil {
		c.view.UIStateChanged(c.uiState())
	}
}
