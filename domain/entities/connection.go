package entities

// ConnectionState is the lifecycle state of the single logical connection
// to the gateway. It is owned by the connection manager; every other
// component observes it through state transition events.
type ConnectionState string

const (
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionConnected    ConnectionState = "connected"
	ConnectionErrored      ConnectionState = "errored"
)

// Status texts shown to the user for each transition. StatusReconnecting is
// not a connection state: it is surfaced transiently when a send is dropped
// because the connection was down.
const (
	StatusDisconnected = "Disconnected"
	StatusConnecting   = "Connecting..."
	StatusConnected    = "Connected"
	StatusError        = "Error"
	StatusReconnecting = "Reconnecting..."
)

// StatusText maps a connection state to its user-facing status line.
func (s ConnectionState) StatusText() string {
	switch s {
	case ConnectionConnecting:
		return StatusConnecting
	case ConnectionConnected:
		return StatusConnected
	case ConnectionErrored:
		return StatusError
	default:
		return StatusDisconnected
	}
}

// UIState is a projection of the connection state plus the in-flight-request
// flag. It is derived, never stored independently.
type UIState struct {
	StatusText   string
	InputEnabled bool
	SendEnabled  bool
}
