package domain

// Server message types carried in the "type" field of inbound frames.
// The client only acts on "audio"; every other value is ignored.
const (
	MessageTypeAudio = "audio"
	MessageTypeError = "error"
)

// ClientMessage is the single outbound frame shape: one JSON object per
// accepted user submission.
type ClientMessage struct {
	Text string `json:"text"`
}

// ServerMessage is the inbound frame shape. Only Type is guaranteed to be
// present; the remaining fields depend on the variant. LLMText is always
// serialized, empty string included, so error frames carry "llm_text":"".
type ServerMessage struct {
	Type         string `json:"type"`
	LLMText      string `json:"llm_text"`
	AudioData    string `json:"audio_data,omitempty"` // base64 encoded MP3
	ErrorMessage string `json:"error_message,omitempty"`
}
