package messages

import "encoding/json"

// ClientMessage represents a message from the frontend client
type ClientMessage struct {
	Type    string          `json:"type"` // "audio", "control"
	Payload json.RawMessage `json:"payload"`
}

// AudioPayload contains one captured media chunk from the client
type AudioPayload struct {
	Data string `json:"data"` // Base64-encoded PCM16 LE mono @ 16kHz
}

// ControlPayload contains control commands
type ControlPayload struct {
	Action string `json:"action"` // "start", "stop", "ping"
}
