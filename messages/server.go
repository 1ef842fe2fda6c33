package messages

// Error codes
const (
	ErrCodeInvalidMessage   = "INVALID_MESSAGE"
	ErrCodeGeminiError      = "GEMINI_ERROR"
	ErrCodeSessionFailed    = "SESSION_FAILED"
	ErrCodeConnectionClosed = "CONNECTION_CLOSED"
	ErrCodeBufferFull       = "BUFFER_FULL"
)

// Message types
const (
	TypeAudio      = "audio"
	TypeTranscript = "transcript"
	TypeStatus     = "status"
	TypeError      = "error"
)

// Status values carried by StatusPayload
const (
	StatusConnected    = "connected"
	StatusConnecting   = "connecting"
	StatusListening    = "listening"
	StatusInterrupted  = "interrupted"
	StatusTurnComplete = "turn_complete"
	StatusDisconnected = "disconnected"
	StatusPong         = "pong"
)

// ServerMessage represents a message sent to the frontend client
type ServerMessage struct {
	Type      string      `json:"type"` // "audio", "transcript", "status", "error"
	SessionID string      `json:"sessionId,omitempty"`
	Payload   interface{} `json:"payload"`
}

// AudioResponsePayload contains one scheduled playback chunk. StartAt and
// Duration are seconds on the session playback clock; chaining chunks at
// their StartAt values yields gapless playback.
type AudioResponsePayload struct {
	Data     string  `json:"data"`     // Base64-encoded PCM16 LE mono
	MimeType string  `json:"mimeType"` // "audio/pcm;rate=24000"
	StartAt  float64 `json:"startAt"`
	Duration float64 `json:"duration"`
}

// TranscriptPayload contains one role-tagged transcript entry
type TranscriptPayload struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

// StatusPayload contains status updates
type StatusPayload struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewAudioMessage creates a scheduled audio chunk message
func NewAudioMessage(sessionID, data string, startAt, duration float64) *ServerMessage {
	return &ServerMessage{
		Type:      TypeAudio,
		SessionID: sessionID,
		Payload: AudioResponsePayload{
			Data:     data,
			MimeType: "audio/pcm;rate=24000",
			StartAt:  startAt,
			Duration: duration,
		},
	}
}

// NewTranscriptMessage creates a transcript entry message
func NewTranscriptMessage(sessionID, role, text string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeTranscript,
		SessionID: sessionID,
		Payload: TranscriptPayload{
			Role: role,
			Text: text,
		},
	}
}

// NewStatusMessage creates a status message
func NewStatusMessage(sessionID, status, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeStatus,
		SessionID: sessionID,
		Payload: StatusPayload{
			Status:  status,
			Message: message,
		},
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(sessionID, code, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeError,
		SessionID: sessionID,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
	}
}
