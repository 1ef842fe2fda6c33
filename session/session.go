package session

import (
	"context"
	"encoding/base64"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"aria-studio/audio"
	"aria-studio/gemini"
	"aria-studio/messages"
)

const (
	writeBufferSize = 256
	writeTimeout    = 10 * time.Second
)

// State of the live view. Exactly one holds at any time; the stream handle
// is non-nil iff the state is Active.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateActive
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	default:
		return "idle"
	}
}

// LiveStream is the outbound half of one bidirectional live session.
// *gemini.LiveProxy satisfies it.
type LiveStream interface {
	SendAudio(pcm []byte) error
	Close() error
}

// DialFunc opens a live stream and registers callbacks for its events.
type DialFunc func(ctx context.Context, cb gemini.LiveCallbacks) (LiveStream, error)

// LiveSession represents a single user's live voice connection. It owns the
// state machine Idle -> Connecting -> Active -> Idle, the transcript, and
// the playback scheduler; nothing else touches them.
type LiveSession struct {
	ID         string
	ClientConn *websocket.Conn
	CreatedAt  time.Time

	dial       DialFunc
	pending    *AudioBuffer
	transcript *Transcript
	sched      *audio.Scheduler

	// Use channels for non-blocking writes
	writeChan chan any
	CloseChan chan struct{}

	mu           sync.Mutex
	state        State
	stream       LiveStream
	lastActivity time.Time
	closed       bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewLiveSession creates a session in the Idle state. The live stream is
// not opened until the client sends the start control.
func NewLiveSession(id string, clientConn *websocket.Conn, dial DialFunc, maxBufferSize int) *LiveSession {
	ctx, cancel := context.WithCancel(context.Background())

	return &LiveSession{
		ID:           id,
		ClientConn:   clientConn,
		CreatedAt:    time.Now(),
		dial:         dial,
		pending:      NewAudioBuffer(maxBufferSize),
		transcript:   &Transcript{},
		sched:        audio.NewScheduler(),
		writeChan:    make(chan any, writeBufferSize),
		CloseChan:    make(chan struct{}),
		lastActivity: time.Now(),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start begins the bidirectional message handling.
func (s *LiveSession) Start() {
	// Configure WebSocket for audio traffic
	s.ClientConn.SetReadLimit(512 * 1024) // 512KB max message
	s.ClientConn.EnableWriteCompression(true)
	_ = s.ClientConn.SetCompressionLevel(6)

	go s.writePump()
	s.queueMessage(messages.NewStatusMessage(s.ID, messages.StatusConnected, "Session established"))
	go s.handleClientMessages()
}

// State returns the current live state.
func (s *LiveSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns the session's transcript.
func (s *LiveSession) Transcript() *Transcript {
	return s.transcript
}

// LastActivity returns the time of the last client or model event.
func (s *LiveSession) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *LiveSession) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// StartLive opens the live stream: Idle -> Connecting -> Active. A start
// issued while connecting or active is rejected without side effects.
func (s *LiveSession) StartLive() {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		s.queueMessage(messages.NewStatusMessage(s.ID, state.String(), "Live session already started"))
		return
	}
	s.state = StateConnecting
	s.mu.Unlock()

	s.queueMessage(messages.NewStatusMessage(s.ID, messages.StatusConnecting, ""))

	stream, err := s.dial(s.ctx, gemini.LiveCallbacks{
		OnAudio:            s.handleModelAudio,
		OnInputTranscript:  func(text string) { s.appendTranscript(RoleUser, text) },
		OnOutputTranscript: func(text string) { s.appendTranscript(RoleModel, text) },
		OnInterrupted:      s.handleInterrupted,
		OnTurnComplete:     s.handleTurnComplete,
		OnClosed:           s.handleRemoteClose,
	})
	if err != nil {
		log.Printf("❌ [%s] Live connect failed: %v", s.shortID(), err)
		s.mu.Lock()
		s.state = StateIdle
		s.pending.Clear()
		s.mu.Unlock()
		s.queueMessage(messages.NewErrorMessage(s.ID, messages.ErrCodeSessionFailed, err.Error()))
		return
	}

	s.mu.Lock()
	if s.closed || s.state != StateConnecting {
		// Stopped or torn down while the connect was in flight.
		s.mu.Unlock()
		_ = stream.Close()
		return
	}
	s.stream = stream
	s.state = StateActive
	s.mu.Unlock()

	// Forward any audio captured while connecting.
	if buffered := s.pending.Flush(); len(buffered) > 0 {
		if err := stream.SendAudio(buffered); err != nil {
			log.Printf("❌ [%s] Failed to flush buffered audio: %v", s.shortID(), err)
		}
	}

	log.Printf("🎙️ [%s] Live session active", s.shortID())
	s.queueMessage(messages.NewStatusMessage(s.ID, messages.StatusListening, ""))
}

// StopLive tears the live stream down from any state: close the stream,
// stop and flush all scheduled playback, clear pending audio, return to
// Idle. Idempotent; calling it with no stream is a no-op.
func (s *LiveSession) StopLive() {
	s.mu.Lock()
	stream := s.stream
	wasIdle := s.state == StateIdle
	s.stream = nil
	s.state = StateIdle
	s.mu.Unlock()

	s.pending.Clear()
	s.sched.Stop()
	s.transcript.Clear()

	if stream != nil {
		_ = stream.Close()
	}
	if !wasIdle {
		log.Printf("🔌 [%s] Live session stopped", s.shortID())
		s.queueMessage(messages.NewStatusMessage(s.ID, messages.StatusDisconnected, ""))
	}
}

// handleModelAudio schedules one returned audio chunk for gapless playback
// and forwards it to the client stamped with its start time.
func (s *LiveSession) handleModelAudio(pcm []byte) {
	if s.State() != StateActive {
		return
	}
	s.touch()

	duration := audio.Duration(len(pcm), audio.OutputSampleRate)
	startAt := s.sched.Schedule(duration)
	encoded := base64.StdEncoding.EncodeToString(pcm)
	s.queueMessage(messages.NewAudioMessage(s.ID, encoded, startAt, duration))
}

// appendTranscript records one transcription fragment in observation order.
func (s *LiveSession) appendTranscript(role, text string) {
	if s.State() != StateActive {
		return
	}
	s.touch()

	s.transcript.Append(role, text)
	s.queueMessage(messages.NewTranscriptMessage(s.ID, role, text))
}

// handleInterrupted implements barge-in: discard all scheduled playback and
// tell the client to cut its audio immediately.
func (s *LiveSession) handleInterrupted() {
	if s.State() != StateActive {
		return
	}

	dropped := s.sched.Interrupt()
	log.Printf("✋ [%s] Interrupted, dropped %d scheduled chunk(s)", s.shortID(), dropped)
	s.queueMessage(messages.NewStatusMessage(s.ID, messages.StatusInterrupted, ""))
}

func (s *LiveSession) handleTurnComplete() {
	if s.State() != StateActive {
		return
	}
	s.queueMessage(messages.NewStatusMessage(s.ID, messages.StatusTurnComplete, ""))
}

// handleRemoteClose tears down when the model side closes or errors.
func (s *LiveSession) handleRemoteClose(err error) {
	if err != nil {
		log.Printf("❌ [%s] Live stream error: %v", s.shortID(), err)
		s.queueMessage(messages.NewErrorMessage(s.ID, messages.ErrCodeGeminiError, err.Error()))
	}
	s.StopLive()
}

// handleClientAudio routes one captured chunk by state: forwarded while
// Active, buffered while Connecting, dropped while Idle.
func (s *LiveSession) handleClientAudio(data []byte) {
	s.touch()

	s.mu.Lock()
	state := s.state
	stream := s.stream
	s.mu.Unlock()

	switch state {
	case StateActive:
		if err := stream.SendAudio(data); err != nil {
			log.Printf("❌ [%s] Failed to send audio: %v", s.shortID(), err)
			s.queueMessage(messages.NewErrorMessage(s.ID, messages.ErrCodeGeminiError, err.Error()))
		}
	case StateConnecting:
		if err := s.pending.Append(data); err != nil {
			s.queueMessage(messages.NewErrorMessage(s.ID, messages.ErrCodeBufferFull, err.Error()))
		}
	default:
		// Not started: drop.
	}
}

// writePump handles all outgoing messages in a single goroutine
func (s *LiveSession) writePump() {
	defer func() {
		_ = s.ClientConn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_ = s.ClientConn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
	}()

	for {
		select {
		case <-s.CloseChan:
			return
		case msg, ok := <-s.writeChan:
			if !ok {
				return
			}
			if err := s.writeMessage(msg); err != nil {
				return
			}

			// Drain whatever queued up behind this message.
			n := len(s.writeChan)
			for i := 0; i < n; i++ {
				msg, ok := <-s.writeChan
				if !ok {
					return
				}
				if err := s.writeMessage(msg); err != nil {
					return
				}
			}
		}
	}
}

func (s *LiveSession) writeMessage(msg any) error {
	data, err := messages.Marshal(msg)
	if err != nil {
		log.Printf("❌ [%s] Failed to encode message: %v", s.shortID(), err)
		return nil
	}
	_ = s.ClientConn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.ClientConn.WriteMessage(websocket.TextMessage, data)
}

// queueMessage adds a message to the write queue (non-blocking)
func (s *LiveSession) queueMessage(msg any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.writeChan <- msg:
	default:
		// Queue full, drop message (shouldn't happen with proper sizing)
	}
}

// handleClientMessages reads client frames until the connection drops.
func (s *LiveSession) handleClientMessages() {
	defer s.Close()

	for {
		select {
		case <-s.CloseChan:
			return
		default:
			messageType, message, err := s.ClientConn.ReadMessage()
			if err != nil {
				return
			}

			// Binary frames carry raw PCM capture chunks.
			if messageType == websocket.BinaryMessage {
				s.handleClientAudio(message)
				continue
			}

			var clientMsg messages.ClientMessage
			if err := messages.Unmarshal(message, &clientMsg); err != nil {
				s.queueMessage(messages.NewErrorMessage(s.ID, messages.ErrCodeInvalidMessage, "Invalid message format"))
				continue
			}
			s.processClientMessage(&clientMsg)
		}
	}
}

func (s *LiveSession) processClientMessage(msg *messages.ClientMessage) {
	switch msg.Type {
	case "audio":
		var payload messages.AudioPayload
		if err := messages.Unmarshal(msg.Payload, &payload); err != nil {
			s.queueMessage(messages.NewErrorMessage(s.ID, messages.ErrCodeInvalidMessage, "Invalid audio payload"))
			return
		}
		data, err := base64.StdEncoding.DecodeString(payload.Data)
		if err != nil {
			s.queueMessage(messages.NewErrorMessage(s.ID, messages.ErrCodeInvalidMessage, "Invalid base64 audio data"))
			return
		}
		s.handleClientAudio(data)

	case "control":
		var payload messages.ControlPayload
		if err := messages.Unmarshal(msg.Payload, &payload); err != nil {
			s.queueMessage(messages.NewErrorMessage(s.ID, messages.ErrCodeInvalidMessage, "Invalid control payload"))
			return
		}
		s.handleControlMessage(&payload)

	default:
		s.queueMessage(messages.NewErrorMessage(s.ID, messages.ErrCodeInvalidMessage, "Unknown message type: "+msg.Type))
	}
}

func (s *LiveSession) handleControlMessage(payload *messages.ControlPayload) {
	switch payload.Action {
	case "start":
		s.StartLive()
	case "stop":
		s.StopLive()
	case "ping":
		s.queueMessage(messages.NewStatusMessage(s.ID, messages.StatusPong, ""))
	default:
		s.queueMessage(messages.NewErrorMessage(s.ID, messages.ErrCodeInvalidMessage, "Unknown control action: "+payload.Action))
	}
}

// IsClosed returns whether the session is closed
func (s *LiveSession) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close terminates the session and cleans up resources. Safe to call more
// than once.
func (s *LiveSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	stream := s.stream
	s.stream = nil
	s.state = StateIdle
	s.mu.Unlock()

	s.cancel()

	close(s.writeChan)
	close(s.CloseChan)

	s.pending.Clear()
	s.sched.Stop()
	s.transcript.Clear()

	if stream != nil {
		_ = stream.Close()
	}
	if s.ClientConn != nil {
		_ = s.ClientConn.Close()
	}
	return nil
}

func (s *LiveSession) shortID() string {
	if len(s.ID) >= 8 {
		return s.ID[:8]
	}
	return s.ID
}
