package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message types matching the server
type ClientMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type AudioPayload struct {
	Data string `json:"data"`
}

type ControlPayload struct {
	Action string `json:"action"`
}

type ServerMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type AudioResponsePayload struct {
	Data     string  `json:"data"`
	MimeType string  `json:"mimeType"`
	StartAt  float64 `json:"startAt"`
	Duration float64 `json:"duration"`
}

type TranscriptPayload struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type StatusPayload struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// AudioPlayer streams 24kHz PCM16 to the speakers via sox. Flush restarts
// the pipe so buffered audio stops immediately when the model is
// interrupted.
type AudioPlayer struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	closed bool
}

func NewAudioPlayer() *AudioPlayer {
	p := &AudioPlayer{}
	if err := p.start(); err != nil {
		log.Println("sox start error:", err)
		return nil
	}
	return p
}

func (p *AudioPlayer) start() error {
	cmd := exec.Command("sox",
		"-t", "raw",
		"-r", "24000",
		"-b", "16",
		"-c", "1",
		"-e", "signed-integer",
		"-",
		"-d",
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	p.cmd = cmd
	p.stdin = stdin
	return nil
}

func (p *AudioPlayer) Play(audioData []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.stdin == nil {
		return
	}
	p.stdin.Write(audioData)
}

// Flush drops whatever sox has buffered by restarting the pipeline.
func (p *AudioPlayer) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.stdin != nil {
		p.stdin.Close()
	}
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
		p.cmd.Wait()
	}
	if err := p.start(); err != nil {
		log.Println("sox restart error:", err)
	}
}

func (p *AudioPlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.stdin != nil {
		p.stdin.Close()
	}
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Wait()
	}
}

func sendControl(conn *websocket.Conn, action string) error {
	msg := ClientMessage{Type: "control", Payload: ControlPayload{Action: action}}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func sendAudio(conn *websocket.Conn, chunk []byte) error {
	msg := ClientMessage{
		Type:    "audio",
		Payload: AudioPayload{Data: base64.StdEncoding.EncodeToString(chunk)},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func main() {
	serverURL := flag.String("server", "ws://localhost:8080/ws", "WebSocket server URL")
	audioFile := flag.String("file", "examples/user.pcm", "Audio file to send (PCM or WAV, 16kHz mono)")
	flag.Parse()

	log.Printf("🔌 Connecting to %s...", *serverURL)

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	log.Println("✅ Connected!")

	player := NewAudioPlayer()
	if player == nil {
		log.Fatal("Failed to create audio player (is sox installed?)")
	}
	defer player.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	listening := make(chan struct{})
	var listeningOnce sync.Once

	// Read responses from server
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}

			var msg ServerMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				log.Println("Parse error:", err)
				continue
			}

			switch msg.Type {
			case "audio":
				var payload AudioResponsePayload
				json.Unmarshal(msg.Payload, &payload)
				audioBytes, err := base64.StdEncoding.DecodeString(payload.Data)
				if err == nil {
					log.Printf("🔊 Playing chunk: %d bytes (start %.2fs, %.2fs long)",
						len(audioBytes), payload.StartAt, payload.Duration)
					player.Play(audioBytes)
				}

			case "transcript":
				var payload TranscriptPayload
				json.Unmarshal(msg.Payload, &payload)
				fmt.Printf("📝 [%s] %s\n", payload.Role, payload.Text)

			case "status":
				var payload StatusPayload
				json.Unmarshal(msg.Payload, &payload)
				log.Printf("📊 Status: %s %s", payload.Status, payload.Message)
				switch payload.Status {
				case "listening":
					listeningOnce.Do(func() { close(listening) })
				case "interrupted":
					log.Println("✂️  Interrupted, flushing playback")
					player.Flush()
				case "turn_complete":
					log.Println("--- Turn complete ---")
				}

			case "error":
				log.Printf("❌ Error: %s", string(msg.Payload))
			}
		}
	}()

	// Start the live connection and wait until it is active.
	if err := sendControl(conn, "start"); err != nil {
		log.Fatalf("Failed to send start: %v", err)
	}
	select {
	case <-listening:
	case <-done:
		log.Fatal("Connection closed before session became active")
	case <-time.After(15 * time.Second):
		log.Fatal("Timed out waiting for session to become active")
	}

	log.Printf("📤 Sending audio file: %s", *audioFile)

	audioData, err := loadAudioFile(*audioFile)
	if err != nil {
		log.Fatalf("Failed to load audio: %v", err)
	}

	// Send audio in chunks, pacing like a live microphone.
	chunkSize := 3200 // 100ms at 16kHz
	for i := 0; i < len(audioData); i += chunkSize {
		end := i + chunkSize
		if end > len(audioData) {
			end = len(audioData)
		}
		if err := sendAudio(conn, audioData[i:end]); err != nil {
			log.Printf("Send error: %v", err)
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	log.Println("✅ Audio sent, waiting for response...")

	select {
	case <-done:
		log.Println("Connection closed")
	case <-interrupt:
		log.Println("\n👋 Interrupted, closing...")
		sendControl(conn, "stop")
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case <-time.After(60 * time.Second):
		log.Println("⏰ Timeout waiting for response")
	}
}

// loadAudioFile loads PCM or WAV file and returns raw PCM bytes
func loadAudioFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Check if it's a WAV file (starts with "RIFF")
	if len(data) > 44 && string(data[0:4]) == "RIFF" {
		// Skip WAV header (44 bytes for standard WAV)
		log.Println("📁 Detected WAV file, skipping header")
		return data[44:], nil
	}

	// Assume raw PCM
	log.Println("📁 Detected raw PCM file")
	return data, nil
}
