package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// LiveCallbacks receive the events of one live session. Nil callbacks are
// skipped. All callbacks fire from the proxy's single receive goroutine.
type LiveCallbacks struct {
	OnAudio            func(pcm []byte) // raw PCM16 LE mono @ 24kHz
	OnInputTranscript  func(text string)
	OnOutputTranscript func(text string)
	OnInterrupted      func()
	OnTurnComplete     func()
	OnClosed           func(err error) // remote close or receive error
}

// LiveProxy manages one bidirectional live session over the SDK.
type LiveProxy struct {
	session *genai.Session
	cb      LiveCallbacks

	mu     sync.RWMutex
	closed bool
}

// DialLive connects a live session configured for audio responses with
// input and output transcription, and starts the receive loop.
func (c *Client) DialLive(ctx context.Context, systemPrompt string, cb LiveCallbacks) (*LiveProxy, error) {
	config := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{"AUDIO"},
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: systemPrompt},
			},
		},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: c.cfg.LiveVoice,
				},
			},
		},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}

	session, err := c.genai.Live.Connect(ctx, c.cfg.LiveModel, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Live API: %w", err)
	}

	proxy := &LiveProxy{session: session, cb: cb}
	go proxy.receiveLoop()

	log.Printf("✅ Connected to Gemini Live (%s)", c.cfg.LiveModel)
	return proxy, nil
}

// receiveLoop listens for server messages until the session closes.
func (p *LiveProxy) receiveLoop() {
	for {
		p.mu.RLock()
		if p.closed {
			p.mu.RUnlock()
			return
		}
		session := p.session
		p.mu.RUnlock()

		// Receive blocks until a message arrives or an error occurs
		resp, err := session.Receive()
		if err != nil {
			p.mu.RLock()
			closed := p.closed
			p.mu.RUnlock()

			if !closed {
				log.Printf("❌ Live receive error: %v", err)
				if p.cb.OnClosed != nil {
					p.cb.OnClosed(err)
				}
			}
			return
		}

		p.handleMessage(resp)
	}
}

func (p *LiveProxy) handleMessage(resp *genai.LiveServerMessage) {
	content := resp.ServerContent
	if content == nil {
		return
	}

	if content.InputTranscription != nil && content.InputTranscription.Text != "" {
		if p.cb.OnInputTranscript != nil {
			p.cb.OnInputTranscript(content.InputTranscription.Text)
		}
	}

	if content.OutputTranscription != nil && content.OutputTranscription.Text != "" {
		if p.cb.OnOutputTranscript != nil {
			p.cb.OnOutputTranscript(content.OutputTranscription.Text)
		}
	}

	if content.ModelTurn != nil {
		for _, part := range content.ModelTurn.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			if !strings.HasPrefix(part.InlineData.MIMEType, "audio/") {
				continue
			}
			if p.cb.OnAudio != nil {
				p.cb.OnAudio(part.InlineData.Data)
			}
		}
	}

	// Barge-in: the user started speaking over the model.
	if content.Interrupted && p.cb.OnInterrupted != nil {
		p.cb.OnInterrupted()
	}

	if content.TurnComplete && p.cb.OnTurnComplete != nil {
		p.cb.OnTurnComplete()
	}
}

// SendAudio forwards one realtime media chunk (PCM16 LE mono @ 16kHz).
func (p *LiveProxy) SendAudio(pcm []byte) error {
	p.mu.RLock()
	session := p.session
	closed := p.closed
	p.mu.RUnlock()

	if closed || session == nil {
		return fmt.Errorf("live session is closed")
	}

	err := session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{
			MIMEType: "audio/pcm;rate=16000",
			Data:     pcm,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send audio: %w", err)
	}
	return nil
}

// Close terminates the live session. Safe to call more than once.
func (p *LiveProxy) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.session != nil {
		return p.session.Close()
	}
	return nil
}
