package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// ChatSession is a stateful conversational session for the chat mode. The
// SDK chat object retains turn history for the lifetime of the session.
type ChatSession struct {
	client *Client

	mu   sync.Mutex
	chat *genai.Chat
}

// NewChatSession creates a session; the SDK chat is opened lazily on the
// first turn.
func (c *Client) NewChatSession() *ChatSession {
	return &ChatSession{client: c}
}

// Reply sends one user turn and returns the model's text reply.
func (s *ChatSession) Reply(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	if s.chat == nil {
		chat, err := s.client.genai.Chats.Create(ctx, s.client.cfg.ChatModel, nil, nil)
		if err != nil {
			s.mu.Unlock()
			return "", fmt.Errorf("failed to create chat: %w", err)
		}
		s.chat = chat
	}
	chat := s.chat
	s.mu.Unlock()

	resp, err := chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// Reset discards the SDK chat so the next turn starts a fresh history.
func (s *ChatSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = nil
}
