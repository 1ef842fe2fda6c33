// Package chat holds the transcript state for the text chat mode.
package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
)

// Roles for transcript entries.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// errorReplyText is appended as a model entry when a send fails.
const errorReplyText = "Sorry, something went wrong. Please try again."

var (
	// ErrEmptyMessage is returned when the text is empty or whitespace.
	ErrEmptyMessage = errors.New("chat: empty message")
	// ErrBusy is returned when a send is already in flight.
	ErrBusy = errors.New("chat: request already in flight")
)

// Message is one role-tagged transcript entry.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Backend produces one model reply for one user turn. The backend owns
// whatever conversational history the SDK session retains between turns.
type Backend interface {
	Reply(ctx context.Context, text string) (string, error)
}

// Conversation is the server-side state of one chat view: an append-only
// transcript plus a busy flag. One backend attempt per send, no retry.
type Conversation struct {
	mu      sync.Mutex
	backend Backend
	entries []Message
	busy    bool
}

// NewConversation creates an empty conversation over the given backend.
func NewConversation(backend Backend) *Conversation {
	return &Conversation{backend: backend}
}

// Send appends the user's entry, issues one request to the backend, and
// appends the reply (or a generic error entry on failure). Empty text and
// sends issued while one is in flight are rejected without touching the
// transcript.
func (c *Conversation) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.entries = append(c.entries, Message{Role: RoleUser, Text: text})
	c.mu.Unlock()

	reply, err := c.backend.Reply(ctx, text)

	c.mu.Lock()
	if err != nil {
		log.Printf("chat send failed: %v", err)
		c.entries = append(c.entries, Message{Role: RoleModel, Text: errorReplyText})
	} else {
		c.entries = append(c.entries, Message{Role: RoleModel, Text: reply})
	}
	c.busy = false
	c.mu.Unlock()

	return err
}

// Entries returns a copy of the transcript in append order.
func (c *Conversation) Entries() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.entries))
	copy(out, c.entries)
	return out
}

// Busy reports whether a send is in flight.
func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Reset clears the transcript and discards any history the backend retains
// (view reload).
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	if r, ok := c.backend.(interface{ Reset() }); ok {
		r.Reset()
	}
}
