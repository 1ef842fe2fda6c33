package server

import (
	"sync"

	"github.com/google/uuid"

	"aria-studio/chat"
	"aria-studio/vision"
)

// viewRegistry holds the per-view state of the chat and vision modes, keyed
// by view ID. A browser view instance gets its ID on first request and
// sends it back on subsequent ones; state vanishes with the process (no
// persistence).
type viewRegistry struct {
	mu             sync.Mutex
	chats          map[string]*chat.Conversation
	visions        map[string]*vision.Generator
	newChatBackend func() chat.Backend
	imageBackend   vision.Backend
}

func newViewRegistry(newChatBackend func() chat.Backend, imageBackend vision.Backend) *viewRegistry {
	return &viewRegistry{
		chats:          make(map[string]*chat.Conversation),
		visions:        make(map[string]*vision.Generator),
		newChatBackend: newChatBackend,
		imageBackend:   imageBackend,
	}
}

// conversation returns the conversation for the view, creating it (and a
// fresh view ID) when absent.
func (r *viewRegistry) conversation(viewID string) (string, *chat.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if viewID != "" {
		if conv, ok := r.chats[viewID]; ok {
			return viewID, conv
		}
	}
	id := uuid.New().String()
	conv := chat.NewConversation(r.newChatBackend())
	r.chats[id] = conv
	return id, conv
}

// generator returns the image generator for the view, creating it when
// absent.
func (r *viewRegistry) generator(viewID string) (string, *vision.Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if viewID != "" {
		if gen, ok := r.visions[viewID]; ok {
			return viewID, gen
		}
	}
	id := uuid.New().String()
	gen := vision.NewGenerator(r.imageBackend)
	r.visions[id] = gen
	return id, gen
}

// lookupGenerator returns an existing generator without creating one.
func (r *viewRegistry) lookupGenerator(viewID string) (*vision.Generator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gen, ok := r.visions[viewID]
	return gen, ok
}
