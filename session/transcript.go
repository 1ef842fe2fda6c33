package session

import "sync"

// Roles for transcript entries.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Entry is one role-tagged line of the live transcript, produced from
// streaming transcription events.
type Entry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Transcript is an append-only log of entries in event-observation order.
// Input and output transcription events may arrive out of order relative to
// each other; the transcript records them as observed.
type Transcript struct {
	mu      sync.Mutex
	entries []Entry
}

// Append adds one entry.
func (t *Transcript) Append(role, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Entry{Role: role, Text: text})
}

// Entries returns a copy of the full transcript.
func (t *Transcript) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Tail returns the most recent n entries (all of them when fewer exist).
func (t *Transcript) Tail(n int) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n > len(t.entries) {
		n = len(t.entries)
	}
	out := make([]Entry, n)
	copy(out, t.entries[len(t.entries)-n:])
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Clear empties the transcript (session teardown).
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}
