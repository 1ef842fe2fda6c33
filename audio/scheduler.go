package audio

import (
	"sync"
	"time"
)

// Chunk is one scheduled playback segment, in seconds on the session clock.
type Chunk struct {
	Start    float64
	Duration float64
}

// Scheduler chains successive audio chunks back-to-back without gaps or
// overlap. It tracks the set of currently scheduled chunks plus a
// monotonically advancing next-start cursor; an interruption discards every
// tracked chunk and resets the cursor to zero.
//
// The scheduler is safe to use from the session's receive callback and its
// stop/interrupt paths concurrently.
type Scheduler struct {
	mu     sync.Mutex
	now    func() float64
	cursor float64
	chunks []Chunk
}

// NewScheduler creates a scheduler whose clock starts at zero.
func NewScheduler() *Scheduler {
	epoch := time.Now()
	return &Scheduler{
		now: func() float64 { return time.Since(epoch).Seconds() },
	}
}

// newSchedulerWithClock is used by tests to drive the clock explicitly.
func newSchedulerWithClock(now func() float64) *Scheduler {
	return &Scheduler{now: now}
}

// Schedule reserves a playback slot for a chunk of the given duration and
// returns its start time: max(cursor, current time), so a chunk arriving
// late never overlaps the previous one and a chunk arriving early waits its
// turn. The cursor advances by the chunk's duration.
func (s *Scheduler) Schedule(duration float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.cursor
	if now := s.now(); now > start {
		start = now
	}
	s.cursor = start + duration
	s.chunks = append(s.chunks, Chunk{Start: start, Duration: duration})
	s.prune()
	return start
}

// Interrupt discards all scheduled chunks and resets the cursor to zero.
// It returns the number of chunks dropped (barge-in support).
func (s *Scheduler) Interrupt() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.chunks)
	s.chunks = nil
	s.cursor = 0
	return n
}

// Stop is the session-teardown flush; identical to Interrupt.
func (s *Scheduler) Stop() {
	s.Interrupt()
}

// Cursor returns the scheduled end time of the most recently queued chunk.
func (s *Scheduler) Cursor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Pending returns the chunks that have not finished playing yet.
func (s *Scheduler) Pending() []Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune()
	out := make([]Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// prune drops chunks whose playback window has already passed.
// Caller must hold s.mu.
func (s *Scheduler) prune() {
	now := s.now()
	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.Start+c.Duration > now {
			kept = append(kept, c)
		}
	}
	s.chunks = kept
}
