package session

import (
	"bytes"
	"errors"
	"testing"
)

func TestAudioBufferAppendFlush(t *testing.T) {
	buf := NewAudioBuffer(16)

	if !buf.IsEmpty() {
		t.Error("new buffer should be empty")
	}
	if err := buf.Append([]byte{1, 2}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := buf.Append([]byte{3, 4, 5}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if buf.Size() != 5 {
		t.Errorf("Size = %d, want 5", buf.Size())
	}

	data := buf.Flush()
	if !bytes.Equal(data, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("Flush = %v", data)
	}
	if !buf.IsEmpty() || buf.Size() != 0 {
		t.Error("buffer should be empty after flush")
	}
	if buf.Flush() != nil {
		t.Error("flushing an empty buffer should return nil")
	}
}

func TestAudioBufferRejectsOverflow(t *testing.T) {
	buf := NewAudioBuffer(4)

	if err := buf.Append([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := buf.Append([]byte{4, 5}); !errors.Is(err, ErrBufferFull) {
		t.Errorf("Append past max = %v, want ErrBufferFull", err)
	}
	// The rejected chunk must not be partially stored.
	if buf.Size() != 3 {
		t.Errorf("Size = %d, want 3", buf.Size())
	}
}

func TestAudioBufferClear(t *testing.T) {
	buf := NewAudioBuffer(16)
	_ = buf.Append([]byte{1, 2, 3})
	buf.Clear()
	if !buf.IsEmpty() {
		t.Error("buffer should be empty after Clear")
	}
}
