package vision

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

type fakeBackend struct {
	mu      sync.Mutex
	calls   int
	img     *Image
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeBackend) GenerateImage(ctx context.Context, prompt, aspectRatio string) (*Image, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.release != nil {
		<-f.release
	}
	return f.img, f.err
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestGenerateReplacesSlot(t *testing.T) {
	backend := &fakeBackend{img: &Image{Data: []byte("png-bytes"), MIMEType: "image/png"}}
	gen := NewGenerator(backend)

	if err := gen.Generate(context.Background(), "a red fox", AspectLandscape); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	img := gen.Image()
	if img == nil || img.MIMEType != "image/png" {
		t.Fatalf("image slot = %+v, want image/png", img)
	}

	// A second success replaces, not accumulates.
	backend.img = &Image{Data: []byte("jpeg-bytes"), MIMEType: "image/jpeg"}
	if err := gen.Generate(context.Background(), "a blue fox", AspectSquare); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if img := gen.Image(); img.MIMEType != "image/jpeg" {
		t.Errorf("slot after second generation = %q, want image/jpeg", img.MIMEType)
	}
}

func TestGenerateRejectsEmptyPromptAndBadAspect(t *testing.T) {
	backend := &fakeBackend{}
	gen := NewGenerator(backend)

	if err := gen.Generate(context.Background(), "  ", AspectSquare); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("empty prompt: err = %v, want ErrEmptyPrompt", err)
	}
	if err := gen.Generate(context.Background(), "fox", "4:3"); !errors.Is(err, ErrBadAspectRatio) {
		t.Errorf("bad aspect: err = %v, want ErrBadAspectRatio", err)
	}
	if backend.callCount() != 0 {
		t.Errorf("backend called %d times, want 0", backend.callCount())
	}
}

func TestGenerateWhileInFlightIsNoOp(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := &fakeBackend{started: started, release: release}
	gen := NewGenerator(backend)

	done := make(chan error, 1)
	go func() { done <- gen.Generate(context.Background(), "fox", AspectSquare) }()
	<-started

	if err := gen.Generate(context.Background(), "fox again", AspectSquare); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent Generate = %v, want ErrBusy", err)
	}

	close(release)
	<-done

	// The request count must not have increased for the rejected call.
	if backend.callCount() != 1 {
		t.Errorf("backend called %d times, want 1", backend.callCount())
	}
}

func TestGenerateNoImageLeavesSlotUnchanged(t *testing.T) {
	backend := &fakeBackend{img: &Image{Data: []byte("first"), MIMEType: "image/png"}}
	gen := NewGenerator(backend)
	_ = gen.Generate(context.Background(), "fox", AspectSquare)

	// Model answered with text only: nil image, nil error.
	backend.img = nil
	if err := gen.Generate(context.Background(), "fox", AspectSquare); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if img := gen.Image(); img == nil || string(img.Data) != "first" {
		t.Errorf("slot = %+v, want first image preserved", img)
	}
}

func TestGenerateFailureLeavesSlotUnchanged(t *testing.T) {
	backend := &fakeBackend{img: &Image{Data: []byte("first"), MIMEType: "image/png"}}
	gen := NewGenerator(backend)
	_ = gen.Generate(context.Background(), "fox", AspectSquare)

	backend.img = nil
	backend.err = errors.New("quota exceeded")
	if err := gen.Generate(context.Background(), "fox", AspectSquare); err == nil {
		t.Fatal("Generate should propagate the backend error")
	}
	if img := gen.Image(); img == nil || string(img.Data) != "first" {
		t.Errorf("slot = %+v, want first image preserved", img)
	}
	if gen.Busy() {
		t.Error("busy should be cleared after a failed generation")
	}
}

func TestDownloadOnlyWhenImagePresent(t *testing.T) {
	backend := &fakeBackend{}
	gen := NewGenerator(backend)

	if _, _, ok := gen.Download(); ok {
		t.Error("Download should be unavailable with an empty slot")
	}

	backend.img = &Image{Data: []byte{0x89, 0x50}, MIMEType: "image/png"}
	if err := gen.Generate(context.Background(), "fox", AspectPortrait); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	name, uri, ok := gen.Download()
	if !ok {
		t.Fatal("Download should be available")
	}
	if name != DownloadFilename {
		t.Errorf("filename = %q, want %q", name, DownloadFilename)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("data URI = %q", uri)
	}
}
