// Package vision holds the single-image state for the image generation mode.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
)

// DownloadFilename is the fixed name used when exporting the current image.
const DownloadFilename = "generated-image.png"

// Supported aspect ratios: square, landscape, portrait.
const (
	AspectSquare    = "1:1"
	AspectLandscape = "16:9"
	AspectPortrait  = "9:16"
)

var (
	// ErrEmptyPrompt is returned when the prompt is empty or whitespace.
	ErrEmptyPrompt = errors.New("vision: empty prompt")
	// ErrBusy is returned when a generation is already in flight.
	ErrBusy = errors.New("vision: request already in flight")
	// ErrBadAspectRatio is returned for an unsupported aspect ratio.
	ErrBadAspectRatio = errors.New("vision: unsupported aspect ratio")
)

// Image is one generated raster payload with its content type.
type Image struct {
	Data     []byte
	MIMEType string
}

// Backend issues one image-generation request. A nil image with a nil error
// means the model returned no inline-image part.
type Backend interface {
	GenerateImage(ctx context.Context, prompt, aspectRatio string) (*Image, error)
}

// Generator is the server-side state of one vision view: a single image
// slot replaced on each successful generation, plus a busy flag.
type Generator struct {
	mu      sync.Mutex
	backend Backend
	img     *Image
	busy    bool
}

// NewGenerator creates an empty generator over the given backend.
func NewGenerator(backend Backend) *Generator {
	return &Generator{backend: backend}
}

// ValidAspectRatio reports whether the ratio is one of the three fixed
// options.
func ValidAspectRatio(ratio string) bool {
	switch ratio {
	case AspectSquare, AspectLandscape, AspectPortrait:
		return true
	}
	return false
}

// Generate issues one image-generation request. Empty prompts, unsupported
// aspect ratios, and requests issued while one is in flight are rejected
// without touching the image slot. On success the slot is replaced with the
// new image; when the response carries no image, or the request fails, the
// slot is left unchanged.
func (g *Generator) Generate(ctx context.Context, prompt, aspectRatio string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	if !ValidAspectRatio(aspectRatio) {
		return fmt.Errorf("%w: %q", ErrBadAspectRatio, aspectRatio)
	}

	g.mu.Lock()
	if g.busy {
		g.mu.Unlock()
		return ErrBusy
	}
	g.busy = true
	g.mu.Unlock()

	img, err := g.backend.GenerateImage(ctx, prompt, aspectRatio)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.busy = false
	if err != nil {
		log.Printf("image generation failed: %v", err)
		return err
	}
	if img != nil {
		g.img = img
	}
	return nil
}

// Image returns the current image slot, or nil when empty.
func (g *Generator) Image() *Image {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.img
}

// Busy reports whether a generation is in flight.
func (g *Generator) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

// Download exports the current image as a data URI with the fixed filename.
// It is unavailable while the slot is empty.
func (g *Generator) Download() (filename, dataURI string, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.img == nil {
		return "", "", false
	}
	uri := "data:" + g.img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(g.img.Data)
	return DownloadFilename, uri, true
}

// Reset empties the image slot (navigation away from the view).
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.img = nil
}
