// Package gemini wraps the GenAI SDK for the three studio modes: text chat,
// image generation, and live voice.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"aria-studio/config"
)

// Client owns one SDK client shared by all modes.
type Client struct {
	genai *genai.Client
	cfg   *config.Config
}

// NewClient creates the SDK client from configuration.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Client{
		genai: client,
		cfg:   cfg,
	}, nil
}
