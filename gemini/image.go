package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"aria-studio/vision"
)

// GenerateImage issues one image-generation request with the given prompt
// and aspect ratio. It returns the first inline-image part of the response,
// or nil when the model answered without one.
func (c *Client) GenerateImage(ctx context.Context, prompt, aspectRatio string) (*vision.Image, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: aspectRatio,
		},
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.cfg.ImageModel, []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}, config)
	if err != nil {
		return nil, fmt.Errorf("image generation request failed: %w", err)
	}

	return firstInlineImage(resp), nil
}

// firstInlineImage scans response parts for the first inline-image payload.
// Each part is matched by kind: inline image data wins, text and anything
// else is skipped.
func firstInlineImage(resp *genai.GenerateContentResponse) *vision.Image {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			switch {
			case part.InlineData != nil && strings.HasPrefix(part.InlineData.MIMEType, "image/"):
				return &vision.Image{
					Data:     part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
				}
			case part.Text != "":
				// Accompanying text is not rendered; skip.
			}
		}
	}
	return nil
}
