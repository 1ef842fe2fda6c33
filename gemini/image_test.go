package gemini

import (
	"testing"

	"google.golang.org/genai"
)

func TestFirstInlineImagePicksFirstImagePart(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: "Here is your image:"},
						{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("first")}},
						{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: []byte("second")}},
					},
				},
			},
		},
	}

	img := firstInlineImage(resp)
	if img == nil {
		t.Fatal("expected an image")
	}
	if img.MIMEType != "image/png" || string(img.Data) != "first" {
		t.Errorf("got %q/%q, want the first image part", img.MIMEType, img.Data)
	}
}

func TestFirstInlineImageSkipsNonImagePayloads(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{InlineData: &genai.Blob{MIMEType: "audio/pcm", Data: []byte("pcm")}},
						{Text: "no image today"},
					},
				},
			},
		},
	}

	if img := firstInlineImage(resp); img != nil {
		t.Errorf("got %+v, want nil for a response without image parts", img)
	}
}

func TestFirstInlineImageHandlesEmptyResponse(t *testing.T) {
	if img := firstInlineImage(nil); img != nil {
		t.Error("nil response should yield nil")
	}
	if img := firstInlineImage(&genai.GenerateContentResponse{}); img != nil {
		t.Error("empty response should yield nil")
	}
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}
	if img := firstInlineImage(resp); img != nil {
		t.Error("candidate without content should yield nil")
	}
}
