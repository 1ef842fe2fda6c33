package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type chatRequest struct {
	ViewID string `json:"viewId"`
	Text   string `json:"text"`
}

type chatMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type chatResponse struct {
	ViewID     string        `json:"viewId"`
	Transcript []chatMessage `json:"transcript"`
}

type imageRequest struct {
	ViewID      string `json:"viewId"`
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio"`
}

type imageResponse struct {
	ViewID   string `json:"viewId"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "Server base URL")
	text := flag.String("text", "Hello! Say hi back in one sentence.", "Chat message to send")
	prompt := flag.String("image", "", "Image prompt (skips image generation when empty)")
	aspect := flag.String("aspect", "1:1", "Aspect ratio for image generation")
	out := flag.String("out", "generated-image.png", "Where to save a generated image")
	flag.Parse()

	client := &http.Client{Timeout: 60 * time.Second}

	// Chat round trip
	log.Printf("💬 Sending: %s", *text)
	var chatResp chatResponse
	if err := postJSON(client, *serverURL+"/api/chat", chatRequest{Text: *text}, &chatResp); err != nil {
		log.Fatalf("Chat request failed: %v", err)
	}
	for _, m := range chatResp.Transcript {
		fmt.Printf("📝 [%s] %s\n", m.Role, m.Text)
	}

	if *prompt == "" {
		log.Println("Done")
		return
	}

	// Image generation
	log.Printf("🎨 Generating image: %s (%s)", *prompt, *aspect)
	var imgResp imageResponse
	err := postJSON(client, *serverURL+"/api/image", imageRequest{Prompt: *prompt, AspectRatio: *aspect}, &imgResp)
	if err != nil {
		log.Fatalf("Image request failed: %v", err)
	}
	if imgResp.Data == "" {
		log.Println("Model returned no image")
		return
	}

	pixels, err := base64.StdEncoding.DecodeString(imgResp.Data)
	if err != nil {
		log.Fatalf("Failed to decode image data: %v", err)
	}
	if err := os.WriteFile(*out, pixels, 0o644); err != nil {
		log.Fatalf("Failed to save image: %v", err)
	}
	log.Printf("✅ Saved %d bytes (%s) to %s", len(pixels), imgResp.MimeType, *out)
}

func postJSON(client *http.Client, url string, req, resp any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpResp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return err
	}
	if httpResp.StatusCode == http.StatusNoContent {
		return nil
	}
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", httpResp.StatusCode, data)
	}
	return json.Unmarshal(data, resp)
}
