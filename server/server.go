package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"aria-studio/chat"
	"aria-studio/config"
	"aria-studio/messages"
	"aria-studio/session"
	"aria-studio/vision"
)

// Server exposes the three studio modes: live voice over /ws, chat and
// image generation over REST.
type Server struct {
	httpServer     *http.Server
	upgrader       websocket.Upgrader
	sessionManager *session.Manager
	config         *config.Config
	views          *viewRegistry
}

// New builds the server. newChatBackend produces one conversational SDK
// session per chat view; imageBackend is shared by all vision views.
func New(cfg *config.Config, sessionManager *session.Manager, newChatBackend func() chat.Backend, imageBackend vision.Backend) *Server {
	s := &Server{
		sessionManager: sessionManager,
		config:         cfg,
		views:          newViewRegistry(newChatBackend, imageBackend),
		upgrader: websocket.Upgrader{
			ReadBufferSize:    64 * 1024, // 64KB for audio chunks
			WriteBufferSize:   64 * 1024,
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				for _, allowed := range cfg.AllowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/image", s.handleImage)
	mux.HandleFunc("/api/image/download", s.handleImageDownload)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
		// No global timeouts — they interfere with long-lived WebSocket
		// connections; the WebSocket layer sets its own deadlines.
	}

	return s
}

// Start begins listening for connections
func (s *Server) Start() error {
	log.Printf("🚀 Server starting on port %d", s.config.Port)
	log.Printf("📡 Live endpoint:  ws://localhost:%d/ws", s.config.Port)
	log.Printf("📡 Chat endpoint:  http://localhost:%d/api/chat", s.config.Port)
	log.Printf("📡 Image endpoint: http://localhost:%d/api/image", s.config.Port)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("🛑 Shutting down server...")
	s.sessionManager.Shutdown()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	clientSession, err := s.sessionManager.CreateSession(r.Context(), conn)
	if err != nil {
		log.Printf("Failed to create session: %v", err)
		errMsg := messages.NewErrorMessage("", messages.ErrCodeSessionFailed, err.Error())
		if data, merr := messages.Marshal(errMsg); merr == nil {
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}
		conn.Close()
		return
	}

	log.Printf("✅ New live session created: %s", clientSession.ID)
	clientSession.Start()

	<-clientSession.CloseChan

	_ = s.sessionManager.RemoveSession(context.Background(), clientSession.ID)
	log.Printf("🔌 Live session closed: %s", clientSession.ID)
}

type chatRequest struct {
	ViewID string `json:"viewId"`
	Text   string `json:"text"`
}

type chatResponse struct {
	ViewID     string         `json:"viewId"`
	Reply      string         `json:"reply"`
	Transcript []chat.Message `json:"transcript"`
}

type imageRequest struct {
	ViewID      string `json:"viewId"`
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio"`
}

type imageResponse struct {
	ViewID   string `json:"viewId"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // Base64-encoded raster payload
}

// handleChat sends one user turn to the view's conversation and returns
// the updated transcript. A failed model call still returns 200: the
// transcript carries the generic error entry the view renders.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, messages.ErrCodeInvalidMessage, "invalid request body")
		return
	}

	viewID, conv := s.views.conversation(req.ViewID)
	err := conv.Send(r.Context(), req.Text)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, messages.ErrCodeInvalidMessage, err.Error())
		return
	case errors.Is(err, chat.ErrBusy):
		writeError(w, http.StatusConflict, messages.ErrCodeInvalidMessage, err.Error())
		return
	}

	entries := conv.Entries()
	var reply string
	if n := len(entries); n > 0 && entries[n-1].Role == chat.RoleModel {
		reply = entries[n-1].Text
	}

	writeJSON(w, http.StatusOK, chatResponse{
		ViewID:     viewID,
		Reply:      reply,
		Transcript: entries,
	})
}

// handleImage issues one generation request for the view. 204 means the
// model answered without an image and the slot is unchanged.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req imageRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, messages.ErrCodeInvalidMessage, "invalid request body")
		return
	}

	viewID, gen := s.views.generator(req.ViewID)
	err := gen.Generate(r.Context(), req.Prompt, req.AspectRatio)
	switch {
	case errors.Is(err, vision.ErrEmptyPrompt), errors.Is(err, vision.ErrBadAspectRatio):
		writeError(w, http.StatusBadRequest, messages.ErrCodeInvalidMessage, err.Error())
		return
	case errors.Is(err, vision.ErrBusy):
		writeError(w, http.StatusConflict, messages.ErrCodeInvalidMessage, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, messages.ErrCodeGeminiError, err.Error())
		return
	}

	img := gen.Image()
	if img == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, imageResponse{
		ViewID:   viewID,
		MimeType: img.MIMEType,
		Data:     base64.StdEncoding.EncodeToString(img.Data),
	})
}

// handleImageDownload exports the view's current image as an attachment
// with the fixed filename. Only available while the slot is occupied.
func (s *Server) handleImageDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	gen, ok := s.views.lookupGenerator(r.URL.Query().Get("viewId"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	img := gen.Image()
	if img == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", vision.DownloadFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","sessions":%d}`, s.sessionManager.GetActiveSessionCount())
}

func decodeBody(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil {
		return err
	}
	return messages.Unmarshal(data, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := messages.Marshal(v)
	if err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, messages.ErrorPayload{Code: code, Message: message})
}
