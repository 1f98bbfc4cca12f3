package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatService "github.com/zhouzirui/luma/backend/internal/service/chat"
	emotionservice "github.com/zhouzirui/luma/backend/internal/service/emotion"
	"github.com/zhouzirui/luma/backend/internal/service/reply"
	"github.com/zhouzirui/luma/backend/pkg/utils"
)

// Handler manages streaming replies via Server-Sent Events
type Handler struct {
	replies *reply.Service
}

// New creates a new stream handler
func New(replies *reply.Service) *Handler {
	return &Handler{replies: replies}
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string                   `json:"event"`
	Content   string                   `json:"content,omitempty"`
	SessionID string                   `json:"sessionId,omitempty"`
	Emotion   *emotionservice.Guidance `json:"emotion,omitempty"`
	Source    string                   `json:"source,omitempty"`
	Finished  bool                     `json:"finished,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// RegisterRoutes 注册流式对话路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := r.URL.Query().Get("message")
	if userMessage == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	if err := h.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
		log.Printf("[stream] error handling request: %v", err)
	}
}

// HandleStreamRequest processes one streamed chat turn. Errors found before
// the stream opens are written as JSON; later ones as an error event.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return fmt.Errorf("streaming unsupported")
	}

	turn, err := h.replies.Prepare(ctx, sessionID, userMessage)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return err
	}

	utils.SetupSSEHeaders(w)

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
		Content:   turn.Persona.Name,
	})

	guidance := turn.Guidance
	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "emotion",
		SessionID: sessionID,
		Emotion:   &guidance,
	})

	response, source := h.replies.Stream(ctx, turn, func(delta string) {
		utils.SendSSEChunk(w, flusher, StreamResponse{
			Event:     "delta",
			SessionID: sessionID,
			Content:   delta,
		})
	})

	result := h.replies.Finish(ctx, turn, response, source)

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   result.Response,
		Source:    result.Source,
	})

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed response for session=%s, persona=%s", sessionID, turn.Persona.ID)
	return nil
}
