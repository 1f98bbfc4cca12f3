package chat

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	analysis "github.com/zhouzirui/luma/backend/internal/analysis/emotion"
	"github.com/zhouzirui/luma/backend/internal/model/chat"
	"github.com/zhouzirui/luma/backend/internal/model/persona"
	chatService "github.com/zhouzirui/luma/backend/internal/service/chat"
	emotionservice "github.com/zhouzirui/luma/backend/internal/service/emotion"
	"github.com/zhouzirui/luma/backend/internal/service/reply"
	"github.com/zhouzirui/luma/backend/pkg/utils"
)

// InvalidRequestMessage 是缺少消息内容时的回复文本。
const InvalidRequestMessage = "Invalid request"

// Handler 聊天服务的HTTP处理器
type Handler struct {
	store        chatService.Store
	personaStore persona.Store
	replies      *reply.Service
	emotions     *emotionservice.Service
}

// New 创建聊天处理器
func New(store chatService.Store, personaStore persona.Store, replies *reply.Service, emotions *emotionservice.Service) *Handler {
	return &Handler{
		store:        store,
		personaStore: personaStore,
		replies:      replies,
		emotions:     emotions,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Delete("/session/{sessionID}", h.handleEndSession)
	r.Get("/session/{sessionID}/messages", h.handleTranscript)
	r.Post("/messages", h.handleSaveMessage)
	r.Post("/chat", h.handleChat)
	r.Post("/emotion", h.handleEmotion)
}

// handleCreateSession 创建会话，未指定 personaId 时使用默认角色
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID string `json:"personaId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, ok := h.resolvePersona(payload.PersonaID)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "persona not found")
		return
	}

	session, err := h.store.CreateSession(r.Context(), p.ID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleEndSession 结束会话并清除情绪上下文
func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.store.EndSession(r.Context(), sessionID); err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleSaveMessage 保存消息
func (h *Handler) handleSaveMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Sender    string `json:"sender"`
		Content   string `json:"content"`
		Emotion   string `json:"emotion"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := chat.Message{
		SessionID: payload.SessionID,
		Sender:    payload.Sender,
		Content:   payload.Content,
		Emotion:   payload.Emotion,
	}

	if err := h.store.SaveMessage(r.Context(), message); err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type chatResponse struct {
	reply.Reply
	SessionID string `json:"sessionId,omitempty"`
}

// handleChat 处理一轮对话，支持 JSON 与表单提交。
// 未提供 sessionId 时为默认角色新建会话并在响应中返回。
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(r)
	if !ok || strings.TrimSpace(req.Message) == "" {
		utils.RespondJSON(w, http.StatusBadRequest, reply.Reply{Response: InvalidRequestMessage, Emotion: analysis.Neutral})
		return
	}

	ctx := r.Context()
	if req.SessionID == "" {
		p, ok := h.personaStore.Default()
		if !ok {
			utils.RespondError(w, http.StatusInternalServerError, "no persona configured")
			return
		}
		session, err := h.store.CreateSession(ctx, p.ID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		req.SessionID = session.ID
	}

	result, err := h.replies.Respond(ctx, req.SessionID, req.Message)
	if errors.Is(err, chatService.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Printf("[chat] error processing request for session=%s: %v", req.SessionID, err)
		result = reply.Reply{Response: reply.TroubleMessage, Emotion: analysis.Neutral}
	}

	utils.RespondJSON(w, http.StatusOK, chatResponse{Reply: result, SessionID: req.SessionID})
}

// handleEmotion 无状态地运行情绪识别，便于调试规则。
func (h *Handler) handleEmotion(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text        string `json:"text"`
		LastEmotion string `json:"lastEmotion"`
		Profile     string `json:"profile"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Text == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	last, ok := analysis.ParseLabel(payload.LastEmotion)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "invalid lastEmotion")
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.emotions.Detect(payload.Profile, payload.Text, last))
}

func (h *Handler) resolvePersona(id string) (persona.Persona, bool) {
	if id == "" {
		return h.personaStore.Default()
	}
	return h.personaStore.FindByID(id)
}

func decodeChatRequest(r *http.Request) (chatRequest, bool) {
	var req chatRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, false
		}
		return req, true
	}

	if err := r.ParseForm(); err != nil {
		return req, false
	}
	req.SessionID = r.PostFormValue("sessionId")
	req.Message = r.PostFormValue("message")
	return req, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrPersonaRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
