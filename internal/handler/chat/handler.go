package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/z-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/z-assistant/backend/internal/model/persona"
	chatService "github.com/zhouzirui/z-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/z-assistant/backend/internal/service/render"
	"github.com/zhouzirui/z-assistant/backend/pkg/utils"
)

// Handler 会话 REST API 的HTTP处理器
type Handler struct {
	chatSvc      *chatService.Service
	personaStore persona.Store
	renderer     *render.Renderer
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, personaStore persona.Store, renderer *render.Renderer) *Handler {
	return &Handler{
		chatSvc:      chatSvc,
		personaStore: personaStore,
		renderer:     renderer,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleDeleteSession)
		r.Post("/messages", h.handleSubmit)
		r.Delete("/messages", h.handleClear)
	})
}

type sessionResponse struct {
	Session    chat.Session `json:"session"`
	Transcript []chat.Turn  `json:"transcript"`
	View       *render.View `json:"view,omitempty"`
}

type submitResponse struct {
	Result     chatService.Result `json:"result"`
	Transcript []chat.Turn        `json:"transcript"`
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID string `json:"personaId"`
	}

	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.PersonaID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	transcript, err := h.chatSvc.LoadTranscript(r.Context(), session.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, sessionResponse{Session: session, Transcript: transcript})
}

// handleGetSession 返回会话记录以及按人设布局渲染后的视图
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	conv, err := h.chatSvc.Conversation(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	transcript := conv.Transcript()
	view := h.renderer.RenderFor(conv.Persona(), transcript)
	utils.RespondJSON(w, http.StatusOK, sessionResponse{
		Session:    conv.Session(),
		Transcript: transcript,
		View:       &view,
	})
}

// handleSubmit 提交用户消息。模型调用失败同样返回 200，错误描述已写入会话记录。
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.chatSvc.Submit(context.WithoutCancel(r.Context()), sessionID, payload.Text)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	transcript, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, submitResponse{Result: result, Transcript: transcript})
}

// handleClear 清空会话记录
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	transcript, err := h.chatSvc.Clear(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sessionResponse{Session: session, Transcript: transcript})
}

// handleDeleteSession 删除会话
func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chatService.ErrPersonaRequired),
		errors.Is(err, chatService.ErrPersonaNotFound),
		errors.Is(err, chatService.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("component", "chat").Msg("request failed")
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
