package stream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/z-assistant/backend/internal/analysis/distress"
	"github.com/zhouzirui/z-assistant/backend/internal/model/chat"
	chatService "github.com/zhouzirui/z-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/z-assistant/backend/pkg/utils"
)

// Handler 通过 Server-Sent Events 提交消息并推送结果
type Handler struct {
	chatSvc *chatService.Service
}

// New creates a new stream handler
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册 SSE 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// StreamResponse represents one SSE payload
type StreamResponse struct {
	Event     string     `json:"event"`
	SessionID string     `json:"sessionId,omitempty"`
	Content   string     `json:"content,omitempty"`
	Kind      string     `json:"kind,omitempty"`
	Turn      *chat.Turn `json:"turn,omitempty"`
	Notice    bool       `json:"crisisNotice,omitempty"`
	Discarded bool       `json:"discarded,omitempty"`
	Finished  bool       `json:"finished,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := r.URL.Query().Get("message")

	conv, err := h.chatSvc.Conversation(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	if userMessage == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	if err := h.stream(w, flusher, r, conv, userMessage); err != nil {
		log.Warn().Err(err).Str("component", "stream").Str("session", sessionID).Msg("stream aborted")
	}
}

func (h *Handler) stream(w http.ResponseWriter, flusher http.Flusher, r *http.Request, conv *chatService.Conversation, userMessage string) error {
	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	p := conv.Persona()
	sessionID := conv.Session().ID
	notice := p.CrisisNotice && distress.Analyze(userMessage).Notify()

	if err := h.send(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
		Content:   fmt.Sprintf("%s is thinking...", p.Name),
		Notice:    notice,
	}); err != nil {
		return err
	}

	result, err := conv.Submit(context.WithoutCancel(r.Context()), userMessage)
	if err != nil {
		_ = h.send(w, flusher, StreamResponse{Event: "error", SessionID: sessionID, Error: err.Error()})
		return err
	}

	turns := conv.Transcript()
	var last *chat.Turn
	if !result.Discarded && len(turns) > 0 {
		last = &turns[len(turns)-1]
	}

	event := StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   result.Text,
		Kind:      string(result.Kind),
		Turn:      last,
		Discarded: result.Discarded,
	}
	if !result.OK() {
		event.Event = "error"
		event.Error = result.Text
	}
	if err := h.send(w, flusher, event); err != nil {
		return err
	}

	log.Debug().Str("component", "stream").Str("session", sessionID).Str("persona", p.ID).Msg("completed response")
	return h.send(w, flusher, StreamResponse{Event: "end", SessionID: sessionID, Finished: true})
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) error {
	if err := utils.SendSSEEvent(w, flusher, response.Event, response); err != nil {
		return errors.Wrapf(err, "send sse %s event", response.Event)
	}
	return nil
}
