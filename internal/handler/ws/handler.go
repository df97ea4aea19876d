package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/z-assistant/backend/internal/analysis/distress"
	"github.com/zhouzirui/z-assistant/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/z-assistant/backend/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler WebSocket 文本聊天处理器
type Handler struct {
	chatSvc  *chatservice.Service
	upgrader websocket.Upgrader
}

// New 创建WebSocket处理器
func New(chatSvc *chatservice.Service) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// 入站消息类型
const (
	TypeText  = "text"
	TypeClear = "clear"
)

// 出站消息类型
const (
	TypeConnected = "connected"
	TypeResult    = "result"
	TypeCleared   = "cleared"
	TypeError     = "error"
)

// InboundMessage 客户端发来的消息
type InboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// OutgoingMessage 服务端推送的消息
type OutgoingMessage struct {
	Type         string              `json:"type"`
	SessionID    string              `json:"sessionId,omitempty"`
	Result       *chatservice.Result `json:"result,omitempty"`
	Turns        []chat.Turn         `json:"turns,omitempty"`
	CrisisNotice bool                `json:"crisisNotice,omitempty"`
	Error        string              `json:"error,omitempty"`
	Timestamp    int64               `json:"timestamp"`
}

// connWriter 串行化同一连接上的写操作，gorilla/websocket 只允许一个并发写者。
type connWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *connWriter) send(msg OutgoingMessage) {
	msg.Timestamp = time.Now().UnixMilli()

	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := w.conn.WriteJSON(msg); err != nil {
		log.Debug().Err(err).Str("component", "websocket").Str("type", msg.Type).Msg("write failed")
	}
}

func (w *connWriter) sendError(message string) {
	w.send(OutgoingMessage{Type: TypeError, Error: message})
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	conv, err := h.chatSvc.Conversation(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "websocket").Msg("upgrade failed")
		return
	}
	defer conn.Close()

	logger := log.With().Str("component", "websocket").Str("session", sessionID).Logger()
	logger.Debug().Msg("connection opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go pingLoop(ctx, conn)

	out := &connWriter{conn: conn}
	// 提交在独立 goroutine 中执行，读循环在模型调用期间仍能处理 clear 和 pong
	var inflight sync.WaitGroup
	defer inflight.Wait()

	out.send(OutgoingMessage{Type: TypeConnected, SessionID: sessionID, Turns: conv.Transcript()})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		var msg InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			out.sendError("invalid message")
			continue
		}

		if msg.Type == TypeText {
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				// 连接断开不中断模型调用，回复仍写入会话
				h.submit(context.WithoutCancel(ctx), out, conv, msg.Text)
			}()
			continue
		}
		h.handleMessage(out, conv, msg)
	}
}

func (h *Handler) submit(ctx context.Context, out *connWriter, conv *chatservice.Conversation, text string) {
	result, err := conv.Submit(ctx, text)
	if err != nil {
		out.sendError(err.Error())
		return
	}
	p := conv.Persona()
	out.send(OutgoingMessage{
		Type:         TypeResult,
		SessionID:    conv.Session().ID,
		Result:       &result,
		Turns:        conv.Transcript(),
		CrisisNotice: p.CrisisNotice && distress.Analyze(text).Notify(),
	})
}

func (h *Handler) handleMessage(out *connWriter, conv *chatservice.Conversation, msg InboundMessage) {
	switch msg.Type {
	case TypeClear:
		out.send(OutgoingMessage{Type: TypeCleared, SessionID: conv.Session().ID, Turns: conv.Clear()})
	default:
		out.sendError("unsupported message type: " + msg.Type)
	}
}

// pingLoop 使用 WriteControl，可与其他写操作并发。
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
