// Package web 提供服务端渲染的浏览器聊天页面。
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/z-assistant/backend/internal/analysis/distress"
	"github.com/zhouzirui/z-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/z-assistant/backend/internal/model/persona"
	chatService "github.com/zhouzirui/z-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/z-assistant/backend/internal/service/render"
)

//go:embed templates/*.html
var templateFS embed.FS

// CookiePrefix 会话 cookie 名称前缀，每个 persona 一个 cookie。
const CookiePrefix = "assistant_"

// Options 页面相关设置
type Options struct {
	DefaultPersona string
	SecureCookies  bool
}

// Handler 浏览器页面处理器
type Handler struct {
	chatSvc   *chatService.Service
	personas  persona.Store
	renderer  *render.Renderer
	opts      Options
	templates *template.Template
}

// New 创建页面处理器并解析内嵌模板
func New(chatSvc *chatService.Service, personas persona.Store, renderer *render.Renderer, opts Options) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{
		chatSvc:   chatSvc,
		personas:  personas,
		renderer:  renderer,
		opts:      opts,
		templates: tmpl,
	}, nil
}

// RegisterRoutes 注册页面路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Route("/chat/{personaID}", func(r chi.Router) {
		r.Get("/", h.handlePage)
		r.Post("/messages", h.handleSubmit)
		r.Post("/clear", h.handleClear)
		r.Get("/logo", h.handleLogo)
	})
}

type pageData struct {
	Persona       persona.Persona
	Personas      []persona.Persona
	Main          []render.Line
	Sidebar       []render.Line
	SidebarLayout bool
	Disclaimer    template.HTML
	ErrorNotice   string
	CrisisNotice  bool
	LogoAvailable bool
	LogoURL       string
	SubmitURL     string
	ClearURL      string
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/chat/"+h.opts.DefaultPersona, http.StatusFound)
}

// handlePage 渲染会话页面，没有有效 cookie 时新建会话
func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	p, ok := h.persona(w, r)
	if !ok {
		return
	}

	conv, err := h.conversation(w, r, p)
	if err != nil {
		h.serverError(w, err)
		return
	}

	turns := conv.Transcript()
	view := h.renderer.RenderFor(p, turns)
	base := "/chat/" + p.ID

	data := pageData{
		Persona:       p,
		Personas:      h.personas.List(),
		Main:          view.Main,
		Sidebar:       view.Sidebar,
		SidebarLayout: p.Layout == persona.LayoutSidebar,
		ErrorNotice:   errorNotice(turns),
		CrisisNotice:  p.CrisisNotice && crisisNotice(turns),
		LogoAvailable: logoAvailable(p.LogoPath),
		LogoURL:       base + "/logo",
		SubmitURL:     base + "/messages",
		ClearURL:      base + "/clear",
	}
	if p.Disclaimer != "" {
		data.Disclaimer = h.renderer.Markdown(p.Disclaimer)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "page", data); err != nil {
		log.Error().Err(err).Str("component", "web").Str("persona", p.ID).Msg("render page failed")
	}
}

// handleSubmit 提交表单消息后重定向回页面
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	p, ok := h.persona(w, r)
	if !ok {
		return
	}

	conv, err := h.conversation(w, r, p)
	if err != nil {
		h.serverError(w, err)
		return
	}

	// 页面刷新或关闭不应中断模型调用
	if _, err := conv.Submit(context.WithoutCancel(r.Context()), r.PostFormValue("text")); err != nil && !errors.Is(err, chatService.ErrEmptyMessage) {
		h.serverError(w, err)
		return
	}
	http.Redirect(w, r, "/chat/"+p.ID, http.StatusSeeOther)
}

// handleClear 清空会话后重定向回页面
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	p, ok := h.persona(w, r)
	if !ok {
		return
	}

	conv, err := h.conversation(w, r, p)
	if err != nil {
		h.serverError(w, err)
		return
	}
	conv.Clear()
	http.Redirect(w, r, "/chat/"+p.ID, http.StatusSeeOther)
}

// handleLogo 返回 persona 配置的 logo 文件
func (h *Handler) handleLogo(w http.ResponseWriter, r *http.Request) {
	p, ok := h.persona(w, r)
	if !ok {
		return
	}
	if !logoAvailable(p.LogoPath) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, p.LogoPath)
}

func (h *Handler) persona(w http.ResponseWriter, r *http.Request) (persona.Persona, bool) {
	p, ok := h.personas.FindByID(chi.URLParam(r, "personaID"))
	if !ok {
		http.NotFound(w, r)
		return persona.Persona{}, false
	}
	return p, true
}

// conversation 通过 cookie 找回会话；cookie 缺失或会话已过期时新建会话
func (h *Handler) conversation(w http.ResponseWriter, r *http.Request, p persona.Persona) (*chatService.Conversation, error) {
	name := CookiePrefix + p.ID
	if cookie, err := r.Cookie(name); err == nil {
		conv, err := h.chatSvc.Conversation(r.Context(), cookie.Value)
		if err == nil && conv.Session().PersonaID == p.ID {
			return conv, nil
		}
	}

	session, err := h.chatSvc.CreateSession(r.Context(), p.ID)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return h.chatSvc.Conversation(r.Context(), session.ID)
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Str("component", "web").Msg("request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// errorNotice 最后一条助手回复失败时返回错误描述
func errorNotice(turns []chat.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	last := turns[len(turns)-1]
	if last.Role == chat.RoleAssistant && last.Failed() {
		return last.Text
	}
	return ""
}

// crisisNotice 检查最近一条用户消息
func crisisNotice(turns []chat.Turn) bool {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == chat.RoleUser {
			return distress.Analyze(turns[i].Text).Notify()
		}
	}
	return false
}

func logoAvailable(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
