package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-assistant/backend/internal/model/persona"
	"github.com/zhouzirui/z-assistant/backend/internal/service/ai"
	"github.com/zhouzirui/z-assistant/backend/internal/service/ai/aitest"
	chatservice "github.com/zhouzirui/z-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/z-assistant/backend/internal/service/render"
)

type browser struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, personas []persona.Persona, replies ...aitest.Reply) (*browser, *chatservice.Service) {
	t.Helper()
	store := persona.NewMemoryStore(personas)
	responder := ai.NewService(aitest.NewFakeClient(replies...), ai.Options{Model: "test-model"})
	chatSvc := chatservice.NewService(store, responder)

	h, err := New(chatSvc, store, render.NewRenderer(), Options{DefaultPersona: "qa"})
	require.NoError(t, err)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return &browser{t: t, handler: r, cookies: map[string]*http.Cookie{}}, chatSvc
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	resp := httptest.NewRecorder()
	b.handler.ServeHTTP(resp, req)
	for _, c := range resp.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return resp
}

func TestIndexRedirectsToDefaultPersona(t *testing.T) {
	b, _ := newBrowser(t, persona.Seed())
	resp := b.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, "/chat/qa", resp.Header().Get("Location"))
}

func TestPageCreatesSessionCookie(t *testing.T) {
	b, chatSvc := newBrowser(t, persona.Seed())

	resp := b.do(http.MethodGet, "/chat/mental-health", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, "<title>Mental Health Awareness Assistant</title>")
	assert.Contains(t, body, "NOT a substitute for professional medical advice")
	assert.Contains(t, body, "How can I help you today?")
	assert.Contains(t, body, `placeholder="Ask about mental health topics..."`)
	assert.Contains(t, body, "Thinking...")

	require.Contains(t, b.cookies, CookiePrefix+"mental-health")
	assert.Equal(t, 1, chatSvc.Len())

	b.do(http.MethodGet, "/chat/mental-health", nil)
	assert.Equal(t, 1, chatSvc.Len(), "cookie should reuse the session")
}

func TestSubmitRedirectsAndRendersExchange(t *testing.T) {
	b, _ := newBrowser(t, persona.Seed(), aitest.Reply{Text: "Anxiety is **worry**."})

	resp := b.do(http.MethodPost, "/chat/qa/messages", url.Values{"text": {"What is anxiety?"}})
	require.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, "/chat/qa", resp.Header().Get("Location"))

	body := b.do(http.MethodGet, "/chat/qa", nil).Body.String()
	assert.Contains(t, body, "What is anxiety?")
	assert.Contains(t, body, "<strong>worry</strong>")
	assert.NotContains(t, body, `class="error"`)
}

func TestSubmitEmptyIsNoop(t *testing.T) {
	b, chatSvc := newBrowser(t, persona.Seed())

	resp := b.do(http.MethodPost, "/chat/qa/messages", url.Values{"text": {"   "}})
	require.Equal(t, http.StatusSeeOther, resp.Code)

	sessionID := b.cookies[CookiePrefix+"qa"].Value
	turns, err := chatSvc.LoadTranscript(t.Context(), sessionID)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestSubmitSurvivesClientDisconnect(t *testing.T) {
	fake := aitest.NewFakeClient(aitest.Reply{Text: "Real reply."})
	store := persona.NewMemoryStore(persona.Seed())
	chatSvc := chatservice.NewService(store, ai.NewService(fake, ai.Options{Model: "test-model"}))
	h, err := New(chatSvc, store, render.NewRenderer(), Options{DefaultPersona: "qa"})
	require.NoError(t, err)
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake.Before = func(context.Context, ai.Request) { cancel() }

	form := url.Values{"text": {"hi"}}
	req := httptest.NewRequest(http.MethodPost, "/chat/qa/messages", strings.NewReader(form.Encode())).WithContext(ctx)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusSeeOther, resp.Code)

	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	turns, err := chatSvc.LoadTranscript(context.Background(), cookies[0].Value)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "Real reply.", turns[1].Text)
	assert.False(t, turns[1].Failed())
}

func TestFailedReplyShowsErrorNotice(t *testing.T) {
	b, _ := newBrowser(t, persona.Seed(), aitest.ProviderFailure("gemini", errors.New("quota exceeded")))

	b.do(http.MethodPost, "/chat/qa/messages", url.Values{"text": {"hello"}})
	body := b.do(http.MethodGet, "/chat/qa", nil).Body.String()
	assert.Contains(t, body, `class="error"`)
	assert.Contains(t, body, "An API error occurred: quota exceeded")
}

func TestCrisisNoticeOnlyForMentalHealth(t *testing.T) {
	b, _ := newBrowser(t, persona.Seed())

	b.do(http.MethodPost, "/chat/mental-health/messages", url.Values{"text": {"I want to hurt myself"}})
	assert.Contains(t, b.do(http.MethodGet, "/chat/mental-health", nil).Body.String(), `class="crisis"`)

	b.do(http.MethodPost, "/chat/qa/messages", url.Values{"text": {"I want to hurt myself"}})
	assert.NotContains(t, b.do(http.MethodGet, "/chat/qa", nil).Body.String(), `class="crisis"`)
}

func TestClearResetsToIntro(t *testing.T) {
	b, chatSvc := newBrowser(t, persona.Seed())

	b.do(http.MethodPost, "/chat/mental-health/messages", url.Values{"text": {"hello"}})
	resp := b.do(http.MethodPost, "/chat/mental-health/clear", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.Code)

	turns, err := chatSvc.LoadTranscript(t.Context(), b.cookies[CookiePrefix+"mental-health"].Value)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.True(t, turns[0].IsIntro)
}

func TestSidebarLayoutShowsHistory(t *testing.T) {
	b, _ := newBrowser(t, persona.Seed())

	for _, text := range []string{"first question", "second question"} {
		b.do(http.MethodPost, "/chat/mental-health-sidebar/messages", url.Values{"text": {text}})
	}
	body := b.do(http.MethodGet, "/chat/mental-health-sidebar", nil).Body.String()

	sidebar := body[strings.Index(body, `<aside class="sidebar">`):strings.Index(body, "</aside>")]
	assert.Contains(t, sidebar, "first question")

	main := body[strings.Index(body, "<main>"):]
	assert.NotContains(t, main, "first question")
	assert.Contains(t, main, "second question")
	assert.NotContains(t, body, `class="disclaimer"`)
}

func TestStaleCookieStartsNewSession(t *testing.T) {
	b, chatSvc := newBrowser(t, persona.Seed())
	b.cookies[CookiePrefix+"qa"] = &http.Cookie{Name: CookiePrefix + "qa", Value: "expired"}

	resp := b.do(http.MethodGet, "/chat/qa", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.NotEqual(t, "expired", b.cookies[CookiePrefix+"qa"].Value)
	assert.Equal(t, 1, chatSvc.Len())
}

func TestSidebarShowsLogoPlaceholderWithoutPath(t *testing.T) {
	b, _ := newBrowser(t, persona.Seed())

	sidebarPage := b.do(http.MethodGet, "/chat/mental-health-sidebar", nil).Body.String()
	assert.Contains(t, sidebarPage, "Logo not found. Please update the path.")
	assert.Contains(t, sidebarPage, "Your Logo Here")

	fullPage := b.do(http.MethodGet, "/chat/mental-health", nil).Body.String()
	assert.NotContains(t, fullPage, "Your Logo Here")
}

func TestUnknownPersona(t *testing.T) {
	b, _ := newBrowser(t, persona.Seed())
	assert.Equal(t, http.StatusNotFound, b.do(http.MethodGet, "/chat/nobody", nil).Code)
}

func TestLogo(t *testing.T) {
	dir := t.TempDir()
	logo := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(logo, []byte("png"), 0o600))

	personas := persona.Override(persona.Seed(), func(p *persona.Persona) {
		switch p.ID {
		case "mental-health":
			p.LogoPath = logo
		case "mental-health-sidebar":
			p.LogoPath = filepath.Join(dir, "missing.png")
		}
	})
	b, _ := newBrowser(t, personas)

	resp := b.do(http.MethodGet, "/chat/mental-health/logo", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "png", resp.Body.String())
	assert.Contains(t, b.do(http.MethodGet, "/chat/mental-health", nil).Body.String(), `src="/chat/mental-health/logo"`)

	assert.Equal(t, http.StatusNotFound, b.do(http.MethodGet, "/chat/mental-health-sidebar/logo", nil).Code)
	assert.Contains(t, b.do(http.MethodGet, "/chat/mental-health-sidebar", nil).Body.String(), "Logo not found at")

	assert.Equal(t, http.StatusNotFound, b.do(http.MethodGet, "/chat/qa/logo", nil).Code)
}
