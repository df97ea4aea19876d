// Package render projects a transcript into display lines. It never mutates state.
package render

import (
	"bytes"
	"html/template"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/zhouzirui/z-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/z-assistant/backend/internal/model/persona"
	"github.com/zhouzirui/z-assistant/backend/internal/service/ai"
)

// Line is one rendered turn.
type Line struct {
	Role    string        `json:"role"`
	Label   string        `json:"label"`
	Text    string        `json:"text"`
	HTML    template.HTML `json:"html"`
	IsIntro bool          `json:"isIntro,omitempty"`
	Failed  bool          `json:"failed,omitempty"`
}

// View splits the transcript between the main area and the optional sidebar.
type View struct {
	Main    []Line `json:"main"`
	Sidebar []Line `json:"sidebar,omitempty"`
}

// Renderer converts turns to Lines, rendering markdown with goldmark.
// Raw HTML in the source is dropped.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a Renderer with GitHub flavoured markdown.
func NewRenderer() *Renderer {
	return &Renderer{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

// Render lays the transcript out for the given layout. In the sidebar layout Main holds
// the latest maxLatest turns and Sidebar the whole transcript.
func (r *Renderer) Render(turns []chat.Turn, layout persona.Layout, maxLatest int) View {
	lines := r.Lines(turns)
	if layout != persona.LayoutSidebar {
		return View{Main: lines}
	}
	return View{Main: Latest(lines, maxLatest), Sidebar: lines}
}

// RenderFor renders turns using the persona's layout policy.
func (r *Renderer) RenderFor(p persona.Persona, turns []chat.Turn) View {
	return r.Render(turns, p.Layout, p.MaxLatest)
}

// Lines renders every turn in order.
func (r *Renderer) Lines(turns []chat.Turn) []Line {
	lines := make([]Line, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, r.line(turn))
	}
	return lines
}

func (r *Renderer) line(turn chat.Turn) Line {
	role := ai.DisplayRole(turn.Role)
	label := "Assistant"
	if role == string(chat.RoleUser) {
		label = "User"
	}
	return Line{
		Role:    role,
		Label:   label,
		Text:    turn.Text,
		HTML:    r.Markdown(turn.Text),
		IsIntro: turn.IsIntro,
		Failed:  turn.Failed(),
	}
}

// Markdown renders text to HTML. On failure it falls back to the escaped text.
func (r *Renderer) Markdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		log.Warn().Err(err).Str("component", "render").Msg("markdown conversion failed")
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}

// Latest returns the last n lines, or all of them when n is not positive or exceeds the length.
func Latest[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[len(items)-n:]
}
