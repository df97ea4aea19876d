package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/zhouzirui/z-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/z-assistant/backend/internal/model/persona"
	"github.com/zhouzirui/z-assistant/backend/internal/service/ai"
)

// Responder produces the assistant reply for a new user message given the prior turns.
// *ai.Service implements it.
type Responder interface {
	GenerateResponse(ctx context.Context, sessionID string, p *persona.Persona, turns []chat.Turn, userMessage string) (string, error)
}

// ResultKind tags the outcome of a submit.
type ResultKind string

const (
	ResultOK              ResultKind = "ok"
	ResultProviderError   ResultKind = "provider_error"
	ResultUnexpectedError ResultKind = "unexpected_error"
)

// Result is the outcome of one submit. Text is the reply, or the error description
// stored in the transcript when the call failed.
type Result struct {
	Kind ResultKind `json:"kind"`
	Text string     `json:"text"`
	Err  error      `json:"-"`
	// Discarded is set when the transcript was cleared while the call was in flight;
	// the reply was dropped instead of appended.
	Discarded bool `json:"discarded,omitempty"`
}

// OK reports whether the model answered.
func (r Result) OK() bool {
	return r.Kind == ResultOK
}

// Conversation is the transcript of one browser session.
type Conversation struct {
	session   chat.Session
	persona   persona.Persona
	responder Responder
	now       func() time.Time

	// sending serializes submits; mu guards the fields below it.
	sending    sync.Mutex
	mu         sync.RWMutex
	turns      []chat.Turn
	epoch      uint64
	lastActive time.Time
}

func newConversation(session chat.Session, p persona.Persona, responder Responder, now func() time.Time) *Conversation {
	c := &Conversation{
		session:    session,
		persona:    p,
		responder:  responder,
		now:        now,
		lastActive: now(),
	}
	c.turns = c.seed()
	return c
}

func (c *Conversation) seed() []chat.Turn {
	turns := make([]chat.Turn, 0, 16)
	if c.persona.HasIntro() {
		turns = append(turns, chat.IntroTurn(c.persona.OpeningLine))
	}
	return turns
}

// Session returns the session descriptor.
func (c *Conversation) Session() chat.Session {
	return c.session
}

// Persona returns the persona bound to this conversation.
func (c *Conversation) Persona() persona.Persona {
	return c.persona
}

// Transcript returns a copy of the turns in conversation order.
func (c *Conversation) Transcript() []chat.Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]chat.Turn(nil), c.turns...)
}

// LastActive returns when the conversation was last submitted to or cleared.
func (c *Conversation) LastActive() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastActive
}

// Submit appends the user turn, asks the model for a reply and appends the assistant
// turn. A failed call still appends exactly one assistant turn holding the error
// description; the only returned error is ErrEmptyMessage.
func (c *Conversation) Submit(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyMessage
	}

	c.sending.Lock()
	defer c.sending.Unlock()

	c.mu.Lock()
	prior := append([]chat.Turn(nil), c.turns...)
	c.turns = append(c.turns, chat.UserTurn(text))
	epoch := c.epoch
	c.lastActive = c.now()
	c.mu.Unlock()

	result, turn := c.respond(ctx, prior, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		result.Discarded = true
		return result, nil
	}
	c.turns = append(c.turns, turn)
	c.lastActive = c.now()
	return result, nil
}

func (c *Conversation) respond(ctx context.Context, prior []chat.Turn, text string) (Result, chat.Turn) {
	reply, err := c.responder.GenerateResponse(ctx, c.session.ID, &c.persona, prior, text)
	if err == nil {
		return Result{Kind: ResultOK, Text: reply}, chat.AssistantTurn(reply)
	}

	kind := ai.Classify(err)
	description := ai.Describe(err)
	result := Result{Kind: ResultUnexpectedError, Text: description, Err: err}
	if kind == chat.ErrorKindProvider {
		result.Kind = ResultProviderError
	}
	return result, chat.Turn{Role: chat.RoleAssistant, Text: description, ErrorKind: kind}
}

// Clear resets the transcript, reseeding the intro turn when the persona has one.
func (c *Conversation) Clear() []chat.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = c.seed()
	c.epoch++
	c.lastActive = c.now()
	return append([]chat.Turn(nil), c.turns...)
}
