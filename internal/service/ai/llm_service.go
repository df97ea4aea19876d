package ai

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/z-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/z-assistant/backend/internal/model/persona"
)

// Options configures Service.
type Options struct {
	Model string
	// MaxOutputTokens and Temperature, when set, replace the persona limits.
	MaxOutputTokens *int32
	Temperature     *float32
	History         HistoryOptions
	Prompts         *PersonaPromptManager
}

// Service turns a persona and a transcript into a model call.
type Service struct {
	client Client
	opts   Options
}

// NewService wraps client.
func NewService(client Client, opts Options) *Service {
	if opts.Prompts == nil {
		opts.Prompts = NewPersonaPromptManager(nil)
	}
	return &Service{client: client, opts: opts}
}

// BuildRequest translates the prior turns plus the new user text into a request.
// turns must not contain the new user turn.
func (s *Service) BuildRequest(p *persona.Persona, turns []chat.Turn, userMessage string) Request {
	req := Request{
		Model:             s.opts.Model,
		SystemInstruction: s.opts.Prompts.BuildSystemInstruction(p),
		History:           BuildHistory(turns, s.opts.History),
		Message:           userMessage,
	}
	if p != nil {
		req.MaxOutputTokens = p.MaxOutputTokens
		req.Temperature = p.Temperature
	}
	if s.opts.MaxOutputTokens != nil {
		req.MaxOutputTokens = s.opts.MaxOutputTokens
	}
	if s.opts.Temperature != nil {
		req.Temperature = s.opts.Temperature
	}
	return req
}

// GenerateResponse performs one round trip. Errors are *ProviderError or *UnexpectedError.
func (s *Service) GenerateResponse(ctx context.Context, sessionID string, p *persona.Persona, turns []chat.Turn, userMessage string) (string, error) {
	req := s.BuildRequest(p, turns, userMessage)

	reply, err := s.client.Complete(ctx, req)
	if err != nil {
		var (
			perr *ProviderError
			uerr *UnexpectedError
		)
		if !errors.As(err, &perr) && !errors.As(err, &uerr) {
			err = &UnexpectedError{Err: err}
		}
		log.Warn().Err(err).Str("component", "ai").Str("session", sessionID).Str("kind", string(Classify(err))).Msg("model call failed")
		return "", err
	}
	if reply == "" {
		return "", &UnexpectedError{Err: ErrEmptyReply}
	}

	personaID := ""
	if p != nil {
		personaID = p.ID
	}
	log.Debug().Str("component", "ai").Str("session", sessionID).Str("persona", personaID).
		Int("history", len(req.History)).Int("length", len(reply)).Msg("generated response")
	return reply, nil
}
