package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/z-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/z-assistant/backend/internal/model/persona"
)

var (
	ErrPersonaRequired = errors.New("persona id is required")
	ErrPersonaNotFound = errors.New("persona not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyMessage    = errors.New("empty message")
)

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service keeps one Conversation per browser session.
type Service struct {
	mu        sync.RWMutex
	sessions  map[string]*Conversation
	personas  persona.Store
	responder Responder
	now       func() time.Time
}

// NewService bootstraps the in-memory session registry.
func NewService(personas persona.Store, responder Responder, opts ...Option) *Service {
	s := &Service{
		sessions:  make(map[string]*Conversation),
		personas:  personas,
		responder: responder,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession provisions an anonymous session bound to a persona.
func (s *Service) CreateSession(_ context.Context, personaID string) (chat.Session, error) {
	if personaID == "" {
		return chat.Session{}, ErrPersonaRequired
	}
	p, ok := s.personas.FindByID(personaID)
	if !ok {
		return chat.Session{}, ErrPersonaNotFound
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		PersonaID: personaID,
		CreatedAt: s.now().UTC(),
	}
	conv := newConversation(session, p, s.responder, s.now)

	s.mu.Lock()
	s.sessions[session.ID] = conv
	s.mu.Unlock()

	log.Debug().Str("component", "chat").Str("session", session.ID).Str("persona", personaID).Msg("session created")
	return session, nil
}

// Conversation returns the live conversation for sessionID.
func (s *Service) Conversation(_ context.Context, sessionID string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return conv, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(ctx context.Context, sessionID string) (chat.Session, error) {
	conv, err := s.Conversation(ctx, sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return conv.Session(), nil
}

// LoadTranscript returns the turns of the provided session.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Turn, error) {
	conv, err := s.Conversation(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return conv.Transcript(), nil
}

// Submit runs one exchange on the session.
func (s *Service) Submit(ctx context.Context, sessionID, text string) (Result, error) {
	conv, err := s.Conversation(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}

	result, err := conv.Submit(ctx, text)
	if err != nil {
		return Result{}, err
	}

	event := log.Debug()
	if !result.OK() {
		event = log.Warn().Err(result.Err)
	}
	event.Str("component", "chat").Str("session", sessionID).Str("result", string(result.Kind)).
		Bool("discarded", result.Discarded).Msg("exchange completed")
	return result, nil
}

// Clear resets the session transcript.
func (s *Service) Clear(ctx context.Context, sessionID string) ([]chat.Turn, error) {
	conv, err := s.Conversation(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return conv.Clear(), nil
}

// DeleteSession drops the session entirely.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// EvictIdle drops sessions inactive for longer than maxIdle and returns how many were removed.
func (s *Service) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, conv := range s.sessions {
		if conv.LastActive().Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.EvictIdle(maxIdle); n > 0 {
				log.Info().Str("component", "chat").Int("evicted", n).Int("remaining", s.Len()).Msg("evicted idle sessions")
			}
		}
	}
}
