// Package ai translates conversation transcripts into chat-completion requests and
// talks to the hosted model providers.
package ai

import (
	"context"

	"github.com/pkg/errors"

	"github.com/zhouzirui/z-assistant/backend/internal/config"
)

// Content is one role-tagged history entry in the wire shape shared by the providers.
type Content struct {
	Role  string   `json:"role"`
	Parts []string `json:"parts"`
}

// Request is a single chat-completion call.
type Request struct {
	Model             string
	SystemInstruction string
	History           []Content
	Message           string
	MaxOutputTokens   *int32
	Temperature       *float32
}

// Client sends one chat-completion request and returns the reply text.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// NewClient builds the provider client selected by configuration.
func NewClient(ctx context.Context, cfg config.AIConfig) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.APIKey)
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "create ark chat model")
		}
		return NewArkClient(ctx, chatModel)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL), nil
	case config.ProviderMock:
		return NewMockClient(), nil
	default:
		return nil, errors.Errorf("unknown provider %q", cfg.Provider)
	}
}
