package ai

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const providerGemini = "gemini"

// GeminiClient talks to the Gemini generative language API.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a client authenticated with apiKey.
func NewGeminiClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GeminiClient, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}
	return &GeminiClient{client: client}, nil
}

// Close releases the underlying connection.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// Complete starts a chat seeded with req.History and sends req.Message.
func (g *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	session := startChat(g.client.GenerativeModel(req.Model), req)

	resp, err := session.SendMessage(ctx, genai.Text(req.Message))
	if err != nil {
		return "", classifyGeminiError(err)
	}
	return geminiText(resp)
}

// startChat applies the request's generation settings to model and opens a chat
// seeded with the request history.
func startChat(model *genai.GenerativeModel, req Request) *genai.ChatSession {
	if req.SystemInstruction != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.SystemInstruction))
	}
	if req.MaxOutputTokens != nil {
		model.SetMaxOutputTokens(*req.MaxOutputTokens)
	}
	if req.Temperature != nil {
		model.SetTemperature(*req.Temperature)
	}

	session := model.StartChat()
	session.History = toGeminiHistory(req.History)
	return session
}

func toGeminiHistory(history []Content) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, entry := range history {
		parts := make([]genai.Part, 0, len(entry.Parts))
		for _, p := range entry.Parts {
			parts = append(parts, genai.Text(p))
		}
		out = append(out, &genai.Content{Role: entry.Role, Parts: parts})
	}
	return out
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &UnexpectedError{Err: ErrEmptyReply}
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", &UnexpectedError{Err: ErrEmptyReply}
	}
	return b.String(), nil
}

func classifyGeminiError(err error) error {
	var (
		gerr    *googleapi.Error
		apiErr  *apierror.APIError
		blocked *genai.BlockedError
	)
	switch {
	case errors.As(err, &gerr), errors.As(err, &apiErr), errors.As(err, &blocked):
		return providerError(providerGemini, err)
	default:
		return &UnexpectedError{Err: err}
	}
}
