package ai

import (
	"context"

	"github.com/pkg/errors"
	openaiapi "github.com/sashabaranov/go-openai"
)

const providerOpenAI = "openai"

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	api *openaiapi.Client
}

// NewOpenAIClient creates a client; an empty baseURL keeps the public endpoint.
func NewOpenAIClient(token, baseURL string) *OpenAIClient {
	cfg := openaiapi.DefaultConfig(token)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{api: openaiapi.NewClientWithConfig(cfg)}
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	apiReq := openaiapi.ChatCompletionRequest{
		Model:    req.Model,
		Messages: toOpenAIMessages(req),
	}
	if req.MaxOutputTokens != nil {
		apiReq.MaxCompletionTokens = int(*req.MaxOutputTokens)
	}
	if req.Temperature != nil {
		apiReq.Temperature = *req.Temperature
	}

	resp, err := c.api.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &UnexpectedError{Err: ErrEmptyReply}
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(req Request) []openaiapi.ChatCompletionMessage {
	res := make([]openaiapi.ChatCompletionMessage, 0, len(req.History)+2)
	if req.SystemInstruction != "" {
		res = append(res, openaiapi.ChatCompletionMessage{
			Role:    openaiapi.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}
	for _, entry := range req.History {
		role := openaiapi.ChatMessageRoleAssistant
		if entry.Role == APIRoleUser {
			role = openaiapi.ChatMessageRoleUser
		}
		for _, part := range entry.Parts {
			res = append(res, openaiapi.ChatCompletionMessage{Role: role, Content: part})
		}
	}
	return append(res, openaiapi.ChatCompletionMessage{
		Role:    openaiapi.ChatMessageRoleUser,
		Content: req.Message,
	})
}

func classifyOpenAIError(err error) error {
	var (
		apiErr *openaiapi.APIError
		reqErr *openaiapi.RequestError
	)
	if errors.As(err, &apiErr) || errors.As(err, &reqErr) {
		return providerError(providerOpenAI, err)
	}
	return &UnexpectedError{Err: err}
}
