package ai

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"
)

const providerArk = "ark"

// ArkClient runs requests through an eino chain: chat template followed by the chat model.
type ArkClient struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArkClient compiles the request chain around chatModel.
func NewArkClient(ctx context.Context, chatModel model.ChatModel) (*ArkClient, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system", true),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "compile chat chain")
	}
	return &ArkClient{chain: runnable}, nil
}

func (c *ArkClient) Complete(ctx context.Context, req Request) (string, error) {
	var opts []model.Option
	if req.MaxOutputTokens != nil {
		opts = append(opts, model.WithMaxTokens(int(*req.MaxOutputTokens)))
	}
	if req.Temperature != nil {
		opts = append(opts, model.WithTemperature(*req.Temperature))
	}
	if req.Model != "" {
		opts = append(opts, model.WithModel(req.Model))
	}

	response, err := c.chain.Invoke(ctx, buildChainInput(req), compose.WithChatModelOption(opts...))
	if err != nil {
		return "", providerError(providerArk, err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", &UnexpectedError{Err: ErrEmptyReply}
	}
	return response.Content, nil
}

func buildChainInput(req Request) map[string]any {
	var system []*schema.Message
	if req.SystemInstruction != "" {
		system = append(system, schema.SystemMessage(req.SystemInstruction))
	}
	return map[string]any{
		"system":  system,
		"history": toSchemaMessages(req.History),
		"query":   req.Message,
	}
}

func toSchemaMessages(history []Content) []*schema.Message {
	out := make([]*schema.Message, 0, len(history))
	for _, entry := range history {
		text := strings.Join(entry.Parts, "\n")
		if entry.Role == APIRoleUser {
			out = append(out, schema.UserMessage(text))
			continue
		}
		out = append(out, schema.AssistantMessage(text, nil))
	}
	return out
}
