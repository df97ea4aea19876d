package ai

import (
	"context"
	"fmt"
)

// MockClient answers without calling any provider; selected with ASSISTANT_PROVIDER=mock.
type MockClient struct{}

// NewMockClient creates a new mock client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

var _ Client = (*MockClient)(nil)

// Complete echoes the user message back.
func (m *MockClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &UnexpectedError{Err: err}
	}
	return fmt.Sprintf("[MOCK] Received your message: %q (%d earlier turns). This is a mock response.", truncate(req.Message, 100), len(req.History)), nil
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
