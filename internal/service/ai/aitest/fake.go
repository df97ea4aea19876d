// Package aitest provides a scripted ai.Client for tests.
package aitest

import (
	"context"
	"sync"

	"github.com/zhouzirui/z-assistant/backend/internal/service/ai"
)

// Reply is one scripted outcome.
type Reply struct {
	Text string
	Err  error
}

// FakeClient returns scripted replies in order and records every request. Once the
// script runs out it echoes the user message. Like the provider SDKs it fails with
// ctx.Err() when the context is already done.
type FakeClient struct {
	mu       sync.Mutex
	replies  []Reply
	requests []ai.Request
	// Before, when set, runs before a reply is produced.
	Before func(ctx context.Context, req ai.Request)
}

// NewFakeClient creates a client with the given script.
func NewFakeClient(replies ...Reply) *FakeClient {
	return &FakeClient{replies: replies}
}

var _ ai.Client = (*FakeClient)(nil)

func (f *FakeClient) Complete(ctx context.Context, req ai.Request) (string, error) {
	if f.Before != nil {
		f.Before(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)

	if len(f.replies) == 0 {
		return "echo: " + req.Message, nil
	}
	next := f.replies[0]
	f.replies = f.replies[1:]
	return next.Text, next.Err
}

// Requests returns a copy of the recorded requests.
func (f *FakeClient) Requests() []ai.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ai.Request(nil), f.requests...)
}

// ProviderFailure builds a scripted provider error.
func ProviderFailure(provider string, err error) Reply {
	return Reply{Err: &ai.ProviderError{Provider: provider, Err: err}}
}
