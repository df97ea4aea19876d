package ai

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/zhouzirui/z-assistant/backend/internal/model/chat"
)

// ErrEmptyReply is returned when the provider answers without any text.
var ErrEmptyReply = errors.New("model returned an empty response")

// ProviderError means the remote API rejected or failed the call.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// UnexpectedError covers every other failure during the call or while reading the reply.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return e.Err.Error()
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

func providerError(provider string, err error) error {
	return &ProviderError{Provider: provider, Err: err}
}

// Classify reports which error kind err belongs to.
func Classify(err error) chat.ErrorKind {
	if err == nil {
		return chat.ErrorKindNone
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return chat.ErrorKindUnexpected
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return chat.ErrorKindProvider
	}
	return chat.ErrorKindUnexpected
}

// Describe renders err as the text stored in the failed assistant turn.
func Describe(err error) string {
	if Classify(err) == chat.ErrorKindProvider {
		return fmt.Sprintf("An API error occurred: %v", err)
	}
	return fmt.Sprintf("An unexpected error occurred: %v", err)
}
