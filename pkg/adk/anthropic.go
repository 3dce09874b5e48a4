package adk

import (
	"context"
	"errors"
)

// ErrChatUnsupported is returned by providers that only support model listing.
var ErrChatUnsupported = errors.New("chat generation is not supported by this provider; use gemini")

type AnthropicProvider struct {
	APIKey string
	Model  string
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	if model == "" {
		model = "claude-sonnet-4-5"
	}
	return &AnthropicProvider{APIKey: apiKey, Model: model}
}

// ListModels returns a fixed list; there is no listing endpoint in use.
func (p *AnthropicProvider) ListModels(ctx context.Context) ([]string, error) {
	return []string{
		"claude-sonnet-4-5",
		"claude-opus-4-5",
		"claude-haiku-4-5",
	}, nil
}

func (p *AnthropicProvider) GenerateResponse(ctx context.Context, history []Message, tools []Tool) (string, *ToolCall, error) {
	return "", nil, ErrChatUnsupported
}
