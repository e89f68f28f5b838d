// Package llm provides the chat completion capability: a Client interface,
// an OpenAI-compatible implementation with streaming, and a circuit
// breaker wrapper.
package llm

import (
	"context"
	"errors"

	"github.com/knnymrls/whoknows/pkg/types"
)

// ErrEmptyResponse is returned when the model produces no choices.
var ErrEmptyResponse = errors.New("empty response from language model")

// TokenFunc receives streamed completion deltas in arrival order. A
// non-nil return abandons the stream; the client stops reading and
// propagates the error.
type TokenFunc func(token string) error

// Client defines the language model operations used by the pipeline.
type Client interface {
	// Chat sends a completion request and returns the full response.
	Chat(ctx context.Context, messages []types.Message) (*types.Response, error)

	// ChatStream sends a completion request and delivers tokens through
	// onToken as they arrive. Returns the accumulated response.
	ChatStream(ctx context.Context, messages []types.Message, onToken TokenFunc) (*types.Response, error)

	// ChatWithStructuredOutput requests a JSON reply and unmarshals it
	// into out, repairing malformed model output first.
	ChatWithStructuredOutput(ctx context.Context, messages []types.Message, out any) error

	// Close cleans up any resources.
	Close() error
}

// Config holds chat model configuration.
type Config struct {
	Model       string  `json:"model"`
	APIKey      string  `json:"api_key"`
	BaseURL     string  `json:"base_url,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) types.Message {
	return types.Message{Role: types.RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) types.Message {
	return types.Message{Role: types.RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) types.Message {
	return types.Message{Role: types.RoleAssistant, Content: content}
}
