package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	openai "github.com/sashabaranov/go-openai"

	"github.com/knnymrls/whoknows/pkg/types"
)

const (
	defaultModel = "gpt-4o-mini"
	maxRetries   = 2
)

// OpenAIClient implements Client against OpenAI or any OpenAI-compatible
// service reachable through a custom base URL.
type OpenAIClient struct {
	client *openai.Client
	config Config
}

// NewOpenAIClient creates a chat client.
func NewOpenAIClient(config Config) *OpenAIClient {
	if config.Model == "" {
		config.Model = defaultModel
	}

	var client *openai.Client
	if config.BaseURL != "" {
		clientConfig := openai.DefaultConfig(config.APIKey)
		clientConfig.BaseURL = config.BaseURL
		client = openai.NewClientWithConfig(clientConfig)
	} else {
		client = openai.NewClient(config.APIKey)
	}

	return &OpenAIClient{client: client, config: config}
}

func (c *OpenAIClient) buildRequest(messages []types.Message, stream bool) openai.ChatCompletionRequest {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    converted,
		Temperature: c.config.Temperature,
		Stream:      stream,
	}
	if c.config.MaxTokens > 0 {
		req.MaxTokens = c.config.MaxTokens
	}
	return req
}

// Chat sends a completion request with bounded retry on transient errors.
func (c *OpenAIClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(messages, false))
		if err != nil {
			lastErr = err
			if isRetriableError(err) && attempt < maxRetries {
				continue
			}
			return nil, fmt.Errorf("chat completion failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, ErrEmptyResponse
		}

		return &types.Response{
			Content:      resp.Choices[0].Message.Content,
			Model:        resp.Model,
			FinishReason: string(resp.Choices[0].FinishReason),
		}, nil
	}

	return nil, fmt.Errorf("all retries exhausted: %w", lastErr)
}

// ChatStream streams completion tokens through onToken in arrival order
// and returns the accumulated response. Streaming requests are not
// retried: once tokens have been delivered they cannot be retracted.
func (c *OpenAIClient) ChatStream(ctx context.Context, messages []types.Message, onToken TokenFunc) (*types.Response, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.buildRequest(messages, true))
	if err != nil {
		return nil, fmt.Errorf("chat completion stream failed: %w", err)
	}
	defer stream.Close()

	var builder strings.Builder
	var finishReason string

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stream receive failed: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			finishReason = string(choice.FinishReason)
		}
		if choice.Delta.Content == "" {
			continue
		}

		builder.WriteString(choice.Delta.Content)
		if onToken != nil {
			if err := onToken(choice.Delta.Content); err != nil {
				return nil, fmt.Errorf("token sink rejected stream: %w", err)
			}
		}
	}

	return &types.Response{
		Content:      builder.String(),
		Model:        c.config.Model,
		FinishReason: finishReason,
	}, nil
}

// ChatWithStructuredOutput asks for a JSON reply and unmarshals it into
// out. Malformed model output is passed through jsonrepair before
// unmarshalling.
func (c *OpenAIClient) ChatWithStructuredOutput(ctx context.Context, messages []types.Message, out any) error {
	prepared := make([]types.Message, len(messages))
	copy(prepared, messages)
	if len(prepared) > 0 {
		prepared[len(prepared)-1].Content += "\n\nRespond with a single JSON object and nothing else."
	}

	resp, err := c.Chat(ctx, prepared)
	if err != nil {
		return err
	}

	content := strings.TrimSpace(resp.Content)
	if err := json.Unmarshal([]byte(content), out); err == nil {
		return nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return fmt.Errorf("model returned unparseable JSON: %w", repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("failed to unmarshal repaired JSON: %w", err)
	}
	return nil
}

// Close implements Client. The underlying HTTP client needs no cleanup.
func (c *OpenAIClient) Close() error {
	return nil
}

func isRetriableError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, retriable := range []string{
		"rate limit",
		"rate_limit",
		"timeout",
		"connection",
		"internal server error",
		"service unavailable",
		"bad gateway",
		"gateway timeout",
	} {
		if strings.Contains(msg, retriable) {
			return true
		}
	}
	return false
}
