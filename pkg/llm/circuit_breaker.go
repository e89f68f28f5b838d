package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/knnymrls/whoknows/pkg/types"
)

// BreakerConfig holds circuit breaker settings for the LLM client.
type BreakerConfig struct {
	Enabled          bool    `json:"enabled"`
	MaxRequests      uint32  `json:"max_requests"`
	Interval         int     `json:"interval"` // seconds
	Timeout          int     `json:"timeout"`  // seconds
	ReadyToTripRatio float64 `json:"ready_to_trip_ratio"`
}

// CircuitBreakerClient wraps a Client with circuit breaking so a flapping
// upstream fails fast instead of stalling every request.
type CircuitBreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker
}

// WithCircuitBreaker wraps client according to cfg. Returns the client
// unchanged when the breaker is disabled.
func WithCircuitBreaker(client Client, cfg BreakerConfig, logger *slog.Logger) Client {
	if !cfg.Enabled {
		return client
	}
	if logger == nil {
		logger = slog.Default()
	}

	st := gobreaker.Settings{
		Name:        "llm",
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &CircuitBreakerClient{client: client, cb: gobreaker.NewCircuitBreaker(st)}
}

// Chat implements Client.
func (c *CircuitBreakerClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	resp, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Chat(ctx, messages)
	})
	if err != nil {
		return nil, err
	}
	return resp.(*types.Response), nil
}

// ChatStream implements Client.
func (c *CircuitBreakerClient) ChatStream(ctx context.Context, messages []types.Message, onToken TokenFunc) (*types.Response, error) {
	resp, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.ChatStream(ctx, messages, onToken)
	})
	if err != nil {
		return nil, err
	}
	return resp.(*types.Response), nil
}

// ChatWithStructuredOutput implements Client.
func (c *CircuitBreakerClient) ChatWithStructuredOutput(ctx context.Context, messages []types.Message, out any) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.ChatWithStructuredOutput(ctx, messages, out)
	})
	return err
}

// Close implements Client.
func (c *CircuitBreakerClient) Close() error {
	return c.client.Close()
}
